package biz

import (
	"context"
	"time"

	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// Voucher 优惠券
type Voucher struct {
	ID           uint64
	Code         string
	Type         string // PERCENTAGE / FIXED_AMOUNT
	Value        float64
	MinOrder     float64
	CategoryID   *uint64 // nil = 不限分类
	StartDate    *time.Time
	EndDate      *time.Time
	Active       bool
	UsageLimit   int // 0 = 不限次数
	PerUserLimit int // 0 = 不限单人次数
}

// VoucherRedemption 优惠券核销记录。下单时创建 (未核销),
// 支付成功后标记核销; 使用次数按已核销记录统计。
type VoucherRedemption struct {
	ID        uint64
	VoucherID uint64
	UserID    uint64
	OrderID   uint64
	Used      bool
	CreatedAt time.Time
}

// VoucherRepo 优惠券仓库接口
type VoucherRepo interface {
	// GetByCode 按 code 查询, 不存在时返回 (nil, nil)
	GetByCode(ctx context.Context, code string) (*Voucher, error)
	CountRedemptions(ctx context.Context, voucherID uint64) (int64, error)
	CountUserRedemptions(ctx context.Context, voucherID, userID uint64) (int64, error)
	CreateRedemption(ctx context.Context, r *VoucherRedemption) error
	// MarkRedeemed 将订单关联的核销记录标记为已使用
	MarkRedeemed(ctx context.Context, orderID uint64) error
}

// VoucherUsecase 优惠券业务逻辑
type VoucherUsecase struct {
	repo VoucherRepo
	log  *log.Helper
}

// NewVoucherUsecase 创建优惠券业务实例
func NewVoucherUsecase(repo VoucherRepo, logger log.Logger) *VoucherUsecase {
	return &VoucherUsecase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// Evaluate 校验优惠券并计算折扣金额。
// 校验失败即中止结算 (不做静默忽略), 任何一项不满足都返回对应业务错误。
func (uc *VoucherUsecase) Evaluate(ctx context.Context, code string, snapshot *CartSnapshot, userID uint64) (float64, *Voucher, error) {
	voucher, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return 0, nil, err
	}
	if voucher == nil {
		return 0, nil, errors.Newf(errors.ErrCodeVoucherInvalid, errors.ReasonVoucherInvalid, "voucher %q does not exist", code)
	}
	if !voucher.Active {
		return 0, nil, errors.Newf(errors.ErrCodeVoucherInvalid, errors.ReasonVoucherInvalid, "voucher %q is disabled", code)
	}

	now := time.Now().UTC()
	if voucher.StartDate != nil && now.Before(*voucher.StartDate) {
		return 0, nil, errors.Newf(errors.ErrCodeVoucherInvalid, errors.ReasonVoucherInvalid, "voucher %q is not active yet", code)
	}
	if voucher.EndDate != nil && now.After(*voucher.EndDate) {
		return 0, nil, errors.Newf(errors.ErrCodeVoucherExpired, errors.ReasonVoucherExpired, "voucher %q has expired", code)
	}

	if voucher.UsageLimit > 0 {
		used, err := uc.repo.CountRedemptions(ctx, voucher.ID)
		if err != nil {
			return 0, nil, err
		}
		if used >= int64(voucher.UsageLimit) {
			return 0, nil, errors.Newf(errors.ErrCodeVoucherUsageLimitExceeded, errors.ReasonVoucherUsageLimit,
				"voucher %q usage limit reached", code)
		}
	}
	if voucher.PerUserLimit > 0 {
		used, err := uc.repo.CountUserRedemptions(ctx, voucher.ID, userID)
		if err != nil {
			return 0, nil, err
		}
		if used >= int64(voucher.PerUserLimit) {
			return 0, nil, errors.Newf(errors.ErrCodeVoucherUsageLimitExceeded, errors.ReasonVoucherUsageLimit,
				"voucher %q already used by this user", code)
		}
	}

	// 折扣基数: 限定分类时只按该分类的小计计算
	base := snapshot.Subtotal()
	if voucher.CategoryID != nil {
		base = snapshot.CategorySubtotals()[*voucher.CategoryID]
		if base <= 0 {
			return 0, nil, errors.Newf(errors.ErrCodeVoucherInvalid, errors.ReasonVoucherInvalid,
				"no cart items match the voucher category")
		}
	}

	if voucher.MinOrder > 0 && base < voucher.MinOrder {
		return 0, nil, errors.Newf(errors.ErrCodeVoucherMinOrderNotMet, errors.ReasonVoucherMinOrder,
			"order value %.2f below voucher minimum %.2f", base, voucher.MinOrder)
	}

	var discount float64
	switch voucher.Type {
	case constants.VoucherTypePercentage:
		discount = base * voucher.Value / 100.0
	case constants.VoucherTypeFixedAmount:
		discount = voucher.Value
	default:
		return 0, nil, errors.Newf(errors.ErrCodeVoucherInvalid, errors.ReasonVoucherInvalid,
			"voucher %q has unknown type %q", code, voucher.Type)
	}

	if discount < 0 {
		discount = 0
	}
	if discount > base {
		discount = base
	}

	uc.log.Infof("Voucher %s evaluated: base=%.2f discount=%.2f", code, base, discount)
	return discount, voucher, nil
}
