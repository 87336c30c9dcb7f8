package data

import (
	"context"
	"encoding/json"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	voucherCacheKeyPrefix = "voucher:code:"
	// voucherNullValue 空值占位, 缓存"确定不存在"防止穿透
	voucherNullValue = "null"
)

// voucherRepo 优惠券仓库实现 (旁路缓存)
type voucherRepo struct {
	data *Data
	log  *log.Helper
}

// NewVoucherRepo 创建优惠券仓库
func NewVoucherRepo(data *Data, logger log.Logger) biz.VoucherRepo {
	return &voucherRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetByCode 按 code 查询优惠券, 不存在时返回 (nil, nil)。
// 先查缓存, 未命中回源数据库并回填; 缓存故障不阻断查询。
func (r *voucherRepo) GetByCode(ctx context.Context, code string) (*biz.Voucher, error) {
	key := voucherCacheKeyPrefix + code

	if cached, err := r.data.rdb.Get(ctx, key).Result(); err == nil {
		if cached == voucherNullValue {
			return nil, nil
		}
		var v biz.Voucher
		if err := json.Unmarshal([]byte(cached), &v); err == nil {
			return &v, nil
		}
		// 缓存内容损坏, 当未命中处理
		r.data.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		r.log.Warnf("Voucher cache read failed for %s: %v", code, err)
	}

	var m model.Voucher
	if err := r.data.DB(ctx).First(&m, "code = ?", code).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			r.data.rdb.Set(ctx, key, voucherNullValue, constants.NullCacheExpiration)
			return nil, nil
		}
		r.log.Errorf("Failed to get voucher %s: %v", code, err)
		return nil, err
	}

	v := &biz.Voucher{
		ID:           m.ID,
		Code:         m.Code,
		Type:         m.Type,
		Value:        m.Value,
		MinOrder:     m.MinOrder,
		CategoryID:   m.CategoryID,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		Active:       m.Active,
		UsageLimit:   m.UsageLimit,
		PerUserLimit: m.PerUserLimit,
	}
	if b, err := json.Marshal(v); err == nil {
		r.data.rdb.Set(ctx, key, b, constants.VoucherCacheExpiration)
	}
	return v, nil
}

// CountRedemptions 统计优惠券已核销次数
func (r *voucherRepo) CountRedemptions(ctx context.Context, voucherID uint64) (int64, error) {
	var count int64
	if err := r.data.DB(ctx).Model(&model.VoucherRedemption{}).
		Where("voucher_id = ? AND used = ?", voucherID, true).
		Count(&count).Error; err != nil {
		r.log.Errorf("Failed to count redemptions of voucher %d: %v", voucherID, err)
		return 0, err
	}
	return count, nil
}

// CountUserRedemptions 统计单用户已核销次数
func (r *voucherRepo) CountUserRedemptions(ctx context.Context, voucherID, userID uint64) (int64, error) {
	var count int64
	if err := r.data.DB(ctx).Model(&model.VoucherRedemption{}).
		Where("voucher_id = ? AND user_id = ? AND used = ?", voucherID, userID, true).
		Count(&count).Error; err != nil {
		r.log.Errorf("Failed to count user redemptions of voucher %d: %v", voucherID, err)
		return 0, err
	}
	return count, nil
}

// CreateRedemption 创建核销记录 (下单时未核销)
func (r *voucherRepo) CreateRedemption(ctx context.Context, redemption *biz.VoucherRedemption) error {
	m := &model.VoucherRedemption{
		VoucherID: redemption.VoucherID,
		UserID:    redemption.UserID,
		OrderID:   redemption.OrderID,
		Used:      redemption.Used,
		CreatedAt: redemption.CreatedAt,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to create redemption for voucher %d: %v", redemption.VoucherID, err)
		return err
	}
	redemption.ID = m.ID
	return nil
}

// MarkRedeemed 支付成功后标记订单关联的核销记录为已使用
func (r *voucherRepo) MarkRedeemed(ctx context.Context, orderID uint64) error {
	if err := r.data.DB(ctx).Model(&model.VoucherRedemption{}).
		Where("order_id = ?", orderID).
		Update("used", true).Error; err != nil {
		r.log.Errorf("Failed to mark redemption used for order %d: %v", orderID, err)
		return err
	}
	return nil
}
