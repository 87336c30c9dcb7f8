package biz

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"smartshop/checkout-service/internal/auth"
	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// TxnStatus 支付交易状态
type TxnStatus string

const (
	TxnStatusPending TxnStatus = constants.TxnStatusPending
	TxnStatusSuccess TxnStatus = constants.TxnStatusSuccess
	TxnStatusFailed  TxnStatus = constants.TxnStatusFailed
)

// Terminal 判断是否为终态; 终态交易不接受任何后续回调
func (s TxnStatus) Terminal() bool {
	return s == TxnStatusSuccess || s == TxnStatusFailed
}

// PaymentTransaction 支付交易流水。每次支付尝试一条,
// 弱关联订单 (独立存续, 用于审计), 同一订单同时最多一条非终态。
type PaymentTransaction struct {
	ID            uint64
	OrderID       uint64
	TransactionNo string
	Method        PaymentMethod
	Amount        float64
	Currency      string
	Status        TxnStatus
	BankCode      string
	CardType      string
	GatewayTxnID  string
	ResponseCode  string
	SecureHash    string
	RawRequest    string
	RawResponse   string
	RefundAmount  float64
	RefundReason  string
	RefundedAt    *time.Time
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentTxnRepo 支付交易仓库接口
type PaymentTxnRepo interface {
	Create(ctx context.Context, txn *PaymentTransaction) error
	Update(ctx context.Context, txn *PaymentTransaction) error
	// UpdateIfStatus 条件更新: 仅当交易当前仍为 expect 状态时写入, 返回是否写入。
	// 终态迁移必须走这里, 防止并发投递互相覆盖。
	UpdateIfStatus(ctx context.Context, txn *PaymentTransaction, expect TxnStatus) (bool, error)
	// GetByTransactionNo 按交易号查询, 不存在时返回 (nil, nil)
	GetByTransactionNo(ctx context.Context, no string) (*PaymentTransaction, error)
	GetPendingByOrder(ctx context.Context, orderID uint64) (*PaymentTransaction, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*PaymentTransaction, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*PaymentTransaction, error)
}

// GatewayRedirect 网关跳转结果
type GatewayRedirect struct {
	PayURL     string
	RawRequest string // 审计用原始请求载荷
}

// CallbackResult 验签通过后的回调内容
type CallbackResult struct {
	TransactionNo string
	Success       bool
	ResponseCode  string
	BankCode      string
	CardType      string
	GatewayTxnID  string
	SecureHash    string
	RawPayload    string
}

// GatewayAdapter 支付网关适配器接口 (防腐层)。
// VerifyCallback 验签失败时返回 InvalidSignature 错误, 调用方不得变更任何状态。
type GatewayAdapter interface {
	Method() PaymentMethod
	CreateRedirect(ctx context.Context, txn *PaymentTransaction, orderNumber string) (*GatewayRedirect, error)
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}

// PaymentInit 发起支付的返回
type PaymentInit struct {
	Transaction  *PaymentTransaction
	PayURL       string
	QRCodeBase64 string // 支付链接的二维码 (base64 PNG), 生成失败时为空
}

// CallbackOutcome 回调处理结果
type CallbackOutcome struct {
	TransactionNo string
	OrderID       uint64
	Status        TxnStatus
	Duplicate     bool
}

// PaymentUsecase 支付业务逻辑
type PaymentUsecase struct {
	orderRepo   OrderRepo
	txnRepo     PaymentTxnRepo
	voucherRepo VoucherRepo
	adapters    map[PaymentMethod]GatewayAdapter
	tm          Transaction
	rs          *redsync.Redsync
	log         *log.Helper
}

// NewPaymentUsecase 创建支付业务实例
func NewPaymentUsecase(
	orderRepo OrderRepo,
	txnRepo PaymentTxnRepo,
	voucherRepo VoucherRepo,
	adapters []GatewayAdapter,
	tm Transaction,
	rs *redsync.Redsync,
	logger log.Logger,
) *PaymentUsecase {
	byMethod := make(map[PaymentMethod]GatewayAdapter, len(adapters))
	for _, a := range adapters {
		byMethod[a.Method()] = a
	}
	return &PaymentUsecase{
		orderRepo:   orderRepo,
		txnRepo:     txnRepo,
		voucherRepo: voucherRepo,
		adapters:    byMethod,
		tm:          tm,
		rs:          rs,
		log:         log.NewHelper(logger),
	}
}

// InitiatePayment 为订单发起一次网关支付: 旧的待支付交易先终态化
// (保持同一订单最多一条非终态交易), 再创建新交易并构建跳转链接。
// 重试永远通过新交易完成, 不复用失败的那次尝试。
func (uc *PaymentUsecase) InitiatePayment(ctx context.Context, userID, orderID uint64, methodStr string) (*PaymentInit, error) {
	method, err := ParsePaymentMethod(methodStr)
	if err != nil {
		return nil, err
	}
	if !method.Gateway() {
		return nil, errors.Newf(errors.ErrCodeValidation, errors.ReasonValidation,
			"payment method %s does not use a gateway", method)
	}
	adapter, ok := uc.adapters[method]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeGatewayConfig, errors.ReasonGatewayConfig,
			"no gateway adapter registered for %s", method)
	}

	order, err := uc.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.Newf(errors.ErrCodeOrderNotFound, errors.ReasonOrderNotFound, "order %d not found", orderID)
	}
	if order.UserID != userID && !auth.IsAdmin(ctx) {
		return nil, errors.New(errors.ErrCodePermissionDenied, errors.ReasonPermissionDenied, "not the order owner")
	}
	// 已支付/已退款或订单终态不可再发起; 支付失败的订单允许用新交易重试
	if order.Status.Terminal() || order.PaymentStatus == PaymentStatusPaid || order.PaymentStatus == PaymentStatusRefunded {
		return nil, errors.Newf(errors.ErrCodeOrderNotPayable, errors.ReasonOrderNotPayable,
			"order %s is not payable (status=%s, payment=%s)", order.OrderNumber, order.Status, order.PaymentStatus)
	}

	// 旧的待支付交易条件终态化 (回调若抢先落了终态则保持不动);
	// 订单支付状态不在此处变更, 因为新尝试随即创建
	if stale, err := uc.txnRepo.GetPendingByOrder(ctx, orderID); err != nil {
		return nil, err
	} else if stale != nil {
		superseded := *stale
		superseded.Status = TxnStatusFailed
		superseded.ErrorMessage = "superseded by new payment attempt"
		written, err := uc.txnRepo.UpdateIfStatus(ctx, &superseded, TxnStatusPending)
		if err != nil {
			return nil, err
		}
		if written {
			uc.log.Infof("Superseded stale pending transaction %s for order %s", stale.TransactionNo, order.OrderNumber)
		}
	}

	now := time.Now().UTC()
	txn := &PaymentTransaction{
		OrderID:       order.ID,
		TransactionNo: generateTransactionNo(now),
		Method:        method,
		Amount:        order.TotalAmount,
		Currency:      constants.DefaultCurrency,
		Status:        TxnStatusPending,
		CreatedAt:     now,
	}
	if err := uc.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	redirect, err := adapter.CreateRedirect(ctx, txn, order.OrderNumber)
	if err != nil {
		// 配置缺失是确定性失败, 交易直接终态化;
		// 网关不可用则保持 PENDING, 调用方可发起新交易重试
		if errors.IsReason(err, errors.ReasonGatewayConfig) {
			txn.Status = TxnStatusFailed
			txn.ErrorMessage = err.Error()
			if uerr := uc.txnRepo.Update(ctx, txn); uerr != nil {
				uc.log.Errorf("Failed to mark transaction %s failed: %v", txn.TransactionNo, uerr)
			}
		}
		uc.log.Errorf("Failed to create %s redirect for txn %s (order %s): %v",
			method, txn.TransactionNo, order.OrderNumber, err)
		return nil, err
	}

	txn.RawRequest = redirect.RawRequest
	if err := uc.txnRepo.Update(ctx, txn); err != nil {
		return nil, err
	}

	// 二维码仅是跳转链接的展示形式, 生成失败不影响支付发起
	qr := ""
	if png, qerr := qrcode.Encode(redirect.PayURL, qrcode.Medium, 300); qerr != nil {
		uc.log.Warnf("Failed to generate QR code for txn %s: %v", txn.TransactionNo, qerr)
	} else {
		qr = base64.StdEncoding.EncodeToString(png)
	}

	uc.log.Infof("Payment initiated: txn=%s order=%s method=%s amount=%.2f",
		txn.TransactionNo, order.OrderNumber, method, txn.Amount)
	return &PaymentInit{Transaction: txn, PayURL: redirect.PayURL, QRCodeBase64: qr}, nil
}

// generateTransactionNo 生成交易号: 毫秒时间戳加随机后缀, 避免同毫秒内的重试碰撞
func generateTransactionNo(now time.Time) string {
	return fmt.Sprintf("TXN-%d%08X", now.UnixMilli(), uuid.New().ID())
}

// HandleCallback 处理网关回调 (同步跳转与异步通知同路径)。
// 验签失败不变更任何状态; 终态交易的重复投递幂等忽略, 不产生写操作;
// 查询、幂等判断、交易状态与订单支付状态的更新在同一事务内完成。
func (uc *PaymentUsecase) HandleCallback(ctx context.Context, methodStr string, params map[string]string) (*CallbackOutcome, error) {
	method, err := ParsePaymentMethod(methodStr)
	if err != nil {
		return nil, err
	}
	adapter, ok := uc.adapters[method]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeGatewayConfig, errors.ReasonGatewayConfig,
			"no gateway adapter registered for %s", method)
	}

	result, err := adapter.VerifyCallback(params)
	if err != nil {
		// 伪造的"失败"回调同样在此被拒绝, 不作为支付失败处理
		uc.log.Warnf("Rejected %s callback: %v (params=%v)", method, err, params)
		return nil, err
	}

	target := TxnStatusFailed
	orderPayment := PaymentStatusFailed
	if result.Success {
		target = TxnStatusSuccess
		orderPayment = PaymentStatusPaid
	}

	// 并发到达的跳转与通知只有一方能完成终态迁移, 另一方按重复投递处理
	var outcome *CallbackOutcome
	err = uc.tm.Exec(ctx, func(ctx context.Context) error {
		txn, err := uc.txnRepo.GetByTransactionNo(ctx, result.TransactionNo)
		if err != nil {
			return err
		}
		if txn == nil {
			uc.log.Errorf("Callback for unknown transaction %s (gateway=%s, payload=%s)",
				result.TransactionNo, method, result.RawPayload)
			return errors.Newf(errors.ErrCodeTransactionNotFound, errors.ReasonTxnNotFound,
				"transaction %s not found", result.TransactionNo)
		}
		if txn.Status.Terminal() {
			uc.log.Infof("Duplicate callback for terminal transaction %s (status=%s), ignoring", txn.TransactionNo, txn.Status)
			outcome = &CallbackOutcome{
				TransactionNo: txn.TransactionNo,
				OrderID:       txn.OrderID,
				Status:        txn.Status,
				Duplicate:     true,
			}
			return nil
		}

		updated := *txn
		updated.Status = target
		updated.ResponseCode = result.ResponseCode
		updated.BankCode = result.BankCode
		updated.CardType = result.CardType
		updated.GatewayTxnID = result.GatewayTxnID
		updated.SecureHash = result.SecureHash
		updated.RawResponse = result.RawPayload
		written, err := uc.txnRepo.UpdateIfStatus(ctx, &updated, TxnStatusPending)
		if err != nil {
			return err
		}
		if !written {
			// 并发投递抢先终态化
			current, err := uc.txnRepo.GetByTransactionNo(ctx, result.TransactionNo)
			if err != nil {
				return err
			}
			outcome = &CallbackOutcome{
				TransactionNo: txn.TransactionNo,
				OrderID:       txn.OrderID,
				Status:        current.Status,
				Duplicate:     true,
			}
			return nil
		}

		if err := uc.orderRepo.UpdatePaymentStatus(ctx, txn.OrderID, orderPayment); err != nil {
			return err
		}
		if target == TxnStatusSuccess {
			// 支付成功后核销订单使用的优惠券
			if err := uc.voucherRepo.MarkRedeemed(ctx, txn.OrderID); err != nil {
				return err
			}
		}
		outcome = &CallbackOutcome{TransactionNo: txn.TransactionNo, OrderID: txn.OrderID, Status: target}
		return nil
	})
	if err != nil {
		uc.log.Errorf("Failed to apply %s callback for txn %s (payload=%s): %v",
			method, result.TransactionNo, result.RawPayload, err)
		return nil, err
	}

	if !outcome.Duplicate {
		uc.log.Infof("Callback applied: txn=%s status=%s code=%s", outcome.TransactionNo, target, result.ResponseCode)
	}
	return outcome, nil
}

// ExpirePendingTransactions 终态化超过网关有效期的待支付交易 (定时任务)。
// 通过分布式锁保证多副本下同一时间只有一个清理者在跑。
func (uc *PaymentUsecase) ExpirePendingTransactions(ctx context.Context) (int, error) {
	if uc.rs != nil {
		mutex := uc.rs.NewMutex(
			"payment_expiry_sweep_lock",
			redsync.WithExpiry(constants.PaymentSweepLockExpiration),
			redsync.WithTries(constants.PaymentSweepLockRetries),
		)
		if err := mutex.LockContext(ctx); err != nil {
			uc.log.Infof("Skipping expiry sweep: lock busy")
			return 0, nil
		}
		defer func() {
			if _, err := mutex.UnlockContext(ctx); err != nil {
				uc.log.Warnf("Failed to release expiry sweep lock: %v", err)
			}
		}()
	}

	cutoff := time.Now().UTC().Add(-constants.PaymentExpiryWindow)
	stale, err := uc.txnRepo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, txn := range stale {
		txn := txn
		written := false
		err := uc.tm.Exec(ctx, func(ctx context.Context) error {
			failed := *txn
			failed.Status = TxnStatusFailed
			failed.ErrorMessage = "expired: no gateway callback within payment window"
			var err error
			written, err = uc.txnRepo.UpdateIfStatus(ctx, &failed, TxnStatusPending)
			if err != nil {
				return err
			}
			if !written {
				// 回调在扫描后抢先落了终态, 保持不动
				return nil
			}
			return uc.orderRepo.UpdatePaymentStatus(ctx, txn.OrderID, PaymentStatusFailed)
		})
		if err != nil {
			uc.log.Errorf("Failed to expire transaction %s: %v", txn.TransactionNo, err)
			continue
		}
		if written {
			expired++
		}
	}

	if expired > 0 {
		uc.log.Infof("Expired %d pending payment transactions", expired)
	}
	return expired, nil
}

// RecordRefund 登记退款: 仅允许对成功交易退款一次,
// 查询、校验、退款信息与订单支付状态的更新在同一事务内完成。
func (uc *PaymentUsecase) RecordRefund(ctx context.Context, transactionNo string, amount float64, reason string) (*PaymentTransaction, error) {
	now := time.Now().UTC()
	var txn *PaymentTransaction
	err := uc.tm.Exec(ctx, func(ctx context.Context) error {
		t, err := uc.txnRepo.GetByTransactionNo(ctx, transactionNo)
		if err != nil {
			return err
		}
		if t == nil {
			return errors.Newf(errors.ErrCodeTransactionNotFound, errors.ReasonTxnNotFound,
				"transaction %s not found", transactionNo)
		}
		if t.Status != TxnStatusSuccess || t.RefundedAt != nil {
			return errors.Newf(errors.ErrCodeTransactionNotRefundable, errors.ReasonTxnNotRefundable,
				"transaction %s is not refundable (status=%s)", transactionNo, t.Status)
		}
		if amount <= 0 || amount > t.Amount {
			return errors.Newf(errors.ErrCodeValidation, errors.ReasonValidation,
				"refund amount %.2f out of range (0, %.2f]", amount, t.Amount)
		}

		t.RefundAmount = amount
		t.RefundReason = reason
		t.RefundedAt = &now
		if err := uc.txnRepo.Update(ctx, t); err != nil {
			return err
		}
		if err := uc.orderRepo.UpdatePaymentStatus(ctx, t.OrderID, PaymentStatusRefunded); err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		uc.log.Errorf("Failed to record refund for txn %s: %v", transactionNo, err)
		return nil, err
	}

	uc.log.Infof("Refund recorded: txn=%s amount=%.2f", transactionNo, amount)
	return txn, nil
}
