package data

import (
	"context"
	"time"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// paymentTxnRepo 支付交易仓库实现
type paymentTxnRepo struct {
	data *Data
	log  *log.Helper
}

// NewPaymentTxnRepo 创建支付交易仓库
func NewPaymentTxnRepo(data *Data, logger log.Logger) biz.PaymentTxnRepo {
	return &paymentTxnRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Create 创建交易流水
func (r *paymentTxnRepo) Create(ctx context.Context, txn *biz.PaymentTransaction) error {
	m := toTxnModel(txn)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to create transaction %s: %v", txn.TransactionNo, err)
		return err
	}
	txn.ID = m.ID
	return nil
}

// Update 整体更新交易流水
func (r *paymentTxnRepo) Update(ctx context.Context, txn *biz.PaymentTransaction) error {
	m := toTxnModel(txn)
	m.UpdatedAt = time.Now().UTC()
	if err := r.data.DB(ctx).Save(m).Error; err != nil {
		r.log.Errorf("Failed to update transaction %s: %v", txn.TransactionNo, err)
		return err
	}
	txn.UpdatedAt = m.UpdatedAt
	return nil
}

// UpdateIfStatus 条件更新: WHERE 携带期望状态, 零行命中表示已被并发方终态化
func (r *paymentTxnRepo) UpdateIfStatus(ctx context.Context, txn *biz.PaymentTransaction, expect biz.TxnStatus) (bool, error) {
	res := r.data.DB(ctx).Model(&model.PaymentTransaction{}).
		Where("transaction_id = ? AND status = ?", txn.ID, string(expect)).
		Updates(map[string]interface{}{
			"status":         string(txn.Status),
			"bank_code":      txn.BankCode,
			"card_type":      txn.CardType,
			"gateway_txn_id": txn.GatewayTxnID,
			"response_code":  txn.ResponseCode,
			"secure_hash":    txn.SecureHash,
			"raw_response":   txn.RawResponse,
			"error_message":  txn.ErrorMessage,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		r.log.Errorf("Failed to update transaction %s: %v", txn.TransactionNo, res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetByTransactionNo 按交易号查询, 不存在时返回 (nil, nil)
func (r *paymentTxnRepo) GetByTransactionNo(ctx context.Context, no string) (*biz.PaymentTransaction, error) {
	var m model.PaymentTransaction
	if err := r.data.DB(ctx).First(&m, "transaction_no = ?", no).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.log.Errorf("Failed to get transaction %s: %v", no, err)
		return nil, err
	}
	return toBizTxn(&m), nil
}

// GetPendingByOrder 查询订单当前的待支付交易, 不存在时返回 (nil, nil)
func (r *paymentTxnRepo) GetPendingByOrder(ctx context.Context, orderID uint64) (*biz.PaymentTransaction, error) {
	var m model.PaymentTransaction
	err := r.data.DB(ctx).
		Where("order_id = ? AND status = ?", orderID, constants.TxnStatusPending).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.log.Errorf("Failed to get pending transaction of order %d: %v", orderID, err)
		return nil, err
	}
	return toBizTxn(&m), nil
}

// ListByOrder 查询订单的全部交易流水, 按创建时间正序
func (r *paymentTxnRepo) ListByOrder(ctx context.Context, orderID uint64) ([]*biz.PaymentTransaction, error) {
	var models []model.PaymentTransaction
	if err := r.data.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list transactions of order %d: %v", orderID, err)
		return nil, err
	}

	txns := make([]*biz.PaymentTransaction, len(models))
	for i := range models {
		txns[i] = toBizTxn(&models[i])
	}
	return txns, nil
}

// ListPendingBefore 查询创建时间早于 cutoff 的待支付交易 (过期清理用)
func (r *paymentTxnRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*biz.PaymentTransaction, error) {
	var models []model.PaymentTransaction
	if err := r.data.DB(ctx).
		Where("status = ? AND created_at < ?", constants.TxnStatusPending, cutoff).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list expired pending transactions: %v", err)
		return nil, err
	}

	txns := make([]*biz.PaymentTransaction, len(models))
	for i := range models {
		txns[i] = toBizTxn(&models[i])
	}
	return txns, nil
}

func toTxnModel(t *biz.PaymentTransaction) *model.PaymentTransaction {
	return &model.PaymentTransaction{
		ID:            t.ID,
		OrderID:       t.OrderID,
		TransactionNo: t.TransactionNo,
		Method:        string(t.Method),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        string(t.Status),
		BankCode:      t.BankCode,
		CardType:      t.CardType,
		GatewayTxnID:  t.GatewayTxnID,
		ResponseCode:  t.ResponseCode,
		SecureHash:    t.SecureHash,
		RawRequest:    t.RawRequest,
		RawResponse:   t.RawResponse,
		RefundAmount:  t.RefundAmount,
		RefundReason:  t.RefundReason,
		RefundedAt:    t.RefundedAt,
		ErrorMessage:  t.ErrorMessage,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toBizTxn(m *model.PaymentTransaction) *biz.PaymentTransaction {
	return &biz.PaymentTransaction{
		ID:            m.ID,
		OrderID:       m.OrderID,
		TransactionNo: m.TransactionNo,
		Method:        biz.PaymentMethod(m.Method),
		Amount:        m.Amount,
		Currency:      m.Currency,
		Status:        biz.TxnStatus(m.Status),
		BankCode:      m.BankCode,
		CardType:      m.CardType,
		GatewayTxnID:  m.GatewayTxnID,
		ResponseCode:  m.ResponseCode,
		SecureHash:    m.SecureHash,
		RawRequest:    m.RawRequest,
		RawResponse:   m.RawResponse,
		RefundAmount:  m.RefundAmount,
		RefundReason:  m.RefundReason,
		RefundedAt:    m.RefundedAt,
		ErrorMessage:  m.ErrorMessage,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
