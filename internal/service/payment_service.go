package service

import (
	"context"
	"time"

	"smartshop/checkout-service/internal/auth"
	"smartshop/checkout-service/internal/errors"
)

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	OrderID uint64 `json:"order_id"`
	Method  string `json:"method"`
}

// CreatePaymentReply 发起支付响应
type CreatePaymentReply struct {
	TransactionNo string  `json:"transaction_no"`
	PayURL        string  `json:"pay_url"`
	QRCodeBase64  string  `json:"qr_code_base64,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// CallbackReply 回调处理响应
type CallbackReply struct {
	TransactionNo string `json:"transaction_no"`
	Status        string `json:"status"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

// RefundRequest 退款登记请求 (管理员)
type RefundRequest struct {
	TransactionNo string  `json:"transaction_no"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
}

// RefundReply 退款登记响应
type RefundReply struct {
	TransactionNo string     `json:"transaction_no"`
	RefundAmount  float64    `json:"refund_amount"`
	RefundedAt    *time.Time `json:"refunded_at"`
}

// CreatePayment 为订单发起网关支付
func (s *CheckoutService) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentReply, error) {
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, errors.ReasonValidation, "user identity is required")
	}

	init, err := s.paymentUC.InitiatePayment(ctx, userID, req.OrderID, req.Method)
	if err != nil {
		return nil, err
	}
	return &CreatePaymentReply{
		TransactionNo: init.Transaction.TransactionNo,
		PayURL:        init.PayURL,
		QRCodeBase64:  init.QRCodeBase64,
		Amount:        init.Transaction.Amount,
		Currency:      init.Transaction.Currency,
	}, nil
}

// HandleGatewayCallback 处理网关回调 (同步跳转与异步通知同路径)
func (s *CheckoutService) HandleGatewayCallback(ctx context.Context, method string, params map[string]string) (*CallbackReply, error) {
	outcome, err := s.paymentUC.HandleCallback(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return &CallbackReply{
		TransactionNo: outcome.TransactionNo,
		Status:        string(outcome.Status),
		Duplicate:     outcome.Duplicate,
	}, nil
}

// RecordRefund 登记退款 (仅管理员)
func (s *CheckoutService) RecordRefund(ctx context.Context, req *RefundRequest) (*RefundReply, error) {
	if !auth.IsAdmin(ctx) {
		return nil, errors.New(errors.ErrCodePermissionDenied, errors.ReasonPermissionDenied, "admin role is required")
	}

	txn, err := s.paymentUC.RecordRefund(ctx, req.TransactionNo, req.Amount, req.Reason)
	if err != nil {
		return nil, err
	}
	return &RefundReply{
		TransactionNo: txn.TransactionNo,
		RefundAmount:  txn.RefundAmount,
		RefundedAt:    txn.RefundedAt,
	}, nil
}

// ExpirePendingPayments 触发一次过期交易清理 (定时任务入口)
func (s *CheckoutService) ExpirePendingPayments(ctx context.Context) (int, error) {
	return s.paymentUC.ExpirePendingTransactions(ctx)
}
