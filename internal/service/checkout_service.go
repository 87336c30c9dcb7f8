package service

import (
	"context"

	"smartshop/checkout-service/internal/auth"
	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/errors"
)

// CheckoutService 结算/订单/支付对外服务
type CheckoutService struct {
	checkoutUC *biz.CheckoutUsecase
	orderUC    *biz.OrderUsecase
	paymentUC  *biz.PaymentUsecase
}

// NewCheckoutService 创建服务实例
func NewCheckoutService(checkoutUC *biz.CheckoutUsecase, orderUC *biz.OrderUsecase, paymentUC *biz.PaymentUsecase) *CheckoutService {
	return &CheckoutService{
		checkoutUC: checkoutUC,
		orderUC:    orderUC,
		paymentUC:  paymentUC,
	}
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	ShippingMethod  string `json:"shipping_method"`
	VoucherCode     string `json:"voucher_code"`
	CustomerNote    string `json:"customer_note"`
}

// CheckoutReply 结算响应
type CheckoutReply struct {
	Order *OrderView `json:"order"`
}

// Checkout 结算购物车生成订单
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutReply, error) {
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, errors.ReasonValidation, "user identity is required")
	}

	order, err := s.checkoutUC.Checkout(ctx, userID, &biz.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		VoucherCode:     req.VoucherCode,
		CustomerNote:    req.CustomerNote,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutReply{Order: toOrderView(order)}, nil
}
