package service

import (
	"context"
	"fmt"
	"time"

	"smartshop/checkout-service/internal/auth"
	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/errors"
)

// OrderItemView 订单项视图
type OrderItemView struct {
	ProductID    uint64  `json:"product_id"`
	VariantID    *uint64 `json:"variant_id,omitempty"`
	ProductName  string  `json:"product_name"`
	VariantName  string  `json:"variant_name,omitempty"`
	PricePerUnit float64 `json:"price_per_unit"`
	Quantity     int     `json:"quantity"`
	Subtotal     float64 `json:"subtotal"`
}

// OrderView 订单视图
type OrderView struct {
	ID              uint64           `json:"id"`
	OrderNumber     string           `json:"order_number"`
	Status          string           `json:"status"`
	Subtotal        float64          `json:"subtotal"`
	ShippingFee     float64          `json:"shipping_fee"`
	DiscountAmount  float64          `json:"discount_amount"`
	TotalAmount     float64          `json:"total_amount"`
	VoucherCode     string           `json:"voucher_code,omitempty"`
	PaymentMethod   string           `json:"payment_method"`
	PaymentStatus   string           `json:"payment_status"`
	ShippingMethod  string           `json:"shipping_method"`
	ShippingAddress string           `json:"shipping_address"`
	CustomerNote    string           `json:"customer_note,omitempty"`
	Items           []*OrderItemView `json:"items"`
	CreatedAt       time.Time        `json:"created_at"`
}

// StatusHistoryView 状态历史视图
type StatusHistoryView struct {
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOrdersReply 订单列表响应
type ListOrdersReply struct {
	Orders []*OrderView `json:"orders"`
}

// OrderDetailReply 订单详情响应
type OrderDetailReply struct {
	Order      *OrderView           `json:"order"`
	History    []*StatusHistoryView `json:"history"`
	PaidAmount float64              `json:"paid_amount"`
}

// UpdateOrderStatusRequest 订单状态变更请求 (管理员)
type UpdateOrderStatusRequest struct {
	OrderID uint64 `json:"-"`
	Status  string `json:"status"`
	Note    string `json:"note"`
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	OrderID uint64 `json:"-"`
	Reason  string `json:"reason"`
}

// OrderReply 单订单响应
type OrderReply struct {
	Order *OrderView `json:"order"`
}

// ListMyOrders 查询当前用户订单列表
func (s *CheckoutService) ListMyOrders(ctx context.Context) (*ListOrdersReply, error) {
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, errors.ReasonValidation, "user identity is required")
	}

	orders, err := s.orderUC.ListMyOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderView, len(orders))
	for i, o := range orders {
		views[i] = toOrderView(o)
	}
	return &ListOrdersReply{Orders: views}, nil
}

// GetOrderDetail 查询订单详情
func (s *CheckoutService) GetOrderDetail(ctx context.Context, orderID uint64) (*OrderDetailReply, error) {
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, errors.ReasonValidation, "user identity is required")
	}

	detail, err := s.orderUC.GetOrderDetail(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	history := make([]*StatusHistoryView, len(detail.History))
	for i, h := range detail.History {
		history[i] = &StatusHistoryView{
			OldStatus: string(h.OldStatus),
			NewStatus: string(h.NewStatus),
			Note:      h.Note,
			Actor:     h.Actor,
			CreatedAt: h.CreatedAt,
		}
	}
	return &OrderDetailReply{
		Order:      toOrderView(detail.Order),
		History:    history,
		PaidAmount: detail.PaidAmount,
	}, nil
}

// UpdateOrderStatus 变更订单状态 (仅管理员)
func (s *CheckoutService) UpdateOrderStatus(ctx context.Context, req *UpdateOrderStatusRequest) (*OrderReply, error) {
	if !auth.IsAdmin(ctx) {
		return nil, errors.New(errors.ErrCodePermissionDenied, errors.ReasonPermissionDenied, "admin role is required")
	}
	target, err := biz.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}

	userID, _ := auth.GetUserIDFromContext(ctx)
	order, err := s.orderUC.UpdateStatus(ctx, req.OrderID, target, req.Note, fmt.Sprintf("admin:%d", userID))
	if err != nil {
		return nil, err
	}
	return &OrderReply{Order: toOrderView(order)}, nil
}

// CancelOrder 取消订单 (本人或管理员)
func (s *CheckoutService) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*OrderReply, error) {
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrCodeValidation, errors.ReasonValidation, "user identity is required")
	}

	order, err := s.orderUC.CancelOrder(ctx, userID, req.OrderID, req.Reason)
	if err != nil {
		return nil, err
	}
	return &OrderReply{Order: toOrderView(order)}, nil
}

func toOrderView(o *biz.Order) *OrderView {
	items := make([]*OrderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = &OrderItemView{
			ProductID:    it.ProductID,
			VariantID:    it.VariantID,
			ProductName:  it.ProductName,
			VariantName:  it.VariantName,
			PricePerUnit: it.PricePerUnit,
			Quantity:     it.Quantity,
			Subtotal:     it.Subtotal,
		}
	}
	return &OrderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		VoucherCode:     o.VoucherCode,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		ShippingMethod:  o.ShippingMethod,
		ShippingAddress: o.ShippingAddress,
		CustomerNote:    o.CustomerNote,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}
