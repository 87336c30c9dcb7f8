package biz

import (
	"context"
	"fmt"
	"time"

	"smartshop/checkout-service/internal/auth"
	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// OrderStatus 订单状态 (类型化状态机, 边界处拒绝未知字符串)
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = constants.OrderStatusPending
	OrderStatusConfirmed  OrderStatus = constants.OrderStatusConfirmed
	OrderStatusProcessing OrderStatus = constants.OrderStatusProcessing
	OrderStatusShipping   OrderStatus = constants.OrderStatusShipping
	OrderStatusDelivered  OrderStatus = constants.OrderStatusDelivered
	OrderStatusCancelled  OrderStatus = constants.OrderStatusCancelled
	OrderStatusRefunded   OrderStatus = constants.OrderStatusRefunded
)

// PaymentStatus 订单支付状态
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = constants.PaymentStatusPending
	PaymentStatusPaid     PaymentStatus = constants.PaymentStatusPaid
	PaymentStatusFailed   PaymentStatus = constants.PaymentStatusFailed
	PaymentStatusRefunded PaymentStatus = constants.PaymentStatusRefunded
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = constants.PaymentMethodCOD
	PaymentMethodVnpay PaymentMethod = constants.PaymentMethodVnpay
	PaymentMethodMomo  PaymentMethod = constants.PaymentMethodMomo
)

// orderTransitions 订单状态迁移表, 不在表中的迁移一律拒绝
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing},
	OrderStatusProcessing: {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:   {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// ParseOrderStatus 解析状态字符串, 未知值返回错误
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", errors.Newf(errors.ErrCodeInvalidStatus, errors.ReasonInvalidStatus,
			"unknown order status %q", s)
	}
	return st, nil
}

// ParsePaymentMethod 解析支付方式, 未知值返回错误
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodCOD, PaymentMethodVnpay, PaymentMethodMomo:
		return PaymentMethod(s), nil
	}
	return "", errors.Newf(errors.ErrCodeValidation, errors.ReasonValidation,
		"unknown payment method %q", s)
}

// CanTransitionTo 判断状态迁移是否合法
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal 判断是否为终态
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// Gateway 判断该支付方式是否需要走外部网关
func (m PaymentMethod) Gateway() bool {
	return m == PaymentMethodVnpay || m == PaymentMethodMomo
}

// Order 订单聚合根, 独占持有订单项与状态历史
type Order struct {
	ID              uint64
	OrderNumber     string
	UserID          uint64
	Status          OrderStatus
	Subtotal        float64
	ShippingFee     float64
	DiscountAmount  float64
	TotalAmount     float64
	VoucherCode     string
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	ShippingMethod  string
	ShippingAddress string
	CustomerNote    string
	AdminNote       string
	Items           []*OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem 下单时刻的商品快照, 创建后不可变
type OrderItem struct {
	ID           uint64
	OrderID      uint64
	ProductID    uint64
	VariantID    *uint64
	ProductName  string
	VariantName  string
	PricePerUnit float64
	Quantity     int
	Subtotal     float64
}

// OrderStatusHistory 状态历史, 只追加不修改
type OrderStatusHistory struct {
	ID        uint64
	OrderID   uint64
	OldStatus OrderStatus
	NewStatus OrderStatus
	Note      string
	Actor     string
	CreatedAt time.Time
}

// OrderRepo 订单仓库接口
type OrderRepo interface {
	// CreateOrder 持久化订单及其订单项 (单事务)
	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, id uint64) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	ListUserOrders(ctx context.Context, userID uint64) ([]*Order, error)
	// UpdateStatus 条件更新: 仅当订单当前仍为 from 状态时写入,
	// 已被并发请求迁移走时返回 InvalidTransition 错误
	UpdateStatus(ctx context.Context, orderID uint64, from, to OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID uint64, status PaymentStatus) error
	AppendStatusHistory(ctx context.Context, h *OrderStatusHistory) error
	ListStatusHistory(ctx context.Context, orderID uint64) ([]*OrderStatusHistory, error)
}

// Transaction 事务管理器接口, fn 内的仓库调用共享同一数据库事务
type Transaction interface {
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderUsecase 订单业务逻辑
type OrderUsecase struct {
	orderRepo     OrderRepo
	inventoryRepo InventoryRepo
	txnRepo       PaymentTxnRepo
	tm            Transaction
	log           *log.Helper
}

// NewOrderUsecase 创建订单业务实例
func NewOrderUsecase(orderRepo OrderRepo, inventoryRepo InventoryRepo, txnRepo PaymentTxnRepo, tm Transaction, logger log.Logger) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		txnRepo:       txnRepo,
		tm:            tm,
		log:           log.NewHelper(logger),
	}
}

// OrderDetail 订单详情 (含状态历史与实付金额)
type OrderDetail struct {
	Order      *Order
	History    []*OrderStatusHistory
	PaidAmount float64
}

// GetOrderDetail 查询订单详情, 仅本人或管理员可见
func (uc *OrderUsecase) GetOrderDetail(ctx context.Context, userID, orderID uint64) (*OrderDetail, error) {
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

	history, err := uc.orderRepo.ListStatusHistory(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paid, err := uc.paidAmount(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: order, History: history, PaidAmount: paid}, nil
}

// ListMyOrders 查询当前用户的订单列表
func (uc *OrderUsecase) ListMyOrders(ctx context.Context, userID uint64) ([]*Order, error) {
	return uc.orderRepo.ListUserOrders(ctx, userID)
}

// UpdateStatus 变更订单状态 (管理员), 状态写入与历史追加在同一事务内
func (uc *OrderUsecase) UpdateStatus(ctx context.Context, orderID uint64, target OrderStatus, note, actor string) (*Order, error) {
	order, err := uc.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.Newf(errors.ErrCodeOrderNotFound, errors.ReasonOrderNotFound, "order %d not found", orderID)
	}

	if err := uc.applyTransition(ctx, order, target, note, actor); err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder 取消订单 (用户本人或管理员), 释放订单项占用的库存
func (uc *OrderUsecase) CancelOrder(ctx context.Context, userID, orderID uint64, reason string) (*Order, error) {
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

	if err := uc.applyTransition(ctx, order, OrderStatusCancelled, reason, fmt.Sprintf("user:%d", userID)); err != nil {
		return nil, err
	}
	return order, nil
}

// applyTransition 执行一次状态迁移: 校验迁移表, 状态+历史同事务落库,
// 迁移到 CANCELLED 时在同一事务内释放库存 (补偿动作)。
// 状态写入以读到的旧状态为前置条件, 并发迁移只有一方能成功,
// 输掉的一方整个事务回滚 (历史与库存释放都不落库)。
func (uc *OrderUsecase) applyTransition(ctx context.Context, order *Order, target OrderStatus, note, actor string) error {
	if !order.Status.CanTransitionTo(target) {
		return errors.Newf(errors.ErrCodeInvalidTransition, errors.ReasonInvalidTransition,
			"cannot transition order %s from %s to %s", order.OrderNumber, order.Status, target)
	}

	old := order.Status
	err := uc.tm.Exec(ctx, func(ctx context.Context) error {
		if err := uc.orderRepo.UpdateStatus(ctx, order.ID, old, target); err != nil {
			return err
		}
		if err := uc.orderRepo.AppendStatusHistory(ctx, &OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: old,
			NewStatus: target,
			Note:      note,
			Actor:     actor,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		if target == OrderStatusCancelled {
			for _, item := range order.Items {
				if item.VariantID == nil {
					continue
				}
				if err := uc.inventoryRepo.Release(ctx, *item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		uc.log.Errorf("Failed to transition order %s from %s to %s: %v", order.OrderNumber, old, target, err)
		return err
	}

	order.Status = target
	uc.log.Infof("Order %s transitioned %s -> %s", order.OrderNumber, old, target)
	return nil
}

func (uc *OrderUsecase) paidAmount(ctx context.Context, orderID uint64) (float64, error) {
	txns, err := uc.txnRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	var paid float64
	for _, t := range txns {
		if t.Status == TxnStatusSuccess {
			paid += t.Amount
		}
	}
	return paid, nil
}
