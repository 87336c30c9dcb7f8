package data

import (
	"context"
	"time"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/data/model"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// orderRepo 订单仓库实现
type orderRepo struct {
	data *Data
	log  *log.Helper
}

// NewOrderRepo 创建订单仓库
func NewOrderRepo(data *Data, logger log.Logger) biz.OrderRepo {
	return &orderRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateOrder 创建订单及其订单项
func (r *orderRepo) CreateOrder(ctx context.Context, order *biz.Order) error {
	db := r.data.DB(ctx)

	m := &model.Order{
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Status:          string(order.Status),
		Subtotal:        order.Subtotal,
		ShippingFee:     order.ShippingFee,
		DiscountAmount:  order.DiscountAmount,
		TotalAmount:     order.TotalAmount,
		VoucherCode:     order.VoucherCode,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		ShippingMethod:  order.ShippingMethod,
		ShippingAddress: order.ShippingAddress,
		CustomerNote:    order.CustomerNote,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.CreatedAt,
	}
	if err := db.Create(m).Error; err != nil {
		r.log.Errorf("Failed to create order %s: %v", order.OrderNumber, err)
		return err
	}
	order.ID = m.ID

	for _, item := range order.Items {
		im := &model.OrderItem{
			OrderID:      m.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			VariantName:  item.VariantName,
			PricePerUnit: item.PricePerUnit,
			Quantity:     item.Quantity,
			Subtotal:     item.Subtotal,
		}
		if err := db.Create(im).Error; err != nil {
			r.log.Errorf("Failed to create order item for %s: %v", order.OrderNumber, err)
			return err
		}
		item.ID = im.ID
		item.OrderID = m.ID
	}
	return nil
}

// GetOrder 按 ID 查询订单, 不存在时返回 (nil, nil)
func (r *orderRepo) GetOrder(ctx context.Context, id uint64) (*biz.Order, error) {
	var m model.Order
	if err := r.data.DB(ctx).First(&m, "order_id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.log.Errorf("Failed to get order %d: %v", id, err)
		return nil, err
	}
	return r.assemble(ctx, &m)
}

// GetOrderByNumber 按订单号查询订单, 不存在时返回 (nil, nil)
func (r *orderRepo) GetOrderByNumber(ctx context.Context, number string) (*biz.Order, error) {
	var m model.Order
	if err := r.data.DB(ctx).First(&m, "order_number = ?", number).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.log.Errorf("Failed to get order %s: %v", number, err)
		return nil, err
	}
	return r.assemble(ctx, &m)
}

// ListUserOrders 查询用户订单列表, 新订单在前
func (r *orderRepo) ListUserOrders(ctx context.Context, userID uint64) ([]*biz.Order, error) {
	var models []model.Order
	if err := r.data.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list orders for user %d: %v", userID, err)
		return nil, err
	}

	orders := make([]*biz.Order, 0, len(models))
	for i := range models {
		order, err := r.assemble(ctx, &models[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateStatus 条件更新订单状态, 旧状态不匹配时零行命中并报错
func (r *orderRepo) UpdateStatus(ctx context.Context, orderID uint64, from, to biz.OrderStatus) error {
	res := r.data.DB(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status = ?", orderID, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		r.log.Errorf("Failed to update status of order %d: %v", orderID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Newf(errors.ErrCodeInvalidTransition, errors.ReasonInvalidTransition,
			"order %d is no longer %s", orderID, from)
	}
	return nil
}

// UpdatePaymentStatus 更新订单支付状态
func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, orderID uint64, status biz.PaymentStatus) error {
	if err := r.data.DB(ctx).Model(&model.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_status": string(status),
			"updated_at":     time.Now().UTC(),
		}).Error; err != nil {
		r.log.Errorf("Failed to update payment status of order %d: %v", orderID, err)
		return err
	}
	return nil
}

// AppendStatusHistory 追加状态历史
func (r *orderRepo) AppendStatusHistory(ctx context.Context, h *biz.OrderStatusHistory) error {
	m := &model.OrderStatusHistory{
		OrderID:   h.OrderID,
		OldStatus: string(h.OldStatus),
		NewStatus: string(h.NewStatus),
		Note:      h.Note,
		Actor:     h.Actor,
		CreatedAt: h.CreatedAt,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to append status history for order %d: %v", h.OrderID, err)
		return err
	}
	h.ID = m.ID
	return nil
}

// ListStatusHistory 查询状态历史, 按时间正序
func (r *orderRepo) ListStatusHistory(ctx context.Context, orderID uint64) ([]*biz.OrderStatusHistory, error) {
	var models []model.OrderStatusHistory
	if err := r.data.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list status history for order %d: %v", orderID, err)
		return nil, err
	}

	history := make([]*biz.OrderStatusHistory, len(models))
	for i, m := range models {
		history[i] = &biz.OrderStatusHistory{
			ID:        m.ID,
			OrderID:   m.OrderID,
			OldStatus: biz.OrderStatus(m.OldStatus),
			NewStatus: biz.OrderStatus(m.NewStatus),
			Note:      m.Note,
			Actor:     m.Actor,
			CreatedAt: m.CreatedAt,
		}
	}
	return history, nil
}

// assemble 组装聚合根: 订单主记录 + 订单项
func (r *orderRepo) assemble(ctx context.Context, m *model.Order) (*biz.Order, error) {
	var items []model.OrderItem
	if err := r.data.DB(ctx).Where("order_id = ?", m.ID).Find(&items).Error; err != nil {
		r.log.Errorf("Failed to load items of order %d: %v", m.ID, err)
		return nil, err
	}

	order := &biz.Order{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		UserID:          m.UserID,
		Status:          biz.OrderStatus(m.Status),
		Subtotal:        m.Subtotal,
		ShippingFee:     m.ShippingFee,
		DiscountAmount:  m.DiscountAmount,
		TotalAmount:     m.TotalAmount,
		VoucherCode:     m.VoucherCode,
		PaymentMethod:   biz.PaymentMethod(m.PaymentMethod),
		PaymentStatus:   biz.PaymentStatus(m.PaymentStatus),
		ShippingMethod:  m.ShippingMethod,
		ShippingAddress: m.ShippingAddress,
		CustomerNote:    m.CustomerNote,
		AdminNote:       m.AdminNote,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	order.Items = make([]*biz.OrderItem, len(items))
	for i, it := range items {
		order.Items[i] = &biz.OrderItem{
			ID:           it.ID,
			OrderID:      it.OrderID,
			ProductID:    it.ProductID,
			VariantID:    it.VariantID,
			ProductName:  it.ProductName,
			VariantName:  it.VariantName,
			PricePerUnit: it.PricePerUnit,
			Quantity:     it.Quantity,
			Subtotal:     it.Subtotal,
		}
	}
	return order, nil
}
