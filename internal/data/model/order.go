package model

import "time"

// Order 订单模型
type Order struct {
	ID              uint64    `gorm:"primaryKey;column:order_id"`
	OrderNumber     string    `gorm:"column:order_number;uniqueIndex"`
	UserID          uint64    `gorm:"column:user_id;index"`
	Status          string    `gorm:"column:status"`
	Subtotal        float64   `gorm:"column:subtotal"`
	ShippingFee     float64   `gorm:"column:shipping_fee"`
	DiscountAmount  float64   `gorm:"column:discount_amount"`
	TotalAmount     float64   `gorm:"column:total_amount"`
	VoucherCode     string    `gorm:"column:voucher_code"`
	PaymentMethod   string    `gorm:"column:payment_method"`
	PaymentStatus   string    `gorm:"column:payment_status"`
	ShippingMethod  string    `gorm:"column:shipping_method"`
	ShippingAddress string    `gorm:"column:shipping_address"`
	CustomerNote    string    `gorm:"column:customer_note"`
	AdminNote       string    `gorm:"column:admin_note"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单项模型
type OrderItem struct {
	ID           uint64  `gorm:"primaryKey;column:order_item_id"`
	OrderID      uint64  `gorm:"column:order_id;index"`
	ProductID    uint64  `gorm:"column:product_id"`
	VariantID    *uint64 `gorm:"column:variant_id"`
	ProductName  string  `gorm:"column:product_name"`
	VariantName  string  `gorm:"column:variant_name"`
	PricePerUnit float64 `gorm:"column:price_per_unit"`
	Quantity     int     `gorm:"column:quantity"`
	Subtotal     float64 `gorm:"column:subtotal"`
}

func (OrderItem) TableName() string { return "order_item" }

// OrderStatusHistory 订单状态历史模型
type OrderStatusHistory struct {
	ID        uint64    `gorm:"primaryKey;column:history_id"`
	OrderID   uint64    `gorm:"column:order_id;index"`
	OldStatus string    `gorm:"column:old_status"`
	NewStatus string    `gorm:"column:new_status"`
	Note      string    `gorm:"column:note"`
	Actor     string    `gorm:"column:actor"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
