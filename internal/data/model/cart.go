package model

import "time"

// CartItem 购物车条目模型
type CartItem struct {
	ID        uint64    `gorm:"primaryKey;column:cart_item_id"`
	UserID    uint64    `gorm:"column:user_id;index"`
	ProductID uint64    `gorm:"column:product_id"`
	VariantID *uint64   `gorm:"column:variant_id"`
	Quantity  int       `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CartItem) TableName() string { return "cart_item" }
