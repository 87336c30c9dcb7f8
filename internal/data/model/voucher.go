package model

import "time"

// Voucher 优惠券模型
type Voucher struct {
	ID           uint64     `gorm:"primaryKey;column:voucher_id"`
	Code         string     `gorm:"column:code;uniqueIndex"`
	Type         string     `gorm:"column:type"`
	Value        float64    `gorm:"column:value"`
	MinOrder     float64    `gorm:"column:min_order"`
	CategoryID   *uint64    `gorm:"column:category_id"`
	StartDate    *time.Time `gorm:"column:start_date"`
	EndDate      *time.Time `gorm:"column:end_date"`
	Active       bool       `gorm:"column:active"`
	UsageLimit   int        `gorm:"column:usage_limit"`
	PerUserLimit int        `gorm:"column:per_user_limit"`
}

func (Voucher) TableName() string { return "voucher" }

// VoucherRedemption 优惠券核销记录模型
type VoucherRedemption struct {
	ID        uint64    `gorm:"primaryKey;column:redemption_id"`
	VoucherID uint64    `gorm:"column:voucher_id;index"`
	UserID    uint64    `gorm:"column:user_id;index"`
	OrderID   uint64    `gorm:"column:order_id;index"`
	Used      bool      `gorm:"column:used"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (VoucherRedemption) TableName() string { return "voucher_redemption" }
