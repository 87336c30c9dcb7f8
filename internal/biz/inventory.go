package biz

import (
	"context"
)

// ProductVariant 商品规格及其库存计数
type ProductVariant struct {
	ID          uint64
	ProductID   uint64
	VariantName string
	Price       float64
	Stock       int
	SKU         string
}

// InventoryRepo 库存台账接口。
// Reserve 必须是单条原子的条件扣减 (检查与扣减不可拆分), 库存不足时不产生任何变更。
type InventoryRepo interface {
	Reserve(ctx context.Context, variantID uint64, quantity int) error
	Release(ctx context.Context, variantID uint64, quantity int) error
	GetVariant(ctx context.Context, variantID uint64) (*ProductVariant, error)
}
