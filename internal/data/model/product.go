package model

// Product 商品模型 (购物车联表读取用)
type Product struct {
	ID         uint64  `gorm:"primaryKey;column:product_id"`
	Name       string  `gorm:"column:name"`
	CategoryID uint64  `gorm:"column:category_id"`
	Price      float64 `gorm:"column:price"`
}

func (Product) TableName() string { return "product" }

// ProductVariant 商品规格模型, stock 列承担库存台账
type ProductVariant struct {
	ID          uint64  `gorm:"primaryKey;column:variant_id"`
	ProductID   uint64  `gorm:"column:product_id;index"`
	VariantName string  `gorm:"column:variant_name"`
	Price       float64 `gorm:"column:price"`
	Stock       int     `gorm:"column:stock"`
	SKU         string  `gorm:"column:sku"`
}

func (ProductVariant) TableName() string { return "product_variant" }
