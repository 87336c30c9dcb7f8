package data

import (
	"context"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// cartRepo 购物车仓库实现
type cartRepo struct {
	data *Data
	log  *log.Helper
}

// NewCartRepo 创建购物车仓库
func NewCartRepo(data *Data, logger log.Logger) biz.CartRepo {
	return &cartRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// cartLine 联表查询行: 购物车条目 + 商品/规格当前信息
type cartLine struct {
	CartItemID  uint64
	UserID      uint64
	ProductID   uint64
	VariantID   *uint64
	Quantity    int
	ProductName string
	CategoryID  uint64
	BasePrice   float64
	VariantName string
	// VariantPrice 规格价, 无规格行时为 nil
	VariantPrice *float64
}

// ListItems 取用户购物车, 联表带出商品名/分类与当前价格。
// 有规格的行以规格价为准, 无规格行回落到商品价。
func (r *cartRepo) ListItems(ctx context.Context, userID uint64) ([]*biz.CartItem, error) {
	var lines []cartLine
	err := r.data.DB(ctx).
		Table("cart_item").
		Select(`cart_item.cart_item_id AS cart_item_id,
			cart_item.user_id AS user_id,
			cart_item.product_id AS product_id,
			cart_item.variant_id AS variant_id,
			cart_item.quantity AS quantity,
			product.name AS product_name,
			product.category_id AS category_id,
			product.price AS base_price,
			product_variant.variant_name AS variant_name,
			product_variant.price AS variant_price`).
		Joins("JOIN product ON product.product_id = cart_item.product_id").
		Joins("LEFT JOIN product_variant ON product_variant.variant_id = cart_item.variant_id").
		Where("cart_item.user_id = ?", userID).
		Order("cart_item.created_at ASC").
		Scan(&lines).Error
	if err != nil {
		r.log.Errorf("Failed to list cart items for user %d: %v", userID, err)
		return nil, err
	}

	items := make([]*biz.CartItem, len(lines))
	for i, l := range lines {
		price := l.BasePrice
		if l.VariantPrice != nil {
			price = *l.VariantPrice
		}
		items[i] = &biz.CartItem{
			ID:          l.CartItemID,
			UserID:      l.UserID,
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			VariantName: l.VariantName,
			CategoryID:  l.CategoryID,
			UnitPrice:   price,
			Quantity:    l.Quantity,
		}
	}
	return items, nil
}

// ClearCart 清空用户购物车
func (r *cartRepo) ClearCart(ctx context.Context, userID uint64) error {
	if err := r.data.DB(ctx).Delete(&model.CartItem{}, "user_id = ?", userID).Error; err != nil {
		r.log.Errorf("Failed to clear cart for user %d: %v", userID, err)
		return err
	}
	return nil
}
