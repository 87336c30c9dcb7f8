package data

import (
	"context"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/data/model"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// inventoryRepo 库存台账实现
type inventoryRepo struct {
	data *Data
	log  *log.Helper
}

// NewInventoryRepo 创建库存台账
func NewInventoryRepo(data *Data, logger log.Logger) biz.InventoryRepo {
	return &inventoryRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Reserve 条件扣减库存。单条 UPDATE 把检查和扣减合成一步,
// 并发下不会扣成负数; 影响行数为 0 即库存不足。
func (r *inventoryRepo) Reserve(ctx context.Context, variantID uint64, quantity int) error {
	res := r.data.DB(ctx).Model(&model.ProductVariant{}).
		Where("variant_id = ? AND stock >= ?", variantID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		r.log.Errorf("Failed to reserve stock for variant %d: %v", variantID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Newf(errors.ErrCodeOutOfStock, errors.ReasonOutOfStock,
			"variant %d has insufficient stock for quantity %d", variantID, quantity)
	}
	return nil
}

// Release 归还库存
func (r *inventoryRepo) Release(ctx context.Context, variantID uint64, quantity int) error {
	res := r.data.DB(ctx).Model(&model.ProductVariant{}).
		Where("variant_id = ?", variantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		r.log.Errorf("Failed to release stock for variant %d: %v", variantID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warnf("Release hit no rows for variant %d", variantID)
	}
	return nil
}

// GetVariant 查询商品规格, 不存在时返回 (nil, nil)
func (r *inventoryRepo) GetVariant(ctx context.Context, variantID uint64) (*biz.ProductVariant, error) {
	var m model.ProductVariant
	if err := r.data.DB(ctx).First(&m, "variant_id = ?", variantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.log.Errorf("Failed to get variant %d: %v", variantID, err)
		return nil, err
	}
	return &biz.ProductVariant{
		ID:          m.ID,
		ProductID:   m.ProductID,
		VariantName: m.VariantName,
		Price:       m.Price,
		Stock:       m.Stock,
		SKU:         m.SKU,
	}, nil
}
