package biz

import (
	"context"
	"time"
)

// CartItem 购物车行 (关联商品/规格的当前信息由仓库联表带出)
type CartItem struct {
	ID          uint64
	UserID      uint64
	ProductID   uint64
	VariantID   *uint64
	ProductName string
	VariantName string
	CategoryID  uint64
	UnitPrice   float64
	Quantity    int
}

// CartRepo 购物车仓库接口
type CartRepo interface {
	ListItems(ctx context.Context, userID uint64) ([]*CartItem, error)
	// ClearCart 清空用户购物车, 仅在订单落库成功后调用
	ClearCart(ctx context.Context, userID uint64) error
}

// SnapshotLine 快照行: 结算瞬间冻结的商品单价与数量
type SnapshotLine struct {
	ProductID   uint64
	VariantID   *uint64
	ProductName string
	VariantName string
	CategoryID  uint64
	UnitPrice   float64
	Quantity    int
	Subtotal    float64
}

// CartSnapshot 购物车快照: 订单创建的不可变输入, 一次性消费后丢弃。
// 之后的商品价格变动不影响已生成的快照。
type CartSnapshot struct {
	SnapshotID string
	UserID     uint64
	Lines      []*SnapshotLine
	TakenAt    time.Time
}

// Subtotal 快照行小计之和
func (s *CartSnapshot) Subtotal() float64 {
	var sum float64
	for _, l := range s.Lines {
		sum += l.Subtotal
	}
	return sum
}

// CategorySubtotals 按分类聚合的行小计 (用于优惠券分类限定的折扣基数)
func (s *CartSnapshot) CategorySubtotals() map[uint64]float64 {
	base := make(map[uint64]float64)
	for _, l := range s.Lines {
		base[l.CategoryID] += l.Subtotal
	}
	return base
}
