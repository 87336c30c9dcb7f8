package biz

import (
	"context"
	"fmt"
	"time"

	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	ShippingAddress string
	PaymentMethod   string
	ShippingMethod  string
	VoucherCode     string
	CustomerNote    string
}

// CheckoutUsecase 结算编排: 将购物车快照、库存台账、优惠券校验
// 与订单聚合编排为一次结算。跨资源步骤没有统一事务,
// 依赖显式补偿动作保证一致性。
type CheckoutUsecase struct {
	cartRepo      CartRepo
	orderRepo     OrderRepo
	inventoryRepo InventoryRepo
	voucherRepo   VoucherRepo
	voucherUC     *VoucherUsecase
	config        *conf.Bootstrap
	tm            Transaction
	log           *log.Helper
}

// NewCheckoutUsecase 创建结算业务实例
func NewCheckoutUsecase(
	cartRepo CartRepo,
	orderRepo OrderRepo,
	inventoryRepo InventoryRepo,
	voucherRepo VoucherRepo,
	voucherUC *VoucherUsecase,
	config *conf.Bootstrap,
	tm Transaction,
	logger log.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		cartRepo:      cartRepo,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		voucherRepo:   voucherRepo,
		voucherUC:     voucherUC,
		config:        config,
		tm:            tm,
		log:           log.NewHelper(logger),
	}
}

// Checkout 执行结算。
// 步骤 1-5 为纯读取/校验, 无需补偿; 库存预留与订单落库为一个可补偿单元:
// 任一后续步骤失败, 逆序释放已获得的全部预留。
func (uc *CheckoutUsecase) Checkout(ctx context.Context, userID uint64, req *CheckoutRequest) (*Order, error) {
	if req.ShippingAddress == "" {
		return nil, errors.New(errors.ErrCodeValidation, errors.ReasonValidation, "shipping address is required")
	}
	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	// 1. 加载购物车
	items, err := uc.cartRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyCart, errors.ReasonEmptyCart, "cart has no items")
	}

	// 2. 取快照, 冻结单价; 之后的商品调价不影响本次订单
	snapshot := uc.takeSnapshot(userID, items)
	subtotal := snapshot.Subtotal()

	// 3. 优惠券校验 (硬性前置条件, 失败即中止)
	var discount float64
	var voucher *Voucher
	if req.VoucherCode != "" {
		discount, voucher, err = uc.voucherUC.Evaluate(ctx, req.VoucherCode, snapshot, userID)
		if err != nil {
			return nil, err
		}
	}

	// 4. 运费: 未知配送方式回退到 STANDARD
	shippingMethod := req.ShippingMethod
	fee, ok := uc.config.GetCheckout().ShippingFee(shippingMethod)
	if !ok {
		shippingMethod = constants.ShippingMethodStandard
		fee, _ = uc.config.GetCheckout().ShippingFee(shippingMethod)
	}

	// 5. 逐行预留库存, 每成功一行压入一个释放动作
	var undo []func(context.Context)
	compensate := func() {
		// 补偿不受请求取消影响
		cctx := context.WithoutCancel(ctx)
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i](cctx)
		}
	}

	for _, line := range snapshot.Lines {
		if line.VariantID == nil {
			continue
		}
		variantID, qty := *line.VariantID, line.Quantity
		if err := uc.inventoryRepo.Reserve(ctx, variantID, qty); err != nil {
			compensate()
			return nil, err
		}
		undo = append(undo, func(cctx context.Context) {
			if rerr := uc.inventoryRepo.Release(cctx, variantID, qty); rerr != nil {
				uc.log.Errorf("Failed to release reservation variant=%d qty=%d: %v", variantID, qty, rerr)
			}
		})
	}

	// 6. 创建订单并清空购物车 (单数据库事务);
	// 购物车只在订单落库成功后清空
	total := subtotal - discount + fee
	if total < 0 {
		total = 0
	}
	now := time.Now().UTC()
	order := &Order{
		OrderNumber:     generateOrderNumber(now),
		UserID:          userID,
		Status:          OrderStatusPending,
		Subtotal:        subtotal,
		ShippingFee:     fee,
		DiscountAmount:  discount,
		TotalAmount:     total,
		VoucherCode:     req.VoucherCode,
		PaymentMethod:   method,
		PaymentStatus:   PaymentStatusPending,
		ShippingMethod:  shippingMethod,
		ShippingAddress: req.ShippingAddress,
		CustomerNote:    req.CustomerNote,
		Items:           snapshot.ToOrderItems(),
		CreatedAt:       now,
	}

	err = uc.tm.Exec(ctx, func(ctx context.Context) error {
		if err := uc.orderRepo.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := uc.orderRepo.AppendStatusHistory(ctx, &OrderStatusHistory{
			OrderID:   order.ID,
			NewStatus: OrderStatusPending,
			Note:      "order created",
			Actor:     fmt.Sprintf("user:%d", userID),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if voucher != nil {
			if err := uc.voucherRepo.CreateRedemption(ctx, &VoucherRedemption{
				VoucherID: voucher.ID,
				UserID:    userID,
				OrderID:   order.ID,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return uc.cartRepo.ClearCart(ctx, userID)
	})
	if err != nil {
		uc.log.Errorf("Failed to persist order for user %d, releasing reservations: %v", userID, err)
		compensate()
		return nil, err
	}

	uc.log.Infof("Checkout done: snapshot=%s order=%s subtotal=%.2f discount=%.2f shipping=%.2f total=%.2f",
		snapshot.SnapshotID, order.OrderNumber, subtotal, discount, fee, total)
	return order, nil
}

// takeSnapshot 冻结购物车内容为一次性快照
func (uc *CheckoutUsecase) takeSnapshot(userID uint64, items []*CartItem) *CartSnapshot {
	lines := make([]*SnapshotLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, &SnapshotLine{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			CategoryID:  it.CategoryID,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.UnitPrice * float64(it.Quantity),
		})
	}
	return &CartSnapshot{
		SnapshotID: uuid.NewString(),
		UserID:     userID,
		Lines:      lines,
		TakenAt:    time.Now().UTC(),
	}
}

// ToOrderItems 由快照行生成订单项
func (s *CartSnapshot) ToOrderItems() []*OrderItem {
	items := make([]*OrderItem, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, &OrderItem{
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			ProductName:  l.ProductName,
			VariantName:  l.VariantName,
			PricePerUnit: l.UnitPrice,
			Quantity:     l.Quantity,
			Subtotal:     l.Subtotal,
		})
	}
	return items
}

// generateOrderNumber 生成订单号: ORD-<年份><毫秒时间戳后缀>
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d%09d", now.Year(), now.UnixMilli()%1_000_000_000)
}
