package biz

import (
	"context"
	"testing"
	"time"

	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/constants"
	"smartshop/checkout-service/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutConfig() *conf.Bootstrap {
	return &conf.Bootstrap{
		Checkout: &conf.Checkout{
			ShippingFees: map[string]float64{
				constants.ShippingMethodStandard: 30,
				constants.ShippingMethodExpress:  50,
			},
			Currency: constants.DefaultCurrency,
		},
	}
}

func newCheckoutUsecase(cart *memCartRepo, orders *memOrderRepo, inv *memInventoryRepo, vouchers *memVoucherRepo) *CheckoutUsecase {
	voucherUC := NewVoucherUsecase(vouchers, testLogger())
	return NewCheckoutUsecase(cart, orders, inv, vouchers, voucherUC, checkoutConfig(), fakeTx{}, testLogger())
}

func cartWith(lines ...*CartItem) *memCartRepo {
	cart := newMemCartRepo()
	for _, l := range lines {
		cart.items[l.UserID] = append(cart.items[l.UserID], l)
	}
	return cart
}

func variantPtr(id uint64) *uint64 { return &id }

func TestCheckoutTotals(t *testing.T) {
	// 小计 250, 10% 优惠券 -25, 运费 +30 => 255
	cart := cartWith(
		&CartItem{UserID: 1, ProductID: 10, VariantID: variantPtr(7), ProductName: "Ao thun", CategoryID: 3, UnitPrice: 100, Quantity: 2},
		&CartItem{UserID: 1, ProductID: 11, ProductName: "Tat co ban", CategoryID: 3, UnitPrice: 50, Quantity: 1},
	)
	orders := newMemOrderRepo()
	inv := newMemInventoryRepo(map[uint64]int{7: 5})
	vouchers := newMemVoucherRepo(&Voucher{ID: 1, Code: "SALE10", Type: constants.VoucherTypePercentage, Value: 10, Active: true})
	uc := newCheckoutUsecase(cart, orders, inv, vouchers)

	order, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "VNPAY",
		ShippingMethod:  constants.ShippingMethodStandard,
		VoucherCode:     "SALE10",
	})
	require.NoError(t, err)

	assert.Equal(t, 250.0, order.Subtotal)
	assert.Equal(t, 25.0, order.DiscountAmount)
	assert.Equal(t, 30.0, order.ShippingFee)
	assert.Equal(t, 255.0, order.TotalAmount)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
	require.Len(t, order.Items, 2)
	assert.NotEmpty(t, order.OrderNumber)

	// 库存已预留, 购物车已清空, 核销记录已创建但未核销
	assert.Equal(t, 3, inv.stock[7])
	assert.True(t, cart.cleared[1])
	require.Len(t, vouchers.redemptions, 1)
	assert.False(t, vouchers.redemptions[0].Used)
	assert.Equal(t, order.ID, vouchers.redemptions[0].OrderID)

	history := orders.history[order.ID]
	require.Len(t, history, 1)
	assert.Equal(t, OrderStatusPending, history[0].NewStatus)
	assert.Equal(t, "user:1", history[0].Actor)
}

func TestCheckoutFreezesPrices(t *testing.T) {
	cart := cartWith(
		&CartItem{UserID: 1, ProductID: 10, VariantID: variantPtr(7), UnitPrice: 100, Quantity: 1},
	)
	orders := newMemOrderRepo()
	uc := newCheckoutUsecase(cart, orders, newMemInventoryRepo(map[uint64]int{7: 5}), newMemVoucherRepo())

	order, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "COD",
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.Items[0].PricePerUnit)
	assert.Equal(t, 100.0, order.Items[0].Subtotal)
}

func TestCheckoutEmptyCart(t *testing.T) {
	uc := newCheckoutUsecase(newMemCartRepo(), newMemOrderRepo(), newMemInventoryRepo(nil), newMemVoucherRepo())

	_, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "COD",
	})
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonEmptyCart))
}

func TestCheckoutValidation(t *testing.T) {
	cart := cartWith(&CartItem{UserID: 1, ProductID: 10, UnitPrice: 100, Quantity: 1})
	uc := newCheckoutUsecase(cart, newMemOrderRepo(), newMemInventoryRepo(nil), newMemVoucherRepo())

	_, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{PaymentMethod: "COD"})
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonValidation))

	_, err = uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "BARTER",
	})
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonValidation))
}

func TestCheckoutOutOfStockCompensates(t *testing.T) {
	// 第二行库存不足: 第一行的预留必须被释放
	cart := cartWith(
		&CartItem{UserID: 1, ProductID: 10, VariantID: variantPtr(7), UnitPrice: 100, Quantity: 2},
		&CartItem{UserID: 1, ProductID: 11, VariantID: variantPtr(8), UnitPrice: 50, Quantity: 4},
	)
	orders := newMemOrderRepo()
	inv := newMemInventoryRepo(map[uint64]int{7: 5, 8: 3})
	uc := newCheckoutUsecase(cart, orders, inv, newMemVoucherRepo())

	_, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "COD",
	})
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonOutOfStock))

	assert.Equal(t, 5, inv.stock[7])
	assert.Equal(t, 3, inv.stock[8])
	assert.Empty(t, orders.orders)
	assert.False(t, cart.cleared[1])
}

func TestCheckoutVoucherFailureAborts(t *testing.T) {
	cart := cartWith(&CartItem{UserID: 1, ProductID: 10, VariantID: variantPtr(7), UnitPrice: 100, Quantity: 1})
	inv := newMemInventoryRepo(map[uint64]int{7: 5})
	past := time.Now().UTC().Add(-time.Hour)
	vouchers := newMemVoucherRepo(&Voucher{ID: 1, Code: "OLD", Type: constants.VoucherTypeFixedAmount, Value: 10, Active: true, EndDate: &past})
	uc := newCheckoutUsecase(cart, newMemOrderRepo(), inv, vouchers)

	_, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "COD",
		VoucherCode:     "OLD",
	})
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonVoucherExpired))

	// 库存在优惠券校验之后才预留, 失败时不应有任何扣减
	assert.Equal(t, 5, inv.stock[7])
}

func TestCheckoutUnknownShippingMethodFallsBack(t *testing.T) {
	cart := cartWith(&CartItem{UserID: 1, ProductID: 10, UnitPrice: 100, Quantity: 1})
	uc := newCheckoutUsecase(cart, newMemOrderRepo(), newMemInventoryRepo(nil), newMemVoucherRepo())

	order, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "COD",
		ShippingMethod:  "DRONE",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.ShippingMethodStandard, order.ShippingMethod)
	assert.Equal(t, 30.0, order.ShippingFee)
}

func TestCheckoutDiscountClampedToTotal(t *testing.T) {
	cart := cartWith(&CartItem{UserID: 1, ProductID: 10, UnitPrice: 20, Quantity: 1})
	vouchers := newMemVoucherRepo(&Voucher{ID: 1, Code: "BIG", Type: constants.VoucherTypeFixedAmount, Value: 500, Active: true})
	uc := newCheckoutUsecase(cart, newMemOrderRepo(), newMemInventoryRepo(nil), vouchers)

	order, err := uc.Checkout(context.Background(), 1, &CheckoutRequest{
		ShippingAddress: "12 Nguyen Trai, Ha Noi",
		PaymentMethod:   "COD",
		ShippingMethod:  constants.ShippingMethodExpress,
		VoucherCode:     "BIG",
	})
	require.NoError(t, err)
	// 折扣封顶到折扣基数 (20), 总额 = 20 - 20 + 50
	assert.Equal(t, 20.0, order.DiscountAmount)
	assert.Equal(t, 50.0, order.TotalAmount)
}
