package biz

import (
	"context"
	"io"
	"testing"

	"smartshop/checkout-service/internal/auth"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, false},
		{OrderStatusProcessing, OrderStatusShipping, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipping, OrderStatusDelivered, true},
		{OrderStatusShipping, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusRefunded, OrderStatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.True(t, OrderStatusRefunded.Terminal())
	assert.False(t, OrderStatusPending.Terminal())
	assert.False(t, OrderStatusShipping.Terminal())
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("SHIPPING")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipping, st)

	_, err = ParseOrderStatus("TELEPORTED")
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonInvalidStatus))
}

func newOrderUsecase(orderRepo *memOrderRepo, inv *memInventoryRepo, txns *memTxnRepo) *OrderUsecase {
	return NewOrderUsecase(orderRepo, inv, txns, fakeTx{}, testLogger())
}

func seedOrder(repo *memOrderRepo, userID uint64, status OrderStatus) *Order {
	variantID := uint64(7)
	order := &Order{
		OrderNumber:   "ORD-2026000000001",
		UserID:        userID,
		Status:        status,
		PaymentStatus: PaymentStatusPending,
		TotalAmount:   255,
		Items: []*OrderItem{
			{ProductID: 1, VariantID: &variantID, Quantity: 2, PricePerUnit: 125, Subtotal: 250},
		},
	}
	_ = repo.CreateOrder(context.Background(), order)
	return order
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	orderRepo := newMemOrderRepo()
	uc := newOrderUsecase(orderRepo, newMemInventoryRepo(map[uint64]int{7: 0}), newMemTxnRepo())
	order := seedOrder(orderRepo, 42, OrderStatusPending)

	updated, err := uc.UpdateStatus(context.Background(), order.ID, OrderStatusConfirmed, "confirmed by staff", "admin:1")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, updated.Status)

	history, err := orderRepo.ListStatusHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, OrderStatusPending, history[0].OldStatus)
	assert.Equal(t, OrderStatusConfirmed, history[0].NewStatus)
	assert.Equal(t, "admin:1", history[0].Actor)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	orderRepo := newMemOrderRepo()
	uc := newOrderUsecase(orderRepo, newMemInventoryRepo(map[uint64]int{7: 0}), newMemTxnRepo())
	order := seedOrder(orderRepo, 42, OrderStatusDelivered)

	_, err := uc.UpdateStatus(context.Background(), order.ID, OrderStatusCancelled, "", "admin:1")
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonInvalidTransition))
	assert.Equal(t, OrderStatusDelivered, order.Status)
}

func TestCancelOrderReleasesStock(t *testing.T) {
	orderRepo := newMemOrderRepo()
	inv := newMemInventoryRepo(map[uint64]int{7: 3})
	uc := newOrderUsecase(orderRepo, inv, newMemTxnRepo())
	order := seedOrder(orderRepo, 42, OrderStatusProcessing)

	cancelled, err := uc.CancelOrder(context.Background(), 42, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, inv.stock[7])
}

func TestCancelOrderStaleReadReleasesStockOnce(t *testing.T) {
	orderRepo := newMemOrderRepo()
	inv := newMemInventoryRepo(map[uint64]int{7: 3})
	uc := newOrderUsecase(orderRepo, inv, newMemTxnRepo())
	order := seedOrder(orderRepo, 42, OrderStatusPending)

	// 第二个并发取消请求在第一个提交前读到了 PENDING
	stale := *order

	_, err := uc.CancelOrder(context.Background(), 42, order.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, 5, inv.stock[7])

	// 迁移表校验通过, 但条件写以订单仍为 PENDING 为前置, 输掉竞争的一方报错
	err = uc.applyTransition(context.Background(), &stale, OrderStatusCancelled, "second", "user:42")
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonInvalidTransition))

	// 库存只释放一次, 历史也只有一条取消记录
	assert.Equal(t, 5, inv.stock[7])
	history, err := orderRepo.ListStatusHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestCancelOrderRejectedWhileShipping(t *testing.T) {
	orderRepo := newMemOrderRepo()
	inv := newMemInventoryRepo(map[uint64]int{7: 3})
	uc := newOrderUsecase(orderRepo, inv, newMemTxnRepo())
	order := seedOrder(orderRepo, 42, OrderStatusShipping)

	_, err := uc.CancelOrder(context.Background(), 42, order.ID, "too late")
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonInvalidTransition))
	assert.Equal(t, 3, inv.stock[7])
}

func TestCancelOrderOwnership(t *testing.T) {
	orderRepo := newMemOrderRepo()
	uc := newOrderUsecase(orderRepo, newMemInventoryRepo(map[uint64]int{7: 3}), newMemTxnRepo())
	order := seedOrder(orderRepo, 42, OrderStatusPending)

	_, err := uc.CancelOrder(context.Background(), 99, order.ID, "not mine")
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonPermissionDenied))

	// 管理员可代用户取消
	adminCtx := auth.WithUser(context.Background(), 99, auth.RoleAdmin)
	_, err = uc.CancelOrder(adminCtx, 99, order.ID, "admin override")
	require.NoError(t, err)
}

func TestGetOrderDetailPaidAmount(t *testing.T) {
	orderRepo := newMemOrderRepo()
	txns := newMemTxnRepo()
	uc := newOrderUsecase(orderRepo, newMemInventoryRepo(nil), txns)
	order := seedOrder(orderRepo, 42, OrderStatusPending)

	_ = txns.Create(context.Background(), &PaymentTransaction{OrderID: order.ID, TransactionNo: "TXN-1", Status: TxnStatusFailed, Amount: 255})
	_ = txns.Create(context.Background(), &PaymentTransaction{OrderID: order.ID, TransactionNo: "TXN-2", Status: TxnStatusSuccess, Amount: 255})

	detail, err := uc.GetOrderDetail(context.Background(), 42, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 255.0, detail.PaidAmount)
}

func TestGetOrderDetailNotFound(t *testing.T) {
	uc := newOrderUsecase(newMemOrderRepo(), newMemInventoryRepo(nil), newMemTxnRepo())

	_, err := uc.GetOrderDetail(context.Background(), 42, 12345)
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonOrderNotFound))
}
