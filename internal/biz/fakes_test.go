package biz

import (
	"context"
	"sort"
	"time"

	"smartshop/checkout-service/internal/errors"
)

// fakeTx 直通事务管理器
type fakeTx struct{}

func (fakeTx) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memOrderRepo 内存订单仓库
type memOrderRepo struct {
	orders        map[uint64]*Order
	history       map[uint64][]*OrderStatusHistory
	nextID        uint64
	paymentWrites int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders:  make(map[uint64]*Order),
		history: make(map[uint64][]*OrderStatusHistory),
	}
}

func (r *memOrderRepo) CreateOrder(_ context.Context, order *Order) error {
	r.nextID++
	order.ID = r.nextID
	for _, item := range order.Items {
		item.OrderID = order.ID
	}
	r.orders[order.ID] = order
	return nil
}

func (r *memOrderRepo) GetOrder(_ context.Context, id uint64) (*Order, error) {
	return r.orders[id], nil
}

func (r *memOrderRepo) GetOrderByNumber(_ context.Context, number string) (*Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, nil
}

func (r *memOrderRepo) ListUserOrders(_ context.Context, userID uint64) ([]*Order, error) {
	var out []*Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, orderID uint64, from, to OrderStatus) error {
	o, ok := r.orders[orderID]
	if !ok || o.Status != from {
		return errors.Newf(errors.ErrCodeInvalidTransition, errors.ReasonInvalidTransition,
			"order %d is no longer %s", orderID, from)
	}
	o.Status = to
	return nil
}

func (r *memOrderRepo) UpdatePaymentStatus(_ context.Context, orderID uint64, status PaymentStatus) error {
	r.paymentWrites++
	if o, ok := r.orders[orderID]; ok {
		o.PaymentStatus = status
	}
	return nil
}

func (r *memOrderRepo) AppendStatusHistory(_ context.Context, h *OrderStatusHistory) error {
	r.history[h.OrderID] = append(r.history[h.OrderID], h)
	return nil
}

func (r *memOrderRepo) ListStatusHistory(_ context.Context, orderID uint64) ([]*OrderStatusHistory, error) {
	return r.history[orderID], nil
}

// memInventoryRepo 内存库存台账
type memInventoryRepo struct {
	stock map[uint64]int
}

func newMemInventoryRepo(stock map[uint64]int) *memInventoryRepo {
	return &memInventoryRepo{stock: stock}
}

func (r *memInventoryRepo) Reserve(_ context.Context, variantID uint64, quantity int) error {
	if r.stock[variantID] < quantity {
		return errors.Newf(errors.ErrCodeOutOfStock, errors.ReasonOutOfStock,
			"variant %d has insufficient stock for quantity %d", variantID, quantity)
	}
	r.stock[variantID] -= quantity
	return nil
}

func (r *memInventoryRepo) Release(_ context.Context, variantID uint64, quantity int) error {
	r.stock[variantID] += quantity
	return nil
}

func (r *memInventoryRepo) GetVariant(_ context.Context, variantID uint64) (*ProductVariant, error) {
	stock, ok := r.stock[variantID]
	if !ok {
		return nil, nil
	}
	return &ProductVariant{ID: variantID, Stock: stock}, nil
}

// memCartRepo 内存购物车
type memCartRepo struct {
	items   map[uint64][]*CartItem
	cleared map[uint64]bool
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{
		items:   make(map[uint64][]*CartItem),
		cleared: make(map[uint64]bool),
	}
}

func (r *memCartRepo) ListItems(_ context.Context, userID uint64) ([]*CartItem, error) {
	return r.items[userID], nil
}

func (r *memCartRepo) ClearCart(_ context.Context, userID uint64) error {
	r.items[userID] = nil
	r.cleared[userID] = true
	return nil
}

// memVoucherRepo 内存优惠券仓库
type memVoucherRepo struct {
	vouchers    map[string]*Voucher
	redemptions []*VoucherRedemption
	nextID      uint64
}

func newMemVoucherRepo(vouchers ...*Voucher) *memVoucherRepo {
	r := &memVoucherRepo{vouchers: make(map[string]*Voucher)}
	for _, v := range vouchers {
		r.vouchers[v.Code] = v
	}
	return r
}

func (r *memVoucherRepo) GetByCode(_ context.Context, code string) (*Voucher, error) {
	return r.vouchers[code], nil
}

func (r *memVoucherRepo) CountRedemptions(_ context.Context, voucherID uint64) (int64, error) {
	var n int64
	for _, red := range r.redemptions {
		if red.VoucherID == voucherID && red.Used {
			n++
		}
	}
	return n, nil
}

func (r *memVoucherRepo) CountUserRedemptions(_ context.Context, voucherID, userID uint64) (int64, error) {
	var n int64
	for _, red := range r.redemptions {
		if red.VoucherID == voucherID && red.UserID == userID && red.Used {
			n++
		}
	}
	return n, nil
}

func (r *memVoucherRepo) CreateRedemption(_ context.Context, red *VoucherRedemption) error {
	r.nextID++
	red.ID = r.nextID
	r.redemptions = append(r.redemptions, red)
	return nil
}

func (r *memVoucherRepo) MarkRedeemed(_ context.Context, orderID uint64) error {
	for _, red := range r.redemptions {
		if red.OrderID == orderID {
			red.Used = true
		}
	}
	return nil
}

// memTxnRepo 内存支付交易仓库
type memTxnRepo struct {
	txns   []*PaymentTransaction
	nextID uint64
	writes int
}

func newMemTxnRepo() *memTxnRepo { return &memTxnRepo{} }

func (r *memTxnRepo) Create(_ context.Context, txn *PaymentTransaction) error {
	r.writes++
	r.nextID++
	txn.ID = r.nextID
	r.txns = append(r.txns, txn)
	return nil
}

func (r *memTxnRepo) Update(_ context.Context, txn *PaymentTransaction) error {
	r.writes++
	for i, t := range r.txns {
		if t.ID == txn.ID {
			r.txns[i] = txn
			return nil
		}
	}
	return nil
}

func (r *memTxnRepo) UpdateIfStatus(_ context.Context, txn *PaymentTransaction, expect TxnStatus) (bool, error) {
	for _, t := range r.txns {
		if t.ID == txn.ID {
			if t.Status != expect {
				return false, nil
			}
			r.writes++
			*t = *txn
			return true, nil
		}
	}
	return false, nil
}

func (r *memTxnRepo) GetByTransactionNo(_ context.Context, no string) (*PaymentTransaction, error) {
	for _, t := range r.txns {
		if t.TransactionNo == no {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memTxnRepo) GetPendingByOrder(_ context.Context, orderID uint64) (*PaymentTransaction, error) {
	for i := len(r.txns) - 1; i >= 0; i-- {
		if r.txns[i].OrderID == orderID && r.txns[i].Status == TxnStatusPending {
			return r.txns[i], nil
		}
	}
	return nil, nil
}

func (r *memTxnRepo) ListByOrder(_ context.Context, orderID uint64) ([]*PaymentTransaction, error) {
	var out []*PaymentTransaction
	for _, t := range r.txns {
		if t.OrderID == orderID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTxnRepo) ListPendingBefore(_ context.Context, cutoff time.Time) ([]*PaymentTransaction, error) {
	var out []*PaymentTransaction
	for _, t := range r.txns {
		if t.Status == TxnStatusPending && t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeAdapter 支付网关适配器桩
type fakeAdapter struct {
	method    PaymentMethod
	redirect  *GatewayRedirect
	createErr error
	result    *CallbackResult
	verifyErr error
}

func (a *fakeAdapter) Method() PaymentMethod { return a.method }

func (a *fakeAdapter) CreateRedirect(_ context.Context, _ *PaymentTransaction, _ string) (*GatewayRedirect, error) {
	if a.createErr != nil {
		return nil, a.createErr
	}
	return a.redirect, nil
}

func (a *fakeAdapter) VerifyCallback(_ map[string]string) (*CallbackResult, error) {
	if a.verifyErr != nil {
		return nil, a.verifyErr
	}
	return a.result, nil
}
