package constants

import "time"

// 缓存相关常量
const (
	// VoucherCacheExpiration 优惠券缓存过期时间
	VoucherCacheExpiration = 10 * time.Minute
	// NullCacheExpiration 空值缓存过期时间 (防止缓存穿透)
	NullCacheExpiration = 5 * time.Minute
)

// 支付相关常量
const (
	// PaymentExpiryWindow 网关支付链接有效期 (超过后待支付交易判定为过期)
	PaymentExpiryWindow = 15 * time.Minute
	// PaymentSweepLockExpiration 过期交易清理任务锁过期时间
	PaymentSweepLockExpiration = 5 * time.Minute
	// PaymentSweepLockRetries 过期交易清理任务锁重试次数
	PaymentSweepLockRetries = 1
)

// 订单状态
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipping   = "SHIPPING"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
	OrderStatusRefunded   = "REFUNDED"
)

// 订单支付状态
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// 支付交易状态
const (
	TxnStatusPending = "PENDING"
	TxnStatusSuccess = "SUCCESS"
	TxnStatusFailed  = "FAILED"
)

// 支付方式
const (
	PaymentMethodCOD   = "COD"
	PaymentMethodVnpay = "VNPAY"
	PaymentMethodMomo  = "MOMO"
)

// 配送方式
const (
	ShippingMethodStandard = "STANDARD"
	ShippingMethodExpress  = "EXPRESS"
)

// 优惠券类型
const (
	VoucherTypePercentage  = "PERCENTAGE"
	VoucherTypeFixedAmount = "FIXED_AMOUNT"
)

// DefaultCurrency 默认币种
const DefaultCurrency = "VND"
