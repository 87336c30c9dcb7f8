package errors

// 结算服务错误码定义
// 错误码格式：SSMMEE (6位数字)，其中 SS=14 表示 checkout-service
// 模块划分：
//   01: 结算模块
//   02: 订单模块
//   03: 优惠券模块
//   04: 支付模块

// 结算模块 (140100-140199)
const (
	// ErrCodeValidation 请求参数无效错误
	ErrCodeValidation = 140101
	// ErrCodeEmptyCart 购物车为空错误
	ErrCodeEmptyCart = 140102
	// ErrCodeOutOfStock 库存不足错误
	ErrCodeOutOfStock = 140103
)

// 订单模块 (140200-140299)
const (
	// ErrCodeOrderNotFound 订单不存在错误
	ErrCodeOrderNotFound = 140201
	// ErrCodeInvalidTransition 非法订单状态变更错误
	ErrCodeInvalidTransition = 140202
	// ErrCodeInvalidStatus 未知订单状态错误
	ErrCodeInvalidStatus = 140203
	// ErrCodePermissionDenied 无权操作该订单错误
	ErrCodePermissionDenied = 140204
)

// 优惠券模块 (140300-140399)
const (
	// ErrCodeVoucherInvalid 优惠券不存在或不可用错误
	ErrCodeVoucherInvalid = 140301
	// ErrCodeVoucherExpired 优惠券已过期错误
	ErrCodeVoucherExpired = 140302
	// ErrCodeVoucherMinOrderNotMet 未达优惠券最低消费错误
	ErrCodeVoucherMinOrderNotMet = 140303
	// ErrCodeVoucherUsageLimitExceeded 优惠券使用次数超限错误
	ErrCodeVoucherUsageLimitExceeded = 140304
)

// 支付模块 (140400-140499)
const (
	// ErrCodeTransactionNotFound 支付交易不存在错误
	ErrCodeTransactionNotFound = 140401
	// ErrCodeGatewayConfig 支付网关配置缺失错误
	ErrCodeGatewayConfig = 140402
	// ErrCodeGatewayUnavailable 支付网关不可用错误
	ErrCodeGatewayUnavailable = 140403
	// ErrCodeInvalidSignature 回调签名校验失败错误
	ErrCodeInvalidSignature = 140404
	// ErrCodeOrderNotPayable 订单当前不可发起支付错误
	ErrCodeOrderNotPayable = 140405
	// ErrCodeTransactionNotRefundable 交易不可退款错误
	ErrCodeTransactionNotRefundable = 140406
)
