package errors

import (
	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// 错误原因标识 (机器可读, 跟随错误码返回给调用方)
const (
	ReasonValidation         = "VALIDATION_ERROR"
	ReasonEmptyCart          = "EMPTY_CART"
	ReasonOutOfStock         = "OUT_OF_STOCK"
	ReasonOrderNotFound      = "ORDER_NOT_FOUND"
	ReasonInvalidTransition  = "INVALID_TRANSITION"
	ReasonInvalidStatus      = "INVALID_STATUS"
	ReasonPermissionDenied   = "PERMISSION_DENIED"
	ReasonVoucherInvalid     = "VOUCHER_INVALID"
	ReasonVoucherExpired     = "VOUCHER_EXPIRED"
	ReasonVoucherMinOrder    = "VOUCHER_MIN_ORDER_NOT_MET"
	ReasonVoucherUsageLimit  = "VOUCHER_USAGE_LIMIT_EXCEEDED"
	ReasonTxnNotFound        = "TRANSACTION_NOT_FOUND"
	ReasonGatewayConfig      = "GATEWAY_CONFIG_ERROR"
	ReasonGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	ReasonInvalidSignature   = "INVALID_SIGNATURE"
	ReasonOrderNotPayable    = "ORDER_NOT_PAYABLE"
	ReasonTxnNotRefundable   = "TRANSACTION_NOT_REFUNDABLE"
)

// New 构造携带业务错误码的错误
func New(code int, reason, message string) *kerrors.Error {
	return kerrors.New(code, reason, message)
}

// Newf 构造携带业务错误码的错误 (格式化消息)
func Newf(code int, reason, format string, args ...interface{}) *kerrors.Error {
	return kerrors.Newf(code, reason, format, args...)
}

// IsReason 判断错误是否为指定业务原因
func IsReason(err error, reason string) bool {
	if err == nil {
		return false
	}
	return kerrors.FromError(err).Reason == reason
}

// Code 提取错误的业务错误码
func Code(err error) int {
	if err == nil {
		return 0
	}
	return int(kerrors.FromError(err).Code)
}
