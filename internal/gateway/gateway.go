// Package gateway 实现外部支付网关的出站签名请求与入站回调验签。
// 凭据通过显式配置注入, 不读取任何全局状态。
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"smartshop/checkout-service/internal/biz"

	"github.com/google/wire"
)

// ProviderSet is gateway providers.
var ProviderSet = wire.NewSet(
	NewVNPay,
	NewMoMo,
	NewAdapters,
)

// NewAdapters 汇总全部网关适配器供支付业务选路
func NewAdapters(v *VNPay, m *MoMo) []biz.GatewayAdapter {
	return []biz.GatewayAdapter{v, m}
}

// hmacSHA512Hex 对 data 做 HMAC-SHA512 并十六进制编码
func hmacSHA512Hex(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// hmacSHA256Hex 对 data 做 HMAC-SHA256 并十六进制编码
func hmacSHA256Hex(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureEqual 常数时间比较两个十六进制签名
func signatureEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
