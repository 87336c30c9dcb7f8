package gateway

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVNPay(now time.Time) *VNPay {
	return &VNPay{
		cfg: &conf.Vnpay{
			Endpoint:   "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			TmnCode:    "DEMO0001",
			HashSecret: "SECRETSECRETSECRETSECRET",
			ReturnURL:  "http://localhost:8000/api/v1/payments/vnpay/return/",
			Locale:     "vn",
		},
		now: func() time.Time { return now },
		log: log.NewHelper(log.NewStdLogger(io.Discard)),
	}
}

func vnpayTxn() *biz.PaymentTransaction {
	return &biz.PaymentTransaction{
		TransactionNo: "TXN-1756450000000",
		Amount:        255000,
		Currency:      "VND",
	}
}

func TestVNPayCreateRedirect(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	g := testVNPay(now)

	redirect, err := g.CreateRedirect(context.Background(), vnpayTxn(), "ORD-2026000000001")
	require.NoError(t, err)

	u, err := url.Parse(redirect.PayURL)
	require.NoError(t, err)
	q := u.Query()

	// 金额放大 100 倍, 日期格式 yyyyMMddHHmmss, 过期 +15 分钟
	assert.Equal(t, "25500000", q.Get("vnp_Amount"))
	assert.Equal(t, "20260829103000", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20260829104500", q.Get("vnp_ExpireDate"))
	assert.Equal(t, "TXN-1756450000000", q.Get("vnp_TxnRef"))
	assert.Equal(t, "Thanh toan don hang ORD-2026000000001", q.Get("vnp_OrderInfo"))
	// return_url 的尾部斜杠被剥掉
	assert.Equal(t, "http://localhost:8000/api/v1/payments/vnpay/return", q.Get("vnp_ReturnUrl"))
	assert.Equal(t, "HmacSHA512", q.Get("vnp_SecureHashType"))

	// 签名可用解码后的参数逐字节重算
	fields := make(map[string]string)
	for k := range q {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		fields[k] = q.Get(k)
	}
	expected := hmacSHA512Hex(g.cfg.HashSecret, canonicalQuery(fields))
	assert.Equal(t, expected, q.Get("vnp_SecureHash"))

	// 审计载荷就是签名输入
	assert.Equal(t, canonicalQuery(fields), redirect.RawRequest)
}

func TestVNPayCreateRedirectMissingConfig(t *testing.T) {
	g := testVNPay(time.Now())
	g.cfg = &conf.Vnpay{Endpoint: "x"}

	_, err := g.CreateRedirect(context.Background(), vnpayTxn(), "ORD-1")
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonGatewayConfig))
}

func vnpayCallbackParams(g *VNPay, responseCode string) map[string]string {
	params := map[string]string{
		"vnp_TmnCode":       "DEMO0001",
		"vnp_Amount":        "25500000",
		"vnp_TxnRef":        "TXN-1756450000000",
		"vnp_ResponseCode":  responseCode,
		"vnp_BankCode":      "NCB",
		"vnp_CardType":      "ATM",
		"vnp_TransactionNo": "14880001",
		"vnp_PayDate":       "20260829103500",
	}
	params["vnp_SecureHash"] = hmacSHA512Hex(g.cfg.HashSecret, canonicalQuery(params))
	params["vnp_SecureHashType"] = "HmacSHA512"
	return params
}

func TestVNPayVerifyCallback(t *testing.T) {
	g := testVNPay(time.Now())

	result, err := g.VerifyCallback(vnpayCallbackParams(g, "00"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "TXN-1756450000000", result.TransactionNo)
	assert.Equal(t, "NCB", result.BankCode)
	assert.Equal(t, "ATM", result.CardType)
	assert.Equal(t, "14880001", result.GatewayTxnID)

	// 非 00 响应码验签通过但判定失败
	result, err = g.VerifyCallback(vnpayCallbackParams(g, "24"))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "24", result.ResponseCode)
}

func TestVNPayVerifyCallbackTampered(t *testing.T) {
	g := testVNPay(time.Now())

	params := vnpayCallbackParams(g, "00")
	params["vnp_Amount"] = "100"
	_, err := g.VerifyCallback(params)
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonInvalidSignature))

	params = vnpayCallbackParams(g, "00")
	delete(params, "vnp_SecureHash")
	_, err = g.VerifyCallback(params)
	require.Error(t, err)
	assert.True(t, errors.IsReason(err, errors.ReasonInvalidSignature))
}

func TestCanonicalQuery(t *testing.T) {
	params := map[string]string{
		"b":     "2",
		"a":     "gia tri",
		"empty": "",
		"c":     "3",
	}
	// 字典序, 跳过空值, 值不做编码
	assert.Equal(t, "a=gia tri&b=2&c=3", canonicalQuery(params))
	assert.True(t, strings.Contains(encodedQuery(params), "a=gia+tri"))
}
