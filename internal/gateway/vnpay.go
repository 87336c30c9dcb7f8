package gateway

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	vnpDateFormat  = "20060102150405"
	vnpVersion     = "2.1.0"
	vnpCommandPay  = "pay"
	vnpSuccessCode = "00"
	// vnpExpiry 支付链接有效期
	vnpExpiry = 15 * time.Minute
)

// VNPay 跳转-哈希式网关适配器。
// 签名输入是按 key 字典序排序、值未经 URL 编码的 k=v&... 串,
// 传输用的查询串则对值做 URL 编码 —— 两者必须与网关侧逐字节一致,
// 任何偏差都会让所有交易静默验签失败。
type VNPay struct {
	cfg *conf.Vnpay
	now func() time.Time
	log *log.Helper
}

// NewVNPay 创建 VNPay 适配器
func NewVNPay(c *conf.Bootstrap, logger log.Logger) *VNPay {
	return &VNPay{
		cfg: c.GetPayment().GetVnpay(),
		now: time.Now,
		log: log.NewHelper(logger),
	}
}

// Method 返回适配器对应的支付方式
func (g *VNPay) Method() biz.PaymentMethod { return biz.PaymentMethodVnpay }

// CreateRedirect 构建签名后的跳转链接
func (g *VNPay) CreateRedirect(_ context.Context, txn *biz.PaymentTransaction, orderNumber string) (*biz.GatewayRedirect, error) {
	if g.cfg == nil || g.cfg.TmnCode == "" || g.cfg.HashSecret == "" {
		return nil, errors.New(errors.ErrCodeGatewayConfig, errors.ReasonGatewayConfig,
			"vnpay configuration is missing (tmn_code/hash_secret)")
	}

	now := g.now().UTC()
	// 金额放大 100 倍取整
	amount := strconv.FormatInt(int64(math.Round(txn.Amount*100)), 10)
	returnURL := strings.TrimSuffix(strings.TrimSpace(g.cfg.ReturnURL), "/")
	locale := g.cfg.Locale
	if locale == "" {
		locale = "vn"
	}

	params := map[string]string{
		"vnp_Version":    vnpVersion,
		"vnp_Command":    vnpCommandPay,
		"vnp_TmnCode":    strings.TrimSpace(g.cfg.TmnCode),
		"vnp_Amount":     amount,
		"vnp_CurrCode":   txn.Currency,
		"vnp_TxnRef":     txn.TransactionNo,
		"vnp_OrderInfo":  "Thanh toan don hang " + orderNumber,
		"vnp_OrderType":  "other",
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  returnURL,
		"vnp_CreateDate": now.Format(vnpDateFormat),
		"vnp_ExpireDate": now.Add(vnpExpiry).Format(vnpDateFormat),
	}

	hashData := canonicalQuery(params)
	secureHash := hmacSHA512Hex(strings.TrimSpace(g.cfg.HashSecret), hashData)

	query := encodedQuery(params) +
		"&vnp_SecureHash=" + url.QueryEscape(secureHash) +
		"&vnp_SecureHashType=HmacSHA512"

	g.log.Infof("Built vnpay redirect: txn=%s amount=%s", txn.TransactionNo, amount)
	return &biz.GatewayRedirect{
		PayURL:     g.cfg.Endpoint + "?" + query,
		RawRequest: hashData,
	}, nil
}

// VerifyCallback 重算签名校验回调参数, 失配返回 InvalidSignature
func (g *VNPay) VerifyCallback(params map[string]string) (*biz.CallbackResult, error) {
	if g.cfg == nil || g.cfg.HashSecret == "" {
		return nil, errors.New(errors.ErrCodeGatewayConfig, errors.ReasonGatewayConfig,
			"vnpay configuration is missing (hash_secret)")
	}

	received := params["vnp_SecureHash"]
	if received == "" {
		return nil, errors.New(errors.ErrCodeInvalidSignature, errors.ReasonInvalidSignature,
			"vnpay callback has no secure hash")
	}

	// 签名字段自身不参与重算
	fields := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		fields[k] = v
	}
	expected := hmacSHA512Hex(strings.TrimSpace(g.cfg.HashSecret), canonicalQuery(fields))
	if !signatureEqual(received, expected) {
		return nil, errors.New(errors.ErrCodeInvalidSignature, errors.ReasonInvalidSignature,
			"vnpay callback signature mismatch")
	}

	raw, _ := json.Marshal(params)
	code := params["vnp_ResponseCode"]
	return &biz.CallbackResult{
		TransactionNo: params["vnp_TxnRef"],
		Success:       code == vnpSuccessCode,
		ResponseCode:  code,
		BankCode:      params["vnp_BankCode"],
		CardType:      params["vnp_CardType"],
		GatewayTxnID:  params["vnp_TransactionNo"],
		SecureHash:    received,
		RawPayload:    string(raw),
	}, nil
}

// canonicalQuery 签名用规范串: key 字典序排序, 值保持原文, 空值跳过
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := params[k]
		if v == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
	}
	return sb.String()
}

// encodedQuery 传输用查询串: 与规范串相同的 key 顺序, 值做 URL 编码
func encodedQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := params[k]
		if v == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v))
	}
	return sb.String()
}
