package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"smartshop/checkout-service/internal/biz"
	"smartshop/checkout-service/internal/conf"
	"smartshop/checkout-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	momoRequestType = "captureWallet"
	momoLanguage    = "vi"
	momoTimeout     = 10 * time.Second
)

// MoMo REST+HMAC 式网关适配器。
// 创建订单的签名串字段顺序是网关侧写死的, 不按字典序, 不能改。
type MoMo struct {
	cfg    *conf.Momo
	client *http.Client
	log    *log.Helper
}

// NewMoMo 创建 MoMo 适配器
func NewMoMo(c *conf.Bootstrap, logger log.Logger) *MoMo {
	return &MoMo{
		cfg:    c.GetPayment().GetMomo(),
		client: &http.Client{Timeout: momoTimeout},
		log:    log.NewHelper(logger),
	}
}

// Method 返回适配器对应的支付方式
func (g *MoMo) Method() biz.PaymentMethod { return biz.PaymentMethodMomo }

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      string `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
	Lang        string `json:"lang"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

// CreateRedirect 调用网关创建订单接口换取支付链接
func (g *MoMo) CreateRedirect(ctx context.Context, txn *biz.PaymentTransaction, orderNumber string) (*biz.GatewayRedirect, error) {
	if g.cfg == nil || g.cfg.PartnerCode == "" || g.cfg.AccessKey == "" || g.cfg.SecretKey == "" {
		return nil, errors.New(errors.ErrCodeGatewayConfig, errors.ReasonGatewayConfig,
			"momo configuration is missing (partner_code/access_key/secret_key)")
	}

	amount := strconv.FormatInt(int64(math.Round(txn.Amount)), 10)
	orderInfo := "Thanh toan don hang " + orderNumber

	// 字段顺序由网关规定
	rawSignature := "accessKey=" + g.cfg.AccessKey +
		"&amount=" + amount +
		"&extraData=" +
		"&ipnUrl=" + g.cfg.NotifyURL +
		"&orderId=" + txn.TransactionNo +
		"&orderInfo=" + orderInfo +
		"&partnerCode=" + g.cfg.PartnerCode +
		"&redirectUrl=" + g.cfg.ReturnURL +
		"&requestId=" + txn.TransactionNo +
		"&requestType=" + momoRequestType

	body := momoCreateRequest{
		PartnerCode: g.cfg.PartnerCode,
		AccessKey:   g.cfg.AccessKey,
		RequestID:   txn.TransactionNo,
		Amount:      amount,
		OrderID:     txn.TransactionNo,
		OrderInfo:   orderInfo,
		RedirectURL: g.cfg.ReturnURL,
		IpnURL:      g.cfg.NotifyURL,
		ExtraData:   "",
		RequestType: momoRequestType,
		Signature:   hmacSHA256Hex(g.cfg.SecretKey, rawSignature),
		Lang:        momoLanguage,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeGatewayUnavailable, errors.ReasonGatewayUnavailable,
			"marshal momo request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeGatewayUnavailable, errors.ReasonGatewayUnavailable,
			"build momo request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeGatewayUnavailable, errors.ReasonGatewayUnavailable,
			"call momo gateway: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeGatewayUnavailable, errors.ReasonGatewayUnavailable,
			"read momo response: %v", err)
	}

	var out momoCreateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, errors.Newf(errors.ErrCodeGatewayUnavailable, errors.ReasonGatewayUnavailable,
			"decode momo response: %v", err)
	}
	if out.ResultCode != 0 || out.PayURL == "" {
		g.log.Warnf("Momo create order rejected: txn=%s resultCode=%d message=%s",
			txn.TransactionNo, out.ResultCode, out.Message)
		return nil, errors.Newf(errors.ErrCodeGatewayUnavailable, errors.ReasonGatewayUnavailable,
			"momo rejected order: code=%d message=%s", out.ResultCode, out.Message)
	}

	g.log.Infof("Built momo redirect: txn=%s amount=%s", txn.TransactionNo, amount)
	return &biz.GatewayRedirect{
		PayURL:     out.PayURL,
		RawRequest: string(payload),
	}, nil
}

// VerifyCallback 重算签名校验 IPN/跳转回调参数。
// IPN 回调的签名串字段顺序同样由网关规定, 与创建订单的串不同。
func (g *MoMo) VerifyCallback(params map[string]string) (*biz.CallbackResult, error) {
	if g.cfg == nil || g.cfg.SecretKey == "" {
		return nil, errors.New(errors.ErrCodeGatewayConfig, errors.ReasonGatewayConfig,
			"momo configuration is missing (secret_key)")
	}

	received := params["signature"]
	if received == "" {
		return nil, errors.New(errors.ErrCodeInvalidSignature, errors.ReasonInvalidSignature,
			"momo callback has no signature")
	}

	rawSignature := "accessKey=" + g.cfg.AccessKey +
		"&amount=" + params["amount"] +
		"&extraData=" + params["extraData"] +
		"&message=" + params["message"] +
		"&orderId=" + params["orderId"] +
		"&orderInfo=" + params["orderInfo"] +
		"&orderType=" + params["orderType"] +
		"&partnerCode=" + params["partnerCode"] +
		"&payType=" + params["payType"] +
		"&requestId=" + params["requestId"] +
		"&responseTime=" + params["responseTime"] +
		"&resultCode=" + params["resultCode"] +
		"&transId=" + params["transId"]
	expected := hmacSHA256Hex(g.cfg.SecretKey, rawSignature)
	if !signatureEqual(received, expected) {
		return nil, errors.New(errors.ErrCodeInvalidSignature, errors.ReasonInvalidSignature,
			"momo callback signature mismatch")
	}

	raw, _ := json.Marshal(params)
	code := params["resultCode"]
	return &biz.CallbackResult{
		TransactionNo: params["orderId"],
		Success:       code == "0",
		ResponseCode:  code,
		GatewayTxnID:  params["transId"],
		SecureHash:    received,
		RawPayload:    string(raw),
	}, nil
}
