package conf

import (
	"fmt"
)

type Bootstrap struct {
	Server   *Server   `yaml:"server" json:"server"`
	Data     *Data     `yaml:"data" json:"data"`
	Payment  *Payment  `yaml:"payment" json:"payment"`
	Checkout *Checkout `yaml:"checkout" json:"checkout"`
	Log      *Log      `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
	} `yaml:"redis" json:"redis"`
}

// Payment 支付网关配置 (显式注入适配器, 不使用全局变量)
type Payment struct {
	Vnpay *Vnpay `yaml:"vnpay" json:"vnpay"`
	Momo  *Momo  `yaml:"momo" json:"momo"`
}

type Vnpay struct {
	Endpoint   string `yaml:"endpoint" json:"endpoint"`
	TmnCode    string `yaml:"tmn_code" json:"tmn_code"`
	HashSecret string `yaml:"hash_secret" json:"hash_secret"`
	ReturnURL  string `yaml:"return_url" json:"return_url"`
	Locale     string `yaml:"locale" json:"locale"`
}

type Momo struct {
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	PartnerCode string `yaml:"partner_code" json:"partner_code"`
	AccessKey   string `yaml:"access_key" json:"access_key"`
	SecretKey   string `yaml:"secret_key" json:"secret_key"`
	ReturnURL   string `yaml:"return_url" json:"return_url"`
	NotifyURL   string `yaml:"notify_url" json:"notify_url"`
}

// Checkout 结算配置
type Checkout struct {
	// ShippingFees 运费表, key 为配送方式 (STANDARD/EXPRESS)
	ShippingFees map[string]float64 `yaml:"shipping_fees" json:"shipping_fees"`
	Currency     string             `yaml:"currency" json:"currency"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

func (b *Bootstrap) GetServer() *Server {
	if b == nil {
		return nil
	}
	return b.Server
}

func (b *Bootstrap) GetData() *Data {
	if b == nil {
		return nil
	}
	return b.Data
}

func (b *Bootstrap) GetPayment() *Payment {
	if b == nil {
		return nil
	}
	return b.Payment
}

func (b *Bootstrap) GetCheckout() *Checkout {
	if b == nil {
		return nil
	}
	return b.Checkout
}

func (b *Bootstrap) GetLog() *Log {
	if b == nil {
		return nil
	}
	return b.Log
}

func (p *Payment) GetVnpay() *Vnpay {
	if p == nil {
		return nil
	}
	return p.Vnpay
}

func (p *Payment) GetMomo() *Momo {
	if p == nil {
		return nil
	}
	return p.Momo
}

// ShippingFee 按配送方式取运费, 未配置的方式返回 (0, false)
func (c *Checkout) ShippingFee(method string) (float64, bool) {
	if c == nil || c.ShippingFees == nil {
		return 0, false
	}
	fee, ok := c.ShippingFees[method]
	return fee, ok
}

// Validate 验证配置完整性
func (b *Bootstrap) Validate() error {
	if b.Data == nil || b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Server == nil || b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Checkout == nil || len(b.Checkout.ShippingFees) == 0 {
		return fmt.Errorf("checkout.shipping_fees is required")
	}
	return nil
}
