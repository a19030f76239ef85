package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server  *Server  `yaml:"server" json:"server"`
	Data    *Data    `yaml:"data" json:"data"`
	Payment *Payment `yaml:"payment" json:"payment"`
	Client  *Client  `yaml:"client" json:"client"`
	Log     *Log     `yaml:"log" json:"log"`
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

// Payment 支付渠道配置
type Payment struct {
	Momo  *Momo  `yaml:"momo" json:"momo"`
	Payos *Payos `yaml:"payos" json:"payos"`
}

// Momo 钱包渠道 (MoMo) 配置
type Momo struct {
	PartnerCode string `yaml:"partner_code" json:"partner_code"`
	AccessKey   string `yaml:"access_key" json:"access_key"`
	SecretKey   string `yaml:"secret_key" json:"secret_key"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	RedirectUrl string `yaml:"redirect_url" json:"redirect_url"`
	NotifyUrl   string `yaml:"notify_url" json:"notify_url"`
	Timeout     string `yaml:"timeout" json:"timeout"`
}

// Payos 收银台链接渠道 (PayOS) 配置
type Payos struct {
	ClientId    string `yaml:"client_id" json:"client_id"`
	ApiKey      string `yaml:"api_key" json:"api_key"`
	ChecksumKey string `yaml:"checksum_key" json:"checksum_key"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	// RequireSignature 控制 webhook 是否强制校验签名。默认 true，
	// 沙盒环境可关闭以兼容不带签名头的回调。
	RequireSignature *bool  `yaml:"require_signature" json:"require_signature"`
	SuccessDeepLink  string `yaml:"success_deep_link" json:"success_deep_link"`
	CancelDeepLink   string `yaml:"cancel_deep_link" json:"cancel_deep_link"`
	Timeout          string `yaml:"timeout" json:"timeout"`
}

type Client struct {
	Directory *Directory `yaml:"directory" json:"directory"`
	Geocoder  *Geocoder  `yaml:"geocoder" json:"geocoder"`
}

// Directory 外部用户目录服务 (Clerk 风格 REST API)
type Directory struct {
	BaseUrl   string `yaml:"base_url" json:"base_url"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Timeout   string `yaml:"timeout" json:"timeout"`
}

// Geocoder 地理编码服务 (Nominatim 风格)
type Geocoder struct {
	BaseUrl string `yaml:"base_url" json:"base_url"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Validate 验证配置完整性
func (c *Bootstrap) Validate() error {
	if c.Data == nil || c.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if c.Payment == nil {
		return fmt.Errorf("payment config is required")
	}
	if c.Payment.Momo == nil || c.Payment.Momo.SecretKey == "" {
		return fmt.Errorf("payment.momo.secret_key is required")
	}
	if c.Payment.Momo.Endpoint == "" {
		return fmt.Errorf("payment.momo.endpoint is required")
	}
	if c.Payment.Payos == nil || c.Payment.Payos.ChecksumKey == "" {
		return fmt.Errorf("payment.payos.checksum_key is required")
	}
	return nil
}

// PayosRequireSignature webhook 签名策略，未配置时默认强制校验
func (c *Bootstrap) PayosRequireSignature() bool {
	if c.Payment == nil || c.Payment.Payos == nil || c.Payment.Payos.RequireSignature == nil {
		return true
	}
	return *c.Payment.Payos.RequireSignature
}

// ParseTimeout 解析时长配置，空值或非法值回退到 def
func ParseTimeout(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
