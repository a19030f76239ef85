package constants

import "time"

// 缓存相关常量
const (
	// MostViewedCacheExpiration 热门商户列表缓存过期时间
	MostViewedCacheExpiration = 5 * time.Minute
	// CacheRandomMaxSeconds 缓存随机过期时间最大值(秒) - 防止缓存雪崩
	CacheRandomMaxSeconds = 60
)

// 分页相关常量
const (
	// DefaultPage 默认页码
	DefaultPage = 1
	// DefaultPageSize 默认分页大小
	DefaultPageSize = 10
	// DefaultAllHistoryPageSize 全量支付历史默认分页大小
	DefaultAllHistoryPageSize = 100
	// MaxPageSize 最大分页大小 (两个历史接口统一套用)
	MaxPageSize = 500
)

// 搜索相关常量
const (
	// SearchResultLimit 搜索结果上限
	SearchResultLimit = 50
	// DefaultMostViewedLimit 默认热门商户数量
	DefaultMostViewedLimit = 5
)

// 分布式锁相关常量
const (
	// CallbackLockExpiration 回调对账锁过期时间
	CallbackLockExpiration = 30 * time.Second
	// CallbackLockRetries 回调对账锁重试次数
	CallbackLockRetries = 3
)

// 支付状态
const (
	// PaymentStatusPending 待支付(订单已创建，等待回调)
	PaymentStatusPending = "pending"
	// PaymentStatusSuccess 支付成功
	PaymentStatusSuccess = "success"
	// PaymentStatusFailed 支付失败
	PaymentStatusFailed = "failed"
	// PaymentStatusCancelled 支付取消
	PaymentStatusCancelled = "cancelled"
)

// 支付渠道
const (
	// PaymentMethodMomo 钱包渠道
	PaymentMethodMomo = "momo"
	// PaymentMethodPayos 收银台链接渠道
	PaymentMethodPayos = "payos"
)

// MoMo 协议常量
const (
	// MomoRequestTypeCaptureWallet 钱包支付请求类型
	MomoRequestTypeCaptureWallet = "captureWallet"
	// MomoResultCodeSuccess 支付成功结果码
	MomoResultCodeSuccess = 0
)

// PayOS 协议常量
const (
	// PayosCodeSuccess 支付成功结果码
	PayosCodeSuccess = "00"
	// PayosStatusPaid return 跳转中的成功状态
	PayosStatusPaid = "PAID"
	// PayosStatusCancelled return 跳转中的取消状态
	PayosStatusCancelled = "CANCELLED"
	// PayosSignatureHeader webhook 签名头
	PayosSignatureHeader = "x-payos-signature"
)

// 深度链接默认值
const (
	// DefaultSuccessDeepLink 支付成功跳转
	DefaultSuccessDeepLink = "app://payment-success"
	// DefaultCancelDeepLink 支付取消跳转
	DefaultCancelDeepLink = "app://payment-cancel"
)

// 用户目录相关常量
const (
	// RoleClient 订阅回退后的默认角色
	RoleClient = "client"
	// DefaultUserListLimit 用户列表默认数量
	DefaultUserListLimit = 50
)

// 商户类目
var SupportedCategories = map[string]bool{
	"accommodation": true,
	"hotel":         true,
	"restaurant":    true,
	"pharmacy":      true,
	"gas_station":   true,
}
