package errors

import (
	"fmt"
	"net/http"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	i18nPkg "github.com/gaoyong06/go-pkg/middleware/i18n"
	kerrors "github.com/go-kratos/kratos/v2/errors"
)

func init() {
	// 初始化全局错误管理器（使用项目特定的配置）
	pkgErrors.InitGlobalErrorManager("i18n", i18nPkg.Language)
}

// 目录服务错误码定义
// 错误码格式：SSMMEE (6位数字)，其中 SS=14 表示 directory-service
// 模块划分：
//   01: 商户模块
//   02: 支付台账模块
//   03: 钱包渠道 (MoMo)
//   04: 收银台渠道 (PayOS)
//   05: 用户目录

// 商户模块 (140100-140199)
const (
	// ErrCodeBusinessNotFound 商户不存在错误
	ErrCodeBusinessNotFound = 140101
	// ErrCodeInvalidSearchQuery 搜索关键词无效错误
	ErrCodeInvalidSearchQuery = 140102
	// ErrCodeInvalidRating 评分超出范围错误
	ErrCodeInvalidRating = 140103
	// ErrCodeGeocodeFailed 地址解析失败错误
	ErrCodeGeocodeFailed = 140104
	// ErrCodeInvalidBusiness 商户数据无效错误
	ErrCodeInvalidBusiness = 140105
)

// 支付台账模块 (140200-140299)
const (
	// ErrCodePaymentNotFound 支付记录不存在错误
	ErrCodePaymentNotFound = 140201
	// ErrCodeDuplicateOrder 订单号重复错误
	ErrCodeDuplicateOrder = 140202
	// ErrCodeInvalidPaymentRequest 支付请求参数无效错误
	ErrCodeInvalidPaymentRequest = 140203
)

// 钱包渠道模块 (140300-140399)
const (
	// ErrCodeWalletUpstream 钱包渠道调用失败错误
	ErrCodeWalletUpstream = 140301
	// ErrCodeInvalidSignature 回调签名无效错误
	ErrCodeInvalidSignature = 140302
)

// 收银台渠道模块 (140400-140499)
const (
	// ErrCodeCheckoutUpstream 收银台渠道调用失败错误
	ErrCodeCheckoutUpstream = 140401
	// ErrCodeWebhookSignature webhook 签名缺失或无效错误
	ErrCodeWebhookSignature = 140402
)

// 用户目录模块 (140500-140599)
const (
	// ErrCodeDirectoryUnavailable 用户目录服务不可用错误
	ErrCodeDirectoryUnavailable = 140501
	// ErrCodeUserNotFound 用户不存在错误
	ErrCodeUserNotFound = 140502
	// ErrCodeDirectoryNotConfigured 用户目录服务未配置错误
	ErrCodeDirectoryNotConfigured = 140503
)

// reasons 错误码对应的机器可读 reason
var reasons = map[int]string{
	ErrCodeBusinessNotFound:       "BUSINESS_NOT_FOUND",
	ErrCodeInvalidSearchQuery:     "INVALID_SEARCH_QUERY",
	ErrCodeInvalidRating:          "INVALID_RATING",
	ErrCodeGeocodeFailed:          "GEOCODE_FAILED",
	ErrCodeInvalidBusiness:        "INVALID_BUSINESS",
	ErrCodePaymentNotFound:        "PAYMENT_NOT_FOUND",
	ErrCodeDuplicateOrder:         "DUPLICATE_ORDER",
	ErrCodeInvalidPaymentRequest:  "INVALID_PAYMENT_REQUEST",
	ErrCodeWalletUpstream:         "WALLET_UPSTREAM_ERROR",
	ErrCodeInvalidSignature:       "INVALID_SIGNATURE",
	ErrCodeCheckoutUpstream:       "CHECKOUT_UPSTREAM_ERROR",
	ErrCodeWebhookSignature:       "WEBHOOK_SIGNATURE",
	ErrCodeDirectoryUnavailable:   "DIRECTORY_UNAVAILABLE",
	ErrCodeUserNotFound:           "USER_NOT_FOUND",
	ErrCodeDirectoryNotConfigured: "DIRECTORY_NOT_CONFIGURED",
}

// New 按业务错误码构造错误
func New(code int, format string, args ...interface{}) *kerrors.Error {
	reason, ok := reasons[code]
	if !ok {
		reason = "UNKNOWN"
	}
	return kerrors.New(code, reason, fmt.Sprintf(format, args...))
}

// IsCode 判断错误是否为指定业务错误码
func IsCode(err error, code int) bool {
	se := kerrors.FromError(err)
	return se != nil && se.Code == int32(code)
}

// HTTPStatus 业务错误码到 HTTP 状态码的映射
func HTTPStatus(code int) int {
	// 框架层错误（参数绑定等）直接携带标准状态码
	if code >= 100 && code < 600 {
		return code
	}
	switch code {
	case ErrCodeBusinessNotFound, ErrCodePaymentNotFound, ErrCodeUserNotFound:
		return http.StatusNotFound
	case ErrCodeWebhookSignature:
		return http.StatusUnauthorized
	case ErrCodeWalletUpstream, ErrCodeCheckoutUpstream,
		ErrCodeDirectoryUnavailable, ErrCodeDirectoryNotConfigured,
		ErrCodeGeocodeFailed:
		return http.StatusInternalServerError
	}
	if code >= 140000 && code < 150000 {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
