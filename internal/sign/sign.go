// Package sign 实现支付渠道的 HMAC-SHA256 签名计算与校验。
// 原始串由渠道约定的有序 key=value 列表以 & 拼接而成，
// 字段顺序是渠道契约的一部分，乱序会生成看似合法但错误的摘要。
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// HMACSHA256Hex 计算小写十六进制的 HMAC-SHA256 摘要
func HMACSHA256Hex(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify 校验候选签名，使用常量时间比较
func Verify(secret, raw, candidate string) bool {
	expected := HMACSHA256Hex(secret, raw)
	return hmac.Equal([]byte(expected), []byte(candidate))
}

// MomoCreateRaw MoMo 下单签名原始串，字段顺序由渠道固定
func MomoCreateRaw(accessKey string, amount int64, extraData, ipnUrl, orderId, orderInfo, partnerCode, redirectUrl, requestId, requestType string) string {
	return "accessKey=" + accessKey +
		"&amount=" + strconv.FormatInt(amount, 10) +
		"&extraData=" + extraData +
		"&ipnUrl=" + ipnUrl +
		"&orderId=" + orderId +
		"&orderInfo=" + orderInfo +
		"&partnerCode=" + partnerCode +
		"&redirectUrl=" + redirectUrl +
		"&requestId=" + requestId +
		"&requestType=" + requestType
}

// MomoNotifyRaw MoMo IPN 回调签名原始串，字段顺序由渠道固定
func MomoNotifyRaw(accessKey string, amount int64, extraData, message, orderId, orderInfo, partnerCode, requestId string, responseTime int64, resultCode int, transId int64) string {
	return "accessKey=" + accessKey +
		"&amount=" + strconv.FormatInt(amount, 10) +
		"&extraData=" + extraData +
		"&message=" + message +
		"&orderId=" + orderId +
		"&orderInfo=" + orderInfo +
		"&partnerCode=" + partnerCode +
		"&requestId=" + requestId +
		"&responseTime=" + strconv.FormatInt(responseTime, 10) +
		"&resultCode=" + strconv.Itoa(resultCode) +
		"&transId=" + strconv.FormatInt(transId, 10)
}

// PayosCreateRaw PayOS 建单签名原始串，字段按字母序排列
func PayosCreateRaw(amount int64, cancelUrl, description string, orderCode int64, returnUrl string) string {
	return "amount=" + strconv.FormatInt(amount, 10) +
		"&cancelUrl=" + cancelUrl +
		"&description=" + description +
		"&orderCode=" + strconv.FormatInt(orderCode, 10) +
		"&returnUrl=" + returnUrl
}
