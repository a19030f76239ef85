package biz

import (
	"context"
	"testing"

	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"
	"xinyuan_tech/directory-service/internal/sign"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletRequest() *CreateWalletPaymentRequest {
	return &CreateWalletPaymentRequest{
		OrderID:            "ORDER-2024-001",
		Amount:             50000,
		OrderInfo:          "Premium subscription",
		UserID:             "user_1",
		SubscriptionPlanID: 2,
	}
}

func momoAccepted() *MomoCreateResponse {
	return &MomoCreateResponse{
		PartnerCode:  "MOMOTEST",
		OrderID:      "ORDER-2024-001",
		RequestID:    "provider-req",
		Amount:       50000,
		ResponseTime: 1716899200000,
		Message:      "Successful.",
		ResultCode:   0,
		PayURL:       "https://momo.example.com/pay/abc",
		Deeplink:     "momo://pay/abc",
		QRCodeURL:    "https://momo.example.com/qr/abc",
	}
}

func TestCreateMomoPaymentMissingFields(t *testing.T) {
	f := newPaymentFixture(testBootstrap())

	_, _, err := f.uc.CreateMomoPayment(context.Background(), &CreateWalletPaymentRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPaymentRequest))
	// 缺失字段全部列出，调用方一次就能修完
	assert.Contains(t, err.Error(), "orderId")
	assert.Contains(t, err.Error(), "amount")
	assert.Contains(t, err.Error(), "orderInfo")
	assert.Contains(t, err.Error(), "userId")
	assert.Contains(t, err.Error(), "subscriptionPlanId")
	assert.Equal(t, 0, f.momo.calls)
}

func TestCreateMomoPaymentDuplicate(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	f.repo.payments["ORDER-2024-001"] = &Payment{OrderID: "ORDER-2024-001"}

	_, _, err := f.uc.CreateMomoPayment(context.Background(), walletRequest())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateOrder))
	// 重复订单在调渠道之前就被拦截
	assert.Equal(t, 0, f.momo.calls)
}

func TestCreateMomoPaymentAccepted(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	f.momo.resp = momoAccepted()

	resp, payment, err := f.uc.CreateMomoPayment(context.Background(), walletRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.ResultCode)

	assert.Equal(t, constants.PaymentStatusPending, payment.Status)
	assert.Equal(t, constants.PaymentMethodMomo, payment.PaymentMethod)
	assert.Equal(t, "https://momo.example.com/pay/abc", payment.PayURL)
	assert.Equal(t, "provider-req", payment.Metadata["momoRequestId"])
	assert.NotEmpty(t, payment.Metadata["requestId"])

	stored, _ := f.repo.GetPayment(context.Background(), "ORDER-2024-001")
	require.NotNil(t, stored)
	assert.Equal(t, constants.PaymentStatusPending, stored.Status)

	// 下发给渠道的签名必须按固定字段顺序计算
	req := f.momo.lastReq
	raw := sign.MomoCreateRaw("AK123", 50000, "",
		"https://api.example.com/payment/notify", "ORDER-2024-001",
		"Premium subscription", "MOMOTEST", "https://app.example.com/done",
		req.RequestID, constants.MomoRequestTypeCaptureWallet)
	assert.Equal(t, sign.HMACSHA256Hex("momo-secret", raw), req.Signature)
}

func TestCreateMomoPaymentProviderRejected(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	rejected := momoAccepted()
	rejected.ResultCode = 41
	rejected.Message = "Duplicated order"
	f.momo.resp = rejected

	_, payment, err := f.uc.CreateMomoPayment(context.Background(), walletRequest())
	require.NoError(t, err)
	// 渠道同步拒绝也要留痕，状态直接落 failed
	assert.Equal(t, constants.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.ResultCode)
	assert.Equal(t, 41, *payment.ResultCode)
}

func TestCreateMomoPaymentProviderError(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	f.momo.err = assert.AnError

	_, _, err := f.uc.CreateMomoPayment(context.Background(), walletRequest())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeWalletUpstream))
	assert.Empty(t, f.repo.payments)
}

func notifyPayload(resultCode int) *MomoNotifyPayload {
	n := &MomoNotifyPayload{
		PartnerCode:  "MOMOTEST",
		OrderID:      "ORDER-2024-001",
		RequestID:    "req-0001",
		Amount:       50000,
		OrderInfo:    "Premium subscription",
		TransID:      4088878653,
		ResultCode:   resultCode,
		Message:      "Successful.",
		ResponseTime: 1716899200000,
	}
	raw := sign.MomoNotifyRaw("AK123", n.Amount, n.ExtraData, n.Message,
		n.OrderID, n.OrderInfo, n.PartnerCode, n.RequestID, n.ResponseTime,
		n.ResultCode, n.TransID)
	n.Signature = sign.HMACSHA256Hex("momo-secret", raw)
	return n
}

func seedPendingMomo(f *paymentFixture) {
	f.repo.payments["ORDER-2024-001"] = &Payment{
		ID:            1,
		OrderID:       "ORDER-2024-001",
		UserID:        "user_1",
		Amount:        50000,
		PaymentMethod: constants.PaymentMethodMomo,
		Status:        constants.PaymentStatusPending,
	}
	f.directory.users["user_1"] = &DirectoryUser{
		ID: "user_1",
		UnsafeMetadata: map[string]interface{}{
			"role":         "owner",
			"subscription": map[string]interface{}{"planId": 2},
			"gender":       "female",
		},
	}
}

func TestHandleMomoNotifyInvalidSignature(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	seedPendingMomo(f)

	n := notifyPayload(0)
	n.Signature = "deadbeef"
	err := f.uc.HandleMomoNotify(context.Background(), n)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSignature))
	assert.Equal(t, constants.PaymentStatusPending, f.repo.payments["ORDER-2024-001"].Status)
}

func TestHandleMomoNotifySuccess(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	seedPendingMomo(f)

	err := f.uc.HandleMomoNotify(context.Background(), notifyPayload(0))
	require.NoError(t, err)

	p := f.repo.payments["ORDER-2024-001"]
	assert.Equal(t, constants.PaymentStatusSuccess, p.Status)
	assert.Equal(t, "4088878653", p.ProviderTransID)
	require.NotNil(t, p.ResponseTime)
	// 成功路径不触发角色回退
	assert.Equal(t, 0, f.directory.updateCalls)
}

func TestHandleMomoNotifyFailedRevertsRole(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	seedPendingMomo(f)

	err := f.uc.HandleMomoNotify(context.Background(), notifyPayload(1006))
	require.NoError(t, err)

	p := f.repo.payments["ORDER-2024-001"]
	assert.Equal(t, constants.PaymentStatusFailed, p.Status)

	assert.Equal(t, 1, f.directory.updateCalls)
	assert.Equal(t, constants.RoleClient, f.directory.lastMeta["role"])
	assert.Nil(t, f.directory.lastMeta["subscription"])
	// 与回退无关的字段保持原样
	assert.Equal(t, "female", f.directory.lastMeta["gender"])

	assert.Equal(t, true, p.Metadata["userRoleReverted"])
	assert.Equal(t, "MoMo payment failed", p.Metadata["revertReason"])
}

func TestHandleMomoNotifyUnknownOrder(t *testing.T) {
	f := newPaymentFixture(testBootstrap())

	// 未知订单确认即可，避免渠道无限重试
	err := f.uc.HandleMomoNotify(context.Background(), notifyPayload(0))
	require.NoError(t, err)
}

func TestHandleMomoNotifyIdempotent(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	seedPendingMomo(f)

	require.NoError(t, f.uc.HandleMomoNotify(context.Background(), notifyPayload(1006)))
	require.NoError(t, f.uc.HandleMomoNotify(context.Background(), notifyPayload(1006)))

	// 重复回调不重复回退角色
	assert.Equal(t, 1, f.directory.updateCalls)
	assert.Equal(t, constants.PaymentStatusFailed, f.repo.payments["ORDER-2024-001"].Status)
}

func TestHandleMomoNotifyRevertFailureDoesNotAbort(t *testing.T) {
	f := newPaymentFixture(testBootstrap())
	seedPendingMomo(f)
	f.directory.getErr = assert.AnError

	err := f.uc.HandleMomoNotify(context.Background(), notifyPayload(1006))
	require.NoError(t, err)

	p := f.repo.payments["ORDER-2024-001"]
	assert.Equal(t, constants.PaymentStatusFailed, p.Status)
	// 回退失败留痕，便于人工补偿
	assert.NotEmpty(t, p.Metadata["userRoleRevertError"])
	assert.NotEmpty(t, p.Metadata["revertAttemptedAt"])
}
