package biz

import (
	"context"
	"strconv"
	"strings"
	"time"

	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"
	"xinyuan_tech/directory-service/internal/sign"

	"github.com/google/uuid"
)

// MomoCreateRequest MoMo 下单请求报文
type MomoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
	Lang        string `json:"lang"`
}

// MomoCreateResponse MoMo 下单同步响应
type MomoCreateResponse struct {
	PartnerCode     string `json:"partnerCode"`
	OrderID         string `json:"orderId"`
	RequestID       string `json:"requestId"`
	Amount          int64  `json:"amount"`
	ResponseTime    int64  `json:"responseTime"`
	Message         string `json:"message"`
	ResultCode      int    `json:"resultCode"`
	PayURL          string `json:"payUrl"`
	Deeplink        string `json:"deeplink"`
	QRCodeURL       string `json:"qrCodeUrl"`
	DeeplinkMiniApp string `json:"deeplinkMiniApp"`
}

// MomoNotifyPayload MoMo IPN 异步回调报文
type MomoNotifyPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// CreateWalletPaymentRequest 钱包渠道建单入参
type CreateWalletPaymentRequest struct {
	OrderID            string
	Amount             int64
	OrderInfo          string
	UserID             string
	SubscriptionPlanID int
}

// CreateMomoPayment 钱包渠道建单：
// 校验入参 -> 查重 -> 签名下单 -> 按渠道受理结果落库 pending/failed
func (uc *PaymentUsecase) CreateMomoPayment(ctx context.Context, req *CreateWalletPaymentRequest) (*MomoCreateResponse, *Payment, error) {
	var missing []string
	if req.OrderID == "" {
		missing = append(missing, "orderId")
	}
	if req.Amount <= 0 {
		missing = append(missing, "amount")
	}
	if req.OrderInfo == "" {
		missing = append(missing, "orderInfo")
	}
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if req.SubscriptionPlanID == 0 {
		missing = append(missing, "subscriptionPlanId")
	}
	if len(missing) > 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidPaymentRequest,
			"Missing required fields: %s", strings.Join(missing, ", "))
	}

	// 调渠道前先查重，避免浪费一次渠道调用
	existing, err := uc.repo.GetPayment(ctx, req.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, errors.New(errors.ErrCodeDuplicateOrder,
			"Payment with this order ID already exists")
	}

	momoConf := uc.conf.Payment.Momo
	requestID := uuid.New().String()
	extraData := ""

	raw := sign.MomoCreateRaw(momoConf.AccessKey, req.Amount, extraData,
		momoConf.NotifyUrl, req.OrderID, req.OrderInfo, momoConf.PartnerCode,
		momoConf.RedirectUrl, requestID, constants.MomoRequestTypeCaptureWallet)

	resp, err := uc.momo.CreatePayment(ctx, &MomoCreateRequest{
		PartnerCode: momoConf.PartnerCode,
		AccessKey:   momoConf.AccessKey,
		RequestID:   requestID,
		Amount:      req.Amount,
		OrderID:     req.OrderID,
		OrderInfo:   req.OrderInfo,
		RedirectURL: momoConf.RedirectUrl,
		IpnURL:      momoConf.NotifyUrl,
		ExtraData:   extraData,
		RequestType: constants.MomoRequestTypeCaptureWallet,
		Signature:   sign.HMACSHA256Hex(momoConf.SecretKey, raw),
		Lang:        "en",
	})
	if err != nil {
		uc.log.Errorf("MoMo create-payment failed for order %s: %v", req.OrderID, err)
		return nil, nil, errors.New(errors.ErrCodeWalletUpstream, "MoMo payment request failed.")
	}

	status := constants.PaymentStatusPending
	if resp.ResultCode != constants.MomoResultCodeSuccess {
		status = constants.PaymentStatusFailed
	}
	resultCode := resp.ResultCode
	payment := &Payment{
		OrderID:            req.OrderID,
		UserID:             req.UserID,
		Amount:             req.Amount,
		OrderInfo:          req.OrderInfo,
		PaymentMethod:      constants.PaymentMethodMomo,
		Status:             status,
		ResultCode:         &resultCode,
		Message:            resp.Message,
		SubscriptionPlanID: req.SubscriptionPlanID,
		PayURL:             resp.PayURL,
		Metadata: map[string]interface{}{
			"requestId":       requestID,
			"momoRequestId":   resp.RequestID,
			"deeplink":        resp.Deeplink,
			"qrCodeUrl":       resp.QRCodeURL,
			"deeplinkMiniApp": resp.DeeplinkMiniApp,
		},
	}
	if err := uc.repo.CreatePayment(ctx, payment); err != nil {
		return nil, nil, err
	}

	uc.log.Infof("Payment created and saved: %s", req.OrderID)
	return resp, payment, nil
}

// HandleMomoNotify 钱包渠道 IPN 对账：
// 验签 -> 查单（未知订单幂等确认）-> pending CAS 迁移终态 -> 失败时回退用户角色。
// 同一终态回调重复到达时 CAS 不会再次命中，角色回退也不会重复执行。
func (uc *PaymentUsecase) HandleMomoNotify(ctx context.Context, n *MomoNotifyPayload) error {
	momoConf := uc.conf.Payment.Momo
	raw := sign.MomoNotifyRaw(momoConf.AccessKey, n.Amount, n.ExtraData, n.Message,
		n.OrderID, n.OrderInfo, n.PartnerCode, n.RequestID, n.ResponseTime,
		n.ResultCode, n.TransID)
	if !sign.Verify(momoConf.SecretKey, raw, n.Signature) {
		uc.log.Warnf("Invalid MoMo signature received for order %s", n.OrderID)
		return errors.New(errors.ErrCodeInvalidSignature, "Invalid signature")
	}

	unlock := uc.lockCallback(ctx, n.OrderID)
	defer unlock()

	payment, err := uc.repo.GetPayment(ctx, n.OrderID)
	if err != nil {
		return err
	}
	if payment == nil {
		// 渠道可能推送本系统从未创建的订单，确认即可，避免渠道无限重试
		uc.log.Warnf("Payment not found in database: %s", n.OrderID)
		return nil
	}

	status := constants.PaymentStatusSuccess
	if n.ResultCode != constants.MomoResultCodeSuccess {
		status = constants.PaymentStatusFailed
	}
	resultCode := n.ResultCode
	responseTime := time.UnixMilli(n.ResponseTime).UTC()
	claimed, err := uc.repo.MarkTerminal(ctx, n.OrderID, &TerminalUpdate{
		Status:          status,
		ProviderTransID: strconv.FormatInt(n.TransID, 10),
		ResultCode:      &resultCode,
		Message:         n.Message,
		ResponseTime:    &responseTime,
	})
	if err != nil {
		return err
	}
	if !claimed {
		uc.log.Infof("Order %s already in terminal state, skipping (idempotent)", n.OrderID)
		return nil
	}

	uc.log.Infof("Payment %s - Order ID: %s, Trans ID: %d", strings.ToUpper(status), n.OrderID, n.TransID)
	if status == constants.PaymentStatusFailed {
		uc.revertUserRole(ctx, n.OrderID, payment.UserID, "MoMo payment failed")
	}
	return nil
}
