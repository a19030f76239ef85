package biz

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"
	"xinyuan_tech/directory-service/internal/sign"
)

// PayosCreateRequest PayOS 建单请求报文
type PayosCreateRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

// PayosLinkData PayOS 建单响应中的支付链接数据
type PayosLinkData struct {
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	PaymentLinkID string `json:"paymentLinkId"`
	Status        string `json:"status"`
}

// PayosWebhookPayload PayOS webhook 报文
type PayosWebhookPayload struct {
	Code    string `json:"code"`
	Desc    string `json:"desc"`
	Success bool   `json:"success"`
	Data    struct {
		OrderCode int64  `json:"orderCode"`
		Amount    int64  `json:"amount"`
		Reference string `json:"reference"`
		TransDate string `json:"transactionDateTime"`
	} `json:"data"`
	Signature string `json:"signature"`
}

// CreateCheckoutRequest 收银台链接建单入参
type CreateCheckoutRequest struct {
	OrderCode          int64
	Amount             int64
	Description        string
	ReturnURL          string
	CancelURL          string
	UserID             string
	SubscriptionPlanID int
}

// PayosReturnResult return 跳转的处理结果：
// RedirectURL 非空时重定向到深度链接，否则返回 JSON 状态
type PayosReturnResult struct {
	RedirectURL string
	OrderCode   string
	Status      string
}

// CreatePayosLink 收银台渠道建单：
// 校验入参 -> 签名建单 -> 落库 pending。
// 订单号唯一性依赖台账层约束，重复订单在渠道调用成功后才暴露。
func (uc *PaymentUsecase) CreatePayosLink(ctx context.Context, req *CreateCheckoutRequest) (*PayosLinkData, *Payment, error) {
	var missing []string
	if req.OrderCode == 0 {
		missing = append(missing, "orderCode")
	}
	if req.Amount <= 0 {
		missing = append(missing, "amount")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidPaymentRequest,
			"Missing required fields: %s", strings.Join(missing, ", "))
	}
	if req.UserID == "" || req.SubscriptionPlanID == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidPaymentRequest,
			"Missing required fields: userId, subscriptionPlanId")
	}

	payosConf := uc.conf.Payment.Payos
	raw := sign.PayosCreateRaw(req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)
	link, err := uc.payos.CreatePaymentLink(ctx, &PayosCreateRequest{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: req.Description,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
		Signature:   sign.HMACSHA256Hex(payosConf.ChecksumKey, raw),
	})
	if err != nil {
		uc.log.Errorf("PayOS create-payment-link failed for order %d: %v", req.OrderCode, err)
		return nil, nil, errors.New(errors.ErrCodeCheckoutUpstream, "Failed to create payment link")
	}

	payment := &Payment{
		OrderID:            strconv.FormatInt(req.OrderCode, 10),
		UserID:             req.UserID,
		Amount:             req.Amount,
		OrderInfo:          req.Description,
		PaymentMethod:      constants.PaymentMethodPayos,
		Status:             constants.PaymentStatusPending,
		SubscriptionPlanID: req.SubscriptionPlanID,
		PayURL:             link.CheckoutURL,
		Metadata: map[string]interface{}{
			"payOSOrderCode": link.OrderCode,
			"qrCode":         link.QRCode,
			"returnUrl":      req.ReturnURL,
			"cancelUrl":      req.CancelURL,
			"createdAt":      time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := uc.repo.CreatePayment(ctx, payment); err != nil {
		return nil, nil, err
	}

	uc.log.Infof("Payment record saved for PayOS order %d", req.OrderCode)
	return link, payment, nil
}

// HandlePayosWebhook 收银台渠道 webhook 对账。
// rawBody 用于验签（签名覆盖 JSON 序列化后的完整报文）。
func (uc *PaymentUsecase) HandlePayosWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	payosConf := uc.conf.Payment.Payos
	if signatureHeader == "" {
		if uc.conf.PayosRequireSignature() {
			uc.log.Warnf("PayOS webhook rejected: missing signature header")
			return errors.New(errors.ErrCodeWebhookSignature, "Missing signature")
		}
		// 沙盒模式：显式配置关闭校验时信任无签名报文
	} else if !sign.Verify(payosConf.ChecksumKey, string(rawBody), signatureHeader) {
		uc.log.Warnf("PayOS webhook rejected: invalid signature")
		return errors.New(errors.ErrCodeWebhookSignature, "Invalid signature")
	}

	var payload PayosWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return errors.New(errors.ErrCodeInvalidPaymentRequest, "Malformed webhook payload")
	}
	if payload.Data.OrderCode == 0 {
		// 无订单信息的事件（渠道握手等），确认即可
		return nil
	}

	orderID := strconv.FormatInt(payload.Data.OrderCode, 10)
	unlock := uc.lockCallback(ctx, orderID)
	defer unlock()

	payment, err := uc.repo.GetPayment(ctx, orderID)
	if err != nil {
		return err
	}
	if payment == nil {
		uc.log.Warnf("PayOS payment not found in database: %s", orderID)
		return nil
	}

	status := constants.PaymentStatusSuccess
	if payload.Code != constants.PayosCodeSuccess {
		status = constants.PaymentStatusFailed
	}
	claimed, err := uc.repo.MarkTerminal(ctx, orderID, &TerminalUpdate{
		Status:          status,
		ProviderTransID: payload.Data.Reference,
		Message:         payload.Desc,
	})
	if err != nil {
		return err
	}
	if !claimed {
		uc.log.Infof("Order %s already in terminal state, skipping (idempotent)", orderID)
		return nil
	}

	uc.log.Infof("PayOS payment %s: %s", status, orderID)
	if status == constants.PaymentStatusFailed {
		uc.revertUserRole(ctx, orderID, payment.UserID, "PayOS payment failed")
	}
	return nil
}

// HandlePayosReturn 收银台渠道同步跳转。
// 该路径信任 query 中的状态标记，不做验签——它只是浏览器便捷路径，
// 权威终态仍由 webhook 决定。
func (uc *PaymentUsecase) HandlePayosReturn(ctx context.Context, orderCode, status string) (*PayosReturnResult, error) {
	if orderCode == "" {
		return nil, errors.New(errors.ErrCodeInvalidPaymentRequest, "Missing orderCode")
	}

	payment, err := uc.repo.GetPayment(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.New(errors.ErrCodePaymentNotFound, "Payment not found")
	}

	payosConf := uc.conf.Payment.Payos
	switch status {
	case constants.PayosStatusCancelled, constants.PaymentStatusFailed:
		unlock := uc.lockCallback(ctx, orderCode)
		claimed, err := uc.repo.MarkTerminal(ctx, orderCode, &TerminalUpdate{
			Status: constants.PaymentStatusFailed,
		})
		if err != nil {
			unlock()
			return nil, err
		}
		if claimed {
			uc.revertUserRole(ctx, orderCode, payment.UserID, "PayOS payment "+status)
		}
		unlock()

		redirect := payosConf.CancelDeepLink
		if redirect == "" {
			redirect = constants.DefaultCancelDeepLink
		}
		return &PayosReturnResult{RedirectURL: redirect}, nil

	case constants.PayosStatusPaid, constants.PaymentStatusSuccess:
		unlock := uc.lockCallback(ctx, orderCode)
		if _, err := uc.repo.MarkTerminal(ctx, orderCode, &TerminalUpdate{
			Status: constants.PaymentStatusSuccess,
		}); err != nil {
			unlock()
			return nil, err
		}
		unlock()

		redirect := payosConf.SuccessDeepLink
		if redirect == "" {
			redirect = constants.DefaultSuccessDeepLink
		}
		return &PayosReturnResult{RedirectURL: redirect}, nil
	}

	return &PayosReturnResult{OrderCode: orderCode, Status: payment.Status}, nil
}
