package service

import (
	"io"
	stdhttp "net/http"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// CheckoutService 收银台链接支付 HTTP 接口
type CheckoutService struct {
	uc  *biz.PaymentUsecase
	log *log.Helper
}

func NewCheckoutService(uc *biz.PaymentUsecase, logger log.Logger) *CheckoutService {
	return &CheckoutService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// createLinkRequest 收银台建单请求体
type createLinkRequest struct {
	OrderCode          int64  `json:"orderCode"`
	Amount             int64  `json:"amount"`
	Description        string `json:"description"`
	ReturnURL          string `json:"returnUrl"`
	CancelURL          string `json:"cancelUrl"`
	UserID             string `json:"userId"`
	SubscriptionPlanID int    `json:"subscriptionPlanId"`
}

// createLinkReply 收银台建单响应
type createLinkReply struct {
	Success     bool   `json:"success"`
	CheckoutURL string `json:"checkoutUrl"`
	OrderCode   int64  `json:"orderCode"`
	QRCode      string `json:"qrCode,omitempty"`
	PaymentID   uint64 `json:"paymentId"`
}

// CreateLink POST /payos/create-payment-link 创建收银台支付链接
func (s *CheckoutService) CreateLink(ctx http.Context) error {
	var req createLinkRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.New(errors.ErrCodeInvalidPaymentRequest, "Malformed request body")
	}

	link, payment, err := s.uc.CreatePayosLink(ctx, &biz.CreateCheckoutRequest{
		OrderCode:          req.OrderCode,
		Amount:             req.Amount,
		Description:        req.Description,
		ReturnURL:          req.ReturnURL,
		CancelURL:          req.CancelURL,
		UserID:             req.UserID,
		SubscriptionPlanID: req.SubscriptionPlanID,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(200, &createLinkReply{
		Success:     true,
		CheckoutURL: link.CheckoutURL,
		OrderCode:   link.OrderCode,
		QRCode:      link.QRCode,
		PaymentID:   payment.ID,
	})
}

// GetPayment GET /payos/payment/{orderId} 查询收银台订单
func (s *CheckoutService) GetPayment(ctx http.Context) error {
	orderCode := ctx.Vars().Get("orderId")
	payment, err := s.uc.GetPaymentStatus(ctx, orderCode)
	if err != nil {
		return err
	}
	return ctx.JSON(200, map[string]interface{}{
		"success": true,
		"payment": toPaymentBody(payment),
	})
}

// Webhook POST /payos/webhook 收银台异步回调。
// 验签需要原始报文，不能走 Bind。
func (s *CheckoutService) Webhook(ctx http.Context) error {
	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidPaymentRequest, "Failed to read webhook body")
	}
	signature := ctx.Header().Get(constants.PayosSignatureHeader)

	if err := s.uc.HandlePayosWebhook(ctx, rawBody, signature); err != nil {
		return err
	}
	return ctx.JSON(200, map[string]interface{}{"success": true})
}

// Return GET /payos/return 收银台同步跳转，按处理结果重定向回 App
func (s *CheckoutService) Return(ctx http.Context) error {
	orderCode := ctx.Query().Get("orderCode")
	status := ctx.Query().Get("status")

	result, err := s.uc.HandlePayosReturn(ctx, orderCode, status)
	if err != nil {
		return err
	}
	if result.RedirectURL != "" {
		stdhttp.Redirect(ctx.Response(), ctx.Request(), result.RedirectURL, stdhttp.StatusFound)
		return nil
	}
	return ctx.JSON(200, map[string]interface{}{
		"orderCode": result.OrderCode,
		"status":    result.Status,
	})
}
