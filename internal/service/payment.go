package service

import (
	"time"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// PaymentService 钱包支付与台账查询 HTTP 接口
type PaymentService struct {
	uc  *biz.PaymentUsecase
	log *log.Helper
}

func NewPaymentService(uc *biz.PaymentUsecase, logger log.Logger) *PaymentService {
	return &PaymentService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// createPaymentRequest 钱包建单请求体
type createPaymentRequest struct {
	OrderID            string `json:"orderId"`
	Amount             int64  `json:"amount"`
	OrderInfo          string `json:"orderInfo"`
	UserID             string `json:"userId"`
	SubscriptionPlanID int    `json:"subscriptionPlanId"`
}

// createPaymentReply 钱包建单响应：渠道同步响应透传 + 本地台账 ID
type createPaymentReply struct {
	PartnerCode     string `json:"partnerCode"`
	OrderID         string `json:"orderId"`
	RequestID       string `json:"requestId"`
	Amount          int64  `json:"amount"`
	ResponseTime    int64  `json:"responseTime"`
	Message         string `json:"message"`
	ResultCode      int    `json:"resultCode"`
	PayURL          string `json:"payUrl"`
	Deeplink        string `json:"deeplink,omitempty"`
	QRCodeURL       string `json:"qrCodeUrl,omitempty"`
	DeeplinkMiniApp string `json:"deeplinkMiniApp,omitempty"`
	PaymentID       uint64 `json:"paymentId"`
}

// paymentBody 台账记录的对外表示
type paymentBody struct {
	PaymentID          uint64                 `json:"paymentId"`
	OrderID            string                 `json:"orderId"`
	UserID             string                 `json:"userId"`
	Amount             int64                  `json:"amount"`
	OrderInfo          string                 `json:"orderInfo"`
	PaymentMethod      string                 `json:"paymentMethod"`
	Status             string                 `json:"status"`
	TransID            string                 `json:"transId,omitempty"`
	ResultCode         *int                   `json:"resultCode,omitempty"`
	Message            string                 `json:"message,omitempty"`
	ResponseTime       *time.Time             `json:"responseTime,omitempty"`
	SubscriptionPlanID int                    `json:"subscriptionPlanId"`
	PayURL             string                 `json:"payUrl,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

func toPaymentBody(p *biz.Payment) *paymentBody {
	return &paymentBody{
		PaymentID:          p.ID,
		OrderID:            p.OrderID,
		UserID:             p.UserID,
		Amount:             p.Amount,
		OrderInfo:          p.OrderInfo,
		PaymentMethod:      p.PaymentMethod,
		Status:             p.Status,
		TransID:            p.ProviderTransID,
		ResultCode:         p.ResultCode,
		Message:            p.Message,
		ResponseTime:       p.ResponseTime,
		SubscriptionPlanID: p.SubscriptionPlanID,
		PayURL:             p.PayURL,
		Metadata:           p.Metadata,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// historyReply 支付历史分页响应
type historyReply struct {
	Payments    []*paymentBody `json:"payments"`
	TotalPages  int64          `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

func toHistoryReply(payments []*biz.Payment, total int64, page, limit int) *historyReply {
	bodies := make([]*paymentBody, len(payments))
	for i, p := range payments {
		bodies[i] = toPaymentBody(p)
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return &historyReply{
		Payments:    bodies,
		TotalPages:  totalPages,
		CurrentPage: page,
		Total:       total,
	}
}

// CreatePayment POST /payment/create-payment 钱包建单
func (s *PaymentService) CreatePayment(ctx http.Context) error {
	var req createPaymentRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.New(errors.ErrCodeInvalidPaymentRequest, "Malformed request body")
	}

	resp, payment, err := s.uc.CreateMomoPayment(ctx, &biz.CreateWalletPaymentRequest{
		OrderID:            req.OrderID,
		Amount:             req.Amount,
		OrderInfo:          req.OrderInfo,
		UserID:             req.UserID,
		SubscriptionPlanID: req.SubscriptionPlanID,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(200, &createPaymentReply{
		PartnerCode:     resp.PartnerCode,
		OrderID:         resp.OrderID,
		RequestID:       resp.RequestID,
		Amount:          resp.Amount,
		ResponseTime:    resp.ResponseTime,
		Message:         resp.Message,
		ResultCode:      resp.ResultCode,
		PayURL:          resp.PayURL,
		Deeplink:        resp.Deeplink,
		QRCodeURL:       resp.QRCodeURL,
		DeeplinkMiniApp: resp.DeeplinkMiniApp,
		PaymentID:       payment.ID,
	})
}

// Notify POST /payment/notify 钱包 IPN 回调。
// 渠道只认纯文本确认：验签失败 400，内部错误 500，其余一律 200 OK。
func (s *PaymentService) Notify(ctx http.Context) error {
	var payload biz.MomoNotifyPayload
	if err := ctx.Bind(&payload); err != nil {
		return ctx.String(400, "Invalid payload")
	}

	if err := s.uc.HandleMomoNotify(ctx, &payload); err != nil {
		if errors.IsCode(err, errors.ErrCodeInvalidSignature) {
			return ctx.String(400, "Invalid signature")
		}
		s.log.Errorf("MoMo notify handling failed for order %s: %v", payload.OrderID, err)
		return ctx.String(500, "Internal server error")
	}
	return ctx.String(200, "OK")
}

// Status GET /payment/status/{orderId} 查询单笔支付
func (s *PaymentService) Status(ctx http.Context) error {
	orderID := ctx.Vars().Get("orderId")
	payment, err := s.uc.GetPaymentStatus(ctx, orderID)
	if err != nil {
		return err
	}
	return ctx.JSON(200, toPaymentBody(payment))
}

// HistoryAll GET /payment/history/all 全量支付历史
func (s *PaymentService) HistoryAll(ctx http.Context) error {
	payments, total, page, limit, err := s.uc.GetAllHistory(ctx, queryInt(ctx, "page"), queryInt(ctx, "limit"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toHistoryReply(payments, total, page, limit))
}

// HistoryUser GET /payment/history/{userId} 按用户查询支付历史
func (s *PaymentService) HistoryUser(ctx http.Context) error {
	userID := ctx.Vars().Get("userId")
	payments, total, page, limit, err := s.uc.GetUserHistory(ctx, userID, queryInt(ctx, "page"), queryInt(ctx, "limit"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toHistoryReply(payments, total, page, limit))
}
