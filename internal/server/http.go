package server

import (
	"encoding/json"
	stdhttp "net/http"

	"github.com/gaoyong06/go-pkg/health"
	"github.com/gaoyong06/go-pkg/middleware/i18n"

	"xinyuan_tech/directory-service/internal/conf"
	"xinyuan_tech/directory-service/internal/errors"
	"xinyuan_tech/directory-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap,
	payment *service.PaymentService,
	checkout *service.CheckoutService,
	business *service.BusinessService,
	users *service.UserService,
	logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			// 添加 i18n 中间件
			i18n.Middleware(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	srv := http.NewServer(opts...)

	// 钱包支付与台账
	paymentRoute := srv.Route("/payment")
	paymentRoute.POST("/create-payment", payment.CreatePayment)
	paymentRoute.POST("/notify", payment.Notify)
	paymentRoute.GET("/status/{orderId}", payment.Status)
	// 固定路径需先于参数路径注册，否则 all 会被当作 userId
	paymentRoute.GET("/history/all", payment.HistoryAll)
	paymentRoute.GET("/history/{userId}", payment.HistoryUser)

	// 收银台链接支付
	payosRoute := srv.Route("/payos")
	payosRoute.POST("/create-payment-link", checkout.CreateLink)
	payosRoute.POST("/webhook", checkout.Webhook)
	payosRoute.GET("/return", checkout.Return)
	payosRoute.GET("/payment/{orderId}", checkout.GetPayment)

	// 商户目录
	businessRoute := srv.Route("/businesses")
	businessRoute.GET("/", business.List)
	businessRoute.POST("/", business.Create)
	businessRoute.GET("/search", business.Search)
	businessRoute.GET("/most-viewed", business.MostViewed)
	businessRoute.GET("/category/{category}", business.ByCategory)
	businessRoute.GET("/owner/{ownerId}", business.ByOwner)
	businessRoute.GET("/{id}", business.Get)
	businessRoute.PUT("/{id}", business.Update)
	businessRoute.DELETE("/{id}", business.Delete)
	businessRoute.GET("/{id}/ratings", business.GetRating)
	businessRoute.PUT("/{id}/ratings", business.Rate)

	// 用户目录透传
	userRoute := srv.Route("/clerk")
	userRoute.GET("/users", users.List)
	userRoute.GET("/users/{userId}", users.Get)

	// 注册健康检查端点
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, health.NewResponse("directory-service"))
	})

	return srv
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = errors.HTTPStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
