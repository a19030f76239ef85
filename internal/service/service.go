package service

import (
	"strconv"

	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewPaymentService, NewCheckoutService, NewBusinessService, NewUserService)

// queryInt 从 query 读取整数参数，缺失或非法时返回 0
func queryInt(ctx http.Context, key string) int {
	v := ctx.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
