package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

const defaultProviderTimeout = 10 * time.Second

// momoClient 钱包渠道 HTTP 客户端
type momoClient struct {
	endpoint string
	hc       *http.Client
	log      *log.Helper
}

// NewMomoClient 创建钱包渠道客户端
func NewMomoClient(c *conf.Bootstrap, logger log.Logger) biz.MomoClient {
	momoConf := c.Payment.Momo
	return &momoClient{
		endpoint: momoConf.Endpoint,
		hc: &http.Client{
			Timeout: conf.ParseTimeout(momoConf.Timeout, defaultProviderTimeout),
		},
		log: log.NewHelper(logger),
	}
}

// CreatePayment 同步调用渠道下单接口
func (c *momoClient) CreatePayment(ctx context.Context, req *biz.MomoCreateRequest) (*biz.MomoCreateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("momo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("momo returned status %d", resp.StatusCode)
	}

	var out biz.MomoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("momo response decode failed: %w", err)
	}
	return &out, nil
}
