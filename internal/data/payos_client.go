package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/conf"
	"xinyuan_tech/directory-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// payosClient 收款链接渠道 HTTP 客户端
type payosClient struct {
	endpoint string
	clientID string
	apiKey   string
	hc       *http.Client
	log      *log.Helper
}

// NewPayosClient 创建收款链接渠道客户端
func NewPayosClient(c *conf.Bootstrap, logger log.Logger) biz.PayosClient {
	payosConf := c.Payment.Payos
	return &payosClient{
		endpoint: payosConf.Endpoint,
		clientID: payosConf.ClientId,
		apiKey:   payosConf.ApiKey,
		hc: &http.Client{
			Timeout: conf.ParseTimeout(payosConf.Timeout, defaultProviderTimeout),
		},
		log: log.NewHelper(logger),
	}
}

// payosEnvelope 渠道统一响应包
type payosEnvelope struct {
	Code string             `json:"code"`
	Desc string             `json:"desc"`
	Data *biz.PayosLinkData `json:"data"`
}

// CreatePaymentLink 调用渠道创建收款链接
func (c *payosClient) CreatePaymentLink(ctx context.Context, req *biz.PayosCreateRequest) (*biz.PayosLinkData, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := c.endpoint + "/v2/payment-requests"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", c.clientID)
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payos request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payos returned status %d", resp.StatusCode)
	}

	var envelope payosEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("payos response decode failed: %w", err)
	}
	if envelope.Code != constants.PayosCodeSuccess || envelope.Data == nil {
		return nil, fmt.Errorf("payos rejected request: code=%s desc=%s", envelope.Code, envelope.Desc)
	}
	return envelope.Data, nil
}
