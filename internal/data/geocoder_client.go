package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// geocoderClient 地址解析服务 HTTP 客户端
type geocoderClient struct {
	baseURL string
	hc      *http.Client
	log     *log.Helper
}

// NewGeocoderClient 创建地址解析客户端
func NewGeocoderClient(c *conf.Bootstrap, logger log.Logger) biz.GeocoderClient {
	geoConf := c.Client.Geocoder
	return &geocoderClient{
		baseURL: geoConf.BaseUrl,
		hc: &http.Client{
			Timeout: conf.ParseTimeout(geoConf.Timeout, defaultProviderTimeout),
		},
		log: log.NewHelper(logger),
	}
}

// geocodeResult 地址解析服务返回的单条结果
type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup 将地址解析为经纬度，无结果时返回错误
func (c *geocoderClient) Lookup(ctx context.Context, address string) (*biz.Location, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "directory-service/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocoder response decode failed: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no geocode result for address: %s", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocode result: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocode result: %w", err)
	}
	return &biz.Location{Latitude: lat, Longitude: lon}, nil
}
