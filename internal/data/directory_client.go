package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/conf"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// directoryClient 外部用户目录服务 HTTP 客户端
type directoryClient struct {
	baseURL   string
	secretKey string
	hc        *http.Client
	log       *log.Helper
}

// NewDirectoryClient 创建用户目录客户端，未配置时返回降级客户端
func NewDirectoryClient(c *conf.Bootstrap, logger log.Logger) biz.DirectoryClient {
	helper := log.NewHelper(logger)
	dirConf := c.Client.Directory
	if dirConf.BaseUrl == "" || dirConf.SecretKey == "" {
		helper.Warn("directory client not configured, user operations will be unavailable")
		return &emptyDirectoryClient{}
	}
	return &directoryClient{
		baseURL:   dirConf.BaseUrl,
		secretKey: dirConf.SecretKey,
		hc: &http.Client{
			Timeout: conf.ParseTimeout(dirConf.Timeout, defaultProviderTimeout),
		},
		log: helper,
	}
}

// directoryUserBody 目录服务用户结构
type directoryUserBody struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	CreatedAt      int64  `json:"created_at"`
	LastSignInAt   int64  `json:"last_sign_in_at"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PublicMetadata map[string]interface{} `json:"public_metadata"`
	UnsafeMetadata map[string]interface{} `json:"unsafe_metadata"`
}

func (b *directoryUserBody) toBiz() *biz.DirectoryUser {
	u := &biz.DirectoryUser{
		ID:             b.ID,
		Username:       b.Username,
		FirstName:      b.FirstName,
		LastName:       b.LastName,
		ImageURL:       b.ImageURL,
		CreatedAt:      b.CreatedAt,
		LastSignInAt:   b.LastSignInAt,
		PublicMetadata: b.PublicMetadata,
		UnsafeMetadata: b.UnsafeMetadata,
	}
	if len(b.EmailAddresses) > 0 {
		u.Email = b.EmailAddresses[0].EmailAddress
	}
	return u
}

func (c *directoryClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, errors.New(errors.ErrCodeDirectoryUnavailable, "User directory request failed.")
	}
	return resp, nil
}

// GetUser 按 ID 获取目录用户
func (c *directoryClient) GetUser(ctx context.Context, userID string) (*biz.DirectoryUser, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.New(errors.ErrCodeUserNotFound, "User not found.")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.ErrCodeDirectoryUnavailable, "User directory returned status %d.", resp.StatusCode)
	}

	var body directoryUserBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("directory response decode failed: %w", err)
	}
	return body.toBiz(), nil
}

// UpdateUserMetadata 整体替换用户 unsafe metadata
func (c *directoryClient) UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]interface{}) error {
	payload := map[string]interface{}{"unsafe_metadata": metadata}
	resp, err := c.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(userID)+"/metadata", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.New(errors.ErrCodeUserNotFound, "User not found.")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(errors.ErrCodeDirectoryUnavailable, "User directory returned status %d.", resp.StatusCode)
	}
	return nil
}

// ListUsers 分页拉取目录用户
func (c *directoryClient) ListUsers(ctx context.Context, limit, offset int) ([]*biz.DirectoryUser, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	resp, err := c.do(ctx, http.MethodGet, "/v1/users?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.ErrCodeDirectoryUnavailable, "User directory returned status %d.", resp.StatusCode)
	}

	var bodies []*directoryUserBody
	if err := json.NewDecoder(resp.Body).Decode(&bodies); err != nil {
		return nil, fmt.Errorf("directory response decode failed: %w", err)
	}

	users := make([]*biz.DirectoryUser, 0, len(bodies))
	for _, b := range bodies {
		users = append(users, b.toBiz())
	}
	return users, nil
}

// emptyDirectoryClient 未配置目录服务时的降级实现
type emptyDirectoryClient struct{}

func (e *emptyDirectoryClient) GetUser(ctx context.Context, userID string) (*biz.DirectoryUser, error) {
	return nil, errors.New(errors.ErrCodeDirectoryNotConfigured, "User directory is not configured.")
}

func (e *emptyDirectoryClient) UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]interface{}) error {
	return errors.New(errors.ErrCodeDirectoryNotConfigured, "User directory is not configured.")
}

func (e *emptyDirectoryClient) ListUsers(ctx context.Context, limit, offset int) ([]*biz.DirectoryUser, error) {
	return nil, errors.New(errors.ErrCodeDirectoryNotConfigured, "User directory is not configured.")
}
