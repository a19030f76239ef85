package biz

import (
	"context"
	"strings"
	"time"

	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// Location 商户坐标
type Location struct {
	Latitude  float64
	Longitude float64
}

// OpeningHours 营业时间，Days 为 0-6 (周日-周六)
type OpeningHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
	Days  []int  `json:"days"`
}

// Product 商户商品
type Product struct {
	ID          string
	BusinessID  string
	Name        string
	Description string
	Price       float64
	Image       string
	IsAvailable bool
}

// Business 商户文档
type Business struct {
	ID           string
	OwnerID      string
	Name         string
	Category     string
	Description  string
	Address      string
	Location     *Location
	Phone        string
	OpeningHours *OpeningHours
	IsOpen       bool
	Images       []string
	ViewCount    int64
	Rating       float64
	Products     []*Product
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BusinessRepo 商户仓库接口
type BusinessRepo interface {
	ListBusinesses(ctx context.Context) ([]*Business, error)
	// SearchBusinesses 多关键词 AND 匹配 name/description，不含商品列表
	SearchBusinesses(ctx context.Context, keywords []string, limit int) ([]*Business, error)
	// GetBusiness 不存在时返回 (nil, nil)
	GetBusiness(ctx context.Context, id string) (*Business, error)
	ListByCategory(ctx context.Context, category string) ([]*Business, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Business, error)
	ListMostViewed(ctx context.Context, limit int) ([]*Business, error)
	CreateBusiness(ctx context.Context, b *Business) error
	SaveBusiness(ctx context.Context, b *Business) error
	DeleteBusiness(ctx context.Context, id string) error
	// IncrementViewCount 自增浏览数并返回新值
	IncrementViewCount(ctx context.Context, id string) (int64, error)
	UpdateRating(ctx context.Context, id string, rating float64) error
}

// GeocoderClient 地理编码客户端接口（防腐层）
type GeocoderClient interface {
	Lookup(ctx context.Context, address string) (*Location, error)
}

// BusinessUsecase 商户目录业务逻辑
type BusinessUsecase struct {
	repo     BusinessRepo
	geocoder GeocoderClient
	log      *log.Helper
}

func NewBusinessUsecase(repo BusinessRepo, geocoder GeocoderClient, logger log.Logger) *BusinessUsecase {
	return &BusinessUsecase{
		repo:     repo,
		geocoder: geocoder,
		log:      log.NewHelper(logger),
	}
}

// ListBusinesses 获取全部商户，浏览数倒序
func (uc *BusinessUsecase) ListBusinesses(ctx context.Context) ([]*Business, error) {
	return uc.repo.ListBusinesses(ctx)
}

// SearchBusinesses 关键词搜索，所有关键词需同时命中 name 或 description
func (uc *BusinessUsecase) SearchBusinesses(ctx context.Context, query string) ([]*Business, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.ErrCodeInvalidSearchQuery, "Search query is required")
	}
	keywords := strings.Fields(query)
	if len(keywords) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSearchQuery, "Invalid search query")
	}
	return uc.repo.SearchBusinesses(ctx, keywords, constants.SearchResultLimit)
}

// GetBusiness 按 ID 查询并自增浏览数
func (uc *BusinessUsecase) GetBusiness(ctx context.Context, id string) (*Business, error) {
	b, err := uc.repo.GetBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.New(errors.ErrCodeBusinessNotFound, "Business not found")
	}
	count, err := uc.repo.IncrementViewCount(ctx, id)
	if err != nil {
		uc.log.Warnf("Failed to increment view count for business %s: %v", id, err)
	} else {
		b.ViewCount = count
	}
	return b, nil
}

// ListByCategory 按类目获取商户，浏览数倒序
func (uc *BusinessUsecase) ListByCategory(ctx context.Context, category string) ([]*Business, error) {
	return uc.repo.ListByCategory(ctx, category)
}

// ListByOwner 按所有者获取商户，创建时间倒序
func (uc *BusinessUsecase) ListByOwner(ctx context.Context, ownerID string) ([]*Business, error) {
	return uc.repo.ListByOwner(ctx, ownerID)
}

// ListMostViewed 获取浏览数最高的商户
func (uc *BusinessUsecase) ListMostViewed(ctx context.Context, limit int) ([]*Business, error) {
	if limit < 1 {
		limit = constants.DefaultMostViewedLimit
	}
	return uc.repo.ListMostViewed(ctx, limit)
}

// CreateBusiness 创建商户，先通过地理编码服务解析地址坐标
func (uc *BusinessUsecase) CreateBusiness(ctx context.Context, b *Business) (*Business, error) {
	if b.ID == "" || b.OwnerID == "" || b.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidBusiness, "id, ownerId and name are required")
	}
	if !constants.SupportedCategories[b.Category] {
		return nil, errors.New(errors.ErrCodeInvalidBusiness, "unsupported category: %s", b.Category)
	}

	loc, err := uc.geocoder.Lookup(ctx, strings.TrimSpace(b.Address))
	if err != nil {
		uc.log.Errorf("Failed to geocode address %q: %v", b.Address, err)
		return nil, errors.New(errors.ErrCodeGeocodeFailed, "failed to resolve business address")
	}
	b.Location = loc

	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if err := uc.repo.CreateBusiness(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBusiness 整体更新商户文档
func (uc *BusinessUsecase) UpdateBusiness(ctx context.Context, id string, b *Business) (*Business, error) {
	existing, err := uc.repo.GetBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New(errors.ErrCodeBusinessNotFound, "Business not found")
	}
	if b.Category != "" && !constants.SupportedCategories[b.Category] {
		return nil, errors.New(errors.ErrCodeInvalidBusiness, "unsupported category: %s", b.Category)
	}

	b.ID = id
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	if err := uc.repo.SaveBusiness(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBusiness 删除商户
func (uc *BusinessUsecase) DeleteBusiness(ctx context.Context, id string) error {
	existing, err := uc.repo.GetBusiness(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New(errors.ErrCodeBusinessNotFound, "Business not found")
	}
	return uc.repo.DeleteBusiness(ctx, id)
}

// GetRating 获取商户评分
func (uc *BusinessUsecase) GetRating(ctx context.Context, id string) (float64, error) {
	b, err := uc.repo.GetBusiness(ctx, id)
	if err != nil {
		return 0, err
	}
	if b == nil {
		return 0, errors.New(errors.ErrCodeBusinessNotFound, "Business not found")
	}
	return b.Rating, nil
}

// RateBusiness 提交评分：首个评分直接采用，其后与现值做简单平均。
// 保留上游系统的计算方式，避免悄悄改变历史评分权重。
func (uc *BusinessUsecase) RateBusiness(ctx context.Context, id string, rating float64) (float64, error) {
	if rating < 1 || rating > 5 {
		return 0, errors.New(errors.ErrCodeInvalidRating, "Rating must be between 1 and 5")
	}
	b, err := uc.repo.GetBusiness(ctx, id)
	if err != nil {
		return 0, err
	}
	if b == nil {
		return 0, errors.New(errors.ErrCodeBusinessNotFound, "Business not found")
	}

	newRating := rating
	if b.Rating != 0 {
		newRating = (b.Rating + rating) / 2
	}
	if err := uc.repo.UpdateRating(ctx, id, newRating); err != nil {
		return 0, err
	}
	return newRating, nil
}
