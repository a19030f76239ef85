package data

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/rand"
	"time"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// businessRepo 商户仓库实现
type businessRepo struct {
	data *Data
	log  *log.Helper
}

// NewBusinessRepo 创建商户仓库
func NewBusinessRepo(data *Data, logger log.Logger) biz.BusinessRepo {
	return &businessRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// ListBusinesses 全部商户，浏览数倒序
func (r *businessRepo) ListBusinesses(ctx context.Context) ([]*biz.Business, error) {
	var models []model.Business
	if err := r.data.db.WithContext(ctx).
		Preload("Products").
		Order("view_count DESC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list businesses: %v", err)
		return nil, err
	}
	return toBusinessBizList(models), nil
}

// SearchBusinesses 多关键词 AND 匹配 name/description，
// 评分倒序再按浏览数倒序，商品列表不随结果返回
func (r *businessRepo) SearchBusinesses(ctx context.Context, keywords []string, limit int) ([]*biz.Business, error) {
	query := r.data.db.WithContext(ctx).Model(&model.Business{})
	for _, keyword := range keywords {
		pattern := "%" + keyword + "%"
		query = query.Where("(name LIKE ? OR description LIKE ?)", pattern, pattern)
	}

	var models []model.Business
	if err := query.
		Order("rating DESC, view_count DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to search businesses: %v", err)
		return nil, err
	}
	return toBusinessBizList(models), nil
}

// GetBusiness 按 ID 查询，含商品列表
func (r *businessRepo) GetBusiness(ctx context.Context, id string) (*biz.Business, error) {
	var m model.Business
	err := r.data.db.WithContext(ctx).Preload("Products").First(&m, "business_id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get business %s: %v", id, err)
		return nil, err
	}
	return toBusinessBiz(&m), nil
}

// ListByCategory 按类目查询，浏览数倒序
func (r *businessRepo) ListByCategory(ctx context.Context, category string) ([]*biz.Business, error) {
	var models []model.Business
	if err := r.data.db.WithContext(ctx).
		Preload("Products").
		Where("category = ?", category).
		Order("view_count DESC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list businesses by category %s: %v", category, err)
		return nil, err
	}
	return toBusinessBizList(models), nil
}

// ListByOwner 按所有者查询，创建时间倒序
func (r *businessRepo) ListByOwner(ctx context.Context, ownerID string) ([]*biz.Business, error) {
	var models []model.Business
	if err := r.data.db.WithContext(ctx).
		Preload("Products").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list businesses by owner %s: %v", ownerID, err)
		return nil, err
	}
	return toBusinessBizList(models), nil
}

// ListMostViewed 浏览数最高的商户，短 TTL 缓存 + 随机抖动防雪崩
func (r *businessRepo) ListMostViewed(ctx context.Context, limit int) ([]*biz.Business, error) {
	cacheKey := fmt.Sprintf("business:most_viewed:%d", limit)
	if cached, err := r.data.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var businesses []*biz.Business
		if err := json.Unmarshal(cached, &businesses); err == nil {
			return businesses, nil
		}
	} else if !stderrors.Is(err, redis.Nil) {
		r.log.Warnf("Redis get failed for %s: %v", cacheKey, err)
	}

	var models []model.Business
	if err := r.data.db.WithContext(ctx).
		Preload("Products").
		Order("view_count DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list most viewed businesses: %v", err)
		return nil, err
	}
	businesses := toBusinessBizList(models)

	if payload, err := json.Marshal(businesses); err == nil {
		ttl := constants.MostViewedCacheExpiration +
			time.Duration(rand.Intn(constants.CacheRandomMaxSeconds))*time.Second
		if err := r.data.rdb.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
			r.log.Warnf("Redis set failed for %s: %v", cacheKey, err)
		}
	}
	return businesses, nil
}

// CreateBusiness 创建商户（含商品）
func (r *businessRepo) CreateBusiness(ctx context.Context, b *biz.Business) error {
	m := toBusinessModel(b)
	if err := r.data.db.WithContext(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to create business %s: %v", b.ID, err)
		return err
	}
	return nil
}

// SaveBusiness 整体更新商户文档，商品列表整体替换
func (r *businessRepo) SaveBusiness(ctx context.Context, b *biz.Business) error {
	m := toBusinessModel(b)
	return r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", b.ID).Delete(&model.Product{}).Error; err != nil {
			return err
		}
		if err := tx.Save(m).Error; err != nil {
			r.log.Errorf("Failed to save business %s: %v", b.ID, err)
			return err
		}
		return nil
	})
}

// DeleteBusiness 删除商户及其商品
func (r *businessRepo) DeleteBusiness(ctx context.Context, id string) error {
	return r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", id).Delete(&model.Product{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Business{}, "business_id = ?", id).Error; err != nil {
			r.log.Errorf("Failed to delete business %s: %v", id, err)
			return err
		}
		return nil
	})
}

// IncrementViewCount 原子自增浏览数
func (r *businessRepo) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	if err := r.data.db.WithContext(ctx).Model(&model.Business{}).
		Where("business_id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return 0, err
	}
	var count int64
	if err := r.data.db.WithContext(ctx).Model(&model.Business{}).
		Where("business_id = ?", id).
		Pluck("view_count", &count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateRating 更新评分
func (r *businessRepo) UpdateRating(ctx context.Context, id string, rating float64) error {
	return r.data.db.WithContext(ctx).Model(&model.Business{}).
		Where("business_id = ?", id).
		Update("rating", rating).Error
}

func toBusinessModel(b *biz.Business) *model.Business {
	m := &model.Business{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Name:        b.Name,
		Category:    b.Category,
		Description: b.Description,
		Address:     b.Address,
		Phone:       b.Phone,
		IsOpen:      b.IsOpen,
		Images:      datatypes.NewJSONSlice(b.Images),
		ViewCount:   b.ViewCount,
		Rating:      b.Rating,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.Location != nil {
		m.Latitude = b.Location.Latitude
		m.Longitude = b.Location.Longitude
	}
	if b.OpeningHours != nil {
		m.OpeningHours = datatypes.NewJSONType(model.OpeningHours{
			Open:  b.OpeningHours.Open,
			Close: b.OpeningHours.Close,
			Days:  b.OpeningHours.Days,
		})
	}
	for _, p := range b.Products {
		m.Products = append(m.Products, model.Product{
			ID:          p.ID,
			BusinessID:  b.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			IsAvailable: p.IsAvailable,
		})
	}
	return m
}

func toBusinessBiz(m *model.Business) *biz.Business {
	b := &biz.Business{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Category:    m.Category,
		Description: m.Description,
		Address:     m.Address,
		Phone:       m.Phone,
		IsOpen:      m.IsOpen,
		Images:      []string(m.Images),
		ViewCount:   m.ViewCount,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Latitude != 0 || m.Longitude != 0 {
		b.Location = &biz.Location{Latitude: m.Latitude, Longitude: m.Longitude}
	}
	if oh := m.OpeningHours.Data(); oh.Open != "" || oh.Close != "" || len(oh.Days) > 0 {
		b.OpeningHours = &biz.OpeningHours{Open: oh.Open, Close: oh.Close, Days: oh.Days}
	}
	for _, p := range m.Products {
		b.Products = append(b.Products, &biz.Product{
			ID:          p.ID,
			BusinessID:  p.BusinessID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			IsAvailable: p.IsAvailable,
		})
	}
	return b
}

func toBusinessBizList(models []model.Business) []*biz.Business {
	businesses := make([]*biz.Business, len(models))
	for i := range models {
		businesses[i] = toBusinessBiz(&models[i])
	}
	return businesses
}
