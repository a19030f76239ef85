package service

import (
	"time"

	"xinyuan_tech/directory-service/internal/biz"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// BusinessService 商户目录 HTTP 接口
type BusinessService struct {
	uc  *biz.BusinessUsecase
	log *log.Helper
}

func NewBusinessService(uc *biz.BusinessUsecase, logger log.Logger) *BusinessService {
	return &BusinessService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// locationBody 坐标的对外表示
type locationBody struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// openingHoursBody 营业时间的对外表示
type openingHoursBody struct {
	Open  string `json:"open"`
	Close string `json:"close"`
	Days  []int  `json:"days"`
}

// productBody 商品的对外表示
type productBody struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

// businessBody 商户文档的对外表示
type businessBody struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"ownerId"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Description  string            `json:"description,omitempty"`
	Address      string            `json:"address"`
	Location     *locationBody     `json:"location,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	OpeningHours *openingHoursBody `json:"openingHours,omitempty"`
	IsOpen       bool              `json:"isOpen"`
	Images       []string          `json:"images"`
	ViewCount    int64             `json:"viewCount"`
	Rating       float64           `json:"rating"`
	Products     []*productBody    `json:"products"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func toBusinessBody(b *biz.Business) *businessBody {
	body := &businessBody{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Name:        b.Name,
		Category:    b.Category,
		Description: b.Description,
		Address:     b.Address,
		Phone:       b.Phone,
		IsOpen:      b.IsOpen,
		Images:      b.Images,
		ViewCount:   b.ViewCount,
		Rating:      b.Rating,
		Products:    make([]*productBody, 0, len(b.Products)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if body.Images == nil {
		body.Images = []string{}
	}
	if b.Location != nil {
		body.Location = &locationBody{Latitude: b.Location.Latitude, Longitude: b.Location.Longitude}
	}
	if b.OpeningHours != nil {
		body.OpeningHours = &openingHoursBody{
			Open:  b.OpeningHours.Open,
			Close: b.OpeningHours.Close,
			Days:  b.OpeningHours.Days,
		}
	}
	for _, p := range b.Products {
		body.Products = append(body.Products, &productBody{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			IsAvailable: p.IsAvailable,
		})
	}
	return body
}

func toBusinessBodyList(list []*biz.Business) []*businessBody {
	bodies := make([]*businessBody, len(list))
	for i, b := range list {
		bodies[i] = toBusinessBody(b)
	}
	return bodies
}

// businessRequest 创建/更新商户请求体
type businessRequest struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"ownerId"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Description  string            `json:"description"`
	Address      string            `json:"address"`
	Phone        string            `json:"phone"`
	OpeningHours *openingHoursBody `json:"openingHours"`
	IsOpen       bool              `json:"isOpen"`
	Images       []string          `json:"images"`
	Products     []*productBody    `json:"products"`
}

func (r *businessRequest) toBiz() *biz.Business {
	b := &biz.Business{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Address:     r.Address,
		Phone:       r.Phone,
		IsOpen:      r.IsOpen,
		Images:      r.Images,
	}
	if r.OpeningHours != nil {
		b.OpeningHours = &biz.OpeningHours{
			Open:  r.OpeningHours.Open,
			Close: r.OpeningHours.Close,
			Days:  r.OpeningHours.Days,
		}
	}
	for _, p := range r.Products {
		b.Products = append(b.Products, &biz.Product{
			ID:          p.ID,
			BusinessID:  r.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Image:       p.Image,
			IsAvailable: p.IsAvailable,
		})
	}
	return b
}

// List GET /businesses 全部商户
func (s *BusinessService) List(ctx http.Context) error {
	list, err := s.uc.ListBusinesses(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(200, toBusinessBodyList(list))
}

// Search GET /businesses/search?q= 关键词搜索
func (s *BusinessService) Search(ctx http.Context) error {
	list, err := s.uc.SearchBusinesses(ctx, ctx.Query().Get("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toBusinessBodyList(list))
}

// MostViewed GET /businesses/most-viewed?limit= 最热商户
func (s *BusinessService) MostViewed(ctx http.Context) error {
	list, err := s.uc.ListMostViewed(ctx, queryInt(ctx, "limit"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toBusinessBodyList(list))
}

// ByCategory GET /businesses/category/{category} 按类目筛选
func (s *BusinessService) ByCategory(ctx http.Context) error {
	list, err := s.uc.ListByCategory(ctx, ctx.Vars().Get("category"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toBusinessBodyList(list))
}

// ByOwner GET /businesses/owner/{ownerId} 按所有者筛选
func (s *BusinessService) ByOwner(ctx http.Context) error {
	list, err := s.uc.ListByOwner(ctx, ctx.Vars().Get("ownerId"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toBusinessBodyList(list))
}

// Get GET /businesses/{id} 商户详情，访问即计一次浏览
func (s *BusinessService) Get(ctx http.Context) error {
	b, err := s.uc.GetBusiness(ctx, ctx.Vars().Get("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toBusinessBody(b))
}

// Create POST /businesses 创建商户
func (s *BusinessService) Create(ctx http.Context) error {
	var req businessRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.New(errors.ErrCodeInvalidBusiness, "Malformed request body")
	}
	b, err := s.uc.CreateBusiness(ctx, req.toBiz())
	if err != nil {
		return err
	}
	return ctx.JSON(201, toBusinessBody(b))
}

// Update PUT /businesses/{id} 整体更新商户
func (s *BusinessService) Update(ctx http.Context) error {
	var req businessRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.New(errors.ErrCodeInvalidBusiness, "Malformed request body")
	}
	b, err := s.uc.UpdateBusiness(ctx, ctx.Vars().Get("id"), req.toBiz())
	if err != nil {
		return err
	}
	return ctx.JSON(200, toBusinessBody(b))
}

// Delete DELETE /businesses/{id} 删除商户
func (s *BusinessService) Delete(ctx http.Context) error {
	if err := s.uc.DeleteBusiness(ctx, ctx.Vars().Get("id")); err != nil {
		return err
	}
	return ctx.JSON(200, map[string]interface{}{"message": "Business deleted successfully"})
}

// GetRating GET /businesses/{id}/ratings 查询评分
func (s *BusinessService) GetRating(ctx http.Context) error {
	rating, err := s.uc.GetRating(ctx, ctx.Vars().Get("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, map[string]interface{}{"rating": rating})
}

// Rate PUT /businesses/{id}/ratings 提交评分
func (s *BusinessService) Rate(ctx http.Context) error {
	var req struct {
		Rating float64 `json:"rating"`
	}
	if err := ctx.Bind(&req); err != nil {
		return errors.New(errors.ErrCodeInvalidRating, "Malformed request body")
	}
	rating, err := s.uc.RateBusiness(ctx, ctx.Vars().Get("id"), req.Rating)
	if err != nil {
		return err
	}
	return ctx.JSON(200, map[string]interface{}{"rating": rating})
}
