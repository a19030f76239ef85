package data

import (
	"context"
	"testing"
	"time"

	"xinyuan_tech/directory-service/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBusiness(t *testing.T, repo biz.BusinessRepo, b *biz.Business) {
	t.Helper()
	require.NoError(t, repo.CreateBusiness(context.Background(), b))
}

func restaurant(id, owner, name string) *biz.Business {
	return &biz.Business{
		ID:       id,
		OwnerID:  owner,
		Name:     name,
		Category: "restaurant",
		Address:  "12 Nguyen Hue, District 1",
		Location: &biz.Location{Latitude: 10.7769, Longitude: 106.7009},
		OpeningHours: &biz.OpeningHours{
			Open:  "08:00",
			Close: "22:00",
			Days:  []int{1, 2, 3, 4, 5},
		},
		IsOpen: true,
		Images: []string{"https://img.example.com/1.jpg"},
		Products: []*biz.Product{
			{ID: id + "-p1", Name: "Pho bo", Price: 65000, IsAvailable: true},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestBusinessRepoCreateAndGet(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)
	seedBusiness(t, repo, restaurant("biz-1", "user_1", "Pho Corner"))

	got, err := repo.GetBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Pho Corner", got.Name)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 10.7769, got.Location.Latitude, 1e-9)
	require.NotNil(t, got.OpeningHours)
	assert.Equal(t, "08:00", got.OpeningHours.Open)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got.OpeningHours.Days)
	assert.Equal(t, []string{"https://img.example.com/1.jpg"}, got.Images)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "Pho bo", got.Products[0].Name)
}

func TestBusinessRepoGetMissing(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)

	got, err := repo.GetBusiness(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBusinessRepoSearch(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)
	ctx := context.Background()

	pho := restaurant("biz-1", "user_1", "Pho Corner")
	pho.Description = "Traditional beef noodle soup"
	pho.Rating = 4.5
	seedBusiness(t, repo, pho)

	banh := restaurant("biz-2", "user_1", "Banh Mi House")
	banh.Description = "Crispy baguette sandwiches"
	banh.Rating = 4.8
	seedBusiness(t, repo, banh)

	// 所有关键词必须同时命中 name 或 description
	results, err := repo.SearchBusinesses(ctx, []string{"noodle", "beef"}, 50)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "biz-1", results[0].ID)

	results, err = repo.SearchBusinesses(ctx, []string{"noodle", "baguette"}, 50)
	require.NoError(t, err)
	assert.Empty(t, results)

	// 评分高者在前
	results, err = repo.SearchBusinesses(ctx, []string{"house"}, 50)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "biz-2", results[0].ID)
}

func TestBusinessRepoListByCategoryAndOwner(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)
	ctx := context.Background()

	seedBusiness(t, repo, restaurant("biz-1", "user_1", "Pho Corner"))
	cafe := restaurant("biz-2", "user_2", "Morning Cafe")
	cafe.Category = "cafe"
	seedBusiness(t, repo, cafe)

	byCat, err := repo.ListByCategory(ctx, "cafe")
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "biz-2", byCat[0].ID)

	byOwner, err := repo.ListByOwner(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "biz-1", byOwner[0].ID)
}

func TestBusinessRepoListMostViewedWithoutRedis(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)
	ctx := context.Background()

	hot := restaurant("biz-1", "user_1", "Pho Corner")
	hot.ViewCount = 100
	seedBusiness(t, repo, hot)
	cold := restaurant("biz-2", "user_1", "Banh Mi House")
	cold.ViewCount = 3
	seedBusiness(t, repo, cold)

	// 缓存不可用时直接落库查询
	results, err := repo.ListMostViewed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "biz-1", results[0].ID)
}

func TestBusinessRepoSaveReplacesProducts(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)
	ctx := context.Background()
	seedBusiness(t, repo, restaurant("biz-1", "user_1", "Pho Corner"))

	updated := restaurant("biz-1", "user_1", "Pho Corner Deluxe")
	updated.Products = []*biz.Product{
		{ID: "biz-1-p2", Name: "Pho ga", Price: 55000, IsAvailable: true},
		{ID: "biz-1-p3", Name: "Spring rolls", Price: 35000, IsAvailable: false},
	}
	require.NoError(t, repo.SaveBusiness(ctx, updated))

	got, err := repo.GetBusiness(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "Pho Corner Deluxe", got.Name)
	// 商品整体替换，旧商品不残留
	require.Len(t, got.Products, 2)
	names := []string{got.Products[0].Name, got.Products[1].Name}
	assert.ElementsMatch(t, []string{"Pho ga", "Spring rolls"}, names)
}

func TestBusinessRepoDeleteCascadesProducts(t *testing.T) {
	data := newTestData(t)
	repo := NewBusinessRepo(data, log.DefaultLogger)
	ctx := context.Background()
	seedBusiness(t, repo, restaurant("biz-1", "user_1", "Pho Corner"))

	require.NoError(t, repo.DeleteBusiness(ctx, "biz-1"))

	got, err := repo.GetBusiness(ctx, "biz-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	var productCount int64
	require.NoError(t, data.db.Table("product").Where("business_id = ?", "biz-1").Count(&productCount).Error)
	assert.Zero(t, productCount)
}

func TestBusinessRepoIncrementViewCount(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)
	ctx := context.Background()
	seedBusiness(t, repo, restaurant("biz-1", "user_1", "Pho Corner"))

	count, err := repo.IncrementViewCount(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.IncrementViewCount(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestBusinessRepoUpdateRating(t *testing.T) {
	repo := NewBusinessRepo(newTestData(t), log.DefaultLogger)
	ctx := context.Background()
	seedBusiness(t, repo, restaurant("biz-1", "user_1", "Pho Corner"))

	require.NoError(t, repo.UpdateRating(ctx, "biz-1", 4.5))

	got, err := repo.GetBusiness(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Rating)
}
