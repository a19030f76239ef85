package biz

import (
	"context"
	"testing"
	"time"

	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBusinessRepo 内存商户仓库
type fakeBusinessRepo struct {
	businesses map[string]*Business
	viewCounts map[string]int64

	lastKeywords []string
	lastLimit    int
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{
		businesses: map[string]*Business{},
		viewCounts: map[string]int64{},
	}
}

func (f *fakeBusinessRepo) ListBusinesses(ctx context.Context) ([]*Business, error) {
	var out []*Business
	for _, b := range f.businesses {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBusinessRepo) SearchBusinesses(ctx context.Context, keywords []string, limit int) ([]*Business, error) {
	f.lastKeywords = keywords
	f.lastLimit = limit
	return nil, nil
}

func (f *fakeBusinessRepo) GetBusiness(ctx context.Context, id string) (*Business, error) {
	b, ok := f.businesses[id]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (f *fakeBusinessRepo) ListByCategory(ctx context.Context, category string) ([]*Business, error) {
	var out []*Business
	for _, b := range f.businesses {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBusinessRepo) ListByOwner(ctx context.Context, ownerID string) ([]*Business, error) {
	var out []*Business
	for _, b := range f.businesses {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBusinessRepo) ListMostViewed(ctx context.Context, limit int) ([]*Business, error) {
	f.lastLimit = limit
	return nil, nil
}

func (f *fakeBusinessRepo) CreateBusiness(ctx context.Context, b *Business) error {
	f.businesses[b.ID] = b
	return nil
}

func (f *fakeBusinessRepo) SaveBusiness(ctx context.Context, b *Business) error {
	f.businesses[b.ID] = b
	return nil
}

func (f *fakeBusinessRepo) DeleteBusiness(ctx context.Context, id string) error {
	delete(f.businesses, id)
	return nil
}

func (f *fakeBusinessRepo) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	f.viewCounts[id]++
	return f.viewCounts[id], nil
}

func (f *fakeBusinessRepo) UpdateRating(ctx context.Context, id string, rating float64) error {
	if b, ok := f.businesses[id]; ok {
		b.Rating = rating
	}
	return nil
}

// fakeGeocoder 固定坐标的地理编码客户端
type fakeGeocoder struct {
	loc      *Location
	err      error
	lastAddr string
}

func (f *fakeGeocoder) Lookup(ctx context.Context, address string) (*Location, error) {
	f.lastAddr = address
	if f.err != nil {
		return nil, f.err
	}
	return f.loc, nil
}

type businessFixture struct {
	uc       *BusinessUsecase
	repo     *fakeBusinessRepo
	geocoder *fakeGeocoder
}

func newBusinessFixture() *businessFixture {
	repo := newFakeBusinessRepo()
	geocoder := &fakeGeocoder{loc: &Location{Latitude: 10.7769, Longitude: 106.7009}}
	return &businessFixture{
		uc:       NewBusinessUsecase(repo, geocoder, log.DefaultLogger),
		repo:     repo,
		geocoder: geocoder,
	}
}

func sampleBusiness() *Business {
	return &Business{
		ID:       "biz-1",
		OwnerID:  "user_1",
		Name:     "Pho Corner",
		Category: "restaurant",
		Address:  "  12 Nguyen Hue, District 1  ",
	}
}

func TestSearchBusinessesSplitsKeywords(t *testing.T) {
	f := newBusinessFixture()

	_, err := f.uc.SearchBusinesses(context.Background(), "  pho   corner ")
	require.NoError(t, err)
	assert.Equal(t, []string{"pho", "corner"}, f.repo.lastKeywords)
	assert.Equal(t, constants.SearchResultLimit, f.repo.lastLimit)
}

func TestSearchBusinessesEmptyQuery(t *testing.T) {
	f := newBusinessFixture()

	_, err := f.uc.SearchBusinesses(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidSearchQuery))
}

func TestGetBusinessIncrementsViewCount(t *testing.T) {
	f := newBusinessFixture()
	f.repo.businesses["biz-1"] = sampleBusiness()

	b, err := f.uc.GetBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ViewCount)

	b, err = f.uc.GetBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.ViewCount)
}

func TestGetBusinessNotFound(t *testing.T) {
	f := newBusinessFixture()

	_, err := f.uc.GetBusiness(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBusinessNotFound))
}

func TestCreateBusinessGeocodesAddress(t *testing.T) {
	f := newBusinessFixture()

	b, err := f.uc.CreateBusiness(context.Background(), sampleBusiness())
	require.NoError(t, err)
	// 地址先去空白再送地理编码
	assert.Equal(t, "12 Nguyen Hue, District 1", f.geocoder.lastAddr)
	require.NotNil(t, b.Location)
	assert.InDelta(t, 10.7769, b.Location.Latitude, 1e-9)
	assert.InDelta(t, 106.7009, b.Location.Longitude, 1e-9)
	assert.False(t, b.CreatedAt.IsZero())
}

func TestCreateBusinessMissingFields(t *testing.T) {
	f := newBusinessFixture()

	_, err := f.uc.CreateBusiness(context.Background(), &Business{Category: "restaurant"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidBusiness))
}

func TestCreateBusinessUnsupportedCategory(t *testing.T) {
	f := newBusinessFixture()
	b := sampleBusiness()
	b.Category = "spaceport"

	_, err := f.uc.CreateBusiness(context.Background(), b)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidBusiness))
}

func TestCreateBusinessGeocodeFailure(t *testing.T) {
	f := newBusinessFixture()
	f.geocoder.err = assert.AnError

	_, err := f.uc.CreateBusiness(context.Background(), sampleBusiness())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGeocodeFailed))
	assert.Empty(t, f.repo.businesses)
}

func TestUpdateBusinessPreservesCreatedAt(t *testing.T) {
	f := newBusinessFixture()
	created := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	existing := sampleBusiness()
	existing.CreatedAt = created
	f.repo.businesses["biz-1"] = existing

	updated, err := f.uc.UpdateBusiness(context.Background(), "biz-1", &Business{
		Name:     "Pho Corner 2",
		Category: "restaurant",
	})
	require.NoError(t, err)
	assert.Equal(t, "biz-1", updated.ID)
	assert.Equal(t, created, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created))
}

func TestUpdateBusinessNotFound(t *testing.T) {
	f := newBusinessFixture()

	_, err := f.uc.UpdateBusiness(context.Background(), "missing", &Business{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBusinessNotFound))
}

func TestDeleteBusinessNotFound(t *testing.T) {
	f := newBusinessFixture()

	err := f.uc.DeleteBusiness(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBusinessNotFound))
}

func TestRateBusinessFirstRating(t *testing.T) {
	f := newBusinessFixture()
	f.repo.businesses["biz-1"] = sampleBusiness()

	rating, err := f.uc.RateBusiness(context.Background(), "biz-1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rating)
}

func TestRateBusinessAveragesWithCurrent(t *testing.T) {
	f := newBusinessFixture()
	b := sampleBusiness()
	b.Rating = 4
	f.repo.businesses["biz-1"] = b

	// 保留上游的简单平均算法
	rating, err := f.uc.RateBusiness(context.Background(), "biz-1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3.0, rating)
	assert.Equal(t, 3.0, f.repo.businesses["biz-1"].Rating)
}

func TestRateBusinessOutOfRange(t *testing.T) {
	f := newBusinessFixture()
	f.repo.businesses["biz-1"] = sampleBusiness()

	for _, v := range []float64{0, 0.5, 5.5, -1} {
		_, err := f.uc.RateBusiness(context.Background(), "biz-1", v)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRating))
	}
}

func TestListMostViewedDefaultLimit(t *testing.T) {
	f := newBusinessFixture()

	_, err := f.uc.ListMostViewed(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultMostViewedLimit, f.repo.lastLimit)
}
