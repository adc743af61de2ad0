// internal/assistant/ranking/service_test.go
package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

type stubStore struct {
	scores    []models.ProductScore
	scoresErr error
	details   map[string]models.ProductDetail
	detailsErr error

	gotIntent string
	gotOffset int
	gotLimit  int
}

func (s *stubStore) FitScores(ctx context.Context, intentID string, offset, limit int) ([]models.ProductScore, error) {
	s.gotIntent, s.gotOffset, s.gotLimit = intentID, offset, limit
	return s.scores, s.scoresErr
}

func (s *stubStore) HydrateProducts(ctx context.Context, ids []string) (map[string]models.ProductDetail, error) {
	return s.details, s.detailsErr
}

type stubMatcher struct {
	products []models.Product
	called   bool
	gotQuery string
}

func (m *stubMatcher) Match(ctx context.Context, query string, limit int) []models.Product {
	m.called = true
	m.gotQuery = query
	return m.products
}

func detail(id string) models.ProductDetail {
	return models.ProductDetail{ID: id, VariantID: id + "-v1", Title: "Product " + id, Price: 100}
}

func TestRank_DedupeKeepsHighestAndReorders(t *testing.T) {
	// Five rows for three distinct products; p2 appears twice from separate
	// scoring runs. The higher of its two scores must win and ordering must
	// reflect the post-dedupe scores.
	store := &stubStore{
		scores: []models.ProductScore{
			{ProductID: "p1", FitScore: 0.95},
			{ProductID: "p2", FitScore: 0.90},
			{ProductID: "p3", FitScore: 0.85},
			{ProductID: "p2", FitScore: 0.97},
			{ProductID: "p3", FitScore: 0.40},
		},
		details: map[string]models.ProductDetail{
			"p1": detail("p1"), "p2": detail("p2"), "p3": detail("p3"),
		},
	}
	svc := NewService(store, &stubMatcher{}, logger.NewNoOpLogger())

	page, err := svc.Rank(context.Background(), "travel_vlogging", 0, 3, "")
	require.NoError(t, err)

	require.Len(t, page.Products, 3)
	assert.Equal(t, "p2", page.Products[0].ID)
	assert.InDelta(t, 0.97, page.Products[0].FitScore, 1e-9)
	assert.Equal(t, "p1", page.Products[1].ID)
	assert.Equal(t, "p3", page.Products[2].ID)
	assert.InDelta(t, 0.85, page.Products[2].FitScore, 1e-9)
	for _, p := range page.Products {
		assert.Equal(t, models.SourceIntent, p.Source)
	}
}

func TestRank_EmptyScoresDelegatesToCapabilityFallback(t *testing.T) {
	matcher := &stubMatcher{products: []models.Product{
		{ID: "p9", Title: "Fallback", FitScore: 0.7, Source: models.SourceCapability},
	}}
	svc := NewService(&stubStore{}, matcher, logger.NewNoOpLogger())

	page, err := svc.Rank(context.Background(), "studio_portrait", 0, 3, "something for dim rooms")
	require.NoError(t, err)

	assert.True(t, matcher.called)
	assert.Equal(t, "something for dim rooms", matcher.gotQuery)
	require.Len(t, page.Products, 1)
	assert.Equal(t, models.SourceCapability, page.Products[0].Source)
	assert.False(t, page.HasNext, "capability results never paginate")
}

func TestRank_QueryErrorPropagates(t *testing.T) {
	store := &stubStore{scoresErr: errors.New("relation does not exist")}
	matcher := &stubMatcher{}
	svc := NewService(store, matcher, logger.NewNoOpLogger())

	_, err := svc.Rank(context.Background(), "travel_vlogging", 0, 3, "msg")
	require.Error(t, err)
	assert.False(t, matcher.called, "a broken score table must not look like an empty catalog")
}

func TestRank_HasNextWhenMoreRowsExist(t *testing.T) {
	store := &stubStore{
		scores: []models.ProductScore{
			{ProductID: "p1", FitScore: 0.9},
			{ProductID: "p2", FitScore: 0.8},
			{ProductID: "p3", FitScore: 0.7},
			{ProductID: "p4", FitScore: 0.6},
		},
		details: map[string]models.ProductDetail{
			"p1": detail("p1"), "p2": detail("p2"), "p3": detail("p3"), "p4": detail("p4"),
		},
	}
	svc := NewService(store, &stubMatcher{}, logger.NewNoOpLogger())

	page, err := svc.Rank(context.Background(), "travel_vlogging", 0, 3, "")
	require.NoError(t, err)

	assert.Len(t, page.Products, 3)
	assert.True(t, page.HasNext)
	assert.Equal(t, 3, page.NextOffset)
	assert.Equal(t, 4, store.gotLimit, "over-fetches one row for the next-page marker")
}

func TestRank_NoNextOnFinalPartialPage(t *testing.T) {
	store := &stubStore{
		scores: []models.ProductScore{
			{ProductID: "p1", FitScore: 0.9},
			{ProductID: "p2", FitScore: 0.8},
		},
		details: map[string]models.ProductDetail{"p1": detail("p1"), "p2": detail("p2")},
	}
	svc := NewService(store, &stubMatcher{}, logger.NewNoOpLogger())

	page, err := svc.Rank(context.Background(), "travel_vlogging", 3, 3, "")
	require.NoError(t, err)

	assert.Len(t, page.Products, 2)
	assert.False(t, page.HasNext)
	assert.Equal(t, 3, store.gotOffset)
}

func TestRank_HydrationMissDropsRow(t *testing.T) {
	store := &stubStore{
		scores: []models.ProductScore{
			{ProductID: "p1", FitScore: 0.9},
			{ProductID: "gone", FitScore: 0.8},
		},
		details: map[string]models.ProductDetail{"p1": detail("p1")},
	}
	svc := NewService(store, &stubMatcher{}, logger.NewNoOpLogger())

	page, err := svc.Rank(context.Background(), "travel_vlogging", 0, 3, "")
	require.NoError(t, err)

	require.Len(t, page.Products, 1)
	assert.Equal(t, "p1", page.Products[0].ID)
}
