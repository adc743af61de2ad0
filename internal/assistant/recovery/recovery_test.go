// internal/assistant/recovery/recovery_test.go
package recovery

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
	scoresByIntent map[string][]models.ProductScore
	scoresErr      error
	details        map[string]models.ProductDetail
}

func (s *stubStore) FitScores(ctx context.Context, intentID string, offset, limit int) ([]models.ProductScore, error) {
	if s.scoresErr != nil {
		return nil, s.scoresErr
	}
	return s.scoresByIntent[intentID], nil
}

func (s *stubStore) HydrateProducts(ctx context.Context, ids []string) (map[string]models.ProductDetail, error) {
	return s.details, nil
}

type stubSearch struct {
	popular []models.ProductDetail
	called  bool
}

func (s *stubSearch) Popular(ctx context.Context, limit int) []models.ProductDetail {
	s.called = true
	return s.popular
}

func detail(id string) models.ProductDetail {
	return models.ProductDetail{ID: id, VariantID: id + "-v1", Title: "Product " + id, Price: 50}
}

func newService(store *stubStore, search *stubSearch) *Service {
	return NewService(store, search, "accessory_only", logger.NewNoOpLogger())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		intentID string
		message  string
		want     string
	}{
		{"named brand model", "travel_vlogging", "do you have the Canon R5?", FailureSpecificProduct},
		{"quoted product name", "travel_vlogging", `I want the "Alpha Whisper Pro" please`, FailureSpecificProduct},
		{"mark numbering", "studio_portrait", "looking for the mark iv", FailureSpecificProduct},
		{"dynamic intent marker", "dynamic_underwater_drone_filming", "something for underwater drone shots", FailureIntentMismatch},
		{"empty intent", "", "hmm not sure", FailureIntentMismatch},
		{"known intent no rows", "wildlife_telephoto", "long lens for birds", FailureOutOfStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.intentID, tc.message))
		})
	}
}

func TestRecover_AlternativesFromIntentAnyScore(t *testing.T) {
	store := &stubStore{
		scoresByIntent: map[string][]models.ProductScore{
			"wildlife_telephoto": {
				{ProductID: "p1", FitScore: 0.3},
				{ProductID: "p2", FitScore: 0.1},
			},
		},
		details: map[string]models.ProductDetail{"p1": detail("p1"), "p2": detail("p2")},
	}
	svc := newService(store, &stubSearch{})

	plan := svc.Recover(context.Background(), "wildlife_telephoto", "long lens for birds", models.PersonaNone)

	assert.Equal(t, FailureOutOfStock, plan.Kind)
	assert.Len(t, plan.Alternatives, 2, "low fit scores are still offered as alternatives")
	assert.Len(t, plan.ExitOptions, 3)
	assert.NotEmpty(t, plan.Message)
}

func TestRecover_DynamicIntentFallsToAccessories(t *testing.T) {
	store := &stubStore{
		scoresByIntent: map[string][]models.ProductScore{
			"accessory_only": {{ProductID: "strap", FitScore: 0.9}},
		},
		details: map[string]models.ProductDetail{"strap": detail("strap")},
	}
	svc := newService(store, &stubSearch{})

	plan := svc.Recover(context.Background(), "dynamic_underwater_filming", "something waterproof", models.PersonaNone)

	assert.Equal(t, FailureIntentMismatch, plan.Kind)
	require.Len(t, plan.Alternatives, 1)
	assert.Equal(t, "strap", plan.Alternatives[0].ID)
}

func TestRecover_PopularIsLastResort(t *testing.T) {
	search := &stubSearch{popular: []models.ProductDetail{detail("hot1"), detail("hot2")}}
	svc := newService(&stubStore{}, search)

	plan := svc.Recover(context.Background(), "night_astro", "stars", models.PersonaNone)

	assert.True(t, search.called)
	assert.Len(t, plan.Alternatives, 2)
}

func TestRecover_StoreErrorStillActionable(t *testing.T) {
	// Even with every source failing, the plan keeps its exit options. The
	// turn must never read as conversation-ending.
	svc := newService(&stubStore{scoresErr: errors.New("connection refused")}, &stubSearch{})

	plan := svc.Recover(context.Background(), "night_astro", "stars", models.PersonaNone)

	assert.Empty(t, plan.Alternatives)
	assert.Len(t, plan.ExitOptions, 3)
	assert.NotEmpty(t, plan.Message)
}

func TestDeclineMessage_PersonaTempered(t *testing.T) {
	anxious := declineMessage(FailureSpecificProduct, models.PersonaAnxiousFirstTimer)
	direct := declineMessage(FailureSpecificProduct, models.PersonaSpecMaximizer)

	assert.NotEqual(t, anxious, direct)
	assert.Contains(t, anxious, "No worries", "anxious phrasing leads with reassurance")
}
