// internal/assistant/capability/matcher_test.go
package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/genai"
	"shop-assistant/internal/models"
)

// ==========================
// Test Doubles
// ==========================

type stubGenAI struct {
	weights []models.CapabilityWeight
	err     error
}

func (s *stubGenAI) ClassifyTurn(ctx context.Context, req genai.ClassifyRequest) (*genai.TurnClassification, error) {
	return nil, errors.New("not used")
}

func (s *stubGenAI) RevalidateIntent(ctx context.Context, message string, intents []models.Intent) (*genai.SemanticVerdict, error) {
	return nil, errors.New("not used")
}

func (s *stubGenAI) InferCapabilities(ctx context.Context, message string) ([]models.CapabilityWeight, error) {
	return s.weights, s.err
}

func (s *stubGenAI) GenerateOutcome(ctx context.Context, oc models.OutcomeContext) (*genai.Outcome, error) {
	return nil, errors.New("not used")
}

type stubStore struct {
	scores     []models.CapabilityScore
	scoresErr  error
	details    map[string]models.ProductDetail
	detailsErr error
	queriedKeys []string
}

func (s *stubStore) CapabilityScores(ctx context.Context, keys []string) ([]models.CapabilityScore, error) {
	s.queriedKeys = keys
	return s.scores, s.scoresErr
}

func (s *stubStore) HydrateProducts(ctx context.Context, ids []string) (map[string]models.ProductDetail, error) {
	return s.details, s.detailsErr
}

func detail(id string) models.ProductDetail {
	return models.ProductDetail{ID: id, VariantID: id + "-v1", Title: "Product " + id, Price: 100}
}

// ==========================
// Weight Inference Tests
// ==========================

func TestInferWeights_UsesInferredVector(t *testing.T) {
	ai := &stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
		{CapabilityKey: "autofocus", Weight: 0.8},
		{CapabilityKey: "portability", Weight: 0.6},
	}}
	m := NewMatcher(ai, &stubStore{}, logger.NewNoOpLogger())

	weights := m.InferWeights(context.Background(), "dark concerts")

	require.Len(t, weights, 3)
	assert.Equal(t, "low_light", weights[0].CapabilityKey)
}

func TestInferWeights_ErrorFallsBackToDefaultTable(t *testing.T) {
	ai := &stubGenAI{err: errors.New("service down")}
	m := NewMatcher(ai, &stubStore{}, logger.NewNoOpLogger())

	weights := m.InferWeights(context.Background(), "something for dark night travel vlogs")

	require.NotEmpty(t, weights)
	keys := make(map[string]bool)
	for _, w := range weights {
		keys[w.CapabilityKey] = true
	}
	assert.True(t, keys["low_light"])
	assert.True(t, keys["portability"])
	assert.True(t, keys["video_quality"])
}

func TestInferWeights_ClampedToFive(t *testing.T) {
	many := make([]models.CapabilityWeight, 0, 8)
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		many = append(many, models.CapabilityWeight{CapabilityKey: k, Weight: 0.5})
	}
	m := NewMatcher(&stubGenAI{weights: many}, &stubStore{}, logger.NewNoOpLogger())

	weights := m.InferWeights(context.Background(), "anything")
	assert.Len(t, weights, 5)
}

func TestInferWeights_PaddedToThree(t *testing.T) {
	m := NewMatcher(&stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
	}}, &stubStore{}, logger.NewNoOpLogger())

	weights := m.InferWeights(context.Background(), "dark")
	assert.GreaterOrEqual(t, len(weights), 3)
}

// ==========================
// Matching Tests
// ==========================

func TestMatch_WeightedAverageOrdering(t *testing.T) {
	ai := &stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
		{CapabilityKey: "autofocus", Weight: 0.8},
		{CapabilityKey: "portability", Weight: 0.4},
	}}
	store := &stubStore{
		scores: []models.CapabilityScore{
			// p1: matches both strong keys -> (0.9*1.0 + 0.8*0.8)/2 = 0.77
			{ProductID: "p1", CapabilityKey: "low_light", Value: 0.9},
			{ProductID: "p1", CapabilityKey: "autofocus", Value: 0.8},
			// p2: one perfect match -> (1.0*1.0)/1 = 1.0, wins on average
			{ProductID: "p2", CapabilityKey: "low_light", Value: 1.0},
			// p3: three mediocre matches -> sum is high, average is not
			{ProductID: "p3", CapabilityKey: "low_light", Value: 0.5},
			{ProductID: "p3", CapabilityKey: "autofocus", Value: 0.5},
			{ProductID: "p3", CapabilityKey: "portability", Value: 0.5},
		},
		details: map[string]models.ProductDetail{
			"p1": detail("p1"), "p2": detail("p2"), "p3": detail("p3"),
		},
	}
	m := NewMatcher(ai, store, logger.NewNoOpLogger())

	got := m.Match(context.Background(), "dark fast compact", 3)

	require.Len(t, got, 3)
	assert.Equal(t, "p2", got[0].ID, "average must beat accumulated sum")
	assert.Equal(t, "p1", got[1].ID)
	assert.Equal(t, "p3", got[2].ID)
	for _, p := range got {
		assert.Equal(t, models.SourceCapability, p.Source)
		assert.GreaterOrEqual(t, p.FitScore, 0.0)
		assert.LessOrEqual(t, p.FitScore, 1.0, "weighted average is bounded by max value")
	}
}

func TestMatch_ScenarioTwoProductsTwoKeys(t *testing.T) {
	// Capability inference yields [{low_light,1.0},{autofocus,0.8}]; two
	// products match both keys and rank by weighted average.
	ai := &stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
		{CapabilityKey: "autofocus", Weight: 0.8},
		{CapabilityKey: "value", Weight: 0.2},
	}}
	store := &stubStore{
		scores: []models.CapabilityScore{
			{ProductID: "cam-a", CapabilityKey: "low_light", Value: 0.9},
			{ProductID: "cam-a", CapabilityKey: "autofocus", Value: 0.9},
			{ProductID: "cam-b", CapabilityKey: "low_light", Value: 0.6},
			{ProductID: "cam-b", CapabilityKey: "autofocus", Value: 0.6},
		},
		details: map[string]models.ProductDetail{"cam-a": detail("cam-a"), "cam-b": detail("cam-b")},
	}
	m := NewMatcher(ai, store, logger.NewNoOpLogger())

	got := m.Match(context.Background(), "low light autofocus", 3)

	require.Len(t, got, 2)
	assert.Equal(t, "cam-a", got[0].ID)
	assert.Equal(t, "cam-b", got[1].ID)
	assert.InDelta(t, (0.9*1.0+0.9*0.8)/2, got[0].FitScore, 1e-9)
	assert.Equal(t, models.SourceCapability, got[0].Source)
	assert.Equal(t, models.SourceCapability, got[1].Source)
}

func TestMatch_NoRowsReturnsEmptyNotError(t *testing.T) {
	ai := &stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
		{CapabilityKey: "autofocus", Weight: 0.8},
		{CapabilityKey: "value", Weight: 0.2},
	}}
	m := NewMatcher(ai, &stubStore{}, logger.NewNoOpLogger())

	got := m.Match(context.Background(), "anything", 3)
	assert.Empty(t, got)
}

func TestMatch_StoreErrorDegradesToEmpty(t *testing.T) {
	ai := &stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
		{CapabilityKey: "autofocus", Weight: 0.8},
		{CapabilityKey: "value", Weight: 0.2},
	}}
	store := &stubStore{scoresErr: errors.New("connection refused")}
	m := NewMatcher(ai, store, logger.NewNoOpLogger())

	got := m.Match(context.Background(), "anything", 3)
	assert.Empty(t, got)
}

func TestMatch_HydrationMissDroppedSilently(t *testing.T) {
	ai := &stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
		{CapabilityKey: "autofocus", Weight: 0.8},
		{CapabilityKey: "value", Weight: 0.2},
	}}
	store := &stubStore{
		scores: []models.CapabilityScore{
			{ProductID: "p1", CapabilityKey: "low_light", Value: 0.9},
			{ProductID: "ghost", CapabilityKey: "low_light", Value: 1.0},
		},
		details: map[string]models.ProductDetail{"p1": detail("p1")},
	}
	m := NewMatcher(ai, store, logger.NewNoOpLogger())

	got := m.Match(context.Background(), "dark", 3)

	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}

func TestMatch_RespectsLimit(t *testing.T) {
	ai := &stubGenAI{weights: []models.CapabilityWeight{
		{CapabilityKey: "low_light", Weight: 1.0},
		{CapabilityKey: "autofocus", Weight: 0.8},
		{CapabilityKey: "value", Weight: 0.2},
	}}
	scores := []models.CapabilityScore{}
	details := map[string]models.ProductDetail{}
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		scores = append(scores, models.CapabilityScore{ProductID: id, CapabilityKey: "low_light", Value: 0.5})
		details[id] = detail(id)
	}
	m := NewMatcher(ai, &stubStore{scores: scores, details: details}, logger.NewNoOpLogger())

	got := m.Match(context.Background(), "dark", 2)
	assert.Len(t, got, 2)
}
