// internal/assistant/semantic/validator_test.go
package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/genai"
	"shop-assistant/internal/models"
)

// stubGenAI satisfies genai.Service for validator tests.
type stubGenAI struct {
	verdict *genai.SemanticVerdict
	err     error
	called  bool
}

func (s *stubGenAI) ClassifyTurn(ctx context.Context, req genai.ClassifyRequest) (*genai.TurnClassification, error) {
	return nil, errors.New("not used")
}

func (s *stubGenAI) RevalidateIntent(ctx context.Context, message string, intents []models.Intent) (*genai.SemanticVerdict, error) {
	s.called = true
	return s.verdict, s.err
}

func (s *stubGenAI) InferCapabilities(ctx context.Context, message string) ([]models.CapabilityWeight, error) {
	return nil, errors.New("not used")
}

func (s *stubGenAI) GenerateOutcome(ctx context.Context, oc models.OutcomeContext) (*genai.Outcome, error) {
	return nil, errors.New("not used")
}

func TestValidate_Tier1PassSkipsEscalation(t *testing.T) {
	stub := &stubGenAI{}
	v := NewValidator(stub, logger.NewNoOpLogger())

	res := v.Validate(context.Background(), "travel_vlogging", "I need a camera for my travel vlog", 0.8, nil)

	assert.Equal(t, "travel_vlogging", res.IntentID)
	assert.Equal(t, 0.8, res.Confidence)
	assert.False(t, res.UseFallback)
	assert.False(t, stub.called, "tier 2 must not run when tier 1 passes")
}

func TestValidate_LowConfidenceSkipsEscalation(t *testing.T) {
	stub := &stubGenAI{}
	v := NewValidator(stub, logger.NewNoOpLogger())

	res := v.Validate(context.Background(), "travel_vlogging", "something for my aquarium", 0.45, nil)

	assert.Equal(t, "travel_vlogging", res.IntentID)
	assert.False(t, stub.called)
}

func TestValidate_FallbackVerdictProducesDynamicIntent(t *testing.T) {
	stub := &stubGenAI{verdict: &genai.SemanticVerdict{
		InferredNeed:      "underwater photography",
		ShouldUseFallback: true,
		MatchConfidence:   0.4,
	}}
	v := NewValidator(stub, logger.NewNoOpLogger())

	res := v.Validate(context.Background(), "travel_vlogging", "I need something for diving photos", 0.75, nil)

	assert.True(t, stub.called)
	assert.True(t, res.UseFallback)
	assert.Equal(t, "dynamic_underwater_photography", res.IntentID)
	assert.True(t, IsDynamic(res.IntentID))
}

func TestValidate_CorrectionRewritesIntent(t *testing.T) {
	stub := &stubGenAI{verdict: &genai.SemanticVerdict{
		InferredNeed:    "night sky photography",
		MatchedIntentID: "night_astro",
		MatchConfidence: 0.82,
	}}
	v := NewValidator(stub, logger.NewNoOpLogger())

	res := v.Validate(context.Background(), "travel_vlogging", "I want to photograph the aurora", 0.7, nil)

	assert.True(t, res.Corrected)
	assert.Equal(t, "night_astro", res.IntentID)
	assert.Equal(t, 0.82, res.Confidence)
}

func TestValidate_EscalationErrorFailsClosed(t *testing.T) {
	stub := &stubGenAI{err: errors.New("boom")}
	v := NewValidator(stub, logger.NewNoOpLogger())

	res := v.Validate(context.Background(), "travel_vlogging", "I want to photograph the aurora", 0.7, nil)

	assert.Equal(t, "travel_vlogging", res.IntentID)
	assert.Equal(t, 0.7, res.Confidence)
	assert.False(t, res.UseFallback, "parse failures must not trigger fallback")
}

func TestValidate_DynamicIntentPassesThrough(t *testing.T) {
	stub := &stubGenAI{}
	v := NewValidator(stub, logger.NewNoOpLogger())

	res := v.Validate(context.Background(), "dynamic_underwater_photography", "diving photos", 0.9, nil)

	assert.Equal(t, "dynamic_underwater_photography", res.IntentID)
	assert.False(t, stub.called)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "underwater_photography", Slug("Underwater Photography"))
	assert.Equal(t, "4k_60fps_video", Slug("  4K/60fps video! "))
	assert.Equal(t, "", Slug("!!!"))
}
