// internal/assistant/semantic/validator.go

// Package semantic re-checks that a classifier's chosen catalog intent
// actually matches the shopper's words. Tier 1 is a static keyword pre-check;
// tier 2 escalates to the generation service and can correct the intent in
// place or route the turn to the capability fallback.
package semantic

import (
	"context"
	"regexp"
	"strings"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/genai"
	"shop-assistant/internal/models"
)

// DynamicIntentPrefix marks a synthetic intent that routes to the capability
// fallback matcher instead of the fit-score tables.
const DynamicIntentPrefix = "dynamic_"

// tier2Floor is the confidence below which escalation is not worth the call.
const tier2Floor = 0.5

// Resolution is the validator's verdict for one turn.
type Resolution struct {
	IntentID     string
	Confidence   float64
	Corrected    bool
	UseFallback  bool
	InferredNeed string
}

// IsDynamic reports whether an intent id is a synthetic fallback marker.
func IsDynamic(intentID string) bool {
	return strings.HasPrefix(intentID, DynamicIntentPrefix)
}

// expectedKeywords maps catalog intents to words at least one of which should
// appear in a message genuinely about that intent.
var expectedKeywords = map[string][]string{
	"travel_vlogging":    {"travel", "vlog", "trip", "journey", "abroad", "vacation"},
	"studio_portrait":    {"portrait", "studio", "headshot", "model", "lighting"},
	"wildlife_telephoto": {"wildlife", "bird", "safari", "animal", "zoom", "telephoto"},
	"action_sports":      {"action", "sport", "surf", "ski", "bike", "gopro", "helmet"},
	"streaming_setup":    {"stream", "twitch", "webcam", "broadcast", "obs"},
	"family_memories":    {"family", "kids", "baby", "holiday", "memories", "birthday"},
	"night_astro":        {"night", "stars", "astro", "milky way", "low light", "dark"},
	"macro_closeup":      {"macro", "close-up", "closeup", "insect", "flower", "tiny"},
	"accessory_only":     {"accessory", "strap", "bag", "tripod", "filter", "card", "battery"},
}

type Validator struct {
	genai  genai.Service
	logger logger.Logger
}

func NewValidator(svc genai.Service, log logger.Logger) *Validator {
	return &Validator{
		genai:  svc,
		logger: log.With(map[string]interface{}{"component": "semantic-validator"}),
	}
}

// Validate confirms or corrects the classified intent. It never fails: any
// escalation error keeps the original classification (fail closed).
func (v *Validator) Validate(ctx context.Context, intentID, message string, conf float64, intents []models.Intent) Resolution {
	keep := Resolution{IntentID: intentID, Confidence: conf}

	if intentID == "" || IsDynamic(intentID) {
		return keep
	}
	if quickSemanticCheck(intentID, message) {
		return keep
	}
	if conf < tier2Floor {
		return keep
	}

	verdict, err := v.genai.RevalidateIntent(ctx, message, intents)
	if err != nil {
		v.logger.Warn("semantic escalation failed, keeping original intent", map[string]interface{}{
			"intentId": intentID,
			"error":    err.Error(),
		})
		return keep
	}

	if verdict.ShouldUseFallback {
		v.logger.Info("semantic mismatch, routing to capability fallback", map[string]interface{}{
			"intentId":     intentID,
			"inferredNeed": verdict.InferredNeed,
		})
		return Resolution{
			IntentID:     DynamicIntentPrefix + Slug(verdict.InferredNeed),
			Confidence:   verdict.MatchConfidence,
			UseFallback:  true,
			InferredNeed: verdict.InferredNeed,
		}
	}

	if verdict.MatchedIntentID != "" && verdict.MatchedIntentID != intentID {
		v.logger.Info("semantic correction applied", map[string]interface{}{
			"from": intentID,
			"to":   verdict.MatchedIntentID,
		})
		return Resolution{
			IntentID:     verdict.MatchedIntentID,
			Confidence:   verdict.MatchConfidence,
			Corrected:    true,
			InferredNeed: verdict.InferredNeed,
		}
	}

	return keep
}

// quickSemanticCheck returns true iff the message contains at least one
// keyword expected for the intent. Intents without expectations pass.
func quickSemanticCheck(intentID, message string) bool {
	expected, ok := expectedKeywords[intentID]
	if !ok {
		return true
	}
	msg := strings.ToLower(message)
	for _, kw := range expected {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Slug normalizes free text into a snake_case marker suffix.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugCleaner.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
