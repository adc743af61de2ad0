// internal/genai/models.go
package genai

import "shop-assistant/internal/models"

// Intent statuses reported by the classifier.
const (
	IntentStatusMatched           = "matched"
	IntentStatusUnclear           = "unclear"
	IntentStatusUnknownCapability = "unknown_capability"
)

// ClassifyRequest is one turn's classification input.
type ClassifyRequest struct {
	Message string
	History []models.ChatMessage
	State   models.ConversationState
	Intents []models.Intent
}

// TurnClassification is the structured verdict for one user turn.
type TurnClassification struct {
	IntentID              string   `json:"intent_id"`
	IntentStatus          string   `json:"intent_status"`
	Confidence            float64  `json:"confidence"`
	MissingInfo           []string `json:"missing_info,omitempty"`
	Acknowledgement       string   `json:"acknowledgement"`
	ClarifyingQuestion    string   `json:"clarifying_question,omitempty"`
	Explanation           string   `json:"explanation,omitempty"`
	ReadyForVisualization bool     `json:"ready_for_visualization"`
	PostCheckout          bool     `json:"post_checkout"`
	UseCase               string   `json:"use_case,omitempty"`
	DesiredOutcome        string   `json:"desired_outcome,omitempty"`
	Constraints           []string `json:"constraints,omitempty"`
	VisualPreferences     string   `json:"visual_preferences,omitempty"`
}

// SemanticVerdict is the tier-2 re-validation result.
type SemanticVerdict struct {
	InferredNeed      string  `json:"inferred_need"`
	MatchedIntentID   string  `json:"best_matching_intent_id"`
	MatchConfidence   float64 `json:"match_confidence"`
	ShouldUseFallback bool    `json:"should_use_fallback"`
}

// capabilityInference is the raw capability-weight payload.
type capabilityInference struct {
	Capabilities []struct {
		Key    string  `json:"key"`
		Weight float64 `json:"weight"`
	} `json:"capabilities"`
}

// Outcome is the rendered visual-outcome result.
type Outcome struct {
	Description string   `json:"description"`
	Images      []string `json:"images"`
}
