// internal/genai/client.go
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"shop-assistant/internal/common/config"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/validation"
	"shop-assistant/internal/models"
)

// Service is the generation-service boundary consumed by the orchestrator and
// the semantic/capability components. All calls are single-shot; retries, if
// any, belong to the caller.
type Service interface {
	ClassifyTurn(ctx context.Context, req ClassifyRequest) (*TurnClassification, error)
	RevalidateIntent(ctx context.Context, message string, intents []models.Intent) (*SemanticVerdict, error)
	InferCapabilities(ctx context.Context, message string) ([]models.CapabilityWeight, error)
	GenerateOutcome(ctx context.Context, oc models.OutcomeContext) (*Outcome, error)
}

type Client struct {
	api    *openai.Client
	config config.GenAIConfig
	logger logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		config: cfg,
		logger: log.With(map[string]interface{}{"component": "genai"}),
	}
}

func (c *Client) ClassifyTurn(ctx context.Context, req ClassifyRequest) (*TurnClassification, error) {
	prompt := buildClassificationPrompt(req)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewClassifierTimeoutError()
		}
		return nil, apperrors.NewClassifierCallFailedError(err)
	}

	payload := extractJSON(raw)
	if err := validation.ValidateJSON([]byte(payload), classificationSchema); err != nil {
		return nil, apperrors.NewClassifierParseFailedError(raw, err)
	}

	var out TurnClassification
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, apperrors.NewClassifierParseFailedError(raw, err)
	}

	c.logger.Info("turn classified", map[string]interface{}{
		"intentId":     out.IntentID,
		"intentStatus": out.IntentStatus,
		"confidence":   out.Confidence,
	})

	return &out, nil
}

// RevalidateIntent asks the generation service to re-confirm the classifier's
// chosen intent against the full catalog. Any parse failure fails closed: the
// caller keeps the original classification and does not fall back.
func (c *Client) RevalidateIntent(ctx context.Context, message string, intents []models.Intent) (*SemanticVerdict, error) {
	prompt := buildRevalidationPrompt(message, intents)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, apperrors.NewSemanticCheckFailedError(err)
	}

	payload := extractJSON(raw)
	if err := validation.ValidateJSON([]byte(payload), semanticVerdictSchema); err != nil {
		return nil, apperrors.NewSemanticCheckFailedError(err)
	}

	var out SemanticVerdict
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, apperrors.NewSemanticCheckFailedError(err)
	}

	return &out, nil
}

// InferCapabilities derives capability weights strictly from the user's
// literal words. Callers degrade to a static default table on error.
func (c *Client) InferCapabilities(ctx context.Context, message string) ([]models.CapabilityWeight, error) {
	prompt := fmt.Sprintf(`Extract 3 to 5 product capabilities the shopper is asking for, strictly
from their own words below. Do not invent capabilities from any catalog.
Weights are importance in [0,1].

Return only a JSON object of this shape:
{"capabilities": [{"key": "snake_case_capability", "weight": 0.9}]}

Shopper message: %s`, message)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, apperrors.NewCapabilityInferenceFailedError(err)
	}

	payload := extractJSON(raw)
	if err := validation.ValidateJSON([]byte(payload), capabilitySchema); err != nil {
		return nil, apperrors.NewCapabilityInferenceFailedError(err)
	}

	var parsed capabilityInference
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, apperrors.NewCapabilityInferenceFailedError(err)
	}

	weights := make([]models.CapabilityWeight, 0, len(parsed.Capabilities))
	for _, cap := range parsed.Capabilities {
		if cap.Key == "" {
			continue
		}
		weights = append(weights, models.CapabilityWeight{
			CapabilityKey: cap.Key,
			Weight:        cap.Weight,
		})
	}
	return weights, nil
}

// GenerateOutcome renders the inferred use case as images. Best-effort: the
// orchestrator degrades to the concurrently fetched products on failure.
func (c *Client) GenerateOutcome(ctx context.Context, oc models.OutcomeContext) (*Outcome, error) {
	desc := oc.DesiredOutcome
	if desc == "" {
		desc = oc.UseCase
	}
	if desc == "" {
		return nil, apperrors.NewOutcomeRenderFailedError(fmt.Errorf("empty outcome context"))
	}

	prompt := desc
	if oc.VisualPreferences != "" {
		prompt += ", " + oc.VisualPreferences
	}

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.config.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, apperrors.NewOutcomeRenderFailedError(err)
	}

	images := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.URL != "" {
			images = append(images, d.URL)
		}
	}
	if len(images) == 0 {
		return nil, apperrors.NewOutcomeRenderFailedError(fmt.Errorf("no images returned"))
	}

	return &Outcome{Description: desc, Images: images}, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: float32(c.config.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildClassificationPrompt(req ClassifyRequest) string {
	var sb strings.Builder
	sb.WriteString("You are the intent classifier for a shopping assistant.\n")
	sb.WriteString("Catalog intents:\n")
	for _, it := range req.Intents {
		fmt.Fprintf(&sb, "- %s: %s - %s\n", it.IntentID, it.Name, it.Description)
	}
	sb.WriteString(`
Classify the shopper's latest message against the catalog. intent_status is
"matched" when a catalog intent fits, "unknown_capability" when the need is
real but no catalog intent covers it, "unclear" otherwise. Set
ready_for_visualization true only when the use case is concrete enough to
render. Set post_checkout true only when the shopper is wrapping up after an
order. Provide a short acknowledgement, and a clarifying_question when more
information is needed.

Return only a JSON object with keys: intent_id, intent_status, confidence,
missing_info, acknowledgement, clarifying_question, explanation,
ready_for_visualization, post_checkout, use_case, desired_outcome,
constraints, visual_preferences.

`)
	if len(req.History) > 0 {
		sb.WriteString("Recent history:\n")
		start := len(req.History) - 6
		if start < 0 {
			start = 0
		}
		for _, m := range req.History[start:] {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
	}
	fmt.Fprintf(&sb, "\nShopper message: %s\n", req.Message)
	return sb.String()
}

func buildRevalidationPrompt(message string, intents []models.Intent) string {
	var sb strings.Builder
	sb.WriteString("Re-check which catalog intent actually matches the shopper's need.\n")
	sb.WriteString("Catalog intents:\n")
	for _, it := range intents {
		fmt.Fprintf(&sb, "- %s: %s - %s\n", it.IntentID, it.Name, it.Description)
	}
	sb.WriteString(`
Return only a JSON object:
{"inferred_need": "...", "best_matching_intent_id": "id or null",
 "match_confidence": 0.0, "should_use_fallback": false}

should_use_fallback is true when no catalog intent covers the inferred need.

`)
	fmt.Fprintf(&sb, "Shopper message: %s\n", message)
	return sb.String()
}

// extractJSON pulls the outermost JSON object out of a completion that may be
// wrapped in markdown fences or prose.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}
