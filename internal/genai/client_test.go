// internal/genai/client_test.go
package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/common/config"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

// completionServer serves a canned chat-completion whose content is the given
// string, mimicking the generation service.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(serverURL string) *Client {
	return NewClient(config.GenAIConfig{
		APIKey:  "test-key",
		BaseURL: serverURL + "/v1",
		Model:   "gpt-4o-mini",
	}, logger.NewNoOpLogger())
}

func TestClassifyTurn_ParsesStructuredVerdict(t *testing.T) {
	content := "Here is the classification:\n```json\n" + `{
		"intent_id": "travel_vlogging",
		"intent_status": "matched",
		"confidence": 0.88,
		"acknowledgement": "Travel content, nice.",
		"ready_for_visualization": true,
		"post_checkout": false
	}` + "\n```"
	server := completionServer(t, content)
	defer server.Close()

	client := newTestClient(server.URL)
	cls, err := client.ClassifyTurn(context.Background(), ClassifyRequest{
		Message: "camera for my travel channel",
		Intents: []models.Intent{{IntentID: "travel_vlogging", Name: "Travel Vlogging"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "travel_vlogging", cls.IntentID)
	assert.Equal(t, IntentStatusMatched, cls.IntentStatus)
	assert.Equal(t, 0.88, cls.Confidence)
	assert.True(t, cls.ReadyForVisualization)
}

func TestClassifyTurn_MalformedPayloadIsParseFailure(t *testing.T) {
	server := completionServer(t, "sorry, I can't help with that")
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ClassifyTurn(context.Background(), ClassifyRequest{Message: "hi"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeClassifierParseFailed, apperrors.CodeOf(err))
}

func TestClassifyTurn_SchemaViolationIsParseFailure(t *testing.T) {
	// Valid JSON but missing the required fields.
	server := completionServer(t, `{"intent_id": "travel_vlogging"}`)
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ClassifyTurn(context.Background(), ClassifyRequest{Message: "hi"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeClassifierParseFailed, apperrors.CodeOf(err))
}

func TestClassifyTurn_CallFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ClassifyTurn(context.Background(), ClassifyRequest{Message: "hi"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeClassifierCallFailed, apperrors.CodeOf(err))
}

func TestRevalidateIntent(t *testing.T) {
	server := completionServer(t, `{
		"inferred_need": "aerial drone filming",
		"best_matching_intent_id": "",
		"match_confidence": 0.2,
		"should_use_fallback": true
	}`)
	defer server.Close()

	client := newTestClient(server.URL)
	verdict, err := client.RevalidateIntent(context.Background(), "film my house from above",
		[]models.Intent{{IntentID: "travel_vlogging"}})
	require.NoError(t, err)

	assert.True(t, verdict.ShouldUseFallback)
	assert.Equal(t, "aerial drone filming", verdict.InferredNeed)
}

func TestInferCapabilities(t *testing.T) {
	server := completionServer(t, `{"capabilities": [
		{"key": "low_light", "weight": 1.0},
		{"key": "", "weight": 0.5},
		{"key": "autofocus", "weight": 0.8}
	]}`)
	defer server.Close()

	client := newTestClient(server.URL)
	weights, err := client.InferCapabilities(context.Background(), "fast and good in the dark")
	require.NoError(t, err)

	require.Len(t, weights, 2, "entries without a key are dropped")
	assert.Equal(t, "low_light", weights[0].CapabilityKey)
}

func TestGenerateOutcome_EmptyContextRejected(t *testing.T) {
	client := newTestClient("http://localhost:0")

	_, err := client.GenerateOutcome(context.Background(), models.OutcomeContext{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeOutcomeRenderFailed, apperrors.CodeOf(err))
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"noise before {\"a\":{\"b\":2}} noise after", `{"a":{"b":2}}`},
		{"no json here", "no json here"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractJSON(tc.in))
	}
}
