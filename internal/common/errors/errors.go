// Package errors provides standardized error handling for the conversation core.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Classifier / generation service errors
	ErrCodeClassifierParseFailed  ErrorCode = "CLASSIFIER_PARSE_FAILED"
	ErrCodeClassifierCallFailed   ErrorCode = "CLASSIFIER_CALL_FAILED"
	ErrCodeClassifierTimeout      ErrorCode = "CLASSIFIER_TIMEOUT"
	ErrCodeCapabilityInferFailed  ErrorCode = "CAPABILITY_INFERENCE_FAILED"
	ErrCodeSemanticCheckFailed    ErrorCode = "SEMANTIC_CHECK_FAILED"
	ErrCodeOutcomeRenderFailed    ErrorCode = "OUTCOME_RENDER_FAILED"

	// Catalog store errors
	ErrCodeRankingQueryFailed  ErrorCode = "RANKING_QUERY_FAILED"
	ErrCodeCatalogQueryTimeout ErrorCode = "CATALOG_QUERY_TIMEOUT"
	ErrCodeIntentNotFound      ErrorCode = "INTENT_NOT_FOUND"
	ErrCodeHydrationMiss       ErrorCode = "HYDRATION_MISS"

	// Commerce platform errors
	ErrCodeDraftOrderFailed     ErrorCode = "DRAFT_ORDER_FAILED"
	ErrCodeOrderPlacementFailed ErrorCode = "ORDER_PLACEMENT_FAILED"

	// Request errors
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRequestFatal reports whether err must surface as a transport-level failure.
// Only a malformed classifier payload or a primary ranking query error qualify;
// every other failure degrades to a narrower result.
func IsRequestFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeClassifierParseFailed, ErrCodeClassifierCallFailed,
		ErrCodeClassifierTimeout, ErrCodeRankingQueryFailed:
		return true
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewClassifierParseFailedError marks a malformed classifier payload. Request-fatal.
func NewClassifierParseFailedError(raw string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierParseFailed,
		Message:   "Failed to parse generation service output",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"rawPayload": raw},
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierCallFailedError creates a retryable generation-service error.
func NewClassifierCallFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierCallFailed,
		Message:   "Generation service call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassifierTimeoutError creates a retryable timeout error.
func NewClassifierTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifierTimeout,
		Message:   "Generation service timeout",
		Details:   "call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCapabilityInferenceFailedError creates an error that callers must degrade
// to the static default capability table, never block the turn.
func NewCapabilityInferenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCapabilityInferFailed,
		Message:   "Capability inference failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSemanticCheckFailedError marks a tier-2 validation failure; callers fail
// closed and keep the original classification.
func NewSemanticCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSemanticCheckFailed,
		Message:   "Semantic re-validation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOutcomeRenderFailedError marks a visual-outcome generation failure; the
// turn degrades to the concurrently fetched products.
func NewOutcomeRenderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOutcomeRenderFailed,
		Message:   "Outcome image generation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRankingQueryFailedError creates a request-fatal primary fit-score query error.
func NewRankingQueryFailedError(intentID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRankingQueryFailed,
		Message:   "Fit-score query failed",
		Details:   fmt.Sprintf("intentId: %s, error: %s", intentID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogQueryTimeoutError creates a retryable catalog timeout error.
func NewCatalogQueryTimeoutError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogQueryTimeout,
		Message:   "Catalog query timeout",
		Details:   fmt.Sprintf("queryKind: %s", kind),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentNotFoundError creates a non-retryable unknown-intent error.
func NewIntentNotFoundError(intentID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentNotFound,
		Message:   "Intent not present in catalog",
		Details:   fmt.Sprintf("intentId: %s", intentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftOrderFailedError creates an error the orchestrator converts into a
// clarification response asking the user to retry.
func NewDraftOrderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftOrderFailed,
		Message:   "Draft order creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderPlacementFailedError creates an error the orchestrator converts into
// a clarification response asking the user to retry.
func NewOrderPlacementFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrderPlacementFailed,
		Message:   "Order placement failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable bad-request error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid chat request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable checks if an error carries a retryable code.
func IsRetryable(err error) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CLASSIFIER") || strings.Contains(codeStr, "CAPABILITY") ||
		strings.Contains(codeStr, "SEMANTIC") || strings.Contains(codeStr, "OUTCOME"):
		return "GENAI"
	case strings.Contains(codeStr, "RANKING") || strings.Contains(codeStr, "CATALOG") ||
		strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "HYDRATION"):
		return "CATALOG"
	case strings.Contains(codeStr, "ORDER"):
		return "COMMERCE"
	case strings.Contains(codeStr, "REQUEST"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
