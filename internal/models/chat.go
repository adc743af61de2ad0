// internal/models/chat.go
package models

// Response types, the tag of the response union.
const (
	ResponseClarification   = "clarification"
	ResponseRecommendation  = "recommendation"
	ResponseCartAction      = "cart_action"
	ResponseCartSummary     = "cart_summary"
	ResponseOrderPlaced     = "order_placed"
	ResponseImageGeneration = "image_generation"
	ResponsePostCheckout    = "post_checkout"
)

// CartItem is a cart line as round-tripped through the payload.
type CartItem struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Address is a shipping address for draft-order creation.
type Address struct {
	Name    string `json:"name,omitempty"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	Region  string `json:"region,omitempty"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// ChatRequest is the single-endpoint request contract. All conversation state
// is client-held; the server never stores sessions.
type ChatRequest struct {
	SessionID      string            `json:"session_id"`
	CurrentMessage string            `json:"current_message"`
	ChatHistory    []ChatMessage     `json:"chat_history,omitempty"`
	State          ConversationState `json:"conversation_state"`

	// Pagination bypass: when set, classification is skipped entirely.
	IntentID string `json:"intent_id,omitempty"`
	Offset   int    `json:"offset,omitempty"`

	// Cart side channel.
	Action       string     `json:"action,omitempty"`
	ProductIndex *int       `json:"product_index,omitempty"`
	CartItems    []CartItem `json:"cart_items,omitempty"`
	Address      *Address   `json:"address,omitempty"`
	DraftOrderID string     `json:"draft_order_id,omitempty"`
	LastProducts []Product  `json:"last_products,omitempty"`
}

// ChatResponse is the tagged union on ResponseType. Exactly one response type
// is returned per request; unrelated fields stay zero and are omitted.
type ChatResponse struct {
	ResponseType string            `json:"response_type"`
	State        ConversationState `json:"conversation_state"`

	IntentID        string  `json:"intent_id,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`
	Acknowledgement string  `json:"acknowledgement,omitempty"`
	Explanation     string  `json:"explanation,omitempty"`
	InferredPersona Persona `json:"inferred_persona,omitempty"`

	// clarification
	MissingInfo        []string `json:"missing_info,omitempty"`
	ClarifyingQuestion string   `json:"clarifying_question,omitempty"`
	ClarificationCount *int     `json:"clarification_count,omitempty"`

	// recommendation
	PrimaryRecommendation    *Product  `json:"primary_recommendation,omitempty"`
	SecondaryRecommendations []Product `json:"secondary_recommendations,omitempty"`
	DecisionFrame            string    `json:"decision_frame,omitempty"`
	NextPageOffset           *int      `json:"next_page_offset"`

	// no-product recovery rides on the recommendation/clarification shapes
	Alternatives []Product `json:"alternatives,omitempty"`
	ExitOptions  []string  `json:"exit_options,omitempty"`

	// cart_action
	Action          string    `json:"action,omitempty"`
	ProductID       string    `json:"product_id,omitempty"`
	VariantID       string    `json:"variant_id,omitempty"`
	ProductTitle    string    `json:"product_title,omitempty"`
	SuggestedAddons []Product `json:"suggested_addons,omitempty"`
	AddonMessage    string    `json:"addon_message,omitempty"`

	// cart_summary
	Items        []CartItem `json:"items,omitempty"`
	Subtotal     float64    `json:"subtotal,omitempty"`
	Shipping     float64    `json:"shipping,omitempty"`
	Tax          float64    `json:"tax,omitempty"`
	Total        float64    `json:"total,omitempty"`
	Currency     string     `json:"currency,omitempty"`
	DraftOrderID string     `json:"draft_order_id,omitempty"`

	// order_placed
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`

	// image_generation
	OutcomeDescription string    `json:"outcome_description,omitempty"`
	Images             []string  `json:"images,omitempty"`
	CachedProducts     []Product `json:"cached_products,omitempty"`
}
