// internal/models/conversation.go
package models

// Conversation phases. The greeting/clarification/framing/recommendation/
// commitment path is the main line; the rest are side channels entered on
// detected user signals.
const (
	PhaseGreeting        = "greeting"
	PhaseClarification   = "clarification"
	PhaseFraming         = "framing"
	PhaseRecommendation  = "recommendation"
	PhaseCommitment      = "commitment"
	PhaseCartAction      = "cart_action"
	PhaseCartSummary     = "cart_summary"
	PhaseOrderPlaced     = "order_placed"
	PhaseImageGeneration = "image_generation"
	PhasePostCheckout    = "post_checkout"
)

// Persona is one of six buyer archetypes, or empty when unknown.
type Persona string

const (
	PersonaNone                Persona = ""
	PersonaBudgetConscious     Persona = "budget_conscious"
	PersonaSpecMaximizer       Persona = "spec_maximizer"
	PersonaGiftBuyer           Persona = "gift_buyer"
	PersonaAnxiousFirstTimer   Persona = "anxious_first_timer"
	PersonaProfessionalUpgrade Persona = "professional_upgrader"
	PersonaTrendFollower       Persona = "trend_follower"
)

// AllPersonas lists the closed archetype taxonomy.
var AllPersonas = []Persona{
	PersonaBudgetConscious,
	PersonaSpecMaximizer,
	PersonaGiftBuyer,
	PersonaAnxiousFirstTimer,
	PersonaProfessionalUpgrade,
	PersonaTrendFollower,
}

// ChatMessage is one turn of history as round-tripped by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the client-held per-session state. The server is
// stateless between requests: every request carries the counters it needs and
// the response echoes the mutated copy back.
type ConversationState struct {
	SessionID             string  `json:"session_id"`
	TurnCount             int     `json:"turn_count"`
	ConversationPhase     string  `json:"conversation_phase"`
	InferredPersona       Persona `json:"inferred_persona,omitempty"`
	ClarificationAttempts int     `json:"clarification_attempts"`
	IntentID              string  `json:"intent_id,omitempty"`
	Confidence            float64 `json:"confidence"`
	IsReturningUser       bool    `json:"is_returning_user"`
}

// OutcomeContext carries the inferred goal into the image-generation
// collaborator for the duration of one request.
type OutcomeContext struct {
	UseCase           string   `json:"use_case"`
	DesiredOutcome    string   `json:"desired_outcome"`
	Constraints       []string `json:"constraints,omitempty"`
	VisualPreferences string   `json:"visual_preferences,omitempty"`
}
