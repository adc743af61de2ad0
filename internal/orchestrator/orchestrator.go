// internal/orchestrator/orchestrator.go

// Package orchestrator drives one conversation turn: persona, intent
// resolution, the clarification/recommendation policy, and the side channels
// around the cart. Exactly one response type leaves per request.
package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"shop-assistant/internal/assistant/capability"
	"shop-assistant/internal/assistant/confidence"
	"shop-assistant/internal/assistant/persona"
	"shop-assistant/internal/assistant/ranking"
	"shop-assistant/internal/assistant/recovery"
	"shop-assistant/internal/assistant/semantic"
	"shop-assistant/internal/assistant/strategy"
	"shop-assistant/internal/common/config"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/commerce"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/genai"
	"shop-assistant/internal/models"
	"shop-assistant/internal/notify"
)

// Dependency slots. Interfaces here so turn tests can run against stubs.
type (
	productRanker interface {
		Rank(ctx context.Context, intentID string, offset, limit int, userMessage string) (*ranking.Page, error)
	}
	capabilityMatcher interface {
		Match(ctx context.Context, query string, limit int) []models.Product
	}
	recoverer interface {
		Recover(ctx context.Context, intentID, userMessage string, p models.Persona) *recovery.Plan
	}
	intentValidator interface {
		Validate(ctx context.Context, intentID, message string, conf float64, intents []models.Intent) semantic.Resolution
	}
	intentCatalog interface {
		Intents(ctx context.Context) ([]models.Intent, error)
	}
	orderPlatform interface {
		CreateDraftOrder(ctx context.Context, items []models.CartItem, address *models.Address) (*commerce.DraftOrder, error)
		CompleteDraftOrder(ctx context.Context, draftOrderID string) (*commerce.Order, error)
	}
	orderNotifier interface {
		OrderPlaced(ctx context.Context, conf notify.OrderConfirmation)
	}
)

var _ capabilityMatcher = (*capability.Matcher)(nil)

type Orchestrator struct {
	genai     genai.Service
	validator intentValidator
	ranker    productRanker
	matcher   capabilityMatcher
	recovery  recoverer
	catalog   intentCatalog
	commerce  orderPlatform
	notifier  orderNotifier

	pageSize        int
	maxAttempts     int
	accessoryIntent string

	chain  *strategy.Chain[*turn, models.ChatResponse]
	logger logger.Logger
}

// turn is the working state of one request as it moves through the policy
// chain.
type turn struct {
	req        *models.ChatRequest
	state      models.ConversationState
	message    string
	cls        *genai.TurnClassification
	intentID   string
	confidence float64
	dynamic    bool
}

func New(
	svc genai.Service,
	validator intentValidator,
	ranker productRanker,
	matcher capabilityMatcher,
	rec recoverer,
	catalog intentCatalog,
	commerce orderPlatform,
	notifier orderNotifier,
	assistantCfg config.AssistantConfig,
	catalogCfg config.CatalogConfig,
	log logger.Logger,
) *Orchestrator {
	o := &Orchestrator{
		genai:           svc,
		validator:       validator,
		ranker:          ranker,
		matcher:         matcher,
		recovery:        rec,
		catalog:         catalog,
		commerce:        commerce,
		notifier:        notifier,
		pageSize:        assistantCfg.PageSize,
		maxAttempts:     assistantCfg.MaxClarificationAttempts,
		accessoryIntent: catalogCfg.AccessoryIntentID,
		logger:          log.With(map[string]interface{}{"component": "orchestrator"}),
	}
	if o.pageSize <= 0 {
		o.pageSize = 3
	}
	if o.maxAttempts <= 0 {
		o.maxAttempts = 3
	}

	// The chain IS the policy: earlier steps pre-empt later ones.
	o.chain = strategy.NewChain(
		strategy.Step[*turn, models.ChatResponse]{Name: "capability_fallback", Run: o.stepCapabilityFallback},
		strategy.Step[*turn, models.ChatResponse]{Name: "attempt_switch", Run: o.stepAttemptSwitch},
		strategy.Step[*turn, models.ChatResponse]{Name: "outcome_generation", Run: o.stepOutcomeGeneration},
		strategy.Step[*turn, models.ChatResponse]{Name: "clarify", Run: o.stepClarify},
	)
	return o
}

// HandleTurn runs the full per-turn transition policy. The only errors that
// escape are request-fatal classifier and primary ranking failures; the
// transport layer turns those into a 500.
func (o *Orchestrator) HandleTurn(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	t := &turn{
		req:     req,
		state:   req.State,
		message: req.CurrentMessage,
	}
	if t.state.SessionID == "" {
		t.state.SessionID = req.SessionID
	}
	if t.state.SessionID == "" {
		t.state.SessionID = uuid.NewString()
	}
	t.state.TurnCount++
	t.state.InferredPersona = persona.Infer(t.message, req.ChatHistory, t.state.InferredPersona)

	// Explicit cart actions carried on the request pre-empt everything.
	if resp := o.handleCartAction(ctx, t); resp != nil {
		return resp, nil
	}

	// Pagination bypass: the caller already knows the intent.
	if req.IntentID != "" {
		t.intentID = req.IntentID
		t.confidence = 1.0
		t.state.IntentID = req.IntentID
		t.state.Confidence = 1.0
		return o.recommend(ctx, t, req.Offset)
	}

	cls, err := o.genai.ClassifyTurn(ctx, genai.ClassifyRequest{
		Message: t.message,
		History: req.ChatHistory,
		State:   t.state,
		Intents: o.intents(ctx),
	})
	if err != nil {
		return nil, err
	}
	t.cls = cls
	t.intentID = cls.IntentID
	t.confidence = cls.Confidence

	if cls.PostCheckout {
		return o.postCheckout(t), nil
	}

	// Keyword side channels ride on the classified turn but pre-empt the
	// clarification/recommendation branch.
	if resp := o.handleCartKeywords(ctx, t); resp != nil {
		return resp, nil
	}

	if cls.IntentStatus == genai.IntentStatusUnknownCapability && cls.ReadyForVisualization {
		if products := o.matcher.Match(ctx, t.message, o.pageSize); len(products) > 0 {
			return o.shapeRecommendation(t, products, nil), nil
		}
	}

	if t.confidence >= 0.5 && t.intentID != "" {
		res := o.validator.Validate(ctx, t.intentID, t.message, t.confidence, o.intents(ctx))
		t.intentID = res.IntentID
		t.confidence = res.Confidence
		t.dynamic = res.UseFallback || semantic.IsDynamic(res.IntentID)
	}
	t.state.IntentID = t.intentID
	t.state.Confidence = t.confidence

	resp, step, err := o.chain.TryInOrder(ctx, t)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		o.logger.Debug("turn resolved by policy step", map[string]interface{}{
			"step":      step,
			"sessionId": t.state.SessionID,
		})
		return resp, nil
	}
	return o.recommend(ctx, t, 0)
}

// stepCapabilityFallback claims turns whose intent is a synthetic dynamic
// marker. It runs before the attempt-count switch: a known capability gap
// beats a clarification-budget heuristic.
func (o *Orchestrator) stepCapabilityFallback(ctx context.Context, t *turn) (*models.ChatResponse, error) {
	if !t.dynamic {
		return nil, nil
	}
	products := o.matcher.Match(ctx, t.message, o.pageSize)
	if len(products) == 0 {
		return o.recoverResponse(ctx, t), nil
	}
	return o.shapeRecommendation(t, products, nil), nil
}

// stepAttemptSwitch forces a recommendation once the clarification budget is
// spent. Never loop indefinitely on questions.
func (o *Orchestrator) stepAttemptSwitch(ctx context.Context, t *turn) (*models.ChatResponse, error) {
	level := confidence.Assess(t.confidence).Level
	if t.state.ClarificationAttempts < o.maxAttempts || level == confidence.LevelHigh {
		return nil, nil
	}
	metrics.StrategySwitches.Inc()
	t.state.ClarificationAttempts = 0
	o.logger.Info("clarification budget spent, forcing recommendation", map[string]interface{}{
		"sessionId": t.state.SessionID,
		"intentId":  t.intentID,
	})
	return o.recommend(ctx, t, 0)
}

// stepOutcomeGeneration races the image render against the product pre-fetch
// when the classifier says the goal is visualizable. Image failure degrades
// to the products; product failure degrades to the image path's cache being
// empty. Neither failure ends the turn.
func (o *Orchestrator) stepOutcomeGeneration(ctx context.Context, t *turn) (*models.ChatResponse, error) {
	if t.cls == nil || !confidence.ReadyForOutcome(t.confidence, t.cls.ReadyForVisualization) {
		return nil, nil
	}

	var (
		wg      sync.WaitGroup
		outcome *genai.Outcome
		page    *ranking.Page
		rankErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		oc := models.OutcomeContext{
			UseCase:           t.cls.UseCase,
			DesiredOutcome:    t.cls.DesiredOutcome,
			Constraints:       t.cls.Constraints,
			VisualPreferences: t.cls.VisualPreferences,
		}
		var err error
		outcome, err = o.genai.GenerateOutcome(ctx, oc)
		if err != nil {
			metrics.ExternalCallFailures.WithLabelValues("genai-image").Inc()
			o.logger.Warn("outcome render failed, degrading to products", map[string]interface{}{
				"error": err.Error(),
			})
			outcome = nil
		}
	}()
	go func() {
		defer wg.Done()
		page, rankErr = o.ranker.Rank(ctx, t.intentID, 0, o.pageSize, t.message)
	}()
	wg.Wait()

	if outcome != nil && len(outcome.Images) > 0 {
		t.state.ConversationPhase = models.PhaseImageGeneration
		t.state.ClarificationAttempts = 0
		resp := o.baseResponse(t, models.ResponseImageGeneration)
		resp.OutcomeDescription = outcome.Description
		resp.Images = outcome.Images
		if rankErr == nil && page != nil {
			resp.CachedProducts = page.Products
		}
		return resp, nil
	}

	if rankErr != nil {
		return nil, rankErr
	}
	if page == nil || len(page.Products) == 0 {
		return o.recoverResponse(ctx, t), nil
	}
	return o.shapeRecommendation(t, page.Products, nextOffset(page)), nil
}

// stepClarify asks one more question when the policy allows it.
func (o *Orchestrator) stepClarify(ctx context.Context, t *turn) (*models.ChatResponse, error) {
	question := ""
	if t.cls != nil {
		question = t.cls.ClarifyingQuestion
	}
	if !confidence.ShouldClarify(t.confidence, question) {
		return nil, nil
	}

	t.state.ClarificationAttempts++
	t.state.ConversationPhase = models.PhaseClarification

	resp := o.baseResponse(t, models.ResponseClarification)
	resp.ClarifyingQuestion = question
	if t.cls != nil {
		resp.MissingInfo = t.cls.MissingInfo
	}
	if resp.ClarifyingQuestion == "" {
		resp.ClarifyingQuestion = "Could you tell me a bit more about what you're looking for?"
	}
	count := t.state.ClarificationAttempts
	resp.ClarificationCount = &count
	return resp, nil
}

// recommend is the default branch and the shared tail of the bypass and
// attempt-switch paths.
func (o *Orchestrator) recommend(ctx context.Context, t *turn, offset int) (*models.ChatResponse, error) {
	page, err := o.ranker.Rank(ctx, t.intentID, offset, o.pageSize, t.message)
	if err != nil {
		return nil, err
	}
	if len(page.Products) == 0 {
		return o.recoverResponse(ctx, t), nil
	}
	return o.shapeRecommendation(t, page.Products, nextOffset(page)), nil
}

func (o *Orchestrator) shapeRecommendation(t *turn, products []models.Product, next *int) *models.ChatResponse {
	t.state.ConversationPhase = models.PhaseRecommendation
	t.state.ClarificationAttempts = 0

	resp := o.baseResponse(t, models.ResponseRecommendation)
	resp.PrimaryRecommendation = &products[0]
	if len(products) > 1 {
		resp.SecondaryRecommendations = products[1:]
	}
	resp.DecisionFrame = decisionFrame(t.state.InferredPersona)
	resp.NextPageOffset = next
	return resp
}

// recoverResponse shapes a no-product turn on the recommendation contract.
func (o *Orchestrator) recoverResponse(ctx context.Context, t *turn) *models.ChatResponse {
	plan := o.recovery.Recover(ctx, t.intentID, t.message, t.state.InferredPersona)

	t.state.ConversationPhase = models.PhaseRecommendation
	resp := o.baseResponse(t, models.ResponseRecommendation)
	resp.Acknowledgement = plan.Message
	resp.Alternatives = plan.Alternatives
	resp.ExitOptions = plan.ExitOptions
	return resp
}

func (o *Orchestrator) postCheckout(t *turn) *models.ChatResponse {
	t.state.ConversationPhase = models.PhasePostCheckout
	resp := o.baseResponse(t, models.ResponsePostCheckout)
	if resp.Acknowledgement == "" {
		resp.Acknowledgement = "Thanks again for your order! If anything comes up, just start a new chat and we'll pick it up from there."
	}
	return resp
}

func (o *Orchestrator) baseResponse(t *turn, responseType string) *models.ChatResponse {
	resp := &models.ChatResponse{
		ResponseType:    responseType,
		State:           t.state,
		IntentID:        t.intentID,
		Confidence:      t.confidence,
		InferredPersona: t.state.InferredPersona,
	}
	if t.cls != nil {
		resp.Acknowledgement = t.cls.Acknowledgement
		resp.Explanation = t.cls.Explanation
	}
	return resp
}

// intents returns the cached catalog, degrading to nil when the cache cannot
// load. Classification and validation both tolerate an absent catalog.
func (o *Orchestrator) intents(ctx context.Context) []models.Intent {
	intents, err := o.catalog.Intents(ctx)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("catalog").Inc()
		o.logger.Warn("intent catalog unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return intents
}

func nextOffset(page *ranking.Page) *int {
	if page == nil || !page.HasNext {
		return nil
	}
	n := page.NextOffset
	return &n
}

// decisionFrame phrases the tradeoff the way the inferred persona weighs it.
func decisionFrame(p models.Persona) string {
	switch p {
	case models.PersonaBudgetConscious:
		return "Here's the best value first, with what you'd gain by spending more."
	case models.PersonaSpecMaximizer:
		return "Ranked by capability; the top pick leads on the specs that matter for this."
	case models.PersonaGiftBuyer:
		return "These are safe picks to gift, easiest to use first."
	case models.PersonaAnxiousFirstTimer:
		return "All of these are beginner-friendly; you can't really go wrong with the first one."
	case models.PersonaProfessionalUpgrade:
		return "Ordered by how much of an upgrade each is over typical current gear."
	case models.PersonaTrendFollower:
		return "The top pick is what most people are buying for this right now."
	default:
		return "Ordered by how well each fits what you described."
	}
}
