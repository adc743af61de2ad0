// internal/orchestrator/cart.go
package orchestrator

import (
	"context"
	"regexp"
	"strings"

	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/models"
	"shop-assistant/internal/notify"
)

// Cart actions accepted on the request or detected from the message.
const (
	ActionAdd        = "add"
	ActionSummary    = "summary"
	ActionPlaceOrder = "place_order"
)

var (
	addSignals     = regexp.MustCompile(`(?i)\b(add (it|that|this|the)|add to (my )?cart|i'?ll take|put (it|that) in)\b`)
	summarySignals = regexp.MustCompile(`(?i)\b(my cart|view cart|cart summary|what'?s in (the|my) cart|check ?out)\b`)
	placeSignals   = regexp.MustCompile(`(?i)\b(place (the |my )?order|confirm (the |my )?order|complete (the |my )?(order|purchase))\b`)

	ordinals = []struct {
		pattern *regexp.Regexp
		index   int
	}{
		{regexp.MustCompile(`(?i)\b(first|1st)\b`), 0},
		{regexp.MustCompile(`(?i)\b(second|2nd)\b`), 1},
		{regexp.MustCompile(`(?i)\b(third|3rd)\b`), 2},
	}
)

// handleCartAction serves an explicit action carried on the request. Returns
// nil when the request carries none.
func (o *Orchestrator) handleCartAction(ctx context.Context, t *turn) *models.ChatResponse {
	switch t.req.Action {
	case ActionAdd:
		return o.addToCart(ctx, t, t.req.ProductIndex)
	case ActionSummary, "view_cart":
		return o.cartSummary(ctx, t)
	case ActionPlaceOrder, "checkout":
		return o.placeOrder(ctx, t)
	default:
		return nil
	}
}

// handleCartKeywords detects cart intent in the message itself. Evaluated
// after classification but before the clarify/recommend branch, which it
// pre-empts.
func (o *Orchestrator) handleCartKeywords(ctx context.Context, t *turn) *models.ChatResponse {
	switch {
	case placeSignals.MatchString(t.message):
		return o.placeOrder(ctx, t)
	case addSignals.MatchString(t.message) && len(t.req.LastProducts) > 0:
		idx := ordinalIndex(t.message)
		return o.addToCart(ctx, t, &idx)
	case summarySignals.MatchString(t.message):
		return o.cartSummary(ctx, t)
	default:
		return nil
	}
}

func (o *Orchestrator) addToCart(ctx context.Context, t *turn, index *int) *models.ChatResponse {
	idx := 0
	if index != nil {
		idx = *index
	}
	if idx < 0 || idx >= len(t.req.LastProducts) {
		return o.retryClarification(t, "I'm not sure which product you meant. Could you say which one to add, like \"the first one\"?")
	}
	product := t.req.LastProducts[idx]

	t.state.ConversationPhase = models.PhaseCartAction
	resp := o.baseResponse(t, models.ResponseCartAction)
	resp.Action = ActionAdd
	resp.ProductID = product.ID
	resp.VariantID = product.VariantID
	resp.ProductTitle = product.Title
	if resp.Acknowledgement == "" {
		resp.Acknowledgement = "Added " + product.Title + " to your cart."
	}

	// Accessory add-ons are best effort; a failed lookup just means no
	// suggestions on this turn.
	if o.accessoryIntent != "" {
		if page, err := o.ranker.Rank(ctx, o.accessoryIntent, 0, o.pageSize, ""); err == nil && len(page.Products) > 0 {
			resp.SuggestedAddons = page.Products
			resp.AddonMessage = "A few accessories that pair well with it:"
		}
	}
	return resp
}

// cartSummary prices the cart through the commerce platform. A platform
// failure becomes a retry prompt, never a transport error.
func (o *Orchestrator) cartSummary(ctx context.Context, t *turn) *models.ChatResponse {
	if len(t.req.CartItems) == 0 {
		return o.retryClarification(t, "Your cart is empty so far. Want me to keep looking for the right product?")
	}

	draft, err := o.commerce.CreateDraftOrder(ctx, t.req.CartItems, t.req.Address)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("commerce").Inc()
		o.logger.Warn("draft order creation failed", map[string]interface{}{
			"sessionId": t.state.SessionID,
			"error":     err.Error(),
		})
		return o.retryClarification(t, "I couldn't total your cart just now. Give it another try in a moment?")
	}

	t.state.ConversationPhase = models.PhaseCartSummary
	resp := o.baseResponse(t, models.ResponseCartSummary)
	resp.Items = t.req.CartItems
	resp.Subtotal = draft.Subtotal
	resp.Shipping = draft.Shipping
	resp.Tax = draft.Tax
	resp.Total = draft.Total
	resp.Currency = draft.Currency
	resp.DraftOrderID = draft.ID
	if resp.Acknowledgement == "" {
		resp.Acknowledgement = "Here's your cart. Say \"place my order\" when you're ready."
	}
	return resp
}

func (o *Orchestrator) placeOrder(ctx context.Context, t *turn) *models.ChatResponse {
	if t.req.DraftOrderID == "" {
		return o.retryClarification(t, "Let's review your cart first so I can total it, then I'll place the order.")
	}

	order, err := o.commerce.CompleteDraftOrder(ctx, t.req.DraftOrderID)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("commerce").Inc()
		o.logger.Warn("order placement failed", map[string]interface{}{
			"sessionId":    t.state.SessionID,
			"draftOrderId": t.req.DraftOrderID,
			"error":        err.Error(),
		})
		return o.retryClarification(t, "The order didn't go through. Nothing was charged; want to try placing it again?")
	}

	conf := notify.OrderConfirmation{
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
		Currency:    order.Currency,
	}
	if t.req.Address != nil {
		conf.Email = t.req.Address.Email
		conf.Phone = t.req.Address.Phone
	}
	o.notifier.OrderPlaced(ctx, conf)

	t.state.ConversationPhase = models.PhaseOrderPlaced
	resp := o.baseResponse(t, models.ResponseOrderPlaced)
	resp.OrderID = order.ID
	resp.OrderNumber = order.OrderNumber
	resp.Total = order.Total
	resp.Currency = order.Currency
	if resp.Acknowledgement == "" {
		resp.Acknowledgement = "Order placed! Your order number is " + order.OrderNumber + "."
	}
	return resp
}

// retryClarification converts a recoverable side-effect failure into a
// clarification turn. Does not touch the clarification budget: this is not
// an intent-ambiguity question.
func (o *Orchestrator) retryClarification(t *turn, question string) *models.ChatResponse {
	t.state.ConversationPhase = models.PhaseClarification
	resp := o.baseResponse(t, models.ResponseClarification)
	resp.ClarifyingQuestion = question
	return resp
}

func ordinalIndex(message string) int {
	lower := strings.ToLower(message)
	for _, o := range ordinals {
		if o.pattern.MatchString(lower) {
			return o.index
		}
	}
	return 0
}
