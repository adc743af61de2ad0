// internal/assistant/recovery/recovery.go

// Package recovery shapes the turn when ranking comes back empty. It decides
// why the search failed, drafts a persona-tempered decline, rounds up
// best-effort alternatives, and always leaves the shopper a next step.
package recovery

import (
	"context"
	"regexp"
	"strings"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

// Failure kinds.
const (
	FailureSpecificProduct = "specific_product"
	FailureIntentMismatch  = "intent_mismatch"
	FailureOutOfStock      = "out_of_stock"
)

const (
	maxAlternatives = 3
	dynamicPrefix   = "dynamic_"
)

// Exit options offered on every recovery turn.
var exitOptions = []string{
	"Browse our most popular gear",
	"Talk to a product specialist",
	"Start a fresh search",
}

// specificProductPatterns detect a shopper naming a concrete product: a
// brand-plus-model token, a quoted name, or "the <Name> <model>" phrasing.
var specificProductPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(canon|nikon|sony|fujifilm|panasonic|olympus|gopro|dji|leica)\b\s*\S*\d`),
	regexp.MustCompile(`"[^"]{3,}"`),
	regexp.MustCompile(`(?i)\bthe\s+[A-Z][a-zA-Z]*\s*[A-Z0-9]+[-\s]?\d+\b`),
	regexp.MustCompile(`(?i)\b(model|mark)\s+(i{1,3}v?|v|\d+)\b`),
}

// altStore is the slice of the catalog store recovery reads from.
type altStore interface {
	FitScores(ctx context.Context, intentID string, offset, limit int) ([]models.ProductScore, error)
	HydrateProducts(ctx context.Context, ids []string) (map[string]models.ProductDetail, error)
}

// popularSearcher is the browse-popular escape hatch.
type popularSearcher interface {
	Popular(ctx context.Context, limit int) []models.ProductDetail
}

// Plan is one recovery turn: never conversation-ending, always at least one
// actionable next step.
type Plan struct {
	Kind         string
	Message      string
	Alternatives []models.Product
	ExitOptions  []string
}

type Service struct {
	store           altStore
	search          popularSearcher
	accessoryIntent string
	logger          logger.Logger
}

func NewService(store altStore, search popularSearcher, accessoryIntent string, log logger.Logger) *Service {
	return &Service{
		store:           store,
		search:          search,
		accessoryIntent: accessoryIntent,
		logger:          log.With(map[string]interface{}{"component": "recovery"}),
	}
}

// Recover builds the recovery plan for an empty ranking result.
func (s *Service) Recover(ctx context.Context, intentID, userMessage string, persona models.Persona) *Plan {
	kind := classify(intentID, userMessage)
	plan := &Plan{
		Kind:        kind,
		Message:     declineMessage(kind, persona),
		ExitOptions: exitOptions,
	}

	plan.Alternatives = s.alternatives(ctx, intentID)
	if len(plan.Alternatives) == 0 {
		plan.Alternatives = s.accessories(ctx)
	}
	if len(plan.Alternatives) == 0 {
		plan.Alternatives = s.popular(ctx)
	}

	s.logger.Info("recovery plan built", map[string]interface{}{
		"kind":         kind,
		"intentId":     intentID,
		"alternatives": len(plan.Alternatives),
	})
	return plan
}

// classify decides why the search came up empty. A named product beats the
// other signals; a dynamic intent marker means the catalog never had a fit in
// the first place.
func classify(intentID, userMessage string) string {
	for _, p := range specificProductPatterns {
		if p.MatchString(userMessage) {
			return FailureSpecificProduct
		}
	}
	if intentID == "" || strings.HasPrefix(intentID, dynamicPrefix) {
		return FailureIntentMismatch
	}
	return FailureOutOfStock
}

// alternatives fetches up to 3 products for the intent at any fit score.
func (s *Service) alternatives(ctx context.Context, intentID string) []models.Product {
	if intentID == "" || strings.HasPrefix(intentID, dynamicPrefix) {
		return nil
	}
	return s.hydrateScores(ctx, intentID)
}

// accessories pulls from the reserved accessory intent.
func (s *Service) accessories(ctx context.Context) []models.Product {
	return s.hydrateScores(ctx, s.accessoryIntent)
}

func (s *Service) hydrateScores(ctx context.Context, intentID string) []models.Product {
	scores, err := s.store.FitScores(ctx, intentID, 0, maxAlternatives)
	if err != nil || len(scores) == 0 {
		return nil
	}

	ids := make([]string, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.ProductID)
	}
	details, err := s.store.HydrateProducts(ctx, ids)
	if err != nil {
		return nil
	}

	out := make([]models.Product, 0, len(scores))
	seen := make(map[string]bool, len(scores))
	for _, sc := range scores {
		if seen[sc.ProductID] {
			continue
		}
		seen[sc.ProductID] = true
		detail, ok := details[sc.ProductID]
		if !ok {
			continue
		}
		out = append(out, models.NewProduct(detail, sc.FitScore, models.SourceIntent))
	}
	return out
}

func (s *Service) popular(ctx context.Context) []models.Product {
	details := s.search.Popular(ctx, maxAlternatives)
	out := make([]models.Product, 0, len(details))
	for _, d := range details {
		out = append(out, models.NewProduct(d, 0, models.SourceIntent))
	}
	return out
}

// declineMessage picks persona-appropriate phrasing. The anxious first-timer
// hears reassurance before the bad news; everyone else gets the direct form.
func declineMessage(kind string, persona models.Persona) string {
	switch persona {
	case models.PersonaAnxiousFirstTimer:
		switch kind {
		case FailureSpecificProduct:
			return "No worries at all, that exact model isn't something I can get you right now, but that's completely fine. There are some great options that do the same job, and I'm happy to walk you through them."
		case FailureIntentMismatch:
			return "That's a totally reasonable thing to look for. I don't have a perfect match in the catalog yet, but don't worry, here are a few things that come close, and we can figure it out together."
		default:
			return "You haven't done anything wrong, we're just out of matches for that right now. Here are a few nearby options, and I can help you compare them."
		}
	case models.PersonaBudgetConscious:
		switch kind {
		case FailureSpecificProduct:
			return "That specific model isn't available, but honestly some of these alternatives give you the same results for less."
		default:
			return "Nothing matched that exactly, but here are some well-priced options worth a look."
		}
	case models.PersonaGiftBuyer:
		return "I couldn't find an exact match, but any of these would make a great gift."
	default:
		switch kind {
		case FailureSpecificProduct:
			return "That exact product isn't available right now. Here are the closest alternatives."
		case FailureIntentMismatch:
			return "I don't have a direct match for that in the catalog, but these come close."
		default:
			return "We're out of matches for that at the moment. Here's what's nearby."
		}
	}
}
