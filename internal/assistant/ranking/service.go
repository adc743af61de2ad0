// internal/assistant/ranking/service.go

// Package ranking turns a resolved intent into a deduplicated, ordered page
// of products, falling back to capability matching when the intent's
// fit-score table has nothing to say.
package ranking

import (
	"context"
	"sort"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/models"
)

// fallbackMatcher is the capability fallback slot.
type fallbackMatcher interface {
	Match(ctx context.Context, query string, limit int) []models.Product
}

// scoreStore is the slice of the catalog store the ranker needs.
type scoreStore interface {
	FitScores(ctx context.Context, intentID string, offset, limit int) ([]models.ProductScore, error)
	HydrateProducts(ctx context.Context, ids []string) (map[string]models.ProductDetail, error)
}

// Page is one ranked result page plus its pagination marker.
type Page struct {
	Products   []models.Product
	HasNext    bool
	NextOffset int
}

type Service struct {
	store   scoreStore
	matcher fallbackMatcher
	logger  logger.Logger
}

func NewService(store scoreStore, matcher fallbackMatcher, log logger.Logger) *Service {
	return &Service{
		store:   store,
		matcher: matcher,
		logger:  log.With(map[string]interface{}{"component": "ranking"}),
	}
}

// Rank fetches the fit-score page for the intent, deduplicates keeping the
// highest score per product, hydrates, and re-sorts. An empty fit-score page
// delegates to the capability matcher using the shopper's literal message.
// Query errors propagate: a broken score table must not masquerade as an
// empty catalog.
func (s *Service) Rank(ctx context.Context, intentID string, offset, limit int, userMessage string) (*Page, error) {
	// Over-fetch by one row so the next-page marker does not need a second
	// query when the catalog has exactly `limit` remaining rows.
	scores, err := s.store.FitScores(ctx, intentID, offset, limit+1)
	if err != nil {
		return nil, err
	}

	if len(scores) == 0 {
		// Pagination-bypass requests carry no message; the intent id itself is
		// the best remaining description of what the shopper wants.
		query := userMessage
		if query == "" {
			query = intentID
		}
		return s.fallback(ctx, query, limit), nil
	}

	// Dedupe keeping the highest score per product. The score table may carry
	// duplicate product rows across scoring runs.
	best := make(map[string]float64, len(scores))
	for _, sc := range scores {
		if prev, ok := best[sc.ProductID]; !ok || sc.FitScore > prev {
			best[sc.ProductID] = sc.FitScore
		}
	}

	type candidate struct {
		id    string
		score float64
	}
	candidates := make([]candidate, 0, len(best))
	for id, score := range best {
		candidates = append(candidates, candidate{id: id, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	hasNext := len(candidates) > limit
	if hasNext {
		candidates = candidates[:limit]
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.id)
	}
	details, err := s.store.HydrateProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(candidates))
	for _, c := range candidates {
		detail, ok := details[c.id]
		if !ok {
			s.logger.Warn("scored product missing from catalog, dropping", map[string]interface{}{
				"productId": c.id,
				"intentId":  intentID,
			})
			continue
		}
		products = append(products, models.NewProduct(detail, c.score, models.SourceIntent))
	}

	return &Page{
		Products:   products,
		HasNext:    hasNext,
		NextOffset: offset + limit,
	}, nil
}

// fallback ranks by inferred capabilities. Capability results never paginate:
// the weighting is ephemeral and would not reproduce on the next request.
func (s *Service) fallback(ctx context.Context, userMessage string, limit int) *Page {
	s.logger.Info("no fit scores for intent, using capability fallback", nil)
	metrics.CapabilityFallbacks.Inc()
	products := s.matcher.Match(ctx, userMessage, limit)
	return &Page{Products: products}
}
