// internal/assistant/capability/matcher.go

// Package capability ranks products by a weighted capability vector inferred
// from the shopper's literal words. It is the fallback for every path where
// the catalog's fit-score tables cannot answer: zero score rows, a semantic
// mismatch, or an unknown-capability classification.
package capability

import (
	"context"
	"sort"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/genai"
	"shop-assistant/internal/models"
)

const (
	minWeights = 3
	maxWeights = 5
)

// scoreReader is the slice of the catalog store the matcher needs.
type scoreReader interface {
	CapabilityScores(ctx context.Context, keys []string) ([]models.CapabilityScore, error)
	HydrateProducts(ctx context.Context, ids []string) (map[string]models.ProductDetail, error)
}

type Matcher struct {
	genai  genai.Service
	store  scoreReader
	logger logger.Logger
}

func NewMatcher(svc genai.Service, store scoreReader, log logger.Logger) *Matcher {
	return &Matcher{
		genai:  svc,
		store:  store,
		logger: log.With(map[string]interface{}{"component": "capability-matcher"}),
	}
}

// Match ranks products by weighted-average capability score. It returns an
// empty list, never an error: callers must treat empty as "no match", not as
// failure.
func (m *Matcher) Match(ctx context.Context, query string, limit int) []models.Product {
	weights := m.InferWeights(ctx, query)
	if len(weights) == 0 {
		return nil
	}

	keys := make([]string, 0, len(weights))
	weightByKey := make(map[string]float64, len(weights))
	for _, w := range weights {
		keys = append(keys, w.CapabilityKey)
		weightByKey[w.CapabilityKey] = w.Weight
	}

	rows, err := m.store.CapabilityScores(ctx, keys)
	if err != nil {
		m.logger.Warn("capability score query failed, returning empty", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	// Weighted average, not sum: products matching more capabilities must not
	// be unfairly favored over a tight match.
	type accum struct {
		sum   float64
		count int
	}
	byProduct := make(map[string]*accum)
	for _, row := range rows {
		w, ok := weightByKey[row.CapabilityKey]
		if !ok {
			continue
		}
		a := byProduct[row.ProductID]
		if a == nil {
			a = &accum{}
			byProduct[row.ProductID] = a
		}
		a.sum += row.Value * w
		a.count++
	}

	type candidate struct {
		id    string
		score float64
	}
	candidates := make([]candidate, 0, len(byProduct))
	for id, a := range byProduct {
		candidates = append(candidates, candidate{id: id, score: a.sum / float64(a.count)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.id)
	}

	details, err := m.store.HydrateProducts(ctx, ids)
	if err != nil {
		m.logger.Warn("capability hydration failed, returning empty", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	out := make([]models.Product, 0, len(candidates))
	for _, c := range candidates {
		detail, ok := details[c.id]
		if !ok {
			// Missing from hydration: dropped silently, not an error.
			continue
		}
		out = append(out, models.NewProduct(detail, c.score, models.SourceCapability))
	}
	return out
}

// InferWeights derives 3-5 capability weights via the generation service,
// degrading to the static keyword table when the call errors or comes back
// empty.
func (m *Matcher) InferWeights(ctx context.Context, query string) []models.CapabilityWeight {
	weights, err := m.genai.InferCapabilities(ctx, query)
	if err != nil || len(weights) == 0 {
		if err != nil {
			m.logger.Warn("capability inference failed, using default table", map[string]interface{}{
				"error": err.Error(),
			})
		}
		weights = defaultWeights(query)
	}

	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Weight != weights[j].Weight {
			return weights[i].Weight > weights[j].Weight
		}
		return weights[i].CapabilityKey < weights[j].CapabilityKey
	})
	if len(weights) > maxWeights {
		weights = weights[:maxWeights]
	}
	if len(weights) < minWeights {
		weights = padWeights(weights)
	}
	return weights
}

func padWeights(weights []models.CapabilityWeight) []models.CapabilityWeight {
	have := make(map[string]bool, len(weights))
	for _, w := range weights {
		have[w.CapabilityKey] = true
	}
	for _, filler := range genericWeights {
		if len(weights) >= minWeights {
			break
		}
		if !have[filler.CapabilityKey] {
			weights = append(weights, filler)
		}
	}
	return weights
}
