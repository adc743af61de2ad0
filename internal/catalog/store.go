// internal/catalog/store.go
package catalog

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

// Store reads the catalog's intent, score and capability tables. All tables
// are read-only to this core.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "catalog"}),
	}
}

func (s *Store) ListIntents(ctx context.Context) ([]models.Intent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent_id, name, description
		FROM intents
		ORDER BY intent_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []models.Intent
	for rows.Next() {
		var it models.Intent
		if err := rows.Scan(&it.IntentID, &it.Name, &it.Description); err != nil {
			return nil, err
		}
		intents = append(intents, it)
	}
	return intents, rows.Err()
}

// FitScores returns precomputed fit-score rows for an intent ordered by
// fit_score desc within [offset, offset+limit). The catalog may emit
// duplicate product_id rows; deduplication is the ranking service's job.
func (s *Store) FitScores(ctx context.Context, intentID string, offset, limit int) ([]models.ProductScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, fit_score, COALESCE(score_breakdown, '')
		FROM product_intent_scores
		WHERE intent_id = $1
		ORDER BY fit_score DESC
		OFFSET $2 LIMIT $3`, intentID, offset, limit)
	if err != nil {
		return nil, apperrors.NewRankingQueryFailedError(intentID, err)
	}
	defer rows.Close()

	var scores []models.ProductScore
	for rows.Next() {
		var sc models.ProductScore
		if err := rows.Scan(&sc.ProductID, &sc.FitScore, &sc.ScoreBreakdown); err != nil {
			return nil, apperrors.NewRankingQueryFailedError(intentID, err)
		}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRankingQueryFailedError(intentID, err)
	}
	return scores, nil
}

func (s *Store) CapabilityKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT capability_key
		FROM product_capability_scores
		ORDER BY capability_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CapabilityScores fetches every (product, capability) row for the given keys.
func (s *Store) CapabilityScores(ctx context.Context, keys []string) ([]models.CapabilityScore, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, capability_key, score
		FROM product_capability_scores
		WHERE capability_key = ANY($1)`, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []models.CapabilityScore
	for rows.Next() {
		var sc models.CapabilityScore
		if err := rows.Scan(&sc.ProductID, &sc.CapabilityKey, &sc.Value); err != nil {
			return nil, err
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// HydrateProducts fetches display details for the given ids. Ids missing from
// the catalog are simply absent from the result map; rows without required
// fields are dropped at this boundary.
func (s *Store) HydrateProducts(ctx context.Context, ids []string) (map[string]models.ProductDetail, error) {
	details := make(map[string]models.ProductDetail, len(ids))
	if len(ids) == 0 {
		return details, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, variant_id, title, price, COALESCE(image_url, '')
		FROM products
		WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d models.ProductDetail
		if err := rows.Scan(&d.ID, &d.VariantID, &d.Title, &d.Price, &d.ImageURL); err != nil {
			return nil, err
		}
		if !d.Valid() {
			s.logger.Warn("dropping invalid product row at hydration", map[string]interface{}{
				"productId": d.ID,
			})
			continue
		}
		details[d.ID] = d
	}
	return details, rows.Err()
}
