// internal/catalog/search.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

// Search looks up products in the catalog's search index. Used only on
// best-effort paths (recovery alternatives, browse-popular), so every failure
// degrades to an empty result.
type Search struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearch(es *elasticsearch.Client, index string, log logger.Logger) *Search {
	return &Search{
		es:     es,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "catalog-search"}),
	}
}

type searchHit struct {
	Source models.ProductDetail `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// Products runs a match query over title and description.
func (s *Search) Products(ctx context.Context, query string, limit int) []models.ProductDetail {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "description"},
			},
		},
	}
	return s.run(ctx, body, limit)
}

// Popular returns the most-viewed products, used as a browse exit option.
func (s *Search) Popular(ctx context.Context, limit int) []models.ProductDetail {
	body := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []map[string]interface{}{{"view_count": map[string]interface{}{"order": "desc"}}},
	}
	return s.run(ctx, body, limit)
}

func (s *Search) run(ctx context.Context, body map[string]interface{}, limit int) []models.ProductDetail {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(&buf),
		s.es.Search.WithSize(limit),
	)
	if err != nil {
		s.logger.Warn("product search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Warn("product search returned error status", map[string]interface{}{
			"status": res.Status(),
		})
		return nil
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		s.logger.Warn("product search decode failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	out := make([]models.ProductDetail, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if hit.Source.Valid() {
			out = append(out, hit.Source)
		}
	}
	return out
}
