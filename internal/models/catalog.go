// internal/models/catalog.go
package models

// Product sources. Provenance is recorded on every ranked result.
const (
	SourceIntent     = "intent"
	SourceCapability = "capability"
)

// Intent is a fixed catalog row, loaded once per process lifetime and cached.
type Intent struct {
	IntentID    string `json:"intent_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductScore is one precomputed (intent, product) fit-score row, owned by
// the catalog store and read-only to this core.
type ProductScore struct {
	ProductID      string  `json:"product_id"`
	FitScore       float64 `json:"fit_score"`
	ScoreBreakdown string  `json:"score_breakdown,omitempty"`
}

// CapabilityWeight is an ephemeral per-request weighting of a capability key,
// produced from the user's literal words and never persisted.
type CapabilityWeight struct {
	CapabilityKey string  `json:"capability_key"`
	Weight        float64 `json:"weight"`
}

// CapabilityScore is one (product, capability) row from the catalog store.
type CapabilityScore struct {
	ProductID     string  `json:"product_id"`
	CapabilityKey string  `json:"capability_key"`
	Value         float64 `json:"value"`
}

// ProductDetail is the raw hydration row for a catalog product.
type ProductDetail struct {
	ID        string  `json:"id"`
	VariantID string  `json:"variant_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
}

// Product is the ranked, deduplicated, display-ready unit returned to the
// caller. Constructed per request and never cached across requests, since fit
// scores can change.
type Product struct {
	ID        string  `json:"id"`
	VariantID string  `json:"variant_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	FitScore  float64 `json:"fit_score"`
	Source    string  `json:"source"`
}

// NewProduct builds a display-ready product from a hydration row. The source
// must be SourceIntent or SourceCapability.
func NewProduct(detail ProductDetail, fitScore float64, source string) Product {
	return Product{
		ID:        detail.ID,
		VariantID: detail.VariantID,
		Title:     detail.Title,
		Price:     detail.Price,
		ImageURL:  detail.ImageURL,
		FitScore:  fitScore,
		Source:    source,
	}
}

// Valid reports whether a hydrated product carries the required fields.
// Checked at the store-hydration boundary; invalid rows are dropped there.
func (d ProductDetail) Valid() bool {
	return d.ID != "" && d.Title != ""
}
