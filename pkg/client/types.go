package client

import (
	"encoding/json"
	"time"
)

// Product is one search-result listing submitted for analysis.
type Product struct {
	ASIN           string     `json:"asin"`
	Title          string     `json:"title,omitempty"`
	FeatureBullets []string   `json:"feature_bullets,omitempty"`
	Brand          string     `json:"brand,omitempty"`
	Category       string     `json:"category,omitempty"`
	Price          *float64   `json:"price,omitempty"`
	Rating         *float64   `json:"rating,omitempty"`
	ReviewsCount   int        `json:"reviews_count"`
	SalesVolume    *int       `json:"sales_volume,omitempty"`
	BSRRank        *int       `json:"bsr_rank,omitempty"`
	AvailableDate  *time.Time `json:"available_date,omitempty"`
	WeightLb       *float64   `json:"weight_lb,omitempty"`
	HasAnomaly     bool       `json:"has_anomaly,omitempty"`
}

// KeywordExtension is a related search term.
type KeywordExtension struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int64   `json:"search_volume"`
	Competition  float64 `json:"competition,omitempty"`
	Relevance    float64 `json:"relevance,omitempty"`
}

// MarketData is the keyword-level market data of a search term.
type MarketData struct {
	Keyword           string             `json:"keyword"`
	MonthlySearches   int64              `json:"monthly_searches"`
	PurchaseRate      *float64           `json:"purchase_rate,omitempty"`
	ClickRate         *float64           `json:"click_rate,omitempty"`
	ConversionRate    *float64           `json:"conversion_rate,omitempty"`
	MonopolyRate      *float64           `json:"monopoly_rate,omitempty"`
	CR4               *float64           `json:"cr4,omitempty"`
	CPCBid            *float64           `json:"cpc_bid,omitempty"`
	TrendDirection    string             `json:"trend_direction,omitempty"`
	KeywordExtensions []KeywordExtension `json:"keyword_extensions,omitempty"`
}

// AnalysisRequest starts a synchronous analysis.  When Products is empty the
// server loads the keyword's stored products.
type AnalysisRequest struct {
	Keyword  string      `json:"keyword"`
	Products []Product   `json:"products,omitempty"`
	Market   *MarketData `json:"market,omitempty"`
	UseCache *bool       `json:"use_cache,omitempty"`
}

// Dimension is one weighted component of an opportunity assessment.
type Dimension struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	HasData  bool    `json:"has_data"`
}

// Confidence rates how much data backed an assessment.
type Confidence struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// Assessment is the overall market opportunity verdict for a keyword.
type Assessment struct {
	Keyword         string      `json:"keyword"`
	Total           float64     `json:"total"`
	Grade           string      `json:"grade"`
	Dimensions      []Dimension `json:"dimensions"`
	Recommendations []string    `json:"recommendations"`
	ActionItems     []string    `json:"action_items"`
	RiskFactors     []string    `json:"risk_factors"`
	Confidence      Confidence  `json:"confidence"`
}

// Report is an analysis run.  The SDK decodes the summary and the
// assessment; Raw keeps the complete document for callers that need the
// per-analyzer sections.
type Report struct {
	RunID        string     `json:"run_id"`
	Keyword      string     `json:"keyword"`
	Fingerprint  string     `json:"fingerprint"`
	GeneratedAt  time.Time  `json:"generated_at"`
	DurationMS   int64      `json:"duration_ms"`
	Cached       bool       `json:"cached"`
	ProductCount int        `json:"product_count"`
	Assessment   Assessment `json:"assessment"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the summary fields and retains the raw document.
func (r *Report) UnmarshalJSON(b []byte) error {
	type alias Report
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*r = Report(a)
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// Section decodes one top-level section of the raw report, e.g.
// "blue_ocean" or "market", into v.
func (r *Report) Section(name string, v interface{}) error {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(r.Raw, &sections); err != nil {
		return err
	}
	raw, ok := sections[name]
	if !ok {
		return json.Unmarshal([]byte("null"), v)
	}
	return json.Unmarshal(raw, v)
}

// Enqueued acknowledges an asynchronous analysis request.
type Enqueued struct {
	EventID string `json:"event_id"`
	Keyword string `json:"keyword"`
}

// Document is a downloaded report export.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Published describes a report uploaded to object storage.
type Published struct {
	Key       string    `json:"key"`
	URL       string    `json:"url,omitempty"`
	Format    string    `json:"format"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}
