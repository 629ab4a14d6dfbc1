package product

import (
	"strings"

	"github.com/turtacn/OceanScout/pkg/errors"
)

// Trend directions reported by keyword intelligence providers.
const (
	TrendUp     = "up"
	TrendStable = "stable"
	TrendDown   = "down"
)

// KeywordExtension is a related keyword.  The order of the slice that holds
// these entries is the provider's relevance order.
type KeywordExtension struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int64   `json:"search_volume"`
	Competition  float64 `json:"competition,omitempty"`
	Relevance    float64 `json:"relevance,omitempty"`
}

// KeywordMarketData is keyword-level intelligence collected once per run.
// Analyzers receive it as *KeywordMarketData; nil means no intelligence was
// collected and every analyzer has a documented fallback for that case.
// Ratio fields are fractions in [0,1]; nil means "not collected".
type KeywordMarketData struct {
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

// Validate rejects negative search counts and ratios outside [0,1].
func (m *KeywordMarketData) Validate() error {
	if m == nil {
		return nil
	}
	if m.MonthlySearches < 0 {
		return errors.Newf(errors.ErrCodeKeywordDataInvalid, "monthly_searches %d must not be negative", m.MonthlySearches).
			WithDetail("keyword=" + m.Keyword)
	}
	ratios := []struct {
		name string
		v    *float64
	}{
		{"purchase_rate", m.PurchaseRate},
		{"click_rate", m.ClickRate},
		{"conversion_rate", m.ConversionRate},
		{"monopoly_rate", m.MonopolyRate},
		{"cr4", m.CR4},
	}
	for _, r := range ratios {
		if r.v == nil {
			continue
		}
		if !finite(*r.v) || *r.v < 0 || *r.v > 1 {
			return errors.Newf(errors.ErrCodeKeywordDataInvalid, "%s %v must be within [0,1]", r.name, *r.v).
				WithDetail("keyword=" + m.Keyword)
		}
	}
	if m.CPCBid != nil && (!finite(*m.CPCBid) || *m.CPCBid < 0) {
		return errors.Newf(errors.ErrCodeKeywordDataInvalid, "cpc_bid %v must not be negative", *m.CPCBid).
			WithDetail("keyword=" + m.Keyword)
	}
	switch strings.ToLower(m.TrendDirection) {
	case "", TrendUp, TrendStable, TrendDown:
	default:
		return errors.Newf(errors.ErrCodeKeywordDataInvalid, "trend_direction %q is not one of up|stable|down", m.TrendDirection).
			WithDetail("keyword=" + m.Keyword)
	}
	for _, ext := range m.KeywordExtensions {
		if ext.SearchVolume < 0 {
			return errors.Newf(errors.ErrCodeKeywordDataInvalid, "extension %q search_volume must not be negative", ext.Keyword).
				WithDetail("keyword=" + m.Keyword)
		}
	}
	return nil
}

// HasSearches reports whether a positive monthly search count is available.
func (m *KeywordMarketData) HasSearches() bool {
	return m != nil && m.MonthlySearches > 0
}

// Trend returns the normalized trend direction, or "" when unknown.
func (m *KeywordMarketData) Trend() string {
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(m.TrendDirection))
}
