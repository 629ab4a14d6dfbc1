package segmentation

import (
	"sort"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Search-volume tiers.
const (
	TierHigh   = "high_volume"
	TierMedium = "medium_volume"
	TierLow    = "low_volume"
)

// TierFor classifies a monthly search volume: above 10000 is high, above
// 1000 medium.
func TierFor(volume int64) string {
	switch {
	case volume > 10000:
		return TierHigh
	case volume > 1000:
		return TierMedium
	default:
		return TierLow
	}
}

// KeywordTier is one search-volume tier.  Keywords keeps the first entries
// in provider relevance order.
type KeywordTier struct {
	Label    string                     `json:"label"`
	Count    int                        `json:"count"`
	Keywords []product.KeywordExtension `json:"keywords"`
}

// KeywordOpportunity is a related keyword with real volume and little
// competition.  Potential is volume / (competition + 1).
type KeywordOpportunity struct {
	product.KeywordExtension
	Potential float64 `json:"potential"`
}

// KeywordSegmentation groups a keyword's extensions.
type KeywordSegmentation struct {
	Total         int                        `json:"total_keywords"`
	Tiers         []KeywordTier              `json:"tiers"`
	HighPotential []KeywordOpportunity       `json:"high_potential"`
	Niche         []product.KeywordExtension `json:"niche"`
}

// IsHighPotential reports volume above 1000 with competition below 50.
func IsHighPotential(k product.KeywordExtension) bool {
	return k.SearchVolume > 1000 && k.Competition < 50
}

// IsNiche reports a focused long-tail keyword: volume strictly between 100
// and 5000, competition below 30 and relevance above 70.
func IsNiche(k product.KeywordExtension) bool {
	return k.SearchVolume > 100 && k.SearchVolume < 5000 && k.Competition < 30 && k.Relevance > 70
}

func (a *Analyzer) keywords(m *product.KeywordMarketData) KeywordSegmentation {
	ks := KeywordSegmentation{
		Tiers: []KeywordTier{
			{Label: TierHigh, Keywords: []product.KeywordExtension{}},
			{Label: TierMedium, Keywords: []product.KeywordExtension{}},
			{Label: TierLow, Keywords: []product.KeywordExtension{}},
		},
		HighPotential: []KeywordOpportunity{},
		Niche:         []product.KeywordExtension{},
	}
	if m == nil {
		return ks
	}
	index := map[string]int{TierHigh: 0, TierMedium: 1, TierLow: 2}
	for _, k := range m.KeywordExtensions {
		ks.Total++
		tier := &ks.Tiers[index[TierFor(k.SearchVolume)]]
		tier.Count++
		if len(tier.Keywords) < a.cfg.TierSample {
			tier.Keywords = append(tier.Keywords, k)
		}
		if IsHighPotential(k) {
			ks.HighPotential = append(ks.HighPotential, KeywordOpportunity{
				KeywordExtension: k,
				Potential:        stats.Round(float64(k.SearchVolume)/(k.Competition+1), 2),
			})
		}
		if IsNiche(k) && len(ks.Niche) < a.cfg.TopKeywords {
			ks.Niche = append(ks.Niche, k)
		}
	}
	sort.SliceStable(ks.HighPotential, func(i, j int) bool {
		if ks.HighPotential[i].Potential != ks.HighPotential[j].Potential {
			return ks.HighPotential[i].Potential > ks.HighPotential[j].Potential
		}
		return ks.HighPotential[i].Keyword < ks.HighPotential[j].Keyword
	})
	if len(ks.HighPotential) > a.cfg.TopKeywords {
		ks.HighPotential = ks.HighPotential[:a.cfg.TopKeywords]
	}
	return ks
}
