package scoring

import (
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/analytics/trend"
)

// Opportunity is the market opportunity composite and its inputs.
type Opportunity struct {
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	Size        float64 `json:"size"`
	Growth      float64 `json:"growth"`
	Competition float64 `json:"competition"`
}

// MarketOpportunity blends market size, trend strength and the inverse of
// competition intensity.  A market with no analyzed listings scores 0.
func (a *Analyzer) MarketOpportunity(m market.Result, t trend.Result) Opportunity {
	if m.AnalyzedCount == 0 {
		return Opportunity{Level: stats.LevelLow}
	}
	o := Opportunity{
		Size:        stats.Clamp(m.SizeScore, 0, 100),
		Growth:      stats.Clamp(t.Strength, 0, 100),
		Competition: stats.Clamp(100-m.CompetitionIntensity, 0, 100),
	}
	w := a.cfg.OpportunityWeights
	o.Score = stats.Round(stats.WeightedSum(
		stats.Component{Name: "size", Score: o.Size, Weight: w.Size},
		stats.Component{Name: "growth", Score: o.Growth, Weight: w.Growth},
		stats.Component{Name: "competition", Score: o.Competition, Weight: w.Competition},
	), 2)
	o.Level = stats.Level(o.Score)
	return o
}
