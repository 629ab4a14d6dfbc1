package competitor

import (
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Concentration levels.
const (
	ConcentrationVeryHigh = "very_high"
	ConcentrationHigh     = "high"
	ConcentrationModerate = "moderate"
	ConcentrationLow      = "low"
	ConcentrationUnknown  = "unknown"
)

// Market structures, from most to least concentrated.
const (
	StructureTightOligopoly          = "tight_oligopoly"
	StructureLooseOligopoly          = "loose_oligopoly"
	StructureMonopolisticCompetition = "monopolistic_competition"
	StructurePerfectCompetition      = "perfect_competition"
	StructureUnknown                 = "unknown"
)

// Intensity and barrier labels.
const (
	RatingHigh    = "high"
	RatingMedium  = "medium"
	RatingLow     = "low"
	RatingUnknown = "unknown"
)

// CR4 sources.
const (
	SourceExternal = "external"
	SourceComputed = "computed"
)

// Concentration describes how much of the market the leading brands hold.
// CR4, HHI and MonopolyRate are in percentage points.
type Concentration struct {
	CR4          float64  `json:"cr4"`
	CR4Source    string   `json:"cr4_source"`
	HHI          float64  `json:"hhi"`
	MonopolyRate *float64 `json:"monopoly_rate,omitempty"`
	Level        string   `json:"level"`
	High         bool     `json:"high"`
	Structure    string   `json:"structure"`
	Intensity    string   `json:"competition_intensity"`
	EntryBarrier string   `json:"entry_barrier"`
}

func unknownConcentration() Concentration {
	return Concentration{
		Level:        ConcentrationUnknown,
		Structure:    StructureUnknown,
		Intensity:    RatingUnknown,
		EntryBarrier: RatingUnknown,
	}
}

// concentration prefers the externally supplied CR4 and falls back to the
// brand shares.  HHI always comes from the brand shares.
func (a *Analyzer) concentration(shares []market.BrandShare, m *product.KeywordMarketData) Concentration {
	pcts := market.SharePercents(shares)
	c := Concentration{
		CR4:       stats.Round(stats.ConcentrationRatio(pcts, 4), 2),
		CR4Source: SourceComputed,
		HHI:       stats.Round(stats.HHI(pcts), 2),
	}
	if m != nil && m.CR4 != nil {
		c.CR4 = stats.Round(*m.CR4*100, 2)
		c.CR4Source = SourceExternal
	}
	if m != nil && m.MonopolyRate != nil {
		v := stats.Round(*m.MonopolyRate*100, 2)
		c.MonopolyRate = &v
	}
	c.Level = a.LevelFor(c.CR4)
	c.High = c.CR4 >= a.cfg.HighConcentration
	c.Structure = a.StructureFor(c.CR4)
	c.Intensity = pressure(c.CR4, c.MonopolyRate)
	c.EntryBarrier = c.Intensity
	return c
}

// LevelFor classifies a CR4 percentage against the configured thresholds.
func (a *Analyzer) LevelFor(cr4 float64) string {
	switch {
	case cr4 >= a.cfg.VeryHighConcentration:
		return ConcentrationVeryHigh
	case cr4 >= a.cfg.HighConcentration:
		return ConcentrationHigh
	case cr4 >= a.cfg.ModerateConcentration:
		return ConcentrationModerate
	default:
		return ConcentrationLow
	}
}

// StructureFor names the market structure implied by a CR4 percentage.
func (a *Analyzer) StructureFor(cr4 float64) string {
	switch a.LevelFor(cr4) {
	case ConcentrationVeryHigh:
		return StructureTightOligopoly
	case ConcentrationHigh:
		return StructureLooseOligopoly
	case ConcentrationModerate:
		return StructureMonopolisticCompetition
	default:
		return StructurePerfectCompetition
	}
}

// pressure rates competition intensity and the matching entry barrier: high
// when the top four hold 60% or one seller holds 60% of clicks, medium from
// a 40% CR4.
func pressure(cr4 float64, monopoly *float64) string {
	switch {
	case cr4 >= 60 || (monopoly != nil && *monopoly >= 60):
		return RatingHigh
	case cr4 >= 40:
		return RatingMedium
	default:
		return RatingLow
	}
}
