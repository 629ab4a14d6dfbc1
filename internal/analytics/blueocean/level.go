package blueocean

// Opportunity levels.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
	LevelNone   = "none"
)

// levelRecommendations are the fixed recommendations attached to each level.
var levelRecommendations = map[string][]string{
	LevelHigh: {
		"Many blue-ocean products under mild competition: enter actively.",
		"Shortlist two or three top-scoring products for detailed sourcing research.",
	},
	LevelMedium: {
		"A fair share of blue-ocean products: enter with a focused niche.",
		"Differentiate against weak listings among the best sellers.",
	},
	LevelLow: {
		"Few blue-ocean products: entry needs a clear differentiation angle.",
		"Favour long-tail keywords to keep advertising costs down.",
	},
	LevelNone: {
		"No meaningful blue-ocean opening: look for another niche.",
	},
}

// LevelFor classifies a market by its blue-ocean rate (percent of products
// that qualify) and its competition index.
//
//	rate > 30 and index < 40  high
//	rate > 20 and index < 60  medium
//	rate > 10 and index < 80  low
//	otherwise                 none
func LevelFor(rate, index float64) string {
	switch {
	case rate > 30 && index < 40:
		return LevelHigh
	case rate > 20 && index < 60:
		return LevelMedium
	case rate > 10 && index < 80:
		return LevelLow
	default:
		return LevelNone
	}
}

// Recommendations returns a copy of the fixed recommendations for level.
func Recommendations(level string) []string {
	return append([]string(nil), levelRecommendations[level]...)
}

// Assessment is the market-level verdict.
type Assessment struct {
	Level            string   `json:"level"`
	BlueOceanRate    float64  `json:"blue_ocean_rate"`
	CompetitionIndex float64  `json:"competition_index"`
	Recommendations  []string `json:"recommendations"`
	MarketNotes      []string `json:"market_notes"`
}

func assess(rate float64, mc MarketCompetition) Assessment {
	level := LevelFor(rate, mc.Index)
	return Assessment{
		Level:            level,
		BlueOceanRate:    rate,
		CompetitionIndex: mc.Index,
		Recommendations:  Recommendations(level),
		MarketNotes:      marketNotes(mc),
	}
}

// marketNotes explains the market's competitive texture.  An empty market
// has no notes.
func marketNotes(mc MarketCompetition) []string {
	notes := []string{}
	if mc.Brands == 0 {
		return notes
	}
	switch {
	case mc.Index < 40:
		notes = append(notes, "Competition is mild; suitable for new sellers.")
	case mc.Index < 60:
		notes = append(notes, "Competition is moderate; a competitive edge is required.")
	default:
		notes = append(notes, "Competition is fierce; avoid head-on rivalry with leaders.")
	}
	switch {
	case mc.HHI < 1500:
		notes = append(notes, "Brands are fragmented; the market is open.")
	case mc.HHI < 2500:
		notes = append(notes, "Brand concentration is moderate; room to build a brand.")
	default:
		notes = append(notes, "Brand concentration is high; build a differentiated brand.")
	}
	switch {
	case mc.AvgReviews < 100:
		notes = append(notes, "Few reviews per listing; the market is young.")
	case mc.AvgReviews < 300:
		notes = append(notes, "The market is still growing.")
	default:
		notes = append(notes, "The market is mature; a strong product is needed.")
	}
	return notes
}
