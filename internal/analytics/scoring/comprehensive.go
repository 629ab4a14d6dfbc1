package scoring

import (
	"fmt"
	"sort"

	"github.com/turtacn/OceanScout/internal/analytics/blueocean"
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/analytics/trend"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Dimension names.
const (
	DimensionDemand      = "demand"
	DimensionCompetition = "competition"
	DimensionProfit      = "profit"
	DimensionBarrier     = "barrier"
	DimensionSeasonality = "seasonality"
	DimensionTrend       = "trend"
)

// Seasonality risk levels.
const (
	SeasonalRiskLow    = "low"
	SeasonalRiskMedium = "medium"
	SeasonalRiskHigh   = "high"
)

// neutralScore stands in for a dimension with no evidence.
const neutralScore = 50

// Seasonality is externally sourced demand stability for a keyword.
type Seasonality struct {
	StabilityScore float64 `json:"stability_score"`
	Evergreen      bool    `json:"evergreen"`
	Risk           string  `json:"risk"`
}

// Evidence gathers the analyses of one keyword.  Any field may be nil; the
// affected dimensions fall back to neutral scores and lower the confidence.
type Evidence struct {
	Keyword     string
	MarketData  *product.KeywordMarketData
	Market      *market.Result
	BlueOcean   *blueocean.Result
	Trend       *trend.Result
	Seasonality *Seasonality
}

// Dimension is one scored dimension of an Assessment.
type Dimension struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	HasData  bool    `json:"has_data"`
}

// Confidence reflects how much of the evidence was available.
type Confidence struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// Assessment is the comprehensive six-dimension grade of a keyword.
type Assessment struct {
	Keyword         string           `json:"keyword"`
	Total           float64          `json:"total"`
	Grade           stats.GradeLevel `json:"grade"`
	Dimensions      []Dimension      `json:"dimensions"`
	Recommendations []string         `json:"recommendations"`
	ActionItems     []string         `json:"action_items"`
	RiskFactors     []string         `json:"risk_factors"`
	Confidence      Confidence       `json:"confidence"`
}

// Dimension returns the named dimension, or false.
func (s Assessment) Dimension(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Assess grades e across demand, competition, profit, barrier, seasonality
// and trend.
func (a *Analyzer) Assess(e Evidence) Assessment {
	w := a.cfg.DimensionWeights
	dims := []Dimension{
		demandDimension(e),
		competitionDimension(e),
		profitDimension(e),
		barrierDimension(e),
		seasonalityDimension(e),
		trendDimension(e),
	}
	weights := map[string]float64{
		DimensionDemand:      w.Demand,
		DimensionCompetition: w.Competition,
		DimensionProfit:      w.Profit,
		DimensionBarrier:     w.Barrier,
		DimensionSeasonality: w.Seasonality,
		DimensionTrend:       w.Trend,
	}

	components := make([]stats.Component, 0, len(dims))
	for i := range dims {
		d := &dims[i]
		d.Score = stats.Round(stats.Clamp(d.Score, 0, 100), 2)
		d.Weight = weights[d.Name]
		d.Weighted = stats.Round(d.Score*d.Weight, 2)
		components = append(components, stats.Component{Name: d.Name, Score: d.Score, Weight: d.Weight})
	}

	s := Assessment{
		Keyword:    e.Keyword,
		Total:      stats.Round(stats.WeightedSum(components...), 2),
		Dimensions: dims,
	}
	s.Grade = stats.Grade(s.Total)
	s.Recommendations, s.ActionItems = advice(s.Grade, dims)
	s.RiskFactors = risks(e, dims)
	s.Confidence = confidence(e, dims)
	return s
}

// CompareOpportunities assesses several keywords and orders them best first,
// ties by keyword.
func (a *Analyzer) CompareOpportunities(evidence []Evidence) []Assessment {
	out := make([]Assessment, 0, len(evidence))
	for _, e := range evidence {
		out = append(out, a.Assess(e))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Dimensions
// ─────────────────────────────────────────────────────────────────────────────

// step returns the score of the first threshold v does not exceed, else
// fallback.  Thresholds are ascending.
func step(v float64, thresholds, scores []float64, fallback float64) float64 {
	for i, t := range thresholds {
		if v <= t {
			return scores[i]
		}
	}
	return fallback
}

func analyzed(e Evidence) bool {
	return e.BlueOcean != nil && e.BlueOcean.AnalyzedCount > 0
}

// demandDimension prefers keyword searches, where a mid-size market between
// 5000 and 12000 searches a month scores best, and falls back to the
// average unit sales of the listings.
func demandDimension(e Evidence) Dimension {
	d := Dimension{Name: DimensionDemand, Score: neutralScore}
	switch {
	case e.MarketData.HasSearches():
		d.HasData = true
		s := e.MarketData.MonthlySearches
		switch {
		case s >= 5000 && s <= 12000:
			d.Score = 100
		case s > 12000 && s <= 30000:
			d.Score = 90
		case s > 30000 && s <= 50000:
			d.Score = 80
		case s > 50000:
			d.Score = 65
		case s >= 3000:
			d.Score = 70
		case s >= 1000:
			d.Score = 50
		default:
			d.Score = 30
		}
	case e.Market != nil && e.Market.AvgSales > 0:
		d.HasData = true
		switch avg := e.Market.AvgSales; {
		case avg >= 1000:
			d.Score = 80
		case avg >= 500:
			d.Score = 65
		case avg >= 200:
			d.Score = 50
		default:
			d.Score = 35
		}
	}
	return d
}

func competitionDimension(e Evidence) Dimension {
	d := Dimension{Name: DimensionCompetition, Score: neutralScore}
	if !analyzed(e) {
		return d
	}
	d.HasData = true
	mc := e.BlueOcean.Competition
	d.Score = step(mc.Index, []float64{20, 30, 40, 50, 60, 70}, []float64{100, 90, 80, 70, 55, 40}, 25)
	switch weak := e.BlueOcean.WeakListings.Top10WeakCount; {
	case weak >= 4:
		d.Score += 10
	case weak >= 2:
		d.Score += 5
	}
	if mc.HHI/100 > 50 {
		d.Score -= 10
	}
	return d
}

func profitDimension(e Evidence) Dimension {
	d := Dimension{Name: DimensionProfit, Score: neutralScore}
	if !analyzed(e) || e.BlueOcean.Profit.AnalyzedCount == 0 {
		return d
	}
	d.HasData = true
	margin := e.BlueOcean.Profit.AvgMarginPct.InexactFloat64()
	switch {
	case margin >= 45:
		d.Score = 100
	case margin >= 40:
		d.Score = 90
	case margin >= 35:
		d.Score = 80
	case margin >= 30:
		d.Score = 65
	case margin >= 25:
		d.Score = 50
	case margin >= 20:
		d.Score = 35
	default:
		d.Score = 20
	}
	if ads := e.BlueOcean.Advertising; len(ads.Products) > 0 {
		switch rate := ads.ProfitableRate.InexactFloat64(); {
		case rate < 30:
			d.Score -= 20
		case rate < 50:
			d.Score -= 10
		case rate >= 80:
			d.Score += 5
		}
	}
	return d
}

func barrierDimension(e Evidence) Dimension {
	d := Dimension{Name: DimensionBarrier, Score: neutralScore}
	if !analyzed(e) {
		return d
	}
	d.HasData = true
	mc := e.BlueOcean.Competition
	d.Score = step(mc.HHI/100, []float64{10, 20, 30, 40, 50, 60}, []float64{100, 90, 80, 70, 55, 40}, 25)
	if cpc, ok := cpcOf(e.MarketData); ok {
		switch {
		case cpc > 2:
			d.Score -= 15
		case cpc > 1.5:
			d.Score -= 10
		case cpc < 0.8:
			d.Score += 5
		}
	}
	switch {
	case mc.AvgReviews > 1000:
		d.Score -= 15
	case mc.AvgReviews > 500:
		d.Score -= 10
	case mc.AvgReviews < 100:
		d.Score += 5
	}
	return d
}

func seasonalityDimension(e Evidence) Dimension {
	d := Dimension{Name: DimensionSeasonality, Score: 70}
	s := e.Seasonality
	if s == nil {
		return d
	}
	d.HasData = true
	d.Score = s.StabilityScore
	if s.Evergreen {
		d.Score += 10
	}
	switch s.Risk {
	case SeasonalRiskHigh:
		d.Score -= 15
	case SeasonalRiskLow:
		d.Score += 5
	}
	return d
}

// trendDimension reads the provider's trend when collected, else the
// direction inferred from the listings.
func trendDimension(e Evidence) Dimension {
	d := Dimension{Name: DimensionTrend, Score: 60}
	direction := e.MarketData.Trend()
	if direction != product.TrendUp && direction != product.TrendStable && direction != product.TrendDown {
		direction = ""
	}
	if direction == "" && e.Trend != nil {
		switch e.Trend.Direction {
		case trend.DirectionGrowing:
			direction = product.TrendUp
		case trend.DirectionStable:
			direction = product.TrendStable
		case trend.DirectionDeclining:
			direction = product.TrendDown
		}
	}
	strong := e.Trend != nil && e.Trend.Strength > 70
	switch direction {
	case product.TrendUp:
		d.HasData = true
		d.Score = 90
		if strong {
			d.Score += 10
		}
	case product.TrendStable:
		d.HasData = true
		d.Score = 70
	case product.TrendDown:
		d.HasData = true
		d.Score = 35
		if strong {
			d.Score -= 10
		}
	}
	return d
}

func cpcOf(m *product.KeywordMarketData) (float64, bool) {
	if m == nil || m.CPCBid == nil {
		return 0, false
	}
	return *m.CPCBid, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Advice
// ─────────────────────────────────────────────────────────────────────────────

var gradeAdvice = map[stats.GradeLevel]struct {
	recommendation string
	actions        []string
}{
	stats.GradeAPlus: {"Excellent opportunity: enter quickly", []string{"source suppliers and order samples", "launch with an aggressive advertising budget"}},
	stats.GradeA:     {"Strong opportunity: worth entering", []string{"validate suppliers and landed cost", "plan a differentiated listing"}},
	stats.GradeBPlus: {"Good opportunity: enter with differentiation", []string{"study the top listings for gaps", "test demand with a small first order"}},
	stats.GradeB:     {"Moderate opportunity: proceed carefully", []string{"confirm margins against advertising cost", "look for an under-served segment"}},
	stats.GradeC:     {"Marginal opportunity: only with a clear edge", []string{"identify a concrete product advantage before sourcing"}},
	stats.GradeD:     {"Weak opportunity: not recommended", []string{"research adjacent keywords instead"}},
	stats.GradeF:     {"Poor opportunity: avoid", []string{"drop this keyword"}},
}

var dimensionAdvice = map[string]string{
	DimensionDemand:      "Demand is limited: check related keywords for volume",
	DimensionCompetition: "Competition is strong: differentiate on features or bundle",
	DimensionProfit:      "Margins are thin: negotiate cost or raise price",
	DimensionBarrier:     "Entry barriers are high: budget for reviews and advertising",
	DimensionSeasonality: "Demand is seasonal: time inventory to the peak",
	DimensionTrend:       "Demand is falling: prefer a short product cycle",
}

func advice(grade stats.GradeLevel, dims []Dimension) (recommendations, actions []string) {
	g := gradeAdvice[grade]
	recommendations = []string{g.recommendation}
	actions = append([]string{}, g.actions...)
	for _, d := range dims {
		if d.Score < 50 {
			recommendations = append(recommendations, dimensionAdvice[d.Name])
		}
	}
	return recommendations, actions
}

func risks(e Evidence, dims []Dimension) []string {
	out := []string{}
	for _, d := range dims {
		if d.Score < 40 {
			out = append(out, fmt.Sprintf("low %s score (%.2f)", d.Name, d.Score))
		}
	}
	if analyzed(e) && e.BlueOcean.Competition.HHI/100 > 50 {
		out = append(out, "brand monopoly: HHI above 5000")
	}
	if cpc, ok := cpcOf(e.MarketData); ok && cpc > 2 {
		out = append(out, fmt.Sprintf("high advertising cost: CPC %.2f", cpc))
	}
	return out
}

func confidence(e Evidence, dims []Dimension) Confidence {
	var score float64
	if e.MarketData.HasSearches() {
		score += 20
	}
	if _, ok := cpcOf(e.MarketData); ok {
		score += 15
	}
	if e.MarketData.Trend() != "" {
		score += 15
	}
	if e.Seasonality != nil {
		score += 15
	}
	for _, d := range dims {
		if d.HasData {
			score += 5
		}
	}
	score = stats.Clamp(score, 0, 100)
	return Confidence{Score: score, Level: stats.Level(score)}
}
