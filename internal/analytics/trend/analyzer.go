// Package trend reads the direction of a market from a single snapshot: how
// many listings are new, where the market sits in its lifecycle, whether
// demand indicators point up or down, and how new listings are priced
// against established ones.
package trend

import (
	"time"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Lifecycle stages.
const (
	StageIntroduction = "introduction"
	StageGrowth       = "growth"
	StageMaturity     = "maturity"
	StageDecline      = "decline"
	StageUnknown      = "unknown"
)

// Trend directions.
const (
	DirectionGrowing   = "growing"
	DirectionStable    = "stable"
	DirectionDeclining = "declining"
	DirectionUnknown   = "unknown"
)

// Outlooks.
const (
	OutlookVeryPositive = "very_positive"
	OutlookPositive     = "positive"
	OutlookNeutral      = "neutral"
	OutlookCautious     = "cautious"
	OutlookNegative     = "negative"
	OutlookUnknown      = "unknown"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config holds the trend thresholds.  Ratios are fractions of the analyzed
// set.
type Config struct {
	// AsOf is the reference date for listing age.  Zero means the latest
	// available date in the product set.
	AsOf time.Time

	ExcludeAnomalies bool

	// IntroductionRatio and GrowthRatio are the new-product ratios above
	// which a market is in its introduction or growth stage.
	IntroductionRatio float64
	GrowthRatio       float64

	// A market whose new-product ratio is below DeclineRatio while its
	// average review count reaches DeclineReviews is in decline.
	DeclineRatio   float64
	DeclineReviews float64

	// PriceChange is the relative gap between new and established average
	// prices that counts as a price movement.
	PriceChange float64

	// HighRating is the rating counted as "high" by the competition trend.
	HighRating float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ExcludeAnomalies:  true,
		IntroductionRatio: 0.40,
		GrowthRatio:       0.20,
		DeclineRatio:      0.05,
		DeclineReviews:    1000,
		PriceChange:       0.10,
		HighRating:        4.0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IntroductionRatio <= 0 {
		c.IntroductionRatio = d.IntroductionRatio
	}
	if c.GrowthRatio <= 0 {
		c.GrowthRatio = d.GrowthRatio
	}
	if c.DeclineRatio <= 0 {
		c.DeclineRatio = d.DeclineRatio
	}
	if c.DeclineReviews <= 0 {
		c.DeclineReviews = d.DeclineReviews
	}
	if c.PriceChange <= 0 {
		c.PriceChange = d.PriceChange
	}
	if c.HighRating <= 0 {
		c.HighRating = d.HighRating
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Result
// ─────────────────────────────────────────────────────────────────────────────

// Result is the immutable outcome of Analyze.
type Result struct {
	ProductCount    int     `json:"product_count"`
	AnalyzedCount   int     `json:"analyzed_count"`
	NewProductCount int     `json:"new_product_count"`
	NewProductRatio float64 `json:"new_product_ratio"`

	Stage          string     `json:"lifecycle_stage"`
	Direction      string     `json:"direction"`
	DirectionScore int        `json:"direction_score"`
	Strength       float64    `json:"strength"`
	Indicators     Indicators `json:"indicators"`

	NewProducts NewProductTrend  `json:"new_products"`
	Price       PriceTrend       `json:"price"`
	Competition CompetitionTrend `json:"competition"`

	Outlook         string   `json:"outlook"`
	Recommendations []string `json:"recommendations"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Analyzer
// ─────────────────────────────────────────────────────────────────────────────

// Analyzer computes trend signals.  It holds only its immutable Config and
// is safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an Analyzer; zero-valued thresholds take defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze computes the trend Result.  market may be nil.  An empty set
// yields StageUnknown, DirectionUnknown and OutlookUnknown with zero
// strength.
func (a *Analyzer) Analyze(products []product.Product, market *product.KeywordMarketData) (*Result, error) {
	if err := product.ValidateAll(products); err != nil {
		return nil, err
	}
	if err := market.Validate(); err != nil {
		return nil, err
	}

	set := products
	if a.cfg.ExcludeAnomalies {
		set = product.WithoutAnomalies(products)
	}

	res := &Result{
		ProductCount:    len(products),
		AnalyzedCount:   len(set),
		Stage:           StageUnknown,
		Direction:       DirectionUnknown,
		Outlook:         OutlookUnknown,
		Recommendations: []string{},
		NewProducts:     NewProductTrend{Activity: ActivityUnknown},
		Price:           PriceTrend{Direction: PriceUnknown},
		Competition:     CompetitionTrend{Level: CompetitionUnknown, Trend: CompetitionUnknown},
	}
	if len(set) == 0 {
		return res, nil
	}

	asOf := a.cfg.AsOf
	if asOf.IsZero() {
		asOf = product.LatestAvailableDate(set)
	}
	fresh, established := splitByAge(set, asOf)
	res.NewProductCount = len(fresh)
	res.NewProductRatio = stats.Round(stats.SafeDivide(float64(len(fresh)), float64(len(set)), 0), 4)

	res.Indicators = collectIndicators(set, res.NewProductRatio, market)
	res.Stage = a.stage(res.NewProductRatio, res.Indicators.AvgReviews)
	res.DirectionScore = res.Indicators.directionScore()
	res.Direction = DirectionFor(res.DirectionScore)
	res.Strength = res.Indicators.strength()

	res.NewProducts = newProductTrend(fresh, res.Indicators.NewProductRate)
	res.Price = a.priceTrend(set, fresh, established)
	res.Competition = a.competitionTrend(set, res.Indicators.AvgReviews)

	res.Outlook = OutlookFor(res.Direction, res.Competition.Level)
	res.Recommendations = recommendations(res)
	return res, nil
}

// stage maps the new-product ratio onto the lifecycle.  Decline needs both a
// trickle of new listings and entrenched review counts; a quiet market with
// few reviews is still in maturity.
func (a *Analyzer) stage(newRatio, avgReviews float64) string {
	switch {
	case newRatio > a.cfg.IntroductionRatio:
		return StageIntroduction
	case newRatio >= a.cfg.GrowthRatio:
		return StageGrowth
	case newRatio < a.cfg.DeclineRatio && avgReviews >= a.cfg.DeclineReviews:
		return StageDecline
	default:
		return StageMaturity
	}
}

// DirectionFor classifies an indicator score: 2 or more is growing, -2 or
// less is declining.
func DirectionFor(score int) string {
	switch {
	case score >= 2:
		return DirectionGrowing
	case score <= -2:
		return DirectionDeclining
	default:
		return DirectionStable
	}
}

// OutlookFor combines the trend direction with the competition level.
func OutlookFor(direction, competition string) string {
	switch {
	case direction == DirectionGrowing && competition == CompetitionLow:
		return OutlookVeryPositive
	case direction == DirectionGrowing:
		return OutlookPositive
	case direction == DirectionStable && competition != CompetitionIntense:
		return OutlookNeutral
	case direction == DirectionDeclining:
		return OutlookCautious
	default:
		return OutlookNegative
	}
}

func splitByAge(products []product.Product, asOf time.Time) (fresh, established []product.Product) {
	for _, p := range products {
		if p.IsNew(asOf) {
			fresh = append(fresh, p)
		} else {
			established = append(established, p)
		}
	}
	return fresh, established
}

func recommendations(r *Result) []string {
	out := []string{}
	switch r.Direction {
	case DirectionGrowing:
		out = append(out, "The market is growing: enter actively while demand expands.")
	case DirectionDeclining:
		out = append(out, "Growth is slowing: enter cautiously or target a sub-niche.")
	}
	switch r.Competition.Level {
	case CompetitionIntense:
		out = append(out, "Competition is intense: break through with differentiation and branding.")
	case CompetitionLow:
		out = append(out, "Competition is weak: move early to claim the market.")
	}
	switch r.NewProducts.Activity {
	case ActivityVeryActive:
		out = append(out, "New listings arrive quickly: watch launches closely and iterate fast.")
	case ActivitySlow:
		out = append(out, "Few new listings: the market may be saturating, innovate to stand out.")
	}
	switch r.Price.Direction {
	case PriceRising:
		out = append(out, "Prices are rising: a premium positioning is viable.")
	case PriceFalling:
		out = append(out, "Prices are falling: keep tight cost control.")
	}
	return out
}
