package trend

import (
	"sort"

	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Search trend labels.
const (
	SearchRising    = "rising"
	SearchStable    = "stable"
	SearchDeclining = "declining"
)

// CR4 sources.
const (
	CR4External = "external"
	CR4Computed = "computed"
	CR4None     = "none"
)

// Indicators are the demand and structure signals the direction is read
// from.  Rates are percentages; nil means the signal was not available and
// contributes nothing.
type Indicators struct {
	NewProductRate float64  `json:"new_product_rate"`
	AvgReviews     float64  `json:"avg_reviews"`
	SearchTrend    string   `json:"search_trend"`
	CR4            *float64 `json:"cr4,omitempty"`
	CR4Source      string   `json:"cr4_source"`
	PurchaseRate   *float64 `json:"purchase_rate,omitempty"`
	ConversionRate *float64 `json:"conversion_rate,omitempty"`
}

func collectIndicators(products []product.Product, newRatio float64, m *product.KeywordMarketData) Indicators {
	ind := Indicators{
		NewProductRate: stats.Round(newRatio*100, 2),
		AvgReviews:     market.AverageReviews(products),
		SearchTrend:    searchTrend(m.Trend()),
		CR4Source:      CR4None,
	}
	if m != nil && m.CR4 != nil {
		ind.CR4 = percent(*m.CR4)
		ind.CR4Source = CR4External
	} else if cr4, ok := TopSalesShare(products, 4); ok {
		ind.CR4 = &cr4
		ind.CR4Source = CR4Computed
	}
	if m != nil {
		if m.PurchaseRate != nil {
			ind.PurchaseRate = percent(*m.PurchaseRate)
		}
		if m.ConversionRate != nil {
			ind.ConversionRate = percent(*m.ConversionRate)
		}
	}
	return ind
}

func percent(ratio float64) *float64 {
	v := stats.Round(ratio*100, 2)
	return &v
}

func searchTrend(direction string) string {
	switch direction {
	case product.TrendUp:
		return SearchRising
	case product.TrendDown:
		return SearchDeclining
	default:
		return SearchStable
	}
}

// TopSalesShare is the percentage of unit sales held by the n best-selling
// listings.  It needs at least n listings with positive sales.
func TopSalesShare(products []product.Product, n int) (float64, bool) {
	sales := make([]float64, 0, len(products))
	for _, p := range products {
		if v := p.SalesValue(); v > 0 {
			sales = append(sales, float64(v))
		}
	}
	if n <= 0 || len(sales) < n {
		return 0, false
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sales)))
	var top, total float64
	for i, v := range sales {
		if i < n {
			top += v
		}
		total += v
	}
	return stats.Round(stats.SafePercentage(top, total), 2), true
}

// directionScore adds up to +2 per indicator that points to growth and
// subtracts for the ones that point to contraction.
func (ind Indicators) directionScore() int {
	score := 0
	switch {
	case ind.NewProductRate > 20:
		score += 2
	case ind.NewProductRate > 10:
		score++
	}
	switch ind.SearchTrend {
	case SearchRising:
		score += 2
	case SearchDeclining:
		score -= 2
	}
	if ind.CR4 != nil {
		switch {
		case *ind.CR4 < 40:
			score++
		case *ind.CR4 > 60:
			score--
		}
	}
	score += rateScore(ind.PurchaseRate)
	score += rateScore(ind.ConversionRate)
	return score
}

func rateScore(rate *float64) int {
	if rate == nil {
		return 0
	}
	switch {
	case *rate > 15:
		return 2
	case *rate > 10:
		return 1
	case *rate < 5:
		return -1
	default:
		return 0
	}
}

// strength starts at 50 and moves with each indicator, clamped to [0,100].
func (ind Indicators) strength() float64 {
	s := 50.0
	switch {
	case ind.NewProductRate > 20:
		s += 20
	case ind.NewProductRate > 10:
		s += 10
	}
	switch ind.SearchTrend {
	case SearchRising:
		s += 15
	case SearchDeclining:
		s -= 15
	}
	if ind.CR4 != nil {
		switch {
		case *ind.CR4 < 40:
			s += 10
		case *ind.CR4 > 60:
			s -= 10
		}
	}
	s += rateStrength(ind.PurchaseRate)
	s += rateStrength(ind.ConversionRate)
	return stats.Clamp(s, 0, 100)
}

func rateStrength(rate *float64) float64 {
	if rate == nil {
		return 0
	}
	switch {
	case *rate > 15:
		return 15
	case *rate > 10:
		return 10
	case *rate < 5:
		return -10
	default:
		return 0
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New listings
// ─────────────────────────────────────────────────────────────────────────────

// New-listing activity levels.
const (
	ActivityVeryActive = "very_active"
	ActivityActive     = "active"
	ActivityModerate   = "moderate"
	ActivitySlow       = "slow"
	ActivityUnknown    = "unknown"
)

// NewProductTrend summarises the listings younger than the new-product
// window.
type NewProductTrend struct {
	Count     int     `json:"count"`
	Rate      float64 `json:"rate"`
	Activity  string  `json:"activity"`
	AvgRating float64 `json:"avg_rating"`
	AvgSales  float64 `json:"avg_sales"`
}

// ActivityFor classifies a new-product rate in percent.
func ActivityFor(rate float64) string {
	switch {
	case rate > 20:
		return ActivityVeryActive
	case rate > 10:
		return ActivityActive
	case rate > 5:
		return ActivityModerate
	default:
		return ActivitySlow
	}
}

func newProductTrend(fresh []product.Product, rate float64) NewProductTrend {
	return NewProductTrend{
		Count:     len(fresh),
		Rate:      rate,
		Activity:  ActivityFor(rate),
		AvgRating: stats.Round(stats.Mean(stats.Collect(fresh, product.RatingOf)), 2),
		AvgSales:  stats.Round(stats.Mean(stats.Collect(fresh, product.SalesOf)), 2),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Price
// ─────────────────────────────────────────────────────────────────────────────

// Price directions.
const (
	PriceRising  = "rising"
	PriceFalling = "falling"
	PriceStable  = "stable"
	PriceUnknown = "unknown"
)

// PriceTrend compares what new listings charge with established ones.
// Volatility is the coefficient of variation in percent.  ChangePct is the
// relative gap of the new average over the established average.
type PriceTrend struct {
	AvgPrice            float64 `json:"avg_price"`
	MedianPrice         float64 `json:"median_price"`
	Volatility          float64 `json:"volatility"`
	NewAvgPrice         float64 `json:"new_avg_price"`
	EstablishedAvgPrice float64 `json:"established_avg_price"`
	ChangePct           float64 `json:"change_pct"`
	Direction           string  `json:"direction"`
}

// priceTrend reports PriceUnknown when no listing is priced and PriceStable
// when only one of the two cohorts is.
func (a *Analyzer) priceTrend(all, fresh, established []product.Product) PriceTrend {
	prices := stats.Collect(all, product.PriceOf)
	if len(prices) == 0 {
		return PriceTrend{Direction: PriceUnknown}
	}
	t := PriceTrend{
		AvgPrice:    stats.Round(stats.Mean(prices), 2),
		MedianPrice: stats.Round(stats.Median(prices), 2),
		Volatility:  stats.Round(stats.CoefficientOfVariation(prices)*100, 2),
		Direction:   PriceStable,
	}
	newPrices := stats.Collect(fresh, product.PriceOf)
	oldPrices := stats.Collect(established, product.PriceOf)
	t.NewAvgPrice = stats.Round(stats.Mean(newPrices), 2)
	t.EstablishedAvgPrice = stats.Round(stats.Mean(oldPrices), 2)
	if len(newPrices) == 0 || len(oldPrices) == 0 || t.EstablishedAvgPrice == 0 {
		return t
	}
	change := (t.NewAvgPrice - t.EstablishedAvgPrice) / t.EstablishedAvgPrice
	t.ChangePct = stats.Round(change*100, 2)
	switch {
	case change > a.cfg.PriceChange:
		t.Direction = PriceRising
	case change < -a.cfg.PriceChange:
		t.Direction = PriceFalling
	}
	return t
}

// ─────────────────────────────────────────────────────────────────────────────
// Competition
// ─────────────────────────────────────────────────────────────────────────────

// Competition levels and their trends.
const (
	CompetitionIntense  = "intense"
	CompetitionModerate = "moderate"
	CompetitionLow      = "low"
	CompetitionUnknown  = "unknown"

	CompetitionIntensifying = "intensifying"
	CompetitionSteady       = "stable"
	CompetitionEmerging     = "emerging"
)

// CompetitionTrend scores crowding: up to 2 points for the listing count, 2
// for average reviews and 1 when most listings are highly rated.
type CompetitionTrend struct {
	Level          string  `json:"level"`
	Trend          string  `json:"trend"`
	Points         int     `json:"points"`
	HighRatingRate float64 `json:"high_rating_rate"`
	BrandDiversity float64 `json:"brand_diversity"`
}

func (a *Analyzer) competitionTrend(products []product.Product, avgReviews float64) CompetitionTrend {
	n := len(products)
	high := 0
	brands := map[string]struct{}{}
	for _, p := range products {
		if p.Rating != nil && *p.Rating >= a.cfg.HighRating {
			high++
		}
		if p.Brand != "" {
			brands[p.Brand] = struct{}{}
		}
	}
	t := CompetitionTrend{
		HighRatingRate: stats.Round(stats.SafePercentage(float64(high), float64(n)), 2),
		BrandDiversity: stats.Round(stats.SafePercentage(float64(len(brands)), float64(n)), 2),
	}
	switch {
	case n > 100:
		t.Points += 2
	case n > 50:
		t.Points++
	}
	switch {
	case avgReviews > 500:
		t.Points += 2
	case avgReviews > 100:
		t.Points++
	}
	if t.HighRatingRate > 60 {
		t.Points++
	}
	switch {
	case t.Points >= 4:
		t.Level, t.Trend = CompetitionIntense, CompetitionIntensifying
	case t.Points >= 2:
		t.Level, t.Trend = CompetitionModerate, CompetitionSteady
	default:
		t.Level, t.Trend = CompetitionLow, CompetitionEmerging
	}
	return t
}
