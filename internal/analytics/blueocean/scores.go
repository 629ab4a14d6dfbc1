package blueocean

import (
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// term is one optional input of a sub-score.  Terms that are not ok drop out
// and their weight is shared among the remaining ones.
type term struct {
	score  float64
	weight float64
	ok     bool
}

// blend returns the weighted mean of the available terms, and false when
// none is available.
func blend(terms ...term) (float64, bool) {
	var sum, weight float64
	for _, t := range terms {
		if !t.ok || t.weight <= 0 {
			continue
		}
		sum += t.score * t.weight
		weight += t.weight
	}
	if weight == 0 {
		return 0, false
	}
	return stats.Clamp(sum/weight, 0, 100), true
}

func ratio(v *float64, ceiling float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return stats.NormalizeLinear(*v, 0, ceiling, false), true
}

// volumeScore is the sigmoid of monthly sales; unknown sales score 0.
func (a *Analyzer) volumeScore(p product.Product) float64 {
	if p.SalesVolume == nil {
		return 0
	}
	return stats.NormalizeSigmoid(float64(*p.SalesVolume), a.cfg.SalesMidpoint, a.cfg.SalesSteepness)
}

// DemandScore rates keyword demand: search volume (log scale), purchase
// rate, click rate and conversion rate.  Signals that were not collected
// drop out.  Without any keyword signal the score falls back to the sigmoid
// of the product's own monthly sales.
func (a *Analyzer) DemandScore(p product.Product, m *product.KeywordMarketData) float64 {
	if m != nil {
		w := a.cfg.DemandWeights
		purchase, purchaseOK := ratio(m.PurchaseRate, a.cfg.PurchaseRateCeiling)
		click, clickOK := ratio(m.ClickRate, a.cfg.ClickRateCeiling)
		conversion, conversionOK := ratio(m.ConversionRate, a.cfg.ConversionRateCeiling)
		score, ok := blend(
			term{stats.NormalizeLog(float64(m.MonthlySearches), 0, a.cfg.SearchCeiling, false), w.Search, m.HasSearches()},
			term{purchase, w.Purchase, purchaseOK},
			term{click, w.Click, clickOK},
			term{conversion, w.Conversion, conversionOK},
		)
		if ok {
			return score
		}
	}
	return a.volumeScore(p)
}

// CompetitionScore rates how well p can compete in its market.  Reviews,
// monopoly rate and CR4 are inverted: fewer reviews than the market average
// and a less concentrated market score high.  Rating is not inverted; a
// rating above the market average scores high.  With no usable input the
// score is a neutral 50.
func (a *Analyzer) CompetitionScore(p product.Product, mc MarketCompetition, m *product.KeywordMarketData) float64 {
	w := a.cfg.CompetitionWeights

	reviews := term{weight: w.Reviews, ok: mc.AvgReviews > 0}
	if reviews.ok {
		reviews.score = 100 - stats.Clamp(float64(p.ReviewsCount)/mc.AvgReviews*100, 0, 100)
	}
	rating := term{weight: w.Rating, ok: p.Rating != nil && mc.AvgRating > 0}
	if rating.ok {
		rating.score = stats.Clamp(50+(*p.Rating-mc.AvgRating)*20, 0, 100)
	}
	monopoly := term{weight: w.Monopoly}
	cr4 := term{weight: w.CR4}
	if m != nil {
		if m.MonopolyRate != nil {
			monopoly.score, monopoly.ok = 100-*m.MonopolyRate*100, true
		}
		if m.CR4 != nil {
			cr4.score, cr4.ok = 100-*m.CR4*100, true
		}
	}

	score, ok := blend(reviews, rating, monopoly, cr4)
	if !ok {
		return 50
	}
	return score
}

// BarrierScore rates how low the barrier to entry is around p: few reviews
// (log scale), a low rating and a small brand share all score high.
func (a *Analyzer) BarrierScore(p product.Product, mc MarketCompetition) float64 {
	w := a.cfg.BarrierWeights
	rating := term{weight: w.Rating, ok: p.Rating != nil}
	if rating.ok {
		rating.score = stats.NormalizeLinear(*p.Rating, 0, 5, true)
	}
	score, _ := blend(
		term{stats.NormalizeLog(float64(p.ReviewsCount), 0, a.cfg.ReviewBarrierCeiling, true), w.Reviews, true},
		rating,
		term{100 - stats.Clamp(mc.BrandShares[p.BrandOrUnknown()], 0, 100), w.Brand, true},
	)
	return score
}

// ProfitScore rates margin potential: the price level (full marks inside the
// profit band, tapering to 0 at $0 and at three times the band ceiling) and
// the sigmoid of monthly sales.
func (a *Analyzer) ProfitScore(p product.Product) float64 {
	w := a.cfg.ProfitWeights
	price := term{weight: w.Price, ok: p.Price != nil}
	if price.ok {
		price.score = a.priceLevel(*p.Price)
	}
	score, _ := blend(
		price,
		term{a.volumeScore(p), w.Volume, p.SalesVolume != nil},
	)
	return score
}

func (a *Analyzer) priceLevel(price float64) float64 {
	lo, hi := a.cfg.ProfitPriceMin, a.cfg.ProfitPriceMax
	switch {
	case price < lo:
		return stats.NormalizeLinear(price, 0, lo, false)
	case price <= hi:
		return 100
	default:
		return stats.NormalizeLinear(price, hi, 3*hi, true)
	}
}

// Score combines the four sub-scores with the configured weights and rounds
// to two decimals.
func (a *Analyzer) Score(demand, competition, barrier, profit float64) float64 {
	w := a.cfg.Weights
	return stats.Round(stats.WeightedSum(
		stats.Component{Name: "demand", Score: demand, Weight: w.Demand},
		stats.Component{Name: "competition", Score: competition, Weight: w.Competition},
		stats.Component{Name: "barrier", Score: barrier, Weight: w.Barrier},
		stats.Component{Name: "profit", Score: profit, Weight: w.Profit},
	), 2)
}
