package blueocean

import (
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// MarketCompetition is the market-level competition index and the inputs it
// was built from.  An empty product set yields an all-zero value: zero means
// "no data", not "no competition".
type MarketCompetition struct {
	Index                 float64 `json:"competition_index"`
	ReviewDensityScore    float64 `json:"review_density_score"`
	RatingQualityScore    float64 `json:"rating_quality_score"`
	ConcentrationScore    float64 `json:"concentration_score"`
	PriceCompetitionScore float64 `json:"price_competition_score"`

	AvgReviews     float64 `json:"avg_reviews"`
	MedianReviews  float64 `json:"median_reviews"`
	AvgRating      float64 `json:"avg_rating"`
	HighRatingRate float64 `json:"high_rating_rate"`
	HHI            float64 `json:"hhi"`
	PriceCV        float64 `json:"price_cv"`
	Brands         int     `json:"brands"`

	// BrandShares maps brand to its share in percentage points.
	BrandShares map[string]float64 `json:"-"`
}

// MarketCompetitionIndex computes the weighted competition index of products.
//
//	review density    NormalizeLinear(avg reviews, 0, ReviewDensityCeiling)
//	rating quality    % of rated products at or above HighRatingThreshold
//	concentration     HHI / 100
//	price competition 100 − NormalizeLinear(price CV, 0, 1); 0 below two prices
func (a *Analyzer) MarketCompetitionIndex(products []product.Product) MarketCompetition {
	mc := MarketCompetition{BrandShares: map[string]float64{}}
	if len(products) == 0 {
		return mc
	}
	cfg := a.cfg

	mc.AvgReviews = market.AverageReviews(products)
	reviews := make([]float64, 0, len(products))
	for _, p := range products {
		if p.ReviewsCount > 0 {
			reviews = append(reviews, float64(p.ReviewsCount))
		}
	}
	mc.MedianReviews = stats.Round(stats.Median(reviews), 2)
	mc.ReviewDensityScore = stats.NormalizeLinear(mc.AvgReviews, 0, cfg.ReviewDensityCeiling, false)

	ratings := stats.Collect(products, product.RatingOf)
	high := 0
	for _, r := range ratings {
		if r >= cfg.HighRatingThreshold {
			high++
		}
	}
	mc.AvgRating = stats.Round(stats.Mean(ratings), 2)
	mc.HighRatingRate = stats.SafePercentage(float64(high), float64(len(ratings)))
	mc.RatingQualityScore = mc.HighRatingRate

	shares, _ := market.BrandShares(products)
	for _, s := range shares {
		mc.BrandShares[s.Brand] = s.Share
	}
	mc.Brands = len(shares)
	mc.HHI = stats.HHI(market.SharePercents(shares))
	mc.ConcentrationScore = stats.Clamp(mc.HHI/100, 0, 100)

	prices := stats.Collect(products, product.PriceOf)
	if len(prices) >= 2 {
		mc.PriceCV = stats.CoefficientOfVariation(prices)
		mc.PriceCompetitionScore = 100 - stats.NormalizeLinear(mc.PriceCV, 0, 1, false)
	}

	w := cfg.IndexWeights
	mc.Index = stats.Round(stats.WeightedSum(
		stats.Component{Name: "review_density", Score: mc.ReviewDensityScore, Weight: w.ReviewDensity},
		stats.Component{Name: "rating_quality", Score: mc.RatingQualityScore, Weight: w.RatingQuality},
		stats.Component{Name: "concentration", Score: mc.ConcentrationScore, Weight: w.Concentration},
		stats.Component{Name: "price_competition", Score: mc.PriceCompetitionScore, Weight: w.PriceCompetition},
	), 2)

	mc.ReviewDensityScore = stats.Round(mc.ReviewDensityScore, 2)
	mc.RatingQualityScore = stats.Round(mc.RatingQualityScore, 2)
	mc.HighRatingRate = stats.Round(mc.HighRatingRate, 2)
	mc.ConcentrationScore = stats.Round(mc.ConcentrationScore, 2)
	mc.PriceCompetitionScore = stats.Round(mc.PriceCompetitionScore, 2)
	mc.HHI = stats.Round(mc.HHI, 2)
	mc.PriceCV = stats.Round(mc.PriceCV, 4)
	return mc
}

// ProductCompetitionIndex places one product against the market: 60% its
// review count relative to the market average (capped at 100) and 40% its
// rating relative to the market average rating (50 at par, ±20 per star).
// An unrated product takes the neutral 50 for the rating term.
func ProductCompetitionIndex(p product.Product, mc MarketCompetition) float64 {
	var reviewScore float64
	if mc.AvgReviews > 0 {
		reviewScore = stats.Clamp(float64(p.ReviewsCount)/mc.AvgReviews*100, 0, 100)
	}
	ratingScore := 50.0
	if p.Rating != nil {
		ratingScore = stats.Clamp(50+(*p.Rating-mc.AvgRating)*20, 0, 100)
	}
	return stats.Round(reviewScore*0.6+ratingScore*0.4, 2)
}
