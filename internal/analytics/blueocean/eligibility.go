package blueocean

import (
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Reasons a product fails the blue-ocean check.
const (
	ReasonMissingSales       = "missing_sales_volume"
	ReasonMissingRating      = "missing_rating"
	ReasonSalesOutOfBand     = "sales_out_of_band"
	ReasonReviewsOutOfBand   = "reviews_out_of_band"
	ReasonRatingBelowFloor   = "rating_below_floor"
	ReasonReviewsAboveMature = "reviews_above_mature_market_limit"
	ReasonMarketCompetitive  = "market_competition_too_high"
)

// Eligibility is the outcome of the blue-ocean check for one product.
// Reasons lists every failed condition in check order; it is empty exactly
// when Eligible is true.
type Eligibility struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Evaluate applies the blue-ocean rule to p inside a market described by mc.
// A product qualifies only when its sales and reviews sit inside the bands,
// its rating meets the floor and the market index is below the threshold.
// Products without a sales estimate or a rating cannot be evaluated and are
// reported ineligible with the matching reason.
func (a *Analyzer) Evaluate(p product.Product, mc MarketCompetition) Eligibility {
	cfg := a.cfg
	var reasons []string

	if p.SalesVolume == nil {
		reasons = append(reasons, ReasonMissingSales)
	} else if s := *p.SalesVolume; s < cfg.MinSalesVolume || s > cfg.MaxSalesVolume {
		reasons = append(reasons, ReasonSalesOutOfBand)
	}

	if p.ReviewsCount < cfg.MinReviews || p.ReviewsCount > cfg.MaxReviews {
		reasons = append(reasons, ReasonReviewsOutOfBand)
	}

	if p.Rating == nil {
		reasons = append(reasons, ReasonMissingRating)
	} else if *p.Rating < cfg.MinRating {
		reasons = append(reasons, ReasonRatingBelowFloor)
	}

	if mc.AvgReviews > cfg.MaxAvgReviews && float64(p.ReviewsCount) > mc.AvgReviews*0.5 {
		reasons = append(reasons, ReasonReviewsAboveMature)
	}

	if mc.Index >= cfg.CompetitionThreshold {
		reasons = append(reasons, ReasonMarketCompetitive)
	}

	return Eligibility{Eligible: len(reasons) == 0, Reasons: reasons}
}
