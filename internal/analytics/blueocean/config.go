package blueocean

import (
	"github.com/shopspring/decimal"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// ScoreWeights weighs the four sub-scores of the blue-ocean score.
type ScoreWeights struct {
	Demand      float64 `json:"demand"`
	Competition float64 `json:"competition"`
	Barrier     float64 `json:"barrier"`
	Profit      float64 `json:"profit"`
}

// DemandWeights weighs the keyword signals of the demand sub-score.
type DemandWeights struct {
	Search     float64 `json:"search"`
	Purchase   float64 `json:"purchase"`
	Click      float64 `json:"click"`
	Conversion float64 `json:"conversion"`
}

// CompetitionWeights weighs the inputs of the competition sub-score.
type CompetitionWeights struct {
	Reviews  float64 `json:"reviews"`
	Rating   float64 `json:"rating"`
	Monopoly float64 `json:"monopoly"`
	CR4      float64 `json:"cr4"`
}

// BarrierWeights weighs the inputs of the barrier sub-score.
type BarrierWeights struct {
	Reviews float64 `json:"reviews"`
	Rating  float64 `json:"rating"`
	Brand   float64 `json:"brand"`
}

// ProfitWeights weighs the inputs of the profit sub-score.
type ProfitWeights struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// IndexWeights weighs the four terms of the market competition index.
type IndexWeights struct {
	ReviewDensity    float64 `json:"review_density"`
	RatingQuality    float64 `json:"rating_quality"`
	Concentration    float64 `json:"concentration"`
	PriceCompetition float64 `json:"price_competition"`
}

// CostConfig parameterises the landed-cost estimate.  Rates are fractions of
// the selling price.
type CostConfig struct {
	ProductCostRate decimal.Decimal
	FBARate         decimal.Decimal
	ReferralRate    decimal.Decimal
	ShippingPerLb   decimal.Decimal
	DefaultWeightLb decimal.Decimal
	TargetMargin    decimal.Decimal
}

// AdsConfig parameterises the advertising viability check.
type AdsConfig struct {
	DefaultCPC        decimal.Decimal
	DefaultACoS       decimal.Decimal
	DefaultConversion decimal.Decimal
	MaxCPC            decimal.Decimal
	MaxACoS           decimal.Decimal
}

// Config holds every threshold and weight of the blue-ocean analyzer.  It is
// passed by value at construction and never changes afterwards.
type Config struct {
	// CompetitionThreshold is the market competition index below which
	// products may qualify.
	CompetitionThreshold float64

	MinSalesVolume int
	MaxSalesVolume int
	MinReviews     int
	MaxReviews     int
	MinRating      float64

	// MaxAvgReviews is the market average above which a product must also
	// hold at most half the average review count.
	MaxAvgReviews float64

	// HighRatingThreshold marks a product as well rated for the rating
	// quality term of the competition index.
	HighRatingThreshold float64

	// ReviewDensityCeiling is the average review count at which review
	// density reaches 100.
	ReviewDensityCeiling float64

	// SalesMidpoint and SalesSteepness shape the sigmoid applied to monthly
	// sales in the profit sub-score and the demand fallback.
	SalesMidpoint  float64
	SalesSteepness float64

	// Demand normalisation ceilings.
	SearchCeiling         float64
	PurchaseRateCeiling   float64
	ClickRateCeiling      float64
	ConversionRateCeiling float64

	// ReviewBarrierCeiling is the review count at which the review barrier
	// is total.
	ReviewBarrierCeiling float64

	// ProfitPriceMin and ProfitPriceMax bound the price band that earns a
	// full price-level score.
	ProfitPriceMin float64
	ProfitPriceMax float64

	// TopN caps the ranked opportunity list.
	TopN int

	// ExcludeAnomalies drops products flagged HasAnomaly before analysis.
	ExcludeAnomalies bool

	// WeakListingThreshold is the listing quality score below which a
	// listing is weak; MinWeakListings is the count of weak listings among
	// the ten best sellers that signals an opening.
	WeakListingThreshold float64
	MinWeakListings      int

	Weights            ScoreWeights
	DemandWeights      DemandWeights
	CompetitionWeights CompetitionWeights
	BarrierWeights     BarrierWeights
	ProfitWeights      ProfitWeights
	IndexWeights       IndexWeights

	Cost CostConfig
	Ads  AdsConfig
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		CompetitionThreshold:  50,
		MinSalesVolume:        50,
		MaxSalesVolume:        500,
		MinReviews:            20,
		MaxReviews:            500,
		MinRating:             3.8,
		MaxAvgReviews:         300,
		HighRatingThreshold:   4.3,
		ReviewDensityCeiling:  1000,
		SalesMidpoint:         200,
		SalesSteepness:        0.02,
		SearchCeiling:         100000,
		PurchaseRateCeiling:   0.20,
		ClickRateCeiling:      0.50,
		ConversionRateCeiling: 0.20,
		ReviewBarrierCeiling:  5000,
		ProfitPriceMin:        20,
		ProfitPriceMax:        60,
		TopN:                  10,
		ExcludeAnomalies:      true,
		WeakListingThreshold:  60,
		MinWeakListings:       4,
		Weights:               ScoreWeights{Demand: 0.30, Competition: 0.30, Barrier: 0.25, Profit: 0.15},
		DemandWeights:         DemandWeights{Search: 0.4, Purchase: 0.3, Click: 0.2, Conversion: 0.1},
		CompetitionWeights:    CompetitionWeights{Reviews: 0.4, Rating: 0.3, Monopoly: 0.2, CR4: 0.1},
		BarrierWeights:        BarrierWeights{Reviews: 0.5, Rating: 0.3, Brand: 0.2},
		ProfitWeights:         ProfitWeights{Price: 0.6, Volume: 0.4},
		IndexWeights:          IndexWeights{ReviewDensity: 0.30, RatingQuality: 0.25, Concentration: 0.25, PriceCompetition: 0.20},
		Cost: CostConfig{
			ProductCostRate: decimal.NewFromFloat(0.30),
			FBARate:         decimal.NewFromFloat(0.15),
			ReferralRate:    decimal.NewFromFloat(0.15),
			ShippingPerLb:   decimal.NewFromFloat(0.50),
			DefaultWeightLb: decimal.NewFromInt(1),
			TargetMargin:    decimal.NewFromFloat(0.35),
		},
		Ads: AdsConfig{
			DefaultCPC:        decimal.NewFromFloat(1.0),
			DefaultACoS:       decimal.NewFromFloat(0.25),
			DefaultConversion: decimal.NewFromFloat(0.10),
			MaxCPC:            decimal.NewFromFloat(1.5),
			MaxACoS:           decimal.NewFromFloat(0.35),
		},
	}
}

// Validate checks bands and weight tables.
func (c Config) Validate() error {
	switch {
	case c.MinSalesVolume < 0 || c.MaxSalesVolume < c.MinSalesVolume:
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid, "blue ocean: sales band [%d,%d] is invalid", c.MinSalesVolume, c.MaxSalesVolume)
	case c.MinReviews < 0 || c.MaxReviews < c.MinReviews:
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid, "blue ocean: reviews band [%d,%d] is invalid", c.MinReviews, c.MaxReviews)
	case c.MinRating < 0 || c.MinRating > 5:
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid, "blue ocean: min rating %v must be within [0,5]", c.MinRating)
	case c.CompetitionThreshold <= 0 || c.CompetitionThreshold > 100:
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid, "blue ocean: competition threshold %v must be within (0,100]", c.CompetitionThreshold)
	case c.ProfitPriceMax <= c.ProfitPriceMin:
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid, "blue ocean: profit price band [%v,%v] is invalid", c.ProfitPriceMin, c.ProfitPriceMax)
	case c.SalesSteepness <= 0:
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid, "blue ocean: sales steepness %v must be positive", c.SalesSteepness)
	}

	tables := []struct {
		name    string
		weights []float64
	}{
		{"score", []float64{c.Weights.Demand, c.Weights.Competition, c.Weights.Barrier, c.Weights.Profit}},
		{"demand", []float64{c.DemandWeights.Search, c.DemandWeights.Purchase, c.DemandWeights.Click, c.DemandWeights.Conversion}},
		{"competition", []float64{c.CompetitionWeights.Reviews, c.CompetitionWeights.Rating, c.CompetitionWeights.Monopoly, c.CompetitionWeights.CR4}},
		{"barrier", []float64{c.BarrierWeights.Reviews, c.BarrierWeights.Rating, c.BarrierWeights.Brand}},
		{"profit", []float64{c.ProfitWeights.Price, c.ProfitWeights.Volume}},
		{"index", []float64{c.IndexWeights.ReviewDensity, c.IndexWeights.RatingQuality, c.IndexWeights.Concentration, c.IndexWeights.PriceCompetition}},
	}
	for _, t := range tables {
		if !stats.WeightsValid(t.weights...) {
			return errors.Newf(errors.ErrCodeAnalysisWeightsInvalid, "blue ocean: %s weights must sum to 1", t.name)
		}
	}
	return nil
}

// withDefaults fills zero-valued scalars from DefaultConfig.  Weight tables
// are replaced only when entirely zero.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CompetitionThreshold == 0 {
		c.CompetitionThreshold = d.CompetitionThreshold
	}
	if c.MinSalesVolume == 0 && c.MaxSalesVolume == 0 {
		c.MinSalesVolume, c.MaxSalesVolume = d.MinSalesVolume, d.MaxSalesVolume
	}
	if c.MinReviews == 0 && c.MaxReviews == 0 {
		c.MinReviews, c.MaxReviews = d.MinReviews, d.MaxReviews
	}
	if c.MinRating == 0 {
		c.MinRating = d.MinRating
	}
	if c.MaxAvgReviews == 0 {
		c.MaxAvgReviews = d.MaxAvgReviews
	}
	if c.HighRatingThreshold == 0 {
		c.HighRatingThreshold = d.HighRatingThreshold
	}
	if c.ReviewDensityCeiling == 0 {
		c.ReviewDensityCeiling = d.ReviewDensityCeiling
	}
	if c.SalesMidpoint == 0 {
		c.SalesMidpoint = d.SalesMidpoint
	}
	if c.SalesSteepness == 0 {
		c.SalesSteepness = d.SalesSteepness
	}
	if c.SearchCeiling == 0 {
		c.SearchCeiling = d.SearchCeiling
	}
	if c.PurchaseRateCeiling == 0 {
		c.PurchaseRateCeiling = d.PurchaseRateCeiling
	}
	if c.ClickRateCeiling == 0 {
		c.ClickRateCeiling = d.ClickRateCeiling
	}
	if c.ConversionRateCeiling == 0 {
		c.ConversionRateCeiling = d.ConversionRateCeiling
	}
	if c.ReviewBarrierCeiling == 0 {
		c.ReviewBarrierCeiling = d.ReviewBarrierCeiling
	}
	if c.ProfitPriceMin == 0 && c.ProfitPriceMax == 0 {
		c.ProfitPriceMin, c.ProfitPriceMax = d.ProfitPriceMin, d.ProfitPriceMax
	}
	if c.TopN <= 0 {
		c.TopN = d.TopN
	}
	if c.WeakListingThreshold == 0 {
		c.WeakListingThreshold = d.WeakListingThreshold
	}
	if c.MinWeakListings == 0 {
		c.MinWeakListings = d.MinWeakListings
	}
	if c.Weights == (ScoreWeights{}) {
		c.Weights = d.Weights
	}
	if c.DemandWeights == (DemandWeights{}) {
		c.DemandWeights = d.DemandWeights
	}
	if c.CompetitionWeights == (CompetitionWeights{}) {
		c.CompetitionWeights = d.CompetitionWeights
	}
	if c.BarrierWeights == (BarrierWeights{}) {
		c.BarrierWeights = d.BarrierWeights
	}
	if c.ProfitWeights == (ProfitWeights{}) {
		c.ProfitWeights = d.ProfitWeights
	}
	if c.IndexWeights == (IndexWeights{}) {
		c.IndexWeights = d.IndexWeights
	}
	c.Cost = c.Cost.withDefaults(d.Cost)
	c.Ads = c.Ads.withDefaults(d.Ads)
	return c
}

func (c CostConfig) withDefaults(d CostConfig) CostConfig {
	if c.ProductCostRate.IsZero() {
		c.ProductCostRate = d.ProductCostRate
	}
	if c.FBARate.IsZero() {
		c.FBARate = d.FBARate
	}
	if c.ReferralRate.IsZero() {
		c.ReferralRate = d.ReferralRate
	}
	if c.ShippingPerLb.IsZero() {
		c.ShippingPerLb = d.ShippingPerLb
	}
	if c.DefaultWeightLb.IsZero() {
		c.DefaultWeightLb = d.DefaultWeightLb
	}
	if c.TargetMargin.IsZero() {
		c.TargetMargin = d.TargetMargin
	}
	return c
}

func (c AdsConfig) withDefaults(d AdsConfig) AdsConfig {
	if c.DefaultCPC.IsZero() {
		c.DefaultCPC = d.DefaultCPC
	}
	if c.DefaultACoS.IsZero() {
		c.DefaultACoS = d.DefaultACoS
	}
	if c.DefaultConversion.IsZero() {
		c.DefaultConversion = d.DefaultConversion
	}
	if c.MaxCPC.IsZero() {
		c.MaxCPC = d.MaxCPC
	}
	if c.MaxACoS.IsZero() {
		c.MaxACoS = d.MaxACoS
	}
	return c
}
