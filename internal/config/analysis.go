package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/OceanScout/internal/analytics/blueocean"
	"github.com/turtacn/OceanScout/internal/analytics/competitor"
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/scoring"
	"github.com/turtacn/OceanScout/internal/analytics/segmentation"
	"github.com/turtacn/OceanScout/internal/analytics/trend"
)

// asOfLayout is the date format of analysis.as_of.
const asOfLayout = "2006-01-02"

// Dimension weight presets accepted by analysis.scoring.dimension_preset.
const (
	PresetBlueOcean = "blue_ocean"
	PresetBalanced  = "balanced"
)

// MarketSettings mirrors market.Config.
type MarketSettings struct {
	SaturationReviews   float64 `mapstructure:"saturation_reviews"`
	CapitalPriceCeiling float64 `mapstructure:"capital_price_ceiling"`
	SizeSearchCeiling   float64 `mapstructure:"size_search_ceiling"`
	SizeProductCeiling  float64 `mapstructure:"size_product_ceiling"`
}

// WeightSettings is a named weight table.  Missing names weigh 0.
type WeightSettings map[string]float64

// BlueOceanSettings mirrors the thresholds of blueocean.Config.  Weight
// tables left empty keep their defaults.
type BlueOceanSettings struct {
	CompetitionThreshold float64        `mapstructure:"competition_threshold"`
	MinSalesVolume       int            `mapstructure:"min_sales_volume"`
	MaxSalesVolume       int            `mapstructure:"max_sales_volume"`
	MinReviews           int            `mapstructure:"min_reviews"`
	MaxReviews           int            `mapstructure:"max_reviews"`
	MinRating            float64        `mapstructure:"min_rating"`
	MaxAvgReviews        float64        `mapstructure:"max_avg_reviews"`
	HighRatingThreshold  float64        `mapstructure:"high_rating_threshold"`
	TopN                 int            `mapstructure:"top_n"`
	WeakListingThreshold float64        `mapstructure:"weak_listing_threshold"`
	MinWeakListings      int            `mapstructure:"min_weak_listings"`
	Weights              WeightSettings `mapstructure:"weights"`
	IndexWeights         WeightSettings `mapstructure:"index_weights"`
}

// CostSettings mirrors blueocean.CostConfig in plain floats.
type CostSettings struct {
	ProductCostRate float64 `mapstructure:"product_cost_rate"`
	FBARate         float64 `mapstructure:"fba_rate"`
	ReferralRate    float64 `mapstructure:"referral_rate"`
	ShippingPerLb   float64 `mapstructure:"shipping_per_lb"`
	DefaultWeightLb float64 `mapstructure:"default_weight_lb"`
	TargetMargin    float64 `mapstructure:"target_margin"`
}

// AdvertisingSettings mirrors blueocean.AdsConfig in plain floats.
type AdvertisingSettings struct {
	DefaultCPC        float64 `mapstructure:"default_cpc"`
	DefaultACoS       float64 `mapstructure:"default_acos"`
	DefaultConversion float64 `mapstructure:"default_conversion"`
	MaxCPC            float64 `mapstructure:"max_cpc"`
	MaxACoS           float64 `mapstructure:"max_acos"`
}

// ScoringSettings mirrors scoring.Config.
type ScoringSettings struct {
	TopN               int            `mapstructure:"top_n"`
	DimensionPreset    string         `mapstructure:"dimension_preset"`
	ProductWeights     WeightSettings `mapstructure:"product_weights"`
	OpportunityWeights WeightSettings `mapstructure:"opportunity_weights"`
}

// SegmentationSettings mirrors segmentation.Config.
type SegmentationSettings struct {
	TopBrands   int `mapstructure:"top_brands"`
	TopKeywords int `mapstructure:"top_keywords"`
	TierSample  int `mapstructure:"tier_sample"`
}

// TrendSettings mirrors trend.Config.
type TrendSettings struct {
	IntroductionRatio float64 `mapstructure:"introduction_ratio"`
	GrowthRatio       float64 `mapstructure:"growth_ratio"`
	DeclineRatio      float64 `mapstructure:"decline_ratio"`
	DeclineReviews    float64 `mapstructure:"decline_reviews"`
	PriceChange       float64 `mapstructure:"price_change"`
	HighRating        float64 `mapstructure:"high_rating"`
}

// CompetitorSettings mirrors competitor.Config.
type CompetitorSettings struct {
	HighConcentration     float64 `mapstructure:"high_concentration"`
	VeryHighConcentration float64 `mapstructure:"very_high_concentration"`
	ModerateConcentration float64 `mapstructure:"moderate_concentration"`
	TopPerformers         int     `mapstructure:"top_performers"`
	BenchmarkScore        float64 `mapstructure:"benchmark_score"`
	BenchmarkRating       float64 `mapstructure:"benchmark_rating"`
	BenchmarkReviews      int     `mapstructure:"benchmark_reviews"`
	StrongScore           float64 `mapstructure:"strong_score"`
}

// AnalysisConfig holds every analyzer setting.  Zero values keep the
// analyzer defaults; the To* methods build the immutable analyzer configs.
type AnalysisConfig struct {
	// AsOf (YYYY-MM-DD) pins the reference date for listing age.  Empty
	// means the latest available date of each dataset.
	AsOf             string `mapstructure:"as_of"`
	ExcludeAnomalies bool   `mapstructure:"exclude_anomalies"`

	Market       MarketSettings       `mapstructure:"market"`
	BlueOcean    BlueOceanSettings    `mapstructure:"blue_ocean"`
	Cost         CostSettings         `mapstructure:"cost"`
	Advertising  AdvertisingSettings  `mapstructure:"advertising"`
	Scoring      ScoringSettings      `mapstructure:"scoring"`
	Segmentation SegmentationSettings `mapstructure:"segmentation"`
	Trend        TrendSettings        `mapstructure:"trend"`
	Competitor   CompetitorSettings   `mapstructure:"competitor"`
}

// AsOfTime parses AsOf; the zero time means unset.
func (a AnalysisConfig) AsOfTime() (time.Time, error) {
	if a.AsOf == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(asOfLayout, a.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: analysis.as_of %q is not a YYYY-MM-DD date: %w", a.AsOf, err)
	}
	return t, nil
}

func (a AnalysisConfig) asOf() time.Time {
	t, _ := a.AsOfTime()
	return t
}

// Validate checks the date and builds every analyzer that validates its
// configuration.
func (a AnalysisConfig) Validate() error {
	if _, err := a.AsOfTime(); err != nil {
		return err
	}
	switch a.Scoring.DimensionPreset {
	case "", PresetBlueOcean, PresetBalanced:
	default:
		return fmt.Errorf("config: analysis.scoring.dimension_preset %q is invalid; expected %s|%s",
			a.Scoring.DimensionPreset, PresetBlueOcean, PresetBalanced)
	}
	if _, err := blueocean.NewAnalyzer(a.BlueOceanConfig()); err != nil {
		return fmt.Errorf("config: analysis.blue_ocean: %w", err)
	}
	if _, err := scoring.NewAnalyzer(a.ScoringConfig()); err != nil {
		return fmt.Errorf("config: analysis.scoring: %w", err)
	}
	if _, err := competitor.NewAnalyzer(a.CompetitorConfig()); err != nil {
		return fmt.Errorf("config: analysis.competitor: %w", err)
	}
	return nil
}

// MarketConfig builds the market analyzer config.
func (a AnalysisConfig) MarketConfig() market.Config {
	s := a.Market
	return market.Config{
		AsOf:                a.asOf(),
		ExcludeAnomalies:    a.ExcludeAnomalies,
		SaturationReviews:   s.SaturationReviews,
		CapitalPriceCeiling: s.CapitalPriceCeiling,
		SizeSearchCeiling:   s.SizeSearchCeiling,
		SizeProductCeiling:  s.SizeProductCeiling,
	}
}

// BlueOceanConfig builds the blue-ocean analyzer config, cost and
// advertising included.
func (a AnalysisConfig) BlueOceanConfig() blueocean.Config {
	s := a.BlueOcean
	cfg := blueocean.Config{
		CompetitionThreshold: s.CompetitionThreshold,
		MinSalesVolume:       s.MinSalesVolume,
		MaxSalesVolume:       s.MaxSalesVolume,
		MinReviews:           s.MinReviews,
		MaxReviews:           s.MaxReviews,
		MinRating:            s.MinRating,
		MaxAvgReviews:        s.MaxAvgReviews,
		HighRatingThreshold:  s.HighRatingThreshold,
		TopN:                 s.TopN,
		ExcludeAnomalies:     a.ExcludeAnomalies,
		WeakListingThreshold: s.WeakListingThreshold,
		MinWeakListings:      s.MinWeakListings,
		Cost: blueocean.CostConfig{
			ProductCostRate: dec(a.Cost.ProductCostRate),
			FBARate:         dec(a.Cost.FBARate),
			ReferralRate:    dec(a.Cost.ReferralRate),
			ShippingPerLb:   dec(a.Cost.ShippingPerLb),
			DefaultWeightLb: dec(a.Cost.DefaultWeightLb),
			TargetMargin:    dec(a.Cost.TargetMargin),
		},
		Ads: blueocean.AdsConfig{
			DefaultCPC:        dec(a.Advertising.DefaultCPC),
			DefaultACoS:       dec(a.Advertising.DefaultACoS),
			DefaultConversion: dec(a.Advertising.DefaultConversion),
			MaxCPC:            dec(a.Advertising.MaxCPC),
			MaxACoS:           dec(a.Advertising.MaxACoS),
		},
	}
	if w := s.Weights; len(w) > 0 {
		cfg.Weights = blueocean.ScoreWeights{
			Demand: w["demand"], Competition: w["competition"], Barrier: w["barrier"], Profit: w["profit"],
		}
	}
	if w := s.IndexWeights; len(w) > 0 {
		cfg.IndexWeights = blueocean.IndexWeights{
			ReviewDensity:    w["review_density"],
			RatingQuality:    w["rating_quality"],
			Concentration:    w["concentration"],
			PriceCompetition: w["price_competition"],
		}
	}
	return cfg
}

// ScoringConfig builds the scoring config.
func (a AnalysisConfig) ScoringConfig() scoring.Config {
	s := a.Scoring
	cfg := scoring.Config{
		AsOf:             a.asOf(),
		ExcludeAnomalies: a.ExcludeAnomalies,
		TopN:             s.TopN,
	}
	if s.DimensionPreset == PresetBalanced {
		cfg.DimensionWeights = scoring.BalancedDimensionWeights()
	}
	if w := s.ProductWeights; len(w) > 0 {
		cfg.ProductWeights = scoring.ProductWeights{
			Sales: w["sales"], Rating: w["rating"], Price: w["price"], Reviews: w["reviews"], Age: w["age"],
		}
	}
	if w := s.OpportunityWeights; len(w) > 0 {
		cfg.OpportunityWeights = scoring.OpportunityWeights{
			Size: w["size"], Growth: w["growth"], Competition: w["competition"],
		}
	}
	return cfg
}

// SegmentationConfig builds the segmentation config.
func (a AnalysisConfig) SegmentationConfig() segmentation.Config {
	return segmentation.Config{
		ExcludeAnomalies: a.ExcludeAnomalies,
		TopBrands:        a.Segmentation.TopBrands,
		TopKeywords:      a.Segmentation.TopKeywords,
		TierSample:       a.Segmentation.TierSample,
	}
}

// TrendConfig builds the trend config.
func (a AnalysisConfig) TrendConfig() trend.Config {
	s := a.Trend
	return trend.Config{
		AsOf:              a.asOf(),
		ExcludeAnomalies:  a.ExcludeAnomalies,
		IntroductionRatio: s.IntroductionRatio,
		GrowthRatio:       s.GrowthRatio,
		DeclineRatio:      s.DeclineRatio,
		DeclineReviews:    s.DeclineReviews,
		PriceChange:       s.PriceChange,
		HighRating:        s.HighRating,
	}
}

// CompetitorConfig builds the competitor config.
func (a AnalysisConfig) CompetitorConfig() competitor.Config {
	s := a.Competitor
	return competitor.Config{
		ExcludeAnomalies:      a.ExcludeAnomalies,
		HighConcentration:     s.HighConcentration,
		VeryHighConcentration: s.VeryHighConcentration,
		ModerateConcentration: s.ModerateConcentration,
		TopPerformers:         s.TopPerformers,
		BenchmarkScore:        s.BenchmarkScore,
		BenchmarkRating:       s.BenchmarkRating,
		BenchmarkReviews:      s.BenchmarkReviews,
		StrongScore:           s.StrongScore,
	}
}

func dec(v float64) decimal.Decimal {
	if v == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
