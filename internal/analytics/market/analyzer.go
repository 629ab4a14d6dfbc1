// Package market computes market-level structure for one keyword: size,
// competition intensity, brand concentration, price and rating dispersion,
// maturity, entry difficulty and an overall health index.
package market

import (
	"sort"
	"time"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// ─────────────────────────────────────────────────────────────────────────────
// Classifications
// ─────────────────────────────────────────────────────────────────────────────

// Maturity stages.
const (
	MaturityEmerging         = "emerging"
	MaturityGrowing          = "growing"
	MaturityMature           = "mature"
	MaturitySaturated        = "saturated"
	MaturityInsufficientData = "insufficient_data"
)

// Size ratings keyed on monthly searches.
const (
	SizeLarge   = "large"
	SizeMedium  = "medium"
	SizeSmall   = "small"
	SizeNiche   = "niche"
	SizeUnknown = "unknown"
)

// Competition intensity levels.
const (
	IntensityVeryHigh = "very_high"
	IntensityHigh     = "high"
	IntensityMedium   = "medium"
	IntensityLow      = "low"
	IntensityVeryLow  = "very_low"
	IntensityUnknown  = "unknown"
)

// Composite weights.
var (
	entryDifficultyWeights = struct{ Intensity, Concentration, Capital float64 }{0.40, 0.35, 0.25}
	healthWeights          = struct{ Size, Competition, Maturity float64 }{0.40, 0.35, 0.25}
)

// maturityScores rates each stage for the health index.
var maturityScores = map[string]float64{
	MaturityEmerging:  80,
	MaturityGrowing:   100,
	MaturityMature:    60,
	MaturitySaturated: 30,
}

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config holds the market analyzer thresholds.
type Config struct {
	// AsOf is the reference date for listing age.  Zero means the latest
	// available date in the product set.
	AsOf time.Time

	// ExcludeAnomalies drops products flagged HasAnomaly from every statistic.
	ExcludeAnomalies bool

	// SaturationReviews separates mature from saturated markets once the new
	// product ratio is below 20%.
	SaturationReviews float64

	// CapitalPriceCeiling is the average price at which the capital barrier
	// reaches 100.
	CapitalPriceCeiling float64

	// SizeSearchCeiling and SizeProductCeiling anchor the log-scaled size
	// score with and without keyword search data.
	SizeSearchCeiling  float64
	SizeProductCeiling float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ExcludeAnomalies:    true,
		SaturationReviews:   1000,
		CapitalPriceCeiling: 100,
		SizeSearchCeiling:   200000,
		SizeProductCeiling:  500,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SaturationReviews <= 0 {
		c.SaturationReviews = d.SaturationReviews
	}
	if c.CapitalPriceCeiling <= 0 {
		c.CapitalPriceCeiling = d.CapitalPriceCeiling
	}
	if c.SizeSearchCeiling <= 0 {
		c.SizeSearchCeiling = d.SizeSearchCeiling
	}
	if c.SizeProductCeiling <= 0 {
		c.SizeProductCeiling = d.SizeProductCeiling
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Result
// ─────────────────────────────────────────────────────────────────────────────

// Result is the immutable outcome of Analyze.
type Result struct {
	MarketSize      int64  `json:"market_size"`
	ProductCount    int    `json:"product_count"`
	AnalyzedCount   int    `json:"analyzed_count"`
	MonthlySearches int64  `json:"monthly_searches"`
	SizeRating      string `json:"size_rating"`

	TotalSales int     `json:"total_sales"`
	AvgSales   float64 `json:"avg_sales"`

	CompetitionIntensity float64 `json:"competition_intensity"`
	IntensityLevel       string  `json:"intensity_level"`
	AvgReviews           float64 `json:"avg_reviews"`
	Top10AvgReviews      float64 `json:"top10_avg_reviews"`

	BrandConcentration float64      `json:"brand_concentration"`
	ShareBasis         ShareBasis   `json:"share_basis"`
	TotalBrands        int          `json:"total_brands"`
	TopBrands          []BrandShare `json:"top_brands"`
	CR4                float64      `json:"cr4"`
	CR10               float64      `json:"cr10"`
	ConcentrationLevel string       `json:"concentration_level"`

	AvgPrice        float64 `json:"avg_price"`
	PriceDispersion float64 `json:"price_dispersion"`
	AvgRating       float64 `json:"avg_rating"`
	RatingStdDev    float64 `json:"rating_stddev"`

	SizeScore       float64 `json:"size_score"`
	NewProductRatio float64 `json:"new_product_ratio"`
	Maturity        string  `json:"maturity"`
	EntryDifficulty float64 `json:"entry_difficulty"`
	HealthIndex     float64 `json:"health_index"`

	BlankIndex       float64 `json:"blank_index"`
	BlankLevel       string  `json:"blank_level"`
	OpportunityScore float64 `json:"opportunity_score"`
	OpportunityLevel string  `json:"opportunity_level"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Analyzer
// ─────────────────────────────────────────────────────────────────────────────

// Analyzer computes market structure.  It holds only its immutable Config
// and is safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an Analyzer; zero-valued thresholds take defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze computes the market Result.  market may be nil.  An empty product
// set yields zero scores and MaturityInsufficientData.
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
		ProductCount:       len(products),
		AnalyzedCount:      len(set),
		SizeRating:         SizeUnknown,
		IntensityLevel:     IntensityUnknown,
		ShareBasis:         ShareBasisNone,
		ConcentrationLevel: ConcentrationDispersed,
		Maturity:           MaturityInsufficientData,
		BlankLevel:         stats.LevelLow,
		OpportunityLevel:   stats.LevelLow,
		TopBrands:          []BrandShare{},
	}
	if market != nil {
		res.MonthlySearches = market.MonthlySearches
		res.SizeRating = SizeRating(market.MonthlySearches)
	}
	if len(set) == 0 {
		return res, nil
	}

	// Size.
	res.MarketSize = int64(len(set))
	if market.HasSearches() {
		res.MarketSize = market.MonthlySearches
	}
	for _, p := range set {
		res.TotalSales += p.SalesValue()
	}
	res.AvgSales = stats.Round(stats.SafeDivide(float64(res.TotalSales), float64(len(set)), 0), 2)

	// Competition.
	res.AvgReviews = AverageReviews(set)
	res.Top10AvgReviews = topAverageReviews(set, 10)
	res.CompetitionIntensity = IntensityScore(res.AvgReviews, res.Top10AvgReviews, len(set))
	res.IntensityLevel = IntensityLevelFor(res.CompetitionIntensity)

	// Concentration.
	shares, basis := BrandShares(set)
	pcts := SharePercents(shares)
	res.ShareBasis = basis
	res.TotalBrands = len(shares)
	res.BrandConcentration = stats.Round(stats.HHI(pcts), 2)
	res.CR4 = stats.Round(stats.ConcentrationRatio(pcts, 4), 2)
	res.CR10 = stats.Round(stats.ConcentrationRatio(pcts, 10), 2)
	res.ConcentrationLevel = ConcentrationLevel(res.CR4)
	if len(shares) > 10 {
		shares = shares[:10]
	}
	res.TopBrands = shares

	// Dispersion.
	prices := stats.Collect(set, product.PriceOf)
	res.AvgPrice = stats.Round(stats.Mean(prices), 2)
	res.PriceDispersion = stats.Round(stats.CoefficientOfVariation(stats.FilterOutliersIQR(prices)), 4)
	ratings := stats.Collect(set, product.RatingOf)
	mean, sd := stats.MeanStdDev(ratings)
	res.AvgRating = stats.Round(mean, 2)
	res.RatingStdDev = stats.Round(sd, 4)

	// Maturity.
	asOf := a.cfg.AsOf
	if asOf.IsZero() {
		asOf = product.LatestAvailableDate(set)
	}
	res.NewProductRatio = stats.Round(NewProductRatio(set, asOf), 4)
	res.Maturity = a.maturity(res.NewProductRatio, res.AvgReviews)

	// Composites.
	capital := stats.NormalizeLinear(res.AvgPrice, 0, a.cfg.CapitalPriceCeiling, false)
	res.EntryDifficulty = stats.Round(stats.WeightedSum(
		stats.Component{Name: "intensity", Score: res.CompetitionIntensity, Weight: entryDifficultyWeights.Intensity},
		stats.Component{Name: "concentration", Score: res.BrandConcentration / 100, Weight: entryDifficultyWeights.Concentration},
		stats.Component{Name: "capital", Score: capital, Weight: entryDifficultyWeights.Capital},
	), 2)
	res.SizeScore = stats.Round(a.sizeScore(res.MonthlySearches, len(set)), 2)
	res.HealthIndex = stats.Round(stats.WeightedSum(
		stats.Component{Name: "size", Score: res.SizeScore, Weight: healthWeights.Size},
		stats.Component{Name: "competition", Score: 100 - res.CompetitionIntensity, Weight: healthWeights.Competition},
		stats.Component{Name: "maturity", Score: maturityScores[res.Maturity], Weight: healthWeights.Maturity},
	), 2)

	// Blank index and opportunity.
	if market.HasSearches() {
		res.BlankIndex = stats.Round(stats.SafeDivide(float64(market.MonthlySearches), float64(len(set)), 0), 2)
	}
	res.BlankLevel = BlankLevel(res.BlankIndex)
	res.OpportunityScore = stats.Round(OpportunityScore(res.BlankIndex, res.CompetitionIntensity, res.CR4), 2)
	res.OpportunityLevel = stats.Level(res.OpportunityScore)

	return res, nil
}

func (a *Analyzer) maturity(newRatio, avgReviews float64) string {
	switch {
	case newRatio > 0.40:
		return MaturityEmerging
	case newRatio >= 0.20:
		return MaturityGrowing
	case avgReviews < a.cfg.SaturationReviews:
		return MaturityMature
	default:
		return MaturitySaturated
	}
}

// sizeScore is log-scaled monthly searches, or the listing count when no
// search data was collected.
func (a *Analyzer) sizeScore(searches int64, count int) float64 {
	if searches > 0 {
		return stats.NormalizeLog(float64(searches), 0, a.cfg.SizeSearchCeiling, false)
	}
	return stats.NormalizeLog(float64(count), 0, a.cfg.SizeProductCeiling, false)
}

// ─────────────────────────────────────────────────────────────────────────────
// Building blocks shared with other analyzers
// ─────────────────────────────────────────────────────────────────────────────

// AverageReviews is the mean review count over products that report reviews.
func AverageReviews(products []product.Product) float64 {
	vals := make([]float64, 0, len(products))
	for _, p := range products {
		if p.ReviewsCount > 0 {
			vals = append(vals, float64(p.ReviewsCount))
		}
	}
	return stats.Round(stats.Mean(vals), 2)
}

func topAverageReviews(products []product.Product, n int) float64 {
	reviews := make([]float64, 0, len(products))
	for _, p := range products {
		reviews = append(reviews, float64(p.ReviewsCount))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(reviews)))
	if len(reviews) > n {
		reviews = reviews[:n]
	}
	vals := reviews[:0]
	for _, r := range reviews {
		if r > 0 {
			vals = append(vals, r)
		}
	}
	return stats.Round(stats.Mean(vals), 2)
}

// NewProductRatio is the fraction of products younger than the new-product
// window at asOf.
func NewProductRatio(products []product.Product, asOf time.Time) float64 {
	if len(products) == 0 {
		return 0
	}
	n := 0
	for _, p := range products {
		if p.IsNew(asOf) {
			n++
		}
	}
	return stats.SafeDivide(float64(n), float64(len(products)), 0)
}

// IntensityScore awards up to 40 points for average reviews, 30 for the top
// ten's average reviews and 30 for the number of listings.
func IntensityScore(avgReviews, top10AvgReviews float64, productCount int) float64 {
	var score float64
	switch {
	case avgReviews > 1000:
		score += 40
	case avgReviews > 500:
		score += 30
	case avgReviews > 100:
		score += 20
	default:
		score += 10
	}
	switch {
	case top10AvgReviews > 5000:
		score += 30
	case top10AvgReviews > 2000:
		score += 20
	case top10AvgReviews > 500:
		score += 10
	default:
		score += 5
	}
	switch {
	case productCount > 500:
		score += 30
	case productCount > 200:
		score += 20
	case productCount > 100:
		score += 10
	default:
		score += 5
	}
	return stats.Clamp(score, 0, 100)
}

// IntensityLevelFor classifies an intensity score.
func IntensityLevelFor(score float64) string {
	switch {
	case score >= 80:
		return IntensityVeryHigh
	case score >= 60:
		return IntensityHigh
	case score >= 40:
		return IntensityMedium
	case score >= 20:
		return IntensityLow
	default:
		return IntensityVeryLow
	}
}

// SizeRating classifies monthly searches.
func SizeRating(searches int64) string {
	switch {
	case searches <= 0:
		return SizeUnknown
	case searches > 100000:
		return SizeLarge
	case searches > 50000:
		return SizeMedium
	case searches > 10000:
		return SizeSmall
	default:
		return SizeNiche
	}
}

// BlankLevel classifies searches per listing: >100 high, >50 medium.
func BlankLevel(index float64) string {
	switch {
	case index > 100:
		return stats.LevelHigh
	case index > 50:
		return stats.LevelMedium
	default:
		return stats.LevelLow
	}
}

// OpportunityScore combines the blank index (40 points), inverse intensity
// (30 points) and brand dispersion (30 points).
func OpportunityScore(blankIndex, intensity, cr4 float64) float64 {
	var score float64
	switch {
	case blankIndex > 100:
		score += 40
	case blankIndex > 50:
		score += 25
	case blankIndex > 20:
		score += 10
	}
	score += (100 - intensity) * 0.3
	switch {
	case cr4 < 30:
		score += 30
	case cr4 < 50:
		score += 20
	case cr4 < 70:
		score += 10
	}
	return stats.Clamp(score, 0, 100)
}
