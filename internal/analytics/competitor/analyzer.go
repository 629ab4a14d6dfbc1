// Package competitor benchmarks the listings of one keyword against each
// other: which brands hold the market, how concentrated it is, which
// listings perform best and where in the price ladder competition is thin.
package competitor

import (
	"github.com/turtacn/OceanScout/internal/analytics/market"
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// Config holds the competitor thresholds.  Concentration thresholds are CR4
// percentages.
type Config struct {
	ExcludeAnomalies bool

	// HighConcentration is the CR4 at which a market is flagged as highly
	// concentrated.  VeryHighConcentration and ModerateConcentration bound
	// the neighbouring levels.
	HighConcentration     float64
	VeryHighConcentration float64
	ModerateConcentration float64

	// TopPerformers caps the performer ranking.
	TopPerformers int

	// A benchmark listing reaches BenchmarkScore with at least
	// BenchmarkRating and BenchmarkReviews.
	BenchmarkScore   float64
	BenchmarkRating  float64
	BenchmarkReviews int

	// StrongScore separates strong from ordinary performers in tiers,
	// success patterns and gap detection.
	StrongScore float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ExcludeAnomalies:      true,
		HighConcentration:     50,
		VeryHighConcentration: 75,
		ModerateConcentration: 30,
		TopPerformers:         20,
		BenchmarkScore:        70,
		BenchmarkRating:       4.0,
		BenchmarkReviews:      100,
		StrongScore:           70,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HighConcentration <= 0 {
		c.HighConcentration = d.HighConcentration
	}
	if c.VeryHighConcentration <= 0 {
		c.VeryHighConcentration = d.VeryHighConcentration
	}
	if c.ModerateConcentration <= 0 {
		c.ModerateConcentration = d.ModerateConcentration
	}
	if c.TopPerformers <= 0 {
		c.TopPerformers = d.TopPerformers
	}
	if c.BenchmarkScore <= 0 {
		c.BenchmarkScore = d.BenchmarkScore
	}
	if c.BenchmarkRating <= 0 {
		c.BenchmarkRating = d.BenchmarkRating
	}
	if c.BenchmarkReviews <= 0 {
		c.BenchmarkReviews = d.BenchmarkReviews
	}
	if c.StrongScore <= 0 {
		c.StrongScore = d.StrongScore
	}
	return c
}

// Validate checks that the concentration thresholds are ordered.
func (c Config) Validate() error {
	if !(c.ModerateConcentration < c.HighConcentration && c.HighConcentration < c.VeryHighConcentration) {
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid,
			"concentration thresholds must satisfy moderate < high < very high, got %v/%v/%v",
			c.ModerateConcentration, c.HighConcentration, c.VeryHighConcentration)
	}
	if c.VeryHighConcentration > 100 {
		return errors.Newf(errors.ErrCodeAnalysisConfigInvalid, "very high concentration %v exceeds 100", c.VeryHighConcentration)
	}
	return nil
}

// BrandRank is one brand in the share ranking.
type BrandRank struct {
	Rank int `json:"rank"`
	market.BrandShare
	AvgRating float64 `json:"avg_rating"`
	AvgPrice  float64 `json:"avg_price"`
}

// Result is the immutable outcome of Analyze.
type Result struct {
	ProductCount  int               `json:"product_count"`
	AnalyzedCount int               `json:"analyzed_count"`
	ShareBasis    market.ShareBasis `json:"share_basis"`
	Brands        []BrandRank       `json:"brands"`
	Concentration Concentration     `json:"concentration"`

	TopPerformers []Performer     `json:"top_performers"`
	Benchmarks    []Benchmark     `json:"benchmarks"`
	Tiers         Tiers           `json:"tiers"`
	Success       SuccessPattern  `json:"success_pattern"`
	Gaps          []CompetitorGap `json:"gaps"`
}

// Analyzer benchmarks competitors.  It holds only its immutable Config and
// is safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an Analyzer.  Zero-valued thresholds take defaults.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// MustNewAnalyzer is NewAnalyzer for configurations known to be valid.
func MustNewAnalyzer(cfg Config) *Analyzer {
	a, err := NewAnalyzer(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze ranks brands and listings.  market may be nil.  An empty set
// yields empty rankings and ConcentrationUnknown.
func (a *Analyzer) Analyze(products []product.Product, m *product.KeywordMarketData) (*Result, error) {
	if err := product.ValidateAll(products); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	set := products
	if a.cfg.ExcludeAnomalies {
		set = product.WithoutAnomalies(products)
	}

	res := &Result{
		ProductCount:  len(products),
		AnalyzedCount: len(set),
		ShareBasis:    market.ShareBasisNone,
		Brands:        []BrandRank{},
		Concentration: unknownConcentration(),
		TopPerformers: []Performer{},
		Benchmarks:    []Benchmark{},
		Tiers:         emptyTiers(),
		Success:       SuccessPattern{CommonBrands: []BrandCount{}},
		Gaps:          []CompetitorGap{},
	}
	if len(set) == 0 {
		return res, nil
	}

	shares, basis := market.BrandShares(set)
	res.ShareBasis = basis
	res.Brands = rankBrands(set, shares)
	res.Concentration = a.concentration(shares, m)

	performers := a.Performers(set)
	res.TopPerformers = performers
	if len(res.TopPerformers) > a.cfg.TopPerformers {
		res.TopPerformers = res.TopPerformers[:a.cfg.TopPerformers]
	}
	res.Benchmarks = a.benchmarks(performers)
	res.Tiers = a.tiers(performers)
	res.Success = a.successPattern(performers)
	res.Gaps = a.gaps(performers)
	return res, nil
}

func rankBrands(products []product.Product, shares []market.BrandShare) []BrandRank {
	_, groups := stats.GroupBy(products, product.Product.BrandOrUnknown)
	out := make([]BrandRank, 0, len(shares))
	for i, s := range shares {
		members := groups[s.Brand]
		s.Share = stats.Round(s.Share, 2)
		out = append(out, BrandRank{
			Rank:       i + 1,
			BrandShare: s,
			AvgRating:  stats.Round(stats.Mean(stats.Collect(members, product.RatingOf)), 2),
			AvgPrice:   stats.Round(stats.Mean(stats.Collect(members, product.PriceOf)), 2),
		})
	}
	return out
}
