// Package blueocean finds mid-tier "blue ocean" opportunities: products with
// real demand in markets whose competition is not yet saturated.  It scores
// every product on demand, competition, entry barrier and profit, classifies
// the market's opportunity level and estimates landed cost, margin and
// advertising viability.
package blueocean

import (
	"sort"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// ProductScore is the blue-ocean evaluation of one product.
type ProductScore struct {
	Product          product.Product `json:"product"`
	CompetitionIndex float64         `json:"competition_index"`
	Demand           float64         `json:"demand_score"`
	Competition      float64         `json:"competition_score"`
	Barrier          float64         `json:"barrier_score"`
	Profit           float64         `json:"profit_score"`
	Score            float64         `json:"blue_ocean_score"`
	ListingQuality   float64         `json:"listing_quality"`
	Eligibility
}

// Opportunity is one entry of the ranked opportunity list.
type Opportunity struct {
	Rank int `json:"rank"`
	ProductScore
}

// Result is the immutable outcome of Analyze.
type Result struct {
	Competition      MarketCompetition   `json:"market_competition"`
	ProductCount     int                 `json:"product_count"`
	AnalyzedCount    int                 `json:"analyzed_count"`
	BlueOceanCount   int                 `json:"blue_ocean_count"`
	BlueOceanRate    float64             `json:"blue_ocean_rate"`
	Products         []ProductScore      `json:"products"`
	TopOpportunities []Opportunity       `json:"top_opportunities"`
	Segments         []Segment           `json:"segments"`
	Assessment       Assessment          `json:"assessment"`
	WeakListings     WeakListingAnalysis `json:"weak_listings"`
	Profit           ProfitSummary       `json:"profit"`
	Advertising      AdvertisingAnalysis `json:"advertising"`
}

// Analyzer runs the blue-ocean analysis.  It holds only its immutable Config
// and is safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an Analyzer.  Zero-valued settings take defaults;
// invalid bands or weight tables that do not sum to 1 are rejected.
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

// Analyze evaluates every product, ranks the qualifying ones and assesses the
// market.  market may be nil.  Invalid products fail the whole run; an empty
// set yields a zero competition index, no opportunities and level none.
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
		ProductCount:     len(products),
		AnalyzedCount:    len(set),
		Products:         []ProductScore{},
		TopOpportunities: []Opportunity{},
		Segments:         []Segment{},
	}
	res.Competition = a.MarketCompetitionIndex(set)
	if len(set) == 0 {
		res.Assessment = assess(0, res.Competition)
		res.WeakListings = a.WeakListings(nil)
		res.Profit = a.ProfitAnalysis(nil)
		res.Advertising = a.AdvertisingViability(nil, market)
		return res, nil
	}

	for _, p := range set {
		s := a.ScoreProduct(p, res.Competition, market)
		if s.Eligible {
			res.BlueOceanCount++
		}
		res.Products = append(res.Products, s)
	}
	SortByRank(res.Products)

	res.BlueOceanRate = stats.Round(stats.SafePercentage(float64(res.BlueOceanCount), float64(len(set))), 2)
	res.TopOpportunities = a.topOpportunities(res.Products)
	res.Segments = segment(res.Products)
	res.Assessment = assess(res.BlueOceanRate, res.Competition)
	res.WeakListings = a.WeakListings(set)
	res.Profit = a.ProfitAnalysis(set)
	res.Advertising = a.AdvertisingViability(set, market)
	return res, nil
}

// ScoreProduct evaluates one product against a market.
func (a *Analyzer) ScoreProduct(p product.Product, mc MarketCompetition, market *product.KeywordMarketData) ProductScore {
	demand := a.DemandScore(p, market)
	competition := a.CompetitionScore(p, mc, market)
	barrier := a.BarrierScore(p, mc)
	profit := a.ProfitScore(p)
	return ProductScore{
		Product:          p,
		CompetitionIndex: ProductCompetitionIndex(p, mc),
		Demand:           stats.Round(demand, 2),
		Competition:      stats.Round(competition, 2),
		Barrier:          stats.Round(barrier, 2),
		Profit:           stats.Round(profit, 2),
		Score:            a.Score(demand, competition, barrier, profit),
		ListingQuality:   ListingQualityScore(p),
		Eligibility:      a.Evaluate(p, mc),
	}
}

// SortByRank orders scores by blue-ocean score descending, then reviews
// descending, then ASIN ascending.
func SortByRank(scores []ProductScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Product.ReviewsCount != b.Product.ReviewsCount {
			return a.Product.ReviewsCount > b.Product.ReviewsCount
		}
		return a.Product.ASIN < b.Product.ASIN
	})
}

// topOpportunities returns the first TopN eligible products of the ranked
// list.
func (a *Analyzer) topOpportunities(ranked []ProductScore) []Opportunity {
	out := []Opportunity{}
	for _, s := range ranked {
		if !s.Eligible {
			continue
		}
		out = append(out, Opportunity{Rank: len(out) + 1, ProductScore: s})
		if len(out) == a.cfg.TopN {
			break
		}
	}
	return out
}
