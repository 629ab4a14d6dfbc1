// Package segmentation partitions a keyword's listings by price, rating,
// sales and brand, splits its related keywords into search-volume tiers and
// points out under-served segments.
package segmentation

import (
	"sort"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Missing-value segment labels.
const (
	LabelUnpriced = "unpriced"
	LabelUnrated  = "unrated"
	LabelNoSales  = "no_sales"
)

var (
	priceBands = []stats.Range{
		{Label: "budget", Max: stats.Bound(15)},
		{Label: "economy", Min: stats.Bound(15), Max: stats.Bound(30)},
		{Label: "mid_range", Min: stats.Bound(30), Max: stats.Bound(60)},
		{Label: "premium", Min: stats.Bound(60), Max: stats.Bound(100)},
		{Label: "luxury", Min: stats.Bound(100)},
	}
	ratingBands = []stats.Range{
		{Label: "excellent", Min: stats.Bound(4.5)},
		{Label: "good", Min: stats.Bound(4.0), Max: stats.Bound(4.5)},
		{Label: "average", Min: stats.Bound(3.5), Max: stats.Bound(4.0)},
		{Label: "below_average", Min: stats.Bound(3.0), Max: stats.Bound(3.5)},
		{Label: "poor", Max: stats.Bound(3.0)},
	}
	salesBands = []stats.Range{
		{Label: "best_sellers", Min: stats.Bound(500)},
		{Label: "popular", Min: stats.Bound(100), Max: stats.Bound(500)},
		{Label: "moderate", Min: stats.Bound(50), Max: stats.Bound(100)},
		{Label: "slow_movers", Min: stats.Bound(10), Max: stats.Bound(50)},
		{Label: "poor_sellers", Max: stats.Bound(10)},
	}
)

// Config holds the segmentation limits.
type Config struct {
	ExcludeAnomalies bool

	// TopBrands caps the brand table.
	TopBrands int

	// TopKeywords caps the high-potential and niche keyword lists;
	// TierSample caps the keywords listed per search-volume tier.
	TopKeywords int
	TierSample  int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{ExcludeAnomalies: true, TopBrands: 20, TopKeywords: 20, TierSample: 10}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopBrands <= 0 {
		c.TopBrands = d.TopBrands
	}
	if c.TopKeywords <= 0 {
		c.TopKeywords = d.TopKeywords
	}
	if c.TierSample <= 0 {
		c.TierSample = d.TierSample
	}
	return c
}

// Segment aggregates the listings of one band.  MarketShare is the band's
// share of analyzed listings in percent; AvgReviews doubles as the band's
// competition proxy.
type Segment struct {
	Label       string  `json:"label"`
	Count       int     `json:"count"`
	AvgPrice    float64 `json:"avg_price"`
	AvgRating   float64 `json:"avg_rating"`
	AvgReviews  float64 `json:"avg_reviews"`
	TotalSales  int     `json:"total_sales"`
	AvgSales    float64 `json:"avg_sales"`
	MarketShare float64 `json:"market_share"`
}

// Result is the immutable outcome of Analyze.
type Result struct {
	ProductCount  int                  `json:"product_count"`
	AnalyzedCount int                  `json:"analyzed_count"`
	Price         []Segment            `json:"price_segments"`
	Rating        []Segment            `json:"rating_segments"`
	Sales         []Segment            `json:"sales_segments"`
	Brands        BrandSegmentation    `json:"brand_segments"`
	Keywords      KeywordSegmentation  `json:"keyword_segments"`
	Opportunities []SegmentOpportunity `json:"segment_opportunities"`
}

// Analyzer segments a market.  It holds only its immutable Config and is
// safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an Analyzer; zero-valued limits take defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze segments the products and the keyword extensions of market, which
// may be nil.  Every band is reported, with a zero count when empty; the
// missing-value band only when some listing lacks the attribute.
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

	return &Result{
		ProductCount:  len(products),
		AnalyzedCount: len(set),
		Price:         segments(set, product.PriceOf, priceBands, LabelUnpriced),
		Rating:        segments(set, product.RatingOf, ratingBands, LabelUnrated),
		Sales:         segments(set, product.SalesOf, salesBands, LabelNoSales),
		Brands:        a.brands(set),
		Keywords:      a.keywords(market),
		Opportunities: Opportunities(set),
	}, nil
}

func segments(products []product.Product, value func(product.Product) (float64, bool), bands []stats.Range, missing string) []Segment {
	groups := stats.GroupByRange(products, value, bands, missing)
	out := make([]Segment, 0, len(groups))
	for _, g := range groups {
		out = append(out, summarize(g.Label, g.Items, len(products)))
	}
	return out
}

func summarize(label string, members []product.Product, total int) Segment {
	s := Segment{
		Label:       label,
		Count:       len(members),
		MarketShare: stats.Round(stats.SafePercentage(float64(len(members)), float64(total)), 2),
	}
	if len(members) == 0 {
		return s
	}
	sales := stats.Collect(members, product.SalesOf)
	for _, v := range sales {
		s.TotalSales += int(v)
	}
	s.AvgPrice = stats.Round(stats.Mean(stats.Collect(members, product.PriceOf)), 2)
	s.AvgRating = stats.Round(stats.Mean(stats.Collect(members, product.RatingOf)), 2)
	s.AvgReviews = stats.Round(stats.Mean(stats.Collect(members, product.ReviewsOf)), 2)
	s.AvgSales = stats.Round(stats.Mean(sales), 2)
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Brands
// ─────────────────────────────────────────────────────────────────────────────

// BrandSegment is one brand's footprint.
type BrandSegment struct {
	Segment
}

// BrandSegmentation ranks brands by listing count and splits branded from
// generic listings.
type BrandSegmentation struct {
	TopBrands   []BrandSegment `json:"top_brands"`
	BrandCount  int            `json:"brand_count"`
	Branded     int            `json:"branded"`
	Generic     int            `json:"generic"`
	BrandedRate float64        `json:"branded_rate"`
}

func (a *Analyzer) brands(products []product.Product) BrandSegmentation {
	bs := BrandSegmentation{TopBrands: []BrandSegment{}}
	if len(products) == 0 {
		return bs
	}
	keys, groups := stats.GroupBy(products, product.Product.BrandOrUnknown)
	for _, k := range keys {
		bs.TopBrands = append(bs.TopBrands, BrandSegment{summarize(k, groups[k], len(products))})
	}
	sort.SliceStable(bs.TopBrands, func(i, j int) bool {
		return bs.TopBrands[i].Count > bs.TopBrands[j].Count
	})
	bs.BrandCount = len(keys)
	if len(bs.TopBrands) > a.cfg.TopBrands {
		bs.TopBrands = bs.TopBrands[:a.cfg.TopBrands]
	}
	for _, p := range products {
		if p.BrandOrUnknown() != product.UnknownBrand {
			bs.Branded++
		}
	}
	bs.Generic = len(products) - bs.Branded
	bs.BrandedRate = stats.Round(stats.SafePercentage(float64(bs.Branded), float64(len(products))), 2)
	return bs
}
