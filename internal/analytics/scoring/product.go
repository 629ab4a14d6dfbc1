// Package scoring ranks products and markets independently of the
// blue-ocean framing: a generic per-product composite, a market opportunity
// score built from the market and trend results, and a six-dimension
// comprehensive grade that can compare several keywords.
package scoring

import (
	"sort"
	"time"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// ProductScore is the composite evaluation of one product.  Sub-scores are
// normalized against the product set being scored; a missing attribute
// scores 0.
type ProductScore struct {
	Product product.Product  `json:"product"`
	Sales   float64          `json:"sales_score"`
	Rating  float64          `json:"rating_score"`
	Price   float64          `json:"price_score"`
	Reviews float64          `json:"review_score"`
	Age     float64          `json:"age_score"`
	Score   float64          `json:"score"`
	Grade   stats.GradeLevel `json:"grade"`
}

// Ranked is one entry of a top-N list.
type Ranked struct {
	Rank int `json:"rank"`
	ProductScore
}

// Analyzer computes the scoring-system composites.  It holds only its
// immutable Config and is safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer constructs an Analyzer.  Zero-valued settings take defaults;
// weight tables that do not sum to 1 are rejected.
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

// baseline holds the set-level ranges the sub-scores are normalized against.
type baseline struct {
	asOf                     time.Time
	salesMid, salesSteepness float64
	ratingMin, ratingMax     float64
	priceMin, priceMax       float64
	reviewsMin, reviewsMax   float64
	ageMin, ageMax           float64
}

func (a *Analyzer) baseline(products []product.Product) baseline {
	b := baseline{asOf: a.cfg.AsOf}
	if b.asOf.IsZero() {
		b.asOf = product.LatestAvailableDate(products)
	}
	sales := stats.Collect(products, product.SalesOf)
	b.salesMid = stats.Median(sales)
	if lo, hi := stats.MinMax(sales); hi > lo {
		b.salesSteepness = 4 / (hi - lo)
	}
	b.ratingMin, b.ratingMax = stats.MinMax(stats.Collect(products, product.RatingOf))
	b.priceMin, b.priceMax = stats.MinMax(stats.Collect(products, product.PriceOf))
	b.reviewsMin, b.reviewsMax = stats.MinMax(stats.Collect(products, product.ReviewsOf))
	b.ageMin, b.ageMax = stats.MinMax(stats.Collect(products, func(p product.Product) (float64, bool) {
		d, ok := p.AgeDays(b.asOf)
		return float64(d), ok
	}))
	return b
}

// score evaluates p against b.  Sales follow a sigmoid centred on the set
// median so a runaway best seller cannot dominate; cheaper and younger
// listings score higher on price and age.
func (a *Analyzer) score(p product.Product, b baseline) ProductScore {
	s := ProductScore{Product: p}
	if v, ok := product.SalesOf(p); ok {
		s.Sales = stats.NormalizeSigmoid(v, b.salesMid, b.salesSteepness)
	}
	if v, ok := product.RatingOf(p); ok {
		s.Rating = stats.NormalizeLinear(v, b.ratingMin, b.ratingMax, false)
	}
	if v, ok := product.PriceOf(p); ok {
		s.Price = stats.NormalizeLinear(v, b.priceMin, b.priceMax, true)
	}
	s.Reviews = stats.NormalizeLog(float64(p.ReviewsCount), b.reviewsMin, b.reviewsMax, false)
	if d, ok := p.AgeDays(b.asOf); ok {
		s.Age = stats.NormalizeLinear(float64(d), b.ageMin, b.ageMax, true)
	}

	w := a.cfg.ProductWeights
	total := stats.WeightedSum(
		stats.Component{Name: "sales", Score: s.Sales, Weight: w.Sales},
		stats.Component{Name: "rating", Score: s.Rating, Weight: w.Rating},
		stats.Component{Name: "price", Score: s.Price, Weight: w.Price},
		stats.Component{Name: "reviews", Score: s.Reviews, Weight: w.Reviews},
		stats.Component{Name: "age", Score: s.Age, Weight: w.Age},
	)
	s.Sales = stats.Round(s.Sales, 2)
	s.Rating = stats.Round(s.Rating, 2)
	s.Price = stats.Round(s.Price, 2)
	s.Reviews = stats.Round(s.Reviews, 2)
	s.Age = stats.Round(s.Age, 2)
	s.Score = stats.Round(total, 2)
	s.Grade = stats.Grade(s.Score)
	return s
}

// ScoreProducts scores every product against the set and returns them in
// rank order.
func (a *Analyzer) ScoreProducts(products []product.Product) ([]ProductScore, error) {
	if err := product.ValidateAll(products); err != nil {
		return nil, err
	}
	set := products
	if a.cfg.ExcludeAnomalies {
		set = product.WithoutAnomalies(products)
	}
	b := a.baseline(set)
	out := make([]ProductScore, 0, len(set))
	for _, p := range set {
		out = append(out, a.score(p, b))
	}
	SortByRank(out)
	return out, nil
}

// Rank returns the topN best products; a non-positive topN uses the
// configured TopN.
func (a *Analyzer) Rank(products []product.Product, topN int) ([]Ranked, error) {
	scores, err := a.ScoreProducts(products)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = a.cfg.TopN
	}
	if len(scores) > topN {
		scores = scores[:topN]
	}
	out := make([]Ranked, 0, len(scores))
	for i, s := range scores {
		out = append(out, Ranked{Rank: i + 1, ProductScore: s})
	}
	return out, nil
}

// SortByRank orders scores by score descending, then reviews descending,
// then ASIN ascending.
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
