package competitor

import (
	"sort"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Performer is one listing with its performance score.
type Performer struct {
	ASIN    string   `json:"asin"`
	Title   string   `json:"title,omitempty"`
	Brand   string   `json:"brand"`
	Price   *float64 `json:"price,omitempty"`
	Rating  *float64 `json:"rating,omitempty"`
	Reviews int      `json:"reviews_count"`
	Sales   *int     `json:"sales_volume,omitempty"`
	Score   float64  `json:"performance_score"`
}

func (p Performer) salesValue() int {
	if p.Sales == nil {
		return 0
	}
	return *p.Sales
}

// PerformanceScore awards up to 40 points for monthly sales, 30 for rating
// and 30 for review count.  Missing values take the lowest tier.
func PerformanceScore(p product.Product) float64 {
	var score float64
	switch sales := p.SalesValue(); {
	case sales >= 1000:
		score += 40
	case sales >= 500:
		score += 35
	case sales >= 100:
		score += 30
	case sales >= 50:
		score += 20
	default:
		score += 10
	}
	switch rating := p.RatingValue(); {
	case rating >= 4.5:
		score += 30
	case rating >= 4.0:
		score += 25
	case rating >= 3.5:
		score += 20
	case rating >= 3.0:
		score += 10
	default:
		score += 5
	}
	switch reviews := p.ReviewsCount; {
	case reviews >= 5000:
		score += 30
	case reviews >= 1000:
		score += 25
	case reviews >= 500:
		score += 20
	case reviews >= 100:
		score += 15
	default:
		score += 5
	}
	return score
}

// Performers scores every product and orders them by score descending, then
// sales descending, then ASIN ascending.
func (a *Analyzer) Performers(products []product.Product) []Performer {
	out := make([]Performer, 0, len(products))
	for _, p := range products {
		out = append(out, Performer{
			ASIN:    p.ASIN,
			Title:   p.Title,
			Brand:   p.BrandOrUnknown(),
			Price:   p.Price,
			Rating:  p.Rating,
			Reviews: p.ReviewsCount,
			Sales:   p.SalesVolume,
			Score:   PerformanceScore(p),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if si, sj := out[i].salesValue(), out[j].salesValue(); si != sj {
			return si > sj
		}
		return out[i].ASIN < out[j].ASIN
	})
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Benchmarks
// ─────────────────────────────────────────────────────────────────────────────

// Benchmark reasons.
const (
	ReasonHighRating  = "high_rating"
	ReasonManyReviews = "many_reviews"
	ReasonHighSales   = "high_sales"
	ReasonOutstanding = "outstanding_overall"
	ReasonSolid       = "solid_overall"
)

// Benchmark is a listing worth studying before entering the market.
type Benchmark struct {
	Performer
	Reasons []string `json:"reasons"`
}

func (a *Analyzer) benchmarks(ranked []Performer) []Benchmark {
	out := []Benchmark{}
	for _, p := range ranked {
		rating := 0.0
		if p.Rating != nil {
			rating = *p.Rating
		}
		if p.Score < a.cfg.BenchmarkScore || rating < a.cfg.BenchmarkRating || p.Reviews < a.cfg.BenchmarkReviews {
			continue
		}
		var reasons []string
		if rating >= 4.5 {
			reasons = append(reasons, ReasonHighRating)
		}
		if p.Reviews >= 1000 {
			reasons = append(reasons, ReasonManyReviews)
		}
		if p.salesValue() >= 500 {
			reasons = append(reasons, ReasonHighSales)
		}
		if p.Score >= 85 {
			reasons = append(reasons, ReasonOutstanding)
		}
		if len(reasons) == 0 {
			reasons = append(reasons, ReasonSolid)
		}
		out = append(out, Benchmark{Performer: p, Reasons: reasons})
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Price tiers
// ─────────────────────────────────────────────────────────────────────────────

// Tiers splits priced listings at the lower and upper price terciles.
// Expensive listings that perform well are high end; cheap ones that perform
// well are value for money.  Each tier keeps the ranking order.
type Tiers struct {
	LowerCut      float64     `json:"lower_cut"`
	UpperCut      float64     `json:"upper_cut"`
	HighEnd       []Performer `json:"high_end"`
	MidRange      []Performer `json:"mid_range"`
	LowEnd        []Performer `json:"low_end"`
	ValueForMoney []Performer `json:"value_for_money"`
}

func emptyTiers() Tiers {
	return Tiers{HighEnd: []Performer{}, MidRange: []Performer{}, LowEnd: []Performer{}, ValueForMoney: []Performer{}}
}

func (a *Analyzer) tiers(ranked []Performer) Tiers {
	t := emptyTiers()
	var prices []float64
	for _, p := range ranked {
		if p.Price != nil && *p.Price > 0 {
			prices = append(prices, *p.Price)
		}
	}
	if len(prices) == 0 {
		return t
	}
	sort.Float64s(prices)
	t.LowerCut = prices[len(prices)/3]
	t.UpperCut = prices[len(prices)*2/3]

	for _, p := range ranked {
		if p.Price == nil || *p.Price <= 0 {
			continue
		}
		strong := p.Score >= a.cfg.StrongScore
		switch price := *p.Price; {
		case price >= t.UpperCut && strong:
			t.HighEnd = append(t.HighEnd, p)
		case price >= t.LowerCut:
			t.MidRange = append(t.MidRange, p)
		case strong:
			t.ValueForMoney = append(t.ValueForMoney, p)
		default:
			t.LowEnd = append(t.LowEnd, p)
		}
	}
	return t
}

// ─────────────────────────────────────────────────────────────────────────────
// Success pattern
// ─────────────────────────────────────────────────────────────────────────────

// BrandCount is a brand and how many strong listings it has.
type BrandCount struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

// SuccessPattern profiles the strong performers.
type SuccessPattern struct {
	Count        int          `json:"count"`
	AvgPrice     float64      `json:"avg_price"`
	MinPrice     float64      `json:"min_price"`
	MaxPrice     float64      `json:"max_price"`
	AvgRating    float64      `json:"avg_rating"`
	AvgReviews   float64      `json:"avg_reviews"`
	CommonBrands []BrandCount `json:"common_brands"`
}

func (a *Analyzer) successPattern(ranked []Performer) SuccessPattern {
	sp := SuccessPattern{CommonBrands: []BrandCount{}}
	var strong []Performer
	for _, p := range ranked {
		if p.Score >= a.cfg.StrongScore {
			strong = append(strong, p)
		}
	}
	if len(strong) == 0 {
		return sp
	}
	sp.Count = len(strong)

	var prices, ratings, reviews []float64
	for _, p := range strong {
		if p.Price != nil {
			prices = append(prices, *p.Price)
		}
		if p.Rating != nil {
			ratings = append(ratings, *p.Rating)
		}
		if p.Reviews > 0 {
			reviews = append(reviews, float64(p.Reviews))
		}
	}
	sp.AvgPrice = stats.Round(stats.Mean(prices), 2)
	lo, hi := stats.MinMax(prices)
	sp.MinPrice, sp.MaxPrice = stats.Round(lo, 2), stats.Round(hi, 2)
	sp.AvgRating = stats.Round(stats.Mean(ratings), 2)
	sp.AvgReviews = stats.Round(stats.Mean(reviews), 2)

	keys, groups := stats.GroupBy(strong, func(p Performer) string { return p.Brand })
	for _, k := range keys {
		sp.CommonBrands = append(sp.CommonBrands, BrandCount{Brand: k, Count: len(groups[k])})
	}
	sort.SliceStable(sp.CommonBrands, func(i, j int) bool {
		return sp.CommonBrands[i].Count > sp.CommonBrands[j].Count
	})
	if len(sp.CommonBrands) > 5 {
		sp.CommonBrands = sp.CommonBrands[:5]
	}
	return sp
}

// ─────────────────────────────────────────────────────────────────────────────
// Competitive gaps
// ─────────────────────────────────────────────────────────────────────────────

// Gap types.
const (
	GapEmpty = "empty"
	GapWeak  = "weak"
)

// gapBands are the price bands scanned for thin competition.
var gapBands = []stats.Range{
	{Label: "under_10", Max: stats.Bound(10)},
	{Label: "10_to_20", Min: stats.Bound(10), Max: stats.Bound(20)},
	{Label: "20_to_50", Min: stats.Bound(20), Max: stats.Bound(50)},
	{Label: "50_to_100", Min: stats.Bound(50), Max: stats.Bound(100)},
	{Label: "over_100", Min: stats.Bound(100)},
}

// CompetitorGap is a price band where competition is absent or weak.
type CompetitorGap struct {
	PriceRange     string  `json:"price_range"`
	Type           string  `json:"type"`
	ProductCount   int     `json:"product_count"`
	AvgPerformance float64 `json:"avg_performance"`
	Opportunity    string  `json:"opportunity"`
}

// gaps reports every empty band as a high opportunity and every band with
// fewer than ten listings averaging under 60 points as a medium one.
func (a *Analyzer) gaps(ranked []Performer) []CompetitorGap {
	priceOf := func(p Performer) (float64, bool) {
		if p.Price == nil || *p.Price <= 0 {
			return 0, false
		}
		return *p.Price, true
	}
	out := []CompetitorGap{}
	for _, g := range stats.GroupByRange(ranked, priceOf, gapBands, "") {
		if g.Label == "" {
			continue
		}
		if len(g.Items) == 0 {
			out = append(out, CompetitorGap{PriceRange: g.Label, Type: GapEmpty, Opportunity: stats.LevelHigh})
			continue
		}
		scores := make([]float64, 0, len(g.Items))
		for _, p := range g.Items {
			scores = append(scores, p.Score)
		}
		avg := stats.Mean(scores)
		if len(g.Items) < 10 && avg < 60 {
			out = append(out, CompetitorGap{
				PriceRange:     g.Label,
				Type:           GapWeak,
				ProductCount:   len(g.Items),
				AvgPerformance: stats.Round(avg, 2),
				Opportunity:    stats.LevelMedium,
			})
		}
	}
	return out
}
