package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/OceanScout/internal/domain/analysis"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// ReferenceDate is the fixed "as of" date used by fixtures so that age-based
// metrics are reproducible.
var ReferenceDate = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

// ProductOption customises a fixture product.
type ProductOption func(*product.Product)

// NewProduct returns a fully populated, valid product that sits inside every
// default blue-ocean band: price 29.99, rating 4.2, 150 reviews, 200 sales,
// listed a year before ReferenceDate.
func NewProduct(asin string, opts ...ProductOption) product.Product {
	p := product.Product{
		ASIN:          asin,
		Title:         "Fixture product " + asin,
		Brand:         "Brand-" + asin,
		Category:      "Sports & Outdoors",
		Price:         product.Float64Ptr(29.99),
		Rating:        product.Float64Ptr(4.2),
		ReviewsCount:  150,
		SalesVolume:   product.IntPtr(200),
		BSRRank:       product.IntPtr(2500),
		AvailableDate: product.TimePtr(ReferenceDate.AddDate(-1, 0, 0)),
		FeatureBullets: []string{
			"Durable non-slip surface for every workout",
			"Lightweight design with carrying strap included",
			"Eco friendly material free of latex and PVC",
			"Extra thick cushioning protects knees and joints",
			"Easy to clean with soap and water",
		},
	}
	for _, o := range opts {
		o(&p)
	}
	return p
}

// WithBrand sets the brand.
func WithBrand(b string) ProductOption { return func(p *product.Product) { p.Brand = b } }

// WithPrice sets the price.
func WithPrice(v float64) ProductOption {
	return func(p *product.Product) { p.Price = product.Float64Ptr(v) }
}

// WithoutPrice clears the price.
func WithoutPrice() ProductOption { return func(p *product.Product) { p.Price = nil } }

// WithRating sets the rating.
func WithRating(v float64) ProductOption {
	return func(p *product.Product) { p.Rating = product.Float64Ptr(v) }
}

// WithoutRating clears the rating.
func WithoutRating() ProductOption { return func(p *product.Product) { p.Rating = nil } }

// WithReviews sets the review count.
func WithReviews(n int) ProductOption { return func(p *product.Product) { p.ReviewsCount = n } }

// WithSales sets the monthly sales estimate.
func WithSales(n int) ProductOption {
	return func(p *product.Product) { p.SalesVolume = product.IntPtr(n) }
}

// WithoutSales clears the monthly sales estimate.
func WithoutSales() ProductOption { return func(p *product.Product) { p.SalesVolume = nil } }

// WithAgeDays sets the available date to ReferenceDate minus days.
func WithAgeDays(days int) ProductOption {
	return func(p *product.Product) { p.AvailableDate = product.TimePtr(ReferenceDate.AddDate(0, 0, -days)) }
}

// WithoutDate clears the available date.
func WithoutDate() ProductOption { return func(p *product.Product) { p.AvailableDate = nil } }

// WithTitle sets the listing title.
func WithTitle(t string) ProductOption { return func(p *product.Product) { p.Title = t } }

// WithBullets sets the feature bullets.
func WithBullets(b ...string) ProductOption {
	return func(p *product.Product) { p.FeatureBullets = b }
}

// WithWeight sets the shipping weight in pounds.
func WithWeight(lb float64) ProductOption {
	return func(p *product.Product) { p.WeightLb = product.Float64Ptr(lb) }
}

// Anomalous flags the product.
func Anomalous() ProductOption { return func(p *product.Product) { p.HasAnomaly = true } }

// Products builds n fixture products with ASINs P000..Pn-1 and varied
// attributes: prices 10..59, ratings 3.6..4.8, reviews 30..1200, sales 40..900.
func Products(n int) []product.Product {
	out := make([]product.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewProduct(fmt.Sprintf("P%03d", i),
			WithBrand(fmt.Sprintf("Brand%d", i%5)),
			WithPrice(10+float64(i*7%50)),
			WithRating(3.6+float64(i%13)*0.1),
			WithReviews(30+(i*97)%1171),
			WithSales(40+(i*53)%861),
			WithAgeDays(30+(i*41)%900),
		))
	}
	return out
}

// Reversed returns a reversed copy of products.
func Reversed(products []product.Product) []product.Product {
	out := make([]product.Product, len(products))
	for i, p := range products {
		out[len(products)-1-i] = p
	}
	return out
}

// MarketData returns keyword intelligence with every field populated.
func MarketData(keyword string) *product.KeywordMarketData {
	return &product.KeywordMarketData{
		Keyword:         keyword,
		MonthlySearches: 12000,
		PurchaseRate:    product.Float64Ptr(0.12),
		ClickRate:       product.Float64Ptr(0.35),
		ConversionRate:  product.Float64Ptr(0.11),
		MonopolyRate:    product.Float64Ptr(0.25),
		CR4:             product.Float64Ptr(0.38),
		CPCBid:          product.Float64Ptr(0.95),
		TrendDirection:  product.TrendUp,
		KeywordExtensions: []product.KeywordExtension{
			{Keyword: keyword + " thick", SearchVolume: 15000, Competition: 30, Relevance: 90},
			{Keyword: keyword + " travel", SearchVolume: 4200, Competition: 20, Relevance: 80},
			{Keyword: keyword + " kids", SearchVolume: 800, Competition: 10, Relevance: 75},
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// In-memory repositories
// ─────────────────────────────────────────────────────────────────────────────

// MemoryProductRepository is a product.ProductRepository backed by a map.
type MemoryProductRepository struct {
	mu   sync.RWMutex
	data map[string][]product.Product
	Err  error
}

// NewMemoryProductRepository returns an empty repository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{data: make(map[string][]product.Product)}
}

func (r *MemoryProductRepository) ListByKeyword(_ context.Context, keyword string) ([]product.Product, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := append([]product.Product(nil), r.data[keyword]...)
	sort.Slice(list, func(i, j int) bool { return list[i].ASIN < list[j].ASIN })
	return list, nil
}

func (r *MemoryProductRepository) SaveBatch(_ context.Context, keyword string, products []product.Product) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[keyword] = append([]product.Product(nil), products...)
	return nil
}

// MemoryMarketDataRepository is a product.MarketDataRepository backed by a map.
type MemoryMarketDataRepository struct {
	mu   sync.RWMutex
	data map[string]*product.KeywordMarketData
}

// NewMemoryMarketDataRepository returns an empty repository.
func NewMemoryMarketDataRepository() *MemoryMarketDataRepository {
	return &MemoryMarketDataRepository{data: make(map[string]*product.KeywordMarketData)}
}

func (r *MemoryMarketDataRepository) GetByKeyword(_ context.Context, keyword string) (*product.KeywordMarketData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data[keyword], nil
}

func (r *MemoryMarketDataRepository) Save(_ context.Context, data *product.KeywordMarketData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[data.Keyword] = data
	return nil
}

// MemoryRunRepository is an analysis.RunRepository backed by a slice.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs []analysis.Run
	Err  error
}

// NewMemoryRunRepository returns an empty repository.
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{}
}

func (r *MemoryRunRepository) Save(_ context.Context, run *analysis.Run) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	r.runs = append(r.runs, *run)
	return nil
}

func (r *MemoryRunRepository) Get(_ context.Context, id uuid.UUID) (*analysis.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.runs {
		if r.runs[i].ID == id {
			run := r.runs[i]
			return &run, nil
		}
	}
	return nil, errors.New(errors.ErrCodeAnalysisRunNotFound, "analysis run not found").WithDetail("id=" + id.String())
}

func (r *MemoryRunRepository) LatestByKeyword(_ context.Context, keyword string) (*analysis.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.runs) - 1; i >= 0; i-- {
		if r.runs[i].Keyword == keyword {
			run := r.runs[i]
			return &run, nil
		}
	}
	return nil, errors.New(errors.ErrCodeAnalysisRunNotFound, "analysis run not found").WithDetail("keyword=" + keyword)
}

// Len returns the number of saved runs.
func (r *MemoryRunRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

var (
	_ product.ProductRepository    = (*MemoryProductRepository)(nil)
	_ product.MarketDataRepository = (*MemoryMarketDataRepository)(nil)
	_ analysis.RunRepository       = (*MemoryRunRepository)(nil)
)
