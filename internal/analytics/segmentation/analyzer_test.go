package segmentation_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/analytics/segmentation"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/testutil"
)

func analyze(t *testing.T, products []product.Product, m *product.KeywordMarketData) *segmentation.Result {
	t.Helper()
	res, err := segmentation.NewAnalyzer(segmentation.DefaultConfig()).Analyze(products, m)
	require.NoError(t, err)
	return res
}

func counts(segs []segmentation.Segment) map[string]int {
	out := make(map[string]int, len(segs))
	for _, s := range segs {
		out[s.Label] = s.Count
	}
	return out
}

func labels(segs []segmentation.Segment) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		out = append(out, s.Label)
	}
	return out
}

func TestAnalyze_EmptyKeepsBandShape(t *testing.T) {
	t.Parallel()

	res := analyze(t, nil, nil)
	assert.Zero(t, res.AnalyzedCount)
	assert.Equal(t, []string{"budget", "economy", "mid_range", "premium", "luxury"}, labels(res.Price))
	for _, s := range res.Price {
		assert.Zero(t, s.Count)
	}
	assert.Len(t, res.Rating, 5)
	assert.Len(t, res.Sales, 5)
	assert.Empty(t, res.Brands.TopBrands)
	assert.NotNil(t, res.Opportunities)
	assert.Empty(t, res.Opportunities)
	assert.Zero(t, res.Keywords.Total)
	assert.Len(t, res.Keywords.Tiers, 3)
}

func TestAnalyze_PriceBands(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		testutil.NewProduct("A", testutil.WithPrice(10)),
		testutil.NewProduct("B", testutil.WithPrice(15)),
		testutil.NewProduct("C", testutil.WithPrice(29.99)),
		testutil.NewProduct("D", testutil.WithPrice(30)),
		testutil.NewProduct("E", testutil.WithPrice(60)),
		testutil.NewProduct("F", testutil.WithPrice(100)),
		testutil.NewProduct("G", testutil.WithoutPrice()),
	}
	res := analyze(t, products, nil)

	assert.Equal(t, map[string]int{
		"budget": 1, "economy": 2, "mid_range": 1, "premium": 1, "luxury": 1,
		segmentation.LabelUnpriced: 1,
	}, counts(res.Price))
	assert.Equal(t, segmentation.LabelUnpriced, res.Price[len(res.Price)-1].Label)

	economy := res.Price[1]
	assert.InDelta(t, 22.5, economy.AvgPrice, 0.01)
	assert.Equal(t, 400, economy.TotalSales)
	assert.InDelta(t, 28.57, economy.MarketShare, 1e-9)
}

func TestAnalyze_RatingBandsIncludePerfectScore(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		testutil.NewProduct("A", testutil.WithRating(5.0)),
		testutil.NewProduct("B", testutil.WithRating(4.5)),
		testutil.NewProduct("C", testutil.WithRating(4.2)),
		testutil.NewProduct("D", testutil.WithRating(2.0)),
		testutil.NewProduct("E", testutil.WithoutRating()),
	}
	res := analyze(t, products, nil)
	assert.Equal(t, map[string]int{
		"excellent": 2, "good": 1, "average": 0, "below_average": 0, "poor": 1,
		segmentation.LabelUnrated: 1,
	}, counts(res.Rating))
}

func TestAnalyze_SalesBands(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		testutil.NewProduct("A", testutil.WithSales(900)),
		testutil.NewProduct("B", testutil.WithSales(500)),
		testutil.NewProduct("C", testutil.WithSales(120)),
		testutil.NewProduct("D", testutil.WithSales(5)),
	}
	res := analyze(t, products, nil)
	assert.Equal(t, map[string]int{
		"best_sellers": 2, "popular": 1, "moderate": 0, "slow_movers": 0, "poor_sellers": 1,
	}, counts(res.Sales))
	assert.Equal(t, 1400, res.Sales[0].TotalSales)
	assert.InDelta(t, 700.0, res.Sales[0].AvgSales, 1e-9)
}

func TestAnalyze_Brands(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		testutil.NewProduct("A1", testutil.WithBrand("Acme")),
		testutil.NewProduct("A2", testutil.WithBrand("Acme")),
		testutil.NewProduct("B1", testutil.WithBrand("Bolt")),
		testutil.NewProduct("G1", testutil.WithBrand("")),
	}
	res := analyze(t, products, nil)

	b := res.Brands
	assert.Equal(t, 3, b.BrandCount)
	require.Len(t, b.TopBrands, 3)
	assert.Equal(t, "Acme", b.TopBrands[0].Label)
	assert.Equal(t, 2, b.TopBrands[0].Count)
	assert.InDelta(t, 50.0, b.TopBrands[0].MarketShare, 1e-9)
	assert.Equal(t, "Bolt", b.TopBrands[1].Label)
	assert.Equal(t, product.UnknownBrand, b.TopBrands[2].Label)
	assert.Equal(t, 3, b.Branded)
	assert.Equal(t, 1, b.Generic)
	assert.InDelta(t, 75.0, b.BrandedRate, 1e-9)
}

func TestAnalyze_BrandsCapped(t *testing.T) {
	t.Parallel()

	products := make([]product.Product, 0, 25)
	for i := 0; i < 25; i++ {
		products = append(products, testutil.NewProduct(fmt.Sprintf("P%02d", i)))
	}
	res := analyze(t, products, nil)
	assert.Equal(t, 25, res.Brands.BrandCount)
	assert.Len(t, res.Brands.TopBrands, 20)
}

func TestAnalyze_Keywords(t *testing.T) {
	t.Parallel()

	res := analyze(t, testutil.Products(5), testutil.MarketData("yoga mat"))
	ks := res.Keywords

	assert.Equal(t, 3, ks.Total)
	require.Len(t, ks.Tiers, 3)
	for _, tier := range ks.Tiers {
		assert.Equal(t, 1, tier.Count, tier.Label)
	}
	assert.Equal(t, "yoga mat thick", ks.Tiers[0].Keywords[0].Keyword)

	require.Len(t, ks.HighPotential, 2)
	assert.Equal(t, "yoga mat thick", ks.HighPotential[0].Keyword)
	assert.InDelta(t, 483.87, ks.HighPotential[0].Potential, 1e-9)
	assert.InDelta(t, 200.0, ks.HighPotential[1].Potential, 1e-9)

	require.Len(t, ks.Niche, 2)
	assert.Equal(t, "yoga mat travel", ks.Niche[0].Keyword)
	assert.Equal(t, "yoga mat kids", ks.Niche[1].Keyword)
}

func TestTierFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, segmentation.TierHigh, segmentation.TierFor(10001))
	assert.Equal(t, segmentation.TierMedium, segmentation.TierFor(10000))
	assert.Equal(t, segmentation.TierMedium, segmentation.TierFor(1001))
	assert.Equal(t, segmentation.TierLow, segmentation.TierFor(1000))
}

func TestOpportunities(t *testing.T) {
	t.Parallel()

	products := make([]product.Product, 0, 10)
	for i := 0; i < 10; i++ {
		products = append(products, testutil.NewProduct(fmt.Sprintf("P%02d", i)))
	}
	opps := segmentation.Opportunities(products)
	require.Len(t, opps, 2)

	assert.Equal(t, segmentation.OpportunityPremium, opps[0].Segment)
	assert.Zero(t, opps[0].ProductCount)
	assert.Equal(t, segmentation.OpportunityMainstream, opps[1].Segment)
	assert.Equal(t, 10, opps[1].ProductCount)
	assert.Equal(t, 2000, opps[1].TotalSales)
	assert.InDelta(t, 29.99, opps[1].AvgPrice, 1e-9)
}

func TestOpportunities_NewEntrants(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		testutil.NewProduct("N1", testutil.WithReviews(12), testutil.WithRating(4.6), testutil.WithPrice(55)),
		testutil.NewProduct("O1", testutil.WithPrice(55)),
		testutil.NewProduct("O2", testutil.WithPrice(55)),
	}
	opps := segmentation.Opportunities(products)
	var kinds []string
	for _, o := range opps {
		kinds = append(kinds, o.Segment)
	}
	assert.Contains(t, kinds, segmentation.OpportunityNewEntrants)
	assert.NotContains(t, kinds, segmentation.OpportunityPremium)
}
