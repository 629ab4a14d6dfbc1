package blueocean_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/analytics/blueocean"
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/testutil"
	"github.com/turtacn/OceanScout/pkg/errors"
)

func newAnalyzer(t *testing.T) *blueocean.Analyzer {
	t.Helper()
	a, err := blueocean.NewAnalyzer(blueocean.DefaultConfig())
	require.NoError(t, err)
	return a
}

func TestDefaultConfig_WeightTablesSumToOne(t *testing.T) {
	t.Parallel()

	cfg := blueocean.DefaultConfig()
	require.NoError(t, cfg.Validate())

	w := cfg.Weights
	assert.InDelta(t, 1.0, w.Demand+w.Competition+w.Barrier+w.Profit, stats.WeightTolerance)
	d := cfg.DemandWeights
	assert.InDelta(t, 1.0, d.Search+d.Purchase+d.Click+d.Conversion, stats.WeightTolerance)
	c := cfg.CompetitionWeights
	assert.InDelta(t, 1.0, c.Reviews+c.Rating+c.Monopoly+c.CR4, stats.WeightTolerance)
	b := cfg.BarrierWeights
	assert.InDelta(t, 1.0, b.Reviews+b.Rating+b.Brand, stats.WeightTolerance)
	p := cfg.ProfitWeights
	assert.InDelta(t, 1.0, p.Price+p.Volume, stats.WeightTolerance)
	i := cfg.IndexWeights
	assert.InDelta(t, 1.0, i.ReviewDensity+i.RatingQuality+i.Concentration+i.PriceCompetition, stats.WeightTolerance)
}

func TestNewAnalyzer_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := blueocean.DefaultConfig()
	cfg.Weights = blueocean.ScoreWeights{Demand: 0.5, Competition: 0.5, Barrier: 0.5}
	_, err := blueocean.NewAnalyzer(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnalysisWeightsInvalid))

	cfg = blueocean.DefaultConfig()
	cfg.MinReviews, cfg.MaxReviews = 600, 500
	_, err = blueocean.NewAnalyzer(cfg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnalysisConfigInvalid))
}

func TestNewAnalyzer_ZeroConfigTakesDefaults(t *testing.T) {
	t.Parallel()

	a, err := blueocean.NewAnalyzer(blueocean.Config{})
	require.NoError(t, err)
	cfg := a.Config()
	assert.Equal(t, 50.0, cfg.CompetitionThreshold)
	assert.Equal(t, 500, cfg.MaxReviews)
	assert.Equal(t, 10, cfg.TopN)
	assert.True(t, cfg.Cost.TargetMargin.Equal(decimal.NewFromFloat(0.35)))
}

func TestEvaluate_MaxReviewsBoundary(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	mc := blueocean.MarketCompetition{Index: 35, AvgReviews: 150, AvgRating: 4.0}

	at := a.Evaluate(testutil.NewProduct("A", testutil.WithReviews(500)), mc)
	assert.True(t, at.Eligible)
	assert.Empty(t, at.Reasons)

	over := a.Evaluate(testutil.NewProduct("A", testutil.WithReviews(501)), mc)
	assert.False(t, over.Eligible)
	assert.Equal(t, []string{blueocean.ReasonReviewsOutOfBand}, over.Reasons)
}

func TestEvaluate_MarketCompetitionGate(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	p := testutil.NewProduct("A", testutil.WithSales(200), testutil.WithReviews(150), testutil.WithRating(4.0))

	assert.True(t, a.Evaluate(p, blueocean.MarketCompetition{Index: 35, AvgReviews: 150}).Eligible)

	res := a.Evaluate(p, blueocean.MarketCompetition{Index: 70, AvgReviews: 150})
	assert.False(t, res.Eligible)
	assert.Equal(t, []string{blueocean.ReasonMarketCompetitive}, res.Reasons)
}

func TestEvaluate_Reasons(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	calm := blueocean.MarketCompetition{Index: 20, AvgReviews: 150}

	cases := []struct {
		name string
		p    product.Product
		mc   blueocean.MarketCompetition
		want []string
	}{
		{"missing sales", testutil.NewProduct("A", testutil.WithoutSales()), calm, []string{blueocean.ReasonMissingSales}},
		{"missing rating", testutil.NewProduct("A", testutil.WithoutRating()), calm, []string{blueocean.ReasonMissingRating}},
		{"sales below band", testutil.NewProduct("A", testutil.WithSales(49)), calm, []string{blueocean.ReasonSalesOutOfBand}},
		{"sales above band", testutil.NewProduct("A", testutil.WithSales(501)), calm, []string{blueocean.ReasonSalesOutOfBand}},
		{"reviews below band", testutil.NewProduct("A", testutil.WithReviews(19)), calm, []string{blueocean.ReasonReviewsOutOfBand}},
		{"rating below floor", testutil.NewProduct("A", testutil.WithRating(3.79)), calm, []string{blueocean.ReasonRatingBelowFloor}},
		{"rating at floor", testutil.NewProduct("A", testutil.WithRating(3.8)), calm, nil},
		{
			"mature market",
			testutil.NewProduct("A", testutil.WithReviews(250)),
			blueocean.MarketCompetition{Index: 20, AvgReviews: 400},
			[]string{blueocean.ReasonReviewsAboveMature},
		},
		{
			"mature market small product",
			testutil.NewProduct("A", testutil.WithReviews(200)),
			blueocean.MarketCompetition{Index: 20, AvgReviews: 400},
			nil,
		},
		{
			"several failures",
			testutil.NewProduct("A", testutil.WithoutSales(), testutil.WithRating(2)),
			blueocean.MarketCompetition{Index: 50, AvgReviews: 150},
			[]string{blueocean.ReasonMissingSales, blueocean.ReasonRatingBelowFloor, blueocean.ReasonMarketCompetitive},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := a.Evaluate(tc.p, tc.mc)
			assert.Equal(t, tc.want, got.Reasons)
			assert.Equal(t, len(tc.want) == 0, got.Eligible)
		})
	}
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rate, index float64
		want        string
	}{
		{35, 30, blueocean.LevelHigh},
		{15, 85, blueocean.LevelNone},
		{30, 30, blueocean.LevelMedium},
		{35, 40, blueocean.LevelMedium},
		{25, 59.99, blueocean.LevelMedium},
		{25, 60, blueocean.LevelLow},
		{15, 79.99, blueocean.LevelLow},
		{10, 10, blueocean.LevelNone},
		{0, 0, blueocean.LevelNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, blueocean.LevelFor(tc.rate, tc.index), "rate=%v index=%v", tc.rate, tc.index)
	}
	assert.NotEmpty(t, blueocean.Recommendations(blueocean.LevelHigh))
	assert.NotEmpty(t, blueocean.Recommendations(blueocean.LevelNone))
}

func TestMarketCompetitionIndex(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	var products []product.Product
	for i := 0; i < 4; i++ {
		products = append(products, testutil.NewProduct(fmt.Sprintf("A%d", i),
			testutil.WithBrand(fmt.Sprintf("Brand%d", i)),
			testutil.WithPrice(30), testutil.WithReviews(100), testutil.WithRating(4.5)))
	}
	mc := a.MarketCompetitionIndex(products)
	assert.InDelta(t, 10.0, mc.ReviewDensityScore, 1e-9)
	assert.InDelta(t, 100.0, mc.RatingQualityScore, 1e-9)
	assert.InDelta(t, 2500.0, mc.HHI, 1e-9)
	assert.InDelta(t, 25.0, mc.ConcentrationScore, 1e-9)
	assert.InDelta(t, 100.0, mc.PriceCompetitionScore, 1e-9)
	assert.InDelta(t, 54.25, mc.Index, 1e-9)
}

func TestMarketCompetitionIndex_SinglePriceHasNoPriceCompetition(t *testing.T) {
	t.Parallel()

	mc := newAnalyzer(t).MarketCompetitionIndex([]product.Product{testutil.NewProduct("A")})
	assert.Zero(t, mc.PriceCompetitionScore)
	assert.InDelta(t, 29.5, mc.Index, 1e-9)
}

func TestProductCompetitionIndex(t *testing.T) {
	t.Parallel()

	mc := blueocean.MarketCompetition{AvgReviews: 100, AvgRating: 4.0}
	p := testutil.NewProduct("A", testutil.WithReviews(50), testutil.WithRating(4.5))
	assert.InDelta(t, 54.0, blueocean.ProductCompetitionIndex(p, mc), 1e-9)

	big := testutil.NewProduct("B", testutil.WithReviews(10000), testutil.WithoutRating())
	assert.InDelta(t, 80.0, blueocean.ProductCompetitionIndex(big, mc), 1e-9)
}

func TestCompetitionScore_HigherRatingCompetesBetter(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	mc := blueocean.MarketCompetition{AvgReviews: 100, AvgRating: 4.0}
	strong := a.CompetitionScore(testutil.NewProduct("A", testutil.WithReviews(50), testutil.WithRating(4.5)), mc, nil)
	weak := a.CompetitionScore(testutil.NewProduct("B", testutil.WithReviews(50), testutil.WithRating(3.5)), mc, nil)
	assert.Greater(t, strong, weak)

	crowded := a.CompetitionScore(testutil.NewProduct("C", testutil.WithReviews(150), testutil.WithRating(4.5)), mc, nil)
	assert.Greater(t, strong, crowded)
}

func TestDemandScore_FallbacksAndRedistribution(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	p := testutil.NewProduct("A", testutil.WithSales(200))

	assert.InDelta(t, 50.0, a.DemandScore(p, nil), 1e-9)
	assert.InDelta(t, 50.0, a.DemandScore(p, &product.KeywordMarketData{Keyword: "k"}), 1e-9)

	searchOnly := &product.KeywordMarketData{Keyword: "k", MonthlySearches: 12000}
	assert.InDelta(t, stats.NormalizeLog(12000, 0, 100000, false), a.DemandScore(p, searchOnly), 1e-9)

	low := a.DemandScore(testutil.NewProduct("B", testutil.WithSales(100)), nil)
	high := a.DemandScore(testutil.NewProduct("C", testutil.WithSales(300)), nil)
	assert.Less(t, low, high)
	assert.Zero(t, a.DemandScore(testutil.NewProduct("D", testutil.WithoutSales()), nil))
}

func TestSubScores_StayInRange(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	extremes := []product.Product{
		testutil.NewProduct("A", testutil.WithPrice(0), testutil.WithRating(0), testutil.WithReviews(0), testutil.WithSales(0)),
		testutil.NewProduct("B", testutil.WithPrice(100000), testutil.WithRating(5), testutil.WithReviews(1000000), testutil.WithSales(1000000)),
		testutil.NewProduct("C", testutil.WithoutPrice(), testutil.WithoutRating(), testutil.WithoutSales()),
		testutil.NewProduct("D", testutil.WithSales(50), testutil.WithReviews(20), testutil.WithRating(3.8)),
		testutil.NewProduct("E", testutil.WithSales(500), testutil.WithReviews(500), testutil.WithRating(5)),
	}
	mc := a.MarketCompetitionIndex(extremes)
	for _, m := range []*product.KeywordMarketData{nil, testutil.MarketData("k")} {
		for _, p := range extremes {
			s := a.ScoreProduct(p, mc, m)
			for _, v := range []float64{s.Demand, s.Competition, s.Barrier, s.Profit, s.Score, s.CompetitionIndex, s.ListingQuality} {
				assert.GreaterOrEqual(t, v, 0.0, p.ASIN)
				assert.LessOrEqual(t, v, 100.0, p.ASIN)
			}
		}
	}
}

func TestProfitScore_PriceBand(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	inBand := a.ProfitScore(testutil.NewProduct("A", testutil.WithPrice(40), testutil.WithSales(200)))
	cheap := a.ProfitScore(testutil.NewProduct("B", testutil.WithPrice(5), testutil.WithSales(200)))
	dear := a.ProfitScore(testutil.NewProduct("C", testutil.WithPrice(150), testutil.WithSales(200)))
	assert.InDelta(t, 80.0, inBand, 1e-9)
	assert.Less(t, cheap, inBand)
	assert.Less(t, dear, inBand)
}

func TestAnalyze_Empty(t *testing.T) {
	t.Parallel()

	res, err := newAnalyzer(t).Analyze(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Competition.Index)
	assert.Zero(t, res.BlueOceanCount)
	assert.Zero(t, res.BlueOceanRate)
	assert.Equal(t, blueocean.LevelNone, res.Assessment.Level)
	assert.NotNil(t, res.Segments)
	assert.NotNil(t, res.TopOpportunities)
	assert.Empty(t, res.TopOpportunities)
	assert.Zero(t, res.Profit.AnalyzedCount)
}

func TestAnalyze_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := newAnalyzer(t).Analyze([]product.Product{testutil.NewProduct("A", testutil.WithRating(5.5))}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProductInvalidRating))
}

func TestAnalyze_CalmMarketQualifiesEveryMidTierProduct(t *testing.T) {
	t.Parallel()

	var products []product.Product
	for i := 0; i < 10; i++ {
		products = append(products, testutil.NewProduct(fmt.Sprintf("B%02d", i)))
	}
	res, err := newAnalyzer(t).Analyze(products, nil)
	require.NoError(t, err)

	assert.InDelta(t, 27.0, res.Competition.Index, 1e-9)
	assert.Equal(t, 10, res.BlueOceanCount)
	assert.InDelta(t, 100.0, res.BlueOceanRate, 1e-9)
	assert.Equal(t, blueocean.LevelHigh, res.Assessment.Level)
	require.Len(t, res.TopOpportunities, 10)
	for i, op := range res.TopOpportunities {
		assert.Equal(t, i+1, op.Rank)
		assert.Equal(t, fmt.Sprintf("B%02d", i), op.Product.ASIN)
	}
}

func TestAnalyze_MissingFieldsStillCountTowardsTotal(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		testutil.NewProduct("A"),
		testutil.NewProduct("B", testutil.WithoutSales()),
		testutil.NewProduct("C", testutil.WithoutRating()),
		testutil.NewProduct("D"),
	}
	res, err := newAnalyzer(t).Analyze(products, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.AnalyzedCount)
	assert.Len(t, res.Products, 4)
	assert.Equal(t, 2, res.BlueOceanCount)
	assert.InDelta(t, 50.0, res.BlueOceanRate, 1e-9)
}

func TestAnalyze_Segments(t *testing.T) {
	t.Parallel()

	products := []product.Product{
		testutil.NewProduct("A", testutil.WithPrice(19.99)),
		testutil.NewProduct("B", testutil.WithPrice(20)),
		testutil.NewProduct("C", testutil.WithPrice(50)),
		testutil.NewProduct("D", testutil.WithPrice(50.01)),
		testutil.NewProduct("E", testutil.WithoutPrice()),
	}
	res, err := newAnalyzer(t).Analyze(products, nil)
	require.NoError(t, err)

	require.Len(t, res.Segments, 4)
	want := map[string]int{
		blueocean.SegmentLow:      1,
		blueocean.SegmentMid:      2,
		blueocean.SegmentHigh:     1,
		blueocean.SegmentUnpriced: 1,
	}
	for _, s := range res.Segments {
		assert.Equal(t, want[s.Label], s.Count, s.Label)
		assert.InDelta(t, 4.2, s.AvgRating, 1e-9)
		assert.InDelta(t, 200.0, s.AvgSales, 1e-9)
	}
	assert.Equal(t, blueocean.SegmentLow, res.Segments[0].Label)
	assert.Equal(t, blueocean.SegmentUnpriced, res.Segments[3].Label)
}

func TestAnalyze_DeterministicUnderShuffle(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	products := testutil.Products(60)
	base, err := a.Analyze(products, testutil.MarketData("yoga mat"))
	require.NoError(t, err)

	shuffled := append([]product.Product(nil), products...)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	again, err := a.Analyze(shuffled, testutil.MarketData("yoga mat"))
	require.NoError(t, err)

	want, err := json.Marshal(base)
	require.NoError(t, err)
	got, err := json.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	for _, s := range base.Products {
		if !s.Eligible {
			continue
		}
		sales := *s.Product.SalesVolume
		assert.True(t, sales >= 50 && sales <= 500, s.Product.ASIN)
		assert.True(t, s.Product.ReviewsCount >= 20 && s.Product.ReviewsCount <= 500, s.Product.ASIN)
	}
}

func TestSortByRank_TieBreaks(t *testing.T) {
	t.Parallel()

	mk := func(asin string, score float64, reviews int) blueocean.ProductScore {
		return blueocean.ProductScore{Product: testutil.NewProduct(asin, testutil.WithReviews(reviews)), Score: score}
	}
	scores := []blueocean.ProductScore{
		mk("C", 70, 100),
		mk("B", 70, 100),
		mk("A", 70, 50),
		mk("D", 80, 10),
	}
	for run := 0; run < 2; run++ {
		blueocean.SortByRank(scores)
		var got []string
		for _, s := range scores {
			got = append(got, s.Product.ASIN)
		}
		assert.Equal(t, []string{"D", "B", "C", "A"}, got)
	}
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	est, ok := a.EstimateCost(testutil.NewProduct("A", testutil.WithPrice(40), testutil.WithWeight(2)))
	require.True(t, ok)
	assert.True(t, est.ProductCost.Equal(decimal.NewFromInt(12)), est.ProductCost.String())
	assert.True(t, est.ShippingCost.Equal(decimal.NewFromInt(1)), est.ShippingCost.String())
	assert.True(t, est.TotalCost.Equal(decimal.NewFromInt(25)), est.TotalCost.String())
	assert.True(t, est.GrossProfit.Equal(decimal.NewFromInt(15)), est.GrossProfit.String())
	assert.True(t, est.Margin.Equal(decimal.RequireFromString("0.375")), est.Margin.String())
	assert.True(t, est.MeetsTarget)

	edge, ok := a.EstimateCost(testutil.NewProduct("B", testutil.WithPrice(10)))
	require.True(t, ok)
	assert.True(t, edge.Margin.Equal(decimal.RequireFromString("0.35")), edge.Margin.String())
	assert.True(t, edge.MeetsTarget)

	_, ok = a.EstimateCost(testutil.NewProduct("C", testutil.WithoutPrice()))
	assert.False(t, ok)
}

func TestProfitAnalysis(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	sum := a.ProfitAnalysis([]product.Product{
		testutil.NewProduct("A", testutil.WithPrice(40), testutil.WithWeight(2)),
		testutil.NewProduct("B", testutil.WithPrice(5)),
		testutil.NewProduct("C", testutil.WithoutPrice()),
	})
	assert.Equal(t, 2, sum.AnalyzedCount)
	assert.Equal(t, 1, sum.QualifiedCount)
	assert.True(t, sum.QualifiedRate.Equal(decimal.NewFromInt(50)))
	require.Len(t, sum.TopByMargin, 2)
	assert.Equal(t, "A", sum.TopByMargin[0].ASIN)
}

func TestAdvertisingViability(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	products := []product.Product{testutil.NewProduct("A", testutil.WithPrice(40), testutil.WithWeight(2))}
	res := a.AdvertisingViability(products, testutil.MarketData("k"))

	assert.True(t, res.CPC.Equal(decimal.NewFromFloat(0.95)))
	assert.Equal(t, blueocean.AdStatusGood, res.CPCStatus)
	assert.Equal(t, blueocean.AdStatusGood, res.ACoSStatus)
	assert.True(t, res.Viable)
	require.Len(t, res.Products, 1)
	assert.True(t, res.Products[0].NetProfit.Equal(decimal.NewFromInt(5)))
	assert.True(t, res.Products[0].Profitable)
	assert.True(t, res.BreakEvenCPC.Equal(decimal.NewFromFloat(1.65)), res.BreakEvenCPC.String())
	assert.True(t, res.ProfitableRate.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, blueocean.AdRecommendModerate, res.Recommendation)

	none := a.AdvertisingViability(nil, nil)
	assert.True(t, none.CPC.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, blueocean.AdRecommendOrganic, none.Recommendation)
}

func TestWeakListings(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t)
	longTitle := "Premium Extra Thick Yoga Mat with Carrying Strap, Non Slip Surface, Eco Friendly TPE Material"
	var products []product.Product
	for i := 0; i < 10; i++ {
		opts := []testutil.ProductOption{testutil.WithTitle(longTitle), testutil.WithSales(1000 - i)}
		if i < 4 {
			opts = []testutil.ProductOption{testutil.WithTitle("Yoga mat"), testutil.WithSales(1000 - i), testutil.WithBullets("one")}
		}
		products = append(products, testutil.NewProduct(fmt.Sprintf("W%02d", i), opts...))
	}
	res := a.WeakListings(products)
	assert.Equal(t, 4, res.WeakCount)
	assert.Equal(t, 4, res.Top10WeakCount)
	assert.True(t, res.MeetsThreshold)
	assert.Equal(t, blueocean.SignalStrong, res.Signal)
	assert.InDelta(t, 40.0, res.WeakRate, 1e-9)
	require.Len(t, res.Listings, 4)
	assert.Contains(t, res.Listings[0].Reasons, blueocean.WeakShortTitle)

	assert.InDelta(t, 97.0, blueocean.ListingQualityScore(products[5]), 1e-9)
}
