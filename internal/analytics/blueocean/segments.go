package blueocean

import (
	"math"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
)

// Price segment labels.
const (
	SegmentLow      = "under_20"
	SegmentMid      = "20_to_50"
	SegmentHigh     = "over_50"
	SegmentUnpriced = "unpriced"
)

// priceSegments are the bands <$20, $20–$50 and >$50; $50 itself belongs to
// the middle band.
var priceSegments = []stats.Range{
	{Label: SegmentLow, Max: stats.Bound(20)},
	{Label: SegmentMid, Min: stats.Bound(20), Max: stats.Bound(math.Nextafter(50, math.Inf(1)))},
	{Label: SegmentHigh, Min: stats.Bound(math.Nextafter(50, math.Inf(1)))},
}

// Segment describes one price band.
type Segment struct {
	Label               string  `json:"label"`
	Count               int     `json:"count"`
	BlueOceanCount      int     `json:"blue_ocean_count"`
	AvgRating           float64 `json:"avg_rating"`
	AvgSales            float64 `json:"avg_sales"`
	AvgCompetitionIndex float64 `json:"avg_competition_index"`
	AvgScore            float64 `json:"avg_score"`
}

func priceOf(s ProductScore) (float64, bool) {
	if s.Product.Price == nil {
		return 0, false
	}
	return *s.Product.Price, true
}

// segment partitions scored products into price bands.  The three priced
// bands are always reported; the unpriced band only when non-empty.
func segment(scored []ProductScore) []Segment {
	groups := stats.GroupByRange(scored, priceOf, priceSegments, SegmentUnpriced)
	out := make([]Segment, 0, len(groups))
	for _, g := range groups {
		seg := Segment{Label: g.Label, Count: len(g.Items)}
		var ratings, sales, indexes, scores []float64
		for _, s := range g.Items {
			if s.Eligible {
				seg.BlueOceanCount++
			}
			if s.Product.Rating != nil {
				ratings = append(ratings, *s.Product.Rating)
			}
			if s.Product.SalesVolume != nil {
				sales = append(sales, float64(*s.Product.SalesVolume))
			}
			indexes = append(indexes, s.CompetitionIndex)
			scores = append(scores, s.Score)
		}
		seg.AvgRating = stats.Round(stats.Mean(ratings), 2)
		seg.AvgSales = stats.Round(stats.Mean(sales), 2)
		seg.AvgCompetitionIndex = stats.Round(stats.Mean(indexes), 2)
		seg.AvgScore = stats.Round(stats.Mean(scores), 2)
		out = append(out, seg)
	}
	return out
}
