package segmentation

import (
	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Segment opportunity kinds.
const (
	OpportunityPremium     = "premium"
	OpportunityValue       = "value_for_money"
	OpportunityMainstream  = "mainstream"
	OpportunityNewEntrants = "new_entrants"
)

// Opportunity types.
const (
	TypeLowCompetition = "low_competition"
	TypeUndersupplied  = "undersupplied"
	TypeProvenDemand   = "proven_demand"
	TypeFastGrowth     = "fast_growth"
)

// SegmentOpportunity is a cross-cut of price, rating and sales that looks
// under-served.
type SegmentOpportunity struct {
	Segment      string  `json:"segment"`
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	ProductCount int     `json:"product_count"`
	AvgPrice     float64 `json:"avg_price"`
	AvgRating    float64 `json:"avg_rating"`
	TotalSales   int     `json:"total_sales"`
}

// Opportunities flags four cross-segments:
//
//	premium        fewer than 20% of listings priced $50 or more
//	value          fewer than 15% under $30 rated 4.0 or more
//	mainstream     any $20–$50 listing selling 100+ units a month
//	new entrants   at least 10% rated 4.0+ with fewer than 50 reviews
func Opportunities(products []product.Product) []SegmentOpportunity {
	out := []SegmentOpportunity{}
	n := float64(len(products))
	if n == 0 {
		return out
	}

	premium := filter(products, func(p product.Product) bool {
		return p.Price != nil && *p.Price >= 50
	})
	if float64(len(premium)) < n*0.20 {
		out = append(out, opportunity(OpportunityPremium, TypeLowCompetition,
			"Few listings in the upper price band leave room to enter.", premium))
	}

	value := filter(products, func(p product.Product) bool {
		return p.Price != nil && p.Rating != nil && *p.Price < 30 && *p.Rating >= 4.0
	})
	if float64(len(value)) < n*0.15 {
		out = append(out, opportunity(OpportunityValue, TypeUndersupplied,
			"Well-rated affordable listings are scarce; demand may be unmet.", value))
	}

	mainstream := filter(products, func(p product.Product) bool {
		return p.Price != nil && p.SalesVolume != nil && *p.Price >= 20 && *p.Price <= 50 && *p.SalesVolume >= 100
	})
	if len(mainstream) > 0 {
		out = append(out, opportunity(OpportunityMainstream, TypeProvenDemand,
			"Mid-priced listings sell well; demand is proven.", mainstream))
	}

	fresh := filter(products, func(p product.Product) bool {
		return p.Rating != nil && *p.Rating >= 4.0 && p.ReviewsCount > 0 && p.ReviewsCount < 50
	})
	if len(fresh) > 0 && float64(len(fresh)) >= n*0.10 {
		out = append(out, opportunity(OpportunityNewEntrants, TypeFastGrowth,
			"Many well-rated listings with few reviews: newcomers are winning.", fresh))
	}
	return out
}

func filter(products []product.Product, keep func(product.Product) bool) []product.Product {
	var out []product.Product
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func opportunity(segment, kind, description string, members []product.Product) SegmentOpportunity {
	o := SegmentOpportunity{
		Segment:      segment,
		Type:         kind,
		Description:  description,
		ProductCount: len(members),
		AvgPrice:     stats.Round(stats.Mean(stats.Collect(members, product.PriceOf)), 2),
		AvgRating:    stats.Round(stats.Mean(stats.Collect(members, product.RatingOf)), 2),
	}
	for _, p := range members {
		o.TotalSales += p.SalesValue()
	}
	return o
}
