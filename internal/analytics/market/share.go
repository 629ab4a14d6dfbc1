package market

import (
	"sort"

	"github.com/turtacn/OceanScout/internal/analytics/stats"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// ShareBasis names the quantity brand shares are computed from.
type ShareBasis string

const (
	// ShareBasisSales uses monthly unit sales.  It is chosen only when every
	// product in the set carries a sales estimate.
	ShareBasisSales ShareBasis = "sales"
	// ShareBasisListings uses listing counts.
	ShareBasisListings ShareBasis = "listings"
	// ShareBasisNone is reported for an empty set.
	ShareBasisNone ShareBasis = "none"
)

// BrandShare is one brand's slice of the market.
type BrandShare struct {
	Brand    string  `json:"brand"`
	Listings int     `json:"listings"`
	Sales    int     `json:"sales"`
	Share    float64 `json:"share"`
}

// BrandShares groups products by brand and returns their shares in
// percentage points, largest first (ties by brand name).  When any product
// lacks a sales estimate, or total sales are zero, every brand is measured by
// listing count so the basis stays uniform across the set.
func BrandShares(products []product.Product) ([]BrandShare, ShareBasis) {
	if len(products) == 0 {
		return nil, ShareBasisNone
	}

	basis := ShareBasisSales
	totalSales := 0
	for _, p := range products {
		if p.SalesVolume == nil {
			basis = ShareBasisListings
		}
		totalSales += p.SalesValue()
	}
	if totalSales == 0 {
		basis = ShareBasisListings
	}

	keys, groups := stats.GroupBy(products, product.Product.BrandOrUnknown)
	shares := make([]BrandShare, 0, len(keys))
	for _, brand := range keys {
		members := groups[brand]
		bs := BrandShare{Brand: brand, Listings: len(members)}
		for _, p := range members {
			bs.Sales += p.SalesValue()
		}
		if basis == ShareBasisSales {
			bs.Share = stats.SafePercentage(float64(bs.Sales), float64(totalSales))
		} else {
			bs.Share = stats.SafePercentage(float64(bs.Listings), float64(len(products)))
		}
		shares = append(shares, bs)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Share != shares[j].Share {
			return shares[i].Share > shares[j].Share
		}
		return shares[i].Brand < shares[j].Brand
	})
	return shares, basis
}

// SharePercents extracts the Share column.
func SharePercents(shares []BrandShare) []float64 {
	out := make([]float64, len(shares))
	for i, s := range shares {
		out[i] = s.Share
	}
	return out
}

// Concentration levels keyed on CR4.
const (
	ConcentrationHigh      = "high"
	ConcentrationMedium    = "medium"
	ConcentrationLow       = "low"
	ConcentrationDispersed = "dispersed"
)

// ConcentrationLevel classifies a CR4 percentage.
func ConcentrationLevel(cr4 float64) string {
	switch {
	case cr4 >= 60:
		return ConcentrationHigh
	case cr4 >= 40:
		return ConcentrationMedium
	case cr4 >= 20:
		return ConcentrationLow
	default:
		return ConcentrationDispersed
	}
}
