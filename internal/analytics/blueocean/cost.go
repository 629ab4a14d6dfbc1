package blueocean

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/turtacn/OceanScout/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// CostEstimate is the landed cost and gross margin of one listing at its
// current price.  Money values are rounded to cents; Margin is a fraction
// rounded to four places.
type CostEstimate struct {
	ASIN         string          `json:"asin"`
	Price        decimal.Decimal `json:"price"`
	ProductCost  decimal.Decimal `json:"product_cost"`
	FBAFee       decimal.Decimal `json:"fba_fee"`
	ReferralFee  decimal.Decimal `json:"referral_fee"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	Margin       decimal.Decimal `json:"margin"`
	MeetsTarget  bool            `json:"meets_target"`
}

// EstimateCost prices out p: sourcing, FBA and referral fees as fractions of
// the price plus weight-based shipping (DefaultWeightLb when the weight is
// unknown).  It returns false for unpriced or zero-priced products.
func (a *Analyzer) EstimateCost(p product.Product) (CostEstimate, bool) {
	if p.Price == nil || *p.Price <= 0 {
		return CostEstimate{}, false
	}
	c := a.cfg.Cost
	price := decimal.NewFromFloat(*p.Price)
	weight := c.DefaultWeightLb
	if p.WeightLb != nil && *p.WeightLb > 0 {
		weight = decimal.NewFromFloat(*p.WeightLb)
	}

	productCost := price.Mul(c.ProductCostRate)
	fba := price.Mul(c.FBARate)
	referral := price.Mul(c.ReferralRate)
	shipping := weight.Mul(c.ShippingPerLb)
	total := productCost.Add(fba).Add(referral).Add(shipping)
	profit := price.Sub(total)
	margin := profit.Div(price)

	return CostEstimate{
		ASIN:         p.ASIN,
		Price:        price.Round(2),
		ProductCost:  productCost.Round(2),
		FBAFee:       fba.Round(2),
		ReferralFee:  referral.Round(2),
		ShippingCost: shipping.Round(2),
		TotalCost:    total.Round(2),
		GrossProfit:  profit.Round(2),
		Margin:       margin.Round(4),
		MeetsTarget:  margin.GreaterThanOrEqual(c.TargetMargin),
	}, true
}

// ProfitSummary aggregates cost estimates over a product set.
type ProfitSummary struct {
	AnalyzedCount  int             `json:"analyzed_count"`
	AvgMarginPct   decimal.Decimal `json:"avg_margin_pct"`
	QualifiedCount int             `json:"qualified_count"`
	QualifiedRate  decimal.Decimal `json:"qualified_rate"`
	TopByMargin    []CostEstimate  `json:"top_by_margin"`
}

// ProfitAnalysis estimates costs for every priced product and keeps the ten
// best margins (ties by ASIN).
func (a *Analyzer) ProfitAnalysis(products []product.Product) ProfitSummary {
	sum := ProfitSummary{TopByMargin: []CostEstimate{}}
	var estimates []CostEstimate
	totalMargin := decimal.Zero
	for _, p := range products {
		est, ok := a.EstimateCost(p)
		if !ok {
			continue
		}
		estimates = append(estimates, est)
		totalMargin = totalMargin.Add(est.Margin)
		if est.MeetsTarget {
			sum.QualifiedCount++
		}
	}
	sum.AnalyzedCount = len(estimates)
	if sum.AnalyzedCount == 0 {
		return sum
	}
	n := decimal.NewFromInt(int64(sum.AnalyzedCount))
	sum.AvgMarginPct = totalMargin.Div(n).Mul(hundred).Round(2)
	sum.QualifiedRate = decimal.NewFromInt(int64(sum.QualifiedCount)).Div(n).Mul(hundred).Round(2)

	sort.Slice(estimates, func(i, j int) bool {
		if c := estimates[i].Margin.Cmp(estimates[j].Margin); c != 0 {
			return c > 0
		}
		return estimates[i].ASIN < estimates[j].ASIN
	})
	if len(estimates) > 10 {
		estimates = estimates[:10]
	}
	sum.TopByMargin = estimates
	return sum
}
