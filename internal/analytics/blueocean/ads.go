package blueocean

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Advertising cost statuses.
const (
	AdStatusExcellent = "excellent"
	AdStatusGood      = "good"
	AdStatusHigh      = "high"
)

// Advertising recommendations.
const (
	AdRecommendAggressive = "Advertising conditions are excellent: invest in PPC campaigns."
	AdRecommendModerate   = "Advertising conditions are good: run moderate campaigns and refine keywords."
	AdRecommendLongTail   = "Advertising is costly: target long-tail keywords precisely."
	AdRecommendOrganic    = "Advertising is too expensive: rely on organic traffic and advertise sparingly."
)

var (
	cpcExcellent  = decimal.NewFromFloat(0.8)
	cpcGood       = decimal.NewFromFloat(1.5)
	cpcLongTail   = decimal.NewFromInt(2)
	acosExcellent = decimal.NewFromFloat(0.20)
	acosGood      = decimal.NewFromFloat(0.30)
)

// AdProfit is the per-unit profit of one product once advertising is paid.
type AdProfit struct {
	ASIN        string          `json:"asin"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	AdCost      decimal.Decimal `json:"ad_cost"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	NetMargin   decimal.Decimal `json:"net_margin"`
	Profitable  bool            `json:"profitable"`
}

// AdvertisingAnalysis judges whether paid traffic can be profitable.
type AdvertisingAnalysis struct {
	CPC            decimal.Decimal `json:"cpc"`
	ACoS           decimal.Decimal `json:"acos"`
	CPCStatus      string          `json:"cpc_status"`
	ACoSStatus     string          `json:"acos_status"`
	Viable         bool            `json:"viable"`
	BreakEvenCPC   decimal.Decimal `json:"break_even_cpc"`
	ProfitableRate decimal.Decimal `json:"profitable_rate"`
	Products       []AdProfit      `json:"products"`
	Recommendation string          `json:"recommendation"`
}

// AdvertisingViability charges each priced product ACoS × price in ad spend
// and reports how many stay profitable.  The CPC comes from the keyword data
// when collected, else DefaultCPC.  The break-even CPC is the average gross
// profit per unit times the conversion rate: the most a click can cost
// before the sale it produces loses money.
func (a *Analyzer) AdvertisingViability(products []product.Product, m *product.KeywordMarketData) AdvertisingAnalysis {
	c := a.cfg.Ads
	cpc := c.DefaultCPC
	conversion := c.DefaultConversion
	if m != nil {
		if m.CPCBid != nil && *m.CPCBid > 0 {
			cpc = decimal.NewFromFloat(*m.CPCBid)
		}
		if m.ConversionRate != nil && *m.ConversionRate > 0 {
			conversion = decimal.NewFromFloat(*m.ConversionRate)
		}
	}
	acos := c.DefaultACoS

	res := AdvertisingAnalysis{
		CPC:        cpc.Round(2),
		ACoS:       acos,
		CPCStatus:  status(cpc, cpcExcellent, cpcGood),
		ACoSStatus: status(acos, acosExcellent, acosGood),
		Viable:     cpc.LessThan(c.MaxCPC) && acos.LessThan(c.MaxACoS),
		Products:   []AdProfit{},
	}

	profitable := 0
	grossTotal := decimal.Zero
	for _, p := range products {
		est, ok := a.EstimateCost(p)
		if !ok {
			continue
		}
		adCost := est.Price.Mul(acos)
		net := est.GrossProfit.Sub(adCost)
		ap := AdProfit{
			ASIN:        p.ASIN,
			GrossProfit: est.GrossProfit,
			AdCost:      adCost.Round(2),
			NetProfit:   net.Round(2),
			NetMargin:   net.Div(est.Price).Mul(hundred).Round(2),
			Profitable:  net.IsPositive(),
		}
		if ap.Profitable {
			profitable++
		}
		grossTotal = grossTotal.Add(est.GrossProfit)
		res.Products = append(res.Products, ap)
	}

	sort.Slice(res.Products, func(i, j int) bool { return res.Products[i].ASIN < res.Products[j].ASIN })

	rate := decimal.Zero
	if n := len(res.Products); n > 0 {
		count := decimal.NewFromInt(int64(n))
		rate = decimal.NewFromInt(int64(profitable)).Div(count)
		res.BreakEvenCPC = grossTotal.Div(count).Mul(conversion).Round(2)
	}
	res.ProfitableRate = rate.Mul(hundred).Round(2)
	res.Recommendation = adRecommendation(cpc, acos, rate)
	return res
}

func status(v, excellent, good decimal.Decimal) string {
	switch {
	case v.LessThan(excellent):
		return AdStatusExcellent
	case v.LessThan(good):
		return AdStatusGood
	default:
		return AdStatusHigh
	}
}

func adRecommendation(cpc, acos, profitableRate decimal.Decimal) string {
	switch {
	case cpc.LessThan(cpcExcellent) && acos.LessThan(acosExcellent) && profitableRate.GreaterThan(decimal.NewFromFloat(0.7)):
		return AdRecommendAggressive
	case cpc.LessThan(cpcGood) && acos.LessThan(acosGood) && profitableRate.GreaterThan(decimal.NewFromFloat(0.5)):
		return AdRecommendModerate
	case cpc.LessThan(cpcLongTail) && profitableRate.GreaterThan(decimal.NewFromFloat(0.3)):
		return AdRecommendLongTail
	default:
		return AdRecommendOrganic
	}
}
