package reporting

import (
	"fmt"
	"strconv"
	"time"

	"github.com/turtacn/OceanScout/internal/analytics/segmentation"
	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/domain/product"
)

// Table is one named grid of a report.  Cells hold strings, ints or
// float64s so that spreadsheet output keeps numeric types.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Section names, in document order.
const (
	SectionSummary       = "Summary"
	SectionProducts      = "Products"
	SectionOpportunities = "Opportunities"
	SectionSegments      = "Segments"
	SectionBrands        = "Brands"
)

// Tables builds every section of r.  topN caps the product table; zero keeps
// every ranked product.
func Tables(r *analysis.Report, topN int) []Table {
	return []Table{
		SummaryTable(r),
		ProductsTable(r, topN),
		OpportunitiesTable(r),
		SegmentsTable(r),
		BrandsTable(r),
	}
}

// SummaryTable lists the headline metrics as metric/value pairs.
func SummaryTable(r *analysis.Report) Table {
	t := Table{Name: SectionSummary, Headers: []string{"Metric", "Value"}}
	add := func(k string, v interface{}) { t.Rows = append(t.Rows, []interface{}{k, v}) }

	add("Keyword", r.Keyword)
	add("Run ID", r.RunID.String())
	add("Generated At", r.GeneratedAt.UTC().Format(time.RFC3339))
	add("Products", r.ProductCount)
	add("Opportunity Score", round2(r.Assessment.Total))
	add("Grade", string(r.Assessment.Grade))
	add("Confidence", r.Assessment.Confidence.Level)

	if m := r.Market; m != nil {
		add("Monthly Searches", m.MonthlySearches)
		add("Market Size", m.SizeRating)
		add("Competition Intensity", m.IntensityLevel)
		add("Average Reviews", round2(m.AvgReviews))
		add("Average Rating", round2(m.AvgRating))
		add("Average Price", round2(m.AvgPrice))
		add("Total Brands", m.TotalBrands)
		add("CR4 (%)", round2(m.CR4))
		add("CR10 (%)", round2(m.CR10))
		add("Market Blank Index", round2(m.BlankIndex))
		add("Maturity", m.Maturity)
	}
	if b := r.BlueOcean; b != nil {
		add("Competition Index", round2(b.Competition.Index))
		add("Blue Ocean Products", b.BlueOceanCount)
		add("Blue Ocean Rate (%)", round2(b.BlueOceanRate))
		add("Blue Ocean Level", b.Assessment.Level)
	}
	if tr := r.Trend; tr != nil {
		add("New Products", tr.NewProductCount)
		add("Lifecycle Stage", tr.Stage)
		add("Trend Direction", tr.Direction)
	}
	add("Market Opportunity", r.Opportunity.Level)
	for _, rec := range r.Assessment.Recommendations {
		add("Recommendation", rec)
	}
	return t
}

// ProductsTable lists the ranked products.
func ProductsTable(r *analysis.Report, topN int) Table {
	t := Table{
		Name: SectionProducts,
		Headers: []string{
			"Rank", "ASIN", "Title", "Brand", "Price", "Rating", "Reviews",
			"Sales", "BSR", "Available Date", "Score", "Grade", "Anomaly",
		},
	}
	for i, rp := range r.TopProducts {
		if topN > 0 && i >= topN {
			break
		}
		p := rp.Product
		t.Rows = append(t.Rows, []interface{}{
			rp.Rank, p.ASIN, p.Title, p.Brand,
			optFloat(p.Price), optFloat(p.Rating), p.ReviewsCount,
			optInt(p.SalesVolume), optInt(p.BSRRank), optDate(p),
			round2(rp.Score), string(rp.Grade), yesNo(p.HasAnomaly),
		})
	}
	return t
}

// OpportunitiesTable lists the blue-ocean opportunities.
func OpportunitiesTable(r *analysis.Report) Table {
	t := Table{
		Name: SectionOpportunities,
		Headers: []string{
			"Rank", "ASIN", "Brand", "Price", "Rating", "Reviews", "Sales",
			"Blue Ocean Score", "Demand", "Competition", "Barrier", "Profit",
			"Competition Index", "Listing Quality",
		},
	}
	if r.BlueOcean == nil {
		return t
	}
	for _, o := range r.BlueOcean.TopOpportunities {
		p := o.Product
		t.Rows = append(t.Rows, []interface{}{
			o.Rank, p.ASIN, p.Brand, optFloat(p.Price), optFloat(p.Rating),
			p.ReviewsCount, optInt(p.SalesVolume),
			round2(o.Score), round2(o.Demand), round2(o.Competition),
			round2(o.Barrier), round2(o.Profit), round2(o.CompetitionIndex),
			round2(o.ListingQuality),
		})
	}
	return t
}

// SegmentsTable stacks the price, rating and sales segmentations.
func SegmentsTable(r *analysis.Report) Table {
	t := Table{
		Name: SectionSegments,
		Headers: []string{
			"Dimension", "Segment", "Products", "Avg Price", "Avg Rating",
			"Avg Reviews", "Total Sales", "Market Share (%)",
		},
	}
	if r.Segmentation == nil {
		return t
	}
	dims := []struct {
		name string
		segs []segmentRow
	}{
		{"price", segmentRows(r.Segmentation.Price)},
		{"rating", segmentRows(r.Segmentation.Rating)},
		{"sales", segmentRows(r.Segmentation.Sales)},
	}
	for _, d := range dims {
		for _, s := range d.segs {
			t.Rows = append(t.Rows, append([]interface{}{d.name}, s...))
		}
	}
	return t
}

// BrandsTable lists the competitor brand ranking.
func BrandsTable(r *analysis.Report) Table {
	t := Table{
		Name:    SectionBrands,
		Headers: []string{"Rank", "Brand", "Listings", "Sales", "Share (%)", "Avg Rating", "Avg Price"},
	}
	if r.Competitor == nil {
		return t
	}
	for _, b := range r.Competitor.Brands {
		t.Rows = append(t.Rows, []interface{}{
			b.Rank, b.Brand, b.Listings, b.Sales, round2(b.Share),
			round2(b.AvgRating), round2(b.AvgPrice),
		})
	}
	return t
}

// ---------------------------------------------------------------------------
// Cell helpers
// ---------------------------------------------------------------------------

type segmentRow = []interface{}

func segmentRows(segs []segmentation.Segment) []segmentRow {
	out := make([]segmentRow, 0, len(segs))
	for _, s := range segs {
		out = append(out, segmentRow{
			s.Label, s.Count, round2(s.AvgPrice), round2(s.AvgRating),
			round2(s.AvgReviews), s.TotalSales, round2(s.MarketShare),
		})
	}
	return out
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}

func optFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return round2(*v)
}

func optInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optDate(p product.Product) string {
	if p.AvailableDate == nil {
		return ""
	}
	return p.AvailableDate.Format("2006-01-02")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// cellString renders a cell for text formats.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
