package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/OceanScout/internal/analytics/scoring"
	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// Output formats of analyze and compare.
const (
	outputText  = "text"
	outputJSON  = "json"
	outputTable = "table"
)

func checkOutput(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case outputText, outputJSON, outputTable:
		return f, nil
	case "":
		return outputText, nil
	default:
		return "", errors.Newf(errors.ErrCodeValidation, "invalid output format %q (must be text, json or table)", format)
	}
}

// writeSummary prints the human readable digest of a report.
func writeSummary(w io.Writer, r *analysis.Report) {
	a := r.Assessment
	fmt.Fprintf(w, "Keyword:      %s\n", r.Keyword)
	fmt.Fprintf(w, "Run:          %s", r.RunID)
	if r.Cached {
		fmt.Fprint(w, " (cached)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Products:     %d\n", r.ProductCount)
	fmt.Fprintf(w, "Score:        %.1f  grade %s  confidence %s\n", a.Total, colorGrade(a.Grade), a.Confidence.Level)

	if m := r.Market; m != nil {
		fmt.Fprintf(w, "Market:       size %s, competition %s, maturity %s\n", m.SizeRating, m.IntensityLevel, m.Maturity)
		fmt.Fprintf(w, "Brands:       %d  CR4 %.1f%%  (%s)\n", m.TotalBrands, m.CR4, m.ConcentrationLevel)
	}
	if b := r.BlueOcean; b != nil {
		fmt.Fprintf(w, "Blue ocean:   %d of %d products (%.1f%%), %s\n", b.BlueOceanCount, b.AnalyzedCount, b.BlueOceanRate, b.Assessment.Level)
	}
	if t := r.Trend; t != nil {
		fmt.Fprintf(w, "Trend:        %s, %s\n", t.Stage, t.Direction)
	}

	if len(a.Dimensions) > 0 {
		fmt.Fprintln(w, "\nDimensions:")
		for _, d := range a.Dimensions {
			note := ""
			if !d.HasData {
				note = "  (no data)"
			}
			fmt.Fprintf(w, "  %-12s %5.1f  x%.2f%s\n", d.Name, d.Score, d.Weight, note)
		}
	}
	writeList(w, "Recommendations", a.Recommendations)
	writeList(w, "Action items", a.ActionItems)
	writeList(w, "Risks", a.RiskFactors)
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

// productTable renders the ranked products of r.
func productTable(r *analysis.Report) string {
	rows := make([][]string, 0, len(r.TopProducts))
	for _, p := range r.TopProducts {
		rows = append(rows, []string{
			strconv.Itoa(p.Rank),
			p.Product.ASIN,
			p.Product.BrandOrUnknown(),
			fmt.Sprintf("%.2f", p.Product.PriceValue()),
			fmt.Sprintf("%.1f", p.Product.RatingValue()),
			strconv.Itoa(p.Product.ReviewsCount),
			strconv.Itoa(p.Product.SalesValue()),
			fmt.Sprintf("%.1f", p.Score),
			colorGrade(p.Grade),
		})
	}
	return FormatTable([]string{"RANK", "ASIN", "BRAND", "PRICE", "RATING", "REVIEWS", "SALES", "SCORE", "GRADE"}, rows)
}

// comparisonTable renders keyword assessments, best first.
func comparisonTable(list []scoring.Assessment) string {
	rows := make([][]string, 0, len(list))
	for i, a := range list {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.Keyword,
			fmt.Sprintf("%.1f", a.Total),
			colorGrade(a.Grade),
			a.Confidence.Level,
		})
	}
	return FormatTable([]string{"RANK", "KEYWORD", "SCORE", "GRADE", "CONFIDENCE"}, rows)
}
