package reporting

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/testutil"
	"github.com/turtacn/OceanScout/pkg/errors"
)

func newReport(t *testing.T, n int) *analysis.Report {
	t.Helper()
	cfg := config.Default().Analysis
	cfg.AsOf = testutil.ReferenceDate.Format("2006-01-02")
	engine, err := analysis.NewEngine(cfg)
	require.NoError(t, err)

	r, err := engine.Analyze(product.Dataset{
		Keyword:  "Yoga Mat",
		Products: testutil.Products(n),
		Market:   testutil.MarketData("Yoga Mat"),
	})
	require.NoError(t, err)
	r.RunID = uuid.MustParse("7b0c6c7e-0a57-4a53-9b57-6f3f7b0e2a11")
	r.GeneratedAt = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	return r
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in, FormatCSV)
			if tt.err {
				assert.True(t, errors.IsCode(err, errors.ErrCodeReportFormatInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}

func TestTables(t *testing.T) {
	r := newReport(t, 40)
	tables := Tables(r, 5)
	require.Len(t, tables, 5)

	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
		for _, row := range tb.Rows {
			assert.Len(t, row, len(tb.Headers), "%s row width", tb.Name)
		}
	}
	assert.Equal(t, []string{SectionSummary, SectionProducts, SectionOpportunities, SectionSegments, SectionBrands}, names)

	assert.Len(t, tables[1].Rows, 5)
	assert.Equal(t, 1, tables[1].Rows[0][0])
	assert.Equal(t, []interface{}{"Keyword", "Yoga Mat"}, tables[0].Rows[0])
	assert.NotEmpty(t, tables[4].Rows)
}

func TestTables_EmptyReport(t *testing.T) {
	r := &analysis.Report{Keyword: "empty"}
	for _, tb := range Tables(r, 0) {
		if tb.Name == SectionSummary {
			assert.NotEmpty(t, tb.Rows)
			continue
		}
		assert.Empty(t, tb.Rows, tb.Name)
	}
}

func TestCSVExporter_Export(t *testing.T) {
	r := newReport(t, 20)
	raw, err := NewCSVExporter(0).Export(r)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, utf8BOM))

	text := string(raw[len(utf8BOM):])
	for _, name := range []string{SectionSummary, SectionProducts, SectionOpportunities, SectionSegments, SectionBrands} {
		assert.Contains(t, text, "# "+name+"\n")
	}
	assert.Contains(t, text, "Rank,ASIN,Title,Brand,Price")

	_, err = NewCSVExporter(0).Export(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReportRenderFailed))
}

func TestCSVExporter_WriteFiles(t *testing.T) {
	r := newReport(t, 12)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := NewCSVExporter(3).WriteFiles(dir, r)
	require.NoError(t, err)
	require.Len(t, paths, 5)
	assert.Equal(t, filepath.Join(dir, "products.csv"), paths[1])

	raw, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "ASIN", records[0][1])
	assert.Equal(t, "1", records[1][0])
}

func TestXLSXExporter_Export(t *testing.T) {
	r := newReport(t, 30)
	raw, err := NewXLSXExporter(10).Export(r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SectionSummary, SectionProducts, SectionOpportunities, SectionSegments, SectionBrands}, f.GetSheetList())

	rows, err := f.GetRows(SectionProducts)
	require.NoError(t, err)
	require.Len(t, rows, 11)
	assert.Equal(t, "Rank", rows[0][0])
	assert.Equal(t, "1", rows[1][0])

	summary, err := f.GetRows(SectionSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keyword", "Yoga Mat"}, summary[1])
}

func TestJSONExporter(t *testing.T) {
	r := newReport(t, 5)
	raw, err := JSONExporter{}.Export(r)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"keyword": "Yoga Mat"`))
}

func TestNewExporter(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatXLSX, FormatJSON} {
		exp, err := NewExporter(f, 0)
		require.NoError(t, err)
		assert.Equal(t, f, exp.Format())
	}
	_, err := NewExporter("pdf", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReportFormatInvalid))
}

func TestFileName(t *testing.T) {
	r := &analysis.Report{Keyword: "Yoga Mat", GeneratedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "yoga-mat-20240701.xlsx", FileName(r, FormatXLSX))
}
