package reporting

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// utf8BOM makes spreadsheet applications detect UTF-8 in CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes report tables as CSV.
type CSVExporter struct {
	topN int
}

// NewCSVExporter returns a CSV exporter.  topN <= 0 uses DefaultTopN.
func NewCSVExporter(topN int) *CSVExporter {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &CSVExporter{topN: topN}
}

func (e *CSVExporter) Format() Format { return FormatCSV }

// Export writes every section into one document.  Each section starts with a
// "# Name" line and sections are separated by an empty line.
func (e *CSVExporter) Export(r *analysis.Report) ([]byte, error) {
	if r == nil {
		return nil, errNilReport
	}
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	for i, t := range Tables(r, e.topN) {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("# " + t.Name + "\n")
		if err := writeTable(&buf, t); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ExportTable writes a single section.
func (e *CSVExporter) ExportTable(w io.Writer, t Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to write csv")
	}
	return writeTable(w, t)
}

// WriteFiles writes one CSV file per section into dir and returns the paths
// in section order.  Files are named after the section, e.g. products.csv.
func (e *CSVExporter) WriteFiles(dir string, r *analysis.Report) ([]string, error) {
	if r == nil {
		return nil, errNilReport
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeReportRenderFailed, "failed to create %s", dir)
	}
	var paths []string
	for _, t := range Tables(r, e.topN) {
		path := filepath.Join(dir, strings.ToLower(t.Name)+".csv")
		f, err := os.Create(path)
		if err != nil {
			return paths, errors.Wrapf(err, errors.ErrCodeReportRenderFailed, "failed to create %s", path)
		}
		err = e.ExportTable(f, t)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, errors.ErrCodeReportRenderFailed, "failed to close %s", path)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to write csv header")
	}
	record := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, cellString(cell))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to flush csv")
	}
	return nil
}
