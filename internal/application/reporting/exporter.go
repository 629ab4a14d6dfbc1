package reporting

import (
	"encoding/json"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// DefaultTopN caps the product table when no limit is configured.
const DefaultTopN = 50

// Exporter renders a report into one document format.
type Exporter interface {
	Format() Format
	Export(r *analysis.Report) ([]byte, error)
}

// JSONExporter writes the report as indented JSON.
type JSONExporter struct{}

func (JSONExporter) Format() Format { return FormatJSON }

func (JSONExporter) Export(r *analysis.Report) ([]byte, error) {
	if r == nil {
		return nil, errNilReport
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportRenderFailed, "failed to encode report")
	}
	return raw, nil
}

var errNilReport = errors.New(errors.ErrCodeReportRenderFailed, "report is nil")

// NewExporter returns the exporter of format f.
func NewExporter(f Format, topN int) (Exporter, error) {
	switch f {
	case FormatCSV:
		return NewCSVExporter(topN), nil
	case FormatXLSX:
		return NewXLSXExporter(topN), nil
	case FormatJSON:
		return JSONExporter{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeReportFormatInvalid, "unsupported report format %q", f)
	}
}
