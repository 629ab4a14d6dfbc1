// Package reporting renders analysis reports into downloadable CSV and XLSX
// documents and publishes them to object storage.
package reporting

import (
	"strings"

	"github.com/turtacn/OceanScout/pkg/errors"
)

// Format is an output document format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts a case-insensitive format name.  An empty name yields
// def.
func ParseFormat(s string, def Format) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	switch f := Format(s); f {
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", errors.Newf(errors.ErrCodeReportFormatInvalid, "unsupported report format %q", s).
			WithDetail("supported=csv,xlsx,json")
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return string(f) }
