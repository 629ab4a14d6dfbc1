package reporting

import (
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/pkg/errors"
)

const defaultSheet = "Sheet1"

// XLSXExporter writes one workbook with a sheet per report section.
type XLSXExporter struct {
	topN int
}

// NewXLSXExporter returns an XLSX exporter.  topN <= 0 uses DefaultTopN.
func NewXLSXExporter(topN int) *XLSXExporter {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &XLSXExporter{topN: topN}
}

func (e *XLSXExporter) Format() Format { return FormatXLSX }

func (e *XLSXExporter) Export(r *analysis.Report) ([]byte, error) {
	if r == nil {
		return nil, errNilReport
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, renderErr(err, "failed to create header style")
	}

	for i, t := range Tables(r, e.topN) {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return nil, renderErr(err, "failed to name sheet")
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, renderErr(err, "failed to add sheet "+t.Name)
		}
		if err := writeSheet(f, t, header); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, renderErr(err, "failed to write workbook")
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	headers := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &headers); err != nil {
		return renderErr(err, "failed to write header of "+t.Name)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return renderErr(err, "invalid cell")
		}
		row := row
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return renderErr(err, "failed to write row of "+t.Name)
		}
	}

	last, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return renderErr(err, "invalid column")
	}
	if err := f.SetCellStyle(t.Name, "A1", last+"1", headerStyle); err != nil {
		return renderErr(err, "failed to style header of "+t.Name)
	}
	if err := f.SetColWidth(t.Name, "A", last, 16); err != nil {
		return renderErr(err, "failed to size columns of "+t.Name)
	}
	if err := f.SetPanes(t.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return renderErr(err, "failed to freeze header of "+t.Name)
	}
	return nil
}

func renderErr(err error, msg string) error {
	return errors.Wrap(err, errors.ErrCodeReportRenderFailed, msg)
}
