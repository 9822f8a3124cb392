// Package export writes view tables as Excel workbooks.
package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"scholarhub/internal/views"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrGenerate wraps any failure while building the workbook.
var ErrGenerate = errors.New("generate workbook")

// XLSX renders t into a single-sheet workbook named sheet. Badge cells are
// written as their plain text; an empty table yields a header-only sheet.
func XLSX(sheet string, t *views.Table) (*bytes.Buffer, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", ErrGenerate)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	f.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2563EB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerate, err)
	}

	for i, h := range t.Headers {
		ref := cell(i, 1)
		if err := f.SetCellValue(sheet, ref, h); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerate, err)
		}
		_ = f.SetCellStyle(sheet, ref, ref, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 20)
	}

	for r, row := range t.Rows {
		for c, v := range row.Cells {
			if err := f.SetCellValue(sheet, cell(c, r+2), v.Text); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrGenerate, err)
			}
		}
	}

	if len(t.Headers) > 0 {
		_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	return buf, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
