// Package export writes submitted form answers to spreadsheet workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-reform/pkg/model"
)

// SheetName is the worksheet holding the answers.
const SheetName = "Submission"

// ContentType is the MIME type of the bytes Workbook returns.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers lists the workbook columns in order.
var Headers = []string{"Field ID", "Label", "Type", "Value", "Required"}

// Workbook renders one row per field, in the order given, and returns the
// XLSX bytes. Checkbox values and the required flag are written as booleans;
// unset values leave the cell empty.
func Workbook(fields []model.Field) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	index, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return nil, fmt.Errorf("export: sheet index: %w", err)
	}
	f.SetActiveSheet(index)

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("export: header %s: %w", h, err)
		}
	}

	for i, field := range fields {
		row := i + 2
		values := []any{field.ID, field.Label, string(field.Type), cellValue(field.Value), field.Required}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("export: field %q: %w", field.ID, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 20)
	_ = f.SetColWidth(SheetName, "B", "B", 40)
	_ = f.SetColWidth(SheetName, "C", "C", 12)
	_ = f.SetColWidth(SheetName, "D", "D", 40)
	_ = f.SetColWidth(SheetName, "E", "E", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(v model.Value) any {
	if b, ok := v.Bool(); ok {
		return b
	}
	if !v.IsSet() {
		return nil
	}
	return v.String()
}
