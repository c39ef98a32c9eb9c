package analysis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads one sheet of a workbook as a Table. If sheetName is empty the
// 1-based sheetIndex selects the sheet (values <= 0 mean the first sheet).
func ReadXLSX(path, sheetName string, sheetIndex int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	target := ""
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, sheetName) {
				target = s
				break
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				sheetName, filepath.Base(path), strings.Join(sheets, ", "))
		}
	} else {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range in workbook '%s' (%d sheets)", idx, filepath.Base(path), len(sheets))
		}
		target = sheets[idx-1]
	}

	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	t := &Table{Name: filepath.Base(path)}
	if len(rows) == 0 {
		return t, nil
	}
	t.Header = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		t.Header[i] = strings.TrimSpace(h)
	}
	for _, r := range rows[1:] {
		row := make([]string, len(t.Header))
		copy(row, r)
		t.Rows = append(t.Rows, row)
	}
	t.Total = len(t.Rows)
	return t, nil
}

// Sheet is one worksheet to be written by WriteXLSX.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteXLSX writes sheets into a new workbook at path. Cells that parse as
// numbers are stored as numbers; empty cells stay blank.
func WriteXLSX(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("write xlsx: no sheets")
	}
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("new sheet %s: %w", s.Name, err)
		}
		if err := writeSheetRow(f, s.Name, 1, toCells(s.Header, false)); err != nil {
			return err
		}
		for r, row := range s.Rows {
			if err := writeSheetRow(f, s.Name, r+2, toCells(row, true)); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(vals []string, numeric bool) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		if v == "" {
			out[i] = nil
			continue
		}
		if numeric {
			if x, ok := ParseNumeric(v, Options{DecimalSeparator: '.'}); ok {
				out[i] = x
				continue
			}
		}
		out[i] = v
	}
	return out
}
