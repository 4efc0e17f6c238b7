package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// Sheet is one named table of a workbook.
type Sheet struct {
	Name  string
	Table *table.Table
}

// WriteTable writes t as the only sheet of a new workbook at path.
func WriteTable(path, sheet string, t *table.Table) error {
	return WriteSheets(path, []Sheet{{Name: sheet, Table: t}})
}

// WriteSheets writes the sheets, in order, to a new workbook at path. The
// header row is bold; null and NaN cells are left blank.
func WriteSheets(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write to %s", path)
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#D9E1F2"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool)
	for i, s := range sheets {
		name := uniqueSheetName(SheetName(s.Name), used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s.Table, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *table.Table, headerStyle int) error {
	if t == nil {
		return nil
	}
	cols := t.Columns()
	if len(cols) == 0 {
		return nil
	}
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range t.Rows() {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellValue(r.Get(c))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue maps a table cell to a value excelize can store. Infinities have
// no spreadsheet representation and are written as text.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		switch {
		case math.IsNaN(x):
			return nil
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		}
		return x
	case string, bool, int, int64:
		return x
	}
	return table.ToString(v)
}

// SheetName makes s a valid sheet name: characters Excel rejects become "_"
// and the name is cut to 31 characters.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(strings.TrimSpace(s), "'"))
	if s == "" {
		s = "Sheet"
	}
	if runes := []rune(s); len(runes) > maxSheetName {
		s = string(runes[:maxSheetName])
	}
	return s
}

// uniqueSheetName suffixes name until it differs, case-insensitively, from
// every name already used.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// FileName replaces path separators and other characters that are unsafe in
// file names.
func FileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "unnamed"
	}
	return s
}
