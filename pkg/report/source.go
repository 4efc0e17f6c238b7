package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/services"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// Source is the run input: which element types to analyse on which objects.
type Source struct {
	ElementTypes []models.ElementType
	Objects      []models.ObjectStage
}

// LoadSource reads the source workbook. The element-type sheet has the
// columns type name, measure parameter, comma-separated grouping parameters
// and an optional short name; the objects sheet has object name, stage and
// construction object id. The first row of each sheet is a header.
func LoadSource(path, typesSheet, objectsSheet string) (*Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	typeRows, err := f.GetRows(typesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", typesSheet, err)
	}
	objectRows, err := f.GetRows(objectsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", objectsSheet, err)
	}

	src := &Source{}
	for i, row := range dataRows(typeRows) {
		name := cell(row, 0)
		if name == "" {
			continue
		}
		measure := cell(row, 1)
		if measure == "" {
			return nil, fmt.Errorf("sheet %q row %d: element type %q has no measure parameter", typesSheet, i+2, name)
		}
		src.ElementTypes = append(src.ElementTypes, models.ElementType{
			Name:      name,
			Measure:   measure,
			GroupBy:   models.SplitGroupParams(cell(row, 2)),
			ShortName: cell(row, 3),
		})
	}

	for i, row := range dataRows(objectRows) {
		name, stage, rawID := cell(row, 0), cell(row, 1), cell(row, 2)
		if name == "" && stage == "" && rawID == "" {
			continue
		}
		id, err := models.ParseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", objectsSheet, i+2, err)
		}
		if stage == "" {
			return nil, fmt.Errorf("sheet %q row %d: object %q has no stage", objectsSheet, i+2, name)
		}
		src.Objects = append(src.Objects, models.ObjectStage{ObjectID: id, Name: name, Stage: stage})
	}

	if len(src.ElementTypes) == 0 {
		return nil, fmt.Errorf("sheet %q lists no element types", typesSheet)
	}
	if len(src.Objects) == 0 {
		return nil, fmt.Errorf("sheet %q lists no objects", objectsSheet)
	}
	return src, nil
}

// ReadTable reads a sheet into a table using the first row as column names.
// Empty cells are null and fully empty rows are dropped. Cells stay text.
func ReadTable(path, sheet string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table.New(), nil
	}

	cols := headerNames(rows[0])
	t := table.New(cols...)
	for _, row := range rows[1:] {
		values := make([]any, len(cols))
		empty := true
		for i := range cols {
			if v := cell(row, i); v != "" {
				values[i] = v
				empty = false
			}
		}
		if !empty {
			t.Append(values...)
		}
	}
	return t, nil
}

// LoadCRM reads the sales CRM export and checks it has the columns the CRM
// comparison matches on.
func LoadCRM(path, sheet string) (*table.Table, error) {
	t, err := ReadTable(path, sheet)
	if err != nil {
		return nil, err
	}
	if err := t.Require(services.CRMName, services.CRMKind, services.CRMSection, services.CRMFloor, services.CRMIndex, services.CRMTotalArea); err != nil {
		return nil, fmt.Errorf("CRM export %s: %w", path, err)
	}
	return t, nil
}

func dataRows(rows [][]string) [][]string {
	if len(rows) < 2 {
		return nil
	}
	return rows[1:]
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// headerNames names blank header cells by position and disambiguates repeats.
func headerNames(header []string) []string {
	seen := make(map[string]int)
	out := make([]string, len(header))
	for i := range header {
		name := cell(header, i)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		out[i] = name
	}
	return out
}
