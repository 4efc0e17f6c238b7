package report

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/services"
)

const (
	objectA = "11111111-1111-4111-8111-111111111111"
	objectB = "22222222-2222-4222-8222-222222222222"
)

// writeRows builds a workbook with one sheet per entry of sheets.
func writeRows(t *testing.T, sheets map[string][][]any, order ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "source.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadSource(t *testing.T) {
	path := writeRows(t, map[string][][]any{
		"Element types": {
			{"Type", "Measure", "Group by", "Short name"},
			{"Wall", "Volume", "Mark, Thickness", "walls"},
			{"", "", "", ""},
			{"Slab", "Quantity"},
		},
		"Objects": {
			{"Name", "Stage", "Id"},
			{"Object A", "Concept", objectA},
			{"Object B", "Concept", " " + objectB + " "},
		},
	}, "Element types", "Objects")

	src, err := LoadSource(path, "Element types", "Objects")
	require.NoError(t, err)
	assert.Equal(t, []models.ElementType{
		{Name: "Wall", Measure: "Volume", GroupBy: []string{"Mark", "Thickness"}, ShortName: "walls"},
		{Name: "Slab", Measure: "Quantity"},
	}, src.ElementTypes)
	assert.Equal(t, []models.ObjectStage{
		{ObjectID: objectA, Name: "Object A", Stage: "Concept"},
		{ObjectID: objectB, Name: "Object B", Stage: "Concept"},
	}, src.Objects)
}

func TestLoadSource_InvalidObjectID(t *testing.T) {
	path := writeRows(t, map[string][][]any{
		"Types":   {{"Type", "Measure"}, {"Wall", "Volume"}},
		"Objects": {{"Name", "Stage", "Id"}, {"Object A", "Concept", "not-a-uuid"}},
	}, "Types", "Objects")

	_, err := LoadSource(path, "Types", "Objects")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidIdentifier))
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		types   [][]any
		objects [][]any
		want    string
	}{
		{
			name:    "type without measure",
			types:   [][]any{{"Type", "Measure"}, {"Wall"}},
			objects: [][]any{{"Name", "Stage", "Id"}, {"A", "Concept", objectA}},
			want:    `element type "Wall" has no measure parameter`,
		},
		{
			name:    "object without stage",
			types:   [][]any{{"Type", "Measure"}, {"Wall", "Volume"}},
			objects: [][]any{{"Name", "Stage", "Id"}, {"A", "", objectA}},
			want:    `object "A" has no stage`,
		},
		{
			name:    "no element types",
			types:   [][]any{{"Type", "Measure"}},
			objects: [][]any{{"Name", "Stage", "Id"}, {"A", "Concept", objectA}},
			want:    "lists no element types",
		},
		{
			name:    "no objects",
			types:   [][]any{{"Type", "Measure"}, {"Wall", "Volume"}},
			objects: [][]any{{"Name", "Stage", "Id"}},
			want:    "lists no objects",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRows(t, map[string][][]any{"Types": tt.types, "Objects": tt.objects}, "Types", "Objects")
			_, err := LoadSource(path, "Types", "Objects")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSource_MissingSheet(t *testing.T) {
	path := writeRows(t, map[string][][]any{"Types": {{"Type", "Measure"}, {"Wall", "Volume"}}}, "Types")

	_, err := LoadSource(path, "Types", "Objects")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Objects"`)
}

func TestReadTable(t *testing.T) {
	path := writeRows(t, map[string][][]any{
		"Data": {
			{"Name", "", "Name"},
			{"a", "1", "x"},
			{"", "", ""},
			{"b", "", "y"},
		},
	}, "Data")

	data, err := ReadTable(path, "Data")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Column 2", "Name (2)"}, data.Columns())
	require.Equal(t, 2, data.Len())
	assert.Equal(t, "1", data.Get(0, "Column 2"))
	assert.Nil(t, data.Get(1, "Column 2"))
	assert.Equal(t, "y", data.Get(1, "Name (2)"))
}

func TestLoadCRM(t *testing.T) {
	header := []any{services.CRMName, services.CRMKind, services.CRMSection, services.CRMFloor, services.CRMIndex, services.CRMTotalArea}
	path := writeRows(t, map[string][][]any{
		"CRM": {header, {"Flat-1.2.1", "Flat", 1, 2, 1, 45.5}},
	}, "CRM")

	crm, err := LoadCRM(path, "CRM")
	require.NoError(t, err)
	require.Equal(t, 1, crm.Len())
	assert.Equal(t, "45.5", crm.Get(0, services.CRMTotalArea))

	bad := writeRows(t, map[string][][]any{"CRM": {{"Name", "Area"}, {"x", 1}}}, "CRM")
	_, err = LoadCRM(bad, "CRM")
	assert.Error(t, err)
}
