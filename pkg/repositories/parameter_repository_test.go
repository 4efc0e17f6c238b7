package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcID = "d0000000-0000-4000-8000-000000000122"

func TestParameterCategory_Relations(t *testing.T) {
	assert.Equal(t, "calc.calcs_j_param_location", CategoryLocation.ValueRelation())
	assert.Equal(t, "param.location", CategoryLocation.TitleRelation())
	assert.Equal(t, "location_id", CategoryLocation.IDColumn())
	assert.Equal(t, CategoryRecognition, Categories()[0])
}

func TestParameterRepository_GetValues_Filters(t *testing.T) {
	exec := newFakeExecutor()
	exec.results["calc.calcs_j_param_recognition"] = []map[string]any{
		{"calc_id": calcID, "model_version_element_id": "e0000000-0000-4000-8000-000000000001", "recognition_id": "f1000000-0000-4000-8000-000000000001", "value": "Wall"},
	}
	repo := NewParameterRepository(exec)

	got, err := repo.GetValues(context.Background(), CategoryRecognition, []string{calcID}, ValueFilter{Values: []string{"Wall", "Slab"}})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, []string{"calc_id", "model_version_element_id", "recognition_id", "value"}, got.Columns())

	q := exec.queries[0]
	assert.Contains(t, q.sql, `"calc"."calcs_j_param_recognition"`)
	assert.Contains(t, q.sql, "calc_id = ANY($1) AND value = ANY($2)")
	assert.Equal(t, []uuid.UUID{uuid.MustParse(calcID)}, q.params[0])
	assert.Equal(t, []string{"Wall", "Slab"}, q.params[1])
}

func TestParameterRepository_GetValues_ElementFilter(t *testing.T) {
	exec := newFakeExecutor()
	repo := NewParameterRepository(exec)

	_, err := repo.GetValues(context.Background(), CategoryStandard, []string{calcID},
		ValueFilter{ElementIDs: []string{"e0000000-0000-4000-8000-000000000001"}})
	require.NoError(t, err)
	assert.Contains(t, exec.queries[0].sql, "model_version_element_id = ANY($2)")
	assert.Len(t, exec.queries[0].params, 2)
}

func TestParameterRepository_GetValues_EmptyFilterMatchesNothing(t *testing.T) {
	exec := newFakeExecutor()
	repo := NewParameterRepository(exec)

	got, err := repo.GetValues(context.Background(), CategoryStandard, []string{calcID}, ValueFilter{ElementIDs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Empty(t, exec.queries)
}

func TestParameterRepository_UnknownCategory(t *testing.T) {
	repo := NewParameterRepository(newFakeExecutor())

	_, err := repo.GetValues(context.Background(), ParameterCategory("bogus"), []string{calcID}, ValueFilter{})
	assert.Error(t, err)
	_, err = repo.GetTitles(context.Background(), ParameterCategory("bogus"))
	assert.Error(t, err)
}

func TestParameterRepository_GetTitles(t *testing.T) {
	exec := newFakeExecutor()
	exec.results["param.standard"] = []map[string]any{
		{"standard_id": "f2000000-0000-4000-8000-000000000001", "title": "Volume"},
	}
	repo := NewParameterRepository(exec)

	got, err := repo.GetTitles(context.Background(), CategoryStandard)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "Volume", got.Row(0).String("title"))
	assert.Equal(t, []string{"standard_id", "title"}, got.Columns())
}
