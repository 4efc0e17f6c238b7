package services

import (
	"context"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

const (
	objectA      = "11111111-1111-4111-8111-111111111111"
	objectB      = "22222222-2222-4222-8222-222222222222"
	objectC      = "33333333-3333-4333-8333-333333333333"
	conceptStage = "Concept"
)

func inSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// mockBIMRepo implements repositories.BIMRepository over in-memory rows.
// GetModels does not drop archived models so the service filter is exercised.
type mockBIMRepo struct {
	stages   []*models.ModelStage
	models   []*models.Model
	versions []*models.ModelVersion
	calcs    []*models.Calculation

	stagesErr error
	calls     []string
}

func (m *mockBIMRepo) GetModelStages(_ context.Context, stageID string, objectIDs []string) ([]*models.ModelStage, error) {
	m.calls = append(m.calls, "model_stages")
	if m.stagesErr != nil {
		return nil, m.stagesErr
	}
	ids := inSet(objectIDs)
	var out []*models.ModelStage
	for _, s := range m.stages {
		if s.StageID == stageID && ids[s.ObjectID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockBIMRepo) GetModels(_ context.Context, modelStageIDs []string, modelType string) ([]*models.Model, error) {
	m.calls = append(m.calls, "models")
	ids := inSet(modelStageIDs)
	var out []*models.Model
	for _, mod := range m.models {
		if ids[mod.ModelStageID] && mod.ModelType == modelType {
			out = append(out, mod)
		}
	}
	return out, nil
}

func (m *mockBIMRepo) GetModelVersions(_ context.Context, modelIDs []string) ([]*models.ModelVersion, error) {
	m.calls = append(m.calls, "model_versions")
	ids := inSet(modelIDs)
	var out []*models.ModelVersion
	for _, v := range m.versions {
		if ids[v.ModelID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockBIMRepo) GetCalculations(_ context.Context, modelVersionIDs []string) ([]*models.Calculation, error) {
	m.calls = append(m.calls, "calculations")
	ids := inSet(modelVersionIDs)
	var out []*models.Calculation
	for _, c := range m.calcs {
		if ids[c.ModelVersionID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockParameterRepo implements repositories.ParameterRepository, applying
// the value filter the way the SQL does.
type mockParameterRepo struct {
	values map[repositories.ParameterCategory][]map[string]any
	titles map[repositories.ParameterCategory]map[string]string

	valuesErr   error
	valueCalls  []repositories.ParameterCategory
	filters     []repositories.ValueFilter
	titlesCalls int
}

func newMockParameterRepo() *mockParameterRepo {
	return &mockParameterRepo{
		values: make(map[repositories.ParameterCategory][]map[string]any),
		titles: make(map[repositories.ParameterCategory]map[string]string),
	}
}

// param adds one parameter value of an element and registers its title.
// An empty title leaves the parameter id without a title.
func (m *mockParameterRepo) param(category repositories.ParameterCategory, calcID, elementID, title, value string) {
	paramID := string(category) + ":" + title
	if title == "" {
		paramID = string(category) + ":orphan"
	}
	m.values[category] = append(m.values[category], map[string]any{
		ColCalcID:           calcID,
		ColElementID:        elementID,
		category.IDColumn(): paramID,
		ColValue:            value,
	})
	if title == "" {
		return
	}
	if m.titles[category] == nil {
		m.titles[category] = make(map[string]string)
	}
	m.titles[category][paramID] = title
}

func (m *mockParameterRepo) GetValues(_ context.Context, category repositories.ParameterCategory, calcIDs []string, filter repositories.ValueFilter) (*table.Table, error) {
	m.valueCalls = append(m.valueCalls, category)
	m.filters = append(m.filters, filter)
	if m.valuesErr != nil {
		return nil, m.valuesErr
	}
	calcs := inSet(calcIDs)
	elements := inSet(filter.ElementIDs)
	values := inSet(filter.Values)
	out := table.New(ColCalcID, ColElementID, category.IDColumn(), ColValue)
	for _, rec := range m.values[category] {
		if !calcs[rec[ColCalcID].(string)] {
			continue
		}
		if filter.ElementIDs != nil && !elements[rec[ColElementID].(string)] {
			continue
		}
		if filter.Values != nil && !values[rec[ColValue].(string)] {
			continue
		}
		out.AppendRecord(rec)
	}
	return out, nil
}

func (m *mockParameterRepo) GetTitles(_ context.Context, category repositories.ParameterCategory) (*table.Table, error) {
	m.titlesCalls++
	out := table.New(category.IDColumn(), ColTitle)
	for id, title := range m.titles[category] {
		out.Append(id, title)
	}
	return out, nil
}

// mockSectionRepo implements repositories.SectionRepository.
type mockSectionRepo struct {
	sections []map[string]any
	floors   []map[string]any
}

func (m *mockSectionRepo) section(objectID, sectionID, title string, morphotype any) {
	m.sections = append(m.sections, map[string]any{
		repositories.ColObjectID:       objectID,
		repositories.ColSectionID:      sectionID,
		repositories.ColSectionTitle:   title,
		repositories.ColSectionType:    morphotype,
		repositories.ColSectionParking: false,
	})
}

func (m *mockSectionRepo) floor(sectionID, title string, floorType any) {
	m.floors = append(m.floors, map[string]any{
		repositories.ColSectionID:    sectionID,
		repositories.ColFloorTitle:   title,
		repositories.ColFloorType:    floorType,
		repositories.ColFloorParking: false,
	})
}

func (m *mockSectionRepo) GetSections(_ context.Context, objectIDs []string) (*table.Table, error) {
	ids := inSet(objectIDs)
	out := table.New(repositories.ColObjectID, repositories.ColSectionID, repositories.ColSectionTitle,
		repositories.ColSectionType, repositories.ColSectionParking)
	for _, s := range m.sections {
		if ids[s[repositories.ColObjectID].(string)] {
			out.AppendRecord(s)
		}
	}
	return out, nil
}

func (m *mockSectionRepo) GetFloors(_ context.Context, sectionIDs []string) (*table.Table, error) {
	ids := inSet(sectionIDs)
	out := table.New(repositories.ColSectionID, repositories.ColFloorTitle, repositories.ColFloorType,
		repositories.ColFloorParking)
	for _, f := range m.floors {
		if ids[f[repositories.ColSectionID].(string)] {
			out.AppendRecord(f)
		}
	}
	return out, nil
}

var (
	_ repositories.BIMRepository       = (*mockBIMRepo)(nil)
	_ repositories.ParameterRepository = (*mockParameterRepo)(nil)
	_ repositories.SectionRepository   = (*mockSectionRepo)(nil)
)
