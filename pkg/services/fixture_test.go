package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/repositories"
)

var (
	wallType = models.ElementType{Name: "Wall", Measure: "Volume", GroupBy: []string{"Mark"}}
	slabType = models.ElementType{Name: "Slab", Measure: "Quantity"}
)

func conceptStageID() string {
	id, _ := models.NewStageMap(models.DefaultStages()).Lookup(conceptStage)
	return id
}

func fixtureObjects() []models.ObjectStage {
	return []models.ObjectStage{
		{ObjectID: objectA, Name: "Object A", Stage: conceptStage},
		{ObjectID: objectB, Name: "Object B", Stage: conceptStage},
	}
}

// newFixtureBIMRepo holds two objects with one volume model each. Object A
// has two versions; its latest version has two calculations of which the
// later one is authoritative.
func newFixtureBIMRepo() *mockBIMRepo {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	stage := conceptStageID()
	return &mockBIMRepo{
		stages: []*models.ModelStage{
			{ID: "ms-a", StageID: stage, ObjectID: objectA},
			{ID: "ms-b", StageID: stage, ObjectID: objectB},
		},
		models: []*models.Model{
			{ID: "m-a", ModelStageID: "ms-a", Name: "AR_A", ModelType: models.ModelTypeVolumes},
			{ID: "m-b", ModelStageID: "ms-b", Name: "AR_B", ModelType: models.ModelTypeVolumes},
			{ID: "m-a-old", ModelStageID: "ms-a", Name: "AR_A_2023", ModelType: models.ModelTypeVolumes, IsArchived: true},
			{ID: "m-a-prem", ModelStageID: "ms-a", Name: "PR_A", ModelType: models.ModelTypePremises},
		},
		versions: []*models.ModelVersion{
			{ID: "v-a1", ModelID: "m-a", VersionIndex: 1},
			{ID: "v-a2", ModelID: "m-a", VersionIndex: 2},
			{ID: "v-b1", ModelID: "m-b", VersionIndex: 1},
			{ID: "v-a-old", ModelID: "m-a-old", VersionIndex: 9},
			{ID: "v-a-prem", ModelID: "m-a-prem", VersionIndex: 1},
		},
		calcs: []*models.Calculation{
			{ID: "c-a1", ModelVersionID: "v-a1", CreatedAt: t0},
			{ID: "c-a2", ModelVersionID: "v-a2", CreatedAt: t0.Add(time.Hour)},
			{ID: "c-a2b", ModelVersionID: "v-a2", CreatedAt: t0.Add(2 * time.Hour)},
			{ID: "c-b1", ModelVersionID: "v-b1", CreatedAt: t0},
			{ID: "c-a-old", ModelVersionID: "v-a-old", CreatedAt: t0},
			{ID: "c-a-prem", ModelVersionID: "v-a-prem", CreatedAt: t0},
		},
	}
}

// newFixtureParameterRepo describes the elements of the fixture calculations:
//
//	e1 AR_A Wall  section 1        floor 02  volume 10
//	e2 AR_A Wall  section 1        floor 03  volume 14
//	e3 AR_B Wall  section A        floor 02  volume 12
//	e4 AR_B Slab  section A        floor 02  mark S1
//	e5 AR_A Wall  section Unknown  Roof      volume 5
//	e6 AR_A Wall in a superseded calculation
func newFixtureParameterRepo() *mockParameterRepo {
	repo := newMockParameterRepo()
	element := func(calc, id, elementType, section, floor, volume string) {
		repo.param(repositories.CategoryRecognition, calc, id, "Element type", elementType)
		repo.param(repositories.CategoryLocation, calc, id, "Section", section)
		repo.param(repositories.CategoryLocation, calc, id, "Floor", floor)
		if volume != "" {
			repo.param(repositories.CategoryStandard, calc, id, "Volume", volume)
		}
	}
	element("c-a2b", "e1", "Wall", "1", "Floor 02 (elev. +3.000)", "10")
	element("c-a2b", "e2", "Wall", "1", "Floor 03", "14")
	element("c-b1", "e3", "Wall", "A", "Floor 02", "12")
	element("c-b1", "e4", "Slab", "A", "Floor 02", "")
	element("c-a2b", "e5", "Wall", "Unknown", "Roof", "5")
	element("c-a1", "e6", "Wall", "1", "Floor 02", "99")
	repo.param(repositories.CategoryStandard, "c-b1", "e4", "Mark", "S1")
	repo.param(repositories.CategoryCalculation, "c-b1", "e4", "Area", "36.5")
	return repo
}

func newFixtureSectionRepo() *mockSectionRepo {
	repo := &mockSectionRepo{}
	repo.section(objectA, "sec-a1", "1", "A")
	repo.section(objectB, "sec-b1", "A", "A")
	repo.floor("sec-a1", "Floor 02", "Typical")
	repo.floor("sec-a1", "Floor 03", "Typical")
	repo.floor("sec-b1", "Floor 02", "Typical")
	return repo
}

func newFixtureVolumesService() VolumesService {
	logger := zap.NewNop()
	vocab := models.DefaultVocabulary()
	stages := models.NewStageMap(models.DefaultStages())
	return NewVolumesService(
		NewResolutionService(newFixtureBIMRepo(), stages, logger),
		NewParameterCollector(newFixtureParameterRepo(), logger),
		NewEnrichmentService(newFixtureSectionRepo(), vocab, logger),
		vocab,
		logger,
	)
}
