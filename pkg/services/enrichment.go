package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// EnrichStats counts join outcomes of an enrichment run. Unmatched rows are a
// data-quality signal, not an error.
type EnrichStats struct {
	Elements          int
	WithoutSection    int
	WithoutFloor      int
	UnmatchedSections int
	UnmatchedFloors   int
	DuplicateSections []SectionKey
}

// SectionKey identifies a section by its construction object and display name,
// the key elements are joined on.
type SectionKey struct {
	ObjectID string
	Title    string
}

// EnrichmentService attaches section and floor metadata to element rows.
type EnrichmentService interface {
	// Enrich adds the owning construction object, the section morphotype and
	// parking flag, and the floor type and parking flag to every element. The
	// floor column is replaced by its normalized token. Elements must carry
	// the model_id column. objectIDs selects whose metadata is loaded; nil
	// means every object of the resolution.
	Enrich(ctx context.Context, elements *table.Table, resolution *Resolution, objectIDs []string) (*table.Table, *EnrichStats, error)
}

type enrichmentService struct {
	repo   repositories.SectionRepository
	vocab  models.Vocabulary
	floors *FloorNormalizer
	logger *zap.Logger
}

// NewEnrichmentService creates an EnrichmentService.
func NewEnrichmentService(repo repositories.SectionRepository, vocab models.Vocabulary, logger *zap.Logger) EnrichmentService {
	return &enrichmentService{
		repo:   repo,
		vocab:  vocab,
		floors: NewFloorNormalizer(vocab.FloorWord),
		logger: logger.Named("enrichment"),
	}
}

var _ EnrichmentService = (*enrichmentService)(nil)

func (s *enrichmentService) Enrich(ctx context.Context, elements *table.Table, resolution *Resolution, objectIDs []string) (*table.Table, *EnrichStats, error) {
	if err := elements.Require(ColModelID); err != nil {
		return nil, nil, err
	}
	v := s.vocab
	out := elements.Clone()
	for _, col := range []string{v.Section, v.Floor} {
		if !out.Has(col) {
			s.logger.Warn("Elements have no location column", zap.String("column", col))
			out.AddColumn(col)
		}
	}

	stats := &EnrichStats{Elements: out.Len()}
	sectionCol, _ := out.Column(v.Section)
	floorCol, _ := out.Column(v.Floor)
	stats.WithoutSection = sectionCol.CountNull()
	stats.WithoutFloor = floorCol.CountNull()

	if err := out.Apply(v.Floor, func(raw any) any { return s.floors.Normalize(raw) }); err != nil {
		return nil, nil, err
	}

	objectByModel := resolution.ObjectByModel()
	out.AddColumn(ColObjectID)
	for i := 0; i < out.Len(); i++ {
		var obj any
		if id, ok := objectByModel[table.ToString(out.Get(i, ColModelID))]; ok {
			obj = id
		}
		out.Set(i, ColObjectID, obj)
	}

	if objectIDs == nil {
		objectIDs = resolution.ObjectIDs()
	}
	sections, err := s.repo.GetSections(ctx, objectIDs)
	if err != nil {
		return nil, nil, err
	}
	sections, err = sections.Rename(map[string]string{
		repositories.ColSectionTitle:   v.Section,
		repositories.ColSectionType:    v.SectionMorphotype,
		repositories.ColSectionParking: v.SectionParking,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rename section columns: %w", err)
	}
	dups, err := CheckSectionKeysUnique(sections, ColObjectID, v.Section)
	if err != nil {
		return nil, nil, err
	}
	if len(dups) > 0 {
		stats.DuplicateSections = dups
		s.logger.Warn("Section names are not unique within their object; matching elements are duplicated",
			zap.Int("duplicates", len(dups)))
	}

	sectionIDs := make([]string, 0, sections.Len())
	if idCol, err := sections.Column(ColSectionID); err == nil {
		for _, id := range idCol.Unique() {
			sectionIDs = append(sectionIDs, table.ToString(id))
		}
	}
	floors, err := s.repo.GetFloors(ctx, sectionIDs)
	if err != nil {
		return nil, nil, err
	}
	floors, err = floors.Rename(map[string]string{
		repositories.ColFloorTitle:   v.Floor,
		repositories.ColFloorType:    v.FloorType,
		repositories.ColFloorParking: v.FloorParking,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rename floor columns: %w", err)
	}

	out, err = table.Merge(out, sections, ColObjectID, v.Section)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join sections: %w", err)
	}
	out, err = table.Merge(out, floors, ColSectionID, v.Floor)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join floors: %w", err)
	}

	if c, err := out.Column(v.SectionMorphotype); err == nil {
		stats.UnmatchedSections = c.CountNull()
	}
	if c, err := out.Column(v.FloorType); err == nil {
		stats.UnmatchedFloors = c.CountNull()
	}
	if stats.UnmatchedSections > 0 || stats.UnmatchedFloors > 0 {
		s.logger.Warn("Elements without section or floor metadata",
			zap.Int("unmatched_sections", stats.UnmatchedSections),
			zap.Int("unmatched_floors", stats.UnmatchedFloors))
	}
	s.logger.Info("Enriched elements",
		zap.Int("elements", stats.Elements),
		zap.Int("rows", out.Len()),
		zap.Int("sections", sections.Len()),
		zap.Int("floors", floors.Len()))
	return out, stats, nil
}

// CheckSectionKeysUnique returns the (object, section name) keys that occur
// more than once in section metadata. Elements are joined to sections by
// name, so a duplicate key duplicates every matching element row.
func CheckSectionKeysUnique(sections *table.Table, objectCol, titleCol string) ([]SectionKey, error) {
	if err := sections.Require(objectCol, titleCol); err != nil {
		return nil, err
	}
	grouped, err := sections.GroupBy(objectCol, titleCol)
	if err != nil {
		return nil, err
	}
	var dups []SectionKey
	for _, g := range grouped.Groups() {
		if g.Size() > 1 {
			dups = append(dups, SectionKey{ObjectID: table.ToString(g.Key[0]), Title: table.ToString(g.Key[1])})
		}
	}
	return dups, nil
}
