package repositories

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// Columns of the section and floor metadata tables.
const (
	ColObjectID       = "construction_object_id"
	ColSectionID      = "construction_object_section_id"
	ColSectionTitle   = "section_title"
	ColSectionType    = "section_type"
	ColSectionParking = "section_is_parking"
	ColFloorTitle     = "floor_title"
	ColFloorType      = "floor_type"
	ColFloorParking   = "floor_is_parking"
)

// SectionRepository reads section and floor metadata of construction objects.
type SectionRepository interface {
	// GetSections returns one row per section of the objects with its
	// morphotype and parking flag. Sections without a type keep null columns.
	GetSections(ctx context.Context, objectIDs []string) (*table.Table, error)
	// GetFloors returns one row per floor of the sections with its floor type.
	GetFloors(ctx context.Context, sectionIDs []string) (*table.Table, error)
}

type sectionRepository struct {
	exec datasource.QueryExecutor
}

// NewSectionRepository creates a SectionRepository.
func NewSectionRepository(exec datasource.QueryExecutor) SectionRepository {
	return &sectionRepository{exec: exec}
}

var _ SectionRepository = (*sectionRepository)(nil)

func (r *sectionRepository) GetSections(ctx context.Context, objectIDs []string) (*table.Table, error) {
	cols := []string{ColObjectID, ColSectionID, ColSectionTitle, ColSectionType, ColSectionParking}
	if len(objectIDs) == 0 {
		return table.New(cols...), nil
	}
	ids, err := toUUIDs(objectIDs)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT s.construction_object_id,
		       s.construction_object_section_id,
		       s.title AS section_title,
		       t.title AS section_type,
		       t.is_parking AS section_is_parking
		FROM sections.construction_object_sections s
		LEFT JOIN dict.section_types t ON t.section_type_id = s.section_type_id
		WHERE s.construction_object_id = ANY($1)`

	res, err := r.exec.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	return table.FromRecords(cols, res.Rows), nil
}

func (r *sectionRepository) GetFloors(ctx context.Context, sectionIDs []string) (*table.Table, error) {
	cols := []string{ColSectionID, ColFloorTitle, ColFloorType, ColFloorParking}
	if len(sectionIDs) == 0 {
		return table.New(cols...), nil
	}
	ids, err := toUUIDs(sectionIDs)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT f.construction_object_section_id,
		       f.title AS floor_title,
		       t.title AS floor_type,
		       t.is_parking AS floor_is_parking
		FROM sections.construction_object_floors f
		LEFT JOIN dict.floor_types t ON t.floor_type_id = f.floor_type_id
		WHERE f.construction_object_section_id = ANY($1)`

	res, err := r.exec.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query floors: %w", err)
	}
	return table.FromRecords(cols, res.Rows), nil
}
