package services

import (
	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// QualityReport surfaces the data-quality signals of a volume dataset:
// which model versions contributed, which sections matched which
// morphotype, and which element rows found no section or floor metadata.
type QualityReport struct {
	// Elements per model name and version index.
	ModelVersions *table.Table
	// Distinct (model name, section, morphotype) combinations with counts.
	SectionMorphotypes *table.Table
	WithoutSection     int
	WithoutFloor       int
	// Rows without section metadata, per (model name, section, floor).
	UnmatchedSections *table.Table
	// Rows without floor metadata, per (model name, section, floor).
	UnmatchedFloors   *table.Table
	UnresolvedTitles  int
	Missing           []*apperrors.StageNotFoundError
	DuplicateSections []SectionKey
}

func (s *volumesService) Quality(ds *VolumeDataset) (*QualityReport, error) {
	v := s.vocab
	el := ds.Elements
	if err := el.Require(ColModelName, ColVersionIndex, v.Section, v.Floor, v.SectionMorphotype, v.FloorType); err != nil {
		return nil, err
	}

	q := &QualityReport{}
	var err error
	if q.ModelVersions, err = valueCounts(el, v.Count, ColModelName, ColVersionIndex); err != nil {
		return nil, err
	}
	if q.SectionMorphotypes, err = valueCounts(el, v.Count, ColModelName, v.Section, v.SectionMorphotype); err != nil {
		return nil, err
	}

	noSection := el.Filter(func(r table.Row) bool { return r.IsNull(v.SectionMorphotype) })
	if q.UnmatchedSections, err = valueCounts(noSection, v.Count, ColModelName, v.Section, v.Floor); err != nil {
		return nil, err
	}
	noFloor := el.Filter(func(r table.Row) bool { return r.IsNull(v.FloorType) })
	if q.UnmatchedFloors, err = valueCounts(noFloor, v.Count, ColModelName, v.Section, v.Floor); err != nil {
		return nil, err
	}

	if ds.Enrich != nil {
		q.WithoutSection = ds.Enrich.WithoutSection
		q.WithoutFloor = ds.Enrich.WithoutFloor
		q.DuplicateSections = ds.Enrich.DuplicateSections
	}
	if ds.Collect != nil {
		q.UnresolvedTitles = ds.Collect.TotalUnresolved()
	}
	if ds.Resolution != nil {
		q.Missing = ds.Resolution.Missing
	}
	return q, nil
}

// valueCounts counts rows per distinct key, sorted by key. Rows with a null
// key are not counted.
func valueCounts(t *table.Table, countCol string, keys ...string) (*table.Table, error) {
	grouped, err := t.GroupBy(keys...)
	if err != nil {
		return nil, err
	}
	return grouped.Aggregate(table.Aggregation{Func: table.AggSize, As: countCol})
}
