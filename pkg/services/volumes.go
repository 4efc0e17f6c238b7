package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// VolumeDataset is the enriched wide table of structural elements together
// with the statistics of the steps that produced it.
type VolumeDataset struct {
	Elements   *table.Table
	Resolution *Resolution
	Collect    *CollectStats
	Enrich     *EnrichStats
}

// VolumesService builds structural-volume datasets and the statistics derived
// from them.
type VolumesService interface {
	// LoadElements resolves the latest volume calculations of the objects,
	// collects the parameters of elements of the given types, pivots them to
	// one row per element and enriches the rows with section and floor
	// metadata. Returns apperrors.ErrNoData when no object resolves and
	// apperrors.ErrNoMatchingElements when no element has a requested type.
	LoadElements(ctx context.Context, objects []models.ObjectStage, types []models.ElementType) (*VolumeDataset, error)
	// FloorSums returns, per element type, the measure summed per floor.
	FloorSums(ds *VolumeDataset, types []models.ElementType) (map[string][]FloorSum, error)
	// Standards returns, per element type, the reference values.
	Standards(ds *VolumeDataset, types []models.ElementType) (map[string][]Reference, error)
	// Deviations returns, per element type, every floor compared with its reference.
	Deviations(ds *VolumeDataset, types []models.ElementType, objects []models.ObjectStage) (map[string][]Deviation, error)
	// Nomenclature returns, per element type, the element counts and measure
	// totals grouped by the type's grouping parameters.
	Nomenclature(ds *VolumeDataset, types []models.ElementType) (map[string]*table.Table, error)
	// Quality summarizes how well the dataset matched section and floor metadata.
	Quality(ds *VolumeDataset) (*QualityReport, error)
}

type volumesService struct {
	resolver  ResolutionService
	collector ParameterCollector
	enricher  EnrichmentService
	engine    *ReferenceEngine
	vocab     models.Vocabulary
	logger    *zap.Logger
}

// NewVolumesService creates a VolumesService.
func NewVolumesService(
	resolver ResolutionService,
	collector ParameterCollector,
	enricher EnrichmentService,
	vocab models.Vocabulary,
	logger *zap.Logger,
) VolumesService {
	return &volumesService{
		resolver:  resolver,
		collector: collector,
		enricher:  enricher,
		engine:    NewReferenceEngine(vocab),
		vocab:     vocab,
		logger:    logger.Named("volumes"),
	}
}

var _ VolumesService = (*volumesService)(nil)

func (s *volumesService) LoadElements(ctx context.Context, objects []models.ObjectStage, types []models.ElementType) (*VolumeDataset, error) {
	res, err := s.resolver.ResolveCalculations(ctx, objects, models.ModelTypeVolumes, models.LatestVersion)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, fmt.Errorf("%w: %d object(s) without a model stage", apperrors.ErrNoData, len(res.Missing))
	}

	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	long, stats, err := s.collector.Collect(ctx, CollectRequest{CalcIDs: res.CalcIDs(), ElementTypes: names})
	if err != nil {
		if errors.Is(err, apperrors.ErrNoMatchingElements) {
			s.logger.Warn("None of the requested element types exist in the resolved models",
				zap.Strings("element_types", names))
		}
		return nil, err
	}

	wide, err := pivotWithModelInfo(long, res)
	if err != nil {
		return nil, err
	}
	v := s.vocab
	converted := table.CoerceNumeric(wide, ColElementID, ColCalcID, ColModelID, ColModelName, v.Section, v.Floor, v.ElementType)
	s.logger.Debug("Numeric columns", zap.Strings("columns", converted))

	objectIDs := make([]string, 0, len(objects))
	for _, o := range objects {
		id, err := models.ParseID(o.ObjectID)
		if err != nil {
			return nil, err
		}
		objectIDs = append(objectIDs, id)
	}
	enriched, enrichStats, err := s.enricher.Enrich(ctx, wide, res, objectIDs)
	if err != nil {
		return nil, err
	}
	if err := attachObjectInfo(enriched, objects, v); err != nil {
		return nil, err
	}
	addQuantity(enriched, v.Quantity)

	s.logger.Info("Loaded volume elements",
		zap.Int("objects", len(res.ObjectIDs())),
		zap.Int("elements", enriched.Len()),
		zap.Int("columns", len(enriched.Columns())))
	return &VolumeDataset{Elements: enriched, Resolution: res, Collect: stats, Enrich: enrichStats}, nil
}

// pivotWithModelInfo pivots the long table first-wins and merges the model
// name, id and version of each element's calculation.
func pivotWithModelInfo(long *table.Table, res *Resolution) (*table.Table, error) {
	pairs, err := long.Select(ColElementID, ColCalcID)
	if err != nil {
		return nil, err
	}
	grouped, err := pairs.GroupBy(ColElementID, ColCalcID)
	if err != nil {
		return nil, err
	}
	elementCalc, err := grouped.Aggregate()
	if err != nil {
		return nil, err
	}
	elementInfo, err := table.Merge(elementCalc, res.ModelInfo(), ColCalcID)
	if err != nil {
		return nil, err
	}

	wide, err := table.Pivot(long, ColElementID, ColTitle, ColValue)
	if err != nil {
		return nil, fmt.Errorf("failed to pivot parameters: %w", err)
	}
	wide, err = table.Merge(wide, elementInfo, ColElementID)
	if err != nil {
		return nil, fmt.Errorf("failed to attach model info: %w", err)
	}
	return wide, nil
}

// attachObjectInfo adds the object display name and stage of every row.
func attachObjectInfo(t *table.Table, objects []models.ObjectStage, v models.Vocabulary) error {
	byID := make(map[string]models.ObjectStage, len(objects))
	for _, o := range objects {
		id, err := models.ParseID(o.ObjectID)
		if err != nil {
			return err
		}
		if _, dup := byID[id]; !dup {
			byID[id] = o
		}
	}
	t.AddColumn(v.ObjectName)
	t.AddColumn(v.Stage)
	for i := 0; i < t.Len(); i++ {
		o, ok := byID[table.ToString(t.Get(i, ColObjectID))]
		if !ok {
			continue
		}
		t.Set(i, v.ObjectName, o.Name)
		t.Set(i, v.Stage, o.Stage)
	}
	return nil
}

// addQuantity adds the synthetic quantity column, 1 per element, so that
// element counts can be used as a measure.
func addQuantity(t *table.Table, col string) {
	if t.Has(col) {
		return
	}
	t.AddColumn(col)
	for i := 0; i < t.Len(); i++ {
		t.Set(i, col, float64(1))
	}
}

// rowsOfType returns the elements whose element-type column equals name.
func (s *volumesService) rowsOfType(ds *VolumeDataset, name string) (*table.Table, error) {
	if err := ds.Elements.Require(s.vocab.ElementType); err != nil {
		return nil, err
	}
	col := s.vocab.ElementType
	return ds.Elements.Filter(func(r table.Row) bool { return r.String(col) == name }), nil
}

func (s *volumesService) FloorSums(ds *VolumeDataset, types []models.ElementType) (map[string][]FloorSum, error) {
	out := make(map[string][]FloorSum, len(types))
	for _, t := range types {
		rows, err := s.rowsOfType(ds, t.Name)
		if err != nil {
			return nil, err
		}
		if rows.Len() == 0 {
			out[t.Name] = nil
			continue
		}
		sums, err := s.engine.SumByFloor(rows, t.Measure)
		if err != nil {
			return nil, fmt.Errorf("element type %q: %w", t.Name, err)
		}
		out[t.Name] = sums
	}
	return out, nil
}

func (s *volumesService) Standards(ds *VolumeDataset, types []models.ElementType) (map[string][]Reference, error) {
	sums, err := s.FloorSums(ds, types)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Reference, len(types))
	for _, t := range types {
		refs := s.engine.ComputeReferences(sums[t.Name])
		for _, r := range refs {
			if r.Undefined() {
				s.logger.Warn("Reference is zero; deviations are undefined",
					zap.String("element_type", t.Name),
					zap.String("morphotype", r.Morphotype),
					zap.String("floor_type", r.FloorType))
			}
		}
		out[t.Name] = refs
	}
	return out, nil
}

func (s *volumesService) Deviations(ds *VolumeDataset, types []models.ElementType, objects []models.ObjectStage) (map[string][]Deviation, error) {
	names := make(map[string]string, len(objects))
	for _, o := range objects {
		if id, err := models.ParseID(o.ObjectID); err == nil {
			names[id] = o.Name
		}
	}
	sums, err := s.FloorSums(ds, types)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Deviation, len(types))
	for _, t := range types {
		refs := s.engine.ComputeReferences(sums[t.Name])
		out[t.Name] = s.engine.ComputeDeviations(sums[t.Name], refs, names)
	}
	return out, nil
}
