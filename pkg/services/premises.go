package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// PremisesService loads premise-part parameters of one construction object.
type PremisesService interface {
	// LoadPremises resolves the premises calculation of the object at the
	// given stage and returns one row per premise part with one column per
	// parameter title. version is models.LatestVersion or an explicit
	// version_index.
	LoadPremises(ctx context.Context, object models.ObjectStage, version int) (*PremiseReport, error)
}

type premisesService struct {
	resolver  ResolutionService
	collector ParameterCollector
	vocab     models.Vocabulary
	logger    *zap.Logger
}

// NewPremisesService creates a PremisesService.
func NewPremisesService(resolver ResolutionService, collector ParameterCollector, vocab models.Vocabulary, logger *zap.Logger) PremisesService {
	return &premisesService{
		resolver:  resolver,
		collector: collector,
		vocab:     vocab,
		logger:    logger.Named("premises"),
	}
}

var _ PremisesService = (*premisesService)(nil)

func (s *premisesService) LoadPremises(ctx context.Context, object models.ObjectStage, version int) (*PremiseReport, error) {
	res, err := s.resolver.ResolveCalculations(ctx, []models.ObjectStage{object}, models.ModelTypePremises, version)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		if len(res.Missing) > 0 {
			return nil, res.Missing[0]
		}
		return nil, fmt.Errorf("%w: no premises calculation for object %s", apperrors.ErrNoData, object.ObjectID)
	}

	long, stats, err := s.collector.Collect(ctx, CollectRequest{CalcIDs: res.CalcIDs()})
	if err != nil {
		return nil, err
	}
	wide, err := table.Pivot(long, ColElementID, ColTitle, ColValue)
	if err != nil {
		return nil, fmt.Errorf("failed to pivot premise parameters: %w", err)
	}
	p := s.vocab.Premises
	converted := table.CoerceNumeric(wide, ColElementID, p.PremiseNumber, p.PartNumber, p.SectionName)

	s.logger.Info("Loaded premises",
		zap.String("construction_object_id", object.ObjectID),
		zap.Int("calculations", len(res.Calculations)),
		zap.Int("parts", wide.Len()),
		zap.Int("numeric_columns", len(converted)),
		zap.Int("unresolved_titles", stats.TotalUnresolved()))
	return NewPremiseReport(wide, s.vocab), nil
}
