package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// CollectRequest selects the parameter values to collect.
type CollectRequest struct {
	CalcIDs []string
	// ElementIDs restricts the recognition fetch to these elements. Nil means all.
	ElementIDs []string
	// ElementTypes restricts the recognition fetch to rows whose value is one
	// of these structural-element types. Nil means no restriction.
	ElementTypes []string
}

// CollectStats counts what the collector saw per parameter category.
type CollectStats struct {
	Rows map[repositories.ParameterCategory]int
	// Unresolved counts rows whose parameter id has no title.
	Unresolved map[repositories.ParameterCategory]int
	Elements   int
}

// TotalUnresolved sums Unresolved over all categories.
func (s *CollectStats) TotalUnresolved() int {
	n := 0
	for _, c := range s.Unresolved {
		n += c
	}
	return n
}

// ParameterCollector gathers the long (calc_id, element, value, title) table.
type ParameterCollector interface {
	// Collect fetches recognition values first and the other three categories
	// only for the elements recognition surfaced. An empty recognition result
	// returns apperrors.ErrNoMatchingElements without further queries.
	Collect(ctx context.Context, req CollectRequest) (*table.Table, *CollectStats, error)
}

type parameterCollector struct {
	repo   repositories.ParameterRepository
	logger *zap.Logger
}

// NewParameterCollector creates a ParameterCollector.
func NewParameterCollector(repo repositories.ParameterRepository, logger *zap.Logger) ParameterCollector {
	return &parameterCollector{
		repo:   repo,
		logger: logger.Named("collector"),
	}
}

var _ ParameterCollector = (*parameterCollector)(nil)

func (c *parameterCollector) Collect(ctx context.Context, req CollectRequest) (*table.Table, *CollectStats, error) {
	stats := &CollectStats{
		Rows:       make(map[repositories.ParameterCategory]int),
		Unresolved: make(map[repositories.ParameterCategory]int),
	}
	if len(req.CalcIDs) == 0 {
		return nil, stats, fmt.Errorf("no calculations to collect: %w", apperrors.ErrNoData)
	}

	recognition, err := c.repo.GetValues(ctx, repositories.CategoryRecognition, req.CalcIDs, repositories.ValueFilter{
		ElementIDs: req.ElementIDs,
		Values:     req.ElementTypes,
	})
	if err != nil {
		return nil, stats, err
	}
	if recognition.Len() == 0 {
		c.logger.Info("No elements match the requested element types",
			zap.Strings("element_types", req.ElementTypes),
			zap.Int("calculations", len(req.CalcIDs)))
		return nil, stats, apperrors.ErrNoMatchingElements
	}

	elemCol, err := recognition.Column(ColElementID)
	if err != nil {
		return nil, stats, err
	}
	elementIDs := make([]string, 0, recognition.Len())
	for _, v := range elemCol.Unique() {
		elementIDs = append(elementIDs, table.ToString(v))
	}
	stats.Elements = len(elementIDs)

	parts := make([]*table.Table, 0, len(repositories.Categories()))
	for _, category := range repositories.Categories() {
		values := recognition
		if category != repositories.CategoryRecognition {
			values, err = c.repo.GetValues(ctx, category, req.CalcIDs, repositories.ValueFilter{ElementIDs: elementIDs})
			if err != nil {
				return nil, stats, err
			}
		}
		titled, unresolved, err := c.attachTitles(ctx, category, values)
		if err != nil {
			return nil, stats, err
		}
		stats.Rows[category] = titled.Len()
		if unresolved > 0 {
			stats.Unresolved[category] = unresolved
			c.logger.Warn("Parameter ids without a title",
				zap.String("category", string(category)),
				zap.Int("rows", unresolved))
		}
		parts = append(parts, titled)
	}

	long := table.Concat(parts...)
	c.logger.Info("Collected parameter values",
		zap.Int("elements", stats.Elements),
		zap.Int("rows", long.Len()),
		zap.Int("unresolved", stats.TotalUnresolved()))
	return long, stats, nil
}

// attachTitles left-joins category values to their titles and projects the
// long columns. Rows without a title keep a null title.
func (c *parameterCollector) attachTitles(ctx context.Context, category repositories.ParameterCategory, values *table.Table) (*table.Table, int, error) {
	titles, err := c.repo.GetTitles(ctx, category)
	if err != nil {
		return nil, 0, err
	}
	joined, err := table.Merge(values, titles, category.IDColumn())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to attach %s titles: %w", category, err)
	}
	long, err := joined.Select(ColCalcID, ColElementID, ColValue, ColTitle)
	if err != nil {
		return nil, 0, err
	}
	titleCol, _ := long.Column(ColTitle)
	return long, titleCol.CountNull(), nil
}
