package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// Nomenclature groups elements of each type by object name, stage, element
// type and the type's grouping parameters. Missing grouping values become the
// "not filled" text and a missing measure counts as 0. The output has the
// measure sum and the element count; when the measure is the synthetic
// quantity column only the count is kept.
func (s *volumesService) Nomenclature(ds *VolumeDataset, types []models.ElementType) (map[string]*table.Table, error) {
	v := s.vocab
	out := make(map[string]*table.Table, len(types))
	for _, t := range types {
		rows, err := s.rowsOfType(ds, t.Name)
		if err != nil {
			return nil, err
		}
		addQuantity(rows, v.Quantity)

		keys := append([]string{v.ObjectName, v.Stage, v.ElementType}, t.GroupBy...)
		if rows.Len() == 0 {
			empty := table.New(keys...)
			if t.Measure != v.Quantity {
				empty.AddColumn(t.Measure)
			}
			empty.AddColumn(v.Count)
			out[t.Name] = empty
			continue
		}
		if err := rows.Require(append(keys, t.Measure)...); err != nil {
			return nil, fmt.Errorf("nomenclature for %q: %w", t.Name, err)
		}
		if err := rows.FillNull(v.NotFilled, keys...); err != nil {
			return nil, err
		}
		if err := rows.FillNull(float64(0), t.Measure); err != nil {
			return nil, err
		}

		grouped, err := rows.GroupBy(keys...)
		if err != nil {
			return nil, err
		}
		aggs := []table.Aggregation{{Column: t.Measure, Func: table.AggSum, As: t.Measure}}
		if t.Measure == v.Quantity {
			aggs = nil
		}
		aggs = append(aggs, table.Aggregation{Func: table.AggSize, As: v.Count})
		result, err := grouped.Aggregate(aggs...)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("Nomenclature",
			zap.String("element_type", t.Name),
			zap.Int("positions", result.Len()))
		out[t.Name] = result
	}
	return out, nil
}
