package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// ParameterCategory is one of the four disjoint parameter families. Each has
// its own value relation and its own id -> title lookup relation.
type ParameterCategory string

const (
	CategoryRecognition ParameterCategory = "recognition"
	CategoryStandard    ParameterCategory = "standard"
	CategoryCalculation ParameterCategory = "calculation"
	CategoryLocation    ParameterCategory = "location"
)

// Categories returns the categories in collection order. Recognition comes
// first because it selects the elements the others are fetched for.
func Categories() []ParameterCategory {
	return []ParameterCategory{CategoryRecognition, CategoryStandard, CategoryCalculation, CategoryLocation}
}

// ValueRelation is the relation holding (calc, element, parameter, value) rows.
func (c ParameterCategory) ValueRelation() string {
	return "calc.calcs_j_param_" + string(c)
}

// TitleRelation is the parameter id -> title lookup relation.
func (c ParameterCategory) TitleRelation() string {
	return "param." + string(c)
}

// IDColumn is the parameter id column shared by both relations.
func (c ParameterCategory) IDColumn() string {
	return string(c) + "_id"
}

func (c ParameterCategory) valid() bool {
	switch c {
	case CategoryRecognition, CategoryStandard, CategoryCalculation, CategoryLocation:
		return true
	}
	return false
}

// ValueFilter narrows a GetValues call. Nil slices mean "no restriction".
type ValueFilter struct {
	ElementIDs []string
	Values     []string
}

// ParameterRepository reads parameter values and parameter titles.
type ParameterRepository interface {
	// GetValues returns calc_id, model_version_element_id, <category>_id and
	// value for the given calculations.
	GetValues(ctx context.Context, category ParameterCategory, calcIDs []string, filter ValueFilter) (*table.Table, error)
	// GetTitles returns <category>_id and title for every parameter of the category.
	GetTitles(ctx context.Context, category ParameterCategory) (*table.Table, error)
}

type parameterRepository struct {
	exec datasource.QueryExecutor
}

// NewParameterRepository creates a ParameterRepository.
func NewParameterRepository(exec datasource.QueryExecutor) ParameterRepository {
	return &parameterRepository{exec: exec}
}

var _ ParameterRepository = (*parameterRepository)(nil)

func (r *parameterRepository) GetValues(ctx context.Context, category ParameterCategory, calcIDs []string, filter ValueFilter) (*table.Table, error) {
	if !category.valid() {
		return nil, fmt.Errorf("unknown parameter category %q", category)
	}
	cols := []string{"calc_id", "model_version_element_id", category.IDColumn(), "value"}
	if len(calcIDs) == 0 {
		return table.New(cols...), nil
	}
	calcs, err := toUUIDs(calcIDs)
	if err != nil {
		return nil, err
	}
	rel, err := relation(r.exec, category.ValueRelation())
	if err != nil {
		return nil, err
	}

	params := []any{calcs}
	conds := []string{"calc_id = ANY($1)"}
	if filter.ElementIDs != nil {
		if len(filter.ElementIDs) == 0 {
			return table.New(cols...), nil
		}
		elems, err := toUUIDs(filter.ElementIDs)
		if err != nil {
			return nil, err
		}
		params = append(params, elems)
		conds = append(conds, fmt.Sprintf("model_version_element_id = ANY($%d)", len(params)))
	}
	if filter.Values != nil {
		if len(filter.Values) == 0 {
			return table.New(cols...), nil
		}
		params = append(params, filter.Values)
		conds = append(conds, fmt.Sprintf("value = ANY($%d)", len(params)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s`, strings.Join(cols, ", "), rel, strings.Join(conds, " AND "))

	res, err := r.exec.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s parameter values: %w", category, err)
	}
	return table.FromRecords(cols, res.Rows), nil
}

func (r *parameterRepository) GetTitles(ctx context.Context, category ParameterCategory) (*table.Table, error) {
	if !category.valid() {
		return nil, fmt.Errorf("unknown parameter category %q", category)
	}
	rel, err := relation(r.exec, category.TitleRelation())
	if err != nil {
		return nil, err
	}

	cols := []string{category.IDColumn(), "title"}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), rel)

	res, err := r.exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s parameter titles: %w", category, err)
	}
	return table.FromRecords(cols, res.Rows), nil
}
