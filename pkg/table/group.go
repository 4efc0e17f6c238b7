package table

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// AggFunc names an aggregation applied to each group.
type AggFunc string

const (
	AggSum   AggFunc = "sum"
	AggMean  AggFunc = "mean"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
	AggCount AggFunc = "count" // non-null cells
	AggSize  AggFunc = "size"  // rows
	AggFirst AggFunc = "first"
	AggJoin  AggFunc = "join" // comma-joined distinct text
)

// Aggregation describes one output column of Grouped.Aggregate.
type Aggregation struct {
	Column string
	Func   AggFunc
	As     string
}

// Group is one set of rows sharing a key.
type Group struct {
	Key  []any
	Rows []int
	t    *Table
}

// Grouped is the result of Table.GroupBy.
type Grouped struct {
	keys   []string
	groups []*Group
	t      *Table
}

// GroupBy partitions rows by the named key columns. Rows with a null value in
// any key column are dropped. Groups are returned sorted by key.
func (t *Table) GroupBy(keys ...string) (*Grouped, error) {
	if err := t.Require(keys...); err != nil {
		return nil, err
	}
	byKey := make(map[string]*Group)
	var groups []*Group
	for i, r := range t.rows {
		vals := pick(r, t, keys)
		null := false
		for _, v := range vals {
			if IsNull(v) {
				null = true
				break
			}
		}
		if null {
			continue
		}
		k := keyOf(vals)
		g, ok := byKey[k]
		if !ok {
			g = &Group{Key: vals, t: t}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, i)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		for i := range keys {
			if c := Compare(groups[a].Key[i], groups[b].Key[i]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return &Grouped{keys: keys, groups: groups, t: t}, nil
}

// Groups returns the groups in key order.
func (g *Grouped) Groups() []*Group {
	return g.groups
}

// Len returns the number of groups.
func (g *Grouped) Len() int {
	return len(g.groups)
}

// Aggregate produces one row per group: the key columns followed by one
// column per aggregation.
func (g *Grouped) Aggregate(aggs ...Aggregation) (*Table, error) {
	for _, a := range aggs {
		if a.Func != AggSize {
			if err := g.t.Require(a.Column); err != nil {
				return nil, err
			}
		}
	}
	out := New(g.keys...)
	for _, a := range aggs {
		out.AddColumn(a.name())
	}
	for _, grp := range g.groups {
		row := make([]any, 0, len(out.columns))
		row = append(row, grp.Key...)
		for _, a := range aggs {
			v, err := grp.apply(a)
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		out.Append(row...)
	}
	return out, nil
}

func (a Aggregation) name() string {
	if a.As != "" {
		return a.As
	}
	if a.Func == AggSize {
		return "size"
	}
	return a.Column
}

func (grp *Group) apply(a Aggregation) (any, error) {
	switch a.Func {
	case AggSum:
		return grp.Sum(a.Column), nil
	case AggMean:
		return grp.Mean(a.Column), nil
	case AggMin:
		return grp.Min(a.Column), nil
	case AggMax:
		return grp.Max(a.Column), nil
	case AggCount:
		return float64(grp.Count(a.Column)), nil
	case AggSize:
		return float64(grp.Size()), nil
	case AggFirst:
		return grp.First(a.Column), nil
	case AggJoin:
		return grp.JoinUnique(a.Column), nil
	}
	return nil, fmt.Errorf("unknown aggregation %q", a.Func)
}

// Size returns the number of rows in the group.
func (grp *Group) Size() int {
	return len(grp.Rows)
}

// Sum adds numeric cells; an all-null group sums to 0.
func (grp *Group) Sum(col string) float64 {
	var s float64
	for _, i := range grp.Rows {
		if f, ok := ToFloat(grp.t.Get(i, col)); ok {
			s += f
		}
	}
	return s
}

// Mean averages numeric cells; a group without numeric cells yields NaN.
func (grp *Group) Mean(col string) float64 {
	var s float64
	n := 0
	for _, i := range grp.Rows {
		if f, ok := ToFloat(grp.t.Get(i, col)); ok {
			s += f
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return s / float64(n)
}

// Count returns the number of non-null cells.
func (grp *Group) Count(col string) int {
	n := 0
	for _, i := range grp.Rows {
		if !IsNull(grp.t.Get(i, col)) {
			n++
		}
	}
	return n
}

// Min returns the smallest non-null cell, or nil.
func (grp *Group) Min(col string) any {
	var best any
	for _, i := range grp.Rows {
		v := grp.t.Get(i, col)
		if IsNull(v) {
			continue
		}
		if best == nil || Compare(v, best) < 0 {
			best = v
		}
	}
	return best
}

// Max returns the largest non-null cell, or nil.
func (grp *Group) Max(col string) any {
	var best any
	for _, i := range grp.Rows {
		v := grp.t.Get(i, col)
		if IsNull(v) {
			continue
		}
		if best == nil || Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// First returns the first non-null cell, or nil.
func (grp *Group) First(col string) any {
	for _, i := range grp.Rows {
		if v := grp.t.Get(i, col); !IsNull(v) {
			return v
		}
	}
	return nil
}

// JoinUnique returns the distinct non-null cells as sorted comma-separated text.
func (grp *Group) JoinUnique(col string) string {
	seen := make(map[string]bool)
	var parts []string
	for _, i := range grp.Rows {
		v := grp.t.Get(i, col)
		if IsNull(v) {
			continue
		}
		s := ToString(v)
		if !seen[s] {
			seen[s] = true
			parts = append(parts, s)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// Table returns the group's rows as a new table.
func (grp *Group) Table() *Table {
	out := New(grp.t.columns...)
	for _, i := range grp.Rows {
		row := make([]any, len(out.columns))
		copy(row, grp.t.rows[i])
		out.rows = append(out.rows, row)
	}
	return out
}
