// Package table provides the in-memory tabular structure used by the BIM
// pipeline: a column-named, row-ordered table whose columns may be discovered
// at run time (parameter titles become column names after a pivot).
package table

import (
	"fmt"
	"sort"
)

// Table is a column-named table held fully in memory.
// Cells hold nil (null), string, float64, int64, bool or time.Time values.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty table with the given columns.
// Duplicate column names are collapsed to the first occurrence.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// FromRecords builds a table from row maps, as returned by a datasource query.
// Column order follows columns; keys missing from a record become null.
func FromRecords(columns []string, records []map[string]any) *Table {
	t := New(columns...)
	for _, rec := range records {
		t.AppendRecord(rec)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AddColumn adds a null-filled column and returns its position.
// Adding an existing column returns the existing position.
func (t *Table) AddColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.columns = append(t.columns, name)
	i := len(t.columns) - 1
	t.index[name] = i
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], nil)
	}
	return i
}

// Append adds a row given values in column order.
// It panics if the number of values does not match the number of columns.
func (t *Table) Append(values ...any) {
	if len(values) != len(t.columns) {
		panic(fmt.Sprintf("table: row has %d values, table has %d columns", len(values), len(t.columns)))
	}
	row := make([]any, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// AppendRecord adds a row from a column-name map, creating unknown columns.
func (t *Table) AppendRecord(rec map[string]any) {
	for name := range rec {
		if !t.Has(name) {
			t.AddColumn(name)
		}
	}
	row := make([]any, len(t.columns))
	for name, v := range rec {
		row[t.index[name]] = v
	}
	t.rows = append(t.rows, row)
}

// Get returns the cell at row i in the named column, or nil if the column is absent.
func (t *Table) Get(i int, name string) any {
	c, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.rows[i][c]
}

// Set assigns a cell, adding the column if needed.
func (t *Table) Set(i int, name string, v any) {
	c := t.AddColumn(name)
	t.rows[i][c] = v
}

// Row returns an accessor for row i.
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Rows iterates all rows in order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = Row{t: t, i: i}
	}
	return out
}

// Require validates that every named column exists.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}

// Column returns a typed accessor over the named column.
func (t *Table) Column(name string) (Column, error) {
	c, ok := t.index[name]
	if !ok {
		return Column{}, &MissingColumnError{Columns: []string{name}}
	}
	return Column{t: t, idx: c, Name: name}, nil
}

// Clone returns a deep copy of the table structure (cell values are shared).
func (t *Table) Clone() *Table {
	out := New(t.columns...)
	out.rows = make([][]any, len(t.rows))
	for i, r := range t.rows {
		row := make([]any, len(r))
		copy(row, r)
		out.rows[i] = row
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.columns...)
	for i, r := range t.rows {
		if keep(Row{t: t, i: i}) {
			row := make([]any, len(r))
			copy(row, r)
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if err := t.Require(names...); err != nil {
		return nil, err
	}
	out := New(names...)
	for _, r := range t.rows {
		row := make([]any, len(out.columns))
		for j, n := range out.columns {
			row[j] = r[t.index[n]]
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// Rename returns a copy with columns renamed according to m.
// It fails when two columns would end up with the same name.
func (t *Table) Rename(m map[string]string) (*Table, error) {
	cols := make([]string, len(t.columns))
	seen := make(map[string]bool, len(cols))
	var dups []string
	for i, c := range t.columns {
		if n, ok := m[c]; ok {
			c = n
		}
		if seen[c] {
			dups = append(dups, c)
		}
		seen[c] = true
		cols[i] = c
	}
	if len(dups) > 0 {
		return nil, &DuplicateColumnError{Columns: dups}
	}
	out := New(cols...)
	out.rows = t.Clone().rows
	return out, nil
}

// Apply replaces every cell of a column with fn(cell).
func (t *Table) Apply(name string, fn func(any) any) error {
	c, ok := t.index[name]
	if !ok {
		return &MissingColumnError{Columns: []string{name}}
	}
	for _, r := range t.rows {
		r[c] = fn(r[c])
	}
	return nil
}

// FillNull replaces null cells of the named columns with v.
func (t *Table) FillNull(v any, names ...string) error {
	if err := t.Require(names...); err != nil {
		return err
	}
	for _, n := range names {
		c := t.index[n]
		for _, r := range t.rows {
			if IsNull(r[c]) {
				r[c] = v
			}
		}
	}
	return nil
}

// SortBy stably sorts rows in place by the named columns, ascending, nulls last.
func (t *Table) SortBy(names ...string) error {
	if err := t.Require(names...); err != nil {
		return err
	}
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = t.index[n]
	}
	sort.SliceStable(t.rows, func(a, b int) bool {
		for _, c := range idx {
			if cmp := Compare(t.rows[a][c], t.rows[b][c]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return nil
}

// Concat unions the rows of several tables (not a join). The result has the
// union of all columns in first-seen order; cells a table lacks are null.
func Concat(tables ...*Table) *Table {
	out := New()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.columns {
			out.AddColumn(c)
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.rows {
			row := make([]any, len(out.columns))
			for j, c := range t.columns {
				row[out.index[c]] = r[j]
			}
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Row is a read accessor for a single table row.
type Row struct {
	t *Table
	i int
}

// Index returns the position of the row in its table.
func (r Row) Index() int { return r.i }

// Get returns the raw cell value, or nil if the column is absent.
func (r Row) Get(name string) any {
	return r.t.Get(r.i, name)
}

// String returns the cell rendered as text; null renders as "".
func (r Row) String(name string) string {
	return ToString(r.Get(name))
}

// Float returns the cell as a number when it is numeric or numeric text.
func (r Row) Float(name string) (float64, bool) {
	return ToFloat(r.Get(name))
}

// IsNull reports whether the cell is null or the column is absent.
func (r Row) IsNull(name string) bool {
	return IsNull(r.Get(name))
}

// Column is a typed accessor over one table column.
type Column struct {
	t    *Table
	idx  int
	Name string
}

// Values returns the raw cells of the column.
func (c Column) Values() []any {
	out := make([]any, len(c.t.rows))
	for i, r := range c.t.rows {
		out[i] = r[c.idx]
	}
	return out
}

// Strings returns the column rendered as text.
func (c Column) Strings() []string {
	out := make([]string, len(c.t.rows))
	for i, r := range c.t.rows {
		out[i] = ToString(r[c.idx])
	}
	return out
}

// Unique returns the distinct non-null cells in first-seen order.
func (c Column) Unique() []any {
	seen := make(map[string]bool)
	var out []any
	for _, r := range c.t.rows {
		v := r[c.idx]
		if IsNull(v) {
			continue
		}
		k := keyOf([]any{v})
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

// Sum adds the numeric cells of the column; null and non-numeric cells are skipped.
func (c Column) Sum() float64 {
	var s float64
	for _, r := range c.t.rows {
		if f, ok := ToFloat(r[c.idx]); ok {
			s += f
		}
	}
	return s
}

// CountNull returns how many cells of the column are null.
func (c Column) CountNull() int {
	n := 0
	for _, r := range c.t.rows {
		if IsNull(r[c.idx]) {
			n++
		}
	}
	return n
}
