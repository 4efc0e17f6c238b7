package table

import "sort"

// NullTitle is the column name given to values whose title is null.
// Parameters whose title failed to resolve collect here.
const NullTitle = "NaN"

// Pivot reshapes a long table into a wide one: one row per distinct index
// value, one column per distinct title, cell = value.
//
// When an (index, title) pair occurs more than once, the first occurrence in
// row order wins. Rows with a null index are dropped. Output rows are sorted
// by index and title columns are sorted by name, so the result does not
// depend on how the long rows were concatenated except for first-wins.
// A title equal to the index column name is renamed with the right-hand join
// suffix (DefaultSuffixes[1]) so every output column name is unique.
func Pivot(long *Table, index, columns, values string) (*Table, error) {
	if err := long.Require(index, columns, values); err != nil {
		return nil, err
	}
	ic, cc, vc := long.index[index], long.index[columns], long.index[values]

	type cellKey struct{ row, col string }
	cells := make(map[cellKey]any)
	rowKeys := make(map[string]any)
	titles := make(map[string]bool)

	for _, r := range long.rows {
		id := r[ic]
		if IsNull(id) {
			continue
		}
		title := NullTitle
		if !IsNull(r[cc]) {
			title = ToString(r[cc])
		}
		rk := keyOf([]any{id})
		if _, ok := rowKeys[rk]; !ok {
			rowKeys[rk] = id
		}
		titles[title] = true
		k := cellKey{rk, title}
		if _, seen := cells[k]; !seen {
			cells[k] = r[vc]
		}
	}

	ids := make([]any, 0, len(rowKeys))
	for _, id := range rowKeys {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(a, b int) bool { return Compare(ids[a], ids[b]) < 0 })

	names := make([]string, 0, len(titles))
	for t := range titles {
		names = append(names, t)
	}
	sort.Strings(names)

	out := New(index)
	for _, n := range names {
		name := n
		for out.Has(name) || (name != n && titles[name]) {
			name += DefaultSuffixes[1]
		}
		out.AddColumn(name)
	}
	for _, id := range ids {
		rk := keyOf([]any{id})
		row := make([]any, len(out.columns))
		row[0] = id
		for j, n := range names {
			row[j+1] = cells[cellKey{rk, n}]
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}
