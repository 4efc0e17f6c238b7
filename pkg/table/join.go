package table

import "fmt"

// JoinKind selects which unmatched rows a join keeps.
type JoinKind string

const (
	LeftJoin  JoinKind = "left"
	InnerJoin JoinKind = "inner"
	OuterJoin JoinKind = "outer"
)

// DefaultSuffixes are appended to overlapping non-key columns, left then right.
var DefaultSuffixes = [2]string{"_x", "_y"}

// Join merges two tables on equal key columns.
//
// Rows are matched on every column in on; null keys match null keys. A left
// row with several matching right rows is repeated once per match. Non-key
// columns present on both sides get suffixes[0] (left) and suffixes[1]
// (right). The key columns appear once, taken from whichever side supplied
// the row.
func Join(left, right *Table, on []string, kind JoinKind, suffixes [2]string) (*Table, error) {
	if err := left.Require(on...); err != nil {
		return nil, fmt.Errorf("left side: %w", err)
	}
	if err := right.Require(on...); err != nil {
		return nil, fmt.Errorf("right side: %w", err)
	}

	isKey := make(map[string]bool, len(on))
	for _, k := range on {
		isKey[k] = true
	}

	leftNames := make([]string, len(left.columns))
	for i, c := range left.columns {
		if !isKey[c] && right.Has(c) {
			leftNames[i] = c + suffixes[0]
		} else {
			leftNames[i] = c
		}
	}
	var rightCols []int
	var rightNames []string
	for i, c := range right.columns {
		if isKey[c] {
			continue
		}
		rightCols = append(rightCols, i)
		if left.Has(c) {
			rightNames = append(rightNames, c+suffixes[1])
		} else {
			rightNames = append(rightNames, c)
		}
	}

	out := New()
	for _, n := range leftNames {
		out.AddColumn(n)
	}
	for _, n := range rightNames {
		out.AddColumn(n)
	}

	rightIndex := make(map[string][]int)
	var rightOrder []string
	for i, r := range right.rows {
		k := keyOf(pick(r, right, on))
		if _, seen := rightIndex[k]; !seen {
			rightOrder = append(rightOrder, k)
		}
		rightIndex[k] = append(rightIndex[k], i)
	}

	matched := make(map[string]bool)
	width := len(leftNames) + len(rightNames)
	for _, lr := range left.rows {
		k := keyOf(pick(lr, left, on))
		matches := rightIndex[k]
		if len(matches) == 0 {
			if kind == InnerJoin {
				continue
			}
			row := make([]any, width)
			copy(row, lr)
			out.rows = append(out.rows, row)
			continue
		}
		matched[k] = true
		for _, ri := range matches {
			row := make([]any, width)
			copy(row, lr)
			for j, rc := range rightCols {
				row[len(leftNames)+j] = right.rows[ri][rc]
			}
			out.rows = append(out.rows, row)
		}
	}

	if kind == OuterJoin {
		for _, k := range rightOrder {
			if matched[k] {
				continue
			}
			for _, ri := range rightIndex[k] {
				row := make([]any, width)
				for _, key := range on {
					row[out.index[key]] = right.rows[ri][right.index[key]]
				}
				for j, rc := range rightCols {
					row[len(leftNames)+j] = right.rows[ri][rc]
				}
				out.rows = append(out.rows, row)
			}
		}
	}
	return out, nil
}

// Merge is a left join with the default suffixes.
func Merge(left, right *Table, on ...string) (*Table, error) {
	return Join(left, right, on, LeftJoin, DefaultSuffixes)
}

func pick(row []any, t *Table, names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = row[t.index[n]]
	}
	return out
}
