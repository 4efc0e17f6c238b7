package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecords_MissingKeysAreNull(t *testing.T) {
	tbl := FromRecords([]string{"a", "b"}, []map[string]any{
		{"a": "x", "b": 1.0},
		{"a": "y"},
	})

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
	assert.Nil(t, tbl.Get(1, "b"))
}

func TestFromRecords_ExtraKeysAddColumns(t *testing.T) {
	tbl := FromRecords([]string{"a"}, []map[string]any{{"a": "x", "c": true}})

	assert.True(t, tbl.Has("c"))
	assert.Equal(t, true, tbl.Get(0, "c"))
}

func TestRequire_ReportsAllMissing(t *testing.T) {
	tbl := New("a")

	err := tbl.Require("a", "b", "c")

	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, []string{"b", "c"}, mce.Columns)
	assert.Contains(t, err.Error(), "b, c")
}

func TestAppend_PanicsOnWidthMismatch(t *testing.T) {
	tbl := New("a", "b")
	assert.Panics(t, func() { tbl.Append("only-one") })
}

func TestFilterSelect(t *testing.T) {
	tbl := New("id", "v", "w")
	tbl.Append("a", 1.0, "x")
	tbl.Append("b", 2.0, "y")
	tbl.Append("c", 3.0, "z")

	big := tbl.Filter(func(r Row) bool {
		f, _ := r.Float("v")
		return f >= 2
	})
	require.Equal(t, 2, big.Len())
	assert.Equal(t, "b", big.Get(0, "id"))

	sel, err := tbl.Select("w", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"w", "id"}, sel.Columns())
	assert.Equal(t, "z", sel.Get(2, "w"))

	_, err = tbl.Select("missing")
	assert.Error(t, err)
}

func TestRename_DoesNotMutateSource(t *testing.T) {
	tbl := New("title", "value")
	tbl.Append("Floor 1", 1.0)

	renamed, err := tbl.Rename(map[string]string{"title": "Floor"})
	require.NoError(t, err)

	assert.True(t, renamed.Has("Floor"))
	assert.False(t, renamed.Has("title"))
	assert.True(t, tbl.Has("title"))
	assert.Equal(t, "Floor 1", renamed.Get(0, "Floor"))
}

func TestRename_RejectsCollision(t *testing.T) {
	tbl := New("title", "Floor")
	tbl.Append("Floor 1", "Floor 2")

	_, err := tbl.Rename(map[string]string{"title": "Floor"})
	var dce *DuplicateColumnError
	require.ErrorAs(t, err, &dce)
	assert.Equal(t, []string{"Floor"}, dce.Columns)

	swapped, err := tbl.Rename(map[string]string{"title": "Floor", "Floor": "title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Floor", "title"}, swapped.Columns())
	assert.Equal(t, "Floor 1", swapped.Get(0, "Floor"))
	assert.Equal(t, "Floor 2", swapped.Get(0, "title"))
}

func TestSortBy_NullsLast(t *testing.T) {
	tbl := New("k")
	tbl.Append(3.0)
	tbl.Append(nil)
	tbl.Append(1.0)
	tbl.Append(math.NaN())
	tbl.Append(2.0)

	require.NoError(t, tbl.SortBy("k"))

	col, err := tbl.Column("k")
	require.NoError(t, err)
	vals := col.Values()
	assert.Equal(t, []any{1.0, 2.0, 3.0}, vals[:3])
	assert.True(t, IsNull(vals[3]))
	assert.True(t, IsNull(vals[4]))
}

func TestConcat_UnionsColumns(t *testing.T) {
	a := New("id", "x")
	a.Append("1", "ax")
	b := New("id", "y")
	b.Append("2", "by")

	out := Concat(a, nil, b)

	assert.Equal(t, []string{"id", "x", "y"}, out.Columns())
	require.Equal(t, 2, out.Len())
	assert.Nil(t, out.Get(0, "y"))
	assert.Nil(t, out.Get(1, "x"))
}

func TestColumn_UniqueSumCountNull(t *testing.T) {
	tbl := New("v")
	for _, v := range []any{"a", nil, "b", "a", 2.0, int64(2)} {
		tbl.Append(v)
	}
	col, err := tbl.Column("v")
	require.NoError(t, err)

	assert.Equal(t, []any{"a", "b", 2.0}, col.Unique())
	assert.Equal(t, 1, col.CountNull())
	assert.InDelta(t, 4.0, col.Sum(), 1e-9)
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{1.5, 1.5, true},
		{int64(3), 3, true},
		{" 12.5 ", 12.5, true},
		{"12,5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{math.NaN(), 0, false},
	}
	for _, tc := range cases {
		got, ok := ToFloat(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9)
		}
	}
}

func TestCoerceNumeric(t *testing.T) {
	tbl := New("id", "area", "mixed")
	tbl.Append("1", "10.5", "3")
	tbl.Append("2", nil, "three")

	converted := CoerceNumeric(tbl, "id")

	assert.Equal(t, []string{"area"}, converted)
	assert.Equal(t, 10.5, tbl.Get(0, "area"))
	assert.Nil(t, tbl.Get(1, "area"))
	assert.Equal(t, "1", tbl.Get(0, "id"))
	assert.Equal(t, "3", tbl.Get(0, "mixed"))
}

func TestMerge_LeftJoinRepeatsOnDuplicates(t *testing.T) {
	left := New("obj", "sec", "v")
	left.Append("o1", "1", 10.0)
	left.Append("o1", "2", 20.0)
	left.Append("o2", nil, 30.0)

	right := New("obj", "sec", "morph")
	right.Append("o1", "1", "M1")
	right.Append("o1", "1", "M1-dup")

	out, err := Merge(left, right, "obj", "sec")
	require.NoError(t, err)

	require.Equal(t, 4, out.Len())
	assert.Equal(t, "M1", out.Get(0, "morph"))
	assert.Equal(t, "M1-dup", out.Get(1, "morph"))
	assert.Nil(t, out.Get(2, "morph"))
	assert.Nil(t, out.Get(3, "morph"))
}

func TestJoin_SuffixesOverlappingColumns(t *testing.T) {
	left := New("id", "title")
	left.Append("a", "left")
	right := New("id", "title")
	right.Append("a", "right")

	out, err := Join(left, right, []string{"id"}, InnerJoin, DefaultSuffixes)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "title_x", "title_y"}, out.Columns())
	assert.Equal(t, "right", out.Get(0, "title_y"))
}

func TestJoin_InnerAndOuter(t *testing.T) {
	left := New("id", "l")
	left.Append("a", 1.0)
	left.Append("b", 2.0)
	right := New("id", "r")
	right.Append("b", "rb")
	right.Append("c", "rc")

	inner, err := Join(left, right, []string{"id"}, InnerJoin, DefaultSuffixes)
	require.NoError(t, err)
	require.Equal(t, 1, inner.Len())
	assert.Equal(t, "b", inner.Get(0, "id"))

	outer, err := Join(left, right, []string{"id"}, OuterJoin, DefaultSuffixes)
	require.NoError(t, err)
	require.Equal(t, 3, outer.Len())
	assert.Equal(t, "c", outer.Get(2, "id"))
	assert.Nil(t, outer.Get(2, "l"))
}

func TestJoin_NumericKeysMatchAcrossTypes(t *testing.T) {
	left := New("k")
	left.Append(int64(2))
	right := New("k", "v")
	right.Append(2.0, "two")

	out, err := Merge(left, right, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", out.Get(0, "v"))
}

func TestJoin_MissingKey(t *testing.T) {
	_, err := Merge(New("a"), New("b"), "a")
	var mce *MissingColumnError
	assert.ErrorAs(t, err, &mce)
}

func TestGroupBy_DropsNullKeysAndSorts(t *testing.T) {
	tbl := New("morph", "floor", "v")
	tbl.Append("B", "1", 1.0)
	tbl.Append("A", "2", 2.0)
	tbl.Append("A", "2", 3.0)
	tbl.Append(nil, "1", 100.0)
	tbl.Append("A", "1", nil)

	g, err := tbl.GroupBy("morph", "floor")
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())

	out, err := g.Aggregate(
		Aggregation{Column: "v", Func: AggSum},
		Aggregation{Column: "v", Func: AggCount, As: "n"},
		Aggregation{Func: AggSize},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"morph", "floor", "v", "n", "size"}, out.Columns())
	assert.Equal(t, "A", out.Get(0, "morph"))
	assert.Equal(t, "1", out.Get(0, "floor"))
	assert.Equal(t, 0.0, out.Get(0, "v"))
	assert.Equal(t, 0.0, out.Get(0, "n"))
	assert.Equal(t, 5.0, out.Get(1, "v"))
	assert.Equal(t, 2.0, out.Get(1, "size"))
	assert.Equal(t, "B", out.Get(2, "morph"))
}

func TestGroup_MeanMinMaxFirstJoin(t *testing.T) {
	tbl := New("k", "v", "s")
	tbl.Append("x", nil, "b")
	tbl.Append("x", 4.0, "a")
	tbl.Append("x", 2.0, "b")
	tbl.Append("y", nil, nil)

	g, err := tbl.GroupBy("k")
	require.NoError(t, err)
	x, y := g.Groups()[0], g.Groups()[1]

	assert.InDelta(t, 3.0, x.Mean("v"), 1e-9)
	assert.True(t, math.IsNaN(y.Mean("v")))
	assert.Equal(t, 2.0, x.Min("v"))
	assert.Equal(t, 4.0, x.Max("v"))
	assert.Equal(t, 4.0, x.First("v"))
	assert.Nil(t, y.First("v"))
	assert.Equal(t, "a,b", x.JoinUnique("s"))
	assert.Equal(t, 3, x.Table().Len())
}

func TestAggregate_UnknownFunc(t *testing.T) {
	tbl := New("k", "v")
	tbl.Append("a", 1.0)
	g, err := tbl.GroupBy("k")
	require.NoError(t, err)

	_, err = g.Aggregate(Aggregation{Column: "v", Func: "median"})
	assert.Error(t, err)
}

func TestPivot_FirstWinsAndSorted(t *testing.T) {
	long := New("id", "title", "value")
	long.Append("e2", "Section", "2")
	long.Append("e1", "Section", "1")
	long.Append("e1", "Floor", "Floor 3")
	long.Append("e1", "Section", "ignored")
	long.Append(nil, "Section", "dropped")

	wide, err := Pivot(long, "id", "title", "value")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "Floor", "Section"}, wide.Columns())
	require.Equal(t, 2, wide.Len())
	assert.Equal(t, "e1", wide.Get(0, "id"))
	assert.Equal(t, "1", wide.Get(0, "Section"))
	assert.Equal(t, "Floor 3", wide.Get(0, "Floor"))
	assert.Nil(t, wide.Get(1, "Floor"))
}

func TestPivot_NullTitleColumn(t *testing.T) {
	long := New("id", "title", "value")
	long.Append("e1", nil, "orphan")

	wide, err := Pivot(long, "id", "title", "value")
	require.NoError(t, err)

	assert.True(t, wide.Has(NullTitle))
	assert.Equal(t, "orphan", wide.Get(0, NullTitle))
}

func TestPivot_TitleNamedLikeIndex(t *testing.T) {
	long := New("id", "title", "value")
	long.Append("e1", "id", "other")
	long.Append("e1", "Z", "z1")

	wide, err := Pivot(long, "id", "title", "value")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Z", "id_y"}, wide.Columns())
	assert.Equal(t, "e1", wide.Get(0, "id"))
	assert.Equal(t, "other", wide.Get(0, "id_y"))

	cloned := wide.Clone()
	cloned.AddColumn("new")
	cloned.Set(0, "new", "N")
	assert.Equal(t, []any{"e1", "z1", "other", "N"}, rowValues(cloned, 0))
}

func TestPivot_TitleNamedLikeIndexAndSuffix(t *testing.T) {
	long := New("id", "title", "value")
	long.Append("e1", "id", "a")
	long.Append("e1", "id_y", "b")

	wide, err := Pivot(long, "id", "title", "value")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "id_y_y", "id_y"}, wide.Columns())
	assert.Equal(t, "a", wide.Get(0, "id_y_y"))
	assert.Equal(t, "b", wide.Get(0, "id_y"))
}

func rowValues(tbl *Table, i int) []any {
	out := make([]any, 0, len(tbl.Columns()))
	for _, c := range tbl.Columns() {
		out = append(out, tbl.Get(i, c))
	}
	return out
}

// longForm projects a wide table back to (id, title, value) rows, one per
// non-null cell.
func longForm(wide *Table, index string) *Table {
	long := New(index, "title", "value")
	for i := 0; i < wide.Len(); i++ {
		for _, c := range wide.Columns() {
			if c == index || IsNull(wide.Get(i, c)) {
				continue
			}
			long.Append(wide.Get(i, index), c, wide.Get(i, c))
		}
	}
	return long
}

func TestPivot_Idempotent(t *testing.T) {
	long := New("id", "title", "value")
	long.Append("e2", "Section", "2")
	long.Append("e1", "Section", "1")
	long.Append("e1", "Floor", "x")
	long.Append("e1", "Section", "ignored")

	wide, err := Pivot(long, "id", "title", "value")
	require.NoError(t, err)

	again, err := Pivot(longForm(wide, "id"), "id", "title", "value")
	require.NoError(t, err)

	assert.Equal(t, wide.Columns(), again.Columns())
	require.Equal(t, wide.Len(), again.Len())
	for i := 0; i < wide.Len(); i++ {
		assert.Equal(t, rowValues(wide, i), rowValues(again, i))
	}
}

func TestPivot_MissingColumn(t *testing.T) {
	_, err := Pivot(New("id", "title"), "id", "title", "value")
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, []string{"value"}, mce.Columns)
}
