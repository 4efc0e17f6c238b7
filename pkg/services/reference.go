package services

import (
	"math"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// FloorSum is the measure summed over all elements of one floor of one
// section of one construction object.
type FloorSum struct {
	Morphotype string
	Section    string
	ObjectID   string
	Floor      string
	FloorType  string
	Measure    float64
}

// Reference is the mean floor sum of one (morphotype, floor type) group.
type Reference struct {
	Morphotype string
	FloorType  string
	Value      float64
	Floors     int
}

// Undefined reports whether deviations from this reference cannot be computed.
func (r Reference) Undefined() bool {
	return r.Value == 0 || math.IsNaN(r.Value)
}

// Deviation is one floor sum compared with its group reference.
type Deviation struct {
	FloorSum
	ObjectName string
	Reference  float64
	// DeviationPct is |measure - reference| / reference * 100. A zero
	// reference yields +Inf, or NaN when the measure is zero too.
	DeviationPct float64
}

// Undefined reports whether the percentage could not be computed.
func (d Deviation) Undefined() bool {
	return math.IsInf(d.DeviationPct, 0) || math.IsNaN(d.DeviationPct)
}

// ReferenceEngine computes reference values and deviations over enriched
// element tables whose column names come from the vocabulary.
type ReferenceEngine struct {
	vocab models.Vocabulary
}

// NewReferenceEngine creates a ReferenceEngine.
func NewReferenceEngine(vocab models.Vocabulary) *ReferenceEngine {
	return &ReferenceEngine{vocab: vocab}
}

func (e *ReferenceEngine) floorKeys() []string {
	v := e.vocab
	return []string{v.SectionMorphotype, v.Section, ColObjectID, v.Floor, v.FloorType}
}

// SumByFloor groups elements by (morphotype, section, object, floor, floor
// type) and sums measure. Elements with a null key are left out; they are
// reported by the quality report instead.
func (e *ReferenceEngine) SumByFloor(enriched *table.Table, measure string) ([]FloorSum, error) {
	keys := e.floorKeys()
	if err := enriched.Require(append(keys, measure)...); err != nil {
		return nil, err
	}
	grouped, err := enriched.GroupBy(keys...)
	if err != nil {
		return nil, err
	}
	out := make([]FloorSum, 0, grouped.Len())
	for _, g := range grouped.Groups() {
		out = append(out, FloorSum{
			Morphotype: table.ToString(g.Key[0]),
			Section:    table.ToString(g.Key[1]),
			ObjectID:   table.ToString(g.Key[2]),
			Floor:      table.ToString(g.Key[3]),
			FloorType:  table.ToString(g.Key[4]),
			Measure:    g.Sum(measure),
		})
	}
	return out, nil
}

// ComputeReferences averages floor sums per (morphotype, floor type),
// across all objects and sections. Results are sorted by morphotype then
// floor type.
func (e *ReferenceEngine) ComputeReferences(sums []FloorSum) []Reference {
	t := floorSumFrame(sums)
	grouped, _ := t.GroupBy("morphotype", "floor_type")
	out := make([]Reference, 0, grouped.Len())
	for _, g := range grouped.Groups() {
		out = append(out, Reference{
			Morphotype: table.ToString(g.Key[0]),
			FloorType:  table.ToString(g.Key[1]),
			Value:      g.Mean("measure"),
			Floors:     g.Size(),
		})
	}
	return out
}

// ComputeDeviations compares every floor sum with the reference of its
// group. objectNames supplies display names; missing names stay empty.
func (e *ReferenceEngine) ComputeDeviations(sums []FloorSum, refs []Reference, objectNames map[string]string) []Deviation {
	type key struct{ morphotype, floorType string }
	byKey := make(map[key]float64, len(refs))
	for _, r := range refs {
		byKey[key{r.Morphotype, r.FloorType}] = r.Value
	}
	out := make([]Deviation, 0, len(sums))
	for _, s := range sums {
		ref, ok := byKey[key{s.Morphotype, s.FloorType}]
		if !ok {
			ref = math.NaN()
		}
		out = append(out, Deviation{
			FloorSum:     s,
			ObjectName:   objectNames[s.ObjectID],
			Reference:    ref,
			DeviationPct: math.Abs((s.Measure - ref) / ref * 100),
		})
	}
	return out
}

// ReferenceAndDeviation runs SumByFloor, ComputeReferences and
// ComputeDeviations for one measure.
func (e *ReferenceEngine) ReferenceAndDeviation(enriched *table.Table, measure string, objectNames map[string]string) ([]Reference, []Deviation, error) {
	sums, err := e.SumByFloor(enriched, measure)
	if err != nil {
		return nil, nil, err
	}
	refs := e.ComputeReferences(sums)
	return refs, e.ComputeDeviations(sums, refs, objectNames), nil
}

// FloorSumTable renders floor sums with vocabulary column names.
func (e *ReferenceEngine) FloorSumTable(sums []FloorSum, measure string) *table.Table {
	v := e.vocab
	t := table.New(v.SectionMorphotype, v.Section, ColObjectID, v.Floor, v.FloorType, measure)
	for _, s := range sums {
		t.Append(s.Morphotype, s.Section, s.ObjectID, s.Floor, s.FloorType, s.Measure)
	}
	return t
}

// ReferenceTable renders references with vocabulary column names.
func (e *ReferenceEngine) ReferenceTable(refs []Reference) *table.Table {
	v := e.vocab
	t := table.New(v.SectionMorphotype, v.FloorType, v.Reference, v.Count)
	for _, r := range refs {
		t.Append(r.Morphotype, r.FloorType, r.Value, float64(r.Floors))
	}
	return t
}

// DeviationTable renders deviations with vocabulary column names.
func (e *ReferenceEngine) DeviationTable(devs []Deviation, measure string) *table.Table {
	v := e.vocab
	t := table.New(v.SectionMorphotype, ColObjectID, v.ObjectName, v.Section, v.Floor, v.FloorType, measure, v.Reference, v.Deviation)
	for _, d := range devs {
		t.Append(d.Morphotype, d.ObjectID, d.ObjectName, d.Section, d.Floor, d.FloorType, d.Measure, d.Reference, undefinedAsText(d.DeviationPct))
	}
	return t
}

// undefinedAsText keeps NaN and infinities visible in rendered tables, where
// a NaN cell would otherwise read as empty.
func undefinedAsText(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return f
}

func floorSumFrame(sums []FloorSum) *table.Table {
	t := table.New("morphotype", "floor_type", "measure")
	for _, s := range sums {
		t.Append(s.Morphotype, s.FloorType, s.Measure)
	}
	return t
}
