package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// Column titles of the premise report tables.
const (
	ColPremiseType = "Premise type"
	ColLocation    = "Location"
	ColPurpose     = "Purpose"
	ColArea        = "Area, m2"
	ColEquipment   = "Equipment"
	ColIndicator   = "Indicator"
	ColSellArea    = "Sellable area"
	ColBelowGround = "Below ground"
	ColFloors      = "Floors"
)

// Columns expected in the sales CRM export.
const (
	CRMName      = "Name"
	CRMKind      = "Premise kind"
	CRMSection   = "Section"
	CRMFloor     = "Floor"
	CRMIndex     = "Number on floor"
	CRMTotalArea = "Total area"
)

// Floor type labels assigned by FloorTypes.
const (
	FloorTypeUnderground = "-1 floor"
	FloorTypeFirst       = "1st floor"
	FloorTypeTop         = "Top floor"
	FloorTypeTypical     = "Typical floor"
)

const (
	// typicalFloor is the floor number sampled for typical-floor areas.
	typicalFloor = 3
	// liftFloorThreshold is the building height from which four lifts are required.
	liftFloorThreshold = 15
)

var crmNumberPattern = regexp.MustCompile(`-(.*)`)

// PremiseReport answers the area and count questions asked of a premises
// model. Each row of the underlying table is one premise part; a premise
// (flat, shop, storage room) consists of one or more parts sharing a premise
// number.
type PremiseReport struct {
	parts *table.Table
	v     models.Vocabulary
}

// NewPremiseReport wraps a wide premise-part table.
func NewPremiseReport(parts *table.Table, v models.Vocabulary) *PremiseReport {
	return &PremiseReport{parts: parts, v: v}
}

// Parts returns the underlying premise-part table.
func (r *PremiseReport) Parts() *table.Table {
	return r.parts
}

// SellPremises returns the sellable parts of a destination. Parking is
// selected by the parking-space kind; other destinations exclude parts whose
// sales type is common area.
func (r *PremiseReport) SellPremises(dest string) (*table.Table, error) {
	p := r.v.Premises
	if dest == p.DestParking {
		if err := r.parts.Require(p.Kind, p.FloorNumber, p.Index); err != nil {
			return nil, err
		}
		out := r.parts.Filter(func(row table.Row) bool { return row.String(p.Kind) == p.KindParkingSpace })
		if err := out.SortBy(p.FloorNumber, p.Index); err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := r.parts.Require(p.Destination, p.SalesType, p.FloorNumber, p.SectionNumber, p.Index); err != nil {
		return nil, err
	}
	out := r.parts.Filter(func(row table.Row) bool {
		return row.String(p.Destination) == dest && row.String(p.SalesType) != p.KindCommon
	})
	if err := out.SortBy(p.FloorNumber, p.SectionNumber, p.Index); err != nil {
		return nil, err
	}
	return out, nil
}

// SellPremisesGrouped returns one row per premise number with the minimum of
// every numeric parameter over its parts.
func (r *PremiseReport) SellPremisesGrouped(dest string) (*table.Table, error) {
	parts, err := r.SellPremises(dest)
	if err != nil {
		return nil, err
	}
	return minPerPremise(parts, r.v.Premises.PremiseNumber)
}

// SellCount returns the number of sellable premises of a destination.
func (r *PremiseReport) SellCount(dest string) (int, error) {
	grouped, err := r.SellPremisesGrouped(dest)
	if err != nil {
		return 0, err
	}
	return grouped.Len(), nil
}

// SellArea returns the sellable area of a destination, summed over parts when
// byPart is set and over whole premises otherwise.
func (r *PremiseReport) SellArea(dest string, byPart bool) (float64, error) {
	p := r.v.Premises
	if byPart {
		parts, err := r.SellPremises(dest)
		if err != nil {
			return 0, err
		}
		return columnSum(parts, p.PartArea)
	}
	grouped, err := r.SellPremisesGrouped(dest)
	if err != nil {
		return 0, err
	}
	return columnSum(grouped, p.FullArea)
}

// FlatTypeMatrix counts distinct flats per flat type, using the expertise
// typology or the sales typology.
func (r *PremiseReport) FlatTypeMatrix(byExpertise bool) (*table.Table, error) {
	p := r.v.Premises
	flats, err := r.SellPremises(p.DestLiving)
	if err != nil {
		return nil, err
	}
	typeCol := p.SalesType
	if byExpertise {
		typeCol = p.ExpertiseType
	}
	pairs, err := flats.GroupBy(typeCol, p.PremiseNumber)
	if err != nil {
		return nil, err
	}
	distinct, err := pairs.Aggregate()
	if err != nil {
		return nil, err
	}
	byType, err := distinct.GroupBy(typeCol)
	if err != nil {
		return nil, err
	}
	return byType.Aggregate(table.Aggregation{Func: table.AggSize, As: r.v.Count})
}

// CommonPremises lists common-area parts in the public-register layout.
func (r *PremiseReport) CommonPremises() (*table.Table, error) {
	p := r.v.Premises
	if err := r.parts.Require(p.Kind, p.Name, p.PartArea, p.SectionNumber, p.FloorNumber, p.PremiseNumber); err != nil {
		return nil, err
	}
	common := r.parts.Filter(func(row table.Row) bool { return row.String(p.Kind) == p.KindCommon })
	if err := common.SortBy(p.SectionNumber, p.FloorNumber, p.PremiseNumber); err != nil {
		return nil, err
	}

	out := table.New(ColPremiseType, ColLocation, ColPurpose, ColArea)
	for _, row := range common.Rows() {
		name := row.String(p.Name)
		if p.CarParkWord != "" {
			name = strings.ReplaceAll(name, p.CarParkWord, p.CarParkWord+" (incl. parking spaces)")
		}
		out.Append(name, "Section "+row.String(p.SectionNumber), "Public", row.Get(p.PartArea))
	}
	return out, nil
}

// TechEquipment returns the engineering equipment housed in a technical
// premise, or "" when no rule matches.
func (r *PremiseReport) TechEquipment(name string) string {
	rule, _ := r.equipmentRule(name)
	return rule.Equipment
}

func (r *PremiseReport) equipmentRule(name string) (models.EquipmentRule, bool) {
	for _, rule := range r.v.Premises.TechEquipment {
		if rule.Contains != "" && strings.Contains(name, rule.Contains) {
			return rule, true
		}
	}
	return models.EquipmentRule{}, false
}

// TechPremises lists technical premises with their equipment. Every section
// also gets one vertical-transport row at the top floor of its stairwells.
func (r *PremiseReport) TechPremises() (*table.Table, error) {
	p := r.v.Premises
	if err := r.parts.Require(p.Kind, p.Name, p.Destination, p.PartArea, p.SectionNumber, p.FloorNumber, p.PremiseNumber); err != nil {
		return nil, err
	}

	stairs := r.parts.Filter(func(row table.Row) bool {
		return row.String(p.Kind) == p.KindCommon && containsFold(row.String(p.Name), p.StairwellWord)
	})
	bySection, err := stairs.GroupBy(p.SectionNumber)
	if err != nil {
		return nil, err
	}
	topStairs, err := bySection.Aggregate(
		table.Aggregation{Column: p.PartArea, Func: table.AggMax},
		table.Aggregation{Column: p.FloorNumber, Func: table.AggMax},
	)
	if err != nil {
		return nil, err
	}
	topStairs.AddColumn(p.Name)
	for i := 0; i < topStairs.Len(); i++ {
		topStairs.Set(i, p.Name, p.VerticalTransport)
	}

	tech := r.parts.Filter(func(row table.Row) bool { return row.String(p.Destination) == p.DestTechnical })
	if err := tech.SortBy(p.SectionNumber, p.FloorNumber, p.PremiseNumber); err != nil {
		return nil, err
	}
	if tech, err = tech.Select(p.Name, p.PartArea, p.SectionNumber, p.FloorNumber); err != nil {
		return nil, err
	}
	all := table.Concat(tech, topStairs)
	if err := all.SortBy(p.SectionNumber, p.FloorNumber); err != nil {
		return nil, err
	}

	out := table.New(ColLocation, ColEquipment, ColPurpose)
	for _, row := range all.Rows() {
		name := row.String(p.Name)
		rule, _ := r.equipmentRule(name)
		equipment := rule.Equipment
		lift := p.LiftEquipment != "" && equipment == p.LiftEquipment
		if lift {
			if floor, ok := row.Float(p.FloorNumber); ok {
				if floor < liftFloorThreshold {
					equipment += ", 2 pcs"
				} else {
					equipment += ", 4 pcs"
				}
			}
		}

		part := ""
		switch {
		case lift:
		case equipment == "":
			part = "Underground and above-ground parts, "
		case rule.Underground:
			part = "Underground part, "
		}
		out.Append(part+"Section "+row.String(p.SectionNumber), equipment, name)
	}
	return out, nil
}

// ConstructionObjectParameters returns sellable areas, the part of them below
// ground level and premise counts for the main destinations.
func (r *PremiseReport) ConstructionObjectParameters() (*table.Table, error) {
	p := r.v.Premises
	sell := make(map[string]*table.Table)
	area := make(map[string]float64)
	count := make(map[string]int)
	for _, dest := range []string{p.DestLiving, p.DestRetail, p.DestParking, p.DestStorage} {
		parts, err := r.SellPremises(dest)
		if err != nil {
			return nil, err
		}
		sell[dest] = parts
		if area[dest], err = r.SellArea(dest, true); err != nil {
			return nil, err
		}
		if count[dest], err = r.SellCount(dest); err != nil {
			return nil, err
		}
	}

	flats := sell[p.DestLiving]
	if err := flats.Require(p.Name, p.PartArea); err != nil {
		return nil, err
	}
	summer := toSet(p.SummerNames)
	summerNoTerrace := sumWhere(flats, p.PartArea, func(row table.Row) bool {
		name := row.String(p.Name)
		return summer[name] && !strings.Contains(name, p.Terrace)
	})
	terraces := sumWhere(flats, p.PartArea, func(row table.Row) bool {
		name := row.String(p.Name)
		return summer[name] && strings.Contains(name, p.Terrace)
	})
	retailBelow := sumWhere(sell[p.DestRetail], p.PartArea, func(row table.Row) bool {
		return strings.Contains(row.String(p.PremiseNumber), ".-")
	})
	belowGround := func(row table.Row) bool {
		f, ok := row.Float(p.FloorNumber)
		return ok && f <= -1
	}
	carsBelow := sumWhere(sell[p.DestParking], p.PartArea, belowGround)
	storageBelow := sumWhere(sell[p.DestStorage], p.PartArea, belowGround)

	out := table.New(ColIndicator, ColSellArea, ColBelowGround, r.v.Count)
	out.Append("Living incl. summer premises", area[p.DestLiving], 0.0, float64(count[p.DestLiving]))
	out.Append("   of which summer premises (no terraces)", summerNoTerrace, 0.0, 0.0)
	out.Append("   of which terraces", terraces, 0.0, 0.0)
	out.Append("Commercial premises", area[p.DestRetail], retailBelow, float64(count[p.DestRetail]))
	out.Append("Parking", area[p.DestParking], carsBelow, float64(count[p.DestParking]))
	out.Append("Storage rooms", area[p.DestStorage], storageBelow, float64(count[p.DestStorage]))
	return out, nil
}

// BudgetCalculator returns the named areas the construction budget is
// estimated from.
func (r *PremiseReport) BudgetCalculator() (*table.Table, error) {
	p := r.v.Premises
	if err := r.parts.Require(p.Kind, p.Name, p.Category, p.FloorNumber, p.PartArea); err != nil {
		return nil, err
	}
	areas := make(map[string]float64)
	for _, dest := range []string{p.DestLiving, p.DestRetail, p.DestParking, p.DestStorage} {
		a, err := r.SellArea(dest, true)
		if err != nil {
			return nil, err
		}
		areas[dest] = a
	}
	carsCount, err := r.SellCount(p.DestParking)
	if err != nil {
		return nil, err
	}
	flats, err := r.SellPremises(p.DestLiving)
	if err != nil {
		return nil, err
	}

	nameIs := func(name string) func(table.Row) bool {
		return func(row table.Row) bool { return row.String(p.Name) == name }
	}
	nameHas := func(sub string) func(table.Row) bool {
		return func(row table.Row) bool { return sub != "" && strings.Contains(row.String(p.Name), sub) }
	}
	kindIs := func(kind string) func(table.Row) bool {
		return func(row table.Row) bool { return row.String(p.Kind) == kind }
	}
	onTypicalFloor := func(row table.Row) bool {
		f, ok := row.Float(p.FloorNumber)
		return ok && f == typicalFloor && !row.IsNull(p.Category)
	}

	meanParking := 0.0
	if carsCount > 0 {
		meanParking = round2(areas[p.DestParking] / float64(carsCount))
	}

	out := table.New(ColIndicator, ColArea)
	out.Append("Sellable building area", areas[p.DestLiving]+areas[p.DestRetail]+areas[p.DestStorage]+areas[p.DestParking])
	out.Append("Living", areas[p.DestLiving])
	out.Append("Commercial premises", areas[p.DestRetail])
	out.Append("Storage rooms", areas[p.DestStorage])
	out.Append("Roof terraces", sumWhere(flats, p.PartArea, nameIs(p.Terrace)))
	out.Append("Ground terraces", sumWhere(flats, p.PartArea, nameIs(p.TerraceOnGround)))
	out.Append("Balconies", sumWhere(flats, p.PartArea, nameHas(p.Balcony)))
	out.Append("Loggias", sumWhere(flats, p.PartArea, nameHas(p.Loggia)))
	out.Append("Common areas", round2(sumWhere(r.parts, p.PartArea, kindIs(p.KindCommon))))
	out.Append("Technical premises", round2(sumWhere(r.parts, p.PartArea, kindIs(p.KindTechnical))))
	out.Append("Typical floor total area", sumWhere(r.parts, p.PartArea, onTypicalFloor))
	out.Append("Typical floor sellable area", sumWhere(r.parts, p.PartArea, func(row table.Row) bool {
		return onTypicalFloor(row) && row.String(p.Kind) != p.KindCommon
	}))
	out.Append("Parking total area", sumWhere(r.parts, p.PartArea, func(row table.Row) bool {
		return row.String(p.Category) == p.DestParking && nameHas(p.CarParkWord)(row)
	}))
	out.Append("Parking sellable area", areas[p.DestParking])
	out.Append("Parking spaces", float64(carsCount))
	out.Append("Area per parking space", meanParking)
	return out, nil
}

// GNSByFloor sums the part area of GNS premises per section and floor.
func (r *PremiseReport) GNSByFloor() (*table.Table, error) {
	p := r.v.Premises
	if err := r.parts.Require(p.Destination, p.SectionName, p.FloorNumber, p.PartArea); err != nil {
		return nil, err
	}
	gns := r.parts.Filter(func(row table.Row) bool { return row.String(p.Destination) == p.DestGNS })
	grouped, err := gns.GroupBy(p.SectionName, p.FloorNumber)
	if err != nil {
		return nil, err
	}
	return grouped.Aggregate(table.Aggregation{Column: p.PartArea, Func: table.AggSum})
}

// SummerAreas sums flat summer premises (balconies, loggias, terraces) by name.
func (r *PremiseReport) SummerAreas() (*table.Table, error) {
	p := r.v.Premises
	flats, err := r.SellPremises(p.DestLiving)
	if err != nil {
		return nil, err
	}
	if err := flats.Require(p.Name, p.PartArea); err != nil {
		return nil, err
	}
	summer := toSet(p.SummerNames)
	summerParts := flats.Filter(func(row table.Row) bool { return summer[row.String(p.Name)] })
	grouped, err := summerParts.GroupBy(p.Name)
	if err != nil {
		return nil, err
	}
	return grouped.Aggregate(table.Aggregation{Column: p.PartArea, Func: table.AggSum})
}

// DuplexFlats lists flats whose parts span more than one floor, with the
// number of floors.
func (r *PremiseReport) DuplexFlats() (*table.Table, error) {
	p := r.v.Premises
	flats, err := r.SellPremises(p.DestLiving)
	if err != nil {
		return nil, err
	}
	levels, err := flats.GroupBy(p.PremiseNumber, p.FloorNumber)
	if err != nil {
		return nil, err
	}
	distinct, err := levels.Aggregate()
	if err != nil {
		return nil, err
	}
	byFlat, err := distinct.GroupBy(p.PremiseNumber)
	if err != nil {
		return nil, err
	}
	counts, err := byFlat.Aggregate(table.Aggregation{Func: table.AggSize, As: ColFloors})
	if err != nil {
		return nil, err
	}
	return counts.Filter(func(row table.Row) bool {
		n, _ := row.Float(ColFloors)
		return n > 1
	}), nil
}

// PremisesWithDifferentAreas lists premises whose full area differs from the
// sum of their part areas after rounding to centimetres.
func (r *PremiseReport) PremisesWithDifferentAreas(dest string) (*table.Table, error) {
	p := r.v.Premises
	parts, err := r.SellPremises(dest)
	if err != nil {
		return nil, err
	}
	grouped, err := parts.GroupBy(p.PremiseNumber)
	if err != nil {
		return nil, err
	}
	areas, err := grouped.Aggregate(
		table.Aggregation{Column: p.FullArea, Func: table.AggMin},
		table.Aggregation{Column: p.PartArea, Func: table.AggSum},
	)
	if err != nil {
		return nil, err
	}
	return areas.Filter(func(row table.Row) bool {
		full, ok := row.Float(p.FullArea)
		if !ok {
			return true
		}
		sum, _ := row.Float(p.PartArea)
		return round2(full) != round2(sum)
	}), nil
}

// FindDoubles returns positions (category, section, floor, index) of the
// given premise kind that are claimed by more than one premise number.
func (r *PremiseReport) FindDoubles(kind string) (*table.Table, error) {
	p := r.v.Premises
	keys := []string{p.Category, p.SectionNumber, p.FloorNumber, p.Index}
	if err := r.parts.Require(append(keys, p.Kind, p.PremiseNumber)...); err != nil {
		return nil, err
	}
	ofKind := r.parts.Filter(func(row table.Row) bool { return row.String(p.Kind) == kind })
	grouped, err := ofKind.GroupBy(keys...)
	if err != nil {
		return nil, err
	}
	out := table.New(append(keys, p.PremiseNumber)...)
	for _, g := range grouped.Groups() {
		numbers, err := g.Table().Column(p.PremiseNumber)
		if err != nil {
			return nil, err
		}
		if len(numbers.Unique()) > 1 {
			out.Append(append(append([]any{}, g.Key...), g.JoinUnique(p.PremiseNumber))...)
		}
	}
	return out, nil
}

// SFAandGFA splits sellable (SFA) and gross (GFA) floor areas between the
// residential building and the parking. Parts are attributed by whether their
// section name mentions parking; parts without a section name count for
// neither.
func (r *PremiseReport) SFAandGFA() (*table.Table, error) {
	p := r.v.Premises
	if err := r.parts.Require(p.SectionName, p.Kind, p.PartArea); err != nil {
		return nil, err
	}
	inParking := func(row table.Row) bool {
		return !row.IsNull(p.SectionName) && containsFold(row.String(p.SectionName), p.ParkingWord)
	}
	inHouse := func(row table.Row) bool {
		return !row.IsNull(p.SectionName) && !containsFold(row.String(p.SectionName), p.ParkingWord)
	}
	kindIs := func(kind string, where func(table.Row) bool) func(table.Row) bool {
		return func(row table.Row) bool { return row.String(p.Kind) == kind && where(row) }
	}

	storage, err := r.SellPremises(p.DestStorage)
	if err != nil {
		return nil, err
	}
	parkingArea, err := r.SellArea(p.DestParking, true)
	if err != nil {
		return nil, err
	}
	retailArea, err := r.SellArea(p.DestRetail, true)
	if err != nil {
		return nil, err
	}
	flatsArea, err := r.SellArea(p.DestLiving, true)
	if err != nil {
		return nil, err
	}
	storageHouse := sumWhere(storage, p.PartArea, inHouse)

	sfaParking := parkingArea + sumWhere(storage, p.PartArea, inParking)
	sfaHouse := storageHouse + retailArea + flatsArea
	gfaParking := sumWhere(r.parts, p.PartArea, kindIs(p.KindCommon, inParking)) +
		sumWhere(r.parts, p.PartArea, kindIs(p.KindTechnical, inParking))
	gfaHouse := sumWhere(r.parts, p.PartArea, kindIs(p.KindCommon, inHouse)) +
		sumWhere(r.parts, p.PartArea, kindIs(p.KindTechnical, inHouse)) +
		flatsArea + retailArea + storageHouse

	out := table.New(ColIndicator, ColArea)
	out.Append("SFA house", sfaHouse)
	out.Append("GFA house", gfaHouse)
	out.Append("SFA parking", sfaParking)
	out.Append("GFA parking", gfaParking)
	return out, nil
}

// FloorTypes classifies every (section, floor) by the destinations of the
// premises on it.
func (r *PremiseReport) FloorTypes() (*table.Table, error) {
	p := r.v.Premises
	keys := []string{p.SectionName, p.SectionNumber, p.FloorNumber}
	if err := r.parts.Require(append(keys, p.Destination)...); err != nil {
		return nil, err
	}
	grouped, err := r.parts.GroupBy(keys...)
	if err != nil {
		return nil, err
	}
	out := table.New(append(keys, r.v.FloorType)...)
	for _, g := range grouped.Groups() {
		floor, _ := table.ToFloat(g.Key[2])
		destinations := strings.Split(g.JoinUnique(p.Destination), ",")
		kind := FloorTypeTypical
		switch {
		case floor < 1:
			kind = FloorTypeUnderground
		case floor == 1:
			kind = FloorTypeFirst
		case contains(destinations, p.DestTechnical):
			kind = FloorTypeTop
		}
		out.Append(append(append([]any{}, g.Key...), kind)...)
	}
	return out, nil
}

// CompareWithCRM matches sellable premises with the sales CRM export on
// (kind, section, floor, number on floor) and reports the total-area delta.
// how selects which unmatched rows are kept; the CRM side is the left side.
func (r *PremiseReport) CompareWithCRM(crm *table.Table, how table.JoinKind) (*table.Table, error) {
	p := r.v.Premises
	if err := crm.Require(CRMName, CRMKind, CRMSection, CRMFloor, CRMIndex, CRMTotalArea); err != nil {
		return nil, err
	}
	cols := []string{CRMKind, CRMSection, CRMFloor, CRMIndex, p.PremiseNumber, CRMTotalArea}

	crmSide := table.New(cols...)
	for _, row := range crm.Rows() {
		var number any
		if m := crmNumberPattern.FindStringSubmatch(row.String(CRMName)); m != nil {
			number = m[1]
		}
		crmSide.Append(
			keyText(row.Get(CRMKind)), keyText(row.Get(CRMSection)), keyText(row.Get(CRMFloor)), keyText(row.Get(CRMIndex)),
			number, floatOrNil(row.Get(CRMTotalArea)),
		)
	}

	bimSide, err := r.crmView(cols)
	if err != nil {
		return nil, err
	}

	joined, err := table.Join(crmSide, bimSide, []string{CRMKind, CRMSection, CRMFloor, CRMIndex}, how, [2]string{"_CRM", "_BIM"})
	if err != nil {
		return nil, err
	}
	crmArea, bimArea := CRMTotalArea+"_CRM", CRMTotalArea+"_BIM"
	if err := joined.FillNull(0.0, crmArea, bimArea); err != nil {
		return nil, err
	}
	delta := CRMTotalArea + "_Δ"
	joined.AddColumn(delta)
	for i := 0; i < joined.Len(); i++ {
		c, _ := table.ToFloat(joined.Get(i, crmArea))
		b, _ := table.ToFloat(joined.Get(i, bimArea))
		joined.Set(i, delta, c-b)
	}
	return joined.Select(p.PremiseNumber+"_CRM", p.PremiseNumber+"_BIM", CRMKind, crmArea, bimArea, delta)
}

// crmView returns the sellable premises in CRM terms, one row per premise
// number: the part with the largest full area.
func (r *PremiseReport) crmView(cols []string) (*table.Table, error) {
	p := r.v.Premises
	var sellable []*table.Table
	for _, dest := range []string{p.DestLiving, p.DestRetail, p.DestStorage, p.DestParking} {
		parts, err := r.SellPremises(dest)
		if err != nil {
			return nil, err
		}
		sellable = append(sellable, parts)
	}
	all := table.Concat(sellable...)
	if err := all.Require(p.PremiseNumber, p.FullArea, p.PartArea, p.Position); err != nil {
		return nil, err
	}
	grouped, err := all.GroupBy(p.PremiseNumber)
	if err != nil {
		return nil, err
	}

	out := table.New(cols...)
	for _, g := range grouped.Groups() {
		best, bestArea := -1, math.Inf(-1)
		for _, i := range g.Rows {
			if a, ok := table.ToFloat(all.Get(i, p.FullArea)); ok && a > bestArea {
				best, bestArea = i, a
			}
		}
		if best < 0 {
			continue
		}
		row := all.Row(best)
		space := row.String(p.Kind) == p.KindParkingSpace
		kind := row.Get(p.Kind)
		if k, ok := p.CRMKinds[row.String(p.Destination)]; ok {
			kind = k
		}
		total, index := row.Get(p.FullArea), row.Get(p.Index)
		if space {
			total, index = row.Get(p.PartArea), row.Get(p.Position)
		}
		var floor any
		if segs := strings.Split(row.String(p.PremiseNumber), "."); len(segs) > 1 {
			floor = segs[1]
		}
		out.Append(
			keyText(kind), keyText(row.Get(p.SectionNumber)), keyText(floor), keyText(index),
			row.Get(p.PremiseNumber), floatOrNil(total),
		)
	}
	return out, nil
}

// minPerPremise groups parts by premise number and keeps the minimum of
// every numeric column.
func minPerPremise(parts *table.Table, key string) (*table.Table, error) {
	grouped, err := parts.GroupBy(key)
	if err != nil {
		return nil, err
	}
	var aggs []table.Aggregation
	for _, c := range numericColumns(parts) {
		if c != key {
			aggs = append(aggs, table.Aggregation{Column: c, Func: table.AggMin})
		}
	}
	return grouped.Aggregate(aggs...)
}

// numericColumns returns the columns whose non-null cells are all float64.
func numericColumns(t *table.Table) []string {
	var out []string
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		numeric := true
		for _, v := range col.Values() {
			if table.IsNull(v) {
				continue
			}
			if _, ok := v.(float64); !ok {
				numeric = false
				break
			}
		}
		if numeric {
			out = append(out, name)
		}
	}
	return out
}

func columnSum(t *table.Table, name string) (float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return 0, err
	}
	return col.Sum(), nil
}

// sumWhere sums the numeric cells of col over the rows keep accepts. A
// missing column sums to 0.
func sumWhere(t *table.Table, col string, keep func(table.Row) bool) float64 {
	if !t.Has(col) {
		return 0
	}
	var s float64
	for _, row := range t.Rows() {
		if !keep(row) {
			continue
		}
		if f, ok := row.Float(col); ok {
			s += f
		}
	}
	return s
}

// keyText canonicalizes a join key: numbers as shortest decimal text, other
// values as trimmed text.
func keyText(v any) any {
	if table.IsNull(v) {
		return nil
	}
	if f, ok := table.ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.TrimSpace(table.ToString(v))
}

func floatOrNil(v any) any {
	if f, ok := table.ToFloat(v); ok {
		return f
	}
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, v := range list {
		out[v] = true
	}
	return out
}
