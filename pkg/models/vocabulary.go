package models

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary holds the business titles used as column names. Parameter titles
// come from the upstream lookup tables and must match them exactly; derived
// column titles are what the reports show. The values are in the project's
// working language and are never translated by the pipeline.
type Vocabulary struct {
	// Element parameters.
	Section     string `yaml:"section"`
	Floor       string `yaml:"floor"`
	FloorWord   string `yaml:"floor_word"`
	ElementType string `yaml:"element_type"`
	ObjectName  string `yaml:"object_name"`
	Stage       string `yaml:"stage"`

	// Enrichment columns.
	SectionMorphotype string `yaml:"section_morphotype"`
	SectionParking    string `yaml:"section_parking"`
	FloorType         string `yaml:"floor_type"`
	FloorParking      string `yaml:"floor_parking"`

	// Statistics columns.
	Reference string `yaml:"reference"`
	Deviation string `yaml:"deviation"`

	// Nomenclature.
	Quantity  string `yaml:"quantity"`
	Count     string `yaml:"count"`
	NotFilled string `yaml:"not_filled"`

	Premises PremiseVocabulary `yaml:"premises"`
}

// PremiseVocabulary names the premise parameters and the category values the
// premise reports filter on.
type PremiseVocabulary struct {
	Name          string `yaml:"name"`
	Destination   string `yaml:"destination"`
	Kind          string `yaml:"kind"`
	Category      string `yaml:"category"`
	PremiseNumber string `yaml:"premise_number"`
	PartNumber    string `yaml:"part_number"`
	SectionName   string `yaml:"section_name"`
	SectionNumber string `yaml:"section_number"`
	FloorNumber   string `yaml:"floor_number"`
	Index         string `yaml:"index"`
	Position      string `yaml:"position"`
	RoomNumber    string `yaml:"room_number"`
	ExpertiseType string `yaml:"expertise_type"`
	SalesType     string `yaml:"sales_type"`
	RoomsCount    string `yaml:"rooms_count"`

	PartArea       string `yaml:"part_area"`
	FullArea       string `yaml:"full_area"`
	NonSummerArea  string `yaml:"non_summer_area"`
	SummerArea     string `yaml:"summer_area"`
	LivingArea     string `yaml:"living_area"`
	CommonArea     string `yaml:"common_area"`
	WarmLoggiaArea string `yaml:"warm_loggia_area"`
	ColdLoggiaArea string `yaml:"cold_loggia_area"`
	BalconyArea    string `yaml:"balcony_area"`
	TerraceArea    string `yaml:"terrace_area"`

	HasTerraceOnRoof   string `yaml:"has_terrace_on_roof"`
	HasTerraceOnGround string `yaml:"has_terrace_on_ground"`
	HasBalcony         string `yaml:"has_balcony"`
	HasColdLoggia      string `yaml:"has_cold_loggia"`
	HasWarmLoggia      string `yaml:"has_warm_loggia"`

	DestLiving    string `yaml:"dest_living"`
	DestRetail    string `yaml:"dest_retail"`
	DestStorage   string `yaml:"dest_storage"`
	DestParking   string `yaml:"dest_parking"`
	DestTechnical string `yaml:"dest_technical"`
	DestGNS       string `yaml:"dest_gns"`

	KindCommon       string `yaml:"kind_common"`
	KindParkingSpace string `yaml:"kind_parking_space"`
	KindTechnical    string `yaml:"kind_technical"`

	Balcony         string   `yaml:"balcony"`
	Loggia          string   `yaml:"loggia"`
	Terrace         string   `yaml:"terrace"`
	TerraceOnGround string   `yaml:"terrace_on_ground"`
	SummerNames     []string `yaml:"summer_names"`
	ParkingWord     string   `yaml:"parking_word"`
	StairwellWord   string   `yaml:"stairwell_word"`
	CarParkWord     string   `yaml:"car_park_word"`

	// Technical premise name -> engineering system, first match wins.
	TechEquipment     []EquipmentRule `yaml:"tech_equipment"`
	VerticalTransport string          `yaml:"vertical_transport"`
	LiftEquipment     string          `yaml:"lift_equipment"`

	// Destination -> premise kind used by the sales CRM export.
	CRMKinds map[string]string `yaml:"crm_kinds"`
}

// EquipmentRule maps technical premises whose name contains Contains to the
// equipment they house. Underground equipment is reported in the underground
// part of the building.
type EquipmentRule struct {
	Contains    string `yaml:"contains"`
	Equipment   string `yaml:"equipment"`
	Underground bool   `yaml:"underground"`
}

// DefaultVocabulary returns the built-in titles.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Section:     "Section",
		Floor:       "Floor",
		FloorWord:   "Floor",
		ElementType: "Element type",
		ObjectName:  "Object name",
		Stage:       "Stage",

		SectionMorphotype: "Section morphotype",
		SectionParking:    "Section parking",
		FloorType:         "Floor type",
		FloorParking:      "Floor parking",

		Reference: "Reference",
		Deviation: "Deviation, %",

		Quantity:  "Quantity",
		Count:     "Count",
		NotFilled: "Not filled",

		Premises: PremiseVocabulary{
			Name:          "Name",
			Destination:   "Destination",
			Kind:          "Premise kind",
			Category:      "Category",
			PremiseNumber: "Premise number",
			PartNumber:    "Premise part number",
			SectionName:   "Section name",
			SectionNumber: "Section number",
			FloorNumber:   "Floor number",
			Index:         "Premise index",
			Position:      "Position",
			RoomNumber:    "Room number",
			ExpertiseType: "Flat type",
			SalesType:     "Sales flat type",
			RoomsCount:    "Rooms count",

			PartArea:       "Part area",
			FullArea:       "Area without coefficients",
			NonSummerArea:  "Area without summer premises",
			SummerArea:     "Summer area",
			LivingArea:     "Living area",
			CommonArea:     "Total area",
			WarmLoggiaArea: "Warm loggia area",
			ColdLoggiaArea: "Cold loggia area",
			BalconyArea:    "Balcony area",
			TerraceArea:    "Terrace area",

			HasTerraceOnRoof:   "Roof terrace",
			HasTerraceOnGround: "Ground terrace",
			HasBalcony:         "Balcony",
			HasColdLoggia:      "Loggia (cold)",
			HasWarmLoggia:      "Loggia (warm)",

			DestLiving:    "Living",
			DestRetail:    "Retail",
			DestStorage:   "Storage",
			DestParking:   "Parking",
			DestTechnical: "Technical",
			DestGNS:       "GNS",

			KindCommon:       "Common",
			KindParkingSpace: "Parking space",
			KindTechnical:    "Technical premises",

			Balcony:         "Balcony",
			Loggia:          "Loggia",
			Terrace:         "Terrace",
			TerraceOnGround: "Ground terrace",
			SummerNames:     []string{"Balcony", "Loggia", "Loggia (cold)", "Ground terrace", "Terrace"},
			ParkingWord:     "parking",
			StairwellWord:   "stairwell",
			CarParkWord:     "Car park",

			TechEquipment: []EquipmentRule{
				{Contains: "Vent", Equipment: "Ventilation networks"},
				{Contains: "ITP", Equipment: "Heat supply networks"},
				{Contains: "aste", Equipment: "Intermediate waste collection point"},
				{Contains: "ump", Equipment: "Cold domestic water supply system"},
				{Contains: "Communications room", Equipment: "Communication networks"},
				{Contains: "Substation room", Equipment: "Heat supply networks"},
				{Contains: "Transformer room", Equipment: "Power supply networks", Underground: true},
				{Contains: "Switchboard room", Equipment: "Power supply networks", Underground: true},
				{Contains: "Vertical transport", Equipment: "Lift"},
			},
			VerticalTransport: "Vertical transport",
			LiftEquipment:     "Lift",

			CRMKinds: map[string]string{
				"Living":  "Flat",
				"Retail":  "Office",
				"Storage": "Storage room",
				"Parking": "Parking",
			},
		},
	}
}

// Validate checks that the titles the volume pipeline depends on are set.
func (v Vocabulary) Validate() error {
	required := map[string]string{
		"section":            v.Section,
		"floor":              v.Floor,
		"floor_word":         v.FloorWord,
		"element_type":       v.ElementType,
		"section_morphotype": v.SectionMorphotype,
		"floor_type":         v.FloorType,
		"reference":          v.Reference,
		"deviation":          v.Deviation,
	}
	var missing []string
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("vocabulary titles not set: %s", strings.Join(sortedCopy(missing), ", "))
	}
	return nil
}

// DefaultStages maps the recognised stage names to their stage ids.
func DefaultStages() map[string]string {
	return map[string]string{
		"Concept":               "656c5b44-4f34-406e-b548-b490f634f862",
		"Design":                "d1df7cfd-38d5-41b9-af73-8274ca8b7eaf",
		"Working Documentation": "49f5f46c-d326-4cb5-94de-baa38e9a664c",
	}
}

// StageMap is an immutable stage name to stage id lookup.
type StageMap struct {
	ids map[string]string
}

// NewStageMap copies m into a StageMap.
func NewStageMap(m map[string]string) StageMap {
	ids := make(map[string]string, len(m))
	for k, v := range m {
		ids[k] = v
	}
	return StageMap{ids: ids}
}

// Lookup returns the stage id for a stage name.
func (s StageMap) Lookup(name string) (string, bool) {
	id, ok := s.ids[name]
	return id, ok
}

// Names returns the recognised stage names in sorted order.
func (s StageMap) Names() []string {
	names := make([]string, 0, len(s.ids))
	for k := range s.ids {
		names = append(names, k)
	}
	return sortedCopy(names)
}

// Len returns the number of recognised stages.
func (s StageMap) Len() int {
	return len(s.ids)
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
