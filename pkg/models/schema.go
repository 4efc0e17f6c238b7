package models

import (
	"fmt"
	"regexp"
)

// DefaultCalcsRelation is the calculations relation used when none is configured.
// Some upstream revisions name it calcp.calcs instead.
const DefaultCalcsRelation = "calc.calcs"

var relationNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*$`)

// Schema holds the configurable parts of the upstream relation names.
type Schema struct {
	CalcsRelation string `yaml:"calcs_relation" env:"BIM_CALCS_RELATION" env-default:"calc.calcs"`
}

// DefaultSchema returns the schema used by current upstream revisions.
func DefaultSchema() Schema {
	return Schema{CalcsRelation: DefaultCalcsRelation}
}

// Validate checks that every relation name is a plain schema.table identifier.
func (s Schema) Validate() error {
	return ValidateRelationName(s.CalcsRelation)
}

// ValidateRelationName rejects anything but schema.table made of identifier characters.
func ValidateRelationName(name string) error {
	if !relationNamePattern.MatchString(name) {
		return fmt.Errorf("invalid relation name %q: expected schema.table", name)
	}
	return nil
}
