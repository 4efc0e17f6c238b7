package services

import (
	"regexp"

	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// FloorSentinel is the normalized floor for missing or unparseable names.
// It is a valid join key: all such floors group together.
const FloorSentinel = "NaN"

// FloorNormalizer extracts the canonical "<word> <N>" token from level names
// such as "Floor -01 (elev. -4.200)".
type FloorNormalizer struct {
	re *regexp.Regexp
}

// NewFloorNormalizer builds a normalizer for the given floor word.
func NewFloorNormalizer(word string) *FloorNormalizer {
	return &FloorNormalizer{re: regexp.MustCompile(regexp.QuoteMeta(word) + `\s(-?\d+)`)}
}

// Normalize returns the first match in raw, or FloorSentinel.
func (n *FloorNormalizer) Normalize(raw any) string {
	if table.IsNull(raw) {
		return FloorSentinel
	}
	s, ok := raw.(string)
	if !ok {
		return FloorSentinel
	}
	if m := n.re.FindString(s); m != "" {
		return m
	}
	return FloorSentinel
}

// NormalizeFloorName normalizes a single floor name with the given floor word.
func NormalizeFloorName(word string, raw any) string {
	return NewFloorNormalizer(word).Normalize(raw)
}
