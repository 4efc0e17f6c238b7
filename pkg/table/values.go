package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MissingColumnError is returned when an expected column title is absent.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", strings.Join(e.Columns, ", "))
}

// DuplicateColumnError is returned when an operation would give two columns
// the same title.
type DuplicateColumnError struct {
	Columns []string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column(s): %s", strings.Join(e.Columns, ", "))
}

// IsNull reports whether v is a null cell. NaN floats count as null.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// ToFloat converts numeric cells and numeric text to float64.
// Text must parse completely; "12,5" is not numeric.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), !math.IsNaN(float64(x))
	case int:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ToString renders a cell as text. Null renders as "".
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// ToBool interprets boolean cells and common boolean text.
func ToBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}

// Compare orders two cells: nulls sort last, numbers numerically,
// times chronologically, everything else by text.
func Compare(a, b any) int {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	_, aText := a.(string)
	_, bText := b.(string)
	if !aText && !bText {
		af, aok := ToFloat(a)
		bf, bok := ToFloat(b)
		if aok && bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(ToString(a), ToString(b))
}

// keyOf builds a composite grouping/join key. Null keys compare equal to
// each other, and numbers compare by value regardless of their Go type.
func keyOf(values []any) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if IsNull(v) {
			b.WriteString("\x00null")
			continue
		}
		if _, isText := v.(string); !isText {
			if f, ok := ToFloat(v); ok {
				b.WriteString("\x00n")
				b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
				continue
			}
		}
		b.WriteString(ToString(v))
	}
	return b.String()
}

// CoerceNumeric converts every text column whose non-null cells all parse as
// numbers into a float64 column. Columns with any non-numeric text are left
// untouched. It returns the names of the converted columns.
func CoerceNumeric(t *Table, skip ...string) []string {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}
	var converted []string
	for c, name := range t.columns {
		if skipSet[name] {
			continue
		}
		numeric, sawText := true, false
		for _, r := range t.rows {
			v := r[c]
			if IsNull(v) {
				continue
			}
			s, isText := v.(string)
			if !isText {
				if _, ok := ToFloat(v); !ok {
					numeric = false
					break
				}
				continue
			}
			sawText = true
			if _, ok := ToFloat(s); !ok {
				numeric = false
				break
			}
		}
		if !numeric || !sawText {
			continue
		}
		for _, r := range t.rows {
			if IsNull(r[c]) {
				r[c] = nil
				continue
			}
			f, _ := ToFloat(r[c])
			r[c] = f
		}
		converted = append(converted, name)
	}
	return converted
}
