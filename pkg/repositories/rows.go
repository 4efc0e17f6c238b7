package repositories

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// toUUIDs parses ids for binding to uuid[] parameters.
func toUUIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidIdentifier, id)
		}
		out = append(out, u)
	}
	return out, nil
}

// relation quotes a validated "schema.table" name.
func relation(exec datasource.QueryExecutor, name string) (string, error) {
	if err := models.ValidateRelationName(name); err != nil {
		return "", err
	}
	parts := strings.SplitN(name, ".", 2)
	return exec.QuoteIdentifier(parts[0]) + "." + exec.QuoteIdentifier(parts[1]), nil
}

func asString(v any) string {
	return table.ToString(v)
}

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case int:
		return x, nil
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("unexpected integer value %T", v)
}

func asBool(v any) bool {
	b, _ := table.ToBool(v)
	return b
}

func asTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return time.Parse(time.RFC3339Nano, x)
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp value %T", v)
}
