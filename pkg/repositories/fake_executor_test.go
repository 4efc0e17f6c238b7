package repositories

import (
	"context"
	"strings"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
)

type recordedQuery struct {
	sql    string
	params []any
}

// fakeExecutor answers queries by the first configured relation name found in
// the SQL text.
type fakeExecutor struct {
	results map[string][]map[string]any
	errs    map[string]error
	queries []recordedQuery
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		results: make(map[string][]map[string]any),
		errs:    make(map[string]error),
	}
}

func (f *fakeExecutor) Query(_ context.Context, sql string, params ...any) (*datasource.QueryExecutionResult, error) {
	f.queries = append(f.queries, recordedQuery{sql: sql, params: params})
	unquoted := strings.ReplaceAll(sql, `"`, "")
	for rel, err := range f.errs {
		if strings.Contains(unquoted, rel) {
			return nil, err
		}
	}
	for rel, rows := range f.results {
		if strings.Contains(unquoted, rel+" ") || strings.HasSuffix(strings.TrimSpace(unquoted), rel) || strings.Contains(unquoted, rel+"\n") {
			return &datasource.QueryExecutionResult{Rows: rows, RowCount: len(rows)}, nil
		}
	}
	return &datasource.QueryExecutionResult{}, nil
}

func (f *fakeExecutor) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (f *fakeExecutor) Close() error { return nil }

var _ datasource.QueryExecutor = (*fakeExecutor)(nil)
