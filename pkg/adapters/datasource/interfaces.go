package datasource

import "context"

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// QueryExecutor runs read-only parameterized queries against the BIM store.
//
// The SQL uses the dialect's positional placeholders ($1, $2, ... for
// PostgreSQL). Values are bound by the driver, never interpolated. Every row
// is returned; the pipeline materializes each stage fully.
//
// Each implementation owns its connection and must be closed when done.
type QueryExecutor interface {
	// Query runs a SELECT and returns all rows as column-name maps.
	// Identifier-like values (uuid) are returned in canonical string form
	// and numeric types as float64 or int64.
	Query(ctx context.Context, sqlQuery string, params ...any) (*QueryExecutionResult, error)

	// QuoteIdentifier safely quotes a SQL identifier (schema or table name).
	QuoteIdentifier(name string) string

	// Close releases any resources held by the executor.
	Close() error
}

// ColumnInfo describes a result column with database-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Database type name (e.g., "TEXT", "UUID", "TIMESTAMPTZ")
}

// QueryExecutionResult holds the results from executing a query.
type QueryExecutionResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// ColumnNames returns the result column names in order.
func (r *QueryExecutionResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}
