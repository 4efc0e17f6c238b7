package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bim/pkg/logging"
)

// QueryExecutor provides PostgreSQL query execution.
type QueryExecutor struct {
	pool      *pgxpool.Pool
	ownedPool bool // true if we created the pool
	logger    *zap.Logger
}

// NewQueryExecutor creates a PostgreSQL query executor with its own pool.
func NewQueryExecutor(ctx context.Context, cfg *Config, logger *zap.Logger) (*QueryExecutor, error) {
	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &QueryExecutor{
		pool:      pool,
		ownedPool: true,
		logger:    logger.Named("postgres"),
	}, nil
}

// NewQueryExecutorFromPool wraps an existing pool. Close leaves the pool open.
func NewQueryExecutorFromPool(pool *pgxpool.Pool, logger *zap.Logger) *QueryExecutor {
	return &QueryExecutor{
		pool:   pool,
		logger: logger.Named("postgres"),
	}
}

// Query runs a parameterized SELECT and returns every row.
// pgx binds the parameters natively; slices bind as PostgreSQL arrays, so
// "col = ANY($1)" takes a []string of ids.
func (e *QueryExecutor) Query(ctx context.Context, sqlQuery string, params ...any) (*datasource.QueryExecutionResult, error) {
	start := time.Now()

	rows, err := e.pool.Query(ctx, sqlQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]datasource.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = datasource.ColumnInfo{
			Name: fd.Name,
			Type: pgTypeNameFromOID(fd.DataTypeOID),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	e.logger.Debug("Query executed",
		zap.String("sql", logging.SanitizeQuery(sqlQuery)),
		zap.Int("params", len(params)),
		zap.Int("rows", len(resultRows)),
		zap.Duration("elapsed", time.Since(start)))

	return &datasource.QueryExecutionResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// normalizeValue converts driver values into the cell types the table
// package understands: string, float64, int64, bool, time.Time or nil.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case [16]byte:
		return uuid.UUID(x).String()
	case uuid.UUID:
		return x.String()
	case pgtype.UUID:
		if !x.Valid {
			return nil
		}
		return uuid.UUID(x.Bytes).String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	}
	return v
}

// Close releases the executor's pool if it owns it.
func (e *QueryExecutor) Close() error {
	if e.ownedPool && e.pool != nil {
		e.pool.Close()
	}
	return nil
}

// QuoteIdentifier safely quotes a SQL identifier to prevent SQL injection.
// Uses PostgreSQL's standard double-quote quoting.
func (e *QueryExecutor) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// pgTypeNameFromOID maps PostgreSQL type OIDs to type names.
// Types outside what the BIM relations use return "UNKNOWN".
func pgTypeNameFromOID(oid uint32) string {
	switch oid {
	case pgtype.BoolOID:
		return "BOOL"
	case pgtype.ByteaOID:
		return "BYTEA"
	case pgtype.Int8OID:
		return "INT8"
	case pgtype.Int2OID:
		return "INT2"
	case pgtype.Int4OID:
		return "INT4"
	case pgtype.TextOID:
		return "TEXT"
	case pgtype.Float4OID:
		return "FLOAT4"
	case pgtype.Float8OID:
		return "FLOAT8"
	case pgtype.BPCharOID:
		return "BPCHAR"
	case pgtype.VarcharOID:
		return "VARCHAR"
	case pgtype.DateOID:
		return "DATE"
	case pgtype.TimestampOID:
		return "TIMESTAMP"
	case pgtype.TimestamptzOID:
		return "TIMESTAMPTZ"
	case pgtype.NumericOID:
		return "NUMERIC"
	case pgtype.UUIDOID:
		return "UUID"
	case pgtype.JSONBOID:
		return "JSONB"
	case pgtype.TextArrayOID:
		return "TEXT[]"
	case pgtype.UUIDArrayOID:
		return "UUID[]"
	default:
		return "UNKNOWN"
	}
}

// Ensure QueryExecutor implements datasource.QueryExecutor at compile time.
var _ datasource.QueryExecutor = (*QueryExecutor)(nil)
