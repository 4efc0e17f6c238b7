package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bim/pkg/config"
	"github.com/ekaya-inc/ekaya-bim/pkg/database"
	"github.com/ekaya-inc/ekaya-bim/pkg/logging"
)

// Adapter provides PostgreSQL connectivity checks.
type Adapter struct {
	config *Config
	pool   *pgxpool.Pool
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// User, password and database are URL-escaped so passwords containing
// @, /, # or ? do not break URL parsing. When running in Docker, localhost
// resolves to host.docker.internal.
func buildConnectionString(cfg *Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	host := config.ResolveHostForDocker(cfg.Host)

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
}

func openPool(ctx context.Context, cfg *Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	connStr := buildConnectionString(cfg)
	logger.Debug("Connecting to BIM database", zap.String("dsn", logging.SanitizeConnectionString(connStr)))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db.Pool, nil
}

// NewAdapter creates a PostgreSQL adapter with its own pool.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Adapter{config: cfg, pool: pool}, nil
}

// TestConnection verifies the database is reachable, queryable and is the
// configured database rather than a server default.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := a.pool.QueryRow(ctx, "SELECT current_database()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}

	if !strings.EqualFold(currentDB, a.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", a.config.Database, currentDB)
	}

	return nil
}

// Close releases the adapter's pool.
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Ensure Adapter implements ConnectionTester at compile time.
var _ datasource.ConnectionTester = (*Adapter)(nil)
