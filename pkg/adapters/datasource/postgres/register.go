package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "Upstream BIM store on PostgreSQL 12+",
		},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (datasource.ConnectionTester, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, logger)
		},
		QueryExecutorFactory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (datasource.QueryExecutor, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewQueryExecutor(ctx, cfg, logger)
		},
	})
}
