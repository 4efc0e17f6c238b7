package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DatasourceAdapterFactory creates adapters from the registry.
type DatasourceAdapterFactory interface {
	// NewConnectionTester creates a connection tester for the given datasource type.
	NewConnectionTester(ctx context.Context, dsType string, config map[string]any) (ConnectionTester, error)

	// NewQueryExecutor creates a query executor for the given datasource type.
	NewQueryExecutor(ctx context.Context, dsType string, config map[string]any) (QueryExecutor, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []DatasourceAdapterInfo
}

type registryFactory struct {
	logger *zap.Logger
}

// NewDatasourceAdapterFactory returns a factory that uses the global registry.
func NewDatasourceAdapterFactory(logger *zap.Logger) DatasourceAdapterFactory {
	return &registryFactory{
		logger: logger.Named("datasource"),
	}
}

func (f *registryFactory) NewConnectionTester(ctx context.Context, dsType string, config map[string]any) (ConnectionTester, error) {
	factory := GetFactory(dsType)
	if factory == nil {
		return nil, fmt.Errorf("unsupported datasource type: %s (not compiled in)", dsType)
	}
	return factory(ctx, config, f.logger)
}

func (f *registryFactory) NewQueryExecutor(ctx context.Context, dsType string, config map[string]any) (QueryExecutor, error) {
	factory := GetQueryExecutorFactory(dsType)
	if factory == nil {
		return nil, fmt.Errorf("query execution not supported for type: %s", dsType)
	}
	return factory(ctx, config, f.logger)
}

func (f *registryFactory) ListTypes() []DatasourceAdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements DatasourceAdapterFactory at compile time.
var _ DatasourceAdapterFactory = (*registryFactory)(nil)
