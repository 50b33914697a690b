package app

import (
	"context"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/agentstation/motherdb/pkg/baseline"
	"github.com/agentstation/motherdb/pkg/errors"
)

// openStore opens the configured baseline store. SQL stores are migrated on
// open and must be closed by the caller.
func openStore(ctx context.Context, config *Config) (baseline.Store, error) {
	switch config.StoreDriver {
	case DriverMemory:
		return baseline.NewMemoryStore(), nil
	case DriverPostgres, DriverSQLite:
		store, err := baseline.OpenSQLStore(ctx, config.StoreDriver, config.StoreDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverFile, "":
		return baseline.NewFileStore(config.StoreDir), nil
	}
	return nil, errors.NewConfigurationError("store", "unknown driver "+config.StoreDriver, nil)
}
