// Package repomanager opens the account store selected in the server
// configuration and prepares its schema.
package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/server/config"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/accounts"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// RepositoryManager prepares a SQL database and vends the account store on
// top of it.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db *sql.DB) accounts.Store
}

// Open builds the account store for cfg.StoreDriver. The caller owns the
// returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (accounts.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg.DatabaseDSN)

	case config.DriverSQLite:
		s, err := accounts.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.DriverMongo:
		s, err := accounts.NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.DriverMemory:
		return accounts.NewMemoryRepository(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
	}
}
