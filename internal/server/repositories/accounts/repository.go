// Package accounts contains the account record stores: Postgres, SQLite
// (GORM), MongoDB and an in-process map. All of them enforce username
// uniqueness themselves, so a lost race in the directory still cannot
// produce two accounts with one username.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/userdir/internal/server/models"
)

// UpdateFunc mutates a loaded account in place. Returning an error aborts
// the update and nothing is written.
type UpdateFunc func(acc *models.Account) error

// Repository is the persistence contract of the account directory.
//
// Lookups return common.ErrorNotFound for absent records. Create and Update
// return common.ErrDuplicateUsername when the username is held by another
// record. Update applies fn and writes the result as one atomic
// read-modify-write, so concurrent updates of one account never interleave.
type Repository interface {
	Create(ctx context.Context, acc *models.Account) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindAll(ctx context.Context) ([]*models.Account, error)
	Update(ctx context.Context, id int64, fn UpdateFunc) (*models.Account, error)
	// Flush forces buffered writes to durable media.
	Flush(ctx context.Context) error
}

// Store is a Repository that owns its connection.
type Store interface {
	Repository
	Ping(ctx context.Context) error
	Close() error
}
