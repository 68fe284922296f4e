package accounts

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. Records are cloned on
// the way in and out, so callers never share state with the store.
type MemoryRepository struct {
	mu         sync.RWMutex
	accounts   map[int64]*models.Account
	byUsername map[string]int64
	lastID     int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:   make(map[int64]*models.Account),
		byUsername: make(map[string]int64),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[acc.Username]; taken {
		return nil, common.ErrDuplicateUsername
	}

	r.lastID++
	rec := acc.Clone()
	rec.ID = r.lastID
	r.accounts[rec.ID] = rec
	r.byUsername[rec.Username] = rec.ID

	return rec.Clone(), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rec.Clone(), nil
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.accounts[id].Clone(), nil
}

func (r *MemoryRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUsername[username]
	return ok, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Account, 0, len(r.accounts))
	for _, rec := range r.accounts {
		result = append(result, rec.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id int64, fn UpdateFunc) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = id

	if next.Username != current.Username {
		if _, taken := r.byUsername[next.Username]; taken {
			return nil, common.ErrDuplicateUsername
		}
		delete(r.byUsername, current.Username)
		r.byUsername[next.Username] = id
	}
	r.accounts[id] = next

	return next.Clone(), nil
}

// Flush is a no-op; memory has no slower tier to write through to.
func (r *MemoryRepository) Flush(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
