// Package services contains server-side business logic. Directory is the
// single owner of account records: it registers accounts, checks logins,
// flips presence and applies profile edits while keeping usernames unique.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/logging"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/userdir/internal/telemetry"
	"github.com/dmitrijs2005/userdir/internal/timex"
)

// Candidate is the input of Create.
type Candidate struct {
	Username string
	Password string
	Birthday *timex.Date
}

// Directory provides the account operations.
//
// Username checks and the writes they guard run under a per-username lock,
// and every read-modify-write of one account runs under a per-id lock. The
// store's own unique constraint backs both up across processes.
type Directory struct {
	repo    accounts.Repository
	logger  logging.Logger
	timeout time.Duration

	names *keyLock[string]
	ids   *keyLock[int64]

	now      func() time.Time
	newToken func() (string, error)
}

// NewDirectory constructs a Directory. A positive timeout bounds every
// single store call.
func NewDirectory(repo accounts.Repository, logger logging.Logger, timeout time.Duration) *Directory {
	return &Directory{
		repo:     repo,
		logger:   logger,
		timeout:  timeout,
		names:    newKeyLock[string](),
		ids:      newKeyLock[int64](),
		now:      time.Now,
		newToken: common.NewAccountToken,
	}
}

func (d *Directory) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

// observe records the outcome of op in the operations counter.
func (d *Directory) observe(ctx context.Context, op string, err error) {
	outcome := telemetry.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, common.ErrStorageFailure), !isBusinessError(err):
		outcome = telemetry.OutcomeError
		d.logger.Error(ctx, "directory operation failed", "operation", op, "error", err)
	default:
		outcome = telemetry.OutcomeRefused
	}
	telemetry.DirectoryOperations.WithLabelValues(op, outcome).Inc()
}

func isBusinessError(err error) bool {
	return errors.Is(err, common.ErrDuplicateUsername) ||
		errors.Is(err, common.ErrUsernameTaken) ||
		errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrUnknownUsername) ||
		errors.Is(err, common.ErrWrongCredentials)
}

// ListAll returns every account in store order.
func (d *Directory) ListAll(ctx context.Context) (result []*models.Account, err error) {
	defer func() { d.observe(ctx, "list_all", err) }()

	sctx, cancel := d.storeCtx(ctx)
	defer cancel()

	all, err := d.repo.FindAll(sctx)
	if err != nil {
		return nil, common.StorageError("find all", err)
	}
	return all, nil
}

// Create registers a new offline account with a fresh token and today's
// creation date. A taken username yields common.ErrDuplicateUsername.
func (d *Directory) Create(ctx context.Context, c Candidate) (acc *models.Account, err error) {
	defer func() { d.observe(ctx, "create", err) }()

	unlock := d.names.Lock(c.Username)
	defer unlock()

	if err := d.ensureUsernameFree(ctx, c.Username, common.ErrDuplicateUsername); err != nil {
		return nil, err
	}

	token, err := d.newToken()
	if err != nil {
		return nil, fmt.Errorf("token generation: %w", err)
	}

	candidate := &models.Account{
		Username:     c.Username,
		Password:     c.Password,
		Status:       models.Offline,
		CreationDate: timex.DateOf(d.now()),
		Token:        token,
	}
	if c.Birthday != nil {
		b := *c.Birthday
		candidate.Birthday = &b
	}

	sctx, cancel := d.storeCtx(ctx)
	defer cancel()

	created, err := d.repo.Create(sctx, candidate)
	if err != nil {
		return nil, common.StorageError("create", err)
	}

	// Create already committed the row; a failed flush leaves it in place.
	if err := d.flush(ctx); err != nil {
		d.logger.Warn(ctx, "account stored but flush failed", "id", created.ID, "username", created.Username)
		return nil, err
	}

	telemetry.AccountsCreated.Inc()
	d.logger.Info(ctx, "account created", "id", created.ID, "username", created.Username)

	return created, nil
}

// FindByID returns the account with id or common.ErrorNotFound.
func (d *Directory) FindByID(ctx context.Context, id int64) (acc *models.Account, err error) {
	defer func() { d.observe(ctx, "find_by_id", err) }()
	return d.findByID(ctx, id)
}

func (d *Directory) findByID(ctx context.Context, id int64) (*models.Account, error) {
	sctx, cancel := d.storeCtx(ctx)
	defer cancel()

	acc, err := d.repo.FindByID(sctx, id)
	if err != nil {
		return nil, common.StorageError("find by id", err)
	}
	return acc, nil
}

// RequireExists fails with common.ErrorNotFound when no account has id.
func (d *Directory) RequireExists(ctx context.Context, id int64) (err error) {
	defer func() { d.observe(ctx, "require_exists", err) }()
	_, err = d.findByID(ctx, id)
	return err
}

// FindByUsername returns the account holding username or
// common.ErrorNotFound.
func (d *Directory) FindByUsername(ctx context.Context, username string) (acc *models.Account, err error) {
	defer func() { d.observe(ctx, "find_by_username", err) }()
	return d.findByUsername(ctx, username)
}

func (d *Directory) findByUsername(ctx context.Context, username string) (*models.Account, error) {
	sctx, cancel := d.storeCtx(ctx)
	defer cancel()

	acc, err := d.repo.FindByUsername(sctx, username)
	if err != nil {
		return nil, common.StorageError("find by username", err)
	}
	return acc, nil
}

// TogglePresence flips the account between offline and online.
func (d *Directory) TogglePresence(ctx context.Context, id int64) (err error) {
	defer func() { d.observe(ctx, "toggle_presence", err) }()

	unlock := d.ids.Lock(id)
	defer unlock()

	updated, err := d.update(ctx, id, func(acc *models.Account) error {
		acc.TogglePresence()
		return nil
	})
	if err != nil {
		return err
	}

	d.logger.Debug(ctx, "presence toggled", "id", id, "status", updated.PresenceString())
	return nil
}

// UpdateUsername renames the account. The new name is checked against
// every account including this one, so renaming to the current name is
// rejected with common.ErrUsernameTaken like any other taken name.
func (d *Directory) UpdateUsername(ctx context.Context, id int64, username string) (err error) {
	defer func() { d.observe(ctx, "update_username", err) }()

	unlockID := d.ids.Lock(id)
	defer unlockID()

	if _, err := d.findByID(ctx, id); err != nil {
		return err
	}

	unlockName := d.names.Lock(username)
	defer unlockName()

	if err := d.ensureUsernameFree(ctx, username, common.ErrUsernameTaken); err != nil {
		return err
	}

	_, err = d.update(ctx, id, func(acc *models.Account) error {
		acc.Username = username
		return nil
	})
	if errors.Is(err, common.ErrDuplicateUsername) {
		return common.ErrUsernameTaken
	}
	if err != nil {
		return err
	}

	d.logger.Debug(ctx, "username updated", "id", id, "username", username)
	return nil
}

// UpdateBirthday overwrites the birthday; nil clears it.
func (d *Directory) UpdateBirthday(ctx context.Context, id int64, birthday *timex.Date) (err error) {
	defer func() { d.observe(ctx, "update_birthday", err) }()

	unlock := d.ids.Lock(id)
	defer unlock()

	_, err = d.update(ctx, id, func(acc *models.Account) error {
		if birthday == nil {
			acc.Birthday = nil
			return nil
		}
		b := *birthday
		acc.Birthday = &b
		return nil
	})
	if err != nil {
		return err
	}

	d.logger.Debug(ctx, "birthday updated", "id", id)
	return nil
}

// Login checks the password of username. An absent username yields
// common.ErrUnknownUsername and a mismatch common.ErrWrongCredentials.
// Presence is left as it is.
func (d *Directory) Login(ctx context.Context, username, password string) (acc *models.Account, err error) {
	defer func() { d.observe(ctx, "login", err) }()

	acc, err = d.findByUsername(ctx, username)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrUnknownUsername
	}
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(acc.Password), []byte(password)) != 1 {
		return nil, common.ErrWrongCredentials
	}

	return acc, nil
}

// ensureUsernameFree returns taken when username is already held.
func (d *Directory) ensureUsernameFree(ctx context.Context, username string, taken error) error {
	sctx, cancel := d.storeCtx(ctx)
	defer cancel()

	exists, err := d.repo.ExistsByUsername(sctx, username)
	if err != nil {
		return common.StorageError("exists by username", err)
	}
	if exists {
		return taken
	}
	return nil
}

// update runs fn as an atomic store update and flushes afterwards.
func (d *Directory) update(ctx context.Context, id int64, fn accounts.UpdateFunc) (*models.Account, error) {
	sctx, cancel := d.storeCtx(ctx)
	defer cancel()

	updated, err := d.repo.Update(sctx, id, fn)
	if err != nil {
		return nil, common.StorageError("update", err)
	}

	if err := d.flush(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (d *Directory) flush(ctx context.Context) error {
	sctx, cancel := d.storeCtx(ctx)
	defer cancel()

	if err := d.repo.Flush(sctx); err != nil {
		return common.StorageError("flush", err)
	}
	return nil
}
