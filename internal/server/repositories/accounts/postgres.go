package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/dbx"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/timex"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const usernameConstraint = "accounts_username_key"

const selectColumns = `SELECT id, username, password, status, creation_date, birthday, token FROM accounts`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (username, password, status, creation_date, birthday, token)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	created := acc.Clone()
	err := r.db.QueryRowContext(ctx, query,
		created.Username, created.Password, created.Status, created.CreationDate, birthdayArg(created.Birthday), created.Token).Scan(&created.ID)

	if err != nil {
		return nil, translatePgError(err)
	}

	return created, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	return findOne(ctx, r.db, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return findOne(ctx, r.db, selectColumns+` WHERE username = $1`, username)
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of the
// transaction, so concurrent toggles of the same account serialize.
func (r *PostgresRepository) Update(ctx context.Context, id int64, fn UpdateFunc) (*models.Account, error) {
	var updated *models.Account

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		acc, err := findOne(ctx, tx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		if err := fn(acc); err != nil {
			return err
		}

		query :=
			`UPDATE accounts SET username = $2, status = $3, birthday = $4
			 WHERE id = $1
			 `
		if _, err := tx.ExecContext(ctx, query, acc.ID, acc.Username, acc.Status, birthdayArg(acc.Birthday)); err != nil {
			return translatePgError(err)
		}

		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Flush is a no-op: every statement above runs in its own committed
// transaction, and Postgres acknowledges a commit only once it is durable.
func (r *PostgresRepository) Flush(ctx context.Context) error {
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	acc := &models.Account{}
	var birthday sql.Null[timex.Date]

	if err := row.Scan(&acc.ID, &acc.Username, &acc.Password, &acc.Status, &acc.CreationDate, &birthday, &acc.Token); err != nil {
		return nil, err
	}
	if birthday.Valid {
		b := birthday.V
		acc.Birthday = &b
	}

	return acc, nil
}

func findOne(ctx context.Context, db dbx.DBTX, query string, arg any) (*models.Account, error) {
	acc, err := scanAccount(db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return acc, nil
}

func birthdayArg(b *timex.Date) any {
	if b == nil {
		return nil
	}
	return *b
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == usernameConstraint {
		return common.ErrDuplicateUsername
	}
	return fmt.Errorf("db error: %w", err)
}
