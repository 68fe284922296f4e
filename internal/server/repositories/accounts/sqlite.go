package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/timex"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// accountRecord is the GORM model of an account row.
type accountRecord struct {
	ID           int64       `gorm:"primaryKey;autoIncrement"`
	Username     string      `gorm:"uniqueIndex;not null"`
	Password     string      `gorm:"not null"`
	Status       bool        `gorm:"not null"`
	CreationDate timex.Date  `gorm:"type:date;not null"`
	Birthday     *timex.Date `gorm:"type:date"`
	Token        string      `gorm:"not null"`
}

func (accountRecord) TableName() string { return "accounts" }

func toRecord(acc *models.Account) accountRecord {
	c := acc.Clone()
	return accountRecord{
		ID:           c.ID,
		Username:     c.Username,
		Password:     c.Password,
		Status:       c.Status,
		CreationDate: c.CreationDate,
		Birthday:     c.Birthday,
		Token:        c.Token,
	}
}

func (r accountRecord) toModel() *models.Account {
	return &models.Account{
		ID:           r.ID,
		Username:     r.Username,
		Password:     r.Password,
		Status:       r.Status,
		CreationDate: r.CreationDate,
		Birthday:     r.Birthday,
		Token:        r.Token,
	}
}

// SQLiteRepository is the embedded single-file store.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository opens (or creates) the database at path and migrates
// the accounts table. ":memory:" gives a throwaway database.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("sqlite tracing: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer at a time; also keeps ":memory:" on a single connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&accountRecord{}); err != nil {
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	rec := toRecord(acc)
	rec.ID = 0

	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, translateGormError(err)
	}
	return rec.toModel(), nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	var rec accountRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translateGormError(err)
	}
	return rec.toModel(), nil
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	var rec accountRecord
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&rec).Error; err != nil {
		return nil, translateGormError(err)
	}
	return rec.toModel(), nil
}

func (r *SQLiteRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&accountRecord{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, translateGormError(err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context) ([]*models.Account, error) {
	var recs []accountRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, translateGormError(err)
	}

	result := make([]*models.Account, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.toModel())
	}
	return result, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, fn UpdateFunc) (*models.Account, error) {
	var updated *models.Account

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec accountRecord
		if err := tx.First(&rec, id).Error; err != nil {
			return translateGormError(err)
		}

		acc := rec.toModel()
		if err := fn(acc); err != nil {
			return err
		}

		next := toRecord(acc)
		err := tx.Model(&accountRecord{ID: id}).
			Select("username", "status", "birthday").
			Updates(&next).Error
		if err != nil {
			return translateGormError(err)
		}

		next.ID = id
		updated = next.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Flush checkpoints the write-ahead log into the main database file. It is
// harmless when the database is not in WAL mode.
func (r *SQLiteRepository) Flush(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(FULL)").Error; err != nil {
		return fmt.Errorf("sqlite flush: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translateGormError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.ErrorNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return common.ErrDuplicateUsername
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
