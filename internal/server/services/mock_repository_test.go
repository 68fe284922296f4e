package services

import (
	"context"

	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/accounts"
	"github.com/stretchr/testify/mock"
)

// MockRepository implements accounts.Repository for testing.
type MockRepository struct {
	mock.Mock
}

var _ accounts.Repository = (*MockRepository)(nil)

func (m *MockRepository) account(args mock.Arguments) (*models.Account, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	return m.account(m.Called(ctx, acc))
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	return m.account(m.Called(ctx, id))
}

func (m *MockRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return m.account(m.Called(ctx, username))
}

func (m *MockRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int64, fn accounts.UpdateFunc) (*models.Account, error) {
	return m.account(m.Called(ctx, id, fn))
}

func (m *MockRepository) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
