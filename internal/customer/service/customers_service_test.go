package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
)

type mockRepository struct {
	FindAllFunc           func(ctx context.Context) ([]domain.Customer, error)
	FindByIDFunc          func(ctx context.Context, id int) (*domain.Customer, error)
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id int) (*domain.Customer, error)
	CreateFunc            func(ctx context.Context, c *domain.Customer) error
	UpdateFunc            func(ctx context.Context, tx *sql.Tx, c domain.Customer) error
	DeleteFunc            func(ctx context.Context, id int) error
	HasOrdersFunc         func(ctx context.Context, id int) (bool, error)
}

func (m *mockRepository) FindAll(ctx context.Context) ([]domain.Customer, error) {
	return m.FindAllFunc(ctx)
}

func (m *mockRepository) FindByID(ctx context.Context, id int) (*domain.Customer, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Customer, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockRepository) Create(ctx context.Context, c *domain.Customer) error {
	return m.CreateFunc(ctx, c)
}

func (m *mockRepository) Update(ctx context.Context, tx *sql.Tx, c domain.Customer) error {
	return m.UpdateFunc(ctx, tx, c)
}

func (m *mockRepository) Delete(ctx context.Context, id int) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockRepository) HasOrders(ctx context.Context, id int) (bool, error) {
	return m.HasOrdersFunc(ctx, id)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo Repository) (*CustomerService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(db, repo, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func TestCreate(t *testing.T) {
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, c *domain.Customer) error {
			assert.Equal(t, fixedNow, c.CreatedAt)
			c.ID = 4
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	c, err := svc.Create(context.Background(), dto.CreateCustomerRequest{FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com"})

	require.NoError(t, err)
	assert.Equal(t, 4, c.ID)
}

func TestUpdate_OnlyPresentFieldsOverwrite(t *testing.T) {
	phone := "555"
	repo := &mockRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Customer, error) {
			return &domain.Customer{ID: id, FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com", Phone: &phone}, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, c domain.Customer) error {
			assert.Equal(t, "Ana", c.FirstName)
			assert.Equal(t, "new@example.com", c.Email)
			assert.Equal(t, &phone, c.Phone)
			require.NotNil(t, c.UpdatedAt)
			assert.Equal(t, fixedNow, *c.UpdatedAt)
			return nil
		},
	}
	svc, mock := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectCommit()

	email := "new@example.com"
	_, err := svc.Update(context.Background(), 4, dto.UpdateCustomerRequest{Email: &email})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Customer, error) {
			return nil, errors.NewNotFoundError("Customer not found")
		},
	}
	svc, mock := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 4, dto.UpdateCustomerRequest{})

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_WithOrdersRefused(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id int) (*domain.Customer, error) {
			return &domain.Customer{ID: id}, nil
		},
		HasOrdersFunc: func(ctx context.Context, id int) (bool, error) { return true, nil },
		DeleteFunc: func(ctx context.Context, id int) error {
			t.Fatal("delete must not run")
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	err := svc.Delete(context.Background(), 4)

	_, ok := errors.IsConflictError(err)
	assert.True(t, ok)
}

func TestDelete_Success(t *testing.T) {
	deleted := false
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id int) (*domain.Customer, error) {
			return &domain.Customer{ID: id}, nil
		},
		HasOrdersFunc: func(ctx context.Context, id int) (bool, error) { return false, nil },
		DeleteFunc: func(ctx context.Context, id int) error {
			deleted = true
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	require.NoError(t, svc.Delete(context.Background(), 4))
	assert.True(t, deleted)
}
