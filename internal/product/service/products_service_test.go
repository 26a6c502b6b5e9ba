package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
)

type mockRepository struct {
	FindAllFunc           func(ctx context.Context) ([]domain.Product, error)
	FindByIDFunc          func(ctx context.Context, id int) (*domain.Product, error)
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error)
	CreateFunc            func(ctx context.Context, p *domain.Product) error
	UpdateFunc            func(ctx context.Context, tx *sql.Tx, p domain.Product) error
	DeleteFunc            func(ctx context.Context, id int) error
	IsReferencedFunc      func(ctx context.Context, id int) (bool, error)
}

func (m *mockRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return m.FindAllFunc(ctx)
}

func (m *mockRepository) FindByID(ctx context.Context, id int) (*domain.Product, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockRepository) Create(ctx context.Context, p *domain.Product) error {
	return m.CreateFunc(ctx, p)
}

func (m *mockRepository) Update(ctx context.Context, tx *sql.Tx, p domain.Product) error {
	return m.UpdateFunc(ctx, tx, p)
}

func (m *mockRepository) Delete(ctx context.Context, id int) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockRepository) IsReferenced(ctx context.Context, id int) (bool, error) {
	return m.IsReferencedFunc(ctx, id)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo Repository) (*ProductService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(db, repo, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func TestCreate_StampsCreatedAt(t *testing.T) {
	repo := &mockRepository{
		CreateFunc: func(ctx context.Context, p *domain.Product) error {
			assert.Equal(t, fixedNow, p.CreatedAt)
			p.ID = 7
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	p, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name:          "Widget",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "Widget", p.Name)
}

func TestUpdate_AppliesPartialFieldsUnderLock(t *testing.T) {
	desc := "old"
	repo := &mockRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error) {
			require.NotNil(t, tx)
			return &domain.Product{ID: id, Name: "Widget", Description: &desc, Price: decimal.NewFromInt(10), StockQuantity: 2}, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, p domain.Product) error {
			assert.Equal(t, "Gadget", p.Name)
			assert.Equal(t, 2, p.StockQuantity, "stock must be the locked value")
			assert.Equal(t, "old", *p.Description)
			require.NotNil(t, p.UpdatedAt)
			assert.Equal(t, fixedNow, *p.UpdatedAt)
			return nil
		},
	}
	svc, mock := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectCommit()

	name := "Gadget"
	p, err := svc.Update(context.Background(), 3, dto.UpdateProductRequest{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Gadget", p.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFoundRollsBack(t *testing.T) {
	repo := &mockRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error) {
			return nil, errors.NewNotFoundError("Product with ID 3 not found")
		},
	}
	svc, mock := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 3, dto.UpdateProductRequest{})

	nf, ok := errors.IsNotFoundError(err)
	require.True(t, ok)
	assert.Equal(t, "Product not found", nf.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_RepositoryErrorRollsBack(t *testing.T) {
	repo := &mockRepository{
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error) {
			return &domain.Product{ID: id}, nil
		},
		UpdateFunc: func(ctx context.Context, tx *sql.Tx, p domain.Product) error {
			return errors.NewConflictError("A product with SKU 'X' already exists")
		},
	}
	svc, mock := newTestService(t, repo)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), 3, dto.UpdateProductRequest{})

	_, ok := errors.IsConflictError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Referenced(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id int) (*domain.Product, error) {
			return &domain.Product{ID: id}, nil
		},
		IsReferencedFunc: func(ctx context.Context, id int) (bool, error) {
			return true, nil
		},
		DeleteFunc: func(ctx context.Context, id int) error {
			t.Fatal("delete must not run for a referenced product")
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	err := svc.Delete(context.Background(), 1)

	ce, ok := errors.IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, "Cannot delete product. It is referenced in one or more orders.", ce.Message)
	assert.Equal(t, "Consider marking the product as inactive instead of deleting it.", ce.Suggestion)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id int) (*domain.Product, error) {
			return nil, errors.NewNotFoundError("Product not found")
		},
	}
	svc, _ := newTestService(t, repo)

	err := svc.Delete(context.Background(), 1)

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestDelete_Success(t *testing.T) {
	deleted := false
	repo := &mockRepository{
		FindByIDFunc: func(ctx context.Context, id int) (*domain.Product, error) {
			return &domain.Product{ID: id}, nil
		},
		IsReferencedFunc: func(ctx context.Context, id int) (bool, error) {
			return false, nil
		},
		DeleteFunc: func(ctx context.Context, id int) error {
			deleted = true
			return nil
		},
	}
	svc, _ := newTestService(t, repo)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.True(t, deleted)
}

func TestList_PropagatesError(t *testing.T) {
	repo := &mockRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Product, error) {
			return nil, stderrors.New("connection refused")
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.List(context.Background())
	assert.Error(t, err)
}
