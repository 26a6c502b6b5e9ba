package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type Repository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id int) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, tx *sql.Tx, p domain.Product) error
	Delete(ctx context.Context, id int) error
	IsReferenced(ctx context.Context, id int) (bool, error)
}

type ProductService struct {
	db     TransactionManager
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db TransactionManager, repo Repository, logger *zap.Logger) *ProductService {
	return &ProductService{
		db:     db,
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindAll(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*domain.Product, error) {
	p := req.ToDomain()
	p.CreatedAt = s.now()

	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.Int("productId", p.ID))
	return &p, nil
}

// Update re-reads the row under lock so a reservation committed in between
// is not overwritten by a stale stock value.
func (s *ProductService) Update(ctx context.Context, id int, req dto.UpdateProductRequest) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			return nil, errors.NewNotFoundError("Product not found")
		}
		return nil, err
	}

	req.ApplyTo(current)
	at := s.now()
	current.UpdatedAt = &at

	if err := s.repo.Update(ctx, tx, *current); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Int("productId", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("product updated", zap.Int("productId", id))
	return current, nil
}

func (s *ProductService) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		s.logger.Warn("product delete refused, referenced by orders", zap.Int("productId", id))
		return errors.NewConflictError("Cannot delete product. It is referenced in one or more orders.").
			WithSuggestion("Consider marking the product as inactive instead of deleting it.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("product deleted", zap.Int("productId", id))
	return nil
}
