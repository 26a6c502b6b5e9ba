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
	FindAll(ctx context.Context) ([]domain.Customer, error)
	FindByID(ctx context.Context, id int) (*domain.Customer, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
	Update(ctx context.Context, tx *sql.Tx, c domain.Customer) error
	Delete(ctx context.Context, id int) error
	HasOrders(ctx context.Context, id int) (bool, error)
}

type CustomerService struct {
	db     TransactionManager
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db TransactionManager, repo Repository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		db:     db,
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.FindAll(ctx)
}

func (s *CustomerService) Get(ctx context.Context, id int) (*domain.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CustomerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*domain.Customer, error) {
	c := req.ToDomain()
	c.CreatedAt = s.now()

	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.Int("customerId", c.ID))
	return &c, nil
}

func (s *CustomerService) Update(ctx context.Context, id int, req dto.UpdateCustomerRequest) (*domain.Customer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(current)
	at := s.now()
	current.UpdatedAt = &at

	if err := s.repo.Update(ctx, tx, *current); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Int("customerId", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("customer updated", zap.Int("customerId", id))
	return current, nil
}

func (s *CustomerService) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	hasOrders, err := s.repo.HasOrders(ctx, id)
	if err != nil {
		return err
	}
	if hasOrders {
		s.logger.Warn("customer delete refused, has orders", zap.Int("customerId", id))
		return errors.NewConflictError("Cannot delete customer. The customer has one or more orders.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("customer deleted", zap.Int("customerId", id))
	return nil
}
