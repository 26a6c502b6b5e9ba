package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
)

type UserRegistrar interface {
	Register(ctx context.Context, req dto.RegisterRequest, roles ...string) (*domain.User, error)
}

type CustomerStore interface {
	Create(ctx context.Context, c *domain.Customer) error
}

type ProductStore interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
}

type Result struct {
	Created int
	Skipped int
}

type Seeder struct {
	users     UserRegistrar
	customers CustomerStore
	products  ProductStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewSeeder(users UserRegistrar, customers CustomerStore, products ProductStore, logger *zap.Logger) *Seeder {
	return &Seeder{
		users:     users,
		customers: customers,
		products:  products,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply inserts every fixture that does not exist yet. Users and customers are
// matched by email through the unique key, products by SKU or, without one, by
// name.
func (s *Seeder) Apply(ctx context.Context, fx *Fixtures) (Result, error) {
	var res Result

	for _, u := range fx.Users {
		_, err := s.users.Register(ctx, u.toRequest(), u.Roles...)
		if err := s.count(&res, err, "user", u.Email); err != nil {
			return res, err
		}
	}

	for _, c := range fx.Customers {
		customer := c.toDomain()
		customer.CreatedAt = s.now()
		err := s.customers.Create(ctx, &customer)
		if err := s.count(&res, err, "customer", c.Email); err != nil {
			return res, err
		}
	}

	existing, err := s.products.FindAll(ctx)
	if err != nil {
		return res, fmt.Errorf("listing products: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}

	for _, p := range fx.Products {
		if p.SKU == nil && names[p.Name] {
			res.Skipped++
			s.logger.Info("product already present, skipped", zap.String("name", p.Name))
			continue
		}
		product := p.toDomain()
		product.CreatedAt = s.now()
		err := s.products.Create(ctx, &product)
		if err := s.count(&res, err, "product", p.Name); err != nil {
			return res, err
		}
		names[p.Name] = true
	}

	return res, nil
}

func (s *Seeder) count(res *Result, err error, kind, key string) error {
	if err == nil {
		res.Created++
		s.logger.Info("seeded", zap.String("kind", kind), zap.String("key", key))
		return nil
	}
	if _, ok := errors.IsConflictError(err); ok {
		res.Skipped++
		s.logger.Info("already present, skipped", zap.String("kind", kind), zap.String("key", key))
		return nil
	}
	return fmt.Errorf("seeding %s %s: %w", kind, key, err)
}
