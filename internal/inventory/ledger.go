// Package inventory owns every stock mutation. Stock is read and written on the
// product row inside the caller's transaction; nothing is cached in process.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"minierp/internal/domain"
	"minierp/internal/errors"
)

type StockRepository interface {
	FindByIDsForUpdate(ctx context.Context, tx *sql.Tx, ids []int) ([]domain.Product, error)
	DecrementStock(ctx context.Context, tx *sql.Tx, productID int, quantity int, at time.Time) (bool, error)
	IncrementStock(ctx context.Context, tx *sql.Tx, productID int, quantity int, at time.Time) error
}

// Snapshot holds the rows locked by Lock, with stock kept current as
// reservations are made against it.
type Snapshot struct {
	products map[int]domain.Product
}

func (s *Snapshot) Lookup(productID int) (domain.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Product with ID %d not found", productID))
	}
	return p, nil
}

func (s *Snapshot) Len() int {
	return len(s.products)
}

type Ledger struct {
	repo StockRepository
	now  func() time.Time
}

func NewLedger(repo StockRepository) *Ledger {
	return &Ledger{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Lock takes row locks on the distinct products in ascending id order.
func (l *Ledger) Lock(ctx context.Context, tx *sql.Tx, productIDs []int) (*Snapshot, error) {
	seen := make(map[int]struct{}, len(productIDs))
	distinct := make([]int, 0, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	products, err := l.repo.FindByIDsForUpdate(ctx, tx, distinct)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{products: make(map[int]domain.Product, len(products))}
	for _, p := range products {
		snap.products[p.ID] = p
	}
	return snap, nil
}

// Reserve takes quantity units of a locked product. Lines for the same product
// draw on the same remaining stock.
func (l *Ledger) Reserve(ctx context.Context, tx *sql.Tx, snap *Snapshot, productID int, quantity int) error {
	if quantity < 1 {
		return errors.NewValidationError("validation failed", errors.ValidationDetail{
			Field:   "quantity",
			Message: "Quantity must be at least 1",
		})
	}

	p, err := snap.Lookup(productID)
	if err != nil {
		return err
	}

	if !p.CanFulfil(quantity) {
		return errors.NewInsufficientStockError(p.ID, p.Name)
	}

	ok, err := l.repo.DecrementStock(ctx, tx, productID, quantity, l.now())
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewInsufficientStockError(p.ID, p.Name)
	}

	p.StockQuantity -= quantity
	snap.products[productID] = p
	return nil
}

// Release returns units to stock. There is no upper bound.
func (l *Ledger) Release(ctx context.Context, tx *sql.Tx, productID int, quantity int) error {
	if quantity < 1 {
		return errors.NewValidationError("validation failed", errors.ValidationDetail{
			Field:   "quantity",
			Message: "Quantity must be at least 1",
		})
	}
	return l.repo.IncrementStock(ctx, tx, productID, quantity, l.now())
}
