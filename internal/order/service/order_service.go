package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
	"minierp/internal/inventory"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type StockLedger interface {
	Lock(ctx context.Context, tx *sql.Tx, productIDs []int) (*inventory.Snapshot, error)
	Reserve(ctx context.Context, tx *sql.Tx, snap *inventory.Snapshot, productID int, quantity int) error
	Release(ctx context.Context, tx *sql.Tx, productID int, quantity int) error
}

type OrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	LockByID(ctx context.Context, tx *sql.Tx, id int) error
	Delete(ctx context.Context, tx *sql.Tx, id int) error
}

type OrderItemRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (int, error)
	FindByOrderID(ctx context.Context, tx *sql.Tx, orderID int) ([]domain.OrderItem, error)
}

type OrderService struct {
	db            TransactionManager
	ledger        StockLedger
	orderRepo     OrderRepository
	orderItemRepo OrderItemRepository
	logger        *zap.Logger
	txTimeout     time.Duration
	now           func() time.Time
	orderNumber   func(at time.Time) string
}

func NewOrderService(
	db TransactionManager,
	ledger StockLedger,
	orderRepo OrderRepository,
	orderItemRepo OrderItemRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
) *OrderService {
	return &OrderService{
		db:            db,
		ledger:        ledger,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		logger:        logger,
		txTimeout:     txTimeout,
		now:           func() time.Time { return time.Now().UTC() },
		orderNumber:   NewOrderNumber,
	}
}

// NewOrderNumber formats ORD-<yyyyMMddHHmmss UTC>-<6 hex>.
func NewOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102150405"), suffix)
}

// PlaceOrder validates stock and persists the order graph in one transaction.
// Lines are processed in request order so the first failing line is the one
// reported; any error leaves stock and orders untouched.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID int, lines []dto.OrderLine) (*domain.Order, error) {
	startedAt := s.now()

	// Bloque 1: Iniciar transacción con timeout
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	// Bloque 2: Bloquear productos (orden ascendente)
	productIDs := make([]int, len(lines))
	for i, line := range lines {
		productIDs[i] = line.ProductID
	}

	snap, err := s.ledger.Lock(txCtx, tx, productIDs)
	if err != nil {
		s.logger.Error("failed to lock products", zap.Error(err))
		return nil, err
	}

	// Bloque 3: Reservar stock línea por línea
	order := &domain.Order{
		CustomerID:  customerID,
		OrderNumber: s.orderNumber(startedAt),
		OrderDate:   startedAt,
		Status:      domain.OrderStatusPending,
		CreatedAt:   startedAt,
	}

	for _, line := range lines {
		product, err := snap.Lookup(line.ProductID)
		if err != nil {
			s.logger.Warn("transaction rolled back (product not found)", zap.Int("productId", line.ProductID))
			return nil, err
		}

		if err := s.ledger.Reserve(txCtx, tx, snap, line.ProductID, line.Quantity); err != nil {
			s.logger.Warn("transaction rolled back (reservation failed)", zap.Int("productId", line.ProductID), zap.Int("quantity", line.Quantity), zap.Error(err))
			return nil, err
		}

		order.Items = append(order.Items, domain.NewOrderItem(product, line.Quantity))
	}
	order.TotalAmount = order.ComputeTotal()
	if order.ExceedsMaxAmount() {
		s.logger.Warn("transaction rolled back (amount out of range)", zap.String("totalAmount", order.TotalAmount.String()))
		return nil, errors.NewValidationError("Order total exceeds the maximum amount", errors.ValidationDetail{
			Field:   "orderItems",
			Message: "Order total cannot exceed " + domain.MaxAmount.StringFixed(2),
		})
	}

	// Bloque 4: Persistir orden e items, commit
	if err := s.insertOrder(txCtx, tx, order); err != nil {
		s.logger.Error("failed to insert order", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
		return nil, err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		id, err := s.orderItemRepo.Insert(txCtx, tx, order.Items[i])
		if err != nil {
			s.logger.Error("failed to insert order item", zap.Int("orderId", order.ID), zap.Int("productId", order.Items[i].ProductID), zap.Error(err))
			return nil, err
		}
		order.Items[i].ID = id
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Int("orderId", order.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("transaction committed",
		zap.Int("orderId", order.ID),
		zap.String("orderNumber", order.OrderNumber),
		zap.Int("itemCount", len(order.Items)),
		zap.String("totalAmount", order.TotalAmount.StringFixed(2)),
	)

	return order, nil
}

// insertOrder draws a fresh order number once when the first one is taken.
// A duplicate key only rolls back the statement, so tx stays usable.
func (s *OrderService) insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	err := s.orderRepo.Insert(ctx, tx, order)
	if _, ok := errors.IsConflictError(err); !ok {
		return err
	}

	s.logger.Warn("order number collision, regenerating", zap.String("orderNumber", order.OrderNumber))
	order.OrderNumber = s.orderNumber(order.OrderDate)
	return s.orderRepo.Insert(ctx, tx, order)
}

// DeleteOrder returns every line's quantity to stock and removes the order,
// whatever its status.
func (s *OrderService) DeleteOrder(ctx context.Context, id int) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.orderRepo.LockByID(txCtx, tx, id); err != nil {
		return err
	}

	items, err := s.orderItemRepo.FindByOrderID(txCtx, tx, id)
	if err != nil {
		s.logger.Error("failed to read order items", zap.Int("orderId", id), zap.Error(err))
		return err
	}

	// Same ascending product order as PlaceOrder.
	for _, r := range releasesByProduct(items) {
		if err := s.ledger.Release(txCtx, tx, r.productID, r.quantity); err != nil {
			s.logger.Error("failed to release stock", zap.Int("orderId", id), zap.Int("productId", r.productID), zap.Error(err))
			return err
		}
	}

	if err := s.orderRepo.Delete(txCtx, tx, id); err != nil {
		s.logger.Error("failed to delete order", zap.Int("orderId", id), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Int("orderId", id), zap.Error(err))
		return err
	}

	s.logger.Info("order deleted, stock restored", zap.Int("orderId", id), zap.Int("itemCount", len(items)))
	return nil
}

type release struct {
	productID int
	quantity  int
}

func releasesByProduct(items []domain.OrderItem) []release {
	totals := make(map[int]int, len(items))
	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}

	out := make([]release, 0, len(totals))
	for productID, quantity := range totals {
		out = append(out, release{productID: productID, quantity: quantity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productID < out[j].productID })
	return out
}
