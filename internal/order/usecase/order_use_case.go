package usecase

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"minierp/internal/domain"
	"minierp/internal/dto"
	dtoerrors "minierp/internal/errors"
	mysqlinfra "minierp/internal/infrastructure/mysql"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID int, lines []dto.OrderLine) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int) error
}

type OrderRepository interface {
	FindByID(ctx context.Context, id int) (*domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status domain.OrderStatus, at time.Time) error
}

type CustomerRepository interface {
	FindByID(ctx context.Context, id int) (*domain.Customer, error)
}

type OrderUseCase struct {
	orderRepo        OrderRepository
	customerRepo     CustomerRepository
	orderSvc         OrderService
	logger           *zap.Logger
	maxRetryAttempts int
	retryBaseDelay   time.Duration
	now              func() time.Time
}

func NewOrderUseCase(
	orderRepo OrderRepository,
	customerRepo CustomerRepository,
	orderSvc OrderService,
	logger *zap.Logger,
	maxRetryAttempts int,
	retryBaseDelay time.Duration,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:        orderRepo,
		customerRepo:     customerRepo,
		orderSvc:         orderSvc,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		retryBaseDelay:   retryBaseDelay,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (uc *OrderUseCase) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*domain.Order, error) {
	lines := req.Lines()

	// Bloque 1: Logging de inicio
	uc.logger.Info("create order started", zap.Int("customerId", req.CustomerID), zap.Int("lineCount", len(lines)))

	if len(lines) == 0 {
		return nil, dtoerrors.NewValidationError("validation failed", dtoerrors.ValidationDetail{
			Field:   "orderItems",
			Message: "Order must contain at least one item",
		})
	}

	// Bloque 2: Pre-validaciones (fuera de transacción)
	if _, err := uc.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		if _, ok := dtoerrors.IsNotFoundError(err); ok {
			return nil, dtoerrors.NewNotFoundError("Customer not found")
		}
		return nil, err
	}

	// Bloque 3: Llamar service con retry
	var placed *domain.Order
	err := uc.withRetry(ctx, "create order", func() error {
		var err error
		placed, err = uc.orderSvc.PlaceOrder(ctx, req.CustomerID, lines)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Bloque 4: Releer el agregado con nombres
	order, err := uc.orderRepo.FindByID(ctx, placed.ID)
	if err != nil {
		uc.logger.Error("failed to reload created order", zap.Int("orderId", placed.ID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("order created", zap.Int("orderId", order.ID), zap.String("orderNumber", order.OrderNumber))
	return order, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	return uc.orderRepo.FindByID(ctx, id)
}

func (uc *OrderUseCase) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return uc.orderRepo.FindAll(ctx)
}

// UpdateStatus sets any of the known statuses; stock is not touched.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, id int, raw string) (domain.OrderStatus, error) {
	status, ok := domain.ParseOrderStatus(raw)
	if !ok {
		return "", dtoerrors.NewValidationError("Invalid status. Must be one of: Pending, Completed, Cancelled", dtoerrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of: Pending, Completed, Cancelled",
		})
	}

	if err := uc.orderRepo.UpdateStatus(ctx, id, status, uc.now()); err != nil {
		return "", err
	}

	uc.logger.Info("order status updated", zap.Int("orderId", id), zap.String("status", string(status)))
	return status, nil
}

func (uc *OrderUseCase) DeleteOrder(ctx context.Context, id int) error {
	return uc.withRetry(ctx, "delete order", func() error {
		return uc.orderSvc.DeleteOrder(ctx, id)
	})
}

// withRetry re-runs fn on deadlock or lock wait timeout with jittered
// exponential backoff: base, 2*base, 4*base, each +-20%.
func (uc *OrderUseCase) withRetry(ctx context.Context, op string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !mysqlinfra.IsDeadlock(err) {
			return err
		}

		if attempt >= uc.maxRetryAttempts {
			uc.logger.Error("deadlock retries exhausted", zap.String("op", op), zap.Int("attempts", attempt), zap.Error(err))
			return dtoerrors.NewDeadlockError("max retries exceeded")
		}

		delay := uc.backoff(attempt)
		uc.logger.Warn("deadlock detected, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.Duration("backoff", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (uc *OrderUseCase) backoff(attempt int) time.Duration {
	base := uc.retryBaseDelay << (attempt - 1)
	jitter := 0.8 + rand.Float64()*0.4
	return time.Duration(float64(base) * jitter)
}
