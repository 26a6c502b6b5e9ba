package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"minierp/internal/auth/session"
	"minierp/internal/commons"
	"minierp/internal/domain"
	"minierp/internal/dto"
	apperrors "minierp/internal/errors"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 128
)

type OrderUseCase interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int, status string) (domain.OrderStatus, error)
	DeleteOrder(ctx context.Context, id int) error
}

type IdempotencyGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type OrdersController struct {
	useCase OrderUseCase
	guard   IdempotencyGuard
	logger  *zap.Logger
}

func NewOrdersController(useCase OrderUseCase, guard IdempotencyGuard, logger *zap.Logger) *OrdersController {
	return &OrdersController{
		useCase: useCase,
		guard:   guard,
		logger:  logger,
	}
}

func (c *OrdersController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	// Decode request body
	var req dto.CreateOrderRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	// Validate request
	if err := c.validateCreateOrderRequest(req); err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	// Claim the idempotency key, if any
	key, err := c.idempotencyKey(r)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}
	if key != "" {
		claimed, err := c.guard.Claim(r.Context(), key)
		if err != nil {
			logger.Warn("idempotency guard unavailable, continuing without it", zap.Error(err))
			key = ""
		} else if !claimed {
			logger.Info("duplicate order submission", zap.String("idempotencyKey", key))
			commons.WriteError(w, logger, traceID, http.StatusConflict, "DUPLICATE_REQUEST", "A request with this Idempotency-Key was already submitted")
			return
		}
	}

	// Call use case
	order, err := c.useCase.CreateOrder(r.Context(), req)
	if err != nil {
		if key != "" {
			if relErr := c.guard.Release(context.WithoutCancel(r.Context()), key); relErr != nil {
				logger.Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
		c.handleCreateError(w, traceID, err, logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/orders/%d", order.ID))
	commons.WriteJSON(w, logger, http.StatusCreated, dto.NewOrderResponse(*order))
}

func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	orders, err := c.useCase.ListOrders(r.Context())
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewOrderResponses(orders))
}

func (c *OrdersController) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	order, err := c.useCase.GetOrder(r.Context(), id)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewOrderResponse(*order))
}

func (c *OrdersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	status, err := c.useCase.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, commons.MessageResponse{
		Message: fmt.Sprintf("Order status updated to %s", status),
	})
}

func (c *OrdersController) Delete(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	if err := c.useCase.DeleteOrder(r.Context(), id); err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, commons.MessageResponse{Message: "Order deleted successfully"})
}

// idempotencyKey scopes the client key by user so two users cannot collide.
func (c *OrdersController) idempotencyKey(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if raw == "" {
		return "", nil
	}
	if len(raw) > maxIdempotencyKey {
		return "", apperrors.NewValidationError("invalid Idempotency-Key", apperrors.ValidationDetail{
			Field:   idempotencyHeader,
			Message: "Idempotency-Key must not exceed 128 characters",
		})
	}

	userID := "anonymous"
	if p, ok := session.FromContext(r.Context()); ok {
		userID = p.UserID
	}
	return userID + ":" + raw, nil
}

func (c *OrdersController) validateCreateOrderRequest(req dto.CreateOrderRequest) error {
	var details []apperrors.ValidationDetail

	// Validate customerId
	if req.CustomerID <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "customerId",
			Message: "Customer ID must be a positive integer",
		})
	}

	// Validate orderItems is not empty
	if len(req.OrderItems) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "orderItems",
			Message: "Order must contain at least one item",
		})
	}

	// Validate each item; duplicates are allowed and share the product's stock
	for idx, item := range req.OrderItems {
		if item.ProductID <= 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "orderItems[" + strconv.Itoa(idx) + "].productId",
				Message: "Product ID must be a positive integer",
			})
		}

		// Stock is the only upper bound.
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "orderItems[" + strconv.Itoa(idx) + "].quantity",
				Message: "Quantity must be at least 1",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}

// handleCreateError reports a missing customer or product as a bad request:
// the client referenced it in the body.
func (c *OrdersController) handleCreateError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		logger.Info("order rejected", zap.Error(err))
		commons.WriteError(w, logger, traceID, http.StatusBadRequest, "NOT_FOUND", err.Error())
		return
	}

	if _, ok := apperrors.IsInsufficientStockError(err); ok {
		logger.Info("order rejected", zap.Error(err))
	}

	commons.WriteAppError(w, logger, traceID, err)
}
