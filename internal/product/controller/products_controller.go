package controller

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"minierp/internal/commons"
	"minierp/internal/domain"
	"minierp/internal/dto"
	apperrors "minierp/internal/errors"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
	maxSKULength         = 50
)

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int) (*domain.Product, error)
	Create(ctx context.Context, req dto.CreateProductRequest) (*domain.Product, error)
	Update(ctx context.Context, id int, req dto.UpdateProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, id int) error
}

type Controller struct {
	service ProductService
	logger  *zap.Logger
}

func NewController(service ProductService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	products, err := c.service.List(r.Context())
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewProductResponses(products))
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	product, err := c.service.Get(r.Context(), id)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewProductResponse(*product))
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	var req dto.CreateProductRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	if err := c.validateCreateRequest(req); err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	product, err := c.service.Create(r.Context(), req)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/products/%d", product.ID))
	commons.WriteJSON(w, logger, http.StatusCreated, dto.NewProductResponse(*product))
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	var req dto.UpdateProductRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	if err := c.validateUpdateRequest(req); err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	product, err := c.service.Update(r.Context(), id, req)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewProductResponse(*product))
}

func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	if err := c.service.Delete(r.Context(), id); err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, commons.MessageResponse{Message: "Product deleted successfully"})
}

func (c *Controller) validateCreateRequest(req dto.CreateProductRequest) error {
	var details []apperrors.ValidationDetail

	if strings.TrimSpace(req.Name) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "Product name is required"})
	} else if utf8.RuneCountInString(req.Name) > maxNameLength {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "Product name cannot exceed 100 characters"})
	}

	details = append(details, validateOptionalFields(req.Description, req.SKU)...)
	details = append(details, validatePrice(req.Price)...)

	if req.StockQuantity < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "stockQuantity", Message: "Stock quantity cannot be negative"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func (c *Controller) validateUpdateRequest(req dto.UpdateProductRequest) error {
	var details []apperrors.ValidationDetail

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			details = append(details, apperrors.ValidationDetail{Field: "name", Message: "Product name cannot be empty"})
		} else if utf8.RuneCountInString(*req.Name) > maxNameLength {
			details = append(details, apperrors.ValidationDetail{Field: "name", Message: "Product name cannot exceed 100 characters"})
		}
	}

	details = append(details, validateOptionalFields(req.Description, req.SKU)...)

	if req.Price != nil {
		details = append(details, validatePrice(*req.Price)...)
	}

	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "stockQuantity", Message: "Stock quantity cannot be negative"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func validateOptionalFields(description, sku *string) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		details = append(details, apperrors.ValidationDetail{Field: "description", Message: "Description cannot exceed 500 characters"})
	}
	if sku != nil && utf8.RuneCountInString(*sku) > maxSKULength {
		details = append(details, apperrors.ValidationDetail{Field: "sku", Message: "SKU cannot exceed 50 characters"})
	}
	return details
}

// DECIMAL(18,2): positive, two fractional digits at most.
func validatePrice(price decimal.Decimal) []apperrors.ValidationDetail {
	if !price.IsPositive() {
		return []apperrors.ValidationDetail{{Field: "price", Message: "Price must be greater than 0"}}
	}
	if !price.Equal(price.Round(2)) || price.GreaterThanOrEqual(decimal.New(1, 16)) {
		return []apperrors.ValidationDetail{{Field: "price", Message: "Price must have at most 16 integer digits and 2 decimals"}}
	}
	return nil
}
