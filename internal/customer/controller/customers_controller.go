package controller

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"minierp/internal/commons"
	"minierp/internal/domain"
	"minierp/internal/dto"
	apperrors "minierp/internal/errors"
)

type CustomerService interface {
	List(ctx context.Context) ([]domain.Customer, error)
	Get(ctx context.Context, id int) (*domain.Customer, error)
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*domain.Customer, error)
	Update(ctx context.Context, id int, req dto.UpdateCustomerRequest) (*domain.Customer, error)
	Delete(ctx context.Context, id int) error
}

type Controller struct {
	service CustomerService
	logger  *zap.Logger
}

func NewController(service CustomerService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	customers, err := c.service.List(r.Context())
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewCustomerResponses(customers))
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	customer, err := c.service.Get(r.Context(), id)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewCustomerResponse(*customer))
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	var req dto.CreateCustomerRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	var details []apperrors.ValidationDetail
	details = append(details, requiredText("firstName", "First name", req.FirstName, 100)...)
	details = append(details, requiredText("lastName", "Last name", req.LastName, 100)...)
	details = append(details, validateEmail(req.Email)...)
	details = append(details, optionalText("phone", "Phone", req.Phone, 20)...)
	details = append(details, optionalText("address", "Address", req.Address, 200)...)
	if len(details) > 0 {
		commons.WriteAppError(w, logger, traceID, apperrors.NewValidationError("validation failed", details...))
		return
	}

	customer, err := c.service.Create(r.Context(), req)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/customers/%d", customer.ID))
	commons.WriteJSON(w, logger, http.StatusCreated, dto.NewCustomerResponse(*customer))
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	id, err := commons.ParseIDParam(r, "id")
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	var req dto.UpdateCustomerRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	var details []apperrors.ValidationDetail
	if req.FirstName != nil {
		details = append(details, requiredText("firstName", "First name", *req.FirstName, 100)...)
	}
	if req.LastName != nil {
		details = append(details, requiredText("lastName", "Last name", *req.LastName, 100)...)
	}
	if req.Email != nil {
		details = append(details, validateEmail(*req.Email)...)
	}
	details = append(details, optionalText("phone", "Phone", req.Phone, 20)...)
	details = append(details, optionalText("address", "Address", req.Address, 200)...)
	if len(details) > 0 {
		commons.WriteAppError(w, logger, traceID, apperrors.NewValidationError("validation failed", details...))
		return
	}

	customer, err := c.service.Update(r.Context(), id, req)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, dto.NewCustomerResponse(*customer))
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

	commons.WriteJSON(w, logger, http.StatusOK, commons.MessageResponse{Message: "Customer deleted successfully"})
}

func requiredText(field, label, value string, max int) []apperrors.ValidationDetail {
	if strings.TrimSpace(value) == "" {
		return []apperrors.ValidationDetail{{Field: field, Message: label + " is required"}}
	}
	if utf8.RuneCountInString(value) > max {
		return []apperrors.ValidationDetail{{Field: field, Message: fmt.Sprintf("%s cannot exceed %d characters", label, max)}}
	}
	return nil
}

func optionalText(field, label string, value *string, max int) []apperrors.ValidationDetail {
	if value != nil && utf8.RuneCountInString(*value) > max {
		return []apperrors.ValidationDetail{{Field: field, Message: fmt.Sprintf("%s cannot exceed %d characters", label, max)}}
	}
	return nil
}

// validateEmail accepts a bare address only, no display name.
func validateEmail(email string) []apperrors.ValidationDetail {
	if strings.TrimSpace(email) == "" {
		return []apperrors.ValidationDetail{{Field: "email", Message: "Email is required"}}
	}
	if utf8.RuneCountInString(email) > 100 {
		return []apperrors.ValidationDetail{{Field: "email", Message: "Email cannot exceed 100 characters"}}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return []apperrors.ValidationDetail{{Field: "email", Message: "Invalid email format"}}
	}
	return nil
}
