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

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest, roles ...string) (*domain.User, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
}

type AuthController struct {
	service AuthService
	logger  *zap.Logger
}

func NewAuthController(service AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{
		service: service,
		logger:  logger,
	}
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	var req dto.RegisterRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	var details []apperrors.ValidationDetail
	details = append(details, validateEmail(req.Email)...)
	if req.Password == "" {
		details = append(details, apperrors.ValidationDetail{Field: "password", Message: "Password is required"})
	}
	details = append(details, requiredText("firstName", "First name", req.FirstName, 100)...)
	details = append(details, requiredText("lastName", "Last name", req.LastName, 100)...)
	if len(details) > 0 {
		commons.WriteAppError(w, logger, traceID, apperrors.NewValidationError("validation failed", details...))
		return
	}

	if _, err := c.service.Register(r.Context(), req); err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, commons.MessageResponse{Message: "User registered successfully"})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.TraceLogger(c.logger)

	var req dto.LoginRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	var details []apperrors.ValidationDetail
	if strings.TrimSpace(req.Email) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "email", Message: "Email is required"})
	}
	if req.Password == "" {
		details = append(details, apperrors.ValidationDetail{Field: "password", Message: "Password is required"})
	}
	if len(details) > 0 {
		commons.WriteAppError(w, logger, traceID, apperrors.NewValidationError("validation failed", details...))
		return
	}

	resp, err := c.service.Login(r.Context(), req)
	if err != nil {
		commons.WriteAppError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
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

func validateEmail(email string) []apperrors.ValidationDetail {
	if strings.TrimSpace(email) == "" {
		return []apperrors.ValidationDetail{{Field: "email", Message: "Email is required"}}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return []apperrors.ValidationDetail{{Field: "email", Message: "Invalid email format"}}
	}
	return nil
}
