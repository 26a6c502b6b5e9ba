package service

import (
	"context"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
)

const minPasswordLength = 6

type UserRepository interface {
	Create(ctx context.Context, u domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type TokenIssuer interface {
	Issue(user domain.User) (string, time.Time, error)
}

type AuthService struct {
	users      UserRepository
	issuer     TokenIssuer
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users UserRepository, issuer TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		issuer:     issuer,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account with the given roles, User when none is given.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest, roles ...string) (*domain.User, error) {
	if details := ValidatePassword(req.Password); len(details) > 0 {
		return nil, errors.NewValidationError("validation failed", details...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Roles:        roles,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("userId", user.ID), zap.Strings("roles", roles))
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if _, ok := errors.IsNotFoundError(err); ok {
			s.logger.Warn("login failed, unknown email")
			return nil, errors.NewUnauthorizedError("Invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login failed, wrong password", zap.String("userId", user.ID))
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	token, expiresAt, err := s.issuer.Issue(*user)
	if err != nil {
		return nil, errors.NewInternalError("failed to issue token", err)
	}

	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.Roles,
	}, nil
}

func ValidatePassword(password string) []errors.ValidationDetail {
	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSymbol = true
		}
	}

	var details []errors.ValidationDetail
	add := func(msg string) {
		details = append(details, errors.ValidationDetail{Field: "password", Message: msg})
	}
	if len([]rune(password)) < minPasswordLength {
		add("Passwords must be at least 6 characters.")
	}
	if !hasDigit {
		add("Passwords must have at least one digit ('0'-'9').")
	}
	if !hasLower {
		add("Passwords must have at least one lowercase ('a'-'z').")
	}
	if !hasUpper {
		add("Passwords must have at least one uppercase ('A'-'Z').")
	}
	if !hasSymbol {
		add("Passwords must have at least one non alphanumeric character.")
	}
	return details
}
