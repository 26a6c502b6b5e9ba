package auth

import (
	"database/sql"

	"go.uber.org/zap"

	"minierp/internal/auth/controller"
	"minierp/internal/auth/repository"
	"minierp/internal/auth/service"
	"minierp/internal/auth/token"
	"minierp/internal/config"
)

type Module struct {
	Controller *controller.AuthController
	Service    *service.AuthService
	Tokens     *token.Issuer
}

func NewModule(db *sql.DB, cfg config.JWTConfig, logger *zap.Logger) *Module {
	issuer := token.NewIssuer(cfg)
	svc := service.NewAuthService(repository.NewMySQLUserRepository(db), issuer, logger)
	return &Module{
		Controller: controller.NewAuthController(svc, logger),
		Service:    svc,
		Tokens:     issuer,
	}
}
