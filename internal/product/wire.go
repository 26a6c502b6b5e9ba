package product

import (
	"database/sql"

	"go.uber.org/zap"

	"minierp/internal/product/controller"
	"minierp/internal/product/repository"
	"minierp/internal/product/service"
)

func NewModule(db *sql.DB, logger *zap.Logger) *controller.Controller {
	repo := repository.NewMySQLRepository(db)
	svc := service.NewService(db, repo, logger)
	return controller.NewController(svc, logger)
}
