package customer

import (
	"database/sql"

	"go.uber.org/zap"

	"minierp/internal/customer/controller"
	"minierp/internal/customer/repository"
	"minierp/internal/customer/service"
)

func NewModule(db *sql.DB, logger *zap.Logger) *controller.Controller {
	repo := repository.NewMySQLRepository(db)
	svc := service.NewService(db, repo, logger)
	return controller.NewController(svc, logger)
}
