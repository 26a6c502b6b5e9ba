package order

import (
	"database/sql"

	"go.uber.org/zap"

	"minierp/internal/config"
	customerrepo "minierp/internal/customer/repository"
	"minierp/internal/inventory"
	"minierp/internal/order/controller"
	orderrepo "minierp/internal/order/repository"
	"minierp/internal/order/service"
	"minierp/internal/order/usecase"
	productrepo "minierp/internal/product/repository"
)

func NewModule(db *sql.DB, cfg config.OrderConfig, guard controller.IdempotencyGuard, logger *zap.Logger) *controller.OrdersController {
	return controller.NewOrdersController(newUseCase(db, cfg, logger), guard, logger)
}

func newUseCase(db *sql.DB, cfg config.OrderConfig, logger *zap.Logger) *usecase.OrderUseCase {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	orderItemRepo := orderrepo.NewMySQLOrderItemRepository(db)
	customerRepo := customerrepo.NewMySQLRepository(db)
	ledger := inventory.NewLedger(productrepo.NewMySQLRepository(db))

	orderSvc := service.NewOrderService(
		db,
		ledger,
		orderRepo,
		orderItemRepo,
		logger,
		cfg.TxTimeout,
	)

	return usecase.NewOrderUseCase(
		orderRepo,
		customerRepo,
		orderSvc,
		logger,
		cfg.MaxRetryAttempts,
		cfg.RetryBaseDelay,
	)
}
