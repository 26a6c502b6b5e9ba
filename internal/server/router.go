package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authcontroller "minierp/internal/auth/controller"
	"minierp/internal/auth/session"
	"minierp/internal/commons"
	customercontroller "minierp/internal/customer/controller"
	"minierp/internal/domain"
	ordercontroller "minierp/internal/order/controller"
	productcontroller "minierp/internal/product/controller"
)

const requestTimeout = 30 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Auth      *authcontroller.AuthController
	Customers *customercontroller.Controller
	Products  *productcontroller.Controller
	Orders    *ordercontroller.OrdersController
}

func NewRouter(h Handlers, tokens session.TokenParser, db Pinger, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", health(db, logger))

	writers := session.RequireRoles(logger, domain.RoleAdmin, domain.RoleUser)
	admins := session.RequireRoles(logger, domain.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(session.Authenticate(tokens, logger))

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", h.Customers.List)
				r.Get("/{id}", h.Customers.Get)
				r.With(writers).Post("/", h.Customers.Create)
				r.With(writers).Put("/{id}", h.Customers.Update)
				r.With(admins).Delete("/{id}", h.Customers.Delete)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Products.List)
				r.Get("/{id}", h.Products.Get)
				r.With(admins).Post("/", h.Products.Create)
				r.With(admins).Put("/{id}", h.Products.Update)
				r.With(admins).Delete("/{id}", h.Products.Delete)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.List)
				r.Get("/{id}", h.Orders.Get)
				r.With(writers).Post("/", h.Orders.Create)
				r.With(writers).Patch("/{id}/status", h.Orders.UpdateStatus)
				r.With(admins).Delete("/{id}", h.Orders.Delete)
			})
		})
	})

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check failed", zap.Error(err))
			commons.WriteJSON(w, logger, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "unreachable"})
			return
		}

		commons.WriteJSON(w, logger, http.StatusOK, healthResponse{Status: "healthy", Database: "ok"})
	}
}
