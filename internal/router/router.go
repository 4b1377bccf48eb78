package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kainan-app/api/internal/config"
	"github.com/kainan-app/api/internal/enum"
	"github.com/kainan-app/api/internal/handler"
	mw "github.com/kainan-app/api/internal/middleware"
	"github.com/kainan-app/api/internal/service"
	"github.com/kainan-app/api/internal/store"
	"github.com/kainan-app/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *store.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",       // dashboard dev server
			"https://app.kainan.ph",       // customer app
			"https://dashboard.kainan.ph", // owner dashboard
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	r.Route("/auth", authHandler.RegisterRoutes)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services
	newOrderStore := func(db store.DBTX) service.OrderStore {
		return store.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore)
	voucherService := service.NewVoucherService(queries)
	scheduleService := service.NewScheduleService(queries)

	// Handlers
	orderHandler := handler.NewOrderHandler(orderService, queries, hub)
	menuHandler := handler.NewMenuHandler(queries)
	voucherHandler := handler.NewVoucherHandler(queries, voucherService)
	settingsHandler := handler.NewSettingsHandler(queries)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, queries)

	// Protected routes (require authentication). Each resource registers its
	// shared endpoints first, then its owner-only endpoints behind the role
	// check.
	ownerOnly := mw.RequireRole(enum.UserRoleOwner)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/menu", func(r chi.Router) {
			menuHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)
				menuHandler.RegisterOwnerRoutes(r)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)
				orderHandler.RegisterOwnerRoutes(r)
			})
		})

		r.Route("/vouchers", func(r chi.Router) {
			voucherHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)
				voucherHandler.RegisterOwnerRoutes(r)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			settingsHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)
				settingsHandler.RegisterOwnerRoutes(r)
			})
		})

		r.Route("/schedule", func(r chi.Router) {
			scheduleHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)
				scheduleHandler.RegisterOwnerRoutes(r)
			})
		})
	})

	return r
}
