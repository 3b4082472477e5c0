package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartmenu/api/internal/cart"
	"github.com/smartmenu/api/internal/config"
	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/enum"
	"github.com/smartmenu/api/internal/handler"
	mw "github.com/smartmenu/api/internal/middleware"
	"github.com/smartmenu/api/internal/service"
	"github.com/smartmenu/api/internal/ws"
)

// New creates a Chi router with all application routes wired up. The customer
// surface (menu, carts, order submission) is public; the staff board and the
// catalog admin sit behind the auth middleware.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // frontend dev server
			cfg.PublicBaseURL,
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Uploaded menu images
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Shared wiring for order flows
	carts := cart.NewManager()
	orderService := service.NewOrderService(pool, queries, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	orderHandler := handler.NewOrderHandler(orderService, queries, carts, hub)

	// Customer routes (public, reached from the table QR code)
	menuHandler := handler.NewMenuHandler(queries)
	menuHandler.RegisterRoutes(r)

	cartHandler := handler.NewCartHandler(carts, queries)
	cartHandler.RegisterRoutes(r)

	orderHandler.RegisterPublicRoutes(r)

	// Staff routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Order board and lifecycle
		orderHandler.RegisterStaffRoutes(r)

		// Catalog admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.StaffRoleAdmin, enum.StaffRoleManager))

			categoryHandler := handler.NewCategoryHandler(queries)
			r.Route("/categories", categoryHandler.RegisterRoutes)

			foodHandler := handler.NewFoodHandler(pool, queries, func(db database.DBTX) handler.FoodStore {
				return database.New(db)
			})
			r.Route("/foods", foodHandler.RegisterRoutes)

			areaHandler := handler.NewAreaHandler(queries)
			r.Route("/areas", areaHandler.RegisterRoutes)

			tableHandler := handler.NewTableHandler(queries, cfg.PublicBaseURL)
			r.Route("/tables", tableHandler.RegisterRoutes)

			uploadHandler := handler.NewUploadHandler(cfg.UploadDir)
			uploadHandler.RegisterRoutes(r)

			reportHandler := handler.NewReportHandler(queries)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
