package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"restaurant_menu/internal/api/handler"
	"restaurant_menu/internal/app/service"
	"restaurant_menu/internal/platform/logging"
)

type RouterOptions struct {
	AllowedOrigins []string
	SecureCookies  bool
	MaxUploadBytes int64
}

func NewRouter(
	authService *service.AuthService,
	menuService *service.MenuService,
	logger logging.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	if len(opts.AllowedOrigins) > 0 {
		// Credentials are required for the session cookie to cross origins.
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(authService, logger, opts.SecureCookies)
		api.Group(authHandler.RegisterRoutes)

		menuHandler := handler.NewMenuHandler(menuService, authService, logger, opts.MaxUploadBytes)
		api.Route("/uploads", menuHandler.RegisterRoutes)
	})

	return r
}
