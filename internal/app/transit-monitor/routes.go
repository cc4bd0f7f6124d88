// Package transitmonitor предоставляет маршруты и сборку основного приложения.
package transitmonitor

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/transit-monitor/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/transit-monitor/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/transit-monitor/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/transit-monitor/internal/http/handlers/health"
	"github.com/magabrotheeeer/transit-monitor/internal/http/handlers/placeholder"
	"github.com/magabrotheeeer/transit-monitor/internal/http/middlewarectx"
	"github.com/magabrotheeeer/transit-monitor/internal/models"
	authservice "github.com/magabrotheeeer/transit-monitor/internal/services/auth"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, authService *authservice.AuthService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Открытые конечные точки
	r.Route("/auth", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Post("/signup", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Post("/refresh", refresh.New(logger, authService).ServeHTTP)
	})

	// Маршруты пассажира
	r.Route("/commuter", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Use(middlewarectx.RequireRole(models.RoleCommuter, logger))
		r.Get("/location", placeholder.New(logger, "vehicle location").ServeHTTP)
		r.Get("/timetable", placeholder.New(logger, "timetable").ServeHTTP)
		r.Post("/share-location", placeholder.New(logger, "share location").ServeHTTP)
		r.Get("/eta", placeholder.New(logger, "eta").ServeHTTP)
		r.Get("/announcements", placeholder.New(logger, "announcements").ServeHTTP)
		r.Get("/receipts", placeholder.New(logger, "fare receipts").ServeHTTP)
	})

	// Маршруты кондуктора
	r.Route("/pao", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Use(middlewarectx.RequireRole(models.RolePAO, logger))
		r.Get("/timetable", placeholder.New(logger, "pao timetable").ServeHTTP)
		r.Get("/monitor-commuter", placeholder.New(logger, "monitor commuter").ServeHTTP)
		r.Post("/broadcast", placeholder.New(logger, "broadcast").ServeHTTP)
		r.Post("/validate-fare", placeholder.New(logger, "validate fare").ServeHTTP)
	})

	// Маршруты менеджера
	r.Route("/manager", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authService, logger))
		r.Use(middlewarectx.RequireRole(models.RoleManager, logger))
		r.Get("/overview", placeholder.New(logger, "overview").ServeHTTP)
		r.Get("/routes", placeholder.New(logger, "routes").ServeHTTP)
		r.Post("/routes", placeholder.New(logger, "routes").ServeHTTP)
		r.Put("/routes", placeholder.New(logger, "routes").ServeHTTP)
		r.Delete("/routes", placeholder.New(logger, "routes").ServeHTTP)
		r.Get("/trends", placeholder.New(logger, "trends").ServeHTTP)
		r.Get("/fare-stats", placeholder.New(logger, "fare stats").ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
