package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/transit-monitor/internal/http/response"
)

// RequireRole возвращает middleware, пропускающий только пользователей
// с указанной ролью. Роль берется из контекста, куда ее кладет JWTMiddleware.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userRole, ok := r.Context().Value(Role).(string)
			if !ok || userRole != role {
				log.Error("forbidden", slog.String("required_role", role),
					slog.String("user_role", userRole))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
