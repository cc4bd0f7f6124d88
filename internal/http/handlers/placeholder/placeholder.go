// Package placeholder реализует обработчик для объявленных, но еще
// не реализованных маршрутов мониторинга транспорта. Маршруты закреплены
// за ролями и защищены JWT, но поведенческого контракта пока не имеют.
package placeholder

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/transit-monitor/internal/http/response"
)

// Handler возвращает 501 Not Implemented для любого запроса.
type Handler struct {
	log     *slog.Logger
	feature string
}

// New создает обработчик-заглушку для функции feature.
func New(log *slog.Logger, feature string) *Handler {
	return &Handler{
		log:     log,
		feature: feature,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.placeholder"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	log.Info("not implemented endpoint called", slog.String("feature", h.feature))
	render.Status(r, http.StatusNotImplemented)
	render.JSON(w, r, response.Error("not implemented"))
}
