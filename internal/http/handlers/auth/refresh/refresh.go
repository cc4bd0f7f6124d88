// Package refresh реализует HTTP-обработчик обмена refresh-токена
// на новую пару токенов. Использованный refresh-токен отзывается.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/transit-monitor/internal/http/response"
	"github.com/magabrotheeeer/transit-monitor/internal/lib/sl"
	services "github.com/magabrotheeeer/transit-monitor/internal/services/auth"
)

// Request — структура входных данных для обновления токена.
type Request struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Service описывает интерфейс бизнес-логики обновления токенов.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (token, refresh string, err error)
}

// Handler обрабатывает HTTP-запросы обновления токенов.
type Handler struct {
	log         *slog.Logger
	authService Service
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновление пары токенов
// @Description Обменивает действующий refresh-токен на новый JWT и refresh-токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Refresh-токен"
// @Success 200 {object} response.Response "Новая пара токенов"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Токен не найден или истек"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, refresh, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			log.Error("refresh failed", sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid refresh token"))
			return
		}
		log.Error("refresh failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":         token,
		"refresh_token": refresh,
	}))
}
