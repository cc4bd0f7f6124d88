// Package register реализует HTTP-обработчик регистрации пользователей.
//
// В нём определяется структура Request для входных данных, выполняется
// декодирование JSON, проверка и валидация полей, а также делегирование
// операции регистрации сервису аутентификации. Конфликт username или номера
// телефона возвращается клиенту как HTTP 409.
package register

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

// Request — входные данные для регистрации. Все пять полей обязательны.
type Request struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Username    string `json:"username" validate:"required,min=3,max=50"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=20"`
	Password    string `json:"password" validate:"required,min=6"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, firstName, lastName, username, phoneNumber, rawPassword string) error
}

// Handler обрабатывает HTTP-запросы регистрации.
type Handler struct {
	log         *slog.Logger
	authService Service
	validate    *validator.Validate
}

// New создает новый экземпляр Handler с указанными логгером и сервисом аутентификации.
func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает нового пользователя с ролью commuter. Username и номер телефона должны быть уникальны.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или не все поля заполнены"
// @Failure 409 {object} response.ErrorResponse "Username или номер телефона уже заняты"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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
	log.Info("request body decoded", slog.String("username", req.Username))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	err := h.authService.Register(r.Context(), req.FirstName, req.LastName,
		req.Username, req.PhoneNumber, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			log.Error("registration conflict", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("username or phone number already exists"))
			return
		}
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	log.Info("user registered", slog.String("username", req.Username))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "user registered successfully",
	}))
}
