// Package services содержит логику бизнес-уровня для регистрации
// и аутентификации пользователей.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/transit-monitor/internal/lib/jwt"
	"github.com/magabrotheeeer/transit-monitor/internal/lib/password"
	"github.com/magabrotheeeer/transit-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/transit-monitor/internal/models"
	"github.com/magabrotheeeer/transit-monitor/internal/rabbitmq"
	"github.com/magabrotheeeer/transit-monitor/internal/storage/repository"
)

// Ошибки бизнес-уровня. Обработчики сопоставляют их с HTTP-статусами.
var (
	// ErrUserExists — username или номер телефона уже заняты.
	ErrUserExists = errors.New("username or phone number already exists")
	// ErrInvalidCredentials — неверная пара username/пароль. Одна и та же
	// ошибка для несуществующего пользователя и для неверного пароля.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken — refresh-токен не найден или истек.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

var registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "transit_monitor_registrations_total",
	Help: "Registration attempts by outcome.",
}, []string{"result"})

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	// Нарушение уникальности возвращается как repository.ErrUniqueViolation.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// FindUserByUsernameOrPhone ищет пользователя по username или номеру
	// телефона одним запросом. Возвращает (nil, nil), если совпадений нет.
	FindUserByUsernameOrPhone(ctx context.Context, username, phoneNumber string) (*models.User, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// SessionStore хранит refresh-токены с TTL.
type SessionStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикует события о регистрации для отправки уведомлений.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Session — данные, привязанные к refresh-токену.
type Session struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	UserUID  string `json:"user_uid"`
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users      UserRepository
	sessions   SessionStore
	jwtMaker   jwt.Maker
	publisher  EventPublisher
	log        *slog.Logger
	refreshTTL time.Duration
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, sessions SessionStore, jwtMaker jwt.Maker,
	publisher EventPublisher, log *slog.Logger, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtMaker:   jwtMaker,
		publisher:  publisher,
		log:        log,
		refreshTTL: refreshTTL,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной ролью
// "commuter". Сначала выполняется дизъюнктивная проверка уникальности username
// и номера телефона — она дает быстрый и понятный ответ клиенту, но гонку
// между проверкой и вставкой окончательно закрывает ограничение уникальности
// в базе: нарушение на вставке тоже возвращается как ErrUserExists.
func (s *AuthService) Register(ctx context.Context, firstName, lastName, username, phoneNumber, rawPassword string) error {
	const op = "services.auth.Register"

	existing, err := s.users.FindUserByUsernameOrPhone(ctx, username, phoneNumber)
	if err != nil {
		registrationsTotal.WithLabelValues("storage_error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		registrationsTotal.WithLabelValues("conflict").Inc()
		return ErrUserExists
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		PhoneNumber:  phoneNumber,
		PasswordHash: hashed,
		Role:         models.RoleCommuter, // дефолтная роль при регистрации
	}
	if _, err = s.users.RegisterUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			registrationsTotal.WithLabelValues("conflict").Inc()
			return ErrUserExists
		}
		registrationsTotal.WithLabelValues("storage_error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	registrationsTotal.WithLabelValues("success").Inc()

	// Ошибка публикации не должна ломать регистрацию: пользователь уже создан.
	event := models.RegistrationEvent{
		Username:    username,
		FirstName:   firstName,
		PhoneNumber: phoneNumber,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyRegistered, event); err != nil {
		s.log.Error("failed to publish registration event", sl.Err(err))
	}
	return nil
}

// Login проверяет пароль пользователя и выдает JWT и refresh-токен.
// Для несуществующего username выполняется сравнение с фиктивным хэшем,
// чтобы ответ по времени не отличался от неверного пароля.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, refresh, role string, err error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = password.CompareHash(password.DummyHash, rawPassword)
			return "", "", "", ErrInvalidCredentials
		}
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", "", ErrInvalidCredentials
	}

	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}
	refresh, err = s.newSession(ctx, user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, refresh, user.Role, nil
}

// Refresh обменивает действующий refresh-токен на новую пару токенов.
// Старый refresh-токен при этом отзывается.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (token, refresh string, err error) {
	const op = "services.auth.Refresh"

	var session Session
	found, err := s.sessions.Get(ctx, sessionKey(refreshToken), &session)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return "", "", ErrInvalidRefreshToken
	}
	if err = s.sessions.Invalidate(ctx, sessionKey(refreshToken)); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	token, err = s.jwtMaker.GenerateToken(session.Username, session.Role, session.UserUID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	refresh, err = s.newSession(ctx, session.Username, session.Role, session.UserUID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, refresh, nil
}

// ValidateToken проверяет JWT и возвращает информацию о пользователе, роль и признак валидности.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.User, string, bool, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, "", false, err
	}
	user := &models.User{
		Username: claims.Username,
		Role:     claims.Role,
		UID:      claims.UserUID,
	}
	return user, claims.Role, true, nil
}

func (s *AuthService) newSession(ctx context.Context, username, role, userUID string) (string, error) {
	refresh := uuid.NewString()
	session := Session{Username: username, Role: role, UserUID: userUID}
	if err := s.sessions.Set(ctx, sessionKey(refresh), session, s.refreshTTL); err != nil {
		return "", err
	}
	return refresh, nil
}

func sessionKey(refreshToken string) string {
	return "refresh:" + refreshToken
}
