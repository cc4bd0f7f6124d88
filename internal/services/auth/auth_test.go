package services_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/transit-monitor/internal/lib/jwt"
	"github.com/magabrotheeeer/transit-monitor/internal/lib/password"
	"github.com/magabrotheeeer/transit-monitor/internal/models"
	services "github.com/magabrotheeeer/transit-monitor/internal/services/auth"
	"github.com/magabrotheeeer/transit-monitor/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) FindUserByUsernameOrPhone(ctx context.Context, username, phoneNumber string) (*models.User, error) {
	args := m.Called(ctx, username, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для EventPublisher
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

// Фейковое хранилище сессий поверх map
type sessionStoreFake struct {
	data map[string]services.Session
}

func newSessionStoreFake() *sessionStoreFake {
	return &sessionStoreFake{data: make(map[string]services.Session)}
}

func (f *sessionStoreFake) Get(_ context.Context, key string, result any) (bool, error) {
	session, ok := f.data[key]
	if !ok {
		return false, nil
	}
	*result.(*services.Session) = session
	return true, nil
}

func (f *sessionStoreFake) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(services.Session)
	return nil
}

func (f *sessionStoreFake) Invalidate(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *UserRepoMock, publisher *PublisherMock, sessions *sessionStoreFake) *services.AuthService {
	maker := jwt.NewJWTMaker("test_secret_key", 15*time.Minute)
	return services.NewAuthService(repo, sessions, maker, publisher, newNoopLogger(), time.Hour)
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(UserRepoMock)
	publisher := new(PublisherMock)
	svc := newService(repo, publisher, newSessionStoreFake())

	repo.On("FindUserByUsernameOrPhone", mock.Anything, "jdoe", "555-1234").
		Return(nil, nil).Once()
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "jdoe" &&
			u.PhoneNumber == "555-1234" &&
			u.Role == models.RoleCommuter &&
			u.PasswordHash != "" &&
			u.PasswordHash != "s3cret!"
	})).Return("550e8400-e29b-41d4-a716-446655440000", nil).Once()
	publisher.On("Publish", "user.registered", mock.MatchedBy(func(e models.RegistrationEvent) bool {
		return e.Username == "jdoe" && e.PhoneNumber == "555-1234"
	})).Return(nil).Once()

	err := svc.Register(context.Background(), "Jane", "Doe", "jdoe", "555-1234", "s3cret!")
	require.NoError(t, err)

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAuthService_Register_Conflict(t *testing.T) {
	existing := &models.User{Username: "alice", PhoneNumber: "555-0100"}

	tests := []struct {
		name        string
		username    string
		phoneNumber string
	}{
		{
			name:        "same username different phone",
			username:    "alice",
			phoneNumber: "555-9999",
		},
		{
			name:        "same phone different username",
			username:    "bob",
			phoneNumber: "555-0100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			publisher := new(PublisherMock)
			svc := newService(repo, publisher, newSessionStoreFake())

			// Повторение конфликтующего запроса никогда не создает вторую запись.
			repo.On("FindUserByUsernameOrPhone", mock.Anything, tt.username, tt.phoneNumber).
				Return(existing, nil).Times(3)

			for range 3 {
				err := svc.Register(context.Background(), "Any", "Body", tt.username, tt.phoneNumber, "s3cret!")
				assert.ErrorIs(t, err, services.ErrUserExists)
			}

			repo.AssertExpectations(t)
			repo.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Register_RaceLostMapsToConflict(t *testing.T) {
	repo := new(UserRepoMock)
	publisher := new(PublisherMock)
	svc := newService(repo, publisher, newSessionStoreFake())

	// Проверка уникальности прошла, но конкурентная регистрация успела раньше:
	// вставка упирается в ограничение уникальности базы.
	repo.On("FindUserByUsernameOrPhone", mock.Anything, "jdoe", "555-1234").
		Return(nil, nil).Once()
	repo.On("RegisterUser", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("storage.RegisterUser: %w", repository.ErrUniqueViolation)).Once()

	err := svc.Register(context.Background(), "Jane", "Doe", "jdoe", "555-1234", "s3cret!")
	assert.ErrorIs(t, err, services.ErrUserExists)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAuthService_Register_StorageFailure(t *testing.T) {
	repo := new(UserRepoMock)
	publisher := new(PublisherMock)
	svc := newService(repo, publisher, newSessionStoreFake())

	repo.On("FindUserByUsernameOrPhone", mock.Anything, "jdoe", "555-1234").
		Return(nil, errors.New("connection refused")).Once()

	err := svc.Register(context.Background(), "Jane", "Doe", "jdoe", "555-1234", "s3cret!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrUserExists)

	repo.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
}

func TestAuthService_Register_PublishFailureDoesNotFailRegistration(t *testing.T) {
	repo := new(UserRepoMock)
	publisher := new(PublisherMock)
	svc := newService(repo, publisher, newSessionStoreFake())

	repo.On("FindUserByUsernameOrPhone", mock.Anything, "jdoe", "555-1234").
		Return(nil, nil).Once()
	repo.On("RegisterUser", mock.Anything, mock.Anything).
		Return("550e8400-e29b-41d4-a716-446655440000", nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything).
		Return(errors.New("broker unavailable")).Once()

	err := svc.Register(context.Background(), "Jane", "Doe", "jdoe", "555-1234", "s3cret!")
	assert.NoError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("s3cret!")
	require.NoError(t, err)

	user := &models.User{
		UID:          "550e8400-e29b-41d4-a716-446655440000",
		Username:     "jdoe",
		PasswordHash: hash,
		Role:         models.RoleCommuter,
	}

	tests := []struct {
		name        string
		username    string
		rawPassword string
		repoUser    *models.User
		repoErr     error
		wantErr     error
	}{
		{
			name:        "correct credentials",
			username:    "jdoe",
			rawPassword: "s3cret!",
			repoUser:    user,
		},
		{
			name:        "wrong password",
			username:    "jdoe",
			rawPassword: "wrong",
			repoUser:    user,
			wantErr:     services.ErrInvalidCredentials,
		},
		{
			name:        "unknown username gives the same error",
			username:    "ghost",
			rawPassword: "s3cret!",
			repoErr:     fmt.Errorf("storage.GetUserByUsername: %w", sql.ErrNoRows),
			wantErr:     services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			sessions := newSessionStoreFake()
			svc := newService(repo, new(PublisherMock), sessions)

			repo.On("GetUserByUsername", mock.Anything, tt.username).
				Return(tt.repoUser, tt.repoErr).Once()

			token, refresh, role, err := svc.Login(context.Background(), tt.username, tt.rawPassword)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				assert.Empty(t, refresh)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.NotEmpty(t, refresh)
			assert.Equal(t, models.RoleCommuter, role)
			assert.Len(t, sessions.data, 1)

			// Выданный токен проходит валидацию и несет роль пользователя.
			validated, gotRole, valid, err := svc.ValidateToken(context.Background(), token)
			require.NoError(t, err)
			assert.True(t, valid)
			assert.Equal(t, "jdoe", validated.Username)
			assert.Equal(t, models.RoleCommuter, gotRole)
		})
	}
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	hash, err := password.GetHash("s3cret!")
	require.NoError(t, err)

	repo := new(UserRepoMock)
	sessions := newSessionStoreFake()
	svc := newService(repo, new(PublisherMock), sessions)

	repo.On("GetUserByUsername", mock.Anything, "jdoe").Return(&models.User{
		UID:          "550e8400-e29b-41d4-a716-446655440000",
		Username:     "jdoe",
		PasswordHash: hash,
		Role:         models.RoleCommuter,
	}, nil).Once()

	_, oldRefresh, _, err := svc.Login(context.Background(), "jdoe", "s3cret!")
	require.NoError(t, err)

	token, newRefresh, err := svc.Refresh(context.Background(), oldRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, oldRefresh, newRefresh)

	// Использованный refresh-токен отозван.
	_, _, err = svc.Refresh(context.Background(), oldRefresh)
	assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)

	// Новый еще действует.
	_, _, err = svc.Refresh(context.Background(), newRefresh)
	assert.NoError(t, err)
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	svc := newService(new(UserRepoMock), new(PublisherMock), newSessionStoreFake())

	_, _, err := svc.Refresh(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
}
