package middlewarectx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/transit-monitor/internal/models"
)

// Мок сервиса валидации токена
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) ValidateToken(ctx context.Context, token string) (*models.User, string, bool, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Bool(2), args.Error(3)
	}
	return args.Get(0).(*models.User), args.String(1), args.Bool(2), args.Error(3)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	user := &models.User{Username: "jdoe", Role: models.RoleCommuter}

	tests := []struct {
		name           string
		authHeader     string
		mockUser       *models.User
		mockRole       string
		mockValid      bool
		mockErr        error
		mockCalled     bool
		wantStatusCode int
		wantNextCalled bool
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer good-token",
			mockUser:       user,
			mockRole:       models.RoleCommuter,
			mockValid:      true,
			mockCalled:     true,
			wantStatusCode: http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:           "missing header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "not a bearer token",
			authHeader:     "Basic dXNlcjpwYXNz",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer bad-token",
			mockErr:        errors.New("invalid token"),
			mockCalled:     true,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.mockCalled {
				authMock.On("ValidateToken", mock.Anything, mock.Anything).
					Return(tt.mockUser, tt.mockRole, tt.mockValid, tt.mockErr).Once()
			}

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				assert.Equal(t, "jdoe", r.Context().Value(User))
				assert.Equal(t, models.RoleCommuter, r.Context().Value(Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/commuter/timetable", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantNextCalled, nextCalled)
			authMock.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		requiredRole   string
		ctxRole        any
		wantStatusCode int
		wantNextCalled bool
	}{
		{
			name:           "matching role",
			requiredRole:   models.RoleManager,
			ctxRole:        models.RoleManager,
			wantStatusCode: http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:           "commuter on manager route",
			requiredRole:   models.RoleManager,
			ctxRole:        models.RoleCommuter,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "role missing from context",
			requiredRole:   models.RolePAO,
			ctxRole:        nil,
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/manager/overview", nil)
			if tt.ctxRole != nil {
				req = req.WithContext(context.WithValue(req.Context(), Role, tt.ctxRole))
			}
			rec := httptest.NewRecorder()

			RequireRole(tt.requiredRole, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantNextCalled, nextCalled)
		})
	}
}
