package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authgate "github.com/SkMishra77/AuthGate"
	"github.com/SkMishra77/AuthGate/domain"
)

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateToken(ctx context.Context, userID string) (string, int64, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionStore) ValidateToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) RefreshToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionStore) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessionStore) LogoutAll(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func invokeBearerAuth(t *testing.T, sessions *MockSessionStore, authHeader string) (echo.Context, bool, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	nextCalled := false
	handler := BearerAuth(sessions)(func(c echo.Context) error {
		nextCalled = true
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)

	return c, nextCalled, err
}

func TestBearerAuth(t *testing.T) {
	t.Run("Missing Header", func(t *testing.T) {
		sessions := new(MockSessionStore)
		_, nextCalled, err := invokeBearerAuth(t, sessions, "")

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		assert.False(t, nextCalled)
		sessions.AssertNotCalled(t, "ValidateToken", mock.Anything, mock.Anything)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		sessions := new(MockSessionStore)
		_, nextCalled, err := invokeBearerAuth(t, sessions, "Basic dXNlcjpwYXNz")

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		assert.False(t, nextCalled)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("ValidateToken", mock.Anything, "bad-token").Return("", authgate.ErrTokenNotFound).Once()

		_, nextCalled, err := invokeBearerAuth(t, sessions, "Bearer bad-token")

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		assert.False(t, nextCalled)
	})

	t.Run("Backend Unavailable", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("ValidateToken", mock.Anything, "tok").Return("", errors.New("redis connection failed")).Once()

		_, nextCalled, err := invokeBearerAuth(t, sessions, "Bearer tok")

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
		assert.False(t, nextCalled)
	})

	t.Run("Valid Token", func(t *testing.T) {
		sessions := new(MockSessionStore)
		sessions.On("ValidateToken", mock.Anything, "good-token").Return("user-1", nil).Once()

		c, nextCalled, err := invokeBearerAuth(t, sessions, "Bearer good-token")

		require.NoError(t, err)
		assert.True(t, nextCalled)
		assert.Equal(t, "user-1", c.Get(ContextKeyUserID))
		assert.Equal(t, "good-token", c.Get(ContextKeyToken))
	})
}

func TestRequireRole(t *testing.T) {
	newContext := func(userID string) echo.Context {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/admin_path", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if userID != "" {
			c.Set(ContextKeyUserID, userID)
		}
		return c
	}

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	t.Run("Matching Role", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByID", mock.Anything, "user-1").
			Return(&domain.User{ID: "user-1", Role: domain.RoleAdmin}, nil).Once()

		err := RequireRole(users, domain.RoleAdmin)(next)(newContext("user-1"))
		assert.NoError(t, err)
	})

	t.Run("Role Mismatch", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByID", mock.Anything, "user-1").
			Return(&domain.User{ID: "user-1", Role: domain.RoleUser}, nil).Once()

		err := RequireRole(users, domain.RoleAdmin)(next)(newContext("user-1"))

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("Unknown User", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByID", mock.Anything, "ghost").Return(nil, authgate.ErrUserNotFound).Once()

		err := RequireRole(users, domain.RoleAdmin)(next)(newContext("ghost"))

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("No Authenticated User", func(t *testing.T) {
		users := new(MockUserRepository)

		err := RequireRole(users, domain.RoleAdmin)(next)(newContext(""))

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})
}
