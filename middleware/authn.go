package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	authgate "github.com/SkMishra77/AuthGate"
	"github.com/SkMishra77/AuthGate/cache"
	"github.com/SkMishra77/AuthGate/domain"
)

// Context keys set by BearerAuth for downstream handlers.
const (
	ContextKeyUserID = "auth.user_id"
	ContextKeyToken  = "auth.token"
)

// BearerAuth extracts a bearer token from the Authorization header and
// validates it against the session store. A missing or malformed header is a
// client error (400) before the store is ever consulted; an unknown, expired
// or revoked token is 401 with no distinction between the three; a backend
// connection failure is 503, never a silent authentication failure.
func BearerAuth(sessions cache.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid Authorization header format.")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid Authorization header format.")
			}
			token := parts[1]

			userID, err := sessions.ValidateToken(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, authgate.ErrTokenNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token is invalid.")
				}
				log.Error().Err(err).Msg("session store unavailable during token validation")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Session service unavailable.")
			}

			c.Set(ContextKeyUserID, userID)
			c.Set(ContextKeyToken, token)

			return next(c)
		}
	}
}

// RequireRole allows the request through only when the authenticated user
// holds the given role. It must run after BearerAuth.
func RequireRole(users domain.UserRepository, role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(ContextKeyUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is invalid.")
			}

			user, err := users.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, authgate.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Permission Denied")
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Identity service unavailable.")
			}

			if user.Role != role {
				return echo.NewHTTPError(http.StatusUnauthorized, "Permission Denied")
			}

			return next(c)
		}
	}
}
