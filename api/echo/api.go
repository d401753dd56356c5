package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	authgate "github.com/SkMishra77/AuthGate"
	"github.com/SkMishra77/AuthGate/cache"
	"github.com/SkMishra77/AuthGate/domain"
	"github.com/SkMishra77/AuthGate/middleware"
	"github.com/SkMishra77/AuthGate/services"
)

// API holds the handlers around the auth service and session store.
type API struct {
	auth     *services.AuthService
	sessions cache.SessionStore
	users    domain.UserRepository
}

// NewAPI initializes the HTTP API.
func NewAPI(auth *services.AuthService, sessions cache.SessionStore, users domain.UserRepository) *API {
	return &API{
		auth:     auth,
		sessions: sessions,
		users:    users,
	}
}

// RegisterRoutes registers all routes. Session-bound routes run behind the
// bearer middleware; the role paths additionally require a matching role.
func (a *API) RegisterRoutes(e *echo.Echo) {
	e.POST("/register", a.RegisterHandler)
	e.POST("/login", a.LoginHandler)

	authed := e.Group("", middleware.BearerAuth(a.sessions))
	authed.POST("/refresh/token", a.RefreshTokenHandler)
	authed.POST("/logout", a.LogoutHandler)
	authed.POST("/logout_all", a.LogoutAllHandler)

	authed.GET("/admin_path", a.AdminPathHandler, middleware.RequireRole(a.users, domain.RoleAdmin))
	authed.GET("/moderator_path", a.ModeratorPathHandler, middleware.RequireRole(a.users, domain.RoleModerator))
	authed.GET("/user_path", a.UserPathHandler, middleware.RequireRole(a.users, domain.RoleUser))
}

type registerRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterHandler creates a new account.
func (a *API) RegisterHandler(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required.")
	}

	_, err := a.auth.Register(c.Request().Context(), req.Username, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, authgate.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
		case errors.Is(err, authgate.ErrUnknownRole):
			return echo.NewHTTPError(http.StatusBadRequest, "Role Undefined")
		}
		log.Error().Err(err).Msg("registration failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Registration failed.")
	}

	return c.JSON(http.StatusOK, map[string]string{"msg": "User created successfully"})
}

// LoginHandler verifies credentials and issues a session token. Unknown
// usernames and wrong passwords get the same answer.
func (a *API) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}

	token, expiresAt, err := a.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, authgate.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid username or password")
		}
		log.Error().Err(err).Msg("login failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Login unavailable.")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":       token,
		"active_time": expiresAt,
	})
}

// RefreshTokenHandler pushes the session deadline forward.
func (a *API) RefreshTokenHandler(c echo.Context) error {
	token, _ := c.Get(middleware.ContextKeyToken).(string)

	expiresAt, err := a.sessions.RefreshToken(c.Request().Context(), token)
	if err != nil {
		return sessionError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"active_time": expiresAt,
	})
}

// LogoutHandler revokes the presented token.
func (a *API) LogoutHandler(c echo.Context) error {
	token, _ := c.Get(middleware.ContextKeyToken).(string)

	if err := a.sessions.Logout(c.Request().Context(), token); err != nil {
		return sessionError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "User logged out successfully"})
}

// LogoutAllHandler revokes every token of the presented token's owner.
func (a *API) LogoutAllHandler(c echo.Context) error {
	token, _ := c.Get(middleware.ContextKeyToken).(string)

	if err := a.sessions.LogoutAll(c.Request().Context(), token); err != nil {
		return sessionError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "User logged out from all devices successfully"})
}

// AdminPathHandler is a role-gated example endpoint.
func (a *API) AdminPathHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.ContextKeyUserID).(string)
	return c.JSON(http.StatusOK, map[string]string{"message": "Welcome, Admin (User ID: " + userID + ")"})
}

// ModeratorPathHandler is a role-gated example endpoint.
func (a *API) ModeratorPathHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.ContextKeyUserID).(string)
	return c.JSON(http.StatusOK, map[string]string{"message": "Welcome, Moderator (User ID: " + userID + ")"})
}

// UserPathHandler is a role-gated example endpoint.
func (a *API) UserPathHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.ContextKeyUserID).(string)
	return c.JSON(http.StatusOK, map[string]string{"message": "Welcome, User (User ID: " + userID + ")"})
}

// sessionError maps store errors to transport errors. A token that vanished
// between the middleware check and the operation is still just "invalid".
func sessionError(err error) error {
	if errors.Is(err, authgate.ErrTokenNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token is invalid.")
	}
	log.Error().Err(err).Msg("session store operation failed")
	return echo.NewHTTPError(http.StatusServiceUnavailable, "Session service unavailable.")
}
