package middleware

import (
	"ctchen222/FindMy/internal/api/models"
	"ctchen222/FindMy/internal/api/service"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// LoginPath is where unauthenticated callers are sent.
const LoginPath = "/login"

// SessionGuard resolves the session cookie to a user and protects routes
// that need one.
type SessionGuard struct {
	users  service.UserService
	cookie *SessionCookie
}

// NewSessionGuard creates a SessionGuard.
func NewSessionGuard(users service.UserService, cookie *SessionCookie) *SessionGuard {
	return &SessionGuard{users: users, cookie: cookie}
}

// Cookie returns the cookie codec used by the guard.
func (g *SessionGuard) Cookie() *SessionCookie {
	return g.cookie
}

// Authenticate attaches the current user, if any, to every request. It never
// rejects a request.
func (g *SessionGuard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := g.cookie.SessionID(c)
		if sid == "" {
			c.Next()
			return
		}

		user, err := g.users.CurrentUser(c.Request.Context(), sid)
		switch {
		case err == nil:
			c.Set(currentUserKey, user)
		case errors.Is(err, service.ErrUnauthenticated):
			g.cookie.Clear(c)
		default:
			slog.ErrorContext(c.Request.Context(), "failed to restore session", "error", err)
		}
		c.Next()
	}
}

// RequireSession returns the user bound to the request's session, or
// service.ErrUnauthenticated.
func (g *SessionGuard) RequireSession(c *gin.Context) (*models.User, error) {
	if user := CurrentUser(c); user != nil {
		return user, nil
	}
	return nil, service.ErrUnauthenticated
}

// RequireAuth redirects callers without a session to the login page.
func (g *SessionGuard) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := g.RequireSession(c); err != nil {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by Authenticate, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
