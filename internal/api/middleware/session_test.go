package middleware

import (
	"context"
	"ctchen222/FindMy/internal/api/models"
	"ctchen222/FindMy/internal/api/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUsers knows exactly one session.
type stubUsers struct {
	service.UserService
	sessionID string
	user      *models.User
}

func (s *stubUsers) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == s.sessionID {
		return s.user, nil
	}
	return nil, service.ErrUnauthenticated
}

func newGuardedEngine(guard *SessionGuard) *gin.Engine {
	r := gin.New()
	r.Use(guard.Authenticate())
	r.GET("/dashboard", guard.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "hello %s", CurrentUser(c).Username)
	})
	r.GET("/whoami", func(c *gin.Context) {
		user, err := guard.RequireSession(c)
		if err != nil {
			c.String(http.StatusUnauthorized, "%s", err.Error())
			return
		}
		c.String(http.StatusOK, "%s", user.Username)
	})
	return r
}

func TestSessionGuard(t *testing.T) {
	sc := NewSessionCookie("secret", time.Hour, false)
	guard := NewSessionGuard(&stubUsers{sessionID: "good", user: &models.User{ID: 1, Username: "alice"}}, sc)
	engine := newGuardedEngine(guard)

	t.Run("no session redirects to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, LoginPath, w.Header().Get("Location"))
	})

	t.Run("require session without session", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, service.ErrUnauthenticated.Error(), w.Body.String())
	})

	t.Run("valid session yields the bound user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(issue(t, sc, "good", time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello alice", w.Body.String())
	})

	t.Run("stale session is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(issue(t, sc, "logged-out", time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusSeeOther, w.Code)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session", cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}
