package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie carries the opaque session id to the browser inside an
// HMAC-signed token, so a tampered cookie is rejected before any store lookup.
type SessionCookie struct {
	Name   string
	Secret []byte
	TTL    time.Duration
	Secure bool
}

// NewSessionCookie creates a SessionCookie with the default cookie name.
func NewSessionCookie(secret string, ttl time.Duration, secure bool) *SessionCookie {
	return &SessionCookie{
		Name:   "session",
		Secret: []byte(secret),
		TTL:    ttl,
		Secure: secure,
	}
}

// Set writes the cookie for sessionID.
func (sc *SessionCookie) Set(c *gin.Context, sessionID string, expiresAt time.Time) error {
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sc.Secret)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, token, int(sc.TTL.Seconds()), "/", "", sc.Secure, true)
	return nil
}

// Clear removes the cookie from the browser.
func (sc *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// SessionID returns the session id carried by the request, or "" when the
// cookie is missing, forged or expired.
func (sc *SessionCookie) SessionID(c *gin.Context) string {
	raw, err := c.Cookie(sc.Name)
	if err != nil || raw == "" {
		return ""
	}
	sid, err := sc.parse(raw)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			slog.WarnContext(c.Request.Context(), "rejected session cookie", "error", err)
		}
		return ""
	}
	return sid
}

func (sc *SessionCookie) parse(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return sc.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session cookie without id")
	}
	return claims.ID, nil
}
