package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "findmy.db", cfg.DBPath)
	assert.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "pbkdf2", cfg.PasswordScheme)
	assert.Equal(t, 8*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "FindMy", cfg.Upstream.UserAgent)
	assert.False(t, cfg.OtelEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("DB_URI", "sqlite:////var/lib/findmy/users.db")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("FOUR_KEY", "fsq-key")
	t.Setenv("EVE_KEY", "tm-key")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/findmy/users.db", cfg.DBPath)
	assert.Equal(t, SessionBackendMemory, cfg.SessionBackend)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "fsq-key", cfg.Upstream.FoursquareKey)
	assert.Equal(t, "tm-key", cfg.Upstream.TicketmasterKey)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"SECRET_KEY": ""}},
		{name: "unknown session backend", env: map[string]string{"SECRET_KEY": "s", "SESSION_BACKEND": "badger"}},
		{name: "unknown password scheme", env: map[string]string{"SECRET_KEY": "s", "PASSWORD_SCHEME": "md5"}},
		{name: "bad timeout", env: map[string]string{"SECRET_KEY": "s", "HTTP_TIMEOUT": "soon"}},
		{name: "bad upstream url", env: map[string]string{"SECRET_KEY": "s", "IPINFO_URL": "not a url"}},
		{name: "bad trusted proxy", env: map[string]string{"SECRET_KEY": "s", "TRUSTED_PROXIES": "example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
