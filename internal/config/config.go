package config

import (
	"ctchen222/FindMy/internal/validator"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session storage backends.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config is the process-wide configuration, loaded once at startup and
// handed to constructors. Nothing reads the environment after Load returns.
type Config struct {
	Addr      string `validate:"required"`
	SecretKey string `validate:"required"`
	DBPath    string `validate:"required"`
	// TrustedProxies lists proxies whose forwarding headers are believed
	// when deciding the caller's address. Empty trusts none.
	TrustedProxies []string `validate:"dive,cidr|ip"`
	CookieSecure   bool

	SessionBackend string        `validate:"oneof=redis memory"`
	RedisAddr      string        `validate:"required_if=SessionBackend redis"`
	SessionTTL     time.Duration `validate:"gt=0"`
	PasswordScheme string        `validate:"oneof=pbkdf2 bcrypt"`

	Upstream UpstreamConfig

	OtelEnabled   bool
	OtelCollector string `validate:"required_if=OtelEnabled true"`
}

// UpstreamConfig holds credentials and endpoints of the external services.
type UpstreamConfig struct {
	FoursquareKey   string
	TicketmasterKey string
	Timeout         time.Duration `validate:"gt=0"`
	UserAgent       string        `validate:"required"`

	IPInfoURL       string `validate:"required,url"`
	FoursquareURL   string `validate:"required,url"`
	NominatimURL    string `validate:"required,url"`
	OverpassURL     string `validate:"required,url"`
	TicketmasterURL string `validate:"required,url"`
}

// Load reads an optional .env file followed by the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "error", err)
	}

	sessionTTL, err := durationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	timeout, err := durationEnv("HTTP_TIMEOUT", 8*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:           getEnv("ADDR", ":8080"),
		SecretKey:      os.Getenv("SECRET_KEY"),
		DBPath:         sqlitePath(getEnv("DB_URI", "sqlite:///findmy.db")),
		TrustedProxies: listEnv("TRUSTED_PROXIES"),
		CookieSecure:   getEnv("COOKIE_SECURE", "false") == "true",
		SessionBackend: getEnv("SESSION_BACKEND", SessionBackendRedis),
		RedisAddr:      getEnv("REDIS_CONNSTRING", "localhost:6379"),
		SessionTTL:     sessionTTL,
		PasswordScheme: getEnv("PASSWORD_SCHEME", "pbkdf2"),
		Upstream: UpstreamConfig{
			FoursquareKey:   os.Getenv("FOUR_KEY"),
			TicketmasterKey: os.Getenv("EVE_KEY"),
			Timeout:         timeout,
			UserAgent:       getEnv("GEOCODER_USER_AGENT", "FindMy"),
			IPInfoURL:       getEnv("IPINFO_URL", "https://ipinfo.io"),
			FoursquareURL:   getEnv("FOURSQUARE_URL", "https://api.foursquare.com/v3/places/search"),
			NominatimURL:    getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/reverse"),
			OverpassURL:     getEnv("OVERPASS_URL", "http://overpass-api.de/api/interpreter"),
			TicketmasterURL: getEnv("TICKETMASTER_URL", "https://app.ticketmaster.com/discovery/v2/events.json"),
		},
		OtelEnabled:   getEnv("OTEL_ENABLED", "false") == "true",
		OtelCollector: getEnv("OTEL_COLLECTOR", "otel-collector:4317"),
	}

	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func listEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return d, nil
}

// sqlitePath accepts both plain file paths and SQLAlchemy-style sqlite URIs.
func sqlitePath(uri string) string {
	return strings.TrimPrefix(uri, "sqlite:///")
}
