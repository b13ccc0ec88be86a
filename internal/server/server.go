package server

import (
	"ctchen222/FindMy/internal/api/controller"
	"ctchen222/FindMy/internal/api/middleware"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*.html
var templateFS embed.FS

var tracer = otel.Tracer("server")

// Server wires the controllers into a gin engine.
type Server struct {
	engine *gin.Engine
}

// NewServer builds the engine and registers every route.
func NewServer(users *controller.UserController, places *controller.PlaceController, guard *middleware.SessionGuard, trustedProxies []string) (*Server, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)

	engine.Use(gin.Recovery(), traceRequests(), logRequests(), guard.Authenticate())

	engine.GET("/", places.Home)
	engine.GET("/register", users.ShowRegister)
	engine.POST("/register", users.Register)
	engine.GET("/login", users.ShowLogin)
	engine.POST("/login", users.Login)

	authed := engine.Group("/", guard.RequireAuth())
	authed.GET("/dashboard", users.Dashboard)
	authed.GET("/logout", users.Logout)
	authed.POST("/logout", users.Logout)

	engine.GET("/restaurants", places.Restaurants)
	engine.GET("/hotels", places.Hotels)
	engine.GET("/events", places.Events)

	return &Server{engine: engine}, nil
}

// Engine returns the HTTP handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// traceRequests opens a server span per request, continuing any incoming trace.
func traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
			))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
