// Package api serves reconstructed flight paths and accepts recorder
// submissions over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/unklstewy/flightpath/internal/auth"
	"github.com/unklstewy/flightpath/internal/db"
	"github.com/unklstewy/flightpath/pkg/config"
	"github.com/unklstewy/flightpath/pkg/telemetry"
	"github.com/unklstewy/flightpath/pkg/tracking"
)

// ReadingStore persists and retrieves telemetry readings.
type ReadingStore interface {
	Insert(ctx context.Context, rec telemetry.Record) error
	Airborne(ctx context.Context, airline string, minAltitude float64) ([]telemetry.Reading, error)
}

// QueryStore runs ad-hoc statements against the analysis database.
type QueryStore interface {
	Run(ctx context.Context, query string) ([]map[string]interface{}, error)
	Schema(ctx context.Context) (map[string][]db.Column, error)
}

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) bool

// StatsFunc returns store statistics for the health report.
type StatsFunc func(ctx context.Context) (map[string]interface{}, error)

// Deps are the collaborators a Server needs.
type Deps struct {
	Readings ReadingStore
	Queries  QueryStore

	// Health is optional; without it /health only reports the server is up
	Health HealthFunc

	// Stats is optional; when set its output is included in /health
	Stats StatsFunc
}

// Server holds the HTTP router and its dependencies
type Server struct {
	router   *chi.Mux
	cfg      *config.Config
	deps     Deps
	authSvc  *auth.Service
	limiter  *rate.Limiter
	strategy tracking.Strategy
}

// New builds a Server from configuration. Authentication routes and
// middleware are only installed when cfg.Auth.Enabled is set.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Readings == nil {
		return nil, fmt.Errorf("reading store is required")
	}

	strategy, ok := tracking.ParseStrategy(cfg.Reconstruct.Strategy)
	if !ok {
		return nil, fmt.Errorf("unknown reconstruction strategy %q", cfg.Reconstruct.Strategy)
	}

	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		deps:     deps,
		strategy: strategy,
	}

	if cfg.Ingest.MaxRecordsPerSecond > 0 {
		burst := cfg.Ingest.RecordBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Ingest.MaxRecordsPerSecond), burst)
	}

	if cfg.Auth.Enabled {
		users := make([]auth.User, 0, len(cfg.Auth.Users))
		for _, u := range cfg.Auth.Users {
			if !auth.ValidRole(u.Role) {
				return nil, fmt.Errorf("user %q has unknown role %q", u.Username, u.Role)
			}
			users = append(users, auth.User{Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role})
		}
		s.authSvc = auth.NewService(auth.Config{
			JWTSecret:     cfg.Auth.JWTSecret,
			TokenDuration: time.Duration(cfg.Auth.TokenDurationMinutes) * time.Minute,
			Users:         users,
		})
	}

	s.setupRoutes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	allowedHeaders := s.cfg.CORS.AllowedHeaders
	if s.authSvc != nil {
		allowedHeaders = append(append([]string(nil), allowedHeaders...), "Authorization")
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: s.cfg.CORS.AllowedMethods,
		AllowedHeaders: allowedHeaders,
		ExposedHeaders: []string{summaryHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	if s.authSvc != nil {
		r.Post("/auth/login", s.handleLogin)
	}

	r.With(s.requireRole(auth.RoleViewer)).Get("/readings", s.handleReadings)
	r.With(s.requireRole(auth.RoleRecorder)).Post("/record", s.handleRecord)

	if s.deps.Queries != nil {
		r.With(s.requireRole(auth.RoleAdmin)).Post("/query", s.handleQuery)
		r.With(s.requireRole(auth.RoleAdmin)).Get("/schema", s.handleSchema)
	}
}

type contextKey string

const claimsKey contextKey = "claims"

// ClaimsFromContext returns the token claims of an authenticated request.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// requireRole rejects requests without a valid token for role or higher.
// With authentication disabled it passes every request through.
func (s *Server) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if s.authSvc == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}

			claims, err := s.authSvc.ValidateToken(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, err.Error())
				return
			}

			if !auth.HasRole(claims.Role, role) {
				respondError(w, http.StatusForbidden, auth.ErrUnauthorized.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
