package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iudanet/refkeeper/internal/server/handlers"
	"github.com/iudanet/refkeeper/internal/server/middleware"
	"github.com/iudanet/refkeeper/internal/server/session"
)

// RouterDeps зависимости HTTP слоя
type RouterDeps struct {
	Logger            *slog.Logger
	Users             handlers.UserService
	Articles          handlers.ArticleService
	Tokens            session.Verifier
	Issuer            handlers.TokenIssuer
	Storage           handlers.Pinger
	Metrics           *middleware.Metrics
	AuthLimiter       *middleware.RateLimiter
	Version           string
	PerimeterPatterns []string
	TrustProxy        bool
	SecureCookie      bool
}

// NewRouter собирает маршруты и цепочку middleware.
//
// Порядок снаружи внутрь: recovery, logging, perimeter, mux (metrics),
// затем для каждого маршрута rate limit или RequireSession.
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	gate := session.NewGate(d.Tokens)

	authHandler := handlers.NewAuthHandler(logger, d.Users, d.Issuer, d.SecureCookie)
	profileHandler := handlers.NewProfileHandler(logger, d.Users)
	articlesHandler := handlers.NewArticlesHandler(logger, d.Articles)
	healthHandler := handlers.NewHealthHandler(logger, d.Storage)
	homeHandler := handlers.NewHomeHandler(logger, d.Version)

	requireSession := middleware.RequireSession(gate, logger, d.Metrics)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireSession(h)
	}

	limited := func(h http.HandlerFunc) http.Handler {
		return h
	}
	if d.AuthLimiter != nil {
		rateLimit := middleware.RateLimitMiddleware(d.AuthLimiter, d.TrustProxy, logger)
		limited = func(h http.HandlerFunc) http.Handler {
			return rateLimit(h)
		}
	}

	r := mux.NewRouter()
	r.NotFoundHandler = handlers.NotFound(logger)
	r.MethodNotAllowedHandler = handlers.MethodNotAllowed(logger)
	r.Use(middleware.HTTPMetricsMiddleware(d.Metrics))

	// Public endpoints
	r.Handle("/auth/signup", limited(authHandler.Signup)).Methods(http.MethodPost)
	r.Handle("/auth/login", limited(authHandler.Login)).Methods(http.MethodPost)
	r.HandleFunc("/login", homeHandler.Login).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	// Session endpoints
	r.Handle("/auth/logout", protected(authHandler.Logout)).Methods(http.MethodPost)
	r.Handle("/profile", protected(profileHandler.Profile)).Methods(http.MethodGet)
	r.Handle("/", protected(homeHandler.Index)).Methods(http.MethodGet)

	r.Handle("/articles", protected(articlesHandler.Get)).Methods(http.MethodGet)
	r.Handle("/articles", protected(articlesHandler.Create)).Methods(http.MethodPost)
	r.Handle("/articles", protected(articlesHandler.Update)).Methods(http.MethodPut)
	r.Handle("/articles", protected(articlesHandler.Delete)).Methods(http.MethodDelete)
	r.Handle("/search", protected(articlesHandler.Search)).Methods(http.MethodGet)

	patterns := d.PerimeterPatterns
	if patterns == nil {
		patterns = middleware.DefaultPerimeterPatterns
	}

	var h http.Handler = r
	h = middleware.Perimeter(gate, middleware.NewPathMatcher(patterns), logger, d.Metrics)(h)
	h = middleware.LoggingMiddleware(logger, "/health", "/metrics")(h)
	h = middleware.RecoveryMiddleware(logger)(h)

	return h
}
