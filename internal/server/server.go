// Package server собирает HTTP сервер refkeeper: хранилище, сервисы, маршруты.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iudanet/refkeeper/internal/config"
	"github.com/iudanet/refkeeper/internal/server/articles"
	"github.com/iudanet/refkeeper/internal/server/jwt"
	"github.com/iudanet/refkeeper/internal/server/middleware"
	"github.com/iudanet/refkeeper/internal/server/storage"
	"github.com/iudanet/refkeeper/internal/server/storage/memory"
	"github.com/iudanet/refkeeper/internal/server/storage/postgres"
	"github.com/iudanet/refkeeper/internal/server/storage/sqlite"
	"github.com/iudanet/refkeeper/internal/server/users"
)

// Server HTTP сервер с ленивым подключением к хранилищу
type Server struct {
	logger          *slog.Logger
	httpServer      *http.Server
	store           *storage.Lazy
	limiter         *middleware.RateLimiter
	shutdownTimeout time.Duration
}

// OpenerFor выбирает способ открытия хранилища по драйверу
func OpenerFor(driver, dsn string) (storage.Opener, error) {
	switch driver {
	case config.DriverSQLite:
		return sqlite.Opener(dsn), nil
	case config.DriverPostgres:
		return postgres.Opener(dsn), nil
	case config.DriverMemory:
		return memory.Opener(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
}

// New собирает сервер из конфигурации. Хранилище открывается при первом запросе.
func New(cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opener, err := OpenerFor(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	store := storage.NewLazy(opener)

	tokens, err := jwt.NewService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	logger.Info("Session tokens configured", slog.Duration("ttl", tokens.TTL()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)

	handler := NewRouter(RouterDeps{
		Logger:            logger,
		Users:             users.NewService(store, cfg.BcryptCost),
		Articles:          articles.NewService(store),
		Tokens:            tokens,
		Issuer:            tokens,
		Storage:           store,
		Metrics:           metrics,
		AuthLimiter:       limiter,
		Version:           version,
		PerimeterPatterns: cfg.PerimeterPatterns,
		TrustProxy:        cfg.TrustProxy,
		SecureCookie:      cfg.SecureCookie(),
	})

	return &Server{
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:           store,
		limiter:         limiter,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Handler корневой HTTP handler (используется в тестах)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливается
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.release()
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.release()
	if err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("Graceful shutdown complete")
	return nil
}

// Close освобождает ресурсы сервера, запущенного не через Run (например, через Handler)
func (s *Server) Close() {
	s.release()
}

func (s *Server) release() {
	s.limiter.Stop()
	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close storage", slog.Any("error", err))
	}
}
