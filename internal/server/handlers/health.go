package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/refkeeper/pkg/api"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	storage Pinger
	timeout time.Duration
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, storage Pinger) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		storage: storage,
		timeout: 2 * time.Second,
	}
}

// Health обрабатывает GET /health
// 200 если хранилище отвечает, иначе 503
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "storage ping failed", slog.Any("error", err))
		sendJSON(w, h.logger, api.HealthResponse{
			Status:  "unavailable",
			Storage: "down",
		}, http.StatusServiceUnavailable)
		return
	}

	sendJSON(w, h.logger, api.HealthResponse{
		Status:  "ok",
		Storage: "up",
	}, http.StatusOK)
}
