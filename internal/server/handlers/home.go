package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/refkeeper/internal/server/session"
	"github.com/iudanet/refkeeper/pkg/api"
)

// HomeHandler отдает служебные страницы / и /login
type HomeHandler struct {
	logger  *slog.Logger
	version string
}

// NewHomeHandler создает HomeHandler
func NewHomeHandler(logger *slog.Logger, version string) *HomeHandler {
	return &HomeHandler{logger: logger, version: version}
}

// Index обрабатывает GET / (за периметром)
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	msg := "refkeeper " + h.version
	if username, ok := session.Username(r.Context()); ok && username != "" {
		msg += ", signed in as " + username
	}
	sendJSON(w, h.logger, api.MessageResponse{Message: msg}, http.StatusOK)
}

// Login обрабатывает GET /login, куда периметр отправляет без сессии
func (h *HomeHandler) Login(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, h.logger, api.MessageResponse{
		Message: "authentication required: POST /auth/login with username and password",
	}, http.StatusOK)
}
