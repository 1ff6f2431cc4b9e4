package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/refkeeper/internal/server/session"
	"github.com/iudanet/refkeeper/internal/server/users"
	"github.com/iudanet/refkeeper/pkg/api"
)

// ProfileHandler отдает данные текущего пользователя
type ProfileHandler struct {
	logger *slog.Logger
	users  UserService
}

// NewProfileHandler создает ProfileHandler
func NewProfileHandler(logger *slog.Logger, userService UserService) *ProfileHandler {
	return &ProfileHandler{logger: logger, users: userService}
}

// Profile обрабатывает GET /profile (за RequireSession).
// Токен пользователя, которого больше нет в хранилище, считается недействительным.
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := session.UserID(ctx)
	if !ok {
		sendError(w, h.logger, "token missing or invalid", http.StatusUnauthorized)
		return
	}

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "session user not found", slog.String("user_id", userID))
			sendError(w, h.logger, "token missing or invalid", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(w, h.logger, msgInternalError, http.StatusInternalServerError)
		return
	}

	sendJSON(w, h.logger, api.ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
	}, http.StatusOK)
}
