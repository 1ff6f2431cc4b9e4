package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/session"
	"github.com/iudanet/refkeeper/internal/server/users"
	"github.com/iudanet/refkeeper/pkg/api"
)

// UserService регистрирует, проверяет и читает пользователей (реализуется users.Service)
type UserService interface {
	Register(ctx context.Context, reg users.Registration) (*models.User, error)
	Verify(ctx context.Context, username, password string) (*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
}

// TokenIssuer выпускает токен сессии (реализуется jwt.Service)
type TokenIssuer interface {
	Issue(userID, username string) (string, time.Time, error)
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger       *slog.Logger
	users        UserService
	tokens       TokenIssuer
	now          func() time.Time
	secureCookie bool
}

// NewAuthHandler создает новый handler для авторизации.
// secureCookie выключается только в development окружении.
func NewAuthHandler(logger *slog.Logger, userService UserService, tokens TokenIssuer, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		users:        userService,
		tokens:       tokens,
		secureCookie: secureCookie,
		now:          time.Now,
	}
}

// Signup обрабатывает POST /auth/signup
// Регистрация нового пользователя
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode signup request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.Username) == "" || req.Password == "" {
		sendError(w, h.logger, "all fields are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.Register(ctx, users.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrValidation):
			h.logger.WarnContext(ctx, "invalid signup request", slog.Any("error", err))
			sendError(w, h.logger, err.Error(), http.StatusBadRequest)
		case errors.Is(err, users.ErrDuplicateUsername):
			h.logger.WarnContext(ctx, "username already exists", slog.String("username", req.Username))
			sendError(w, h.logger, "username already exists", http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to register user", slog.Any("error", err))
			sendError(w, h.logger, msgInternalError, http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	sendJSON(w, h.logger, api.SignupResponse{
		UserID:  user.ID,
		Message: "User registered successfully",
	}, http.StatusCreated)
}

// Login обрабатывает POST /auth/login
// Проверяет пароль и устанавливает cookie сессии
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		sendError(w, h.logger, "missing credentials", http.StatusBadRequest)
		return
	}

	user, err := h.users.Verify(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("username", req.Username))
			sendError(w, h.logger, "user not found", http.StatusNotFound)
		case errors.Is(err, users.ErrWrongPassword):
			h.logger.WarnContext(ctx, "login failed: wrong password", slog.String("username", req.Username))
			sendError(w, h.logger, "wrong password", http.StatusUnauthorized)
		default:
			h.logger.ErrorContext(ctx, "failed to verify user", slog.Any("error", err))
			sendError(w, h.logger, msgInternalError, http.StatusInternalServerError)
		}
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session token", slog.Any("error", err))
		sendError(w, h.logger, msgInternalError, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, session.NewCookie(token, expiresAt, h.secureCookie, h.now()))

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	sendJSON(w, h.logger, api.LoginResponse{
		Message:   "Login successful",
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: expiresAt.UTC(),
	}, http.StatusOK)
}

// Logout обрабатывает POST /auth/logout (за RequireSession)
// Удаляет cookie на клиенте. Выданный токен остается действительным до истечения срока.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, _ := session.UserID(ctx)

	http.SetCookie(w, session.ExpiredCookie(h.secureCookie))

	h.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))

	sendJSON(w, h.logger, api.MessageResponse{Message: "Logout successful"}, http.StatusOK)
}
