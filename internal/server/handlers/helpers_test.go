package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/session"
	"github.com/iudanet/refkeeper/internal/server/storage/memory"
	"github.com/iudanet/refkeeper/internal/server/users"
	"github.com/iudanet/refkeeper/pkg/api"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUserService(store *memory.Storage) *users.Service {
	return users.NewService(store, bcrypt.MinCost)
}

// registerUser создает пользователя напрямую через сервис
func registerUser(t *testing.T, svc *users.Service, username string) *models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), users.Registration{
		FirstName: "Test",
		LastName:  "User",
		Username:  username,
		Password:  "pw12345",
	})
	require.NoError(t, err)
	return u
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// asUser имитирует RequireSession: кладет пользователя в контекст запроса
func asUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(session.WithUser(r.Context(), u.ID, u.Username))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

// failingUsers возвращает ошибку хранилища на любой вызов
type failingUsers struct {
	err error
}

func (f failingUsers) Register(context.Context, users.Registration) (*models.User, error) {
	return nil, f.err
}

func (f failingUsers) Verify(context.Context, string, string) (*models.User, error) {
	return nil, f.err
}

func (f failingUsers) Get(context.Context, string) (*models.User, error) {
	return nil, f.err
}
