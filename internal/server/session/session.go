// Package session связывает токен сессии с HTTP: cookie и единая проверка запроса.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/iudanet/refkeeper/internal/server/jwt"
	"github.com/iudanet/refkeeper/pkg/api"
)

// CookieName имя cookie с токеном сессии
const CookieName = api.SessionCookie

// ErrMissingToken запрос не содержит токена
var ErrMissingToken = errors.New("missing session token")

// Verifier проверяет токен (реализуется jwt.Service)
type Verifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// Gate единственная функция проверки сессии для всех точек входа.
// Perimeter и RequireSession отличаются только реакцией на отказ.
type Gate struct {
	tokens Verifier
}

// NewGate создает Gate поверх сервиса токенов
func NewGate(tokens Verifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate извлекает токен из cookie и проверяет его.
// Возвращает ErrMissingToken или jwt.ErrInvalidToken.
func (g *Gate) Authenticate(r *http.Request) (*jwt.Claims, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, jwt.ErrInvalidToken
	}

	return claims, nil
}

// Reason короткая метка причины отказа для логов и метрик
func Reason(err error) string {
	if errors.Is(err, ErrMissingToken) {
		return "missing"
	}
	return "invalid"
}

// TokenFromRequest возвращает значение cookie сессии или пустую строку
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// NewCookie создает cookie сессии: HttpOnly, SameSite=Strict, Path=/,
// Max-Age равен оставшемуся сроку жизни токена
func NewCookie(token string, expiresAt time.Time, secure bool, now time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(now).Seconds())
	if maxAge <= 0 {
		return ExpiredCookie(secure)
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredCookie удаляет cookie сессии на клиенте (Max-Age=0)
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// contextKey тип для ключей контекста
type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// WithUser кладет проверенного пользователя в контекст
func WithUser(ctx context.Context, userID, username string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, usernameKey, username)
}

// UserID извлекает user_id из контекста
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// Username извлекает username из контекста
func Username(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}
