package storage

import (
	"context"
	"time"
)

// AuthStorage хранит сессию клиента между запусками CLI.
// Токен хранится как есть: это значение cookie, выданной сервером.
type AuthStorage interface {
	// SaveAuth сохраняет данные сессии, заменяя предыдущие
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth возвращает сохраненную сессию или ErrAuthNotFound
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth удаляет сессию (logout); ErrAuthNotFound если ее нет
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated сообщает, есть ли сессия с не истекшим сроком
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData данные сессии на клиенте
type AuthData struct {
	Username  string `json:"username"`
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
}

// Expired сообщает, истек ли срок сессии к моменту now
func (a *AuthData) Expired(now time.Time) bool {
	return now.Unix() >= a.ExpiresAt
}
