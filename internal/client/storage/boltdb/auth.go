package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/refkeeper/internal/client/storage"
)

// sessionKey ключ записи активной сессии в bucketSession
var sessionKey = []byte("active")

// sessionFormat версия формата sessionRecord
const sessionFormat = 1

var (
	errSessionBucketMissing = errors.New("session bucket not found")
	errEmptyToken           = errors.New("session token is empty")
)

var _ storage.AuthStorage = (*Storage)(nil)

// sessionRecord представление сессии на диске.
// Время хранится в RFC 3339, чтобы файл можно было прочитать глазами.
type sessionRecord struct {
	Format    int       `json:"format"`
	Username  string    `json:"username"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	SavedAt   time.Time `json:"saved_at"`
}

func newSessionRecord(auth *storage.AuthData, savedAt time.Time) sessionRecord {
	return sessionRecord{
		Format:    sessionFormat,
		Username:  auth.Username,
		UserID:    auth.UserID,
		Token:     auth.Token,
		ExpiresAt: time.Unix(auth.ExpiresAt, 0).UTC(),
		SavedAt:   savedAt.UTC(),
	}
}

func (r sessionRecord) authData() *storage.AuthData {
	return &storage.AuthData{
		Username:  r.Username,
		UserID:    r.UserID,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt.Unix(),
	}
}

// sessionBucket возвращает bucket сессии или ошибку, если файл создан не этим клиентом
func sessionBucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(bucketSession)
	if b == nil {
		return nil, errSessionBucketMissing
	}
	return b, nil
}

// SaveAuth заменяет сохраненную сессию
func (s *Storage) SaveAuth(_ context.Context, auth *storage.AuthData) error {
	if auth == nil || auth.Token == "" {
		return errEmptyToken
	}

	data, err := json.Marshal(newSessionRecord(auth, s.now()))
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		if err := b.Put(sessionKey, data); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
}

// GetAuth читает сохраненную сессию
func (s *Storage) GetAuth(_ context.Context) (*storage.AuthData, error) {
	var rec sessionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}

		// значение валидно только внутри транзакции, Unmarshal его копирует
		data := b.Get(sessionKey)
		if data == nil {
			return storage.ErrAuthNotFound
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rec.Format != sessionFormat {
		return nil, fmt.Errorf("unsupported session format %d, run login again", rec.Format)
	}

	return rec.authData(), nil
}

// DeleteAuth удаляет сессию (logout)
func (s *Storage) DeleteAuth(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := sessionBucket(tx)
		if err != nil {
			return err
		}
		if b.Get(sessionKey) == nil {
			return storage.ErrAuthNotFound
		}
		if err := b.Delete(sessionKey); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// IsAuthenticated сообщает, есть ли сессия с не истекшим сроком
func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	auth, err := s.GetAuth(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	return !auth.Expired(s.now()), nil
}
