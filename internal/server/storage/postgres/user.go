package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
)

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, first_name, last_name, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintUsername) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, first_name, last_name, username, password_hash, created_at
		FROM users WHERE username = $1`

	return s.getUser(ctx, query, username)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	// колонка id имеет тип UUID, невалидная строка просто не может существовать
	if !isUUID(userID) {
		return nil, storage.ErrUserNotFound
	}

	query := `SELECT id, first_name, last_name, username, password_hash, created_at
		FROM users WHERE id = $1`

	return s.getUser(ctx, query, userID)
}

func (s *Storage) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	user := &models.User{}

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()

	return user, nil
}
