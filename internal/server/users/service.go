// Package users хранит учетные записи: регистрация и проверка пароля.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/refkeeper/internal/crypto"
	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
	"github.com/iudanet/refkeeper/internal/validation"
)

var (
	// ErrDuplicateUsername username уже занят
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrUserNotFound пользователь с таким username не найден
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword пароль не совпадает
	ErrWrongPassword = errors.New("wrong password")
	// ErrValidation входные данные не прошли проверку
	ErrValidation = errors.New("validation failed")
)

// Registration данные для регистрации нового пользователя
type Registration struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}

// Service реализует хранилище учетных данных поверх storage.UserStorage
type Service struct {
	store      storage.UserStorage
	now        func() time.Time
	bcryptCost int
}

// NewService создает сервис пользователей.
// bcryptCost вне допустимого диапазона заменяется на crypto.DefaultCost.
func NewService(store storage.UserStorage, bcryptCost int) *Service {
	return &Service{
		store:      store,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register создает пользователя с bcrypt хешем пароля.
// Пароль в открытом виде нигде не сохраняется.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	firstName := strings.TrimSpace(reg.FirstName)
	lastName := strings.TrimSpace(reg.LastName)
	username := strings.TrimSpace(reg.Username)

	if err := validation.ValidatePersonName("first_name", firstName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := validation.ValidatePersonName("last_name", lastName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := validation.ValidatePassword(reg.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	// Предварительная проверка; окончательно уникальность обеспечивает индекс в БД
	_, err := s.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrDuplicateUsername
	case !errors.Is(err, storage.ErrUserNotFound):
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := crypto.HashPassword(reg.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Verify находит пользователя по username и проверяет пароль
func (s *Service) Verify(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := crypto.VerifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	return user, nil
}

// Get возвращает пользователя по ID
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
