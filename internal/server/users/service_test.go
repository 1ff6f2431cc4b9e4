package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
	"github.com/iudanet/refkeeper/internal/server/storage/memory"
)

// failingStore возвращает заданные ошибки из хранилища
type failingStore struct {
	storage.UserStorage
	getErr    error
	createErr error
}

func (f *failingStore) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, f.getErr
}

func (f *failingStore) CreateUser(context.Context, *models.User) error {
	return f.createErr
}

func validRegistration() Registration {
	return Registration{FirstName: "A", LastName: "B", Username: "ab1", Password: "pw12345"}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, bcrypt.MinCost)

	user, err := svc.Register(ctx, Registration{
		FirstName: "  Ada ",
		LastName:  "Lovelace",
		Username:  " ada_l ",
		Password:  "pw12345",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "ada_l", user.Username)
	assert.NotEqual(t, "pw12345", user.PasswordHash)
	assert.False(t, strings.Contains(user.PasswordHash, "pw12345"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw12345")))

	stored, err := store.GetUserByUsername(ctx, "ada_l")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestService_Register_Validation(t *testing.T) {
	svc := NewService(memory.New(), bcrypt.MinCost)

	tests := []struct {
		name   string
		mutate func(*Registration)
	}{
		{name: "missing first name", mutate: func(r *Registration) { r.FirstName = "  " }},
		{name: "missing last name", mutate: func(r *Registration) { r.LastName = "" }},
		{name: "missing username", mutate: func(r *Registration) { r.Username = "" }},
		{name: "bad username", mutate: func(r *Registration) { r.Username = "a b" }},
		{name: "missing password", mutate: func(r *Registration) { r.Password = "" }},
		{name: "short password", mutate: func(r *Registration) { r.Password = "12345" }},
		{name: "password over bcrypt limit", mutate: func(r *Registration) { r.Password = strings.Repeat("x", 73) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)

			user, err := svc.Register(context.Background(), reg)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, user)
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, bcrypt.MinCost)

	first, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	second := validRegistration()
	second.FirstName = "Other"
	second.Password = "another-pass"
	_, err = svc.Register(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// существующая запись не изменилась
	stored, err := store.GetUserByUsername(ctx, "ab1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "A", stored.FirstName)
	assert.Equal(t, first.PasswordHash, stored.PasswordHash)

	_, err = svc.Verify(ctx, "ab1", "pw12345")
	assert.NoError(t, err)
}

func TestService_Register_RaceOnUniqueIndex(t *testing.T) {
	// pre-check прошел, но индекс в БД отклонил запись
	svc := NewService(&failingStore{
		getErr:    storage.ErrUserNotFound,
		createErr: storage.ErrUserAlreadyExists,
	}, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestService_Register_StoreError(t *testing.T) {
	dbErr := errors.New("db down")

	t.Run("lookup fails", func(t *testing.T) {
		svc := NewService(&failingStore{getErr: dbErr}, bcrypt.MinCost)
		_, err := svc.Register(context.Background(), validRegistration())
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("insert fails", func(t *testing.T) {
		svc := NewService(&failingStore{getErr: storage.ErrUserNotFound, createErr: dbErr}, bcrypt.MinCost)
		_, err := svc.Register(context.Background(), validRegistration())
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, ErrDuplicateUsername)
	})
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), bcrypt.MinCost)

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		user, err := svc.Verify(ctx, "ab1", "pw12345")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("username is trimmed", func(t *testing.T) {
		_, err := svc.Verify(ctx, " ab1 ", "pw12345")
		assert.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Verify(ctx, "nobody", "pw12345")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Verify(ctx, "ab1", "pw123456")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), bcrypt.MinCost)

	registered, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := svc.Get(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "ab1", user.Username)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
