package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/refkeeper/internal/models"
)

// fakeBackend реализует только то, что нужно тестам Lazy
type fakeBackend struct {
	Backend
	pingErr error
	closed  atomic.Bool
}

func (f *fakeBackend) Ping(context.Context) error { return f.pingErr }

func (f *fakeBackend) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeBackend) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

func TestLazy_OpensOnce(t *testing.T) {
	var opens atomic.Int32
	backend := &fakeBackend{}

	lazy := NewLazy(func(context.Context) (Backend, error) {
		opens.Add(1)
		return backend, nil
	})

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := lazy.Get(ctx)
			assert.NoError(t, err)
			assert.Same(t, backend, b)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())

	user, err := lazy.GetUserByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, int32(1), opens.Load())
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	var opens atomic.Int32
	backend := &fakeBackend{}
	dialErr := errors.New("connection refused")

	lazy := NewLazy(func(context.Context) (Backend, error) {
		if opens.Add(1) == 1 {
			return nil, dialErr
		}
		return backend, nil
	})

	ctx := context.Background()

	err := lazy.Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, dialErr)

	require.NoError(t, lazy.Ping(ctx))
	assert.Equal(t, int32(2), opens.Load())
}

func TestLazy_Close(t *testing.T) {
	var opens atomic.Int32
	backend := &fakeBackend{}

	lazy := NewLazy(func(context.Context) (Backend, error) {
		opens.Add(1)
		return backend, nil
	})

	// закрытие неоткрытого backend ничего не делает
	require.NoError(t, lazy.Close())
	assert.Equal(t, int32(0), opens.Load())

	ctx := context.Background()
	require.NoError(t, lazy.Ping(ctx))
	require.NoError(t, lazy.Close())
	assert.True(t, backend.closed.Load())

	// после Close backend открывается заново
	require.NoError(t, lazy.Ping(ctx))
	assert.Equal(t, int32(2), opens.Load())
}
