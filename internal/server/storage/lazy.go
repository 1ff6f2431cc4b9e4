package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/iudanet/refkeeper/internal/models"
)

// Lazy открывает backend при первом обращении и переиспользует его
// до конца жизни процесса. Проверка и открытие выполняются под мьютексом,
// поэтому параллельные первые запросы не создают лишних подключений.
// Если открыть не удалось, следующий вызов попробует снова.
type Lazy struct {
	backend Backend
	open    Opener
	mu      sync.Mutex
}

var _ Backend = (*Lazy)(nil)

// NewLazy создает ленивый backend поверх opener
func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

// Get возвращает открытый backend, открывая его при необходимости
func (l *Lazy) Get(ctx context.Context) (Backend, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend != nil {
		return l.backend, nil
	}

	b, err := l.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	l.backend = b

	return b, nil
}

// CreateUser implements UserStorage
func (l *Lazy) CreateUser(ctx context.Context, user *models.User) error {
	b, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return b.CreateUser(ctx, user)
}

// GetUserByUsername implements UserStorage
func (l *Lazy) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	b, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return b.GetUserByUsername(ctx, username)
}

// GetUserByID implements UserStorage
func (l *Lazy) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	b, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return b.GetUserByID(ctx, userID)
}

// CreateArticle implements ArticleStorage
func (l *Lazy) CreateArticle(ctx context.Context, article *models.Article) error {
	b, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return b.CreateArticle(ctx, article)
}

// GetArticle implements ArticleStorage
func (l *Lazy) GetArticle(ctx context.Context, ownerID, id string) (*models.Article, error) {
	b, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return b.GetArticle(ctx, ownerID, id)
}

// ListArticles implements ArticleStorage
func (l *Lazy) ListArticles(ctx context.Context, ownerID string) ([]*models.Article, error) {
	b, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return b.ListArticles(ctx, ownerID)
}

// UpdateArticle implements ArticleStorage
func (l *Lazy) UpdateArticle(ctx context.Context, article *models.Article) error {
	b, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return b.UpdateArticle(ctx, article)
}

// DeleteArticle implements ArticleStorage
func (l *Lazy) DeleteArticle(ctx context.Context, ownerID, id string) error {
	b, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return b.DeleteArticle(ctx, ownerID, id)
}

// SearchArticles implements ArticleStorage
func (l *Lazy) SearchArticles(ctx context.Context, ownerID string, field models.SearchField, term string) ([]*models.Article, error) {
	b, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return b.SearchArticles(ctx, ownerID, field, term)
}

// Ping открывает backend при необходимости и проверяет соединение
func (l *Lazy) Ping(ctx context.Context) error {
	b, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return b.Ping(ctx)
}

// Close закрывает backend, если он был открыт.
// После Close следующий вызов откроет backend заново.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend == nil {
		return nil
	}
	err := l.backend.Close()
	l.backend = nil
	if err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
