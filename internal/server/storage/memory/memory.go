// Package memory реализует storage.Backend в памяти процесса.
// Данные теряются при перезапуске; используется для разработки и тестов.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
)

// Storage in-memory backend
type Storage struct {
	users    map[string]*models.User    // id -> User
	articles map[string]*models.Article // id -> Article
	mu       sync.RWMutex
}

var _ storage.Backend = (*Storage)(nil)

// New creates an empty in-memory storage
func New() *Storage {
	return &Storage{
		users:    make(map[string]*models.User),
		articles: make(map[string]*models.Article),
	}
}

// Opener returns a storage.Opener for storage.Lazy
func Opener() storage.Opener {
	return func(context.Context) (storage.Backend, error) {
		return New(), nil
	}
}

// Ping always succeeds
func (s *Storage) Ping(context.Context) error { return nil }

// Close does nothing
func (s *Storage) Close() error { return nil }

// CreateUser implements storage.UserStorage
func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
	}
	u := *user
	s.users[u.ID] = &u
	return nil
}

// GetUserByUsername implements storage.UserStorage
func (s *Storage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// GetUserByID implements storage.UserStorage
func (s *Storage) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// CreateArticle implements storage.ArticleStorage
func (s *Storage) CreateArticle(_ context.Context, article *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doiTaken(article.DOI, "") {
		return storage.ErrDuplicateDOI
	}
	s.articles[article.ID] = cloneArticle(article)
	return nil
}

// GetArticle implements storage.ArticleStorage
func (s *Storage) GetArticle(_ context.Context, ownerID, id string) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.articles[id]
	if !a.OwnedBy(ownerID) {
		return nil, storage.ErrArticleNotFound
	}
	return cloneArticle(a), nil
}

// ListArticles implements storage.ArticleStorage
func (s *Storage) ListArticles(_ context.Context, ownerID string) ([]*models.Article, error) {
	return s.filter(func(a *models.Article) bool { return a.OwnedBy(ownerID) }), nil
}

// UpdateArticle implements storage.ArticleStorage
func (s *Storage) UpdateArticle(_ context.Context, article *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.articles[article.ID]
	if !existing.OwnedBy(article.OwnerID) {
		return storage.ErrArticleNotFound
	}
	if s.doiTaken(article.DOI, article.ID) {
		return storage.ErrDuplicateDOI
	}

	updated := cloneArticle(article)
	updated.CreatedAt = existing.CreatedAt
	s.articles[article.ID] = updated
	return nil
}

// DeleteArticle implements storage.ArticleStorage
func (s *Storage) DeleteArticle(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.articles[id]
	if !a.OwnedBy(ownerID) {
		return storage.ErrArticleNotFound
	}
	delete(s.articles, id)
	return nil
}

// SearchArticles implements storage.ArticleStorage
func (s *Storage) SearchArticles(_ context.Context, ownerID string, field models.SearchField, term string) ([]*models.Article, error) {
	if _, err := storage.SearchColumn(field); err != nil {
		return nil, err
	}
	term = strings.ToLower(term)

	return s.filter(func(a *models.Article) bool {
		if !a.OwnedBy(ownerID) {
			return false
		}
		value := a.Title
		if field == models.SearchByDOI {
			value = a.DOI
		}
		return strings.Contains(strings.ToLower(value), term)
	}), nil
}

func (s *Storage) filter(keep func(*models.Article) bool) []*models.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Article{}
	for _, a := range s.articles {
		if keep(a) {
			out = append(out, cloneArticle(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// doiTaken must be called with s.mu held
func (s *Storage) doiTaken(doi, exceptID string) bool {
	for id, a := range s.articles {
		if id != exceptID && a.DOI == doi {
			return true
		}
	}
	return false
}

func cloneArticle(a *models.Article) *models.Article {
	cp := *a
	cp.Authors = cloneList(a.Authors)
	cp.Keywords = cloneList(a.Keywords)
	cp.Pages = cloneList(a.Pages)
	return &cp
}

func cloneList(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}
