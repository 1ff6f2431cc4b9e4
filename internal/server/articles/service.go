// Package articles применяет правило владения ко всем операциям со статьями:
// каждая операция получает ID проверенного пользователя и работает только с его записями.
package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
	"github.com/iudanet/refkeeper/internal/validation"
)

var (
	// ErrNotFound статья не существует или принадлежит другому пользователю
	ErrNotFound = errors.New("article not found")
	// ErrValidation входные данные не прошли проверку
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateDOI статья с таким DOI уже существует
	ErrDuplicateDOI = errors.New("article with this doi already exists")
)

// Draft поля новой статьи. Владелец в Draft не передается.
type Draft struct {
	Title           string
	PublicationDate string
	Abstract        string
	Journal         string
	DOI             string
	Authors         []string
	Keywords        []string
	Pages           []string
}

// Patch частичное обновление: nil означает "не менять"
type Patch struct {
	Title           *string
	PublicationDate *string
	Abstract        *string
	Journal         *string
	DOI             *string
	Authors         *[]string
	Keywords        *[]string
	Pages           *[]string
}

// Service операции со статьями с проверкой владельца
type Service struct {
	store storage.ArticleStorage
	now   func() time.Time
}

// NewService создает сервис статей
func NewService(store storage.ArticleStorage) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// List возвращает все статьи пользователя
func (s *Service) List(ctx context.Context, userID string) ([]*models.Article, error) {
	list, err := s.store.ListArticles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return list, nil
}

// Get возвращает статью пользователя.
// Чужая статья неотличима от несуществующей.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Article, error) {
	a, err := s.store.GetArticle(ctx, userID, strings.TrimSpace(id))
	if err != nil {
		return nil, mapStorageError(err, "failed to get article")
	}
	return a, nil
}

// Create создает статью; владелец всегда userID
func (s *Service) Create(ctx context.Context, userID string, d Draft) (*models.Article, error) {
	pubDate, err := validation.ParsePublicationDate(d.PublicationDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	now := s.now().UTC().Truncate(time.Second)
	a := &models.Article{
		ID:              uuid.New().String(),
		OwnerID:         userID,
		Title:           strings.TrimSpace(d.Title),
		Authors:         validation.CleanList(d.Authors),
		PublicationDate: pubDate,
		Keywords:        validation.CleanList(d.Keywords),
		Abstract:        strings.TrimSpace(d.Abstract),
		Journal:         strings.TrimSpace(d.Journal),
		DOI:             strings.TrimSpace(d.DOI),
		Pages:           validation.CleanList(d.Pages),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := validateArticle(a); err != nil {
		return nil, err
	}

	if err := s.store.CreateArticle(ctx, a); err != nil {
		return nil, mapStorageError(err, "failed to create article")
	}

	return a, nil
}

// Update применяет частичное обновление к статье пользователя.
// Владелец не меняется; при конкурентных правках побеждает последняя запись.
func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (*models.Article, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Authors != nil {
		a.Authors = validation.CleanList(*p.Authors)
	}
	if p.PublicationDate != nil {
		pubDate, err := validation.ParsePublicationDate(*p.PublicationDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		a.PublicationDate = pubDate
	}
	if p.Keywords != nil {
		a.Keywords = validation.CleanList(*p.Keywords)
	}
	if p.Abstract != nil {
		a.Abstract = strings.TrimSpace(*p.Abstract)
	}
	if p.Journal != nil {
		a.Journal = strings.TrimSpace(*p.Journal)
	}
	if p.DOI != nil {
		a.DOI = strings.TrimSpace(*p.DOI)
	}
	if p.Pages != nil {
		a.Pages = validation.CleanList(*p.Pages)
	}

	if err := validateArticle(a); err != nil {
		return nil, err
	}

	a.OwnerID = userID
	a.UpdatedAt = s.now().UTC().Truncate(time.Second)

	if err := s.store.UpdateArticle(ctx, a); err != nil {
		return nil, mapStorageError(err, "failed to update article")
	}

	return a, nil
}

// Delete удаляет статью пользователя
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteArticle(ctx, userID, strings.TrimSpace(id)); err != nil {
		return mapStorageError(err, "failed to delete article")
	}
	return nil
}

// Search ищет подстроку term без учета регистра в поле field статей пользователя.
// Пустой результат не является ошибкой.
func (s *Service) Search(ctx context.Context, userID, term string, field models.SearchField) ([]*models.Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term cannot be empty", ErrValidation)
	}
	if _, err := storage.SearchColumn(field); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	list, err := s.store.SearchArticles(ctx, userID, field, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	return list, nil
}

func validateArticle(a *models.Article) error {
	if err := validation.ValidateTitle(a.Title); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := validation.ValidateAuthors(a.Authors); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := validation.ValidateDOI(a.DOI); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func mapStorageError(err error, msg string) error {
	switch {
	case errors.Is(err, storage.ErrArticleNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrDuplicateDOI):
		return ErrDuplicateDOI
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
