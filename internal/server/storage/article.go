package storage

import (
	"context"

	"github.com/iudanet/refkeeper/internal/models"
)

// ArticleStorage defines interface for article persistence.
// Every read and write is scoped by ownerID inside the query itself:
// an article owned by someone else behaves exactly like a missing one.
type ArticleStorage interface {
	// CreateArticle stores a new article
	// Returns ErrDuplicateDOI if an article with the same DOI exists (for any owner)
	CreateArticle(ctx context.Context, article *models.Article) error

	// GetArticle retrieves a single article of the owner
	// Returns ErrArticleNotFound if article doesn't exist or belongs to another user
	GetArticle(ctx context.Context, ownerID, id string) (*models.Article, error)

	// ListArticles retrieves all articles of the owner
	// Returns empty slice if no articles found
	ListArticles(ctx context.Context, ownerID string) ([]*models.Article, error)

	// UpdateArticle overwrites mutable fields of the owner's article
	// Returns ErrArticleNotFound or ErrDuplicateDOI
	UpdateArticle(ctx context.Context, article *models.Article) error

	// DeleteArticle removes the owner's article
	// Returns ErrArticleNotFound if nothing was deleted
	DeleteArticle(ctx context.Context, ownerID, id string) error

	// SearchArticles returns owner's articles whose field contains term,
	// case-insensitive, term matched literally (no wildcards)
	// Returns empty slice if no articles found
	SearchArticles(ctx context.Context, ownerID string, field models.SearchField, term string) ([]*models.Article, error)
}
