package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
)

const articleColumns = `
	id, user_id, title, authors, publication_date, keywords,
	abstract, journal, doi, pages, created_at, updated_at`

// CreateArticle stores a new article
func (s *Storage) CreateArticle(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	lists, err := storage.EncodeArticleLists(article)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query,
		article.ID,
		article.OwnerID,
		article.Title,
		lists.Authors,
		timeToUnix(article.PublicationDate),
		lists.Keywords,
		article.Abstract,
		article.Journal,
		article.DOI,
		lists.Pages,
		timeToUnix(article.CreatedAt),
		timeToUnix(article.UpdatedAt),
	)

	if err != nil {
		if isUniqueViolation(err, "articles.doi") {
			return storage.ErrDuplicateDOI
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}

	return nil
}

// GetArticle retrieves a single article of the owner
func (s *Storage) GetArticle(ctx context.Context, ownerID, id string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ? AND user_id = ?`

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

// ListArticles retrieves all articles of the owner
func (s *Storage) ListArticles(ctx context.Context, ownerID string) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE user_id = ? ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// UpdateArticle overwrites mutable fields of the owner's article
func (s *Storage) UpdateArticle(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles
		SET title = ?, authors = ?, publication_date = ?, keywords = ?,
		    abstract = ?, journal = ?, doi = ?, pages = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	lists, err := storage.EncodeArticleLists(article)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query,
		article.Title,
		lists.Authors,
		timeToUnix(article.PublicationDate),
		lists.Keywords,
		article.Abstract,
		article.Journal,
		article.DOI,
		lists.Pages,
		timeToUnix(article.UpdatedAt),
		article.ID,
		article.OwnerID,
	)

	if err != nil {
		if isUniqueViolation(err, "articles.doi") {
			return storage.ErrDuplicateDOI
		}
		return fmt.Errorf("failed to update article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrArticleNotFound
	}

	return nil
}

// DeleteArticle removes the owner's article
func (s *Storage) DeleteArticle(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM articles WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrArticleNotFound
	}

	return nil
}

// SearchArticles returns owner's articles whose field contains term
func (s *Storage) SearchArticles(ctx context.Context, ownerID string, field models.SearchField, term string) ([]*models.Article, error) {
	column, err := storage.SearchColumn(field)
	if err != nil {
		return nil, err
	}

	// обе стороны LIKE приводятся к нижнему регистру одинаково, через strings.ToLower
	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE user_id = ? AND ` + unicodeLowerFunc + `(` + column + `) LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID, storage.EscapeLike(strings.ToLower(term)))
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	a := &models.Article{}
	var authors, keywords, pages string
	var publicationDate, createdAt, updatedAt int64

	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Title,
		&authors,
		&publicationDate,
		&keywords,
		&a.Abstract,
		&a.Journal,
		&a.DOI,
		&pages,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := storage.DecodeArticleLists(a, authors, keywords, pages); err != nil {
		return nil, err
	}

	a.PublicationDate = unixToTime(publicationDate)
	a.CreatedAt = unixToTime(createdAt)
	a.UpdatedAt = unixToTime(updatedAt)

	return a, nil
}

// scanArticles is a helper function to scan multiple articles from rows
func scanArticles(rows *sql.Rows) ([]*models.Article, error) {
	articles := []*models.Article{}

	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return articles, nil
}
