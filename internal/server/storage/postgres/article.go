package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
)

const articleColumns = `id, user_id, title, authors, publication_date, keywords, abstract, journal, doi, pages, created_at, updated_at`

// CreateArticle stores a new article
func (s *Storage) CreateArticle(ctx context.Context, article *models.Article) error {
	lists, err := storage.EncodeArticleLists(article)
	if err != nil {
		return err
	}

	query := `INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6::jsonb, $7, $8, $9, $10::jsonb, $11, $12)`

	_, err = s.db.ExecContext(ctx, query,
		article.ID,
		article.OwnerID,
		article.Title,
		lists.Authors,
		article.PublicationDate,
		lists.Keywords,
		article.Abstract,
		article.Journal,
		article.DOI,
		lists.Pages,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, constraintDOI) {
			return storage.ErrDuplicateDOI
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// GetArticle retrieves a single article of the owner
func (s *Storage) GetArticle(ctx context.Context, ownerID, id string) (*models.Article, error) {
	if !isUUID(id) || !isUUID(ownerID) {
		return nil, storage.ErrArticleNotFound
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 AND user_id = $2`

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrArticleNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return article, nil
}

// ListArticles retrieves all articles of the owner
func (s *Storage) ListArticles(ctx context.Context, ownerID string) ([]*models.Article, error) {
	if !isUUID(ownerID) {
		return []*models.Article{}, nil
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// UpdateArticle overwrites mutable fields of the owner's article
func (s *Storage) UpdateArticle(ctx context.Context, article *models.Article) error {
	if !isUUID(article.ID) || !isUUID(article.OwnerID) {
		return storage.ErrArticleNotFound
	}

	lists, err := storage.EncodeArticleLists(article)
	if err != nil {
		return err
	}

	query := `UPDATE articles
		SET title = $1, authors = $2::jsonb, publication_date = $3, keywords = $4::jsonb,
		    abstract = $5, journal = $6, doi = $7, pages = $8::jsonb, updated_at = $9
		WHERE id = $10 AND user_id = $11`

	result, err := s.db.ExecContext(ctx, query,
		article.Title,
		lists.Authors,
		article.PublicationDate,
		lists.Keywords,
		article.Abstract,
		article.Journal,
		article.DOI,
		lists.Pages,
		article.UpdatedAt,
		article.ID,
		article.OwnerID,
	)
	if err != nil {
		if isUniqueViolation(err, constraintDOI) {
			return storage.ErrDuplicateDOI
		}
		return fmt.Errorf("db error: %w", err)
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
	if !isUUID(id) || !isUUID(ownerID) {
		return storage.ErrArticleNotFound
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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
	if !isUUID(ownerID) {
		return []*models.Article{}, nil
	}

	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE user_id = $1 AND ` + column + ` ILIKE '%' || $2 || '%' ESCAPE '\'
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID, storage.EscapeLike(term))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
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

	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Title,
		&authors,
		&a.PublicationDate,
		&keywords,
		&a.Abstract,
		&a.Journal,
		&a.DOI,
		&pages,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := storage.DecodeArticleLists(a, authors, keywords, pages); err != nil {
		return nil, err
	}

	a.PublicationDate = a.PublicationDate.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	return a, nil
}

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
