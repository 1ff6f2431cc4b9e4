package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // регистрирует драйвер "pgx"
	"github.com/pressly/goose/v3"

	"github.com/iudanet/refkeeper/internal/server/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// код ошибки Postgres unique_violation
const uniqueViolation = "23505"

const (
	constraintUsername = "users_username_key"
	constraintDOI      = "articles_doi_key"
)

// Storage represents PostgreSQL storage implementation
type Storage struct {
	db *sql.DB
}

var _ storage.Backend = (*Storage)(nil)

// New opens a PostgreSQL connection pool and applies migrations
func New(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewWithDB(db)

	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// NewWithDB wraps an existing connection without running migrations
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Opener returns a storage.Opener for storage.Lazy
func Opener(dsn string) storage.Opener {
	return func(ctx context.Context) (storage.Backend, error) {
		return New(ctx, dsn)
	}
}

// Ping checks the database connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) runMigrations(ctx context.Context) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// isUniqueViolation проверяет нарушение конкретного UNIQUE ограничения
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
