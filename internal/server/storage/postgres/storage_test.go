package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/storage"
)

func newStorageWithMock(t *testing.T) (*Storage, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewWithDB(db), mock, db
}

var articleRowColumns = []string{
	"id", "user_id", "title", "authors", "publication_date", "keywords",
	"abstract", "journal", "doi", "pages", "created_at", "updated_at",
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: constraintUsername}

	assert.True(t, isUniqueViolation(dup, constraintUsername))
	assert.True(t, isUniqueViolation(errors.Join(errors.New("wrapped"), dup), constraintUsername))
	assert.False(t, isUniqueViolation(dup, constraintDOI))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: constraintUsername}, constraintUsername))
	assert.False(t, isUniqueViolation(errors.New("db down"), constraintUsername))
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	s := NewWithDB(db)
	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, s.Ping(context.Background()))

	mock.ExpectPing()
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*first_name,\s*last_name,\s*username,\s*password_hash,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)$`

	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Username:     "ada",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("success", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).
			WithArgs(user.ID, "Ada", "Lovelace", "ada", "$2a$10$hash", user.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.CreateUser(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		err := s.CreateUser(context.Background(), user)
		assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	})

	t.Run("db error", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WillReturnError(errors.New("db down"))

		err := s.CreateUser(context.Background(), user)
		require.Error(t, err)
		assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
		assert.NotErrorIs(t, err, storage.ErrUserAlreadyExists)
	})
}

func TestGetUserByUsername(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*first_name,\s*last_name,\s*username,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "username", "password_hash", "created_at"}).
			AddRow("u-1", "Ada", "Lovelace", "ada", "hash", created)
		mock.ExpectQuery(q).WithArgs("ada").WillReturnRows(rows)

		got, err := s.GetUserByUsername(context.Background(), "ada")
		require.NoError(t, err)
		assert.Equal(t, "u-1", got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.True(t, created.Equal(got.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := s.GetUserByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestGetUserByID_InvalidUUID(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	// запрос в базу не должен уходить
	_, err := s.GetUserByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateArticle_DuplicateDOI(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+articles`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "articles_doi_key"})

	err := s.CreateArticle(context.Background(), &models.Article{
		ID:      uuid.New().String(),
		OwnerID: uuid.New().String(),
		Title:   "T",
		Authors: []string{"A"},
		DOI:     "10.1/x",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateDOI)
}

func TestCreateArticle_ListsAsJSON(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	a := &models.Article{
		ID:              uuid.New().String(),
		OwnerID:         uuid.New().String(),
		Title:           "T",
		Authors:         []string{"A", "B"},
		PublicationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		DOI:             "10.1/x",
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+articles.*\$4::jsonb`).
		WithArgs(a.ID, a.OwnerID, "T", `["A","B"]`, a.PublicationDate, `[]`, "", "", "10.1/x", `[]`, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CreateArticle(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetArticle(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+articles\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`
	owner := uuid.New().String()
	id := uuid.New().String()

	t.Run("found", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(articleRowColumns).
			AddRow(id, owner, "T", `["A"]`, ts, `["k"]`, "abs", "J", "10.1/x", `["1"]`, ts, ts)
		mock.ExpectQuery(q).WithArgs(id, owner).WillReturnRows(rows)

		got, err := s.GetArticle(context.Background(), owner, id)
		require.NoError(t, err)
		assert.Equal(t, owner, got.OwnerID)
		assert.Equal(t, []string{"A"}, got.Authors)
		assert.Equal(t, []string{"k"}, got.Keywords)
		assert.Equal(t, []string{"1"}, got.Pages)
	})

	t.Run("not found or foreign", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(id, owner).WillReturnError(sql.ErrNoRows)

		_, err := s.GetArticle(context.Background(), owner, id)
		assert.ErrorIs(t, err, storage.ErrArticleNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		_, err := s.GetArticle(context.Background(), owner, "abc")
		assert.ErrorIs(t, err, storage.ErrArticleNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateArticle_NoRows(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	a := &models.Article{ID: uuid.New().String(), OwnerID: uuid.New().String(), Title: "T", DOI: "10.1/x"}

	mock.ExpectExec(`(?s)^UPDATE\s+articles.*WHERE\s+id\s*=\s*\$10\s+AND\s+user_id\s*=\s*\$11$`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateArticle(context.Background(), a)
	assert.ErrorIs(t, err, storage.ErrArticleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteArticle(t *testing.T) {
	q := `^DELETE\s+FROM\s+articles\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2$`
	owner := uuid.New().String()
	id := uuid.New().String()

	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	mock.ExpectExec(q).WithArgs(id, owner).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.DeleteArticle(context.Background(), owner, id))

	mock.ExpectExec(q).WithArgs(id, owner).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.DeleteArticle(context.Background(), owner, id), storage.ErrArticleNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchArticles(t *testing.T) {
	owner := uuid.New().String()

	t.Run("title with escaped term", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`(?s)WHERE\s+user_id\s*=\s*\$1\s+AND\s+title\s+ILIKE`).
			WithArgs(owner, `100\%`).
			WillReturnRows(sqlmock.NewRows(articleRowColumns))

		list, err := s.SearchArticles(context.Background(), owner, models.SearchByTitle, "100%")
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("doi column", func(t *testing.T) {
		s, mock, db := newStorageWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`(?s)AND\s+doi\s+ILIKE`).
			WithArgs(owner, "10.1038").
			WillReturnRows(sqlmock.NewRows(articleRowColumns))

		_, err := s.SearchArticles(context.Background(), owner, models.SearchByDOI, "10.1038")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown field", func(t *testing.T) {
		s, _, db := newStorageWithMock(t)
		defer db.Close()

		_, err := s.SearchArticles(context.Background(), owner, models.SearchField("abstract"), "x")
		assert.Error(t, err)
	})
}

func TestListArticles(t *testing.T) {
	owner := uuid.New().String()
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(articleRowColumns).
		AddRow(uuid.New().String(), owner, "One", `["A"]`, ts, `[]`, "", "", "10.1/1", `[]`, ts, ts).
		AddRow(uuid.New().String(), owner, "Two", `["B"]`, ts, `[]`, "", "", "10.1/2", `[]`, ts, ts)
	mock.ExpectQuery(`(?s)FROM\s+articles\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY`).
		WithArgs(owner).
		WillReturnRows(rows)

	list, err := s.ListArticles(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "One", list[0].Title)
	assert.Equal(t, "Two", list[1].Title)
}
