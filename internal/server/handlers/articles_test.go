package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/articles"
	"github.com/iudanet/refkeeper/internal/server/storage/memory"
	"github.com/iudanet/refkeeper/pkg/api"
)

type articlesFixture struct {
	handler *ArticlesHandler
	alice   *models.User
	bob     *models.User
}

func setupArticles(t *testing.T) *articlesFixture {
	t.Helper()
	store := memory.New()
	userSvc := newUserService(store)
	return &articlesFixture{
		handler: NewArticlesHandler(setupTestLogger(), articles.NewService(store)),
		alice:   registerUser(t, userSvc, "alice"),
		bob:     registerUser(t, userSvc, "bob"),
	}
}

func validArticle(doi string) api.ArticleRequest {
	return api.ArticleRequest{
		Title:           "Quantum Error Correction",
		Authors:         []string{"Shor, P.", "Steane, A."},
		PublicationDate: "1995-10-01",
		Keywords:        []string{"quantum", "codes"},
		Journal:         "Phys. Rev. A",
		DOI:             doi,
		Pages:           []string{"2493-2496"},
	}
}

func (f *articlesFixture) create(t *testing.T, u *models.User, req api.ArticleRequest) api.Article {
	t.Helper()
	w := httptest.NewRecorder()
	f.handler.Create(w, asUser(httptest.NewRequest(http.MethodPost, "/articles", jsonBody(t, req)), u))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var a api.Article
	require.NoError(t, json.NewDecoder(w.Body).Decode(&a))
	return a
}

func TestArticlesHandler_Create(t *testing.T) {
	f := setupArticles(t)

	t.Run("owner comes from session", func(t *testing.T) {
		body := `{"title":"T","authors":["A"],"publication_date":"2020","doi":"10.1/x",` +
			`"owner_user_id":"` + f.bob.ID + `","user":"` + f.bob.ID + `"}`
		w := httptest.NewRecorder()
		f.handler.Create(w, asUser(httptest.NewRequest(http.MethodPost, "/articles", strings.NewReader(body)), f.alice))

		require.Equal(t, http.StatusCreated, w.Code)
		var a api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&a))
		assert.Equal(t, f.alice.ID, a.OwnerID)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, []string{"A"}, a.Authors)
		assert.Equal(t, []string{}, a.Keywords)
	})

	tests := []struct {
		name   string
		mutate func(*api.ArticleRequest)
	}{
		{name: "missing title", mutate: func(r *api.ArticleRequest) { r.Title = "" }},
		{name: "no authors", mutate: func(r *api.ArticleRequest) { r.Authors = nil }},
		{name: "blank authors", mutate: func(r *api.ArticleRequest) { r.Authors = []string{" "} }},
		{name: "missing doi", mutate: func(r *api.ArticleRequest) { r.DOI = "" }},
		{name: "malformed doi", mutate: func(r *api.ArticleRequest) { r.DOI = "not-a-doi" }},
		{name: "missing publication date", mutate: func(r *api.ArticleRequest) { r.PublicationDate = "" }},
		{name: "bad publication date", mutate: func(r *api.ArticleRequest) { r.PublicationDate = "yesterday" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validArticle("10.1000/" + strings.ReplaceAll(tt.name, " ", "-"))
			tt.mutate(&req)

			w := httptest.NewRecorder()
			f.handler.Create(w, asUser(httptest.NewRequest(http.MethodPost, "/articles", jsonBody(t, req)), f.alice))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Bad Request", decodeError(t, w).Error)
		})
	}

	t.Run("duplicate doi across users", func(t *testing.T) {
		f.create(t, f.alice, validArticle("10.1000/dup"))

		w := httptest.NewRecorder()
		f.handler.Create(w, asUser(httptest.NewRequest(http.MethodPost, "/articles", jsonBody(t, validArticle("10.1000/dup"))), f.bob))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "article with this doi already exists", decodeError(t, w).Message)
	})

	t.Run("no session", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.handler.Create(w, httptest.NewRequest(http.MethodPost, "/articles", jsonBody(t, validArticle("10.1000/nosess"))))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestArticlesHandler_Get(t *testing.T) {
	f := setupArticles(t)
	a1 := f.create(t, f.alice, validArticle("10.1000/a1"))
	a2 := f.create(t, f.alice, validArticle("10.1000/a2"))
	b1 := f.create(t, f.bob, validArticle("10.1000/b1"))

	t.Run("list returns only own articles", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.handler.Get(w, asUser(httptest.NewRequest(http.MethodGet, "/articles", nil), f.alice))

		require.Equal(t, http.StatusOK, w.Code)
		var list []api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))

		ids := make([]string, 0, len(list))
		for _, a := range list {
			ids = append(ids, a.ID)
		}
		assert.ElementsMatch(t, []string{a1.ID, a2.ID}, ids)
		assert.NotContains(t, ids, b1.ID)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		store := memory.New()
		u := registerUser(t, newUserService(store), "carol")
		h := NewArticlesHandler(setupTestLogger(), articles.NewService(store))

		w := httptest.NewRecorder()
		h.Get(w, asUser(httptest.NewRequest(http.MethodGet, "/articles", nil), u))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("single own article", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.handler.Get(w, asUser(httptest.NewRequest(http.MethodGet, "/articles?id="+a1.ID, nil), f.alice))

		require.Equal(t, http.StatusOK, w.Code)
		var got api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, a1.ID, got.ID)
		assert.Equal(t, "10.1000/a1", got.DOI)
	})

	t.Run("foreign article is not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.handler.Get(w, asUser(httptest.NewRequest(http.MethodGet, "/articles?id="+b1.ID, nil), f.alice))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "article not found", decodeError(t, w).Message)
	})

	t.Run("absent article is not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		f.handler.Get(w, asUser(httptest.NewRequest(http.MethodGet, "/articles?id=missing", nil), f.alice))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestArticlesHandler_Update(t *testing.T) {
	f := setupArticles(t)
	a := f.create(t, f.alice, validArticle("10.1000/upd"))
	f.create(t, f.alice, validArticle("10.1000/other"))

	put := func(u *models.User, target, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		f.handler.Update(w, asUser(httptest.NewRequest(http.MethodPut, target, strings.NewReader(body)), u))
		return w
	}

	t.Run("partial update keeps other fields", func(t *testing.T) {
		w := put(f.alice, "/articles?id="+a.ID, `{"title":"Renamed","owner_user_id":"`+f.bob.ID+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var got api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, a.Authors, got.Authors)
		assert.Equal(t, a.DOI, got.DOI)
		assert.Equal(t, f.alice.ID, got.OwnerID)
	})

	t.Run("missing id", func(t *testing.T) {
		w := put(f.alice, "/articles", `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "article id is required", decodeError(t, w).Message)
	})

	t.Run("foreign article", func(t *testing.T) {
		w := put(f.bob, "/articles?id="+a.ID, `{"title":"hijack"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid field", func(t *testing.T) {
		w := put(f.alice, "/articles?id="+a.ID, `{"authors":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("doi taken by another article", func(t *testing.T) {
		w := put(f.alice, "/articles?id="+a.ID, `{"doi":"10.1000/other"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := put(f.alice, "/articles?id="+a.ID, `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestArticlesHandler_Delete(t *testing.T) {
	f := setupArticles(t)
	a := f.create(t, f.alice, validArticle("10.1000/del"))

	del := func(u *models.User, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		f.handler.Delete(w, asUser(httptest.NewRequest(http.MethodDelete, target, nil), u))
		return w
	}

	assert.Equal(t, http.StatusBadRequest, del(f.alice, "/articles").Code)
	assert.Equal(t, http.StatusNotFound, del(f.bob, "/articles?id="+a.ID).Code)

	w := del(f.alice, "/articles?id="+a.ID)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Article deleted successfully", resp.Message)

	assert.Equal(t, http.StatusNotFound, del(f.alice, "/articles?id="+a.ID).Code)
}

func TestArticlesHandler_Search(t *testing.T) {
	f := setupArticles(t)

	quant := validArticle("10.1000/q1")
	quant.Title = "Introduction to QUANTum computing"
	f.create(t, f.alice, quant)

	classical := validArticle("10.1000/c1")
	classical.Title = "Classical mechanics"
	f.create(t, f.alice, classical)

	foreign := validArticle("10.2000/secret")
	foreign.Title = "Bob's quantum notes"
	f.create(t, f.bob, foreign)

	search := func(u *models.User, query string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		f.handler.Search(w, asUser(httptest.NewRequest(http.MethodGet, "/search?"+query, nil), u))
		return w
	}

	t.Run("title case insensitive and owner filtered", func(t *testing.T) {
		w := search(f.alice, "term=quant&searchBy=title")
		require.Equal(t, http.StatusOK, w.Code)

		var list []api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
		require.Len(t, list, 1)
		assert.Equal(t, "10.1000/q1", list[0].DOI)
	})

	t.Run("by doi", func(t *testing.T) {
		w := search(f.alice, "term=10.1000&searchBy=doi")
		require.Equal(t, http.StatusOK, w.Code)

		var list []api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
		assert.Len(t, list, 2)
	})

	t.Run("term present only in another user's article", func(t *testing.T) {
		w := search(f.alice, "term=secret&searchBy=doi")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no articles found", decodeError(t, w).Message)
	})

	for name, query := range map[string]string{
		"missing term":     "searchBy=title",
		"missing searchBy": "term=quant",
		"invalid searchBy": "term=quant&searchBy=abstract",
		"blank term":       "term=%20%20&searchBy=title",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, search(f.alice, query).Code)
		})
	}
}

// brokenArticles эмулирует недоступное хранилище
type brokenArticles struct {
	ArticleService
}

func (brokenArticles) List(context.Context, string) ([]*models.Article, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestArticlesHandler_StoreError(t *testing.T) {
	h := NewArticlesHandler(setupTestLogger(), brokenArticles{})
	user := &models.User{ID: "u1", Username: "alice"}

	w := httptest.NewRecorder()
	h.Get(w, asUser(httptest.NewRequest(http.MethodGet, "/articles", nil), user))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "internal server error", resp.Message)
}
