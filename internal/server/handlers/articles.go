package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/server/articles"
	"github.com/iudanet/refkeeper/internal/server/session"
	"github.com/iudanet/refkeeper/pkg/api"
)

// ArticleService операции над статьями, всегда в рамках владельца (реализуется articles.Service)
type ArticleService interface {
	List(ctx context.Context, userID string) ([]*models.Article, error)
	Get(ctx context.Context, userID, id string) (*models.Article, error)
	Create(ctx context.Context, userID string, d articles.Draft) (*models.Article, error)
	Update(ctx context.Context, userID, id string, p articles.Patch) (*models.Article, error)
	Delete(ctx context.Context, userID, id string) error
	Search(ctx context.Context, userID, term string, field models.SearchField) ([]*models.Article, error)
}

// ArticlesHandler обрабатывает /articles и /search.
// Каждому HTTP методу соответствует свой обработчик.
type ArticlesHandler struct {
	logger   *slog.Logger
	articles ArticleService
}

// NewArticlesHandler создает ArticlesHandler
func NewArticlesHandler(logger *slog.Logger, service ArticleService) *ArticlesHandler {
	return &ArticlesHandler{
		logger:   logger,
		articles: service,
	}
}

// Get обрабатывает GET /articles[?id=]
func (h *ArticlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		a, err := h.articles.Get(ctx, userID, id)
		if err != nil {
			h.handleError(ctx, w, err, "failed to get article")
			return
		}
		sendJSON(w, h.logger, toAPIArticle(a), http.StatusOK)
		return
	}

	list, err := h.articles.List(ctx, userID)
	if err != nil {
		h.handleError(ctx, w, err, "failed to list articles")
		return
	}

	sendJSON(w, h.logger, toAPIArticles(list), http.StatusOK)
}

// Create обрабатывает POST /articles
// Владелец берется только из сессии, поля владельца в теле игнорируются
func (h *ArticlesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	var req api.ArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode article request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	a, err := h.articles.Create(ctx, userID, articles.Draft{
		Title:           req.Title,
		Authors:         req.Authors,
		PublicationDate: req.PublicationDate,
		Keywords:        req.Keywords,
		Abstract:        req.Abstract,
		Journal:         req.Journal,
		DOI:             req.DOI,
		Pages:           req.Pages,
	})
	if err != nil {
		h.handleError(ctx, w, err, "failed to create article")
		return
	}

	h.logger.InfoContext(ctx, "article created",
		slog.String("user_id", userID),
		slog.String("article_id", a.ID))

	sendJSON(w, h.logger, toAPIArticle(a), http.StatusCreated)
}

// Update обрабатывает PUT /articles?id=
// Частичное обновление: отсутствующие в теле поля не меняются
func (h *ArticlesHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	var req api.ArticlePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode article patch", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	a, err := h.articles.Update(ctx, userID, id, articles.Patch{
		Title:           req.Title,
		Authors:         req.Authors,
		PublicationDate: req.PublicationDate,
		Keywords:        req.Keywords,
		Abstract:        req.Abstract,
		Journal:         req.Journal,
		DOI:             req.DOI,
		Pages:           req.Pages,
	})
	if err != nil {
		h.handleError(ctx, w, err, "failed to update article")
		return
	}

	h.logger.InfoContext(ctx, "article updated",
		slog.String("user_id", userID),
		slog.String("article_id", a.ID))

	sendJSON(w, h.logger, toAPIArticle(a), http.StatusOK)
}

// Delete обрабатывает DELETE /articles?id=
func (h *ArticlesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	if err := h.articles.Delete(ctx, userID, id); err != nil {
		h.handleError(ctx, w, err, "failed to delete article")
		return
	}

	h.logger.InfoContext(ctx, "article deleted",
		slog.String("user_id", userID),
		slog.String("article_id", id))

	sendJSON(w, h.logger, api.MessageResponse{Message: "Article deleted successfully"}, http.StatusOK)
}

// Search обрабатывает GET /search?term=&searchBy=
// Пустой результат отдается как 404
func (h *ArticlesHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	term := strings.TrimSpace(query.Get("term"))
	searchBy := query.Get("searchBy")
	if term == "" || strings.TrimSpace(searchBy) == "" {
		sendError(w, h.logger, "missing search parameters", http.StatusBadRequest)
		return
	}

	field, ok := models.ParseSearchField(searchBy)
	if !ok {
		sendError(w, h.logger, "invalid search type, use title or doi", http.StatusBadRequest)
		return
	}

	list, err := h.articles.Search(ctx, userID, term, field)
	if err != nil {
		h.handleError(ctx, w, err, "failed to search articles")
		return
	}

	if len(list) == 0 {
		sendError(w, h.logger, "no articles found", http.StatusNotFound)
		return
	}

	sendJSON(w, h.logger, toAPIArticles(list), http.StatusOK)
}

// subject возвращает id пользователя, положенный RequireSession
func (h *ArticlesHandler) subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func (h *ArticlesHandler) requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		sendError(w, h.logger, "article id is required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// handleError переводит ошибки articles.Service в HTTP статусы.
// Чужая статья неотличима от отсутствующей.
func (h *ArticlesHandler) handleError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, articles.ErrValidation):
		h.logger.WarnContext(ctx, "invalid article request", slog.Any("error", err))
		sendError(w, h.logger, err.Error(), http.StatusBadRequest)
	case errors.Is(err, articles.ErrDuplicateDOI):
		h.logger.WarnContext(ctx, "duplicate doi")
		sendError(w, h.logger, "article with this doi already exists", http.StatusBadRequest)
	case errors.Is(err, articles.ErrNotFound):
		sendError(w, h.logger, "article not found", http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, msg, slog.Any("error", err))
		sendError(w, h.logger, msgInternalError, http.StatusInternalServerError)
	}
}
