package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/pkg/api"
)

const msgInternalError = "internal server error"

// maxBodyBytes ограничение размера JSON тела запроса
const maxBodyBytes = 1 << 20

// sendJSON отправляет JSON ответ
func sendJSON(w http.ResponseWriter, logger *slog.Logger, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// decodeJSON читает JSON тело запроса, но не больше maxBodyBytes
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// sendDecodeError отвечает 413 на превышение лимита, иначе 400
func sendDecodeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		sendError(w, logger, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	sendError(w, logger, "invalid request body", http.StatusBadRequest)
}

// sendError отправляет JSON ответ с ошибкой в формате api.ErrorResponse
func sendError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	sendJSON(w, logger, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// MethodNotAllowed отвечает 405 в общем формате ошибок
func MethodNotAllowed(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, logger, "method not allowed", http.StatusMethodNotAllowed)
	})
}

// NotFound отвечает 404 в общем формате ошибок
func NotFound(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, logger, "resource not found", http.StatusNotFound)
	})
}

func toAPIArticle(a *models.Article) api.Article {
	return api.Article{
		ID:              a.ID,
		Title:           a.Title,
		Authors:         nonNil(a.Authors),
		PublicationDate: a.PublicationDate,
		Keywords:        nonNil(a.Keywords),
		Abstract:        a.Abstract,
		Journal:         a.Journal,
		DOI:             a.DOI,
		Pages:           nonNil(a.Pages),
		OwnerID:         a.OwnerID,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toAPIArticles(list []*models.Article) []api.Article {
	out := make([]api.Article, 0, len(list))
	for _, a := range list {
		out = append(out, toAPIArticle(a))
	}
	return out
}

// nonNil чтобы пустые списки сериализовались как [], а не null
func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
