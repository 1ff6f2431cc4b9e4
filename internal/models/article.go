package models

import (
	"strings"
	"time"
)

// SearchField определяет поле, по которому выполняется поиск статей
type SearchField string

const (
	// SearchByTitle поиск по названию статьи
	SearchByTitle SearchField = "title"
	// SearchByDOI поиск по DOI
	SearchByDOI SearchField = "doi"
)

// ParseSearchField converts the searchBy query value into a SearchField.
func ParseSearchField(s string) (SearchField, bool) {
	switch SearchField(strings.ToLower(strings.TrimSpace(s))) {
	case SearchByTitle:
		return SearchByTitle, true
	case SearchByDOI:
		return SearchByDOI, true
	default:
		return "", false
	}
}

// Article представляет библиографическую запись пользователя.
// OwnerID устанавливается только из проверенного токена и не меняется.
type Article struct {
	PublicationDate time.Time `json:"publication_date"` // дата публикации
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ID              string    `json:"id"`              // UUID статьи
	Title           string    `json:"title"`           // название
	Abstract        string    `json:"abstract"`        // аннотация
	Journal         string    `json:"journal"`         // журнал
	DOI             string    `json:"doi"`             // Digital Object Identifier, глобально уникален
	OwnerID         string    `json:"owner_user_id"`   // ID владельца
	Authors         []string  `json:"authors"`         // авторы в исходном порядке
	Keywords        []string  `json:"keywords"`        // ключевые слова
	Pages           []string  `json:"pages"`           // страницы или диапазоны страниц
}

// OwnedBy reports whether the article belongs to the given user.
func (a *Article) OwnedBy(userID string) bool {
	return a != nil && userID != "" && a.OwnerID == userID
}
