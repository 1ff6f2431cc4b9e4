package api

import "time"

// ArticleRequest тело POST /articles.
// Поля владельца в запросе не предусмотрены: владелец берется из сессии.
type ArticleRequest struct {
	Title           string   `json:"title"`
	PublicationDate string   `json:"publication_date"` // YYYY-MM-DD, YYYY-MM, YYYY или RFC 3339
	Abstract        string   `json:"abstract,omitempty"`
	Journal         string   `json:"journal,omitempty"`
	DOI             string   `json:"doi"`
	Authors         []string `json:"authors"`
	Keywords        []string `json:"keywords,omitempty"`
	Pages           []string `json:"pages,omitempty"`
}

// ArticlePatchRequest тело PUT /articles?id=; отсутствующие поля не меняются
type ArticlePatchRequest struct {
	Title           *string   `json:"title,omitempty"`
	PublicationDate *string   `json:"publication_date,omitempty"`
	Abstract        *string   `json:"abstract,omitempty"`
	Journal         *string   `json:"journal,omitempty"`
	DOI             *string   `json:"doi,omitempty"`
	Authors         *[]string `json:"authors,omitempty"`
	Keywords        *[]string `json:"keywords,omitempty"`
	Pages           *[]string `json:"pages,omitempty"`
}

// Article статья в ответах API
type Article struct {
	PublicationDate time.Time `json:"publication_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	Journal         string    `json:"journal"`
	DOI             string    `json:"doi"`
	OwnerID         string    `json:"owner_user_id"`
	Authors         []string  `json:"authors"`
	Keywords        []string  `json:"keywords"`
	Pages           []string  `json:"pages"`
}
