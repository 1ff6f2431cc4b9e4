package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iudanet/refkeeper/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike экранирует спецсимволы LIKE (escape-символ '\'),
// чтобы поисковая строка сравнивалась буквально
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SearchColumn возвращает колонку для поля поиска.
// Имя колонки подставляется в SQL, поэтому допустимы только известные значения.
func SearchColumn(field models.SearchField) (string, error) {
	switch field {
	case models.SearchByTitle:
		return "title", nil
	case models.SearchByDOI:
		return "doi", nil
	default:
		return "", fmt.Errorf("unsupported search field %q", field)
	}
}

// EncodeList сериализует список в JSON массив; nil сохраняется как []
func EncodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeList разбирает JSON массив; пустая строка дает пустой список
func DecodeList(s string) ([]string, error) {
	items := []string{}
	if s == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EncodedLists списки статьи в виде JSON
type EncodedLists struct {
	Authors  string
	Keywords string
	Pages    string
}

// EncodeArticleLists сериализует все списки статьи
func EncodeArticleLists(a *models.Article) (EncodedLists, error) {
	var out EncodedLists
	var err error

	if out.Authors, err = EncodeList(a.Authors); err != nil {
		return out, fmt.Errorf("failed to encode authors: %w", err)
	}
	if out.Keywords, err = EncodeList(a.Keywords); err != nil {
		return out, fmt.Errorf("failed to encode keywords: %w", err)
	}
	if out.Pages, err = EncodeList(a.Pages); err != nil {
		return out, fmt.Errorf("failed to encode pages: %w", err)
	}

	return out, nil
}

// DecodeArticleLists заполняет списки статьи из JSON
func DecodeArticleLists(a *models.Article, authors, keywords, pages string) error {
	var err error

	if a.Authors, err = DecodeList(authors); err != nil {
		return fmt.Errorf("failed to decode authors: %w", err)
	}
	if a.Keywords, err = DecodeList(keywords); err != nil {
		return fmt.Errorf("failed to decode keywords: %w", err)
	}
	if a.Pages, err = DecodeList(pages); err != nil {
		return fmt.Errorf("failed to decode pages: %w", err)
	}

	return nil
}
