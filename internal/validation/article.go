package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DOIPattern is a loose DOI check: "10." prefix, registrant code, "/", suffix.
var DOIPattern = regexp.MustCompile(`^10\.[^/\s]+/\S+$`)

// publicationDateLayouts are tried in order when parsing publication_date.
var publicationDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
}

// ValidateDOI проверяет формат DOI
func ValidateDOI(doi string) error {
	if doi == "" {
		return fmt.Errorf("doi cannot be empty")
	}
	if !DOIPattern.MatchString(doi) {
		return fmt.Errorf("doi must look like 10.<registrant>/<suffix>")
	}
	return nil
}

// ValidateTitle проверяет название статьи
func ValidateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return nil
}

// ValidateAuthors требует хотя бы одного непустого автора
func ValidateAuthors(authors []string) error {
	if len(authors) == 0 {
		return fmt.Errorf("at least one author is required")
	}
	for i, a := range authors {
		if a == "" {
			return fmt.Errorf("author #%d cannot be empty", i+1)
		}
	}
	return nil
}

// ParsePublicationDate accepts RFC 3339 timestamps and the shorter
// YYYY-MM-DD, YYYY-MM and YYYY forms. The result is in UTC.
func ParsePublicationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("publication_date cannot be empty")
	}
	for _, layout := range publicationDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("publication_date %q is not a valid date", s)
}

// CleanList trims every element and drops the empty ones.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
