package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrArticleNotFound indicates that article was not found for this owner
	ErrArticleNotFound = errors.New("article not found")

	// ErrDuplicateDOI indicates that an article with this DOI already exists
	ErrDuplicateDOI = errors.New("article with this doi already exists")

	// ErrUnavailable indicates that the backend could not be opened
	ErrUnavailable = errors.New("storage unavailable")
)
