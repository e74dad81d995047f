package types

import "errors"

// Domain errors shared across packages
var (
	// Docset errors
	ErrInvalidDocset      = errors.New("invalid docset")
	ErrDocsetNotFound     = errors.New("docset not found")
	ErrURLOutsideOfDocset = errors.New("url does not belong to docset")

	// Search errors
	ErrEmptyQuery      = errors.New("query cannot be empty")
	ErrMissingDocset   = errors.New("search result has no docset")
	ErrEmptyResultName = errors.New("search result name cannot be empty")
)
