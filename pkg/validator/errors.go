package validator

import "errors"

var (
	ErrEmptyURL          = errors.New("URL cannot be empty")
	ErrInvalidURL        = errors.New("invalid URL format")
	ErrRelativeURL       = errors.New("URL must be absolute")
	ErrInvalidCodeLength = errors.New("short code must be 3-32 characters")
	ErrInvalidCodeFormat = errors.New("short code must be alphanumeric with optional hyphens and underscores")
)
