package validator

import (
	"net/url"
	"strings"
)

// ValidateURL checks that a destination URL is a well-formed absolute URL.
// Validity is purely syntactic: any parseable URL with a scheme passes, so
// unusual-but-well-formed schemes like ftp are accepted while strings that
// do not parse (or carry no scheme) are rejected.
func ValidateURL(urlStr string) error {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return ErrEmptyURL
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme == "" {
		return ErrRelativeURL
	}

	return nil
}

// IsValidURL is the boolean form of ValidateURL.
func IsValidURL(urlStr string) bool {
	return ValidateURL(urlStr) == nil
}

// ValidateShortCode checks that a caller-supplied custom code is usable as
// a path segment: 3-32 characters, alphanumeric plus hyphen and underscore.
func ValidateShortCode(code string) error {
	if len(code) < 3 || len(code) > 32 {
		return ErrInvalidCodeLength
	}
	for _, char := range code {
		if !isAlphanumeric(char) && char != '-' && char != '_' {
			return ErrInvalidCodeFormat
		}
	}
	return nil
}

func isAlphanumeric(char rune) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9')
}
