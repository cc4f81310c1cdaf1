// Package shortcode generates random, URL-safe short codes.
package shortcode

import (
	"crypto/rand"
	"fmt"
)

// charset is the alphabet codes are drawn from. 62 symbols keeps codes
// copy-paste safe in any context a URL can appear in.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength matches the length shortid-style generators produce.
const DefaultLength = 7

// Generator produces random short codes of a fixed length.
type Generator struct {
	length int
}

// NewGenerator creates a Generator. Lengths below 4 are raised to
// DefaultLength; a tiny code space would make collision retries routine
// instead of astronomically unlikely.
func NewGenerator(length int) *Generator {
	if length < 4 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Next returns a new random code. Randomness comes from crypto/rand so
// codes are not guessable from previous ones.
func (g *Generator) Next() (string, error) {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = charset[int(b)%len(charset)]
	}
	return string(buf), nil
}

// Length returns the configured code length.
func (g *Generator) Length() int { return g.length }
