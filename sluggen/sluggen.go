// Package sluggen generates short link identifiers for create requests that
// do not bring their own. Generators are safe for concurrent use.
package sluggen

import (
	"crypto/rand"
	"errors"
	"io"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// maxUnbiased is the largest multiple of len(base62Chars) that fits in a
	// byte; random bytes at or above it are discarded so every character is
	// equally likely.
	maxUnbiased = 256 - 256%len(base62Chars)
)

// Generator generates short link identifiers.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

// base62Generator implements Generator using base62 encoding.
type base62Generator struct {
	rand io.Reader
}

// NewBase62 returns a new base62 identifier generator backed by crypto/rand.
func NewBase62() Generator {
	return &base62Generator{rand: rand.Reader}
}

// Generate generates a random base62 string of the specified length.
func (g *base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(out) < length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, base62Chars[int(b)%len(base62Chars)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
