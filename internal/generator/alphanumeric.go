package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type alphanumericGenerator struct{}

// NewAlphanumericGenerator creates a generator producing cryptographically
// secure random values using [A-Za-z0-9].
func NewAlphanumericGenerator() Generator {
	return &alphanumericGenerator{}
}

// Generate creates a random alphanumeric value of the specified length.
// Returns an error if length is less than 1 or greater than 255.
func (g *alphanumericGenerator) Generate(length int) (string, error) {
	if length < 1 {
		return "", errors.New("length must be at least 1")
	}
	if length > 255 {
		return "", errors.New("length must not exceed 255")
	}

	value := make([]byte, length)
	charsLen := big.NewInt(int64(len(alphanumericChars)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		value[i] = alphanumericChars[n.Int64()]
	}

	return string(value), nil
}

// Validate checks that the value contains only alphanumeric characters.
func (g *alphanumericGenerator) Validate(value string) error {
	if len(value) == 0 {
		return errors.New("value cannot be empty")
	}

	for _, c := range value {
		if !isAlphanumeric(c) {
			return errors.New("value must contain only alphanumeric characters [A-Za-z0-9]")
		}
	}

	return nil
}

func isAlphanumeric(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
