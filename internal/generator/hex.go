package generator

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

type hexGenerator struct{}

// NewHexGenerator creates a generator producing lowercase hexadecimal values,
// the conventional shape for API keys and webhook signing secrets.
func NewHexGenerator() Generator {
	return &hexGenerator{}
}

// Generate creates a random hexadecimal value of the specified length.
// Returns an error if length is less than 1 or greater than 255.
func (g *hexGenerator) Generate(length int) (string, error) {
	if length < 1 {
		return "", errors.New("length must be at least 1")
	}
	if length > 255 {
		return "", errors.New("length must not exceed 255")
	}

	// One random byte yields two hex digits; round up and trim for odd
	// lengths.
	raw := make([]byte, (length+1)/2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(raw)[:length], nil
}

// Validate checks that the value contains only lowercase hex digits.
func (g *hexGenerator) Validate(value string) error {
	if len(value) == 0 {
		return errors.New("value cannot be empty")
	}

	for _, c := range value {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return errors.New("value must contain only hexadecimal characters [0-9a-f]")
		}
	}

	return nil
}
