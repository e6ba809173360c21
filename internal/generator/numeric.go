package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

type numericGenerator struct{}

// NewNumericGenerator creates a generator producing cryptographically secure
// random digit strings, suitable for PINs and one-time codes.
func NewNumericGenerator() Generator {
	return &numericGenerator{}
}

// Generate creates a random numeric value of the specified length.
// Returns an error if length is less than 1 or greater than 255.
func (g *numericGenerator) Generate(length int) (string, error) {
	if length < 1 {
		return "", errors.New("length must be at least 1")
	}
	if length > 255 {
		return "", errors.New("length must not exceed 255")
	}

	value := make([]byte, length)
	ten := big.NewInt(10)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		value[i] = byte('0' + n.Int64())
	}

	return string(value), nil
}

// Validate checks that the value contains only digits.
func (g *numericGenerator) Validate(value string) error {
	if len(value) == 0 {
		return errors.New("value cannot be empty")
	}

	for _, c := range value {
		if c < '0' || c > '9' {
			return errors.New("value must contain only digits [0-9]")
		}
	}

	return nil
}
