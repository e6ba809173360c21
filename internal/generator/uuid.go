package generator

import (
	"errors"

	"github.com/google/uuid"
)

type uuidGenerator struct{}

// NewUUIDGenerator creates a generator producing random UUIDv4 values. Time
// ordered UUID versions would leak the generation timestamp, so secrets use
// the fully random version.
func NewUUIDGenerator() Generator {
	return &uuidGenerator{}
}

// Generate creates a new random UUID. The length parameter is ignored.
func (g *uuidGenerator) Generate(length int) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Validate checks if the value is a valid UUID format.
func (g *uuidGenerator) Validate(value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return errors.New("invalid UUID format")
	}
	return nil
}
