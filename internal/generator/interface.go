// Package generator provides cryptographically secure secret generation in
// several formats. Generators draw from crypto/rand and reject no character
// with bias.
package generator

import "github.com/envlock/envlock/internal/errors"

// ErrUnknownGenerator indicates a format name with no registered generator.
var ErrUnknownGenerator = errors.Wrap(errors.ErrNotFound, "unknown generator format")

// Generator defines the interface for secret generation.
type Generator interface {
	Generate(length int) (string, error)
	Validate(value string) error
}
