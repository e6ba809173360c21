package keyring

import (
	"github.com/envlock/envlock/internal/errors"
)

// Key provisioning error definitions.
var (
	// ErrKeyMissing indicates no master key file exists and the environment
	// forbids auto-generation. Production and staging never self-provision keys.
	ErrKeyMissing = errors.Wrap(errors.ErrNotFound, "master key missing")

	// ErrKeyInvalid indicates a key file was found but failed format, length,
	// or round-trip validation.
	ErrKeyInvalid = errors.Wrap(errors.ErrInvalidInput, "master key invalid")
)
