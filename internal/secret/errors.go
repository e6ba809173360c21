package secret

import (
	"github.com/envlock/envlock/internal/errors"
)

// Secret-specific error definitions.
var (
	// ErrSecretNotFound indicates no secret is stored under the requested name.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrPassthroughForbidden indicates an unencrypted passthrough store was
	// requested in an environment that requires real encryption.
	ErrPassthroughForbidden = errors.Wrap(errors.ErrUnavailable, "passthrough store forbidden outside development")
)
