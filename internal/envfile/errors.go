package envfile

import "github.com/envlock/envlock/internal/errors"

var (
	// ErrInvalidEnvelope indicates a value that looks like an encrypted
	// envelope but whose payload is not valid.
	ErrInvalidEnvelope = errors.Wrap(errors.ErrInvalidInput, "invalid encrypted envelope")

	// ErrParseFailed indicates the configuration file could not be parsed.
	// A malformed line fails the whole load: a partially applied environment
	// is worse than an explicit startup failure.
	ErrParseFailed = errors.Wrap(errors.ErrInvalidInput, "failed to parse env file")
)
