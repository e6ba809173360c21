package rotation

import "github.com/envlock/envlock/internal/errors"

var (
	// ErrRotationAborted indicates the staging phase failed and nothing in the
	// live store or on disk was modified.
	ErrRotationAborted = errors.Wrap(errors.ErrUnavailable, "rotation aborted")

	// ErrSignatureInvalid indicates a rotation record whose signature does not
	// match its contents.
	ErrSignatureInvalid = errors.Wrap(errors.ErrInvalidInput, "rotation record signature invalid")
)
