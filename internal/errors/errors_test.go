package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "secret lookup")
		require.Error(t, err)
		require.True(t, Is(err, ErrNotFound))
		require.Equal(t, "secret lookup: not found", err.Error())
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		require.NoError(t, Wrap(nil, "context"))
	})

	t.Run("wrapping preserves chain through multiple layers", func(t *testing.T) {
		err := Wrap(Wrap(ErrInvalidInput, "inner"), "outer")
		require.True(t, Is(err, ErrInvalidInput))
		require.Equal(t, "outer: inner: invalid input", err.Error())
	})
}

func TestIs(t *testing.T) {
	err := Wrap(ErrUnavailable, "encryption not initialized")
	require.True(t, Is(err, ErrUnavailable))
	require.False(t, Is(err, ErrConflict))
}
