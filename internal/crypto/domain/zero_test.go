package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZero(t *testing.T) {
	t.Run("overwrites all bytes", func(t *testing.T) {
		b := []byte("sensitive key material")
		Zero(b)
		for i := range b {
			require.Zero(t, b[i])
		}
	})

	t.Run("nil slice is a no-op", func(t *testing.T) {
		require.NotPanics(t, func() { Zero(nil) })
	})

	t.Run("empty slice is a no-op", func(t *testing.T) {
		require.NotPanics(t, func() { Zero([]byte{}) })
	})
}
