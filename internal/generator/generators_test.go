package generator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAlphanumericGenerator(t *testing.T) {
	g := NewAlphanumericGenerator()

	t.Run("generates requested length", func(t *testing.T) {
		value, err := g.Generate(32)
		require.NoError(t, err)
		require.Len(t, value, 32)
		require.NoError(t, g.Validate(value))
	})

	t.Run("rejects invalid lengths", func(t *testing.T) {
		_, err := g.Generate(0)
		require.Error(t, err)
		_, err = g.Generate(256)
		require.Error(t, err)
	})

	t.Run("values differ", func(t *testing.T) {
		a, err := g.Generate(32)
		require.NoError(t, err)
		b, err := g.Generate(32)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("validate rejects other characters", func(t *testing.T) {
		require.Error(t, g.Validate("with-dash"))
		require.Error(t, g.Validate(""))
	})
}

func TestNumericGenerator(t *testing.T) {
	g := NewNumericGenerator()

	value, err := g.Generate(8)
	require.NoError(t, err)
	require.Len(t, value, 8)
	require.NoError(t, g.Validate(value))

	require.Error(t, g.Validate("12a4"))
	require.Error(t, g.Validate(""))

	_, err = g.Generate(0)
	require.Error(t, err)
}

func TestHexGenerator(t *testing.T) {
	g := NewHexGenerator()

	t.Run("even length", func(t *testing.T) {
		value, err := g.Generate(64)
		require.NoError(t, err)
		require.Len(t, value, 64)
		require.NoError(t, g.Validate(value))
	})

	t.Run("odd length", func(t *testing.T) {
		value, err := g.Generate(33)
		require.NoError(t, err)
		require.Len(t, value, 33)
		require.NoError(t, g.Validate(value))
	})

	t.Run("validate rejects uppercase", func(t *testing.T) {
		require.Error(t, g.Validate("ABCDEF"))
	})

	t.Run("rejects invalid lengths", func(t *testing.T) {
		_, err := g.Generate(-1)
		require.Error(t, err)
	})
}

func TestUUIDGenerator(t *testing.T) {
	g := NewUUIDGenerator()

	value, err := g.Generate(0)
	require.NoError(t, err)
	require.NoError(t, g.Validate(value))

	id, err := uuid.Parse(value)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(4), id.Version())

	require.Error(t, g.Validate("not-a-uuid"))
}
