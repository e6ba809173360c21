package generator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/envlock/envlock/internal/errors"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, []string{"alphanumeric", "hex", "numeric", "uuid"}, r.Names())

	for _, name := range r.Names() {
		g, err := r.Get(name)
		require.NoError(t, err)
		require.NotNil(t, g)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("base58")
	require.True(t, errors.Is(err, ErrUnknownGenerator))
	require.Contains(t, err.Error(), "base58")
}

type staticGenerator struct{ value string }

func (g *staticGenerator) Generate(int) (string, error) { return g.value, nil }
func (g *staticGenerator) Validate(string) error        { return nil }

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("static", &staticGenerator{value: "fixed"})

	g, err := r.Get("static")
	require.NoError(t, err)

	value, err := g.Generate(1)
	require.NoError(t, err)
	require.Equal(t, "fixed", value)
}
