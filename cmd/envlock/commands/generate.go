package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/envlock/envlock/internal/app"
	"github.com/envlock/envlock/internal/validation"
)

// RunGenerate produces a random secret in the requested format and prints it.
// With encrypt set, the output is an envelope instead of the plaintext.
func RunGenerate(container *app.Container, w io.Writer, format string, length int, encrypt bool) error {
	registry := container.Generators()

	gen, err := registry.Get(format)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(registry.Names(), ", "))
	}

	if err := validation.ValidateGeneratorLength(length); err != nil {
		return err
	}

	value, err := gen.Generate(length)
	if err != nil {
		return err
	}

	if !encrypt {
		fmt.Fprintln(w, value)
		return nil
	}
	return RunEncryptValue(container, w, value)
}
