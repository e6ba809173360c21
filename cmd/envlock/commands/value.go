package commands

import (
	"fmt"
	"io"

	"github.com/envlock/envlock/internal/app"
	"github.com/envlock/envlock/internal/envfile"
)

// RunEncryptValue encrypts a single value under the active key and prints the
// envelope, ready to paste into an env file.
func RunEncryptValue(container *app.Container, w io.Writer, value string) error {
	if value == "" {
		return fmt.Errorf("value must not be empty")
	}

	aead, err := container.AEAD()
	if err != nil {
		return err
	}

	enveloped, err := envfile.Wrap(aead, value)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, enveloped)
	return nil
}

// RunDecryptValue decrypts a single envelope and prints the plaintext. This is
// an explicit reveal operation: the output is the secret itself.
func RunDecryptValue(container *app.Container, w io.Writer, value string) error {
	aead, err := container.AEAD()
	if err != nil {
		return err
	}

	plaintext, err := envfile.Unwrap(aead, value)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, plaintext)
	return nil
}
