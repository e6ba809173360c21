package commands

import (
	"io"

	"github.com/envlock/envlock/internal/app"
	"github.com/envlock/envlock/internal/envfile"
)

// RunEncryptFile encrypts the sensitive-looking values in an env file in
// place, reporting how many values changed.
func RunEncryptFile(container *app.Container, w io.Writer, path string, backup bool) error {
	aead, err := container.AEAD()
	if err != nil {
		return err
	}

	encrypted, err := envfile.EncryptFile(aead, path, backup)
	if err != nil {
		return err
	}

	if encrypted == 0 {
		printWarn(w, "%s: no plaintext sensitive values found", path)
		return nil
	}
	printSuccess(w, "%s: encrypted %d value(s)", path, encrypted)
	if backup {
		printField(w, "backup", path+".bak")
	}
	return nil
}

// RunDecryptFile replaces every envelope in an env file with its plaintext.
func RunDecryptFile(container *app.Container, w io.Writer, path string, backup bool) error {
	aead, err := container.AEAD()
	if err != nil {
		return err
	}

	decrypted, err := envfile.DecryptFile(aead, path, backup)
	if err != nil {
		return err
	}

	if decrypted == 0 {
		printWarn(w, "%s: no encrypted values found", path)
		return nil
	}
	printSuccess(w, "%s: decrypted %d value(s)", path, decrypted)
	printWarn(w, "the file now contains plaintext secrets; re-encrypt before committing")
	return nil
}
