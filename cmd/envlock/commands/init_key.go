package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/envlock/envlock/internal/app"
)

// RunInitKey generates and persists a new master key. An existing key file is
// never overwritten unless force is set: overwriting the active key orphans
// every ciphertext encrypted under it.
func RunInitKey(container *app.Container, w io.Writer, force bool) error {
	provider := container.KeyProvider()

	if _, err := os.Stat(provider.KeyFile()); err == nil && !force {
		printError(w, "key file %s already exists", provider.KeyFile())
		fmt.Fprintln(w, "  Use 'envlock rotate' to replace the active key, or --force to discard it.")
		return fmt.Errorf("key file %s already exists", provider.KeyFile())
	}

	key, err := provider.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer key.Zero()

	if err := provider.Persist(key); err != nil {
		return err
	}

	printSuccess(w, "master key written to %s", provider.KeyFile())
	printWarn(w, "add %s to .gitignore and back it up somewhere safe", provider.KeyFile())
	return nil
}
