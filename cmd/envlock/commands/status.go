package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/envlock/envlock/internal/app"
)

// RunStatus reports the vault configuration and key health, plus the
// encrypted variables of any given env files. Nothing it prints is secret.
func RunStatus(container *app.Container, w io.Writer, envFiles []string) error {
	cfg := container.Config()
	provider := container.KeyProvider()

	printHeader(w, "envlock status")
	printField(w, "environment", cfg.Environment)
	printField(w, "algorithm", cfg.Algorithm)
	printField(w, "key file", provider.KeyFile())
	printField(w, "audit log", cfg.AuditLog)

	if _, err := os.Stat(provider.KeyFile()); os.IsNotExist(err) {
		printError(w, "key file missing")
		if cfg.Environment.FailClosed() {
			return fmt.Errorf("key file %s missing in fail-closed environment", provider.KeyFile())
		}
		printWarn(w, "a development key will be auto-generated on first use")
		return nil
	}

	key, err := provider.Load()
	if err != nil {
		printError(w, "key validation failed: %v", err)
		return err
	}
	key.Zero()
	printSuccess(w, "master key valid")

	records, err := container.History().All()
	if err != nil {
		return err
	}
	printField(w, "rotations", len(records))

	if len(envFiles) == 0 {
		return nil
	}

	loader, err := container.Loader()
	if err != nil {
		return err
	}
	for _, path := range envFiles {
		names, err := loader.EncryptedNames(path)
		if err != nil {
			printError(w, "%s: %v", path, err)
			continue
		}
		printField(w, path, fmt.Sprintf("%d encrypted variable(s)", len(names)))
		for _, name := range names {
			fmt.Fprintf(w, "    %s\n", name)
		}
	}
	return nil
}
