package commands

import (
	"context"
	"io"

	"github.com/envlock/envlock/internal/app"
	"github.com/envlock/envlock/internal/rotation"
)

// RunRotate replaces the master key, re-encrypting the secret store and every
// given env file under the new key.
func RunRotate(
	ctx context.Context,
	container *app.Container,
	w io.Writer,
	envFiles []string,
	backupDir string,
	dryRun bool,
) error {
	rotator, err := container.Rotator()
	if err != nil {
		return err
	}

	if backupDir == "" {
		backupDir = container.Config().BackupDir
	}
	record, err := rotator.Rotate(ctx, rotation.Options{
		BackupDir: backupDir,
		EnvFiles:  envFiles,
		DryRun:    dryRun,
	})
	if err != nil {
		if record != nil {
			printError(w, "rotation failed: %s", record.Failure)
			printField(w, "record", record.ID)
		}
		return err
	}

	switch record.Outcome {
	case rotation.OutcomeDryRun:
		printHeader(w, "Dry run: no changes made")
		printField(w, "would back up to", record.BackupDir)
	default:
		printSuccess(w, "master key rotated")
		printField(w, "backup", record.BackupDir)
	}
	printField(w, "record", record.ID)
	printField(w, "store entries", record.StoreEntries)
	for _, file := range record.Files {
		printField(w, "file", file.Path)
		printField(w, "  re-encrypted", file.Rotated)
	}
	return nil
}
