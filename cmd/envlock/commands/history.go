package commands

import (
	"fmt"
	"io"

	"github.com/envlock/envlock/internal/app"
	"github.com/envlock/envlock/internal/rotation"
)

// RunHistory lists every rotation record in chronological order.
func RunHistory(container *app.Container, w io.Writer) error {
	records, err := container.History().All()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "no rotations recorded")
		return nil
	}

	printHeader(w, "%-36s  %-20s  %-8s  %s", "ID", "FINISHED", "OUTCOME", "DETAIL")
	for _, record := range records {
		detail := fmt.Sprintf("%d entries, %d file(s)", record.StoreEntries, len(record.Files))
		if record.Outcome == rotation.OutcomeFailed {
			detail = record.Failure
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-8s  %s\n",
			record.ID,
			record.FinishedAt.UTC().Format("2006-01-02 15:04:05"),
			record.Outcome,
			detail,
		)
	}
	return nil
}

// RunVerifyHistory checks every rotation record's signature under the active
// master key. Records signed under rotated-away keys are reported as
// unverifiable rather than invalid.
func RunVerifyHistory(container *app.Container, w io.Writer) error {
	key, err := container.KeyProvider().Load()
	if err != nil {
		return err
	}
	defer key.Zero()

	results, err := container.History().Verify(key.Key)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "no rotations recorded")
		return nil
	}

	invalid := 0
	for _, result := range results {
		switch result.Status {
		case rotation.VerifyValid:
			printSuccess(w, "%s  %s", result.Record.ID, result.Status)
		case rotation.VerifyUnverifiable:
			printWarn(w, "%s  %s (signed under key %s)", result.Record.ID, result.Status, result.Record.KeyFingerprint)
		case rotation.VerifyInvalid:
			printError(w, "%s  %s", result.Record.ID, result.Status)
			invalid++
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d rotation record(s) failed signature verification", invalid)
	}
	return nil
}
