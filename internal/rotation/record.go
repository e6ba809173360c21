// Package rotation replaces the active master key with a freshly generated
// one, re-encrypting the secret store and every enveloped env file under the
// new key. The protocol is stage-then-commit: all re-encryption happens on
// private copies, and the live store and target files change only after every
// item has succeeded. A failed rotation therefore leaves everything
// byte-identical to its pre-rotation state.
package rotation

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the machine-readable result of one rotation attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeDryRun  Outcome = "dry_run"
)

// FileResult reports what happened to one target env file.
type FileResult struct {
	Path    string `json:"path"`
	Rotated int    `json:"rotated"`
}

// Record is one entry in the rotation history. Every rotation attempt appends
// exactly one record, signed so later tampering is detectable. A record never
// contains key material; KeyFingerprint identifies which key generation signed
// it without revealing the key.
type Record struct {
	ID             uuid.UUID    `json:"id"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	Outcome        Outcome      `json:"outcome"`
	BackupDir      string       `json:"backup_dir,omitempty"`
	Files          []FileResult `json:"files,omitempty"`
	StoreEntries   int          `json:"store_entries"`
	Failure        string       `json:"failure,omitempty"`
	KeyFingerprint string       `json:"key_fingerprint"`
	Signature      []byte       `json:"signature"`
}

func newRecord(startedAt time.Time) (*Record, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return &Record{ID: id, StartedAt: startedAt}, nil
}
