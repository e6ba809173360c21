package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
	cryptoService "github.com/envlock/envlock/internal/crypto/service"
	"github.com/envlock/envlock/internal/envfile"
	"github.com/envlock/envlock/internal/keyring"
	"github.com/envlock/envlock/internal/metrics"
	"github.com/envlock/envlock/internal/secret"
)

// backupTimestampLayout names one backup directory per rotation attempt.
const backupTimestampLayout = "20060102T150405Z"

// Options configures one rotation.
type Options struct {
	// BackupDir is the parent directory for pre-rotation backups. Each
	// rotation creates a timestamped subdirectory under it.
	BackupDir string

	// EnvFiles are the configuration files whose enveloped values are
	// re-encrypted under the new key.
	EnvFiles []string

	// DryRun stages everything and reports what would change without
	// committing: no backups, no file replacement, no key swap.
	DryRun bool
}

// Rotator replaces the active master key.
//
// Rotation is stage-then-commit. The staging phase decrypts and re-encrypts
// everything on private copies: a staged map for the store, a temp file next
// to each target. Only when every item has staged successfully does the commit
// phase swap them in. A staging failure aborts with the temps removed, so
// there is nothing to roll back: the live store and the target files were
// never touched.
type Rotator struct {
	provider *keyring.Provider
	store    *secret.Store
	manager  cryptoService.AEADManager
	history  *History
	logger   *slog.Logger
	metrics  metrics.BusinessMetrics

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

// NewRotator creates a rotator over the key provider, the live store, and the
// audit history.
func NewRotator(
	provider *keyring.Provider,
	store *secret.Store,
	history *History,
	logger *slog.Logger,
	m metrics.BusinessMetrics,
) *Rotator {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoOpBusinessMetrics()
	}
	return &Rotator{
		provider: provider,
		store:    store,
		manager:  cryptoService.NewAEADManager(),
		history:  history,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// History returns the rotation audit trail.
func (r *Rotator) History() *History {
	return r.history
}

// Rotate generates a new master key and re-encrypts the store and every
// target file under it. Returns the signed rotation record. Every attempt
// that gets as far as holding a valid key pair appends exactly one record,
// whatever its outcome.
func (r *Rotator) Rotate(ctx context.Context, opts Options) (*Record, error) {
	start := r.now()
	record, err := r.rotate(ctx, opts, start)

	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordOperation(ctx, "rotation", "rotate", status)
	r.metrics.RecordDuration(ctx, "rotation", "rotate", r.now().Sub(start), status)
	return record, err
}

func (r *Rotator) rotate(ctx context.Context, opts Options, start time.Time) (*Record, error) {
	oldKey, err := r.provider.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot rotate without the current key: %w", err)
	}
	defer oldKey.Zero()

	newKey, err := r.provider.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate replacement key: %w", err)
	}
	defer newKey.Zero()

	oldAEAD, err := r.manager.CreateCipher(oldKey.Key, r.provider.Algorithm())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize current cipher: %w", err)
	}
	newAEAD, err := r.manager.CreateCipher(newKey.Key, r.provider.Algorithm())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize replacement cipher: %w", err)
	}

	record, err := newRecord(start)
	if err != nil {
		return nil, fmt.Errorf("failed to create rotation record: %w", err)
	}
	// Timestamp plus record ID prefix: rotations within the same second must
	// not share a backup directory.
	record.BackupDir = filepath.Join(
		opts.BackupDir,
		start.UTC().Format(backupTimestampLayout)+"-"+record.ID.String()[:8],
	)

	r.logger.Info("rotation started",
		"dry_run", opts.DryRun,
		"files", len(opts.EnvFiles),
		"store_entries", r.store.Len(),
	)

	// Phase 1: backups. A dry run only reports where they would go.
	if !opts.DryRun {
		if err := r.backup(record.BackupDir, opts.EnvFiles); err != nil {
			return r.fail(record, oldKey, err)
		}
	}

	// Phase 2: stage. The live store and target files stay untouched.
	staged, err := r.stageStore(oldAEAD, newAEAD)
	if err != nil {
		return r.fail(record, oldKey, err)
	}
	record.StoreEntries = len(staged)

	temps, results, err := r.stageFiles(ctx, oldAEAD, newAEAD, opts.EnvFiles)
	if err != nil {
		removeAll(temps)
		return r.fail(record, oldKey, err)
	}
	record.Files = results

	if opts.DryRun {
		removeAll(temps)
		record.FinishedAt = r.now()
		record.Outcome = OutcomeDryRun
		if err := r.history.Append(oldKey.Key, record); err != nil {
			return nil, err
		}
		r.logger.Info("rotation dry run complete", "record_id", record.ID)
		return record, nil
	}

	// Phase 3: commit. Files first, then the store, then the key file: a
	// crash mid-commit leaves the old key on disk and the backups intact.
	committed := false
	for path, temp := range temps {
		if err := os.Rename(temp, path); err != nil {
			removeAll(temps)
			cause := fmt.Errorf("failed to install %s: %w", path, err)
			if committed {
				return r.failCommit(record, oldKey, cause)
			}
			return r.fail(record, oldKey, cause)
		}
		committed = true
		delete(temps, path)
	}
	r.store.ReplaceAll(staged, newAEAD)
	if err := r.provider.Persist(newKey); err != nil {
		return r.failCommit(record, newKey, fmt.Errorf("failed to persist new key: %w", err))
	}

	record.FinishedAt = r.now()
	record.Outcome = OutcomeSuccess
	if err := r.history.Append(newKey.Key, record); err != nil {
		return nil, err
	}

	r.logger.Info("rotation complete",
		"record_id", record.ID,
		"store_entries", record.StoreEntries,
		"files", len(record.Files),
		"backup_dir", record.BackupDir,
	)
	return record, nil
}

// fail finalizes and appends a failed record for a pre-commit error, then
// wraps the cause in ErrRotationAborted. Staging failures leave the live
// store and target files untouched, so the message says exactly that.
func (r *Rotator) fail(record *Record, signKey *cryptoDomain.MasterKey, cause error) (*Record, error) {
	record.FinishedAt = r.now()
	record.Outcome = OutcomeFailed
	record.Failure = cause.Error()

	if err := r.history.Append(signKey.Key, record); err != nil {
		r.logger.Error("failed to append rotation record", "error", err)
	}

	r.logger.Error("rotation aborted, nothing was modified", "error", cause)
	return record, fmt.Errorf("%w: %w", ErrRotationAborted, cause)
}

// failCommit is the failure path for errors after the commit phase began.
// Some targets already carry the new key at that point, so the record and the
// log must not claim nothing changed; they point the operator at the backups
// instead.
func (r *Rotator) failCommit(record *Record, signKey *cryptoDomain.MasterKey, cause error) (*Record, error) {
	record.FinishedAt = r.now()
	record.Outcome = OutcomeFailed
	record.Failure = fmt.Sprintf("partially committed, restore from %s: %s", record.BackupDir, cause)

	if err := r.history.Append(signKey.Key, record); err != nil {
		r.logger.Error("failed to append rotation record", "error", err)
	}

	r.logger.Error("rotation failed after commit began, restore from backup",
		"error", cause,
		"backup_dir", record.BackupDir,
	)
	return record, fmt.Errorf("%w: %w", ErrRotationAborted, cause)
}

// backup copies the key file and every target file into the timestamped
// backup directory before anything is staged.
func (r *Rotator) backup(backupDir string, envFiles []string) error {
	if err := os.MkdirAll(backupDir, 0o700); err != nil {
		return fmt.Errorf("failed to create backup directory %s: %w", backupDir, err)
	}

	sources := append([]string{r.provider.KeyFile()}, envFiles...)
	for _, source := range sources {
		if err := copyFile(source, filepath.Join(backupDir, filepath.Base(source))); err != nil {
			return fmt.Errorf("failed to back up %s: %w", source, err)
		}
	}
	return nil
}

// stageStore re-encrypts a snapshot of the store into a private map. The
// plaintext of each entry exists only transiently inside the loop.
func (r *Rotator) stageStore(oldAEAD, newAEAD cryptoService.AEAD) (map[string][]byte, error) {
	snapshot := r.store.Snapshot()
	staged := make(map[string][]byte, len(snapshot))

	for name, ciphertext := range snapshot {
		plaintext, err := cryptoService.Open(oldAEAD, ciphertext, []byte(name))
		if err != nil {
			return nil, fmt.Errorf("secret %q: %w", name, err)
		}
		resealed, err := cryptoService.Seal(newAEAD, plaintext, []byte(name))
		cryptoDomain.Zero(plaintext)
		if err != nil {
			return nil, fmt.Errorf("secret %q: %w", name, err)
		}
		staged[name] = resealed
	}
	return staged, nil
}

// stageFiles rewrites every target file's envelopes under the new key into
// temp files, one goroutine per file. Returns the temp path per target; the
// caller owns their removal or installation.
func (r *Rotator) stageFiles(
	ctx context.Context,
	oldAEAD, newAEAD cryptoService.AEAD,
	envFiles []string,
) (map[string]string, []FileResult, error) {
	var mu sync.Mutex
	temps := make(map[string]string, len(envFiles))
	results := make([]FileResult, len(envFiles))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range envFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			temp, rotated, err := envfile.ReencryptToTemp(oldAEAD, newAEAD, path)
			if err != nil {
				return fmt.Errorf("file %s: %w", path, err)
			}
			mu.Lock()
			temps[path] = temp
			results[i] = FileResult{Path: path, Rotated: rotated}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return temps, nil, err
	}
	return temps, results, nil
}

func removeAll(temps map[string]string) {
	for _, temp := range temps {
		os.Remove(temp)
	}
}

func copyFile(source, destination string) error {
	contents, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	return os.WriteFile(destination, contents, 0o600)
}
