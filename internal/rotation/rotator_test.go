package rotation

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
	cryptoService "github.com/envlock/envlock/internal/crypto/service"
	"github.com/envlock/envlock/internal/envfile"
	"github.com/envlock/envlock/internal/errors"
	"github.com/envlock/envlock/internal/keyring"
	"github.com/envlock/envlock/internal/secret"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testVault struct {
	rotator  *Rotator
	store    *secret.Store
	provider *keyring.Provider
	aead     cryptoService.AEAD
	dir      string
	envFile  string
}

func newTestVault(t *testing.T) *testVault {
	t.Helper()
	return newTestVaultWithLogger(t, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestVaultWithLogger(t *testing.T, logger *slog.Logger) *testVault {
	t.Helper()

	dir := t.TempDir()

	provider := keyring.NewProvider(
		filepath.Join(dir, ".secrets", "master.key"),
		keyring.Development,
		false,
		cryptoDomain.AESGCM,
		logger,
	)
	key, err := provider.Load()
	require.NoError(t, err)

	aead, err := cryptoService.NewAEADManager().CreateCipher(key.Key, cryptoDomain.AESGCM)
	require.NoError(t, err)

	store := secret.NewStore(aead, logger)
	require.NoError(t, store.Set("DB_PASSWORD", "hunter2"))
	require.NoError(t, store.Set("API_TOKEN", "sk-12345"))

	enveloped, err := envfile.Wrap(aead, "file-secret")
	require.NoError(t, err)
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(""+
		"# app settings\n"+
		"APP_NAME=demo\n"+
		"APP_SECRET="+enveloped+"\n"), 0o600))

	history := NewHistory(filepath.Join(dir, ".secrets", "rotation.log"))
	rotator := NewRotator(provider, store, history, logger, nil)

	return &testVault{
		rotator:  rotator,
		store:    store,
		provider: provider,
		aead:     aead,
		dir:      dir,
		envFile:  envPath,
	}
}

func (v *testVault) activeCipher(t *testing.T) cryptoService.AEAD {
	t.Helper()
	key, err := v.provider.Load()
	require.NoError(t, err)
	aead, err := cryptoService.NewAEADManager().CreateCipher(key.Key, cryptoDomain.AESGCM)
	require.NoError(t, err)
	return aead
}

func TestRotateSuccess(t *testing.T) {
	v := newTestVault(t)
	before := v.store.Snapshot()
	oldKeyFile, err := os.ReadFile(v.provider.KeyFile())
	require.NoError(t, err)

	record, err := v.rotator.Rotate(context.Background(), Options{
		BackupDir: filepath.Join(v.dir, "key_backups"),
		EnvFiles:  []string{v.envFile},
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, record.Outcome)
	require.Equal(t, 2, record.StoreEntries)
	require.Equal(t, []FileResult{{Path: v.envFile, Rotated: 1}}, record.Files)

	// Secrets are still retrievable with identical plaintext.
	value, err := v.store.Get("DB_PASSWORD")
	require.NoError(t, err)
	require.Equal(t, "hunter2", value.Reveal())

	// But their stored ciphertext changed.
	after := v.store.Snapshot()
	for name := range before {
		require.NotEqual(t, before[name], after[name], "ciphertext for %s did not change", name)
	}

	// The key file now holds a different key, and the env file decrypts
	// under it.
	newKeyFile, err := os.ReadFile(v.provider.KeyFile())
	require.NoError(t, err)
	require.NotEqual(t, string(oldKeyFile), string(newKeyFile))

	loader := envfile.NewLoader(v.activeCipher(t), nil, nil)
	values, err := loader.Load(v.envFile, false, false)
	require.NoError(t, err)
	require.Equal(t, "file-secret", values["APP_SECRET"])
	require.Equal(t, "demo", values["APP_NAME"])

	// Backups hold the pre-rotation key and file.
	backupKey, err := os.ReadFile(filepath.Join(record.BackupDir, "master.key"))
	require.NoError(t, err)
	require.Equal(t, string(oldKeyFile), string(backupKey))

	backupEnv, err := os.ReadFile(filepath.Join(record.BackupDir, ".env"))
	require.NoError(t, err)
	require.Contains(t, string(backupEnv), "APP_SECRET=ENC[")

	// Exactly one record, signed under the new key.
	records, err := v.rotator.History().All()
	require.NoError(t, err)
	require.Len(t, records, 1)

	key, err := v.provider.Load()
	require.NoError(t, err)
	results, err := v.rotator.History().Verify(key.Key)
	require.NoError(t, err)
	require.Equal(t, VerifyValid, results[0].Status)
}

func TestRotateStagingFailureChangesNothing(t *testing.T) {
	v := newTestVault(t)

	// An envelope sealed under an unrelated key cannot be staged.
	otherKey, err := cryptoDomain.GenerateMasterKey()
	require.NoError(t, err)
	otherAEAD, err := cryptoService.NewAEADManager().CreateCipher(otherKey.Key, cryptoDomain.AESGCM)
	require.NoError(t, err)
	enveloped, err := envfile.Wrap(otherAEAD, "unreachable")
	require.NoError(t, err)

	brokenPath := filepath.Join(v.dir, "broken.env")
	require.NoError(t, os.WriteFile(brokenPath, []byte("ORPHAN_TOKEN="+enveloped+"\n"), 0o600))

	storeBefore := v.store.Snapshot()
	envBefore, err := os.ReadFile(v.envFile)
	require.NoError(t, err)
	brokenBefore, err := os.ReadFile(brokenPath)
	require.NoError(t, err)
	keyBefore, err := os.ReadFile(v.provider.KeyFile())
	require.NoError(t, err)

	record, err := v.rotator.Rotate(context.Background(), Options{
		BackupDir: filepath.Join(v.dir, "key_backups"),
		EnvFiles:  []string{v.envFile, brokenPath},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrRotationAborted))
	require.Contains(t, err.Error(), "ORPHAN_TOKEN")
	require.Equal(t, OutcomeFailed, record.Outcome)

	// Everything is byte-identical to its pre-rotation state.
	require.Equal(t, storeBefore, v.store.Snapshot())

	envAfter, err := os.ReadFile(v.envFile)
	require.NoError(t, err)
	require.Equal(t, string(envBefore), string(envAfter))

	brokenAfter, err := os.ReadFile(brokenPath)
	require.NoError(t, err)
	require.Equal(t, string(brokenBefore), string(brokenAfter))

	keyAfter, err := os.ReadFile(v.provider.KeyFile())
	require.NoError(t, err)
	require.Equal(t, string(keyBefore), string(keyAfter))

	// No staged temp files left behind.
	entries, err := os.ReadDir(v.dir)
	require.NoError(t, err)
	for _, entry := range entries {
		require.NotContains(t, entry.Name(), ".tmp-")
	}

	// The attempt still appended exactly one record.
	records, err := v.rotator.History().All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, OutcomeFailed, records[0].Outcome)
	require.NotEmpty(t, records[0].Failure)
}

// logHook runs fn when the wrapped handler sees the given message, giving
// tests a seam between the commit steps that log.
type logHook struct {
	slog.Handler
	message string
	fn      func()
}

func (h *logHook) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == h.message && h.fn != nil {
		h.fn()
	}
	return h.Handler.Handle(ctx, record)
}

func TestRotateCommitFailureReportsPartialCommit(t *testing.T) {
	hook := &logHook{
		Handler: slog.NewTextHandler(io.Discard, nil),
		message: "secret store re-keyed",
	}
	v := newTestVaultWithLogger(t, slog.New(hook))

	// The store logs the re-key between the store swap and the key file
	// write. Turning the key file into a directory at that moment makes
	// persisting the new key fail after the commit has begun.
	hook.fn = func() {
		require.NoError(t, os.Remove(v.provider.KeyFile()))
		require.NoError(t, os.Mkdir(v.provider.KeyFile(), 0o700))
	}

	record, err := v.rotator.Rotate(context.Background(), Options{
		BackupDir: filepath.Join(v.dir, "key_backups"),
		EnvFiles:  []string{v.envFile},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrRotationAborted))
	require.Equal(t, OutcomeFailed, record.Outcome)

	// The failure must not claim nothing changed; it points at the backups.
	require.Contains(t, record.Failure, "partially committed")
	require.Contains(t, record.Failure, record.BackupDir)

	// The store and the env file are in fact already under the new key.
	value, err := v.store.Get("DB_PASSWORD")
	require.NoError(t, err)
	require.Equal(t, "hunter2", value.Reveal())

	_, err = envfile.NewLoader(v.aead, nil, nil).Load(v.envFile, false, false)
	require.Error(t, err)

	// Backups hold the pre-rotation key for the restore.
	backupKey, err := os.ReadFile(filepath.Join(record.BackupDir, "master.key"))
	require.NoError(t, err)
	require.Len(t, strings.TrimSpace(string(backupKey)), cryptoDomain.EncodedKeySize)

	records, err := v.rotator.History().All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Contains(t, records[0].Failure, "partially committed")
}

func TestRotateDryRun(t *testing.T) {
	v := newTestVault(t)
	storeBefore := v.store.Snapshot()
	envBefore, err := os.ReadFile(v.envFile)
	require.NoError(t, err)
	keyBefore, err := os.ReadFile(v.provider.KeyFile())
	require.NoError(t, err)

	backupDir := filepath.Join(v.dir, "key_backups")
	record, err := v.rotator.Rotate(context.Background(), Options{
		BackupDir: backupDir,
		EnvFiles:  []string{v.envFile},
		DryRun:    true,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeDryRun, record.Outcome)
	require.Equal(t, 2, record.StoreEntries)
	require.Equal(t, []FileResult{{Path: v.envFile, Rotated: 1}}, record.Files)

	// Nothing was written: no backups, no new key, no file changes.
	_, err = os.Stat(backupDir)
	require.True(t, os.IsNotExist(err))

	require.Equal(t, storeBefore, v.store.Snapshot())

	envAfter, err := os.ReadFile(v.envFile)
	require.NoError(t, err)
	require.Equal(t, string(envBefore), string(envAfter))

	keyAfter, err := os.ReadFile(v.provider.KeyFile())
	require.NoError(t, err)
	require.Equal(t, string(keyBefore), string(keyAfter))
}

func TestRotateRepeatedly(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	opts := Options{
		BackupDir: filepath.Join(v.dir, "key_backups"),
		EnvFiles:  []string{v.envFile},
	}

	for i := 0; i < 3; i++ {
		record, err := v.rotator.Rotate(ctx, opts)
		require.NoError(t, err)
		require.Equal(t, OutcomeSuccess, record.Outcome)
	}

	value, err := v.store.Get("API_TOKEN")
	require.NoError(t, err)
	require.Equal(t, "sk-12345", value.Reveal())

	records, err := v.rotator.History().All()
	require.NoError(t, err)
	require.Len(t, records, 3)
}
