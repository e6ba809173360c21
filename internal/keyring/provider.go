// Package keyring loads, validates, and provisions the master key protecting
// all secrets. It distinguishes development (auto-provision with a warning)
// from production and staging (fail closed: a key problem stops the process
// rather than letting the vault run unencrypted).
package keyring

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
	cryptoService "github.com/envlock/envlock/internal/crypto/service"
)

// canary is the plaintext used for the trial encrypt/decrypt round-trip that
// every loaded key must pass before it is accepted.
const canary = "envlock-key-verification"

// Provider loads and validates the active master key from a key file.
//
// The key file holds exactly one URL-safe base64 master key (44 characters for
// 32 bytes), optionally followed by trailing whitespace. Validation is strict:
// exact length, correct alphabet, 32 decoded bytes, and a successful canary
// round-trip under the configured algorithm.
type Provider struct {
	keyFile     string
	environment Environment
	ci          bool
	algorithm   cryptoDomain.Algorithm
	aeadManager cryptoService.AEADManager
	logger      *slog.Logger

	// exit is swapped in tests so MustLoad's fail-closed path can be asserted
	// without killing the test process.
	exit func(code int)
}

// NewProvider creates a key provider for the given key file and runtime
// environment. The ci flag re-enables auto-provisioning in otherwise
// fail-closed environments, since CI runs have no pre-provisioned keys.
func NewProvider(
	keyFile string,
	environment Environment,
	ci bool,
	algorithm cryptoDomain.Algorithm,
	logger *slog.Logger,
) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		keyFile:     keyFile,
		environment: environment,
		ci:          ci,
		algorithm:   algorithm,
		aeadManager: cryptoService.NewAEADManager(),
		logger:      logger,
		exit:        os.Exit,
	}
}

// KeyFile returns the path of the key file this provider reads.
func (p *Provider) KeyFile() string {
	return p.keyFile
}

// Environment returns the runtime environment the provider was built for.
func (p *Provider) Environment() Environment {
	return p.environment
}

// Algorithm returns the AEAD algorithm keys are validated against.
func (p *Provider) Algorithm() cryptoDomain.Algorithm {
	return p.algorithm
}

// autoProvision reports whether this provider may generate a key on its own.
func (p *Provider) autoProvision() bool {
	return !p.environment.FailClosed() || p.ci
}

// Load reads and validates the master key.
//
// Missing key file: returns ErrKeyMissing in fail-closed environments;
// otherwise generates a fresh key, persists it with 0600 permissions, logs a
// warning that this is a transient development key, and loads it.
//
// Invalid key file: returns ErrKeyInvalid in fail-closed environments;
// otherwise replaces the broken key the same way. The returned errors name the
// key path and the shape of the problem, never key bytes.
func (p *Provider) Load() (*cryptoDomain.MasterKey, error) {
	raw, err := os.ReadFile(p.keyFile)
	if os.IsNotExist(err) {
		if !p.autoProvision() {
			return nil, fmt.Errorf("%w: %s (pre-provision the key before deploying)", ErrKeyMissing, p.keyFile)
		}
		return p.provisionKey("no key file found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", p.keyFile, err)
	}

	key, err := p.validate(raw)
	if err != nil {
		if !p.autoProvision() {
			return nil, err
		}
		p.logger.Warn("replacing invalid master key", "key_file", p.keyFile, "error", err)
		if rmErr := os.Remove(p.keyFile); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("failed to remove invalid key file %s: %w", p.keyFile, rmErr)
		}
		return p.provisionKey("invalid key replaced")
	}

	p.logger.Info("encryption initialized", "key_file", p.keyFile)
	return key, nil
}

// MustLoad is the startup path: it returns a valid key or stops the process.
// In fail-closed environments a key problem terminates with a critical log
// entry; running the vault without confirmed encryption is considered worse
// than not running at all.
func (p *Provider) MustLoad() *cryptoDomain.MasterKey {
	key, err := p.Load()
	if err != nil {
		p.logger.Error("SECURITY FATAL: encryption unavailable",
			"environment", string(p.environment),
			"key_file", p.keyFile,
			"error", err,
		)
		p.exit(1)
		return nil
	}
	return key
}

// Generate creates a new random master key without persisting it.
func (p *Provider) Generate() (*cryptoDomain.MasterKey, error) {
	return cryptoDomain.GenerateMasterKey()
}

// Persist writes the key to the key file atomically (write-then-rename) with
// 0600 permissions, creating parent directories with 0700.
func (p *Provider) Persist(key *cryptoDomain.MasterKey) error {
	dir := filepath.Dir(p.keyFile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".master.key.*")
	if err != nil {
		return fmt.Errorf("failed to create temporary key file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeAndClose(tmp, key.Encode()); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set key file permissions: %w", err)
	}
	if err := os.Rename(tmpName, p.keyFile); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to install key file %s: %w", p.keyFile, err)
	}
	return nil
}

// validate runs the full acceptance check: decode, then a canary round-trip
// under the configured cipher. A key that decodes but cannot complete the
// round-trip is rejected the same as a malformed one.
func (p *Provider) validate(raw []byte) (*cryptoDomain.MasterKey, error) {
	key, err := cryptoDomain.DecodeMasterKey(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyInvalid, p.keyFile, err)
	}

	aead, err := p.aeadManager.CreateCipher(key.Key, p.algorithm)
	if err != nil {
		key.Zero()
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyInvalid, p.keyFile, err)
	}

	sealed, err := cryptoService.Seal(aead, []byte(canary), nil)
	if err != nil {
		key.Zero()
		return nil, fmt.Errorf("%w: %s: canary encryption failed", ErrKeyInvalid, p.keyFile)
	}
	opened, err := cryptoService.Open(aead, sealed, nil)
	if err != nil || string(opened) != canary {
		key.Zero()
		return nil, fmt.Errorf("%w: %s: canary round-trip failed", ErrKeyInvalid, p.keyFile)
	}

	return key, nil
}

// provisionKey generates, persists, and re-loads a fresh development key.
func (p *Provider) provisionKey(reason string) (*cryptoDomain.MasterKey, error) {
	key, err := cryptoDomain.GenerateMasterKey()
	if err != nil {
		return nil, err
	}
	if err := p.Persist(key); err != nil {
		key.Zero()
		return nil, err
	}

	p.logger.Warn("AUTO-GENERATED DEVELOPMENT KEY - do not use in production",
		"reason", reason,
		"key_file", p.keyFile,
		"hint", "add the key file to .gitignore immediately",
	)

	// Re-read through the validation path so auto-provisioned keys get the
	// same acceptance checks as pre-provisioned ones.
	key.Zero()
	raw, err := os.ReadFile(p.keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read provisioned key: %w", err)
	}
	return p.validate(raw)
}

func writeAndClose(f *os.File, contents string) error {
	if _, err := f.WriteString(contents); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close key file: %w", err)
	}
	return nil
}
