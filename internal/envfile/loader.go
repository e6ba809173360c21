package envfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	cryptoService "github.com/envlock/envlock/internal/crypto/service"
	"github.com/envlock/envlock/internal/metrics"
)

// Loader parses dotenv files and decrypts any enveloped values before
// exposing them. The load is all-or-nothing: nothing touches the process
// environment until every entry has parsed and decrypted.
type Loader struct {
	aead    cryptoService.AEAD
	logger  *slog.Logger
	metrics metrics.BusinessMetrics
}

// NewLoader creates a loader over the active cipher.
func NewLoader(aead cryptoService.AEAD, logger *slog.Logger, m metrics.BusinessMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoOpBusinessMetrics()
	}
	return &Loader{aead: aead, logger: logger, metrics: m}
}

// Load parses the file at path and returns the normalized mapping with all
// enveloped values decrypted. When apply is true the mapping is also written
// into the process environment; override controls whether variables already
// present in the environment are replaced.
//
// Errors name the offending variable but never its ciphertext or any
// candidate plaintext.
func (l *Loader) Load(path string, apply, override bool) (map[string]string, error) {
	start := time.Now()
	values, err := l.load(path, apply, override)
	status := "success"
	if err != nil {
		status = "error"
	}
	ctx := context.Background()
	l.metrics.RecordOperation(ctx, "envfile", "env_load", status)
	l.metrics.RecordDuration(ctx, "envfile", "env_load", time.Since(start), status)
	return values, err
}

func (l *Loader) load(path string, apply, override bool) (map[string]string, error) {
	raw, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailed, path, err)
	}

	decrypted := 0
	values := make(map[string]string, len(raw))
	for name, value := range raw {
		if !IsEncrypted(value) {
			values[name] = value
			continue
		}
		plaintext, err := Unwrap(l.aead, value)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		values[name] = plaintext
		decrypted++
	}

	if apply {
		applyToEnvironment(values, override)
	}

	l.logger.Info("env file loaded",
		"path", path,
		"variables", len(values),
		"decrypted", decrypted,
		"applied", apply,
	)
	return values, nil
}

// EncryptedNames returns the names of enveloped variables in the file, sorted,
// without decrypting anything. Used by rotation to decide whether a file needs
// rewriting and by the status command.
func (l *Loader) EncryptedNames(path string) ([]string, error) {
	raw, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailed, path, err)
	}

	var names []string
	for name, value := range raw {
		if IsEncrypted(value) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func applyToEnvironment(values map[string]string, override bool) {
	for name, value := range values {
		if !override {
			if _, exists := os.LookupEnv(name); exists {
				continue
			}
		}
		os.Setenv(name, value)
	}
}
