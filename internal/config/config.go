// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
	"github.com/envlock/envlock/internal/keyring"
)

// Config holds all application configuration.
type Config struct {
	// Environment is the runtime mode: development, staging, or production.
	// It controls whether a missing or invalid master key is fatal.
	Environment keyring.Environment
	// CI re-enables key auto-provisioning in otherwise fail-closed
	// environments.
	CI bool

	// KeyFile is the path of the master key file.
	KeyFile string
	// Algorithm selects the AEAD cipher: "aes-gcm" or "chacha20-poly1305".
	Algorithm cryptoDomain.Algorithm

	// BackupDir is the parent directory for pre-rotation backups.
	BackupDir string
	// AuditLog is the path of the append-only rotation history.
	AuditLog string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		Environment: keyring.ParseEnvironment(env.GetString("ENVLOCK_ENV", "development")),
		CI:          env.GetBool("CI", false),

		// Key material
		KeyFile:   env.GetString("ENVLOCK_KEY_FILE", filepath.Join(".secrets", "master.key")),
		Algorithm: cryptoDomain.Algorithm(env.GetString("ENVLOCK_ALGORITHM", string(cryptoDomain.AESGCM))),

		// Rotation
		BackupDir: env.GetString("ENVLOCK_BACKUP_DIR", "key_backups"),
		AuditLog:  env.GetString("ENVLOCK_AUDIT_LOG", filepath.Join(".secrets", "rotation.log")),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "envlock"),
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
