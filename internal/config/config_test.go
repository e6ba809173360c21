package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
	"github.com/envlock/envlock/internal/keyring"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, keyring.Development, cfg.Environment)
				assert.Equal(t, filepath.Join(".secrets", "master.key"), cfg.KeyFile)
				assert.Equal(t, cryptoDomain.AESGCM, cfg.Algorithm)
				assert.Equal(t, "key_backups", cfg.BackupDir)
				assert.Equal(t, filepath.Join(".secrets", "rotation.log"), cfg.AuditLog)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.False(t, cfg.MetricsEnabled)
				assert.Equal(t, "envlock", cfg.MetricsNamespace)
			},
		},
		{
			name: "load production configuration",
			envVars: map[string]string{
				"ENVLOCK_ENV":      "production",
				"ENVLOCK_KEY_FILE": "/etc/envlock/master.key",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, keyring.Production, cfg.Environment)
				assert.Equal(t, "/etc/envlock/master.key", cfg.KeyFile)
			},
		},
		{
			name: "load custom cipher and paths",
			envVars: map[string]string{
				"ENVLOCK_ALGORITHM":  "chacha20-poly1305",
				"ENVLOCK_BACKUP_DIR": "/var/backups/envlock",
				"ENVLOCK_AUDIT_LOG":  "/var/log/envlock/rotation.log",
				"LOG_LEVEL":          "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, cryptoDomain.ChaCha20, cfg.Algorithm)
				assert.Equal(t, "/var/backups/envlock", cfg.BackupDir)
				assert.Equal(t, "/var/log/envlock/rotation.log", cfg.AuditLog)
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
		{
			name: "ci flag re-enables auto provisioning",
			envVars: map[string]string{
				"ENVLOCK_ENV": "staging",
				"CI":          "true",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, keyring.Staging, cfg.Environment)
				assert.True(t, cfg.CI)
			},
		},
		{
			name: "metrics configuration",
			envVars: map[string]string{
				"METRICS_ENABLED":   "true",
				"METRICS_NAMESPACE": "vault",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "vault", cfg.MetricsNamespace)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg := Load()
			tt.validate(t, cfg)
		})
	}
}
