package validation

import (
	"strings"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/require"

	apperrors "github.com/envlock/envlock/internal/errors"
)

func TestValidateSecretName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"conventional name", "DB_PASSWORD", false},
		{"lowercase with dots", "service.api_key", false},
		{"empty", "", true},
		{"contains equals", "KEY=VALUE", true},
		{"contains nul", "KEY\x00", true},
		{"contains newline", "KEY\n", true},
		{"too long", strings.Repeat("A", 256), true},
		{"max length", strings.Repeat("A", 255), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSecretName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateGeneratorLength(t *testing.T) {
	require.NoError(t, ValidateGeneratorLength(1))
	require.NoError(t, ValidateGeneratorLength(255))

	require.Error(t, ValidateGeneratorLength(0))
	require.Error(t, ValidateGeneratorLength(256))
}

func TestEnvVarName(t *testing.T) {
	valid := []string{"PATH", "_private", "APP_NAME_2"}
	for _, name := range valid {
		require.NoError(t, validation.Validate(name, EnvVarName), name)
	}

	invalid := []string{"2START", "with-dash", "with space", "with.dot"}
	for _, name := range invalid {
		require.Error(t, validation.Validate(name, EnvVarName), name)
	}
}

func TestBase64Rules(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		require.NoError(t, validation.Validate("aGVsbG8=", Base64))
		require.Error(t, validation.Validate("not base64!", Base64))
	})

	t.Run("url safe", func(t *testing.T) {
		require.NoError(t, validation.Validate("aGVsbG8=", Base64URL))
		require.Error(t, validation.Validate("a+b/", Base64URL))
	})
}
