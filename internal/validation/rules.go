// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/envlock/envlock/internal/errors"
)

var (
	// envVarNameRegex matches conventional environment variable names.
	envVarNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// SecretName validates a secret store key: printable, no '=', no NUL. The '='
// exclusion keeps names representable in env-file assignments.
var SecretName = validation.NewStringRuleWithError(
	func(s string) bool {
		if s == "" {
			return false
		}
		for _, r := range s {
			if r == '=' || r == 0 || !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	},
	validation.NewError(
		"validation_secret_name",
		"must contain only printable characters and no '='",
	),
)

// EnvVarName validates an environment variable name: letters, digits, and
// underscores, not starting with a digit.
var EnvVarName = validation.NewStringRuleWithError(
	func(s string) bool {
		return envVarNameRegex.MatchString(s)
	},
	validation.NewError(
		"validation_env_var_name",
		"must match [A-Za-z_][A-Za-z0-9_]*",
	),
)

// ValidateSecretName runs the full secret name rule set.
func ValidateSecretName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("secret name is required"),
		validation.Length(1, 255).Error("secret name must be between 1 and 255 characters"),
		SecretName,
	)
	return WrapValidationError(err)
}

// ValidateGeneratorLength checks a requested generation length.
func ValidateGeneratorLength(length int) error {
	err := validation.Validate(length,
		validation.Min(1).Error("length must be at least 1"),
		validation.Max(255).Error("length must not exceed 255"),
	)
	return WrapValidationError(err)
}
