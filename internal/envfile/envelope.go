// Package envfile loads dotenv-style configuration files that mix plaintext
// values with inline encrypted ones. Encrypted values are carried in an
// ENC[<base64>] envelope so both this package and external tooling can tell
// them apart from plaintext without guessing.
package envfile

import (
	"encoding/base64"
	"fmt"
	"regexp"

	cryptoService "github.com/envlock/envlock/internal/crypto/service"
)

const (
	envelopePrefix = "ENC["
	envelopeSuffix = "]"
)

// envelopePattern matches the whole value, anchored. The payload is strict
// standard base64, so plaintext that merely mentions "ENC[" somewhere does not
// false-positive.
var envelopePattern = regexp.MustCompile(`^ENC\[([A-Za-z0-9+/]+={0,2})\]$`)

// IsEncrypted reports whether a value is carried in an encrypted envelope.
func IsEncrypted(value string) bool {
	return envelopePattern.MatchString(value)
}

// Wrap encrypts a plaintext value and wraps the result in an envelope suitable
// for storing in a configuration file.
func Wrap(aead cryptoService.AEAD, plaintext string) (string, error) {
	sealed, err := cryptoService.Seal(aead, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("failed to seal value: %w", err)
	}
	return envelopePrefix + base64.StdEncoding.EncodeToString(sealed) + envelopeSuffix, nil
}

// Unwrap decodes and decrypts an enveloped value. A value that does not match
// the envelope format returns ErrInvalidEnvelope; an envelope that does not
// decrypt under the active key returns the decryption error. Neither error
// carries the payload.
func Unwrap(aead cryptoService.AEAD, value string) (string, error) {
	m := envelopePattern.FindStringSubmatch(value)
	if m == nil {
		return "", ErrInvalidEnvelope
	}

	sealed, err := base64.StdEncoding.Strict().DecodeString(m[1])
	if err != nil {
		return "", ErrInvalidEnvelope
	}

	plaintext, err := cryptoService.Open(aead, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
