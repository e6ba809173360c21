// Package domain defines the core cryptographic types for the vault: the master
// key, supported AEAD algorithms, and the error values shared by every
// component that touches key material.
package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// MasterKey is the single symmetric key protecting all secrets at a point in
// time. It is the root of trust for the in-memory store, the encrypted env-file
// values, and the rotation audit trail.
//
// Security considerations:
//   - Master keys are always 32 bytes (256 bits) for AES-256/ChaCha20 compatibility
//   - Keys are generated using crypto/rand only
//   - Keys are rotated via the rotation protocol, never edited in place
//   - Key material must be zeroed with Zero when no longer needed
type MasterKey struct {
	// Key is the raw 32-byte master key material.
	Key []byte
}

// GenerateMasterKey creates a new cryptographically random 32-byte master key.
func GenerateMasterKey() (*MasterKey, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return &MasterKey{Key: key}, nil
}

// Encode returns the on-disk representation of the key: URL-safe base64 with
// padding, exactly 44 characters for a 32-byte key.
func (m *MasterKey) Encode() string {
	return base64.URLEncoding.EncodeToString(m.Key)
}

// DecodeMasterKey parses the on-disk key format. The input may carry trailing
// whitespace (a stray newline from shell redirection is the classic mistake);
// anything else is a validation failure.
//
// Validation is strict by design: exact encoded length, URL-safe base64
// alphabet, and exactly 32 decoded bytes. Error messages describe the shape of
// the problem but never include the key material itself.
func DecodeMasterKey(encoded string) (*MasterKey, error) {
	trimmed := strings.TrimRight(encoded, " \t\r\n")

	if len(trimmed) != EncodedKeySize {
		return nil, fmt.Errorf(
			"%w: got %d characters, want %d (%s)",
			ErrInvalidKeyEncoding,
			len(trimmed),
			EncodedKeySize,
			diagnoseKeyLength(trimmed),
		)
	}

	key, err := base64.URLEncoding.Strict().DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: not URL-safe base64", ErrInvalidKeyEncoding)
	}
	if len(key) != KeySize {
		Zero(key)
		return nil, fmt.Errorf("%w: decoded to %d bytes, want %d", ErrInvalidKeySize, len(key), KeySize)
	}

	return &MasterKey{Key: key}, nil
}

// Zero clears the key material from memory.
func (m *MasterKey) Zero() {
	if m == nil {
		return
	}
	Zero(m.Key)
}

// diagnoseKeyLength maps common key-length mistakes to an actionable hint.
// The hint never includes the key bytes.
func diagnoseKeyLength(trimmed string) string {
	switch {
	case len(trimmed) == KeySize:
		return "looks like raw 32-byte key material, expected base64 encoding"
	case strings.Contains(trimmed, "\n") || strings.Contains(trimmed, "\r"):
		return "contains embedded line breaks"
	case len(trimmed) < 40:
		return "severely truncated key"
	default:
		return "wrong length for an encoded master key"
	}
}
