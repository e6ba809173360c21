package rotation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
)

// recordSigner signs rotation records with HMAC-SHA256 under a key derived
// from the master key via HKDF-SHA256. Deriving a dedicated signing key keeps
// encryption key usage and signing key usage separate.
type recordSigner struct{}

// deriveSigningKey derives a 32-byte signing key from the master key.
// Info parameter: "rotation-log-signing-v1" (versioned for future algorithm changes).
func (s *recordSigner) deriveSigningKey(masterKey []byte) ([]byte, error) {
	info := []byte("rotation-log-signing-v1")
	kdf := hkdf.New(sha256.New, masterKey, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, err
	}
	return signingKey, nil
}

// canonicalize converts a record to a canonical byte representation for
// signing. Variable-length fields are length-prefixed to prevent ambiguity;
// the signature field itself is excluded.
func (s *recordSigner) canonicalize(record *Record) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, record.ID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(record.StartedAt.UnixNano()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(record.FinishedAt.UnixNano()))
	buf = appendLengthPrefixed(buf, []byte(record.Outcome))
	buf = appendLengthPrefixed(buf, []byte(record.BackupDir))

	if record.Files != nil {
		filesBytes, err := json.Marshal(record.Files)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal file results: %w", err)
		}
		buf = appendLengthPrefixed(buf, filesBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = binary.BigEndian.AppendUint64(buf, uint64(record.StoreEntries))
	buf = appendLengthPrefixed(buf, []byte(record.Failure))
	buf = appendLengthPrefixed(buf, []byte(record.KeyFingerprint))
	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if len(data) > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// Sign computes the record's HMAC-SHA256 signature under the given master key
// and stamps the record with the key's fingerprint.
func (s *recordSigner) Sign(masterKey []byte, record *Record) error {
	record.KeyFingerprint = Fingerprint(masterKey)

	signingKey, err := s.deriveSigningKey(masterKey)
	if err != nil {
		return fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer cryptoDomain.Zero(signingKey)

	canonical, err := s.canonicalize(record)
	if err != nil {
		return fmt.Errorf("failed to canonicalize record: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	record.Signature = mac.Sum(nil)
	return nil
}

// Verify checks the record's signature under the given master key. Returns
// ErrSignatureInvalid if the record was tampered with or signed under a
// different key.
func (s *recordSigner) Verify(masterKey []byte, record *Record) error {
	signingKey, err := s.deriveSigningKey(masterKey)
	if err != nil {
		return fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer cryptoDomain.Zero(signingKey)

	canonical, err := s.canonicalize(record)
	if err != nil {
		return fmt.Errorf("failed to canonicalize record: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	if !hmac.Equal(record.Signature, mac.Sum(nil)) {
		return ErrSignatureInvalid
	}
	return nil
}

// Fingerprint returns a short hex identifier for a master key, safe to store
// in records and logs. SHA-256 is one-way, so the fingerprint reveals nothing
// about the key itself.
func Fingerprint(masterKey []byte) string {
	sum := sha256.Sum256(masterKey)
	return hex.EncodeToString(sum[:8])
}
