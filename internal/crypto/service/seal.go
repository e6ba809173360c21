package service

import (
	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
)

// Seal encrypts plaintext and packs the result as nonce||ciphertext, the single
// wire format used for stored secrets and env-file envelope values. The AAD
// binds the ciphertext to its context (e.g., the secret name) so a value cannot
// be replayed under a different name.
func Seal(aead AEAD, plaintext, aad []byte) ([]byte, error) {
	ciphertext, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return nil, err
	}

	packed := make([]byte, 0, len(nonce)+len(ciphertext))
	packed = append(packed, nonce...)
	packed = append(packed, ciphertext...)
	return packed, nil
}

// Open unpacks nonce||ciphertext and decrypts it. Any structural problem or
// authentication failure is reported as ErrDecryptionFailed without detail, so
// callers cannot tell a truncated blob from a wrong key.
func Open(aead AEAD, packed, aad []byte) ([]byte, error) {
	nonceSize := aead.NonceSize()
	if len(packed) < nonceSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	plaintext, err := aead.Decrypt(packed[nonceSize:], packed[:nonceSize], aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
