package secret

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
	cryptoService "github.com/envlock/envlock/internal/crypto/service"
	"github.com/envlock/envlock/internal/keyring"
	"github.com/envlock/envlock/internal/validation"
)

// SecretStore is the read/write surface of the vault, satisfied by Store and
// its metrics decorator.
type SecretStore interface {
	// Set encrypts plaintext under the active key and stores it, overwriting
	// any prior entry for that name.
	Set(name, plaintext string) error

	// Get decrypts the named secret on demand and returns a fresh Value.
	// Returns ErrSecretNotFound if the name is absent.
	Get(name string) (*Value, error)

	// Lookup is the optional-presence variant of Get: an absent name returns
	// ok=false and no error.
	Lookup(name string) (*Value, bool, error)

	// Delete removes an entry, reporting whether it existed.
	Delete(name string) bool

	// Names returns the stored secret names in sorted order, never values.
	Names() []string

	// Len returns the number of stored secrets.
	Len() int

	// Encrypted reports whether the store encrypts at rest. False only for the
	// development/test passthrough store.
	Encrypted() bool
}

// Store is an encrypted in-memory mapping from secret name to ciphertext.
//
// The store holds only ciphertext between calls: Set encrypts immediately and
// Get decrypts on demand into a fresh Value, so a memory dump of the store
// exposes nothing without the master key. The ciphertext is bound to the
// secret name as AAD, so an entry copied to another name fails authentication.
//
// Concurrency: mutations (Set, Delete, ReplaceAll) take the write lock;
// Get/Lookup take the read lock and may run in parallel. Rotation stages on a
// Snapshot copy and swaps via ReplaceAll, keeping the long re-encryption work
// outside the lock.
type Store struct {
	mu      sync.RWMutex
	aead    cryptoService.AEAD // nil means passthrough (development/test only)
	entries map[string][]byte
	logger  *slog.Logger
}

// NewStore creates an encrypted store over the given cipher.
func NewStore(aead cryptoService.AEAD, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		aead:    aead,
		entries: make(map[string][]byte),
		logger:  logger,
	}
}

// NewPassthroughStore creates a store without encryption, for tests and
// development flows that have no key at all. Refused in fail-closed
// environments: production never runs a degraded store.
func NewPassthroughStore(environment keyring.Environment, logger *slog.Logger) (*Store, error) {
	if environment.FailClosed() {
		return nil, fmt.Errorf("%w: environment %s", ErrPassthroughForbidden, environment)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("secret store running WITHOUT encryption (passthrough mode)")
	return &Store{
		entries: make(map[string][]byte),
		logger:  logger,
	}, nil
}

// Set encrypts plaintext under the active key and stores the ciphertext,
// overwriting any prior entry for that name.
func (s *Store) Set(name, plaintext string) error {
	if err := validation.ValidateSecretName(name); err != nil {
		return err
	}

	// Seal under the write lock so the cipher and the map stay consistent:
	// a Set racing a rotation commit must never insert old-key ciphertext
	// into the freshly re-keyed map.
	s.mu.Lock()
	encrypted := s.aead != nil
	if encrypted {
		buf := []byte(plaintext)
		sealed, err := cryptoService.Seal(s.aead, buf, []byte(name))
		cryptoDomain.Zero(buf)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to encrypt secret %q: %w", name, err)
		}
		s.entries[name] = sealed
	} else {
		s.entries[name] = []byte(plaintext)
	}
	s.mu.Unlock()

	s.logger.Debug("secret stored", "name", name, "encrypted", encrypted)
	return nil
}

// Get decrypts the named secret and returns a fresh Value exclusively owned by
// the caller. Absent names yield ErrSecretNotFound; ciphertext that does not
// decrypt under the active key yields ErrDecryptionFailed. The error carries
// the secret name, never its material.
func (s *Store) Get(name string) (*Value, error) {
	value, ok, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSecretNotFound, name)
	}
	return value, nil
}

// Lookup decrypts the named secret if present. Absent names return ok=false
// with no error, for callers with optional secrets.
func (s *Store) Lookup(name string) (*Value, bool, error) {
	s.mu.RLock()
	stored, ok := s.entries[name]
	aead := s.aead
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if aead == nil {
		return NewValue(string(stored), name), true, nil
	}

	plaintext, err := cryptoService.Open(aead, stored, []byte(name))
	if err != nil {
		s.logger.Error("secret decryption failed", "name", name)
		return nil, false, fmt.Errorf("secret %q: %w", name, err)
	}

	value := NewValue(string(plaintext), name)
	cryptoDomain.Zero(plaintext)
	return value, true, nil
}

// Delete removes an entry, reporting whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	_, ok := s.entries[name]
	delete(s.entries, name)
	s.mu.Unlock()

	if ok {
		s.logger.Debug("secret purged", "name", name)
	}
	return ok
}

// Names returns the stored secret names in sorted order. Values are never
// listed.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of stored secrets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Encrypted reports whether the store encrypts at rest.
func (s *Store) Encrypted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aead != nil
}

// Snapshot copies the ciphertext map under a brief read lock. Rotation stages
// its re-encryption on the copy so the store stays available while the slow
// work happens.
func (s *Store) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string][]byte, len(s.entries))
	for name, ciphertext := range s.entries {
		snapshot[name] = append([]byte(nil), ciphertext...)
	}
	return snapshot
}

// ReplaceAll atomically swaps in a fully staged ciphertext map and its cipher.
// This is the rotation commit: the only moment rotation holds the write lock.
// The store takes ownership of the map.
func (s *Store) ReplaceAll(entries map[string][]byte, aead cryptoService.AEAD) {
	s.mu.Lock()
	s.entries = entries
	s.aead = aead
	count := len(entries)
	s.mu.Unlock()

	s.logger.Info("secret store re-keyed", "entries", count)
}
