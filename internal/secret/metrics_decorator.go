package secret

import (
	"context"
	"time"

	"github.com/envlock/envlock/internal/metrics"
)

// storeWithMetrics decorates a SecretStore with metrics instrumentation.
type storeWithMetrics struct {
	next SecretStore
	m    metrics.BusinessMetrics
}

// NewStoreWithMetrics wraps a SecretStore with operation and duration metrics.
func NewStoreWithMetrics(store SecretStore, m metrics.BusinessMetrics) SecretStore {
	return &storeWithMetrics{next: store, m: m}
}

// record emits the counter and duration for one store operation.
func (s *storeWithMetrics) record(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ctx := context.Background()
	s.m.RecordOperation(ctx, "store", operation, status)
	s.m.RecordDuration(ctx, "store", operation, time.Since(start), status)
}

func (s *storeWithMetrics) Set(name, plaintext string) error {
	start := time.Now()
	err := s.next.Set(name, plaintext)
	s.record("secret_set", start, err)
	return err
}

func (s *storeWithMetrics) Get(name string) (*Value, error) {
	start := time.Now()
	value, err := s.next.Get(name)
	s.record("secret_get", start, err)
	return value, err
}

func (s *storeWithMetrics) Lookup(name string) (*Value, bool, error) {
	start := time.Now()
	value, ok, err := s.next.Lookup(name)
	s.record("secret_lookup", start, err)
	return value, ok, err
}

func (s *storeWithMetrics) Delete(name string) bool {
	start := time.Now()
	ok := s.next.Delete(name)
	s.record("secret_delete", start, nil)
	return ok
}

func (s *storeWithMetrics) Names() []string {
	return s.next.Names()
}

func (s *storeWithMetrics) Len() int {
	return s.next.Len()
}

func (s *storeWithMetrics) Encrypted() bool {
	return s.next.Encrypted()
}
