package rotation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/envlock/envlock/internal/errors"
)

func testRecord(t *testing.T) *Record {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &Record{
		ID:           id,
		StartedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt:   time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC),
		Outcome:      OutcomeSuccess,
		BackupDir:    "/backups/20260301T120000Z",
		Files:        []FileResult{{Path: ".env", Rotated: 2}},
		StoreEntries: 5,
	}
}

func TestRecordSignerSignVerify(t *testing.T) {
	signer := &recordSigner{}
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	record := testRecord(t)
	require.NoError(t, signer.Sign(key, record))
	require.Len(t, record.Signature, 32)
	require.Equal(t, Fingerprint(key), record.KeyFingerprint)

	require.NoError(t, signer.Verify(key, record))
}

func TestRecordSignerDetectsTampering(t *testing.T) {
	signer := &recordSigner{}
	key := make([]byte, 32)

	record := testRecord(t)
	require.NoError(t, signer.Sign(key, record))

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"outcome changed", func(r *Record) { r.Outcome = OutcomeFailed }},
		{"backup dir changed", func(r *Record) { r.BackupDir = "/elsewhere" }},
		{"entry count changed", func(r *Record) { r.StoreEntries = 0 }},
		{"file list changed", func(r *Record) { r.Files = nil }},
		{"timestamp changed", func(r *Record) { r.FinishedAt = r.FinishedAt.Add(time.Hour) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := *record
			tt.mutate(&tampered)
			err := signer.Verify(key, &tampered)
			require.True(t, errors.Is(err, ErrSignatureInvalid))
		})
	}
}

func TestRecordSignerWrongKey(t *testing.T) {
	signer := &recordSigner{}
	record := testRecord(t)
	require.NoError(t, signer.Sign(make([]byte, 32), record))

	other := make([]byte, 32)
	other[0] = 1
	err := signer.Verify(other, record)
	require.True(t, errors.Is(err, ErrSignatureInvalid))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("key-a"))
	b := Fingerprint([]byte("key-b"))

	require.Len(t, a, 16)
	require.NotEqual(t, a, b)
	require.Equal(t, a, Fingerprint([]byte("key-a")))
}
