package rotation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// VerifyStatus classifies one record during history verification.
type VerifyStatus string

const (
	// VerifyValid means the signature matches under the provided key.
	VerifyValid VerifyStatus = "valid"
	// VerifyInvalid means the record was signed under the provided key but the
	// signature does not match its contents.
	VerifyInvalid VerifyStatus = "invalid"
	// VerifyUnverifiable means the record was signed under an earlier key
	// generation, identified by its fingerprint, and cannot be checked with
	// the provided key.
	VerifyUnverifiable VerifyStatus = "unverifiable"
)

// VerifyResult pairs a record with its verification status.
type VerifyResult struct {
	Record Record
	Status VerifyStatus
}

// History is the append-only rotation audit trail, one signed JSON record per
// line. Records are never rewritten: corrections appear as new records.
type History struct {
	mu     sync.Mutex
	path   string
	signer recordSigner
}

// NewHistory creates a history over the given JSONL file. The file is created
// on first append.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Path returns the audit log location.
func (h *History) Path() string {
	return h.path
}

// Append signs the record under the given master key and appends it to the
// log. The write is O_APPEND so concurrent appenders cannot interleave partial
// lines.
func (h *History) Append(masterKey []byte, record *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.signer.Sign(masterKey, record); err != nil {
		return err
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal rotation record: %w", err)
	}

	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create audit log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log %s: %w", h.path, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to append rotation record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	return nil
}

// All returns every record in chronological (append) order. A missing log file
// means no rotations have happened yet and returns an empty history.
func (h *History) All() ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log %s: %w", h.path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("audit log %s line %d is corrupt: %w", h.path, line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log %s: %w", h.path, err)
	}
	return records, nil
}

// Verify checks every record's signature under the given master key. Records
// signed under an earlier key generation are reported as unverifiable rather
// than invalid, since old keys are destroyed by rotation.
func (h *History) Verify(masterKey []byte) ([]VerifyResult, error) {
	records, err := h.All()
	if err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(masterKey)
	results := make([]VerifyResult, 0, len(records))
	for _, record := range records {
		status := VerifyValid
		if record.KeyFingerprint != fingerprint {
			status = VerifyUnverifiable
		} else if err := h.signer.Verify(masterKey, &record); err != nil {
			status = VerifyInvalid
		}
		results = append(results, VerifyResult{Record: record, Status: status})
	}
	return results, nil
}
