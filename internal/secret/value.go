// Package secret provides the leak-resistant Value container and the encrypted
// in-memory Store. A Value never exposes its plaintext through printing,
// logging, or serialization; a Store never holds plaintext between calls.
package secret

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	cryptoDomain "github.com/envlock/envlock/internal/crypto/domain"
)

const (
	maskVisibleStart = 3
	maskVisibleEnd   = 4
	maskMinStars     = 6
)

// Value wraps a sensitive string so it cannot leak by accident.
//
// Every default rendering path — String, GoString, slog logging, text and JSON
// marshaling — emits the masked form only. The plaintext is reachable solely
// through Reveal, which records the access for audit purposes. Equality checks
// run in constant time to resist timing side channels.
//
// The backing buffer is zeroed by Dispose; callers that are done with a value
// should dispose it promptly. A runtime cleanup zeroes the buffer at collection
// as a best-effort backstop, but garbage collection gives no timing guarantee,
// so Dispose is the contract and the cleanup is not.
type Value struct {
	buf      []byte
	name     string
	accessed atomic.Bool
	disposed atomic.Bool
}

// NewValue wraps plaintext under a display name used in masks and audit logs.
// The plaintext is copied; the caller's string is not retained.
func NewValue(plaintext, name string) *Value {
	if name == "" {
		name = "secret"
	}
	v := &Value{
		buf:  []byte(plaintext),
		name: name,
	}
	runtime.AddCleanup(v, cryptoDomain.Zero, v.buf)
	return v
}

// Reveal returns the plaintext and marks the value as accessed. This is the
// only path to the raw value. After Dispose it returns the empty string.
func (v *Value) Reveal() string {
	if v.disposed.Load() {
		return ""
	}
	v.accessed.Store(true)
	return string(v.buf)
}

// Mask returns the fixed-pattern redaction: the first 3 and last 4 characters
// visible, the middle starred. Values too short for that pattern collapse to
// stars entirely (at least 6) so the mask never reveals a short value's length
// exactly.
func (v *Value) Mask() string {
	if v.disposed.Load() {
		return strings.Repeat("*", maskMinStars)
	}
	return Mask(string(v.buf))
}

// Equal compares two values byte-wise in constant time.
func (v *Value) Equal(other *Value) bool {
	if other == nil {
		return false
	}
	return subtle.ConstantTimeCompare(v.buf, other.buf) == 1
}

// EqualString compares the value against a plaintext string in constant time.
// As with compare_digest-style primitives, a length mismatch returns false
// without leaking more than the length itself.
func (v *Value) EqualString(s string) bool {
	return subtle.ConstantTimeCompare(v.buf, []byte(s)) == 1
}

// Dispose overwrites the backing buffer with zeros and marks the value
// disposed. Safe to call more than once.
func (v *Value) Dispose() {
	if v.disposed.Swap(true) {
		return
	}
	cryptoDomain.Zero(v.buf)
}

// Accessed reports whether Reveal has been called on this value.
func (v *Value) Accessed() bool {
	return v.accessed.Load()
}

// Name returns the display name given at construction.
func (v *Value) Name() string {
	return v.name
}

// Len returns the plaintext length in bytes.
func (v *Value) Len() int {
	return len(v.buf)
}

// String implements fmt.Stringer; it returns the masked form, never the
// plaintext. This covers %v, %s, and %q formatting.
func (v *Value) String() string {
	return v.Mask()
}

// GoString implements fmt.GoStringer so %#v cannot dump the buffer.
func (v *Value) GoString() string {
	return fmt.Sprintf("secret.Value{name:%q, value:%q}", v.name, v.Mask())
}

// LogValue implements slog.LogValuer; structured logs receive the masked form.
func (v *Value) LogValue() slog.Value {
	return slog.StringValue(v.Mask())
}

// MarshalText serializes to the masked form only. Structural serialization of
// a secret fails closed into redaction rather than emitting plaintext.
func (v *Value) MarshalText() ([]byte, error) {
	return []byte(v.Mask()), nil
}

// MarshalJSON serializes to the masked form only.
func (v *Value) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.Mask())), nil
}

// UnmarshalJSON is rejected: a secret cannot be reconstituted from a document,
// because any document that round-trips would have to contain the plaintext.
func (v *Value) UnmarshalJSON([]byte) error {
	return fmt.Errorf("secret value %q cannot be unmarshaled", v.name)
}

// Mask redacts an arbitrary string with the same pattern Value.Mask uses.
// Useful for masking material that is not wrapped in a Value yet.
func Mask(s string) string {
	runes := []rune(s)
	total := len(runes)

	if total <= maskVisibleStart+maskVisibleEnd {
		return strings.Repeat("*", max(maskMinStars, total))
	}

	var b strings.Builder
	b.Grow(total)
	b.WriteString(string(runes[:maskVisibleStart]))
	b.WriteString(strings.Repeat("*", total-maskVisibleStart-maskVisibleEnd))
	b.WriteString(string(runes[total-maskVisibleEnd:]))
	return b.String()
}
