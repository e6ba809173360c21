package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	cryptoService "github.com/envlock/envlock/internal/crypto/service"
)

// assignmentPattern captures a KEY=value line while preserving its layout:
// leading whitespace, optional export keyword, and the spacing around the
// equals sign all survive a rewrite.
var assignmentPattern = regexp.MustCompile(`^(\s*)(export\s+)?([A-Za-z_][A-Za-z0-9_]*)(\s*=\s*)(.*)$`)

// sensitiveKeyFragments flag variable names whose plaintext values should be
// encrypted by EncryptFile. Matching is case-insensitive on substrings.
var sensitiveKeyFragments = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"private_key",
	"auth",
}

// IsSensitiveKey reports whether a variable name looks like it holds secret
// material.
func IsSensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// transformFunc rewrites one value. Returning the input unchanged leaves the
// line as is.
type transformFunc func(name, value string) (string, error)

// EncryptFile encrypts the values of sensitive-looking variables in place,
// leaving comments, blank lines, ordering, and non-sensitive entries
// untouched. Already-enveloped values are skipped. Returns the number of
// values encrypted. When backup is true the original is first copied to
// path+".bak".
func EncryptFile(aead cryptoService.AEAD, path string, backup bool) (int, error) {
	return rewriteInPlace(path, backup, func(name, value string) (string, error) {
		if !IsSensitiveKey(name) || IsEncrypted(value) || value == "" {
			return value, nil
		}
		return Wrap(aead, unquote(value))
	})
}

// DecryptFile replaces every enveloped value in the file with its plaintext.
// Returns the number of values decrypted.
func DecryptFile(aead cryptoService.AEAD, path string, backup bool) (int, error) {
	return rewriteInPlace(path, backup, func(name, value string) (string, error) {
		if !IsEncrypted(value) {
			return value, nil
		}
		plaintext, err := Unwrap(aead, value)
		if err != nil {
			return "", fmt.Errorf("variable %q: %w", name, err)
		}
		return plaintext, nil
	})
}

// ReencryptToTemp rewrites every enveloped value under a new cipher into a
// temporary file in the target's directory, leaving the target untouched. It
// returns the temp path for the caller to rename over the target, or remove
// on abort. Plaintext exists only transiently inside this function.
func ReencryptToTemp(oldAEAD, newAEAD cryptoService.AEAD, path string) (string, int, error) {
	return rewriteToTemp(path, func(name, value string) (string, error) {
		if !IsEncrypted(value) {
			return value, nil
		}
		plaintext, err := Unwrap(oldAEAD, value)
		if err != nil {
			return "", fmt.Errorf("variable %q: %w", name, err)
		}
		return Wrap(newAEAD, plaintext)
	})
}

func rewriteInPlace(path string, backup bool, transform transformFunc) (int, error) {
	if backup {
		original, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := os.WriteFile(path+".bak", original, 0o600); err != nil {
			return 0, fmt.Errorf("failed to write backup: %w", err)
		}
	}

	tempPath, changed, err := rewriteToTemp(path, transform)
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return changed, nil
}

// rewriteToTemp applies transform to every assignment line and writes the
// result to a temp file next to the target. Rename-over-target is left to the
// caller so staged rewrites and committed rewrites share one code path.
func rewriteToTemp(path string, transform transformFunc) (string, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := strings.Split(string(content), "\n")
	changed := 0
	for i, line := range lines {
		m := assignmentPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, value := m[3], strings.TrimRight(m[5], " \t")
		rewritten, err := transform(name, value)
		if err != nil {
			return "", 0, err
		}
		if rewritten == value {
			continue
		}
		lines[i] = m[1] + m[2] + name + m[4] + rewritten
		changed++
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	temp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := temp.WriteString(strings.Join(lines, "\n")); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return "", 0, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return "", 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(temp.Name(), info.Mode().Perm()); err != nil {
		os.Remove(temp.Name())
		return "", 0, fmt.Errorf("failed to set temp file mode: %w", err)
	}
	return temp.Name(), changed, nil
}

// unquote strips one layer of matching single or double quotes.
func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
