package envfile

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/envlock/envlock/internal/errors"
)

func newTestLoader(t *testing.T) (*Loader, func(plaintext string) string) {
	t.Helper()

	aead := newTestCipher(t)
	loader := NewLoader(aead, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	encrypt := func(plaintext string) string {
		enveloped, err := Wrap(aead, plaintext)
		require.NoError(t, err)
		return enveloped
	}
	return loader, encrypt
}

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoaderLoad(t *testing.T) {
	loader, encrypt := newTestLoader(t)

	path := writeTestFile(t, ""+
		"# database settings\n"+
		"DB_HOST=localhost\n"+
		"DB_PASSWORD="+encrypt("super-secret")+"\n"+
		"export APP_NAME=\"my app\"\n")

	values, err := loader.Load(path, false, false)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"DB_HOST":     "localhost",
		"DB_PASSWORD": "super-secret",
		"APP_NAME":    "my app",
	}, values)
}

func TestLoaderLoadAppliesToEnvironment(t *testing.T) {
	loader, encrypt := newTestLoader(t)

	path := writeTestFile(t, "ENVLOCK_TEST_APPLIED="+encrypt("decrypted")+"\n")
	t.Cleanup(func() { os.Unsetenv("ENVLOCK_TEST_APPLIED") })

	_, err := loader.Load(path, true, false)
	require.NoError(t, err)
	require.Equal(t, "decrypted", os.Getenv("ENVLOCK_TEST_APPLIED"))
}

func TestLoaderLoadOverride(t *testing.T) {
	loader, _ := newTestLoader(t)
	path := writeTestFile(t, "ENVLOCK_TEST_OVERRIDE=from-file\n")

	t.Run("keeps existing value by default", func(t *testing.T) {
		t.Setenv("ENVLOCK_TEST_OVERRIDE", "pre-existing")

		_, err := loader.Load(path, true, false)
		require.NoError(t, err)
		require.Equal(t, "pre-existing", os.Getenv("ENVLOCK_TEST_OVERRIDE"))
	})

	t.Run("replaces existing value when asked", func(t *testing.T) {
		t.Setenv("ENVLOCK_TEST_OVERRIDE", "pre-existing")

		_, err := loader.Load(path, true, true)
		require.NoError(t, err)
		require.Equal(t, "from-file", os.Getenv("ENVLOCK_TEST_OVERRIDE"))
	})
}

func TestLoaderLoadFailures(t *testing.T) {
	loader, _ := newTestLoader(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(filepath.Join(t.TempDir(), "absent.env"), false, false)
		require.True(t, errors.Is(err, ErrParseFailed))
	})

	t.Run("garbage envelope names the variable only", func(t *testing.T) {
		path := writeTestFile(t, "API_KEY=ENC[aGVsbG8gd29ybGQh]\n")

		_, err := loader.Load(path, true, false)
		require.Error(t, err)
		require.Contains(t, err.Error(), "API_KEY")
		require.NotContains(t, err.Error(), "aGVsbG8gd29ybGQh")
	})

	t.Run("failed load does not touch the environment", func(t *testing.T) {
		path := writeTestFile(t, ""+
			"ENVLOCK_TEST_UNTOUCHED=fine\n"+
			"BROKEN_TOKEN=ENC[aGVsbG8gd29ybGQh]\n")
		t.Cleanup(func() { os.Unsetenv("ENVLOCK_TEST_UNTOUCHED") })

		_, err := loader.Load(path, true, false)
		require.Error(t, err)

		_, exists := os.LookupEnv("ENVLOCK_TEST_UNTOUCHED")
		require.False(t, exists)
	})
}

func TestLoaderEncryptedNames(t *testing.T) {
	loader, encrypt := newTestLoader(t)

	path := writeTestFile(t, ""+
		"PLAIN=value\n"+
		"ZULU_TOKEN="+encrypt("z")+"\n"+
		"ALPHA_SECRET="+encrypt("a")+"\n")

	names, err := loader.EncryptedNames(path)
	require.NoError(t, err)
	require.Equal(t, []string{"ALPHA_SECRET", "ZULU_TOKEN"}, names)
}
