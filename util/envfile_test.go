package meiliutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// Setter collecting the variables in memory.
type mapEnvironmentVariableSetter struct {
	data map[string]string
	err  error
}

func (s *mapEnvironmentVariableSetter) Set(key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	return nil
}

// Test that loading a missing environment file causes an error.
func TestLoadMissingEnvironmentFile(t *testing.T) {
	// Arrange
	setter := &mapEnvironmentVariableSetter{data: map[string]string{}}

	// Act
	err := LoadEnvironmentFileToSetter(filepath.Join(t.TempDir(), "not-exists.env"), setter)

	// Assert
	require.ErrorContains(t, err, "cannot open")
	require.Empty(t, setter.data)
}

// Test that the multi-line content with comments is loaded properly.
func TestLoadEnvironmentEntries(t *testing.T) {
	// Arrange
	content := `# dump configuration
				MEILI_DUMPS_DIR=/var/lib/meilisearch/dumps

				MEILI_MAX_MDB_SIZE = 1024`

	// Act
	entries, err := loadEnvironmentEntries(strings.NewReader(content))

	// Assert
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "MEILI_DUMPS_DIR", entries[0].key)
	require.Equal(t, "/var/lib/meilisearch/dumps", entries[0].value)
	require.Equal(t, "MEILI_MAX_MDB_SIZE", entries[1].key)
	require.Equal(t, "1024", entries[1].value)
}

// Test that the duplicates are overwritten by the last value.
func TestLoadEnvironmentEntriesWithDuplicates(t *testing.T) {
	// Arrange
	content := "KEY=1\nOTHER=x\nKEY=3"

	// Act
	entries, err := loadEnvironmentEntries(strings.NewReader(content))

	// Assert
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "KEY", entries[0].key)
	require.Equal(t, "3", entries[0].value)
}

// Test that the value may contain the equal sign.
func TestLoadEnvironmentEntriesValueWithEqualSign(t *testing.T) {
	entries, err := loadEnvironmentEntries(strings.NewReader("KEY=a=b"))

	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a=b", entries[0].value)
}

// Test that the invalid lines are rejected.
func TestLoadEnvironmentEntriesInvalid(t *testing.T) {
	_, err := loadEnvironmentEntries(strings.NewReader("KEY=1\nINVALID"))
	require.ErrorContains(t, err, "line 2")

	_, err = loadEnvironmentEntries(strings.NewReader("=value"))
	require.ErrorContains(t, err, "empty key")
}

// Test that the entries from the file are passed to the setter.
func TestLoadEnvironmentFileToSetter(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "server.env")
	require.NoError(t, os.WriteFile(path, []byte("FOO=bar\nBAZ=qux\n"), 0o600))
	setter := &mapEnvironmentVariableSetter{data: map[string]string{}}

	// Act
	err := LoadEnvironmentFileToSetter(path, setter)

	// Assert
	require.NoError(t, err)
	require.Equal(t, map[string]string{"FOO": "bar", "BAZ": "qux"}, setter.data)
}

// Test that the setter error is propagated.
func TestLoadEnvironmentFileToSetterError(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "server.env")
	require.NoError(t, os.WriteFile(path, []byte("FOO=bar\n"), 0o600))
	setter := &mapEnvironmentVariableSetter{data: map[string]string{}, err: errors.New("read only")}

	// Act
	err := LoadEnvironmentFileToSetter(path, setter)

	// Assert
	require.ErrorContains(t, err, "FOO")
	require.ErrorContains(t, err, "read only")
}

// Test that the process setter modifies the environment.
func TestProcessEnvironmentVariableSetter(t *testing.T) {
	t.Setenv("MEILI_TEST_SETTER_KEY", "")
	setter := NewProcessEnvironmentVariableSetter()

	require.NoError(t, setter.Set("MEILI_TEST_SETTER_KEY", "value"))
	require.Equal(t, "value", os.Getenv("MEILI_TEST_SETTER_KEY"))
}
