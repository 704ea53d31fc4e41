package meiliutil

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Accepts the environment variables loaded from a file.
type EnvironmentVariableSetter interface {
	Set(key, value string) error
}

// Sets the variables in the environment of the current process.
type processEnvironmentVariableSetter struct{}

// Constructs a setter that modifies the environment of the current process.
func NewProcessEnvironmentVariableSetter() EnvironmentVariableSetter {
	return &processEnvironmentVariableSetter{}
}

// Sets the variable using os.Setenv.
func (s *processEnvironmentVariableSetter) Set(key, value string) error {
	return errors.WithStack(os.Setenv(key, value))
}

// Loads all entries from the environment file into the setter. The entries
// are applied in the order they appear in the file.
func LoadEnvironmentFileToSetter(path string, setter EnvironmentVariableSetter) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open the '%s' environment file", path)
	}
	defer file.Close()

	entries, err := loadEnvironmentEntries(file)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := setter.Set(entry.key, entry.value); err != nil {
			return errors.WithMessagef(err, "cannot set value for key: '%s'", entry.key)
		}
	}
	return nil
}

// Single KEY=VALUE line.
type environmentEntry struct {
	key   string
	value string
}

// Reads the entries from the reader. Comments and blank lines are skipped.
// The last occurrence of a duplicated key wins but keeps the position of
// the first one.
func loadEnvironmentEntries(reader io.Reader) ([]environmentEntry, error) {
	var entries []environmentEntry
	positions := make(map[string]int)

	scanner := bufio.NewScanner(reader)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Errorf("invalid line %d of environment file: missing '=' sign", lineIdx)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.Errorf("invalid line %d of environment file: empty key", lineIdx)
		}
		value = strings.TrimSpace(value)

		if idx, ok := positions[key]; ok {
			entries[idx].value = value
			continue
		}
		positions[key] = len(entries)
		entries = append(entries, environmentEntry{key: key, value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cannot read the environment file")
	}
	return entries, nil
}
