// Package credential loads the access token sent to the analysis service.
package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnvVar names the environment variable checked before the credential file.
const EnvVar = "SCRIBBLELENS_TOKEN"

var ErrNotFound = errors.New("no access credential configured")

// Path returns the credential file location under the user config dir.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "scribblelens", "credential"), nil
}

// Load returns the token from EnvVar, or else from the credential file.
// A missing or empty source yields ErrNotFound.
func Load() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvVar)); v != "" {
		return v, nil
	}
	path, err := Path()
	if err != nil {
		return "", ErrNotFound
	}
	return LoadFile(path)
}

// LoadFile reads a token from path. Only the first non-blank line counts.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", ErrNotFound
}

// Save writes token to path, readable only by the owner.
func Save(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.TrimSpace(token)+"\n"), 0o600)
}
