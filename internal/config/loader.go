package config

import (
	"os"
	"path/filepath"
)

// EnvPath names a config file that takes precedence over the search path.
const EnvPath = "SCRIBBLELENS_CONFIG"

// Loader finds and reads the RC file.
type Loader struct {
	// Version is the build version; "dev" builds also look in the working
	// directory.
	Version string
	// OverridePath is set at link time by packagers.
	OverridePath string
	// Home replaces the user's home directory. Used by tests.
	Home string
}

func NewLoader(version string, overridePath string) *Loader {
	return &Loader{Version: version, OverridePath: overridePath}
}

// Load parses the first existing candidate. No file at all yields defaults.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Candidates lists the paths Load tries, in order.
func (l *Loader) Candidates() []string {
	var paths []string
	if p := os.Getenv(EnvPath); p != "" {
		paths = append(paths, p)
	}
	if l.OverridePath != "" {
		paths = append(paths, l.OverridePath)
	}
	if l.Version == "dev" {
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, ".scribblelensrc"))
		}
	}
	home := l.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	if home != "" {
		dir := filepath.Join(home, ".config", "scribblelens")
		paths = append(paths, filepath.Join(dir, "config.rc"), filepath.Join(dir, "scribblelens.rc"))
	}
	return paths
}

// GetConfigPath returns the first candidate that exists, or "".
func (l *Loader) GetConfigPath() string {
	for _, p := range l.Candidates() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}
