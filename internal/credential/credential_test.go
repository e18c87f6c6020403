package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrefersEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "  env-token \n")
	got, err := Load()
	if err != nil || got != "env-token" {
		t.Fatalf("Load = %q, %v", got, err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content *string
		want    string
		err     error
	}{
		{"missing", nil, "", ErrNotFound},
		{"blank", strPtr("\n  \n"), "", ErrNotFound},
		{"first line", strPtr("\n tok-1 \ntok-2\n"), "tok-1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			got, err := LoadFile(path)
			if !errors.Is(err, tt.err) || got != tt.want {
				t.Fatalf("LoadFile = %q, %v; want %q, %v", got, err, tt.want, tt.err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credential")
	if err := Save(path, " secret "); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil || got != "secret" {
		t.Fatalf("LoadFile = %q, %v", got, err)
	}
}

func strPtr(s string) *string { return &s }
