package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/drawings
endpoint = http://localhost:5000/analyze
panel_lifetime = 45s
color = rgb(231, 76, 60)
width = 7

[notify]
analysis = false
save = true
copy = true

[theme.my_custom_theme]
Background = #111111
PanelTitleBar: #FF0000
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/drawings" {
		t.Errorf("Expected save_dir '/tmp/drawings', got '%s'", cfg.SaveDir)
	}
	if cfg.Endpoint != "http://localhost:5000/analyze" {
		t.Errorf("Unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.PanelLifetime != 45*time.Second {
		t.Errorf("Unexpected panel_lifetime %v", cfg.PanelLifetime)
	}
	if cfg.Color != "rgb(231, 76, 60)" || cfg.Width != 7 {
		t.Errorf("Unexpected pen settings %q %d", cfg.Color, cfg.Width)
	}
	if cfg.Notify.Analysis {
		t.Error("Expected notify.analysis to be false")
	}
	if !cfg.Notify.Failure {
		t.Error("notify.failure should keep its default")
	}
	if !cfg.Notify.Save || !cfg.Notify.Copy {
		t.Errorf("Unexpected notify %+v", cfg.Notify)
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.PanelTitleBar.R != 0xFF {
		t.Errorf("Unexpected theme colors: %+v", th)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"panel_lifetime = soon\n",
		"width = wide\n",
		"[notify]\nsave = maybe\n",
		"[theme.x]\nPanelText = blue\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/drawings
endpoint = https://lens.example.com/analyze
panel_lifetime = 1m0s
width = 4

[notify]
analysis = true
failure = false
save = true
copy = false

[theme.custom]
Name = custom
Background = #000000
PanelLink = #00FF0080
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}
	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}
	if cfg.Theme != cfg2.Theme || cfg.SaveDir != cfg2.SaveDir || cfg.Endpoint != cfg2.Endpoint {
		t.Errorf("root mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.PanelLifetime != cfg2.PanelLifetime || cfg.Width != cfg2.Width {
		t.Errorf("pen/panel mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	t1, t2 := cfg.Themes["custom"], cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestLoaderOverridePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.rc")
	if err := os.WriteFile(path, []byte("theme = high_contrast\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewLoader("v1", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != "high_contrast" {
		t.Fatalf("theme = %q", cfg.Theme)
	}
}

func TestLoaderSearchOrder(t *testing.T) {
	t.Setenv(EnvPath, "")
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "scribblelens")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	l := &Loader{Version: "v1", Home: home}
	if got := l.GetConfigPath(); got != "" {
		t.Fatalf("empty home found %q", got)
	}

	fallback := filepath.Join(dir, "scribblelens.rc")
	if err := os.WriteFile(fallback, []byte("width = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := l.GetConfigPath(); got != fallback {
		t.Fatalf("path = %q, want %q", got, fallback)
	}

	primary := filepath.Join(dir, "config.rc")
	if err := os.WriteFile(primary, []byte("width = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 4 {
		t.Fatalf("width = %d, config.rc should win", cfg.Width)
	}

	env := filepath.Join(t.TempDir(), "env.rc")
	if err := os.WriteFile(env, []byte("width = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPath, env)
	if got := l.GetConfigPath(); got != env {
		t.Fatalf("path = %q, env override should win", got)
	}
}
