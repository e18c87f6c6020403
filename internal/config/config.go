package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/scribblelens/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Analysis bool
	Failure  bool
	Save     bool
	Copy     bool
}

// Config holds the application configuration.
type Config struct {
	Theme         string
	SaveDir       string
	Endpoint      string
	PanelLifetime time.Duration
	Color         string
	Width         int
	LogFile       string
	Notify        Notify
	Themes        map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Notify: Notify{
			Analysis: true,
			Failure:  true,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	root := []struct {
		key, value string
	}{
		{"theme", c.Theme},
		{"save_dir", c.SaveDir},
		{"endpoint", c.Endpoint},
		{"color", c.Color},
		{"log_file", c.LogFile},
	}
	for _, kv := range root {
		if kv.value != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv.key, kv.value)
		}
	}
	if c.PanelLifetime > 0 {
		fmt.Fprintf(&sb, "panel_lifetime = %s\n", c.PanelLifetime)
	}
	if c.Width > 0 {
		fmt.Fprintf(&sb, "width = %d\n", c.Width)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "analysis = %v\n", c.Notify.Analysis)
	fmt.Fprintf(&sb, "failure = %v\n", c.Notify.Failure)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		_ = c.Themes[name].Format(&sb, ":")
		sb.WriteString("\n")
	}

	return sb.String()
}
