package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/example/scribblelens/internal/config"
	"github.com/example/scribblelens/internal/logging"
	"github.com/example/scribblelens/internal/notify"
	"github.com/example/scribblelens/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs             *flag.FlagSet
	program        string
	config         *config.Config
	notifier       *notify.Notifier
	analysisAlerts bool
	failureAlerts  bool
	saveAlerts     bool
	copyAlerts     bool
	themeName      string
	logFile        string
	debug          bool
	activeTheme    *theme.Theme
	log            *logging.Logger
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) subcommand(name string) string {
	return strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	return newRootWithConfig(cfg)
}

func newRootWithConfig(cfg *config.Config) *root {
	r := &root{
		fs:      flag.NewFlagSet("scribblelens", flag.ContinueOnError),
		program: "scribblelens",
		config:  cfg,
		log:     logging.Nop(),
	}
	r.fs.BoolVar(&r.analysisAlerts, "notify-analysis", cfg.Notify.Analysis, "show a desktop notification when an analysis finishes")
	r.fs.BoolVar(&r.failureAlerts, "notify-failure", cfg.Notify.Failure, "show a desktop notification when an analysis fails")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving the drawing")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	// Empty means fall back to SCRIBBLELENS_THEME, then the config file.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, high_contrast or a .theme file)")
	r.fs.StringVar(&r.logFile, "log-file", cfg.LogFile, "also write JSON logs to this rotated file")
	r.fs.BoolVar(&r.debug, "debug", false, "log at debug level with the console encoder")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	r.log = logging.New(logging.Options{Development: r.debug, File: r.logFile})
	r.notifier = notify.New(notify.LoadPreferences(), r.log.Named("notify"))
	r.notifier.Enable(notify.EventAnalysis, r.analysisAlerts)
	r.notifier.Enable(notify.EventFailure, r.failureAlerts)
	r.notifier.Enable(notify.EventSave, r.saveAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "analyze":
		cmd, err = parseAnalyzeCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	case "help":
		err = &UsageError{of: r}
	default:
		err = &UsageError{of: r, reason: fmt.Sprintf("unknown command %q", cmdName)}
	}
	if err != nil {
		return err
	}
	defer func() { _ = r.log.Sync() }()
	return cmd.Run()
}

// resolveTheme applies flag > env > config > default. Themes defined in the
// config file win over files and embedded themes of the same name.
func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("SCRIBBLELENS_THEME")
	}
	if name == "" && r.config != nil {
		name = r.config.Theme
	}
	if r.config != nil {
		if t, ok := r.config.Themes[name]; ok {
			return t
		}
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
