package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/analysis"
	"github.com/example/scribblelens/internal/appstate"
	"github.com/example/scribblelens/internal/credential"
)

// drawCmd opens the drawing window.
type drawCmd struct {
	*root
	fs            *flag.FlagSet
	program       string
	endpoint      string
	colorSpec     string
	width         int
	size          string
	saveDir       string
	panelLifetime time.Duration
	timeout       time.Duration

	// run is replaced in tests so no window is opened.
	run func(*appstate.AppState)
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func (d *drawCmd) Program() string {
	return d.program
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ContinueOnError)
	d := &drawCmd{root: r, fs: fs, program: r.subcommand("draw"), run: (*appstate.AppState).Run}
	fs.Usage = usageFunc(d)

	cfg := r.config
	endpoint := firstNonEmpty(os.Getenv("SCRIBBLELENS_ENDPOINT"), cfg.Endpoint, analysis.DefaultEndpoint)
	fs.StringVar(&d.endpoint, "endpoint", endpoint, "analysis endpoint URL")
	fs.StringVar(&d.colorSpec, "color", cfg.Color, "initial pen colour (name, #rrggbb or rgb(r,g,b))")
	fs.IntVar(&d.width, "width", cfg.Width, "initial pen width in pixels")
	fs.StringVar(&d.size, "size", fmt.Sprintf("%dx%d", appstate.DefaultWidth, appstate.DefaultHeight), "initial canvas size WIDTHxHEIGHT")
	fs.StringVar(&d.saveDir, "save-dir", cfg.SaveDir, "directory Ctrl+S writes PNG files to")
	fs.DurationVar(&d.panelLifetime, "panel-lifetime", cfg.PanelLifetime, "how long an analysis panel stays open (0 uses the default)")
	fs.DurationVar(&d.timeout, "timeout", 2*time.Minute, "per-request analysis timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, &UsageError{of: d, reason: fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}
	if _, _, err := parseSize(d.size); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *drawCmd) Run() error {
	w, h, err := parseSize(d.size)
	if err != nil {
		return err
	}
	token, err := credential.Load()
	if err != nil && !errors.Is(err, credential.ErrNotFound) {
		return fmt.Errorf("failed to read access credential: %w", err)
	}

	client := analysis.NewClient(d.endpoint, token)
	client.HTTP.Timeout = d.timeout
	client.Log = d.log.Named("client")

	st, err := appstate.New(
		appstate.WithSize(w, h),
		appstate.WithColor(d.colorSpec),
		appstate.WithStrokeWidth(d.width),
		appstate.WithAnalyzer(client),
		appstate.WithPanelLifetime(d.panelLifetime),
		appstate.WithLogger(d.log),
		appstate.WithNotifier(d.notifier),
		appstate.WithTheme(d.activeTheme),
		appstate.WithSaveDir(d.saveDir),
	)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	d.log.Info("drawing window starting",
		zap.String("endpoint", d.endpoint),
		zap.Bool("credential", token != ""),
		zap.Int("width", w),
		zap.Int("height", h),
	)
	d.run(st)
	return nil
}

// parseSize reads WIDTHxHEIGHT.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return w, h, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
