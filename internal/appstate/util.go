package appstate

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/analysis"
	"github.com/example/scribblelens/internal/clipboard"
)

// saveLayout names saved drawings after the time they were taken.
const saveLayout = "scribblelens-20060102-150405.png"

// Save writes the surface as a PNG into SaveDir, or the working directory
// when none is set, and returns the path written.
func (a *AppState) Save() (string, error) {
	dir := a.SaveDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	path := filepath.Join(dir, a.now().Format(saveLayout))
	if err := WritePNG(path, a.Surface.Clone()); err != nil {
		a.log.Error("save", zap.Error(err))
		return "", err
	}
	a.log.Info("saved", zap.String("path", path))
	a.Notify("saved " + filepath.Base(path))
	a.notifier.Save(path)
	return path, nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		_ = out.Close()
		return fmt.Errorf("save: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("save: closing file: %w", err)
	}
	return nil
}

// CopyImage puts the surface on the clipboard.
func (a *AppState) CopyImage() error {
	if err := clipboard.WriteImage(a.Surface.Clone()); err != nil {
		a.log.Warn("copy", zap.Error(err))
		a.Notify("copy failed")
		return err
	}
	a.Notify("drawing copied to clipboard")
	a.notifier.Copy("drawing")
	return nil
}

// CopyAnalysis puts the topmost panel's summary and links on the clipboard.
func (a *AppState) CopyAnalysis() error {
	p, ok := a.Panels.Top()
	if !ok {
		return nil
	}
	if err := clipboard.WriteText(ResultText(p.Result)); err != nil {
		a.log.Warn("copy analysis", zap.Error(err))
		a.Notify("copy failed")
		return err
	}
	a.Notify("analysis copied to clipboard")
	a.notifier.Copy("analysis")
	return nil
}

// ResultText formats r as plain text: the summary, then one link per line.
func ResultText(r analysis.Result) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(r.Summary))
	if len(r.Links) > 0 {
		sb.WriteString("\n")
	}
	for _, l := range r.Links {
		sb.WriteString("\n")
		if l.Title != "" && l.Title != l.URL {
			sb.WriteString(l.Title + " - ")
		}
		sb.WriteString(l.URL)
	}
	return sb.String()
}
