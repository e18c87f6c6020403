// Package notify turns drawing and analysis events into desktop
// notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/logging"
	"github.com/example/scribblelens/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventAnalysis fires when an analysis result is shown.
	EventAnalysis Event = "analysis"
	// EventFailure fires when an analysis request fails.
	EventFailure Event = "failure"
	// EventSave fires when the drawing is written to disk.
	EventSave Event = "save"
	// EventCopy fires when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// maxBody keeps summaries short enough for notification bubbles.
const maxBody = 200

type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.AppName,
		Events: map[Event]EventPreference{
			EventAnalysis: {Template: "%s"},
			EventFailure:  {Template: "Analysis failed: %s"},
			EventSave:     {Template: "Saved %s"},
			EventCopy:     {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences applies SCRIBBLELENS_NOTIFY_* overrides to the defaults.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("SCRIBBLELENS_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			p := prefs.Events[event]
			p.Template = v
			prefs.Events[event] = p
		}
	}
	apply("SCRIBBLELENS_NOTIFY_ANALYSIS_TEXT", EventAnalysis)
	apply("SCRIBBLELENS_NOTIFY_FAILURE_TEXT", EventFailure)
	apply("SCRIBBLELENS_NOTIFY_SAVE_TEXT", EventSave)
	apply("SCRIBBLELENS_NOTIFY_COPY_TEXT", EventCopy)
	return prefs
}

// Sender delivers one notification. platform.Notify is the default.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications based on the configured preferences.
// Analysis goroutines call it concurrently with the input thread.
type Notifier struct {
	prefs Preferences
	send  Sender
	log   *logging.Logger

	mu      sync.RWMutex
	enabled map[Event]bool
}

func New(prefs Preferences, log *logging.Logger) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Notifier{prefs: cloned, send: platform.Notify, log: log, enabled: make(map[Event]bool)}
}

// WithSender replaces the delivery function, for tests.
func (n *Notifier) WithSender(s Sender) *Notifier {
	n.send = s
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.enabled[event] = enabled
	n.mu.Unlock()
}

// Analysis announces a finished analysis with a shortened summary and an
// optional preview of the analysed region.
func (n *Notifier) Analysis(summary string, region image.Image) {
	if !n.enabledFor(EventAnalysis) {
		return
	}
	summary = truncate(strings.Join(strings.Fields(summary), " "), maxBody)
	if summary == "" {
		summary = "Analysis ready"
	}
	opts := platform.Options{}
	if region != nil {
		if path, cleanup, err := createPreview(region); err != nil {
			n.log.Warn("notification preview", zap.Error(err))
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventAnalysis, summary, opts)
}

// Failure announces a failed analysis. It is marked urgent so the message
// stays until dismissed.
func (n *Notifier) Failure(message string) {
	n.dispatch(EventFailure, truncate(message, maxBody), platform.Options{Urgent: true})
}

// Save announces a written file, preferring its absolute path.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, opts)
}

func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "drawing"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.log.Warn("notification", zap.String("event", string(event)), zap.Error(err))
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "scribblelens-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
