package appstate

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/analysis"
	"github.com/example/scribblelens/internal/canvas"
	"github.com/example/scribblelens/internal/history"
	"github.com/example/scribblelens/internal/input"
	"github.com/example/scribblelens/internal/logging"
	"github.com/example/scribblelens/internal/notify"
	"github.com/example/scribblelens/internal/panel"
	"github.com/example/scribblelens/internal/render"
	"github.com/example/scribblelens/internal/selection"
	"github.com/example/scribblelens/internal/theme"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 640

	noticeDuration = 2 * time.Second
)

// Affordance is the toolbar state: which commands are enabled and which
// indicators are lit.
type Affordance struct {
	Tool      canvas.Tool
	Color     color.RGBA
	Width     int
	CanUndo   bool
	CanRedo   bool
	Selecting bool
	Loading   bool
}

// Notice is the message overlay. A zero Until keeps it up until dismissed.
type Notice struct {
	Text  string
	Until time.Time
}

type pointerOwner int

const (
	ownerNone pointerOwner = iota
	ownerPanel
	ownerSelection
	ownerStroke
)

// AppState owns the drawing surface and every component acting on it.
// Input and commands arrive on one goroutine; analysis results, failures
// and panel expiry arrive on others.
type AppState struct {
	Tools     *canvas.Tools
	Surface   *canvas.Surface
	History   *history.Manager
	Engine    *canvas.Engine
	Selection *selection.Machine
	Panels    *panel.Manager
	Pipeline  *analysis.Pipeline
	Mapper    *input.Mapper
	Theme     *theme.Theme
	SaveDir   string

	size        image.Point
	colorSpec   string
	strokeWidth int
	analyzer    analysis.Analyzer
	lifetime    time.Duration
	clock       panel.Clock
	log         *logging.Logger
	notifier    *notify.Notifier
	now         func() time.Time

	owner pointerOwner

	mu           sync.Mutex
	notice       Notice
	onAffordance func(Affordance)
	onRepaint    func()
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithSize sets the initial surface size in pixels.
func WithSize(width, height int) Option {
	return func(a *AppState) { a.size = image.Pt(width, height) }
}

// WithColor sets the initial pen colour from a colour spec.
func WithColor(spec string) Option { return func(a *AppState) { a.colorSpec = spec } }

// WithStrokeWidth sets the initial stroke width; it is clamped to 1–20.
func WithStrokeWidth(width int) Option { return func(a *AppState) { a.strokeWidth = width } }

// WithAnalyzer sets the service selections are sent to.
func WithAnalyzer(an analysis.Analyzer) Option { return func(a *AppState) { a.analyzer = an } }

// WithPanelLifetime sets how long result panels stay open.
func WithPanelLifetime(d time.Duration) Option { return func(a *AppState) { a.lifetime = d } }

// WithClock replaces the clock behind panel expiry and notices.
func WithClock(c panel.Clock) Option { return func(a *AppState) { a.clock = c } }

func WithLogger(l *logging.Logger) Option { return func(a *AppState) { a.log = l } }

func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

func WithTheme(t *theme.Theme) Option {
	return func(a *AppState) {
		if t != nil {
			a.Theme = t
		}
	}
}

// WithSaveDir sets the directory Ctrl+S writes into.
func WithSaveDir(dir string) Option { return func(a *AppState) { a.SaveDir = dir } }

// WithAffordanceListener registers fn to receive the toolbar state after
// every change. It may be called from any goroutine.
func WithAffordanceListener(fn func(Affordance)) Option {
	return func(a *AppState) { a.onAffordance = fn }
}

// New builds the application state with a blank surface and one history
// entry for it.
func New(opts ...Option) (*AppState, error) {
	a := &AppState{
		size:  image.Pt(DefaultWidth, DefaultHeight),
		Theme: theme.Default(),
		log:   logging.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.analyzer == nil {
		a.analyzer = analysis.NewClient(analysis.DefaultEndpoint, "")
	}
	a.now = time.Now
	if a.clock != nil {
		a.now = a.clock.Now
	}

	a.Tools = canvas.NewTools()
	if a.colorSpec != "" {
		if err := a.Tools.SetColorSpec(a.colorSpec); err != nil {
			return nil, err
		}
	}
	if a.strokeWidth != 0 {
		a.Tools.SetWidth(a.strokeWidth)
	}

	a.Surface = canvas.NewSurface(a.size.X, a.size.Y)
	h, err := history.New(a.Surface, history.WithOnChange(func(bool, bool) { a.changed() }))
	if err != nil {
		return nil, err
	}
	a.History = h
	a.Engine = canvas.NewEngine(a.Surface, a.Tools, a.strokeFinished)
	a.Selection = selection.New(a.selectionChanged)
	a.Mapper = input.NewMapper()

	panelOpts := []panel.Option{
		panel.WithMeasure(render.Measure),
		panel.WithLifetime(a.lifetime),
		panel.WithOnChange(a.repaint),
	}
	if a.clock != nil {
		panelOpts = append(panelOpts, panel.WithClock(a.clock))
	}
	a.Panels = panel.NewManager(panelOpts...)

	tracker := analysis.NewTracker(func(bool) { a.changed() })
	a.Pipeline = analysis.NewPipeline(a.analyzer, a, a,
		analysis.WithTracker(tracker),
		analysis.WithLogger(a.log.Named("analysis")),
	)
	return a, nil
}

// SetRepaint installs the front end's repaint request.
func (a *AppState) SetRepaint(fn func()) {
	a.mu.Lock()
	a.onRepaint = fn
	a.mu.Unlock()
}

func (a *AppState) repaint() {
	a.mu.Lock()
	fn := a.onRepaint
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// changed publishes the affordance and asks for a repaint.
func (a *AppState) changed() {
	a.mu.Lock()
	fn := a.onAffordance
	a.mu.Unlock()
	if fn != nil {
		fn(a.Affordance())
	}
	a.repaint()
}

// Affordance reports the current toolbar state.
func (a *AppState) Affordance() Affordance {
	tool, col, width := a.Tools.Snapshot()
	aff := Affordance{Tool: tool, Color: col, Width: width}
	if a.History != nil {
		aff.CanUndo = a.History.CanUndo()
		aff.CanRedo = a.History.CanRedo()
	}
	if a.Selection != nil {
		aff.Selecting = a.Selection.Active()
	}
	if a.Pipeline != nil {
		aff.Loading = a.Pipeline.Tracker().Visible()
	}
	return aff
}

func (a *AppState) strokeFinished() {
	if err := a.History.Snapshot(); err != nil {
		a.log.Error("snapshot", zap.Error(err))
	}
}

// selectionChanged keeps drawing and selection mutually exclusive.
func (a *AppState) selectionChanged(from, to selection.State) {
	a.Engine.SetEnabled(to == selection.Idle)
	a.log.Debug("selection", zap.Stringer("from", from), zap.Stringer("to", to))
	a.changed()
}

func (a *AppState) SelectPen() {
	a.Tools.SetTool(canvas.ToolPen)
	a.changed()
}

func (a *AppState) SelectEraser() {
	a.Tools.SetTool(canvas.ToolEraser)
	a.changed()
}

// SetColor accepts rgb(), #hex, palette and CSS colour names.
func (a *AppState) SetColor(spec string) error {
	if err := a.Tools.SetColorSpec(spec); err != nil {
		return err
	}
	a.changed()
	return nil
}

func (a *AppState) SetColorRGBA(c color.RGBA) {
	a.Tools.SetColor(c)
	a.changed()
}

// SetWidth clamps width to 1–20 and returns the width applied.
func (a *AppState) SetWidth(width int) int {
	w := a.Tools.SetWidth(width)
	a.changed()
	return w
}

func (a *AppState) Undo() bool {
	ok, err := a.History.Undo()
	if err != nil {
		a.log.Error("undo", zap.Error(err))
	}
	return ok
}

func (a *AppState) Redo() bool {
	ok, err := a.History.Redo()
	if err != nil {
		a.log.Error("redo", zap.Error(err))
	}
	return ok
}

// Clear empties the surface once confirm agrees and records the blank
// surface in history. Declining leaves surface and history untouched.
func (a *AppState) Clear(confirm func() bool) bool {
	if confirm == nil || !confirm() {
		return false
	}
	a.Engine.End()
	a.Surface.Clear()
	if err := a.History.Snapshot(); err != nil {
		a.log.Error("snapshot", zap.Error(err))
	}
	a.log.Info("surface cleared")
	return true
}

// BeginAnalysis enters selection mode. A stroke in progress is finished
// first so the two modes never overlap.
func (a *AppState) BeginAnalysis() error {
	if a.Engine.Active() {
		a.Engine.End()
		a.owner = ownerNone
	}
	return a.Selection.Arm()
}

func (a *AppState) CancelSelection() {
	a.Selection.Cancel()
	if a.owner == ownerSelection {
		a.owner = ownerNone
	}
}

// Resize gives the surface new dimensions and repaints the current history
// entry into it. History itself is unchanged.
func (a *AppState) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("surface size must be positive")
	}
	if a.Surface.Bounds().Size() == image.Pt(width, height) {
		return nil
	}
	a.Surface.Resize(width, height)
	if err := a.History.Rerender(); err != nil {
		a.log.Error("rerender", zap.Error(err))
		return err
	}
	a.repaint()
	return nil
}

// Pointer routes one input event. Panels take the gesture first, then an
// armed selection, then the stroke engine. The component that accepted the
// press keeps the gesture until release.
func (a *AppState) Pointer(ev input.Event) {
	switch ev.Kind {
	case input.Down:
		if a.dismissBlocking() {
			return
		}
		switch {
		case a.Panels.Press(ev.Window):
			a.owner = ownerPanel
		case ev.Point.In(a.Surface.Bounds()) && a.Selection.Down(ev.Point):
			a.owner = ownerSelection
			a.repaint()
		case a.Engine.Begin(ev.Point):
			a.owner = ownerStroke
			a.Engine.Extend(ev.Point)
			a.repaint()
		}
	case input.Move:
		switch a.owner {
		case ownerPanel:
			a.Panels.DragTo(ev.Window)
		case ownerSelection:
			if a.Selection.Move(ev.Point) {
				a.repaint()
			}
		case ownerStroke:
			a.Engine.Extend(ev.Point)
			a.repaint()
		}
	case input.Up:
		owner := a.owner
		a.owner = ownerNone
		switch owner {
		case ownerPanel:
			a.Panels.Release(ev.Window)
		case ownerSelection:
			a.finishSelection(ev.Point)
		case ownerStroke:
			a.Engine.Extend(ev.Point)
			a.Engine.End()
			a.repaint()
		}
	}
}

// finishSelection tears selection mode down before any analysis starts.
func (a *AppState) finishSelection(p image.Point) {
	r, ok := a.Selection.Up(p)
	if !ok {
		a.log.Debug("selection discarded", zap.Stringer("rect", r))
		return
	}
	anchor := a.Mapper.ToWindow(image.Pt(r.Max.X, r.Min.Y))
	if _, err := a.Pipeline.Start(a.Surface, r, anchor); err != nil {
		a.log.Warn("start analysis", zap.Error(err))
	}
}

// Present implements analysis.Presenter. The region doubles as the
// notification preview.
func (a *AppState) Present(anchor image.Point, region image.Image, r analysis.Result) {
	a.Panels.Present(anchor, r)
	a.notifier.Analysis(r.Summary, region)
}

// ReportFailure implements analysis.FailureReporter. The message stays on
// screen until dismissed.
func (a *AppState) ReportFailure(job string, err error) {
	msg := err.Error()
	a.mu.Lock()
	a.notice = Notice{Text: msg}
	a.mu.Unlock()
	a.notifier.Failure(msg)
	a.repaint()
}

// Notify shows a short-lived message.
func (a *AppState) Notify(text string) {
	a.mu.Lock()
	a.notice = Notice{Text: text, Until: a.now().Add(noticeDuration)}
	a.mu.Unlock()
	a.repaint()
}

// Notice returns the message overlay if one is showing.
func (a *AppState) Notice() (Notice, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.notice
	if n.Text == "" {
		return Notice{}, false
	}
	if !n.Until.IsZero() && !a.now().Before(n.Until) {
		return Notice{}, false
	}
	return n, true
}

// DismissNotice hides the message overlay. It reports whether one was
// showing.
func (a *AppState) DismissNotice() bool {
	if _, ok := a.Notice(); !ok {
		return false
	}
	a.mu.Lock()
	a.notice = Notice{}
	a.mu.Unlock()
	a.repaint()
	return true
}

// dismissBlocking clears a notice that waits for the user, such as an
// analysis failure. Timed notices are left alone.
func (a *AppState) dismissBlocking() bool {
	a.mu.Lock()
	blocking := a.notice.Text != "" && a.notice.Until.IsZero()
	if blocking {
		a.notice = Notice{}
	}
	a.mu.Unlock()
	if blocking {
		a.repaint()
	}
	return blocking
}

// Wait blocks until every running analysis has delivered its outcome.
func (a *AppState) Wait() { a.Pipeline.Wait() }
