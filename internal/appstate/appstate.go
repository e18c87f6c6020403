// Package appstate holds the application state object that owns the
// drawing surface, history, selection, analysis pipeline and result panels,
// and the shiny window that drives it.
package appstate

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/scribblelens/internal/canvas"
	"github.com/example/scribblelens/internal/input"
	"github.com/example/scribblelens/internal/panel"
	"github.com/example/scribblelens/internal/render"
	"github.com/example/scribblelens/internal/selection"
	"github.com/example/scribblelens/internal/theme"
)

const (
	toolbarWidth = 72
	statusHeight = 22
	buttonHeight = 24
	swatchSize   = 16

	// frameDropThreshold limits how many in-progress frames may be
	// cancelled in a row before one is allowed to finish.
	frameDropThreshold = 10

	clearConfirmWindow = 3 * time.Second
)

// KeyShortcut is a key combination bound to an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
	StateDisabled
)

// Button is a toolbar control. enabled and active read the affordance;
// nil means always enabled and never lit.
type Button struct {
	Label   string
	Rect    image.Rectangle
	Action  string
	enabled func(Affordance) bool
	active  func(Affordance) bool
}

func (b *Button) State(aff Affordance, hover image.Point) ButtonState {
	switch {
	case b.enabled != nil && !b.enabled(aff):
		return StateDisabled
	case b.active != nil && b.active(aff):
		return StatePressed
	case hover.In(b.Rect):
		return StateHover
	}
	return StateDefault
}

func (b *Button) Draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	bg, fg := th.ButtonBackground, th.ButtonText
	switch state {
	case StateHover:
		bg = th.ButtonBackgroundHover
	case StatePressed:
		bg = th.ButtonBackgroundActive
	case StateDisabled:
		fg = th.ButtonTextDisabled
	}
	draw.Draw(dst, b.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
	render.StrokeRect(dst, b.Rect, th.ButtonBorder, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: basicfont.Face7x13}
	w := d.MeasureString(b.Label).Ceil()
	d.Dot = fixed.P(b.Rect.Min.X+(b.Rect.Dx()-w)/2, b.Rect.Min.Y+(b.Rect.Dy()+10)/2)
	d.DrawString(b.Label)
}

type swatch struct {
	canvas.PaletteColor
	Rect image.Rectangle
}

// controls binds toolbar buttons and key shortcuts to AppState commands.
// The layout is fixed once built, so the paint goroutine may read it.
type controls struct {
	app      *AppState
	buttons  []*Button
	swatches []swatch
	widthBox image.Rectangle

	actions    map[string]func()
	keys       map[KeyShortcut]string
	clearUntil time.Time
}

func newControls(a *AppState) *controls {
	c := &controls{app: a, actions: map[string]func(){}, keys: map[KeyShortcut]string{}}
	c.registerActions()
	c.layout()
	return c
}

func (c *controls) register(name string, keys KeyboardShortcuts, fn func()) {
	c.actions[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			c.keys[sc] = name
		}
	}
}

func (c *controls) registerActions() {
	a := c.app
	c.register("pen", shortcutList{{Rune: 'p'}}, a.SelectPen)
	c.register("eraser", shortcutList{{Rune: 'e'}}, a.SelectEraser)
	c.register("thinner", shortcutList{{Rune: '['}, {Rune: '-'}}, func() { a.SetWidth(a.Tools.Width() - 1) })
	c.register("thicker", shortcutList{{Rune: ']'}, {Rune: '+'}, {Rune: '='}}, func() { a.SetWidth(a.Tools.Width() + 1) })
	c.register("undo", shortcutList{{Rune: 'z', Modifiers: key.ModControl}}, func() { a.Undo() })
	c.register("redo", shortcutList{
		{Rune: 'y', Modifiers: key.ModControl},
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
	}, func() { a.Redo() })
	c.register("clear", shortcutList{{Code: key.CodeDeleteForward}, {Code: key.CodeDeleteBackspace}}, c.requestClear)
	c.register("analyze", shortcutList{{Rune: 'a'}}, func() {
		if err := a.BeginAnalysis(); err != nil {
			a.log.Debug("begin analysis", zap.Error(err))
		}
	})
	c.register("cancel", shortcutList{{Code: key.CodeEscape}}, func() {
		if a.Selection.Active() {
			a.CancelSelection()
			return
		}
		a.DismissNotice()
	})
	c.register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, func() { _ = a.CopyImage() })
	c.register("copy-analysis", shortcutList{{Rune: 'c', Modifiers: key.ModControl | key.ModShift}}, func() { _ = a.CopyAnalysis() })
	c.register("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}}, func() { _, _ = a.Save() })
	for i, p := range canvas.Palette() {
		col := p.Color
		c.register("color-"+p.Name, shortcutList{{Rune: rune('1' + i)}}, func() { a.SetColorRGBA(col) })
	}
}

// requestClear clears on the second request inside clearConfirmWindow.
func (c *controls) requestClear() {
	a := c.app
	cleared := a.Clear(func() bool {
		if a.now().Before(c.clearUntil) {
			return true
		}
		c.clearUntil = a.now().Add(clearConfirmWindow)
		a.Notify("press Delete again to clear")
		return false
	})
	if cleared {
		c.clearUntil = time.Time{}
		a.Notify("cleared")
	}
}

func (c *controls) layout() {
	y := 4
	add := func(label, action string, enabled, active func(Affordance) bool) {
		c.buttons = append(c.buttons, &Button{
			Label: label, Action: action,
			Rect:    image.Rect(4, y, toolbarWidth-4, y+buttonHeight),
			enabled: enabled, active: active,
		})
		y += buttonHeight + 2
	}
	add("P:Pen", "pen", nil, func(s Affordance) bool { return s.Tool == canvas.ToolPen })
	add("E:Erase", "eraser", nil, func(s Affordance) bool { return s.Tool == canvas.ToolEraser })

	y += 4
	x := 6
	for _, p := range canvas.Palette() {
		c.swatches = append(c.swatches, swatch{PaletteColor: p, Rect: image.Rect(x, y, x+swatchSize, y+swatchSize)})
		x += swatchSize + 4
		if x+swatchSize > toolbarWidth-4 {
			x = 6
			y += swatchSize + 4
		}
	}
	if x != 6 {
		y += swatchSize + 4
	}

	y += 4
	half := (toolbarWidth - 8) / 3
	c.buttons = append(c.buttons,
		&Button{Label: "-", Action: "thinner", Rect: image.Rect(4, y, 4+half, y+buttonHeight),
			enabled: func(s Affordance) bool { return s.Width > canvas.MinWidth }},
		&Button{Label: "+", Action: "thicker", Rect: image.Rect(toolbarWidth-4-half, y, toolbarWidth-4, y+buttonHeight),
			enabled: func(s Affordance) bool { return s.Width < canvas.MaxWidth }},
	)
	c.widthBox = image.Rect(4+half, y, toolbarWidth-4-half, y+buttonHeight)
	y += buttonHeight + 6

	add("Undo", "undo", func(s Affordance) bool { return s.CanUndo }, nil)
	add("Redo", "redo", func(s Affordance) bool { return s.CanRedo }, nil)
	add("Clear", "clear", nil, nil)
	y += 4
	add("A:AI", "analyze", func(s Affordance) bool { return !s.Selecting }, func(s Affordance) bool { return s.Selecting })
}

// Click activates the toolbar control under pt. It reports whether pt was
// on a control.
func (c *controls) Click(pt image.Point) bool {
	aff := c.app.Affordance()
	for _, b := range c.buttons {
		if !pt.In(b.Rect) {
			continue
		}
		if b.State(aff, pt) != StateDisabled {
			c.run(b.Action)
		}
		return true
	}
	for _, s := range c.swatches {
		if pt.In(s.Rect) {
			c.app.SetColorRGBA(s.Color)
			return true
		}
	}
	return false
}

// Key runs the action bound to e. It reports whether one was bound.
func (c *controls) Key(e key.Event) bool {
	var tries []KeyShortcut
	if unicode.IsPrint(e.Rune) {
		r := unicode.ToLower(e.Rune)
		tries = append(tries, KeyShortcut{Rune: r, Modifiers: e.Modifiers})
		// Shift is implied by symbols such as '+'.
		if e.Modifiers&key.ModShift != 0 && !unicode.IsLetter(r) {
			tries = append(tries, KeyShortcut{Rune: r, Modifiers: e.Modifiers &^ key.ModShift})
		}
	}
	tries = append(tries, KeyShortcut{Code: e.Code, Modifiers: e.Modifiers})
	for _, ks := range tries {
		if action, ok := c.keys[ks]; ok {
			c.run(action)
			return true
		}
	}
	return false
}

func (c *controls) run(action string) {
	if fn, ok := c.actions[action]; ok {
		fn()
	}
}

// Run opens the window and blocks until it is closed.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the window event loop on s. Painting happens on its own
// goroutine; a newer frame cancels one still being drawn.
func (a *AppState) Main(s screen.Screen) {
	b := a.Surface.Bounds()
	width := b.Dx() + toolbarWidth
	height := b.Dy() + statusHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "ScribbleLens"})
	if err != nil {
		a.log.Error("new window", zap.Error(err))
		return
	}
	defer w.Release()

	a.Mapper.Origin = image.Pt(toolbarWidth, 0)
	a.SetRepaint(func() { w.Send(paint.Event{}) })
	defer a.SetRepaint(nil)

	ctrl := newControls(a)
	hover := image.Pt(-1, -1)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			a.drawFrame(ctx, s, w, st)
			cancel()
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
		}
	}()

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			if err := a.Resize(max(width-toolbarWidth, 1), max(height-statusHeight, 1)); err != nil {
				a.log.Warn("resize", zap.Error(err))
			}
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := a.paintState(ctrl, width, height, hover)
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			pt := image.Pt(int(e.X), int(e.Y))
			prev := hover
			hover = pt
			if pt.X < toolbarWidth && e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft {
				ctrl.Click(pt)
				w.Send(paint.Event{})
				continue
			}
			if ev, ok := a.Mapper.Mouse(e); ok {
				a.Pointer(ev)
				continue
			}
			if e.Direction == mouse.DirNone && (pt.X < toolbarWidth || prev.X < toolbarWidth || a.Panels.Len() > 0) {
				w.Send(paint.Event{})
			}
		case touch.Event:
			ev, ok := a.Mapper.Touch(e)
			if !ok {
				continue
			}
			if ev.Kind == input.Down && ev.Window.X < toolbarWidth {
				ctrl.Click(ev.Window)
				w.Send(paint.Event{})
				continue
			}
			a.Pointer(ev)
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if ctrl.Key(e) {
				w.Send(paint.Event{})
			}
		case error:
			a.log.Warn("window", zap.Error(e))
		}
	}
}

type paintState struct {
	width, height int
	hover         image.Point
	aff           Affordance
	controls      *controls
	selecting     selection.State
	selRect       image.Rectangle
	dragging      bool
	panels        []panel.Panel
	notice        Notice
	showNotice    bool
}

func (a *AppState) paintState(c *controls, width, height int, hover image.Point) paintState {
	st := paintState{
		width:     width,
		height:    height,
		hover:     hover,
		aff:       a.Affordance(),
		controls:  c,
		selecting: a.Selection.State(),
		panels:    a.Panels.Panels(),
	}
	if r, ok := a.Selection.Rect(); ok {
		n := r.Normalize()
		st.selRect = image.Rectangle{Min: a.Mapper.ToWindow(n.Min), Max: a.Mapper.ToWindow(n.Max)}
		st.dragging = true
	}
	st.notice, st.showNotice = a.Notice()
	return st
}

func (a *AppState) drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	buf, err := s.NewBuffer(image.Pt(st.width, st.height))
	if err != nil {
		a.log.Error("new buffer", zap.Error(err))
		return
	}
	defer buf.Release()
	dst := buf.RGBA()
	th := a.Theme

	draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)

	var target image.Rectangle
	a.Surface.View(func(img *image.RGBA) {
		b := img.Bounds()
		target = image.Rectangle{Min: a.Mapper.ToWindow(b.Min), Max: a.Mapper.ToWindow(b.Max)}
		draw.Draw(dst, target, image.NewUniform(th.CanvasBackground), image.Point{}, draw.Src)
		xdraw.NearestNeighbor.Scale(dst, target, img, b, draw.Over, nil)
	})
	if ctx.Err() != nil {
		return
	}

	if st.dragging {
		render.Selection(dst, st.selRect, th)
	}
	for _, p := range st.panels {
		render.Panel(dst, p, th, st.hover.In(p.CloseBox()))
		if ctx.Err() != nil {
			return
		}
	}

	drawToolbar(dst, st, th)
	drawStatus(dst, st, th)
	if st.aff.Loading {
		render.Badge(dst, image.Pt(target.Max.X-8, target.Max.Y-8), "Analyzing…", th)
	}
	if st.showNotice {
		render.Message(dst, target, st.notice.Text, th)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, buf, buf.Bounds())
	w.Publish()
}

func drawToolbar(dst *image.RGBA, st paintState, th *theme.Theme) {
	bar := image.Rect(0, 0, toolbarWidth, st.height)
	draw.Draw(dst, bar, image.NewUniform(th.ToolbarBackground), image.Point{}, draw.Src)
	for _, b := range st.controls.buttons {
		b.Draw(dst, th, b.State(st.aff, st.hover))
	}
	for _, s := range st.controls.swatches {
		draw.Draw(dst, s.Rect, image.NewUniform(s.Color), image.Point{}, draw.Src)
		if s.Color == st.aff.Color {
			render.StrokeRect(dst, s.Rect.Inset(-2), th.ButtonBackgroundActive, 2)
		} else if st.hover.In(s.Rect) {
			render.StrokeRect(dst, s.Rect, th.ButtonText, 1)
		}
	}
	box := st.controls.widthBox
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ButtonText), Face: basicfont.Face7x13}
	label := fmt.Sprintf("%d", st.aff.Width)
	lw := d.MeasureString(label).Ceil()
	d.Dot = fixed.P(box.Min.X+(box.Dx()-lw)/2, box.Min.Y+(box.Dy()+10)/2)
	d.DrawString(label)
}

func drawStatus(dst *image.RGBA, st paintState, th *theme.Theme) {
	bar := image.Rect(toolbarWidth, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, bar, image.NewUniform(th.ToolbarBackground), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(bar.Min.X+8, bar.Min.Y+15)}
	d.DrawString(statusLine(st))
}

func statusLine(st paintState) string {
	switch st.selecting {
	case selection.AwaitingStart:
		return "Drag over the area to analyse  (Esc cancels)"
	case selection.Selecting:
		return fmt.Sprintf("Selecting %dx%d", st.selRect.Dx(), st.selRect.Dy())
	}
	return fmt.Sprintf("%s  %s  width %d   A: analyse  Ctrl+Z/Ctrl+Y  Del: clear  Ctrl+S: save",
		st.aff.Tool, canvas.FormatRGB(st.aff.Color), st.aff.Width)
}
