package canvas

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

// Tool selects how strokes composite onto the surface.
type Tool int

const (
	ToolPen Tool = iota
	ToolEraser
)

func (t Tool) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolEraser:
		return "eraser"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

const (
	MinWidth = 1
	MaxWidth = 20

	defaultColorIndex = 0
	defaultWidth      = 3
)

type PaletteColor struct {
	Name  string
	Color color.RGBA
}

var palette = []PaletteColor{
	{"Black", color.RGBA{0, 0, 0, 255}},
	{"Red", color.RGBA{231, 76, 60, 255}},
	{"Orange", color.RGBA{243, 156, 18, 255}},
	{"Yellow", color.RGBA{241, 196, 15, 255}},
	{"Green", color.RGBA{46, 204, 113, 255}},
	{"Blue", color.RGBA{52, 152, 219, 255}},
	{"Purple", color.RGBA{155, 89, 182, 255}},
	{"Gray", color.RGBA{127, 140, 141, 255}},
}

// Palette returns a copy of the toolbar colors.
func Palette() []PaletteColor {
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// Tools is the process-wide drawing state read by the stroke engine on
// every draw step and mutated by toolbar commands.
type Tools struct {
	mu    sync.RWMutex
	tool  Tool
	color color.RGBA
	width int
}

// NewTools returns pen, the first palette color and the default width.
func NewTools() *Tools {
	return &Tools{
		tool:  ToolPen,
		color: palette[defaultColorIndex].Color,
		width: defaultWidth,
	}
}

// Snapshot returns the active tool, color and width as one consistent read.
func (t *Tools) Snapshot() (Tool, color.RGBA, int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tool, t.color, t.width
}

func (t *Tools) Tool() Tool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tool
}

func (t *Tools) Color() color.RGBA {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.color
}

func (t *Tools) Width() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.width
}

func (t *Tools) SetTool(tool Tool) {
	t.mu.Lock()
	t.tool = tool
	t.mu.Unlock()
}

func (t *Tools) SetColor(c color.RGBA) {
	t.mu.Lock()
	t.color = c
	t.mu.Unlock()
}

// SetColorSpec parses spec with ParseColor and makes it the active color.
func (t *Tools) SetColorSpec(spec string) error {
	c, err := ParseColor(spec)
	if err != nil {
		return err
	}
	t.SetColor(c)
	return nil
}

// SetWidth clamps width to MinWidth..MaxWidth and returns the stored value.
func (t *Tools) SetWidth(width int) int {
	width = ClampWidth(width)
	t.mu.Lock()
	t.width = width
	t.mu.Unlock()
	return width
}

func ClampWidth(width int) int {
	if width < MinWidth {
		return MinWidth
	}
	if width > MaxWidth {
		return MaxWidth
	}
	return width
}

// ParseColor accepts rgb(r, g, b), #RRGGBB, #RRGGBBAA, a palette name or a
// CSS color name.
func ParseColor(s string) (color.RGBA, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	if spec == "" {
		return color.RGBA{}, fmt.Errorf("color cannot be empty")
	}
	if strings.HasPrefix(spec, "rgb(") && strings.HasSuffix(spec, ")") {
		return parseRGBFunc(spec[len("rgb(") : len(spec)-1])
	}
	if strings.HasPrefix(spec, "#") {
		return parseHex(spec)
	}
	for _, entry := range palette {
		if strings.EqualFold(entry.Name, spec) {
			return entry.Color, nil
		}
	}
	if c, ok := colornames.Map[spec]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("invalid color %q", s)
}

func parseRGBFunc(body string) (color.RGBA, error) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid color rgb(%s)", body)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color rgb(%s)", body)
		}
		ch[i] = uint8(v)
	}
	return color.RGBA{ch[0], ch[1], ch[2], 255}, nil
}

func parseHex(spec string) (color.RGBA, error) {
	hex := strings.TrimPrefix(spec, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", spec)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", spec)
	}
	if len(hex) == 6 {
		return color.RGBA{uint8(val >> 16), uint8(val >> 8), uint8(val), 255}, nil
	}
	// #rrggbbaa is straight alpha; color.RGBA is premultiplied.
	nc := color.NRGBA{uint8(val >> 24), uint8(val >> 16), uint8(val >> 8), uint8(val)}
	return color.RGBAModel.Convert(nc).(color.RGBA), nil
}

// FormatRGB renders c the way toolbar color commands are expressed.
func FormatRGB(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}
