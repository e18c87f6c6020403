package theme

import (
	"embed"
	"image/color"
)

// EmbeddedThemes holds the themes shipped with the binary.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Theme defines the colors used to draw the window chrome, the selection
// overlay and the result panels.
type Theme struct {
	Name string

	// Window
	Background       color.RGBA // behind the surface
	Foreground       color.RGBA
	CanvasBackground color.RGBA // shown through transparent surface pixels

	// Toolbar
	ToolbarBackground      color.RGBA
	ButtonBackground       color.RGBA
	ButtonBackgroundHover  color.RGBA
	ButtonBackgroundActive color.RGBA
	ButtonText             color.RGBA
	ButtonTextDisabled     color.RGBA
	ButtonBorder           color.RGBA

	// Selection overlay
	SelectionBorder    color.RGBA
	SelectionBorderAlt color.RGBA
	SelectionFill      color.RGBA

	// Result panels
	PanelBackground color.RGBA
	PanelTitleBar   color.RGBA
	PanelTitleText  color.RGBA
	PanelText       color.RGBA
	PanelLink       color.RGBA
	PanelBorder     color.RGBA
	PanelClose      color.RGBA

	// Message overlay
	MessageBackground color.RGBA
	MessageText       color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:                   "Default",
		Background:             color.RGBA{236, 240, 241, 255},
		Foreground:             color.RGBA{44, 62, 80, 255},
		CanvasBackground:       color.RGBA{255, 255, 255, 255},
		ToolbarBackground:      color.RGBA{52, 73, 94, 255},
		ButtonBackground:       color.RGBA{44, 62, 80, 255},
		ButtonBackgroundHover:  color.RGBA{70, 95, 120, 255},
		ButtonBackgroundActive: color.RGBA{52, 152, 219, 255},
		ButtonText:             color.RGBA{255, 255, 255, 255},
		ButtonTextDisabled:     color.RGBA{127, 140, 141, 255},
		ButtonBorder:           color.RGBA{30, 40, 50, 255},
		SelectionBorder:        color.RGBA{52, 152, 219, 255},
		SelectionBorderAlt:     color.RGBA{255, 255, 255, 255},
		SelectionFill:          color.RGBA{52, 152, 219, 40},
		PanelBackground:        color.RGBA{255, 255, 255, 255},
		PanelTitleBar:          color.RGBA{52, 152, 219, 255},
		PanelTitleText:         color.RGBA{255, 255, 255, 255},
		PanelText:              color.RGBA{44, 62, 80, 255},
		PanelLink:              color.RGBA{41, 128, 185, 255},
		PanelBorder:            color.RGBA{189, 195, 199, 255},
		PanelClose:             color.RGBA{231, 76, 60, 255},
		MessageBackground:      color.RGBA{0, 0, 0, 180},
		MessageText:            color.RGBA{255, 255, 255, 255},
	}
}
