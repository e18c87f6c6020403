// Package render draws the window chrome that is not part of the drawing
// surface: result panels, their shadows, the selection overlay and message
// boxes.
package render

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	bodySize    = 13
	titleSize   = 14
	messageSize = 22
)

// Faces keep glyph caches, so every use goes through faceMu. Panels are
// measured from analysis goroutines while the paint goroutine draws.
var (
	faceMu      sync.Mutex
	bodyFace    font.Face
	titleFace   font.Face
	messageFace font.Face
)

func init() {
	bodyFace = mustFace(goregular.TTF, bodySize)
	titleFace = mustFace(gobold.TTF, titleSize)
	messageFace = mustFace(goregular.TTF, messageSize)
}

func mustFace(ttf []byte, size float64) font.Face {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic("render: parse font: " + err.Error())
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		panic("render: font face: " + err.Error())
	}
	return face
}

func lineHeight(face font.Face) int {
	m := face.Metrics()
	return m.Ascent.Ceil() + m.Descent.Ceil()
}
