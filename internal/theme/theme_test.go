package theme

import (
	"image/color"
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: Mine\nPanelTitleBar: #112233\nselectionfill: #11223344\nUnknown: #000000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "Mine" {
		t.Errorf("Name = %q", th.Name)
	}
	if th.PanelTitleBar != (color.RGBA{0x11, 0x22, 0x33, 0xff}) {
		t.Errorf("PanelTitleBar = %+v", th.PanelTitleBar)
	}
	if th.SelectionFill != (color.RGBA{0x11, 0x22, 0x33, 0x44}) {
		t.Errorf("SelectionFill = %+v", th.SelectionFill)
	}
	if th.PanelText != Default().PanelText {
		t.Errorf("unset field should keep the default")
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("PanelText: red\n")); err == nil {
		t.Fatal("expected error for non-hex color")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	orig := Default()
	orig.PanelLink = color.RGBA{1, 2, 3, 4}
	var sb strings.Builder
	if err := orig.Format(&sb, ":"); err != nil {
		t.Fatalf("Format: %v", err)
	}
	back, err := Parse(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *back != *orig {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", back, orig)
	}
}

func TestEmbeddedThemesLoad(t *testing.T) {
	names := Names()
	if len(names) < 2 {
		t.Fatalf("embedded themes = %v", names)
	}
	l := &Loader{}
	for _, name := range names {
		th, err := l.Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if th.Name == "" || th.Name == "Default" {
			t.Errorf("theme %q did not set its name", name)
		}
	}
	if _, err := l.Load("no-such-theme"); err == nil {
		t.Fatal("expected error for missing theme")
	}
}
