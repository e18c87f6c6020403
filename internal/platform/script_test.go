package platform

import (
	"strings"
	"testing"
)

func TestAppleScript(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		want  []string
		avoid string
	}{
		{"normal", Options{}, []string{`display notification "2 links" with title "ScribbleLens" subtitle "Analysis ready"`}, "sound name"},
		{"urgent", Options{Urgent: true}, []string{`sound name "Basso"`}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appleScript("Analysis ready", "2 links", tt.opts)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Fatalf("script %q missing %q", got, w)
				}
			}
			if tt.avoid != "" && strings.Contains(got, tt.avoid) {
				t.Fatalf("script %q should not contain %q", got, tt.avoid)
			}
		})
	}
}

func TestToastScriptQuotesAndIcon(t *testing.T) {
	got := toastScript("It's done", "body", Options{})
	if !strings.Contains(got, "'It''s done'") {
		t.Fatalf("title not quoted: %s", got)
	}
	if !strings.Contains(got, "ToastText02") || strings.Contains(got, `"image"`) {
		t.Fatalf("text-only template expected: %s", got)
	}
	if strings.Contains(got, "Priority") {
		t.Fatalf("normal toast should not raise priority: %s", got)
	}

	got = toastScript("t", "b", Options{IconPath: `C:\tmp\p.png`, Urgent: true})
	for _, want := range []string{"ToastImageAndText02", `'C:\tmp\p.png'`, "ToastNotificationPriority]::High", "CreateToastNotifier('ScribbleLens')"} {
		if !strings.Contains(got, want) {
			t.Fatalf("script missing %q: %s", want, got)
		}
	}
}
