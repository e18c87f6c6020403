package analysis

import (
	"reflect"
	"testing"
)

const catJSON = `{"summary":"a cat","links":[{"url":"http://x","title":"X"}]}`

func TestParseModelReply(t *testing.T) {
	cat := Result{Summary: "a cat", Links: []Link{{URL: "http://x", Title: "X"}}}
	tests := []struct {
		name string
		in   string
		want Result
	}{
		{"plain object", catJSON, cat},
		{"fenced json", "Here you go:\n```json\n" + catJSON + "\n```\nthanks", cat},
		{"fenced without tag", "```\n" + catJSON + "\n```", cat},
		{"free text", "just a sentence, no structure", Result{Summary: "just a sentence, no structure", Links: []Link{}}},
		{"empty", "", Result{Summary: "", Links: []Link{}}},
		{"missing links", `{"summary":"only words"}`, Result{Summary: "only words", Links: []Link{}}},
		{"bare url links", `{"summary":"s","links":["https://go.dev", ""]}`, Result{Summary: "s", Links: []Link{{URL: "https://go.dev"}}}},
		{"unrelated object", `{"answer":42}`, Result{Summary: `{"answer":42}`, Links: []Link{}}},
		{"broken fence", "```json\n{not json}\n```", Result{Summary: "```json\n{not json}\n```", Links: []Link{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseModelReply(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseModelReply(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLayersIndependently(t *testing.T) {
	if _, err := parseStructured("prefix " + catJSON); err == nil {
		t.Fatal("parseStructured must reject text around the object")
	}
	if _, err := parseFenced(catJSON); err == nil {
		t.Fatal("parseFenced must require a fence")
	}
	r, err := parseFenced("```json\n{\"summary\":\"first\"}\n```\n```json\n{\"summary\":\"second\"}\n```")
	if err != nil || r.Summary != "first" {
		t.Fatalf("parseFenced = %+v, %v", r, err)
	}
}

func TestDisplayTitleFallsBackToURL(t *testing.T) {
	if got := (Link{URL: "http://x"}).DisplayTitle(); got != "http://x" {
		t.Fatalf("DisplayTitle = %q", got)
	}
	if got := (Link{URL: "http://x", Title: "X"}).DisplayTitle(); got != "X" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}
