package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	errNotStructured = errors.New("reply is not a summary object")
	errNoFence       = errors.New("no fenced block in reply")
)

// fencePattern matches ``` with an optional json tag, the body, and the
// closing ```.
var fencePattern = regexp.MustCompile("(?s)```[ \\t]*(?i:json)?[ \\t]*\\r?\\n?(.*?)```")

// ParseModelReply coerces the model's free-form answer into a Result. It
// tries the whole text as a JSON object, then each fenced block, and
// otherwise returns the text verbatim as the summary with no links. It
// never fails.
func ParseModelReply(text string) Result {
	if r, err := parseStructured(text); err == nil {
		return r
	}
	if r, err := parseFenced(text); err == nil {
		return r
	}
	return degraded(text)
}

type wireResult struct {
	Summary *string           `json:"summary"`
	Links   []json.RawMessage `json:"links"`
}

// parseStructured accepts a JSON object carrying a string summary, a links
// array, or both. Links may be {url,title} objects or bare URL strings;
// entries without a URL are dropped.
func parseStructured(text string) (Result, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return Result{}, errNotStructured
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Result{}, err
	}
	_, hasSummary := raw["summary"]
	_, hasLinks := raw["links"]
	if !hasSummary && !hasLinks {
		return Result{}, errNotStructured
	}
	var w wireResult
	if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
		return Result{}, err
	}
	r := Result{Links: []Link{}}
	if w.Summary != nil {
		r.Summary = *w.Summary
	}
	for _, item := range w.Links {
		if l, ok := decodeLink(item); ok {
			r.Links = append(r.Links, l)
		}
	}
	return r, nil
}

func decodeLink(item json.RawMessage) (Link, bool) {
	var url string
	if err := json.Unmarshal(item, &url); err == nil {
		url = strings.TrimSpace(url)
		return Link{URL: url}, url != ""
	}
	var l Link
	if err := json.Unmarshal(item, &l); err != nil {
		return Link{}, false
	}
	l.URL = strings.TrimSpace(l.URL)
	l.Title = strings.TrimSpace(l.Title)
	return l, l.URL != ""
}

// parseFenced runs parseStructured over each fenced block in order.
func parseFenced(text string) (Result, error) {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Result{}, errNoFence
	}
	var lastErr error
	for _, m := range matches {
		r, err := parseStructured(m[1])
		if err == nil {
			return r, nil
		}
		lastErr = err
	}
	return Result{}, lastErr
}

func degraded(text string) Result {
	return Result{Summary: text, Links: []Link{}}
}
