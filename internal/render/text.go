package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Flatten renders markdown as plain text: one line per block, list items
// prefixed with a bullet and inline markup dropped.
func Flatten(markdown string) string {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var b strings.Builder
	endBlock := func() {
		if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
			b.WriteByte('\n')
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(n.Segment.Value(src))
				switch {
				case n.HardLineBreak():
					b.WriteByte('\n')
				case n.SoftLineBreak():
					b.WriteByte(' ')
				}
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				b.Write(n.Value)
			}
			return ast.WalkContinue, nil
		case *ast.AutoLink:
			if entering {
				b.Write(n.URL(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				endBlock()
				b.WriteString("• ")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				endBlock()
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				endBlock()
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		if !entering && n.Type() == ast.TypeBlock {
			endBlock()
		}
		return ast.WalkContinue, nil
	})

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// Wrap breaks s into lines no wider than width pixels. Existing newlines are
// kept; words longer than a line are split between runes.
func Wrap(face font.Face, s string, width int) []string {
	limit := fixed.I(width)
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var cur string
		for _, word := range strings.Fields(para) {
			cand := word
			if cur != "" {
				cand = cur + " " + word
			}
			if font.MeasureString(face, cand) <= limit {
				cur = cand
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			cur = ""
			for font.MeasureString(face, word) > limit {
				head, tail := splitAt(face, word, limit)
				lines = append(lines, head)
				word = tail
			}
			cur = word
		}
		if cur != "" {
			lines = append(lines, cur)
		}
	}
	return lines
}

// splitAt returns the longest prefix of s that fits limit, and the rest.
// At least one rune always goes into the prefix.
func splitAt(face font.Face, s string, limit fixed.Int26_6) (string, string) {
	r := []rune(s)
	n := 1
	for n < len(r) && font.MeasureString(face, string(r[:n+1])) <= limit {
		n++
	}
	return string(r[:n]), string(r[n:])
}

// Elide shortens s with a trailing ellipsis so it fits width pixels.
func Elide(face font.Face, s string, width int) string {
	limit := fixed.I(width)
	if font.MeasureString(face, s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && font.MeasureString(face, string(r)+"…") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
