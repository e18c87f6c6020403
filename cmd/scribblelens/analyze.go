package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/example/scribblelens/internal/analysis"
	"github.com/example/scribblelens/internal/canvas"
	"github.com/example/scribblelens/internal/credential"
)

// analyzeCmd sends one region of a PNG file to the analysis endpoint.
type analyzeCmd struct {
	*root
	fs       *flag.FlagSet
	program  string
	file     string
	rectSpec string
	endpoint string
	asJSON   bool
	timeout  time.Duration

	analyzer analysis.Analyzer
	out      io.Writer
}

func (a *analyzeCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func (a *analyzeCmd) Program() string {
	return a.program
}

func parseAnalyzeCmd(args []string, r *root) (*analyzeCmd, error) {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	a := &analyzeCmd{root: r, fs: fs, program: r.subcommand("analyze"), out: os.Stdout}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "PNG image to analyze")
	fs.StringVar(&a.rectSpec, "rect", "", "region x0,y0,x1,y1 in image pixels (default whole image)")
	fs.StringVar(&a.endpoint, "endpoint", firstNonEmpty(os.Getenv("SCRIBBLELENS_ENDPOINT"), r.config.Endpoint, analysis.DefaultEndpoint), "analysis endpoint URL")
	fs.BoolVar(&a.asJSON, "json", false, "print the parsed result as JSON")
	fs.DurationVar(&a.timeout, "timeout", 2*time.Minute, "request timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.file == "" {
		return nil, &UsageError{of: a, reason: "-file is required"}
	}
	if a.rectSpec != "" {
		if _, err := parseRect(a.rectSpec); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *analyzeCmd) Run() error {
	f, err := os.Open(a.file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", a.file, err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", a.file, err)
	}
	surface := canvas.NewSurfaceFrom(img)

	rect := surface.Bounds()
	if a.rectSpec != "" {
		r, err := parseRect(a.rectSpec)
		if err != nil {
			return err
		}
		rect = r.Intersect(surface.Bounds())
	}
	data, err := analysis.EncodeRegion(surface, rect)
	if err != nil {
		return fmt.Errorf("failed to encode %v: %w", rect, err)
	}

	analyzer := a.analyzer
	if analyzer == nil {
		token, err := credential.Load()
		if err != nil && !errors.Is(err, credential.ErrNotFound) {
			return fmt.Errorf("failed to read access credential: %w", err)
		}
		client := analysis.NewClient(a.endpoint, token)
		client.Log = a.log.Named("client")
		analyzer = client
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	text, err := analyzer.Analyze(ctx, data)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	result := analysis.ParseModelReply(text)

	if a.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(a.out, result)
	return nil
}

func printResult(w io.Writer, r analysis.Result) {
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)
	link := color.New(color.FgBlue, color.Underline)

	header.Fprintln(w, "Summary")
	if strings.TrimSpace(r.Summary) == "" {
		dim.Fprintln(w, "  (none)")
	} else {
		for _, line := range strings.Split(strings.TrimSpace(r.Summary), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	if len(r.Links) == 0 {
		return
	}
	fmt.Fprintln(w)
	header.Fprintln(w, "Related links")
	for _, l := range r.Links {
		if l.Title != "" {
			fmt.Fprintf(w, "  %s ", l.Title)
			dim.Fprint(w, "- ")
			link.Fprintln(w, l.URL)
			continue
		}
		fmt.Fprint(w, "  ")
		link.Fprintln(w, l.URL)
	}
}

// parseRect reads x0,y0,x1,y1. Corners may be given in either order.
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: want x0,y0,x1,y1", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		v[i] = n
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: region is empty", s)
	}
	return r, nil
}
