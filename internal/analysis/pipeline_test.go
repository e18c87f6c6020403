package analysis

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
)

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
	gate  chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, data []byte) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.reply, f.err
}

type recorder struct {
	mu       sync.Mutex
	anchors  []image.Point
	regions  []image.Image
	results  []Result
	failures []error
}

func (r *recorder) Present(anchor image.Point, region image.Image, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anchors = append(r.anchors, anchor)
	r.regions = append(r.regions, region)
	r.results = append(r.results, res)
}

func (r *recorder) ReportFailure(job string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

type fakeSource struct{ img *image.RGBA }

func (s fakeSource) Extract(rect image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.Set(x, y, s.img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}

func newSource() fakeSource {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	img.Set(20, 20, color.RGBA{R: 255, A: 255})
	return fakeSource{img: img}
}

func TestPipelinePresentsResult(t *testing.T) {
	rec := &recorder{}
	an := &fakeAnalyzer{reply: catJSON}
	p := NewPipeline(an, rec, rec)
	if _, err := p.Start(newSource(), image.Rect(10, 10, 40, 40), image.Pt(40, 10)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Wait()
	if len(rec.results) != 1 || rec.results[0].Summary != "a cat" {
		t.Fatalf("results = %+v", rec.results)
	}
	if rec.anchors[0] != image.Pt(40, 10) {
		t.Fatalf("anchor = %v", rec.anchors[0])
	}
	region := rec.regions[0]
	if b := region.Bounds(); b.Dx() != 30 || b.Dy() != 30 {
		t.Fatalf("presented region bounds = %v", b)
	}
	if _, _, _, a := region.At(region.Bounds().Min.X+10, region.Bounds().Min.Y+10).RGBA(); a == 0 {
		t.Fatal("presented region lost the source pixel")
	}
	if len(rec.failures) != 0 {
		t.Fatalf("unexpected failures %v", rec.failures)
	}
}

func TestPipelineReportsFailureWithoutPanel(t *testing.T) {
	rec := &recorder{}
	var visible []bool
	tracker := NewTracker(func(v bool) { visible = append(visible, v) })
	an := &fakeAnalyzer{err: &ServiceError{Message: "rate limited"}}
	p := NewPipeline(an, rec, rec, WithTracker(tracker))
	if _, err := p.Start(newSource(), image.Rect(0, 0, 20, 20), image.Point{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Wait()
	if len(rec.results) != 0 {
		t.Fatal("no panel may be presented on failure")
	}
	if len(rec.failures) != 1 || rec.failures[0].Error() != "rate limited" {
		t.Fatalf("failures = %v", rec.failures)
	}
	if len(visible) != 2 || !visible[0] || visible[1] {
		t.Fatalf("indicator transitions = %v", visible)
	}
}

func TestPipelineEmptyRegion(t *testing.T) {
	p := NewPipeline(&fakeAnalyzer{}, nil, nil)
	if _, err := p.Start(newSource(), image.Rectangle{}, image.Point{}); !errors.Is(err, ErrEmptyRegion) {
		t.Fatalf("Start = %v, want ErrEmptyRegion", err)
	}
}

func TestTrackerStaysVisibleWhileJobsPending(t *testing.T) {
	var visible []bool
	tracker := NewTracker(func(v bool) { visible = append(visible, v) })
	gate := make(chan struct{})
	an := &fakeAnalyzer{reply: "ok", gate: gate}
	rec := &recorder{}
	p := NewPipeline(an, rec, rec, WithTracker(tracker))

	for i := 0; i < 2; i++ {
		if _, err := p.Start(newSource(), image.Rect(0, 0, 20, 20), image.Point{}); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}
	if tracker.Pending() != 2 {
		t.Fatalf("pending = %d", tracker.Pending())
	}
	gate <- struct{}{}
	gate <- struct{}{}
	p.Wait()
	if tracker.Visible() {
		t.Fatal("indicator should hide once every job is done")
	}
	if len(visible) != 2 || !visible[0] || visible[1] {
		t.Fatalf("indicator transitions = %v, want [true false]", visible)
	}
	if len(rec.results) != 2 {
		t.Fatalf("results = %d", len(rec.results))
	}
}
