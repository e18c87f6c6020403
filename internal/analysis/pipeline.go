package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/scribblelens/internal/logging"
)

var ErrEmptyRegion = errors.New("selection is empty")

// Analyzer is the remote service contract. *Client implements it.
type Analyzer interface {
	Analyze(ctx context.Context, pngData []byte) (string, error)
}

// Source is the surface a region is copied from.
type Source interface {
	Extract(rect image.Rectangle) *image.RGBA
}

// Presenter receives finished results. anchor is the screen point the
// panel is placed next to; region is the image that was analysed.
type Presenter interface {
	Present(anchor image.Point, region image.Image, r Result)
}

// FailureReporter receives the message of a failed job. Failures stop here.
type FailureReporter interface {
	ReportFailure(job string, err error)
}

// Pipeline runs analyses off the input thread. Jobs are independent; each
// holds the loading indicator through the Tracker until it finishes.
type Pipeline struct {
	analyzer Analyzer
	present  Presenter
	failures FailureReporter
	tracker  *Tracker
	timeout  time.Duration
	log      *logging.Logger
	wg       sync.WaitGroup
}

type PipelineOption func(*Pipeline)

func WithTracker(t *Tracker) PipelineOption {
	return func(p *Pipeline) { p.tracker = t }
}

func WithLogger(l *logging.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = l }
}

// WithTimeout bounds each request. Zero means no bound beyond the client's.
func WithTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.timeout = d }
}

func NewPipeline(a Analyzer, pr Presenter, fr FailureReporter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		analyzer: a,
		present:  pr,
		failures: fr,
		tracker:  NewTracker(nil),
		log:      logging.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) Tracker() *Tracker { return p.tracker }

// EncodeRegion copies rect out of src and encodes it as PNG.
func EncodeRegion(src Source, rect image.Rectangle) ([]byte, error) {
	if rect.Empty() {
		return nil, ErrEmptyRegion
	}
	return encodePNG(src.Extract(rect))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode region: %w", err)
	}
	return buf.Bytes(), nil
}

// Start extracts rect synchronously, so later strokes cannot leak into it,
// then requests the analysis on its own goroutine. It returns the job id.
func (p *Pipeline) Start(src Source, rect image.Rectangle, anchor image.Point) (string, error) {
	if rect.Empty() {
		return "", ErrEmptyRegion
	}
	region := src.Extract(rect)
	data, err := encodePNG(region)
	if err != nil {
		return "", err
	}
	job := uuid.NewString()
	log := p.log.With(zap.String("job", job))
	log.Info("analysis started", zap.Stringer("rect", rect), zap.Int("bytes", len(data)))

	p.tracker.Begin()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.tracker.Done()
		ctx := context.Background()
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		res, err := p.Run(ctx, data)
		if err != nil {
			log.Warn("analysis failed", zap.Error(err))
			if p.failures != nil {
				p.failures.ReportFailure(job, err)
			}
			return
		}
		log.Info("analysis finished", zap.Int("links", len(res.Links)))
		if p.present != nil {
			p.present.Present(anchor, region, res)
		}
	}()
	return job, nil
}

// Run performs one request and parses the reply.
func (p *Pipeline) Run(ctx context.Context, pngData []byte) (Result, error) {
	text, err := p.analyzer.Analyze(ctx, pngData)
	if err != nil {
		return Result{}, err
	}
	return ParseModelReply(text), nil
}

// Wait blocks until every started job has delivered its outcome.
func (p *Pipeline) Wait() { p.wg.Wait() }

// Tracker counts in-flight jobs. The indicator is visible while the count
// is positive, so one job finishing does not hide another's indicator.
type Tracker struct {
	mu       sync.Mutex
	pending  int
	onChange func(visible bool)
}

func NewTracker(onChange func(visible bool)) *Tracker {
	return &Tracker{onChange: onChange}
}

// SetOnChange replaces the visibility callback.
func (t *Tracker) SetOnChange(fn func(visible bool)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

func (t *Tracker) Begin() {
	t.mu.Lock()
	t.pending++
	show := t.pending == 1
	fn := t.onChange
	t.mu.Unlock()
	if show && fn != nil {
		fn(true)
	}
}

func (t *Tracker) Done() {
	t.mu.Lock()
	if t.pending > 0 {
		t.pending--
	}
	hide := t.pending == 0
	fn := t.onChange
	t.mu.Unlock()
	if hide && fn != nil {
		fn(false)
	}
}

func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

func (t *Tracker) Visible() bool { return t.Pending() > 0 }
