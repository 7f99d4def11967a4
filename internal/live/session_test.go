package live

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/linuxmatters/visound/internal/audio"
	"github.com/linuxmatters/visound/internal/renderer"
)

// scriptedSource replays fixed results, then blocks until ctx ends
type scriptedSource struct {
	results []result
}

func (s *scriptedSource) Next(ctx context.Context) ([]float64, error) {
	if len(s.results) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.window, r.err
}

func testEncoder(t *testing.T) *renderer.Encoder {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 180, 90, 40, 255
	}
	layers, err := renderer.Prepare(img, nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	enc, err := renderer.NewEncoder(layers)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	return enc
}

func TestSession_EncodesEachWindowUntilEOF(t *testing.T) {
	src := &scriptedSource{results: []result{
		{window: []float64{0.1, -0.5}},
		{window: []float64{0}},
		{window: []float64{0.2, 0.25, -0.1}},
		{err: io.EOF},
	}}

	var ticks []Tick
	session := NewSession(testEncoder(t), src, time.Second)
	if err := session.Run(context.Background(), func(tick Tick) { ticks = append(ticks, tick) }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ticks) != 3 {
		t.Fatalf("got %d ticks, want 3", len(ticks))
	}
	wantPeaks := []float64{-0.5, 0, 0.25}
	wantBrightness := []float64{1.0, 0.7, 0.45}
	for i, tick := range ticks {
		if tick.Seq != i {
			t.Errorf("tick %d has seq %d", i, tick.Seq)
		}
		if tick.Peak != wantPeaks[i] {
			t.Errorf("tick %d peak = %v, want %v", i, tick.Peak, wantPeaks[i])
		}
		if diff := tick.Brightness - wantBrightness[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("tick %d brightness = %v, want %v", i, tick.Brightness, wantBrightness[i])
		}
		if tick.Frame == nil || tick.Frame.Bounds() != image.Rect(0, 0, 32, 24) {
			t.Errorf("tick %d frame = %v", i, tick.Frame)
		}
	}
}

func TestSession_FrameHasNoOverlay(t *testing.T) {
	enc := testEncoder(t)
	window := []float64{0.9, -0.9, 0.9, -0.9}
	src := &scriptedSource{results: []result{{window: window}, {err: io.EOF}}}

	var got *image.RGBA
	if err := NewSession(enc, src, time.Second).Run(context.Background(), func(tick Tick) { got = tick.Frame }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want, err := enc.Encode(window, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got == nil || !bytes.Equal(got.Pix, want.Pix) {
		t.Error("live frame differs from an overlay-free encode")
	}
}

func TestSession_SkipsEmptyWindows(t *testing.T) {
	src := &scriptedSource{results: []result{
		{window: []float64{}},
		{window: []float64{0.1}},
		{window: nil},
		{err: io.EOF},
	}}

	ticks := 0
	session := NewSession(testEncoder(t), src, time.Second)
	if err := session.Run(context.Background(), func(Tick) { ticks++ }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ticks != 1 {
		t.Errorf("got %d ticks, want 1", ticks)
	}
	if session.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", session.Skipped())
	}
}

func TestSession_StallTimesOut(t *testing.T) {
	src := &scriptedSource{results: []result{{window: []float64{0.1}}}}

	start := time.Now()
	err := NewSession(testEncoder(t), src, 50*time.Millisecond).Run(context.Background(), func(Tick) {})
	if !errors.Is(err, audio.ErrUpstreamUnavailable) {
		t.Fatalf("Run() error = %v, want ErrUpstreamUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestSession_SourceFailure(t *testing.T) {
	src := &scriptedSource{results: []result{{err: errors.New("device unplugged")}}}

	err := NewSession(testEncoder(t), src, time.Second).Run(context.Background(), func(Tick) {})
	if !errors.Is(err, audio.ErrUpstreamUnavailable) {
		t.Fatalf("Run() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestSession_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptedSource{results: []result{{window: []float64{0.1}}}}

	err := NewSession(testEncoder(t), src, time.Minute).Run(ctx, func(Tick) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestNewSession_DefaultTimeout(t *testing.T) {
	s := NewSession(testEncoder(t), &scriptedSource{}, 0)
	if s.timeout != time.Second {
		t.Errorf("timeout = %v, want 1s", s.timeout)
	}
}

