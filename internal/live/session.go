// Package live runs the amplitude encoder against a stream of audio windows,
// producing one frame per tick.
package live

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/linuxmatters/visound/internal/audio"
	"github.com/linuxmatters/visound/internal/config"
	"github.com/linuxmatters/visound/internal/renderer"
	"github.com/sirupsen/logrus"
)

// Tick is one rendered live frame
type Tick struct {
	Seq        int
	Frame      *image.RGBA
	Window     []float64
	Peak       float64
	Brightness float64
}

// Session owns the encoder and source for one live run
type Session struct {
	enc     *renderer.Encoder
	src     WindowSource
	timeout time.Duration
	skipped int
}

// NewSession creates a live session. A zero timeout uses config.LiveTimeout.
func NewSession(enc *renderer.Encoder, src WindowSource, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = config.LiveTimeout
	}
	return &Session{enc: enc, src: src, timeout: timeout}
}

// Skipped returns the number of windows that failed to encode
func (s *Session) Skipped() int {
	return s.skipped
}

type result struct {
	window []float64
	err    error
}

// Run encodes windows until the source ends, ctx is cancelled or the source
// stalls for longer than the timeout. onTick is called from Run's goroutine.
// A clean end of input returns nil; a stall or read failure returns an error
// wrapping audio.ErrUpstreamUnavailable.
func (s *Session) Run(ctx context.Context, onTick func(Tick)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result)
	go s.pump(ctx, results)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			return fmt.Errorf("%w: no audio for %v", audio.ErrUpstreamUnavailable, s.timeout)

		case r := <-results:
			if errors.Is(r.err, io.EOF) {
				return nil
			}
			if r.err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("%w: %w", audio.ErrUpstreamUnavailable, r.err)
			}

			if tick, err := s.encode(seq, r.window); err != nil {
				s.skipped++
				logrus.WithFields(logrus.Fields{
					"function": "Session.Run",
					"seq":      seq,
					"samples":  len(r.window),
					"error":    err,
				}).Debug("Skipping window")
			} else {
				onTick(tick)
				seq++
			}
			timer.Reset(s.timeout)
		}
	}
}

func (s *Session) encode(seq int, window []float64) (Tick, error) {
	brightness, err := renderer.BrightnessFactor(window)
	if err != nil {
		return Tick{}, err
	}
	frame, err := s.enc.Encode(window, false)
	if err != nil {
		return Tick{}, err
	}
	peak, _ := renderer.PeakAmplitude(window)

	return Tick{
		Seq:        seq,
		Frame:      frame,
		Window:     window,
		Peak:       peak,
		Brightness: brightness,
	}, nil
}

// pump forwards source windows to out until the source fails or ctx ends
func (s *Session) pump(ctx context.Context, out chan<- result) {
	for {
		window, err := s.src.Next(ctx)
		select {
		case out <- result{window: window, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
