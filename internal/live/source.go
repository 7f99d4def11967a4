package live

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/linuxmatters/visound/internal/audio"
	"github.com/linuxmatters/visound/internal/config"
)

// WindowSource delivers amplitude windows, one per tick.
// Next returns io.EOF once the source is exhausted.
type WindowSource interface {
	Next(ctx context.Context) ([]float64, error)
}

// WindowSamples returns the number of samples in one tick at sampleRate
func WindowSamples(sampleRate int) int {
	return max(sampleRate*config.LiveWindowMillis/1000, 1)
}

// PCMSource reads raw signed 16-bit little-endian mono PCM, such as
// `ffmpeg -f s16le -ac 1 -` or `arecord -f S16_LE -c 1` piped to stdin.
type PCMSource struct {
	r   io.Reader
	buf []byte
}

// NewPCMSource reads windows of WindowSamples(sampleRate) samples from r
func NewPCMSource(r io.Reader, sampleRate int) *PCMSource {
	return &PCMSource{
		r:   r,
		buf: make([]byte, WindowSamples(sampleRate)*2),
	}
}

// Next blocks until a full window is read. A short final read is returned as
// a shorter window.
func (s *PCMSource) Next(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := io.ReadFull(s.r, s.buf)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		if n < 2 {
			return nil, io.EOF
		}
	case err != nil:
		return nil, err
	}

	samples := make([]int, n/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(s.buf[i*2:])))
	}
	return audio.Normalize(samples, 16), nil
}

// ClipSource replays a decoded clip window by window. When paced, each
// window is released at the rate it would play.
type ClipSource struct {
	clip   *audio.Clip
	size   int
	pos    int
	paced  bool
	ticker *time.Ticker
}

// NewClipSource replays clip, optionally paced in real time
func NewClipSource(clip *audio.Clip, paced bool) (*ClipSource, error) {
	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", clip.SampleRate)
	}
	return &ClipSource{
		clip:  clip,
		size:  WindowSamples(clip.SampleRate),
		paced: paced,
	}, nil
}

// Next returns the following window, waiting for its slot when paced
func (s *ClipSource) Next(ctx context.Context) ([]float64, error) {
	if s.pos >= s.clip.Len() {
		s.stop()
		return nil, io.EOF
	}

	if s.paced {
		if s.ticker == nil {
			s.ticker = time.NewTicker(time.Duration(config.LiveWindowMillis) * time.Millisecond)
		} else {
			select {
			case <-s.ticker.C:
			case <-ctx.Done():
				s.stop()
				return nil, ctx.Err()
			}
		}
	}

	hi := min(s.pos+s.size, s.clip.Len())
	window := s.clip.Window(s.pos, hi)
	s.pos = hi
	return window, nil
}

func (s *ClipSource) stop() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}
