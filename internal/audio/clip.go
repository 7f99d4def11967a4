package audio

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/visound/internal/config"
)

// Clip is a mono PCM buffer at a fixed sample rate.
// Samples are signed integers at BitDepth bits.
type Clip struct {
	SampleRate int
	BitDepth   int
	Samples    []int
}

// Len returns the number of samples
func (c *Clip) Len() int {
	return len(c.Samples)
}

// DurationMillis returns the clip length in whole milliseconds, rounded down
func (c *Clip) DurationMillis() int64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return int64(len(c.Samples)) * 1000 / int64(c.SampleRate)
}

// sampleAt converts a millisecond offset to a sample index, rounding down
func (c *Clip) sampleAt(ms int64) int {
	return int(ms * int64(c.SampleRate) / 1000)
}

// Slice returns the samples between startMs and endMs as a new clip.
// An end past the clip is clamped; a start past the clip or an end before
// the start is ErrInvalidRange.
func (c *Clip) Slice(startMs, endMs int64) (*Clip, error) {
	if startMs < 0 || endMs < startMs {
		return nil, fmt.Errorf("%w: %d-%d ms", ErrInvalidRange, startMs, endMs)
	}
	lo := c.sampleAt(startMs)
	hi := min(c.sampleAt(endMs), len(c.Samples))
	if lo > len(c.Samples) {
		return nil, fmt.Errorf("%w: start %d ms is past the %d ms clip", ErrInvalidRange, startMs, c.DurationMillis())
	}

	samples := make([]int, hi-lo)
	copy(samples, c.Samples[lo:hi])
	return &Clip{SampleRate: c.SampleRate, BitDepth: c.BitDepth, Samples: samples}, nil
}

// Window returns samples [lo, hi) normalised for the amplitude encoder
func (c *Clip) Window(lo, hi int) []float64 {
	return Normalize(c.Samples[lo:hi], c.BitDepth)
}

// Normalize rescales PCM samples to 16-bit and divides by
// config.AmplitudeDivisor, giving roughly [-1, 1] for typical material.
func Normalize(samples []int, bitDepth int) []float64 {
	scale := 1.0 / config.AmplitudeDivisor
	switch {
	case bitDepth > 16:
		scale /= float64(int64(1) << (bitDepth - 16))
	case bitDepth > 0 && bitDepth < 16:
		scale *= float64(int64(1) << (16 - bitDepth))
	}

	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) * scale
	}
	return out
}

// containerDepth returns the WAV sample width able to hold bitDepth bits
func containerDepth(bitDepth int) int {
	switch {
	case bitDepth <= 8:
		return 8
	case bitDepth <= 16:
		return 16
	case bitDepth <= 24:
		return 24
	default:
		return 32
	}
}

// WriteWAV encodes the clip as a mono PCM WAV file.
// Depths that WAV cannot store directly are widened without loss.
func (c *Clip) WriteWAV(w io.WriteSeeker) error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("clip has no sample rate")
	}
	if c.BitDepth <= 0 || c.BitDepth > 32 {
		return fmt.Errorf("unsupported bit depth %d", c.BitDepth)
	}

	depth := containerDepth(c.BitDepth)
	shift := depth - c.BitDepth

	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		v := s << shift
		if depth == 8 {
			v += 128 // 8-bit WAV is unsigned
		}
		data[i] = v
	}

	enc := wav.NewEncoder(w, c.SampleRate, depth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: depth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV: %w", err)
	}
	return nil
}
