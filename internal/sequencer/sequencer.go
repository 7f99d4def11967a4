// Package sequencer turns an audio clip into a timed video: one composite
// frame per frame-rate-aligned chunk, muxed with the untouched clip audio.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/linuxmatters/visound/internal/audio"
	"github.com/linuxmatters/visound/internal/renderer"
	"github.com/sirupsen/logrus"
)

// ErrEmptyClip indicates a clip with no samples. BuildVideo returns it with a
// zero-frame Artifact; no video is written.
var ErrEmptyClip = errors.New("clip has no samples")

// Muxer consumes frames in display order and writes the container on Close
type Muxer interface {
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// MuxSpec describes the video a muxer should produce
type MuxSpec struct {
	OutputPath string
	Width      int
	Height     int
	FrameRate  int
	AudioPath  string // Mono WAV of the source clip
	Threads    int
}

// OpenMuxer starts a muxer for spec
type OpenMuxer func(ctx context.Context, spec MuxSpec) (Muxer, error)

// Progress reports export state after each batch of frames
type Progress struct {
	Frame       int // Frames written so far
	TotalFrames int
	Elapsed     time.Duration
	LastFrame   *image.RGBA
	LastWindow  []float64
}

// Options configures BuildVideo
type Options struct {
	OutputPath string
	FrameRate  int
	Workers    int // Frames rendered concurrently, defaults to runtime.NumCPU
	Threads    int // Passed to the muxer
	Open       OpenMuxer
	OnProgress func(Progress)
	TempDir    string // For the audio WAV, defaults to os.TempDir
}

// Artifact describes a finished video
type Artifact struct {
	Path          string
	Frames        int
	FrameRate     int
	FrameDuration time.Duration
	AudioSamples  int
}

// FrameCount returns the number of frames for samples at sampleRate, with a
// trailing partial chunk counted as a frame.
func FrameCount(samples, sampleRate, frameRate int) int {
	if samples <= 0 || sampleRate <= 0 || frameRate <= 0 {
		return 0
	}
	n := int64(samples) * int64(frameRate)
	sr := int64(sampleRate)
	return int((n + sr - 1) / sr)
}

// ChunkBounds returns the sample range [lo, hi) covered by frame i
func ChunkBounds(i, samples, sampleRate, frameRate int) (lo, hi int) {
	sr := int64(sampleRate)
	fr := int64(frameRate)
	lo = int(int64(i) * sr / fr)
	hi = int(int64(i+1) * sr / fr)
	return min(lo, samples), min(hi, samples)
}

// BuildVideo renders one frame per chunk of clip with the amplitude trace
// drawn, and muxes the frames in order with the clip's own audio.
// Any failure aborts the export and removes the partial output.
func BuildVideo(ctx context.Context, clip *audio.Clip, enc *renderer.Encoder, opts Options) (*Artifact, error) {
	if opts.FrameRate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", opts.FrameRate)
	}
	if opts.Open == nil {
		return nil, fmt.Errorf("no muxer configured")
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}

	artifact := &Artifact{
		Path:          opts.OutputPath,
		FrameRate:     opts.FrameRate,
		FrameDuration: time.Second / time.Duration(opts.FrameRate),
		AudioSamples:  clip.Len(),
	}

	if clip.Len() == 0 {
		return artifact, ErrEmptyClip
	}
	if clip.SampleRate < opts.FrameRate {
		return nil, fmt.Errorf("sample rate %d Hz is below the %d fps frame rate", clip.SampleRate, opts.FrameRate)
	}

	total := FrameCount(clip.Len(), clip.SampleRate, opts.FrameRate)

	logrus.WithFields(logrus.Fields{
		"function":    "BuildVideo",
		"samples":     clip.Len(),
		"sample_rate": clip.SampleRate,
		"frame_rate":  opts.FrameRate,
		"frames":      total,
		"workers":     opts.Workers,
	}).Debug("Starting video export")

	audioPath, err := writeAudioTrack(clip, opts.TempDir)
	if err != nil {
		return nil, err
	}
	defer os.Remove(audioPath)

	bounds := enc.Bounds()
	mux, err := opts.Open(ctx, MuxSpec{
		OutputPath: opts.OutputPath,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		FrameRate:  opts.FrameRate,
		AudioPath:  audioPath,
		Threads:    opts.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open muxer: %w", err)
	}

	written, err := renderFrames(ctx, clip, enc, mux, total, opts)
	if err != nil {
		mux.Close()
		os.Remove(opts.OutputPath)
		return nil, err
	}

	if err := mux.Close(); err != nil {
		os.Remove(opts.OutputPath)
		return nil, fmt.Errorf("failed to finalise video: %w", err)
	}

	artifact.Frames = written
	return artifact, nil
}

// renderFrames renders batches of opts.Workers frames concurrently and writes
// each batch to mux in order. Cancellation is checked between batches.
func renderFrames(ctx context.Context, clip *audio.Clip, enc *renderer.Encoder, mux Muxer, total int, opts Options) (int, error) {
	start := time.Now()
	frames := make([]*image.RGBA, opts.Workers)
	windows := make([][]float64, opts.Workers)
	errs := make([]error, opts.Workers)

	written := 0
	for written < total {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		batch := min(opts.Workers, total-written)
		var wg sync.WaitGroup
		for j := 0; j < batch; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				lo, hi := ChunkBounds(written+j, clip.Len(), clip.SampleRate, opts.FrameRate)
				windows[j] = clip.Window(lo, hi)
				frames[j], errs[j] = enc.Encode(windows[j], true)
			}(j)
		}
		wg.Wait()

		for j := 0; j < batch; j++ {
			if errs[j] != nil {
				return written, fmt.Errorf("frame %d: %w", written, errs[j])
			}
			if err := mux.WriteFrame(frames[j]); err != nil {
				return written, fmt.Errorf("failed to write frame %d: %w", written, err)
			}
			written++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(Progress{
				Frame:       written,
				TotalFrames: total,
				Elapsed:     time.Since(start),
				LastFrame:   frames[batch-1],
				LastWindow:  windows[batch-1],
			})
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "renderFrames",
		"frames":   written,
		"elapsed":  time.Since(start).String(),
	}).Debug("Rendered all frames")

	return written, nil
}

// writeAudioTrack saves the clip as a temporary WAV for the muxer
func writeAudioTrack(clip *audio.Clip, dir string) (string, error) {
	f, err := os.CreateTemp(dir, "visound-audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create audio track: %w", err)
	}

	if err := clip.WriteWAV(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write audio track: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
