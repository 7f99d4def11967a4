package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/visound/internal/cli"
	"github.com/linuxmatters/visound/internal/config"
	"github.com/linuxmatters/visound/internal/encoder"
	"github.com/linuxmatters/visound/internal/renderer"
	"github.com/linuxmatters/visound/internal/sequencer"
	"github.com/linuxmatters/visound/internal/ui"
	"github.com/sirupsen/logrus"
)

// ExportCmd renders a span of audio into an MP4
type ExportCmd struct {
	Image  string `arg:"" help:"Source image (PNG, JPEG or GIF)" type:"existingfile"`
	Audio  string `arg:"" help:"Audio file or http(s) URL"`
	Output string `arg:"" help:"Output MP4 file" type:"path"`

	ImageFlags `embed:""`

	Start     int64  `help:"Start of the span in milliseconds" default:"0"`
	End       int64  `help:"End of the span in milliseconds, 0 for the end of the track" default:"0"`
	FPS       int    `help:"Frame rate: 30, 60, 120 or 240" default:"${frame_rate}"`
	Encoder   string `help:"Video encoder: none, auto, nvenc, qsv, vaapi, vulkan or videotoolbox" default:"none"`
	Poster    string `help:"Write a poster PNG next to the video with this title"`
	Workers   int    `help:"Frames rendered concurrently (default: VISOUND_WORKERS or CPU count)" default:"0"`
	Threads   int    `help:"ffmpeg encoder threads, 0 lets ffmpeg decide" default:"0"`
	NoPreview bool   `help:"Disable the frame preview during export"`
}

// Validate checks flag values before any work starts
func (c *ExportCmd) Validate() error {
	if !config.ValidFrameRate(c.FPS) {
		return fmt.Errorf("invalid frame rate %d: must be one of %v", c.FPS, config.FrameRates)
	}
	if _, ok := encoder.ParseHWAccel(c.Encoder); !ok {
		return fmt.Errorf("invalid encoder %q", c.Encoder)
	}
	if c.Start < 0 || (c.End != 0 && c.End <= c.Start) {
		return fmt.Errorf("invalid span %d-%d ms", c.Start, c.End)
	}
	if _, _, _, err := config.ParseHexColor(c.Overlay); err != nil {
		return err
	}
	return nil
}

// Run performs the export under the progress UI
func (c *ExportCmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := ui.NewExportModel(c.NoPreview)
	p := tea.NewProgram(model)

	done := make(chan error, 1)
	go func() {
		err := c.export(ctx, g, p)
		if err != nil {
			p.Send(ui.RenderFailed{Err: err})
		}
		done <- err
	}()

	restore := quietLogs()
	_, runErr := p.Run()
	restore()

	// Quitting the UI early aborts the export
	cancel()
	err := <-done

	if runErr != nil {
		return fmt.Errorf("running UI: %w", runErr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("export cancelled")
		}
		return err
	}

	fmt.Print(model.CompletionSummary())
	return nil
}

func (c *ExportCmd) export(ctx context.Context, g *Globals, p *tea.Program) error {
	start := time.Now()

	if c.End != 0 && c.End-c.Start > int64(g.Settings.MaxClipSeconds)*1000 {
		return fmt.Errorf("span of %d ms exceeds the %d s export limit", c.End-c.Start, g.Settings.MaxClipSeconds)
	}

	enc, err := c.buildEncoder(c.Image)
	if err != nil {
		return err
	}

	clip, err := loadClip(ctx, c.Audio, g.ffmpegPath(), c.Start, c.End)
	if err != nil {
		return err
	}
	if clip.DurationMillis() > int64(g.Settings.MaxClipSeconds)*1000 {
		return fmt.Errorf("span of %d ms exceeds the %d s export limit; use --end", clip.DurationMillis(), g.Settings.MaxClipSeconds)
	}

	hwType, _ := encoder.ParseHWAccel(c.Encoder)
	hw := encoder.SelectBestEncoder(g.ffmpegPath(), hwType)
	encoderName := "libx264"
	if hw != nil {
		encoderName = hw.Name
	} else if hwType != encoder.HWAccelNone {
		logrus.WithFields(logrus.Fields{
			"function": "ExportCmd.export",
			"encoder":  c.Encoder,
		}).Warn("Requested hardware encoder unavailable, using libx264")
	}

	workers := c.Workers
	if workers <= 0 {
		workers = g.Settings.Workers
	}

	bounds := enc.Bounds()
	loadTime := time.Since(start)
	p.Send(ui.SourceLoaded{
		ClipDuration: time.Duration(clip.DurationMillis()) * time.Millisecond,
		SampleRate:   clip.SampleRate,
		Samples:      clip.Len(),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		FrameRate:    c.FPS,
		TotalFrames:  sequencer.FrameCount(clip.Len(), clip.SampleRate, c.FPS),
		EncoderName:  encoderName,
		LoadTime:     loadTime,
	})

	renderStart := time.Now()
	artifact, err := sequencer.BuildVideo(ctx, clip, enc, sequencer.Options{
		OutputPath: c.Output,
		FrameRate:  c.FPS,
		Workers:    workers,
		Threads:    c.Threads,
		Open:       ffmpegMuxer(g.ffmpegPath(), hw),
		OnProgress: func(pr sequencer.Progress) {
			p.Send(ui.RenderProgress{
				Frame:       pr.Frame,
				TotalFrames: pr.TotalFrames,
				Elapsed:     pr.Elapsed,
				Window:      pr.LastWindow,
				FrameData:   pr.LastFrame,
			})
		},
	})
	if errors.Is(err, sequencer.ErrEmptyClip) {
		return fmt.Errorf("the span %d-%d ms holds no audio", c.Start, c.End)
	}
	if err != nil {
		return err
	}
	renderTime := time.Since(renderStart)

	var posterPath string
	var posterTime time.Duration
	if c.Poster != "" {
		posterStart := time.Now()
		posterPath = strings.TrimSuffix(c.Output, filepath.Ext(c.Output)) + ".png"
		if err := renderer.GeneratePoster(posterPath, enc.Layers().Resized, c.Poster); err != nil {
			return fmt.Errorf("failed to generate poster: %w", err)
		}
		posterTime = time.Since(posterStart)
	}

	var size int64
	if info, err := os.Stat(artifact.Path); err == nil {
		size = info.Size()
	}

	p.Send(ui.RenderComplete{
		OutputFile:  artifact.Path,
		PosterFile:  posterPath,
		FileSize:    size,
		TotalFrames: artifact.Frames,
		FrameRate:   artifact.FrameRate,
		Samples:     artifact.AudioSamples,
		LoadTime:    loadTime,
		RenderTime:  renderTime,
		PosterTime:  posterTime,
		TotalTime:   time.Since(start),
		EncoderName: encoderName,
	})
	return nil
}

// ffmpegMuxer opens an ffmpeg encoder for each export
func ffmpegMuxer(ffmpegPath string, hw *encoder.HWEncoder) sequencer.OpenMuxer {
	return func(ctx context.Context, spec sequencer.MuxSpec) (sequencer.Muxer, error) {
		enc, err := encoder.New(encoder.Config{
			OutputPath: spec.OutputPath,
			Width:      spec.Width,
			Height:     spec.Height,
			Framerate:  spec.FrameRate,
			AudioPath:  spec.AudioPath,
			Threads:    spec.Threads,
			FFmpegPath: ffmpegPath,
			HWEncoder:  hw,
		})
		if err != nil {
			return nil, err
		}
		if err := enc.Initialize(ctx); err != nil {
			return nil, err
		}
		return enc, nil
	}
}

func encoderStatus(ffmpegPath string) string {
	return cli.HeaderStyle.Render("Encoders") + "\n" + encoder.GetEncoderStatus(ffmpegPath)
}

