package main

import (
	"context"
	"fmt"

	"github.com/linuxmatters/visound/internal/cli"
	"github.com/linuxmatters/visound/internal/config"
	"github.com/linuxmatters/visound/internal/renderer"
)

// SnapshotCmd renders the frame for one window of audio
type SnapshotCmd struct {
	Image  string `arg:"" help:"Source image (PNG, JPEG or GIF)" type:"existingfile"`
	Audio  string `arg:"" help:"Audio file or http(s) URL"`
	Output string `arg:"" help:"Output PNG file" type:"path"`

	ImageFlags `embed:""`

	At        int64 `help:"Start of the window in milliseconds" default:"0"`
	Window    int64 `help:"Window length in milliseconds" default:"${window_ms}"`
	NoOverlay bool  `help:"Omit the amplitude trace"`
}

// Validate checks flag values before any work starts
func (c *SnapshotCmd) Validate() error {
	if c.At < 0 || c.Window <= 0 {
		return fmt.Errorf("invalid window %d ms at %d ms", c.Window, c.At)
	}
	if _, _, _, err := config.ParseHexColor(c.Overlay); err != nil {
		return err
	}
	return nil
}

// Run writes the snapshot PNG
func (c *SnapshotCmd) Run(g *Globals) error {
	enc, err := c.buildEncoder(c.Image)
	if err != nil {
		return err
	}

	clip, err := loadClip(context.Background(), c.Audio, g.ffmpegPath(), c.At, c.At+c.Window)
	if err != nil {
		return err
	}

	window := clip.Window(0, clip.Len())
	frame, err := enc.Encode(window, !c.NoOverlay)
	if err != nil {
		return fmt.Errorf("no audio at %d ms: %w", c.At, err)
	}
	if err := renderer.WritePNG(c.Output, frame); err != nil {
		return err
	}

	peak, _ := renderer.PeakAmplitude(window)
	brightness, _ := renderer.BrightnessFactor(window)
	cli.PrintSuccess(fmt.Sprintf("Wrote %s", c.Output))
	cli.PrintInfo("Frame", enc.Bounds().Size().String())
	cli.PrintInfo("Samples", fmt.Sprint(len(window)))
	cli.PrintInfo("Peak", fmt.Sprintf("%+.3f", peak))
	cli.PrintInfo("Brightness", fmt.Sprintf("%.2f", brightness))
	return nil
}
