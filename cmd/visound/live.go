package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/visound/internal/cli"
	"github.com/linuxmatters/visound/internal/config"
	"github.com/linuxmatters/visound/internal/live"
	"github.com/linuxmatters/visound/internal/ui"
)

// LiveCmd shows frames for a stream of audio in the terminal
type LiveCmd struct {
	Image string `arg:"" help:"Source image (PNG, JPEG or GIF)" type:"existingfile"`
	Input string `arg:"" help:"Audio file to replay, or - for raw s16le mono PCM on stdin" default:"-" optional:""`

	ImageFlags `embed:""`

	Rate      int           `help:"Sample rate of stdin PCM" default:"${live_rate}"`
	Fast      bool          `help:"Replay a file as fast as possible instead of in real time"`
	Timeout   time.Duration `help:"End the session when no audio arrives for this long (default: VISOUND_LIVE_TIMEOUT or 1s)"`
	NoPreview bool          `help:"Show only the readout, not the frame"`
}

// Validate checks flag values before any work starts
func (c *LiveCmd) Validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.Rate)
	}
	if _, _, _, err := config.ParseHexColor(c.Overlay); err != nil {
		return err
	}
	return nil
}

// Run drives a live session under the live UI
func (c *LiveCmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enc, err := c.buildEncoder(c.Image)
	if err != nil {
		return err
	}

	var src live.WindowSource
	name := "stdin"
	if c.Input == "-" {
		src = live.NewPCMSource(os.Stdin, c.Rate)
	} else {
		clip, err := loadClip(ctx, c.Input, g.ffmpegPath(), 0, 0)
		if err != nil {
			return err
		}
		if src, err = live.NewClipSource(clip, !c.Fast); err != nil {
			return err
		}
		name = c.Input
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = g.Settings.LiveTimeout
	}
	session := live.NewSession(enc, src, timeout)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if c.Input == "-" {
		// stdin carries audio, so keys come from the terminal
		opts = append(opts, tea.WithInputTTY())
	}

	model := ui.NewLiveModel(name, c.NoPreview)
	p := tea.NewProgram(model, opts...)

	done := make(chan error, 1)
	go func() {
		err := session.Run(ctx, func(tick live.Tick) {
			p.Send(ui.LiveFrame{
				Seq:        tick.Seq,
				Frame:      tick.Frame,
				Window:     tick.Window,
				Peak:       tick.Peak,
				Brightness: tick.Brightness,
				Skipped:    session.Skipped(),
			})
		})
		p.Send(ui.LiveEnded{Err: err})
		done <- err
	}()

	restore := quietLogs()
	_, runErr := p.Run()
	restore()

	cancel()
	err = <-done

	if runErr != nil {
		return fmt.Errorf("running UI: %w", runErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	cli.PrintSuccess(fmt.Sprintf("Live session ended (%d windows skipped)", session.Skipped()))
	return nil
}
