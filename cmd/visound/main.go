package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/linuxmatters/visound/internal/audio"
	"github.com/linuxmatters/visound/internal/cli"
	"github.com/linuxmatters/visound/internal/config"
	"github.com/linuxmatters/visound/internal/renderer"
	"github.com/sirupsen/logrus"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// fetchTimeout bounds the download of a remote audio track
const fetchTimeout = 30 * time.Second

// Globals are flags shared by every command
type Globals struct {
	Debug   bool   `help:"Enable debug logging (also DEBUG=1)"`
	LogFile string `help:"Write logs to this file" type:"path" placeholder:"path"`
	FFmpeg  string `help:"ffmpeg binary (default: VISOUND_FFMPEG or ffmpeg)" placeholder:"path"`

	Settings config.Settings `kong:"-"`
}

// ffmpegPath resolves the flag against the environment settings
func (g *Globals) ffmpegPath() string {
	if g.FFmpeg != "" {
		return g.FFmpeg
	}
	return g.Settings.FFmpegPath
}

var CLI struct {
	Globals

	Export   ExportCmd   `cmd:"" help:"Render an MP4 for a span of audio."`
	Snapshot SnapshotCmd `cmd:"" help:"Render one still frame for a moment of audio."`
	Live     LiveCmd     `cmd:"" help:"Visualise live or replayed audio in the terminal."`
	Encoders EncodersCmd `cmd:"" help:"Show hardware encoder availability."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("visound"),
		kong.Description(cli.Tagline),
		kong.Vars{
			"version":        version,
			"overlay_colour": config.OverlayColour,
			"frame_rate":     fmt.Sprint(config.DefaultFrameRate),
			"window_ms":      fmt.Sprint(config.LiveWindowMillis),
			"live_rate":      fmt.Sprint(config.LiveSampleRate),
		},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	CLI.Settings = config.Load()
	closeLog, err := setupLogging(CLI.Debug || CLI.Settings.Debug, CLI.LogFile)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	err = ctx.Run(&CLI.Globals)
	closeLog()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// VersionCmd prints the version
type VersionCmd struct{}

// Run prints the version
func (c *VersionCmd) Run(g *Globals) error {
	cli.PrintVersion(version)
	return nil
}

// EncodersCmd prints hardware encoder availability
type EncodersCmd struct{}

// Run probes ffmpeg for hardware encoders
func (c *EncodersCmd) Run(g *Globals) error {
	cli.PrintBanner()
	fmt.Print(encoderStatus(g.ffmpegPath()))
	return nil
}

// ImageFlags are shared by every command that renders frames
type ImageFlags struct {
	Mask    string `help:"Mask image: non-black pixels pulse with the audio" type:"existingfile" placeholder:"path"`
	Overlay string `help:"Amplitude trace colour" default:"${overlay_colour}" placeholder:"#RRGGBB"`
	Caption string `help:"Caption drawn in the top-left corner of every frame"`
}

// buildEncoder loads and prepares the image and mask for a session
func (f ImageFlags) buildEncoder(imagePath string) (*renderer.Encoder, error) {
	img, err := renderer.LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	var mask image.Image
	if f.Mask != "" {
		if mask, err = renderer.LoadImage(f.Mask); err != nil {
			return nil, err
		}
	}

	layers, err := renderer.Prepare(img, mask)
	if err != nil {
		return nil, err
	}

	r, g, b, err := config.ParseHexColor(f.Overlay)
	if err != nil {
		return nil, err
	}
	opts := []renderer.Option{renderer.WithOverlayColour(color.RGBA{R: r, G: g, B: b, A: 255})}

	if f.Caption != "" {
		face, err := renderer.LoadFont(config.CaptionFontSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load caption font: %w", err)
		}
		defer face.Close()
		opts = append(opts, renderer.WithCaption(f.Caption, face, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	}

	logrus.WithFields(logrus.Fields{
		"function": "buildEncoder",
		"image":    imagePath,
		"mask":     f.Mask,
		"size":     layers.Bounds().Size().String(),
	}).Debug("Prepared image layers")

	return renderer.NewEncoder(layers, opts...)
}

// loadClip decodes a local file or an http(s) URL and slices it to
// [startMs, endMs). An endMs of 0 means the end of the track.
func loadClip(ctx context.Context, source, ffmpegPath string, startMs, endMs int64) (*audio.Clip, error) {
	path := source
	if isURL(source) {
		client := &http.Client{Timeout: fetchTimeout}
		downloaded, err := audio.Fetch(ctx, client, source)
		if err != nil {
			return nil, err
		}
		defer os.Remove(downloaded)
		path = downloaded
	} else if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("audio file does not exist: %s", source)
	}

	clip, err := audio.DecodeContext(ctx, path, ffmpegPath)
	if err != nil {
		return nil, err
	}

	if endMs == 0 {
		endMs = clip.DurationMillis()
	}
	return clip.Slice(startMs, endMs)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
