package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Working resolution
const (
	MaxDimension = 500 // Images are halved until both sides fit
)

// Watermark settings
// Embedded asset is located in internal/renderer/assets/
const (
	SignImageAsset   = "assets/sign.png"
	WatermarkScale   = 0.15 // Fraction of the glyph's native size
	WatermarkInset   = 10   // Pixels from the bottom and right edges
	WatermarkOpacity = 0.5  // Glyph weight in the blend (background weight is 1.0)
)

// Brightness modulation
const (
	PeakClamp        = 0.3   // Peak amplitude is clamped to [-PeakClamp, PeakClamp]
	BaseBrightness   = 0.7   // Brightness factor at silence
	AmplitudeDivisor = 10000 // Raw 16-bit PCM / divisor ≈ [-1, 1]
)

// Amplitude overlay layout, relative to the frame
const (
	OverlayOriginX   = 20  // Left edge of the trace in pixels
	OverlayBaseline  = 50  // Baseline distance from the bottom edge in pixels
	OverlayThickness = 2.0 // Stroke width in pixels
	OverlayColour    = "#FFFFFF"
)

// Export settings
const (
	DefaultFrameRate = 60
	MaxClipSeconds   = 10
	AudioBitRate     = "192k"
)

// FrameRates lists the frame rates offered for export.
var FrameRates = []int{30, 60, 120, 240}

// DecodeSampleRate is the rate ffmpeg resamples to for formats without a
// native decoder.
const DecodeSampleRate = 48000

// Live settings
const (
	LiveSampleRate   = 48000
	LiveWindowMillis = 20
	LiveTimeout      = time.Second
)

// Caption and poster appearance
const (
	CaptionFontSize  = 14.0
	CaptionMargin    = 8
	PosterMargin     = 20  // Margin in pixels from edges for poster text
	PosterRotation   = 3.0 // Rotation angle for poster text (degrees, clockwise)
	PosterTextColour = "#F8B31D"
)

// Settings holds the runtime overrides read from the environment.
type Settings struct {
	FFmpegPath     string
	MaxClipSeconds int
	Workers        int
	LiveTimeout    time.Duration
	Debug          bool
}

// Load reads settings from environment variables with defaults.
func Load() Settings {
	return Settings{
		FFmpegPath:     envStr("VISOUND_FFMPEG", "ffmpeg"),
		MaxClipSeconds: envInt("VISOUND_MAX_CLIP_SECONDS", MaxClipSeconds),
		Workers:        envInt("VISOUND_WORKERS", runtime.NumCPU()),
		LiveTimeout:    envDuration("VISOUND_LIVE_TIMEOUT", LiveTimeout),
		Debug:          envBool("DEBUG", false),
	}
}

// ValidFrameRate reports whether fps is one of the offered export frame rates.
func ValidFrameRate(fps int) bool {
	for _, r := range FrameRates {
		if r == fps {
			return true
		}
	}
	return false
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB" (any case) into its components.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// envBool follows the usual DEBUG convention: anything but false/no/0 is on.
func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "false", "no", "0":
		return false
	}
	return true
}
