package config

import (
	"testing"
	"time"
)

// TestParseHexColor_ValidInputs verifies that ParseHexColor correctly parses
// various valid hex colour formats, catching case sensitivity issues,
// prefix handling, and byte ordering bugs.
func TestParseHexColor_ValidInputs(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		wantR uint8
		wantG uint8
		wantB uint8
	}{
		{name: "FF0000 (uppercase red, no hash)", input: "FF0000", wantR: 255},
		{name: "ff0000 (lowercase red, no hash)", input: "ff0000", wantR: 255},
		{name: "#FF0000 (uppercase red, with hash)", input: "#FF0000", wantR: 255},
		{name: "Ff00fF (mixed case magenta)", input: "Ff00fF", wantR: 255, wantB: 255},
		{name: "00FF00 (green)", input: "00FF00", wantG: 255},
		{name: "0000FF (blue)", input: "0000FF", wantB: 255},
		{name: "000000 (black)", input: "000000"},
		{name: "#FFFFFF (overlay white)", input: OverlayColour, wantR: 255, wantG: 255, wantB: 255},
		{name: "808080 (gray)", input: "808080", wantR: 128, wantG: 128, wantB: 128},
		{name: "#F8B31D (poster yellow)", input: PosterTextColour, wantR: 248, wantG: 179, wantB: 29},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b, err := ParseHexColor(tc.input)
			if err != nil {
				t.Fatalf("ParseHexColor(%q) returned error: %v", tc.input, err)
			}

			if r != tc.wantR || g != tc.wantG || b != tc.wantB {
				t.Errorf("ParseHexColor(%q) = (%d, %d, %d), want (%d, %d, %d)",
					tc.input, r, g, b, tc.wantR, tc.wantG, tc.wantB)
			}
		})
	}
}

// TestParseHexColor_InvalidInputs verifies that ParseHexColor correctly
// rejects malformed input with appropriate errors.
func TestParseHexColor_InvalidInputs(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"FFF (too short, 3 chars)", "FFF"},
		{"#FFF (too short with hash)", "#FFF"},
		{"FFFFFFF (too long)", "FFFFFFF"},
		{"GGGGGG (invalid hex)", "GGGGGG"},
		{"FF00GG (mixed valid/invalid)", "FF00GG"},
		{"Empty string", ""},
		{"# (just hash)", "#"},
		{"FF 000 (spaces)", "FF 000"},
		{"+FFFFF (sign prefix)", "+FFFFF"},
		{"##FFFFFF (double hash)", "##FFFFFF"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, _, err := ParseHexColor(tc.input); err == nil {
				t.Errorf("ParseHexColor(%q) succeeded, want error", tc.input)
			}
		})
	}
}

func TestValidFrameRate(t *testing.T) {
	for _, fps := range []int{30, 60, 120, 240} {
		if !ValidFrameRate(fps) {
			t.Errorf("ValidFrameRate(%d) = false, want true", fps)
		}
	}
	for _, fps := range []int{0, -60, 25, 59, 1000} {
		if ValidFrameRate(fps) {
			t.Errorf("ValidFrameRate(%d) = true, want false", fps)
		}
	}
	if !ValidFrameRate(DefaultFrameRate) {
		t.Errorf("DefaultFrameRate %d is not an offered frame rate", DefaultFrameRate)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VISOUND_FFMPEG", "")
	t.Setenv("VISOUND_MAX_CLIP_SECONDS", "")
	t.Setenv("VISOUND_LIVE_TIMEOUT", "")
	t.Setenv("DEBUG", "")

	s := Load()
	if s.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want ffmpeg", s.FFmpegPath)
	}
	if s.MaxClipSeconds != MaxClipSeconds {
		t.Errorf("MaxClipSeconds = %d, want %d", s.MaxClipSeconds, MaxClipSeconds)
	}
	if s.LiveTimeout != LiveTimeout {
		t.Errorf("LiveTimeout = %v, want %v", s.LiveTimeout, LiveTimeout)
	}
	if s.Workers < 1 {
		t.Errorf("Workers = %d, want at least 1", s.Workers)
	}
	if s.Debug {
		t.Error("Debug enabled with DEBUG unset")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VISOUND_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("VISOUND_MAX_CLIP_SECONDS", "30")
	t.Setenv("VISOUND_WORKERS", "3")
	t.Setenv("VISOUND_LIVE_TIMEOUT", "250ms")
	t.Setenv("DEBUG", "yes")

	s := Load()
	if s.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", s.FFmpegPath)
	}
	if s.MaxClipSeconds != 30 {
		t.Errorf("MaxClipSeconds = %d, want 30", s.MaxClipSeconds)
	}
	if s.Workers != 3 {
		t.Errorf("Workers = %d, want 3", s.Workers)
	}
	if s.LiveTimeout != 250*time.Millisecond {
		t.Errorf("LiveTimeout = %v, want 250ms", s.LiveTimeout)
	}
	if !s.Debug {
		t.Error("Debug disabled with DEBUG=yes")
	}
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("VISOUND_MAX_CLIP_SECONDS", "ten")
	t.Setenv("VISOUND_WORKERS", "-2")
	t.Setenv("VISOUND_LIVE_TIMEOUT", "soon")

	s := Load()
	if s.MaxClipSeconds != MaxClipSeconds {
		t.Errorf("MaxClipSeconds = %d, want default %d", s.MaxClipSeconds, MaxClipSeconds)
	}
	if s.Workers < 1 {
		t.Errorf("Workers = %d, want default", s.Workers)
	}
	if s.LiveTimeout != LiveTimeout {
		t.Errorf("LiveTimeout = %v, want default", s.LiveTimeout)
	}
}

func TestEnvBool(t *testing.T) {
	testCases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"FALSE", false},
		{"no", false},
		{"0", false},
		{"1", true},
		{"true", true},
		{"on", true},
	}
	for _, tc := range testCases {
		t.Setenv("VISOUND_TEST_BOOL", tc.value)
		if got := envBool("VISOUND_TEST_BOOL", false); got != tc.want {
			t.Errorf("envBool(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
