package ui

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 255
	}
	return img
}

func TestPreviewSize(t *testing.T) {
	config := PreviewConfig{Width: 64, Height: 18}
	testCases := []struct {
		name       string
		w, h       int
		cols, rows int
	}{
		{"wide", 480, 270, 64, 18},
		{"square", 100, 100, 36, 18},
		{"short", 500, 50, 64, 3},
		{"tiny", 40, 40, 36, 18},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cols, rows := PreviewSize(image.Rect(0, 0, tc.w, tc.h), config)
			if cols != tc.cols || rows != tc.rows {
				t.Errorf("PreviewSize(%dx%d) = %dx%d, want %dx%d", tc.w, tc.h, cols, rows, tc.cols, tc.rows)
			}
		})
	}

	if cols, rows := PreviewSize(image.Rectangle{}, config); cols != 0 || rows != 0 {
		t.Errorf("empty frame gave %dx%d", cols, rows)
	}
}

func TestDownsampleFrame_SolidColour(t *testing.T) {
	want := color.RGBA{R: 200, G: 40, B: 90, A: 255}
	preview := DownsampleFrame(solidFrame(160, 160, want), PreviewConfig{Width: 16, Height: 8})

	if len(preview) != 16 || len(preview[0]) != 16 {
		t.Fatalf("preview is %dx%d pixels, want 16x16", len(preview[0]), len(preview))
	}
	for y, row := range preview {
		for x, c := range row {
			if c != want {
				t.Fatalf("preview pixel (%d,%d) = %v, want %v", x, y, c, want)
			}
		}
	}
}

func TestRenderPreview(t *testing.T) {
	preview := DownsampleFrame(solidFrame(40, 20, color.RGBA{R: 10, G: 20, B: 30}), PreviewConfig{Width: 4, Height: 4})
	out := RenderPreview(preview)

	if !strings.Contains(out, "\x1b[38;2;10;20;30m\x1b[48;2;10;20;30m▀") {
		t.Error("preview is missing the half-block colour escape")
	}
	// 4 columns by one row of half blocks
	if got := strings.Count(out, "▀"); got != 4 {
		t.Errorf("preview has %d cells, want 4", got)
	}
	if RenderPreview(nil) != "" {
		t.Error("empty preview rendered output")
	}
}

func TestColumnPeaks(t *testing.T) {
	window := []float64{0.1, -0.4, 0.2, 0.3, -0.05, 0}
	got := columnPeaks(window, 3)
	want := []float64{0.4, 0.3, 0.05}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d peak = %v, want %v", i, got[i], want[i])
		}
	}

	if len(columnPeaks(window, 100)) != len(window) {
		t.Error("columns exceed window length")
	}
}

func TestRenderWaveform(t *testing.T) {
	if renderWaveform(nil, 10, 1) != "" {
		t.Error("empty window rendered output")
	}

	out := renderWaveform([]float64{1, -1, 0.1}, 3, 1)
	rows := strings.Split(out, "\n")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if strings.Count(out, "█") < 3 {
		t.Error("full-scale samples did not fill both rows")
	}
}

func TestExportModel_Phases(t *testing.T) {
	m := NewExportModel(true)
	if m.Phase() != PhaseLoading {
		t.Fatalf("initial phase = %v", m.Phase())
	}
	if !strings.Contains(m.View(), "Loading") {
		t.Error("loading view missing status")
	}

	m.Update(SourceLoaded{ClipDuration: time.Second, SampleRate: 48000, Width: 480, Height: 270, FrameRate: 60, TotalFrames: 60})
	if m.Phase() != PhaseRendering {
		t.Fatalf("phase after load = %v", m.Phase())
	}

	m.Update(RenderProgress{Frame: 30, TotalFrames: 60, Elapsed: time.Second, Window: []float64{0.2, -0.3}})
	view := m.View()
	if !strings.Contains(view, "Frame 30 of 60") || !strings.Contains(view, "50%") {
		t.Error("render view missing progress")
	}

	_, cmd := m.Update(RenderComplete{OutputFile: "out.mp4", TotalFrames: 60, FrameRate: 60, TotalTime: 2 * time.Second, RenderTime: time.Second})
	if cmd == nil || m.Phase() != PhaseComplete {
		t.Fatal("completion did not schedule quit")
	}
	if !strings.Contains(m.CompletionSummary(), "out.mp4") {
		t.Error("summary missing output file")
	}
}

func TestExportModel_Failure(t *testing.T) {
	m := NewExportModel(true)
	_, cmd := m.Update(RenderFailed{Err: errors.New("boom")})
	if cmd == nil || m.Phase() != PhaseFailed {
		t.Fatal("failure did not quit")
	}
	if m.CompletionSummary() != "" {
		t.Error("failed export has a summary")
	}
}

func TestLiveModel(t *testing.T) {
	m := NewLiveModel("stdin", false)
	if !strings.Contains(m.View(), "Waiting for audio") {
		t.Error("initial view missing waiting status")
	}

	m.Update(LiveFrame{Seq: 3, Frame: solidFrame(20, 10, color.RGBA{R: 1}), Window: []float64{-0.5, 0.1}, Peak: -0.5, Brightness: 1})
	view := m.View()
	if !strings.Contains(view, "-0.500") || !strings.Contains(view, "1.00") {
		t.Error("live view missing readout")
	}
	if m.peakHold != 0.5 {
		t.Errorf("peak hold = %v, want 0.5", m.peakHold)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q did not quit")
	}

	wantErr := errors.New("stalled")
	m.Update(LiveEnded{Err: wantErr})
	if !errors.Is(m.Err(), wantErr) {
		t.Errorf("Err() = %v", m.Err())
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDuration(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatDuration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatBytes(1536); got != "1.5 KB" {
		t.Errorf("formatBytes = %q", got)
	}
	if got := formatBytes(0); got != "0 B" {
		t.Errorf("formatBytes = %q", got)
	}
}
