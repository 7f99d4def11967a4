package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/visound/internal/cli"
)

// renderWaveform draws the absolute peak of each column's slice of window as
// a two-row block chart. Heights are relative to fullScale, so a quiet window
// stays visibly quiet.
func renderWaveform(window []float64, width int, fullScale float64) string {
	if len(window) == 0 || width <= 0 {
		return ""
	}
	if fullScale <= 0 {
		fullScale = 1
	}

	heights := columnPeaks(window, width)
	for i := range heights {
		heights[i] = math.Min(heights[i]/fullScale, 1)
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	colours := cli.SignalGradient

	var result strings.Builder

	// Top row shows the portion above half scale
	for _, h := range heights {
		if h <= 0.5 {
			result.WriteString(" ")
			continue
		}
		idx := min(int((h-0.5)*2*float64(len(blocks)-1)), len(blocks)-1)
		result.WriteString(blockStyle(colours, h).Render(string(blocks[idx])))
	}
	result.WriteString("\n")

	for _, h := range heights {
		idx := len(blocks) - 1
		if h < 0.5 {
			idx = min(int(h*2*float64(len(blocks)-1)), len(blocks)-1)
		}
		result.WriteString(blockStyle(colours, h).Render(string(blocks[idx])))
	}

	return result.String()
}

// columnPeaks splits window into width columns (fewer if the window is
// shorter) and returns the largest magnitude in each.
func columnPeaks(window []float64, width int) []float64 {
	cols := min(width, len(window))
	peaks := make([]float64, cols)
	for c := 0; c < cols; c++ {
		lo := c * len(window) / cols
		hi := (c + 1) * len(window) / cols
		for _, s := range window[lo:hi] {
			peaks[c] = math.Max(peaks[c], math.Abs(s))
		}
	}
	return peaks
}

func blockStyle(colours []lipgloss.Color, h float64) lipgloss.Style {
	idx := max(0, min(int(h*float64(len(colours)-1)), len(colours)-1))
	return lipgloss.NewStyle().Foreground(colours[idx])
}
