package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// PreviewConfig holds the largest preview size in terminal cells.
// Each cell shows two pixel rows using a half block.
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig fits the working resolution's 500 px bound into a
// modest terminal
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  64,
		Height: 18,
	}
}

// PreviewSize returns the cell grid for a frame of size b that fits config
// while keeping the frame's aspect ratio. Terminal cells are roughly twice
// as tall as wide, which the half-block rendering cancels out.
func PreviewSize(b image.Rectangle, config PreviewConfig) (cols, rows int) {
	if b.Empty() || config.Width <= 0 || config.Height <= 0 {
		return 0, 0
	}

	cols = config.Width
	pixelRows := cols * b.Dy() / b.Dx()
	if pixelRows > config.Height*2 {
		pixelRows = config.Height * 2
		cols = max(pixelRows*b.Dx()/b.Dy(), 1)
	}
	rows = max((pixelRows+1)/2, 1)
	return cols, rows
}

// DownsampleFrame scales frame to the preview grid, returning two pixel rows
// per terminal row
func DownsampleFrame(frame *image.RGBA, config PreviewConfig) [][]color.RGBA {
	cols, rows := PreviewSize(frame.Bounds(), config)
	if cols == 0 {
		return nil
	}

	small := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	preview := make([][]color.RGBA, rows*2)
	for y := range preview {
		preview[y] = make([]color.RGBA, cols)
		for x := 0; x < cols; x++ {
			c := small.RGBAAt(x, y)
			c.A = 255
			preview[y][x] = c
		}
	}
	return preview
}

// RenderPreview converts a preview grid to ANSI 24-bit colour half blocks:
// the foreground paints the upper pixel, the background the lower one.
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	width := len(preview[0])
	var result strings.Builder

	result.WriteString("  ┌" + strings.Repeat("─", width) + "┐\n")

	for y := 0; y+1 < len(preview); y += 2 {
		result.WriteString("  │")
		top, bottom := preview[y], preview[y+1]
		for x := 0; x < width; x++ {
			t, b := top[x], bottom[x]
			fmt.Fprintf(&result, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀\x1b[0m", t.R, t.G, t.B, b.R, b.G, b.B)
		}
		result.WriteString("│\n")
	}

	result.WriteString("  └" + strings.Repeat("─", width) + "┘\n")

	return result.String()
}

// cachedPreview re-renders only when the frame changes
type cachedPreview struct {
	config PreviewConfig
	key    int
	view   string
}

func (c *cachedPreview) render(key int, frame *image.RGBA) string {
	if frame != nil && (c.view == "" || key != c.key) {
		c.view = RenderPreview(DownsampleFrame(frame, c.config))
		c.key = key
	}
	return c.view
}
