package renderer

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestSplitTitle(t *testing.T) {
	testCases := []struct {
		title        string
		line1, line2 string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"Panache", "Panache", ""},
		{"Panache, for Men", "Panache,", "for Men"},
		{"Frankenstein's Ubuntu Server Framework", "Frankenstein's Ubuntu", "Server Framework"},
		{"High Precision Solid Metal Balls", "High Precision", "Solid Metal Balls"},
	}

	for _, tc := range testCases {
		line1, line2 := splitTitle(tc.title)
		if line1 != tc.line1 || line2 != tc.line2 {
			t.Errorf("splitTitle(%q) = (%q, %q), want (%q, %q)", tc.title, line1, line2, tc.line1, tc.line2)
		}
	}
}

func TestRenderPoster_DrawsTitleNearTop(t *testing.T) {
	base := solid(480, 270, color.RGBA{})
	original := append([]byte(nil), base.Pix...)

	poster, err := RenderPoster(base, "Sound Made Visible")
	if err != nil {
		t.Fatalf("RenderPoster() error = %v", err)
	}

	if !bytes.Equal(base.Pix, original) {
		t.Error("RenderPoster modified the base frame")
	}
	if poster.Bounds() != base.Bounds() {
		t.Errorf("poster bounds = %v, want %v", poster.Bounds(), base.Bounds())
	}

	// Rotation may carry the second line a little past the centre line
	top, bottom := 0, 0
	for y := 0; y < 270; y++ {
		for x := 0; x < 480; x++ {
			if poster.RGBAAt(x, y).R == 0 {
				continue
			}
			if y < 200 {
				top++
			} else {
				bottom++
			}
		}
	}
	if top == 0 {
		t.Error("no title pixels drawn")
	}
	if bottom != 0 {
		t.Errorf("%d title pixels in the bottom quarter", bottom)
	}
}

func TestRenderPoster_EmptyTitleCopiesBase(t *testing.T) {
	base := gradient(64, 48)
	poster, err := RenderPoster(base, "")
	if err != nil {
		t.Fatalf("RenderPoster() error = %v", err)
	}
	if !bytes.Equal(poster.Pix, base.Pix) {
		t.Error("poster with no title differs from the base frame")
	}
	if &poster.Pix[0] == &base.Pix[0] {
		t.Error("poster shares the base frame buffer")
	}
}

func TestRenderPoster_NilBase(t *testing.T) {
	if _, err := RenderPoster(nil, "title"); err == nil {
		t.Error("RenderPoster(nil) succeeded")
	}
}

func TestGeneratePoster_WritesPNG(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "poster.png")
	if err := GeneratePoster(outputPath, gradient(320, 180), "Linux Matters"); err != nil {
		t.Fatalf("GeneratePoster() error = %v", err)
	}

	img, err := LoadImage(outputPath)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 320, 180) {
		t.Errorf("poster bounds = %v, want 320x180", img.Bounds())
	}
}
