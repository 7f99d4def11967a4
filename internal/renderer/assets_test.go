package renderer

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestWatermarkGlyph_ScaledAndBinarised(t *testing.T) {
	glyph, err := watermarkGlyph()
	if err != nil {
		t.Fatalf("watermarkGlyph() error = %v", err)
	}

	// The sign asset is 400x160, scaled to 15%
	if got := glyph.Bounds(); got != image.Rect(0, 0, 60, 24) {
		t.Errorf("glyph bounds = %v, want 60x24", got)
	}

	lit := 0
	for _, v := range glyph.Pix {
		if v > 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("glyph has no lit pixels")
	}

	again, _ := watermarkGlyph()
	if again != glyph {
		t.Error("glyph decoded more than once")
	}
}

func TestApplyWatermark_ClipsToSmallImages(t *testing.T) {
	glyph := image.NewGray(image.Rect(0, 0, 60, 24))
	for i := range glyph.Pix {
		glyph.Pix[i] = 255
	}

	// The glyph overhangs the top-left, covering x < 20 and y < 20
	bg := solid(30, 30, color.RGBA{})
	applyWatermark(bg, glyph)

	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			want := uint8(0)
			if x < 20 && y < 20 {
				want = 128
			}
			if got := bg.RGBAAt(x, y).R; got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestApplyWatermark_Saturates(t *testing.T) {
	glyph := image.NewGray(image.Rect(0, 0, 2, 2))
	glyph.Pix[3] = 255

	bg := solid(20, 20, color.RGBA{R: 200, G: 100, B: 0})
	applyWatermark(bg, glyph)

	// Bottom-right glyph pixel lands at (20-10-1, 20-10-1)
	if got := bg.RGBAAt(9, 9); got != (color.RGBA{R: 255, G: 228, B: 128, A: 255}) {
		t.Errorf("blended pixel = %v, want {255 228 128 255}", got)
	}
	if got := bg.RGBAAt(8, 8); got != (color.RGBA{R: 200, G: 100, B: 0, A: 255}) {
		t.Errorf("unlit glyph pixel changed the background to %v", got)
	}
}

func TestClampRound(t *testing.T) {
	testCases := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.4, 0},
		{0.5, 1},
		{127.5, 128},
		{254.6, 255},
		{400, 255},
	}
	for _, tc := range testCases {
		if got := clampRound(tc.in); got != tc.want {
			t.Errorf("clampRound(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "image.png")
	if err := WritePNG(pngPath, gradient(30, 20)); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}

	img, err := LoadImage(pngPath)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 30, 20) {
		t.Errorf("bounds = %v, want 30x20", img.Bounds())
	}
	if n := Channels(img); n != 3 {
		t.Errorf("Channels() = %d, want 3 for an opaque PNG", n)
	}

	textPath := filepath.Join(dir, "notes.png")
	if err := os.WriteFile(textPath, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(textPath); err == nil {
		t.Error("LoadImage accepted a text file")
	}

	if _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("LoadImage accepted a missing file")
	}
}

func TestLoadImage_GrayPNGIsRejectedByPrepare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gray.png")
	if err := WritePNG(path, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if _, err := Prepare(img, nil); err == nil {
		t.Error("Prepare accepted a grayscale PNG")
	}
}
