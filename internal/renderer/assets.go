package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/visound/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

//go:embed assets/sign.png
var embeddedAssets embed.FS

var (
	glyphOnce sync.Once
	glyph     *image.Gray
	glyphErr  error
)

// watermarkGlyph returns the binarised sign, scaled for the working resolution.
// The asset is decoded once; the returned image is shared and read-only.
func watermarkGlyph() (*image.Gray, error) {
	glyphOnce.Do(func() {
		glyph, glyphErr = loadGlyph()
	})
	return glyph, glyphErr
}

func loadGlyph() (*image.Gray, error) {
	data, err := embeddedAssets.ReadFile(config.SignImageAsset)
	if err != nil {
		return nil, fmt.Errorf("failed to read sign asset: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode sign asset: %w", err)
	}

	// Binarise: any lit pixel becomes full intensity
	b := img.Bounds()
	sign := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y > 0 {
				sign.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: 255})
			}
		}
	}

	w := int(math.Round(float64(b.Dx()) * config.WatermarkScale))
	h := int(math.Round(float64(b.Dy()) * config.WatermarkScale))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("sign asset %dx%d is too small to scale", b.Dx(), b.Dy())
	}

	scaled := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), sign, sign.Bounds(), draw.Src, nil)
	return scaled, nil
}

// applyWatermark blends glyph into the bottom-right corner of bg, inset by
// config.WatermarkInset. The blend is bg*1.0 + glyph*WatermarkOpacity,
// rounded and clamped. Any part of the glyph outside bg is dropped.
func applyWatermark(bg *image.RGBA, glyph *image.Gray) {
	b := bg.Bounds()
	gb := glyph.Bounds()
	x0 := b.Max.X - gb.Dx() - config.WatermarkInset
	y0 := b.Max.Y - gb.Dy() - config.WatermarkInset

	for gy := 0; gy < gb.Dy(); gy++ {
		y := y0 + gy
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for gx := 0; gx < gb.Dx(); gx++ {
			x := x0 + gx
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			g := glyph.GrayAt(gb.Min.X+gx, gb.Min.Y+gy).Y
			if g == 0 {
				continue
			}
			i := bg.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				bg.Pix[i+c] = clampRound(float64(bg.Pix[i+c]) + config.WatermarkOpacity*float64(g))
			}
		}
	}
}

func clampRound(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// LoadFont loads the embedded Go Regular TrueType font at the given size
func LoadFont(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}

	face := truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	return face, nil
}

// renderCaption draws text onto a transparent layer the size of bounds,
// anchored in the top-left corner with config.CaptionMargin padding.
// The layer is composited over each frame, so the face is only used here.
func renderCaption(bounds image.Rectangle, face font.Face, text string, c color.Color) *image.RGBA {
	layer := image.NewRGBA(bounds)

	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(c),
		Face: face,
	}

	// Measure text height so the ascent sits inside the margin
	textBounds, _ := d.BoundString(text)
	ascent := (-textBounds.Min.Y).Ceil()

	d.Dot = freetype.Pt(bounds.Min.X+config.CaptionMargin, bounds.Min.Y+config.CaptionMargin+ascent)
	d.DrawString(text)

	return layer
}
