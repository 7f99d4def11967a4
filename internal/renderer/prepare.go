package renderer

import (
	"image"
	"image/color"

	"github.com/linuxmatters/visound/internal/config"
	"golang.org/x/image/draw"
)

// Layers is the fixed per-session split of the source image.
// Foreground and Background are pixel-disjoint; Background carries the watermark.
// None of the three images may be modified once Prepare returns.
type Layers struct {
	Resized    *image.RGBA
	Foreground *image.RGBA
	Background *image.RGBA
}

// Bounds returns the working bounds shared by all layers.
func (l *Layers) Bounds() image.Rectangle {
	return l.Resized.Bounds()
}

// Channels reports the number of colour channels carried by img.
// Alpha-bearing images that are fully opaque count as 3 channels.
func Channels(img image.Image) int {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	case color.CMYKModel:
		return 4
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}

// WorkingSize halves width and height together until neither exceeds
// config.MaxDimension.
func WorkingSize(width, height int) (int, int) {
	for width > config.MaxDimension || height > config.MaxDimension {
		width /= 2
		height /= 2
	}
	return width, height
}

// Prepare resizes img (and mask, if non-nil) to the working resolution, splits
// it into foreground and background layers and watermarks the background.
func Prepare(img, mask image.Image) (*Layers, error) {
	if err := validate(img, mask); err != nil {
		return nil, err
	}

	src := img.Bounds()
	w, h := WorkingSize(src.Dx(), src.Dy())
	if w == 0 || h == 0 {
		return nil, &InvalidInputError{
			Subject: "image",
			Reason:  "too narrow to halve into the working resolution",
			Got:     src.Size(),
		}
	}

	resized := scaleTo(img, w, h)

	var maskRGBA *image.RGBA
	if mask != nil {
		maskRGBA = scaleTo(mask, w, h)
	}
	fg, bg := segment(resized, maskRGBA)

	glyph, err := watermarkGlyph()
	if err != nil {
		return nil, err
	}
	applyWatermark(bg, glyph)

	return &Layers{Resized: resized, Foreground: fg, Background: bg}, nil
}

func validate(img, mask image.Image) error {
	if img == nil {
		return &InvalidInputError{Subject: "image", Reason: "missing"}
	}
	if n := Channels(img); n != 3 {
		return &InvalidInputError{Subject: "image", Channels: n}
	}
	if mask == nil {
		return nil
	}
	if got, want := mask.Bounds().Size(), img.Bounds().Size(); got != want {
		return &InvalidInputError{Subject: "mask", Got: got, Want: want}
	}
	if n := Channels(mask); n != 3 {
		return &InvalidInputError{Subject: "mask", Channels: n}
	}
	return nil
}

// scaleTo returns an opaque RGBA copy of src at w×h, anchored at the origin.
func scaleTo(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	}
	return dst
}

// segment splits img by mask (grayscale > 0 selects the foreground).
// A nil mask selects every pixel. The returned layers sum to img exactly.
func segment(img, mask *image.RGBA) (fg, bg *image.RGBA) {
	b := img.Bounds()
	fg = image.NewRGBA(b)
	bg = image.NewRGBA(b)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			px := img.Pix[i : i+3]

			dst := fg
			other := bg
			if mask != nil && !selected(mask, x, y) {
				dst, other = bg, fg
			}
			copy(dst.Pix[i:i+3], px)
			dst.Pix[i+3] = 255
			other.Pix[i+3] = 255
		}
	}
	return fg, bg
}

func selected(mask *image.RGBA, x, y int) bool {
	return color.GrayModel.Convert(mask.RGBAAt(x, y)).(color.Gray).Y > 0
}
