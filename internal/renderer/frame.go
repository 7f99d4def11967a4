package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/linuxmatters/visound/internal/config"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// hsv holds one foreground pixel in hue/saturation/value form
type hsv struct {
	h, s, v float64
}

// Encoder turns amplitude windows into composite frames for one session.
// It only reads its layers, so Encode may be called from several goroutines.
type Encoder struct {
	layers *Layers

	// Pre-computed foreground in HSV, row-major
	foreground []hsv

	overlayColour color.RGBA
	caption       *image.RGBA
}

// Option configures an Encoder
type Option func(*Encoder)

// WithOverlayColour sets the colour of the amplitude trace
func WithOverlayColour(c color.RGBA) Option {
	return func(e *Encoder) {
		c.A = 255
		e.overlayColour = c
	}
}

// WithCaption draws text in the top-left corner of every frame.
// The face is used once, while the encoder is built.
func WithCaption(text string, face font.Face, c color.RGBA) Option {
	return func(e *Encoder) {
		if text == "" || face == nil {
			return
		}
		e.caption = renderCaption(e.layers.Bounds(), face, text, c)
	}
}

// NewEncoder creates an encoder over prepared layers
func NewEncoder(layers *Layers, opts ...Option) (*Encoder, error) {
	if layers == nil || layers.Foreground == nil || layers.Background == nil {
		return nil, fmt.Errorf("layers are not prepared")
	}
	if layers.Foreground.Bounds() != layers.Background.Bounds() {
		return nil, fmt.Errorf("foreground %v and background %v differ in size",
			layers.Foreground.Bounds(), layers.Background.Bounds())
	}

	r, g, b, _ := config.ParseHexColor(config.OverlayColour)
	e := &Encoder{
		layers:        layers,
		overlayColour: color.RGBA{R: r, G: g, B: b, A: 255},
	}

	fg := layers.Foreground
	bounds := fg.Bounds()
	e.foreground = make([]hsv, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := fg.PixOffset(x, y)
			c := colorful.Color{
				R: float64(fg.Pix[i]) / 255.0,
				G: float64(fg.Pix[i+1]) / 255.0,
				B: float64(fg.Pix[i+2]) / 255.0,
			}
			h, s, v := c.Hsv()
			e.foreground = append(e.foreground, hsv{h, s, v})
		}
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Layers returns the layers the encoder draws from
func (e *Encoder) Layers() *Layers {
	return e.layers
}

// Bounds returns the frame bounds
func (e *Encoder) Bounds() image.Rectangle {
	return e.layers.Bounds()
}

// PeakAmplitude returns the sample with the largest magnitude.
// The first occurrence wins on ties.
func PeakAmplitude(window []float64) (float64, error) {
	if len(window) == 0 {
		return 0, ErrEmptyWindow
	}

	peak := window[0]
	for _, s := range window[1:] {
		if math.Abs(s) > math.Abs(peak) {
			peak = s
		}
	}
	return peak, nil
}

// BrightnessFactor maps a window to the foreground brightness multiplier.
// The peak is clamped to ±config.PeakClamp and negated, so the result lies in
// [BaseBrightness-PeakClamp, BaseBrightness+PeakClamp].
func BrightnessFactor(window []float64) (float64, error) {
	peak, err := PeakAmplitude(window)
	if err != nil {
		return 0, err
	}
	peak = math.Max(-config.PeakClamp, math.Min(config.PeakClamp, peak))
	return -peak + config.BaseBrightness, nil
}

// Encode renders one composite frame for window.
// With overlay set, the raw window is traced in the bottom-left corner.
// The returned image is always newly allocated.
func (e *Encoder) Encode(window []float64, overlay bool) (*image.RGBA, error) {
	factor, err := BrightnessFactor(window)
	if err != nil {
		return nil, err
	}

	bounds := e.Bounds()
	frame := image.NewRGBA(bounds)
	bg := e.layers.Background

	for i, p := range e.foreground {
		offset := i * 4

		// Black stays black at any brightness
		var r, g, b uint8
		if p.v > 0 {
			v := math.Min(p.v*factor, 1.0)
			r, g, b = colorful.Hsv(p.h, p.s, v).Clamped().RGB255()
		}

		frame.Pix[offset] = addSaturate(r, bg.Pix[offset])
		frame.Pix[offset+1] = addSaturate(g, bg.Pix[offset+1])
		frame.Pix[offset+2] = addSaturate(b, bg.Pix[offset+2])
		frame.Pix[offset+3] = 255
	}

	if overlay {
		drawAmplitudeTrace(frame, window, e.overlayColour)
	}

	if e.caption != nil {
		draw.Draw(frame, bounds, e.caption, bounds.Min, draw.Over)
	}

	return frame, nil
}

func addSaturate(a, b uint8) uint8 {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}
