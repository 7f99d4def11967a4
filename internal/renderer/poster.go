package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/visound/internal/config"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// posterTextColour returns the colour used for poster titles
func posterTextColour() color.RGBA {
	r, g, b, _ := config.ParseHexColor(config.PosterTextColour)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// GeneratePoster writes a PNG still of base with title overlaid.
// It is exported next to a video as a cover image.
func GeneratePoster(outputPath string, base *image.RGBA, title string) error {
	poster, err := RenderPoster(base, title)
	if err != nil {
		return err
	}
	if err := WritePNG(outputPath, poster); err != nil {
		return fmt.Errorf("failed to save poster: %w", err)
	}
	return nil
}

// RenderPoster returns a copy of base with title drawn across its top half.
// An empty title returns a plain copy.
func RenderPoster(base *image.RGBA, title string) (*image.RGBA, error) {
	if base == nil {
		return nil, fmt.Errorf("poster needs a base frame")
	}

	poster := image.NewRGBA(base.Bounds())
	draw.Draw(poster, poster.Bounds(), base, base.Bounds().Min, draw.Src)

	line1, line2 := splitTitle(title)
	if line1 == "" {
		return poster, nil
	}

	parsedFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	fontSize := findOptimalFontSize(parsedFont, poster.Bounds(), line1, line2)
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size: fontSize,
		DPI:  72,
	})
	defer face.Close()

	drawPosterText(poster, face, line1, line2)
	return poster, nil
}

// splitTitle splits the title into 2 roughly equal lines
func splitTitle(title string) (string, string) {
	words := strings.Fields(title)
	if len(words) == 0 {
		return "", ""
	}
	if len(words) == 1 {
		return words[0], ""
	}

	mid := len(words) / 2
	return strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")
}

// findOptimalFontSize finds the largest font size where both lines fit
// between the side margins and line 2 ends above the vertical centre.
func findOptimalFontSize(parsedFont *truetype.Font, bounds image.Rectangle, line1, line2 string) float64 {
	centerY := bounds.Dy() / 2
	maxWidth := bounds.Dx() - (2 * config.PosterMargin)

	for size := 150.0; size > 6.0; size -= 2.0 {
		face := truetype.NewFace(parsedFont, &truetype.Options{
			Size: size,
			DPI:  72,
		})

		width1, bounds1 := measureText(face, line1)
		width2, bounds2 := measureText(face, line2)
		face.Close()

		if width1 > maxWidth || width2 > maxWidth {
			continue
		}

		lineSpacing := int(size * 0.5)
		height1 := (bounds1.Max.Y - bounds1.Min.Y).Ceil()
		height2 := (bounds2.Max.Y - bounds2.Min.Y).Ceil()

		if config.PosterMargin+height1+lineSpacing+height2 <= centerY {
			return size
		}
	}

	return 6.0
}

// measureText returns the width and bounds of rendered text.
// bounds.Min.Y is negative (ascent) and bounds.Max.Y positive (descent).
func measureText(face font.Face, text string) (int, fixed.Rectangle26_6) {
	d := &font.Drawer{Face: face}
	bounds, _ := d.BoundString(text)
	return (bounds.Max.X - bounds.Min.X).Ceil(), bounds
}

// drawPosterText draws both lines centred on a scratch image, rotates it
// PosterRotation degrees clockwise and composites it so the highest rotated
// point sits on the top margin.
func drawPosterText(img *image.RGBA, face font.Face, line1, line2 string) {
	width1, bounds1 := measureText(face, line1)
	width2, bounds2 := measureText(face, line2)

	fontSize := float64(face.Metrics().Height) / 64.0
	lineSpacing := int(fontSize * 0.5)

	height1 := (bounds1.Max.Y - bounds1.Min.Y).Ceil()
	height2 := (bounds2.Max.Y - bounds2.Min.Y).Ceil()

	maxWidth := max(width1, width2)
	totalHeight := height1 + lineSpacing + height2

	// 1.5x leaves room for the rotated corners
	tempSize := int(float64(maxWidth+totalHeight) * 1.5)
	tempImg := image.NewRGBA(image.Rect(0, 0, tempSize, tempSize))
	tempCenterY := tempSize / 2

	line1VisualTop := tempCenterY - totalHeight/2
	line1BaselineY := line1VisualTop - bounds1.Min.Y.Ceil()
	line2VisualTop := line1VisualTop + height1 + lineSpacing
	line2BaselineY := line2VisualTop - bounds2.Min.Y.Ceil()

	drawCenteredLine(tempImg, face, line1, tempSize, line1BaselineY)
	drawCenteredLine(tempImg, face, line2, tempSize, line2BaselineY)

	angle := -config.PosterRotation * math.Pi / 180.0 // Negative for clockwise
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	cx := float64(tempSize) / 2.0
	cy := float64(tempSize) / 2.0

	// Translate to origin, rotate, translate back
	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}

	rotatedImg := image.NewRGBA(tempImg.Bounds())
	draw.BiLinear.Transform(rotatedImg, m, tempImg, tempImg.Bounds(), draw.Over, nil)

	// The top-right corner of line 1 is highest after a clockwise rotation
	topRightX := cx + float64(width1)/2.0 - cx
	topRightY := float64(line1VisualTop) - cy
	highestPointY := sin*topRightX + cos*topRightY + cy

	b := img.Bounds()
	destX := b.Min.X + (b.Dx()-tempSize)/2
	destY := b.Min.Y + int(float64(config.PosterMargin)-highestPointY)

	destRect := image.Rect(destX, destY, destX+tempSize, destY+tempSize)
	draw.Draw(img, destRect, rotatedImg, image.Point{}, draw.Over)
}

// drawCenteredLine draws a line of text centred horizontally on img
func drawCenteredLine(img *image.RGBA, face font.Face, text string, imgWidth, baselineY int) {
	if text == "" {
		return
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(posterTextColour()),
		Face: face,
	}

	bounds, _ := d.BoundString(text)
	textWidth := (bounds.Max.X - bounds.Min.X).Ceil()

	d.Dot = freetype.Pt((imgWidth-textWidth)/2, baselineY)
	d.DrawString(text)
}
