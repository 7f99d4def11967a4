package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/freetype/raster"
	"github.com/linuxmatters/visound/internal/config"
	"golang.org/x/image/math/fixed"
)

// traceLimit bounds trace coordinates so they stay representable in 26.6
// fixed point. Anything this far out is clipped away long before drawing.
const traceLimit = 1 << 20

// tracePoints maps window samples to pixel positions in frame bounds b.
// The trace starts at (OverlayOriginX, H-OverlayBaseline) and spans a box a
// quarter of the frame wide and a fifth of it high. Positive samples deflect
// upwards. Points may fall outside the frame.
func tracePoints(b image.Rectangle, window []float64) []image.Point {
	width := float64(b.Dx())
	height := float64(b.Dy())

	originX := float64(b.Min.X + config.OverlayOriginX)
	originY := float64(b.Max.Y - config.OverlayBaseline)
	stepX := (width / 4) / float64(len(window))
	stepY := (height / 5) / 6

	points := make([]image.Point, len(window))
	for i, s := range window {
		x := math.Round(originX + float64(i)*stepX)
		y := math.Round(originY - s*stepY)
		points[i] = image.Point{
			X: int(math.Max(-traceLimit, math.Min(traceLimit, x))),
			Y: int(math.Max(-traceLimit, math.Min(traceLimit, y))),
		}
	}
	return points
}

// drawAmplitudeTrace strokes a polyline through every consecutive pair of
// samples. Windows with fewer than two samples draw nothing. Segments are
// clipped to the frame, so off-frame parts of the trace are dropped.
func drawAmplitudeTrace(frame *image.RGBA, window []float64, c color.RGBA) {
	if len(window) < 2 {
		return
	}

	b := frame.Bounds()
	points := tracePoints(b, window)

	// Clip against the frame grown by the stroke width so strokes that only
	// graze the edge keep their shape. Coordinates are frame-relative.
	margin := config.OverlayThickness + 1
	clip := [4]float64{-margin, -margin, float64(b.Dx()) + margin, float64(b.Dy()) + margin}

	var path raster.Path
	var last fixed.Point26_6
	open := false
	for i := 1; i < len(points); i++ {
		p0, p1 := points[i-1].Sub(b.Min), points[i].Sub(b.Min)
		a, z, ok := clipSegment(pixelCentre(p0), pixelCentre(p1), clip)
		if !ok {
			open = false
			continue
		}
		fa, fz := toFixed(a), toFixed(z)
		if !open || fa != last {
			path.Start(fa)
		}
		path.Add1(fz)
		last, open = fz, true
	}
	if len(path) == 0 {
		return
	}

	r := raster.NewRasterizer(b.Dx(), b.Dy())
	r.UseNonZeroWinding = true
	r.AddStroke(path, fixed.Int26_6(config.OverlayThickness*64), raster.ButtCapper, raster.BevelJoiner)

	painter := raster.NewRGBAPainter(frame)
	painter.SetColor(c)
	r.Rasterize(painter)
}

type vec struct{ x, y float64 }

func pixelCentre(p image.Point) vec {
	return vec{float64(p.X) + 0.5, float64(p.Y) + 0.5}
}

// clipSegment clips the segment a-z to the rectangle {minX, minY, maxX, maxY}
// using Liang-Barsky. It reports false when nothing of the segment remains.
func clipSegment(a, z vec, rect [4]float64) (vec, vec, bool) {
	dx, dy := z.x-a.x, z.y-a.y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.x - rect[0]},
		{dx, rect[2] - a.x},
		{-dy, a.y - rect[1]},
		{dy, rect[3] - a.y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, z, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, z, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return a, z, false
			}
			t1 = math.Min(t1, t)
		}
	}

	return vec{a.x + t0*dx, a.y + t0*dy}, vec{a.x + t1*dx, a.y + t1*dy}, true
}

func toFixed(v vec) fixed.Point26_6 {
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(v.x * 64)),
		Y: fixed.Int26_6(math.Round(v.y * 64)),
	}
}
