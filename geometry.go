package autodeck

import "math"

// PointsPerInch converts inch template coordinates to points.
const PointsPerInch = 72.0

// Box is an axis-aligned rectangle in points, origin top-left.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// InchBox builds a Box from inch coordinates.
func InchBox(x, y, w, h float64) Box {
	return Box{X: x * PointsPerInch, Y: y * PointsPerInch, W: w * PointsPerInch, H: h * PointsPerInch}
}

// Right is the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom is the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Center returns the box centre.
func (b Box) Center() (float64, float64) { return b.X + b.W/2, b.Y + b.H/2 }

// Overlap returns the intersection area; 0 when the boxes only touch.
func (b Box) Overlap(o Box) float64 {
	w := math.Min(b.Right(), o.Right()) - math.Max(b.X, o.X)
	h := math.Min(b.Bottom(), o.Bottom()) - math.Max(b.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Intersects reports a positive-area overlap.
func (b Box) Intersects(o Box) bool { return b.Overlap(o) > 0 }

// Contains reports whether o lies inside b, allowing a small epsilon for
// inch-to-point rounding.
func (b Box) Contains(o Box) bool {
	const eps = 1e-6
	return o.X >= b.X-eps && o.Y >= b.Y-eps &&
		o.Right() <= b.Right()+eps && o.Bottom() <= b.Bottom()+eps
}

// Valid reports positive width and height.
func (b Box) Valid() bool { return b.W > 0 && b.H > 0 }

// Distance is the Euclidean distance between box centres.
func (b Box) Distance(o Box) float64 {
	bx, by := b.Center()
	ox, oy := o.Center()
	return math.Hypot(bx-ox, by-oy)
}

// Canvas is the slide surface in points.
type Canvas struct {
	W float64 `json:"w" yaml:"width_pt"`
	H float64 `json:"h" yaml:"height_pt"`
}

// DefaultCanvas is 10 in × 5.625 in (16:9).
var DefaultCanvas = Canvas{W: 720, H: 405}

// Bounds returns the canvas as a box at the origin.
func (c Canvas) Bounds() Box { return Box{W: c.W, H: c.H} }

// scale maps a template box on the 720×405 reference canvas onto c.
func (c Canvas) scale(b Box) Box {
	sx, sy := c.W/DefaultCanvas.W, c.H/DefaultCanvas.H
	return Box{X: b.X * sx, Y: b.Y * sy, W: b.W * sx, H: b.H * sy}
}
