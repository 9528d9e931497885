package geom

import (
	"math"

	"github.com/llgcode/draw2d"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// Rect is an axis aligned bounding box.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Bounds returns the bounding box of pts. An empty slice yields the zero Rect.
func Bounds(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{Min: Point{X: minX, Y: minY}, Max: Point{X: maxX, Y: maxY}}
}

// Affine is a 2x3 matrix using draw2d's layout: [a b c d tx ty] with
// x' = a*x + c*y + tx and y' = b*x + d*y + ty.
type Affine struct {
	m draw2d.Matrix
}

func Identity() Affine {
	return Affine{m: draw2d.NewIdentityMatrix()}
}

// UniformScale builds a transform that scales both axes by s and then translates.
func UniformScale(s, tx, ty float64) Affine {
	return Affine{m: draw2d.Matrix{s, 0, 0, s, tx, ty}}
}

func (a Affine) Apply(p Point) Point {
	x, y := a.m.TransformPoint(p.X, p.Y)
	return Point{X: x, Y: y}
}

func (a Affine) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = a.Apply(p)
	}
	return out
}

// Scale returns the horizontal and vertical scale factors.
func (a Affine) Scale() (float64, float64) {
	return a.m[0], a.m[3]
}

func (a Affine) Translation() (float64, float64) {
	return a.m[4], a.m[5]
}

func (a Affine) IsIdentity() bool {
	return a.m.IsIdentity()
}

// Matrix exposes the draw2d matrix so renderers can hand it to a graphic context.
func (a Affine) Matrix() draw2d.Matrix {
	return a.m
}
