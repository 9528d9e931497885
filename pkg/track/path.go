package track

import (
	"math"

	"f1dashboard/pkg/geom"
)

// DefaultFlatness is the maximum distance a curve control point may sit from
// the chord before the curve is treated as a straight line.
const DefaultFlatness = 1.0

// maxDepth bounds curve subdivision so a pathological curve can't blow the stack.
const maxDepth = 16

type segmentKind int

const (
	segLine segmentKind = iota
	segQuad
	segCubic
)

type segment struct {
	kind segmentKind
	// control points after the segment start; the last one is the end point
	pts [3]geom.Point
}

func (s segment) end() geom.Point {
	switch s.kind {
	case segQuad:
		return s.pts[1]
	case segCubic:
		return s.pts[2]
	default:
		return s.pts[0]
	}
}

// Path is a closed circuit outline made of straight and curved segments.
// Build it with MoveTo followed by LineTo/QuadTo/CubicTo; the outline is
// always closed back to the MoveTo point whether or not Close is called.
type Path struct {
	start    geom.Point
	started  bool
	segments []segment
}

func NewPath() *Path {
	return &Path{}
}

// Clone returns a deep copy that can be extended without touching p.
func (p *Path) Clone() *Path {
	c := *p
	c.segments = append([]segment(nil), p.segments...)
	return &c
}

func (p *Path) MoveTo(x, y float64) *Path {
	p.start = geom.Pt(x, y)
	p.started = true
	p.segments = p.segments[:0]
	return p
}

func (p *Path) LineTo(x, y float64) *Path {
	p.ensureStarted(x, y)
	p.segments = append(p.segments, segment{kind: segLine, pts: [3]geom.Point{geom.Pt(x, y)}})
	return p
}

func (p *Path) QuadTo(cx, cy, x, y float64) *Path {
	p.ensureStarted(cx, cy)
	p.segments = append(p.segments, segment{kind: segQuad, pts: [3]geom.Point{geom.Pt(cx, cy), geom.Pt(x, y)}})
	return p
}

func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) *Path {
	p.ensureStarted(c1x, c1y)
	p.segments = append(p.segments, segment{
		kind: segCubic,
		pts:  [3]geom.Point{geom.Pt(c1x, c1y), geom.Pt(c2x, c2y), geom.Pt(x, y)},
	})
	return p
}

// Close is a no-op marker kept for readability of circuit definitions; the
// closing segment is added during flattening.
func (p *Path) Close() *Path {
	return p
}

func (p *Path) ensureStarted(x, y float64) {
	if !p.started {
		p.start = geom.Pt(x, y)
		p.started = true
	}
}

// Start returns the point the outline begins at.
func (p *Path) Start() geom.Point {
	return p.start
}

// Flatten converts the outline to a closed polyline. The first vertex is the
// start point and the last vertex equals the start point again.
func (p *Path) Flatten(flatness float64) []geom.Point {
	if !p.started {
		return nil
	}
	if flatness <= 0 {
		flatness = DefaultFlatness
	}
	out := []geom.Point{p.start}
	cur := p.start
	for _, s := range p.segments {
		switch s.kind {
		case segLine:
			out = append(out, s.pts[0])
		case segQuad:
			// elevate to cubic so a single subdivision routine serves both
			c1 := geom.Lerp(cur, s.pts[0], 2.0/3.0)
			c2 := geom.Lerp(s.pts[1], s.pts[0], 2.0/3.0)
			flattenCubic(cur, c1, c2, s.pts[1], flatness, 0, &out)
		case segCubic:
			flattenCubic(cur, s.pts[0], s.pts[1], s.pts[2], flatness, 0, &out)
		}
		cur = s.end()
	}
	if cur != p.start {
		out = append(out, p.start)
	}
	return out
}

func flattenCubic(p0, p1, p2, p3 geom.Point, flatness float64, depth int, out *[]geom.Point) {
	d1 := distToChord(p1, p0, p3)
	d2 := distToChord(p2, p0, p3)
	if (d1 <= flatness && d2 <= flatness) || depth >= maxDepth {
		*out = append(*out, p3)
		return
	}

	// De Casteljau split at t=0.5
	m01 := geom.Lerp(p0, p1, 0.5)
	m12 := geom.Lerp(p1, p2, 0.5)
	m23 := geom.Lerp(p2, p3, 0.5)
	m012 := geom.Lerp(m01, m12, 0.5)
	m123 := geom.Lerp(m12, m23, 0.5)
	mid := geom.Lerp(m012, m123, 0.5)

	flattenCubic(p0, m01, m012, mid, flatness, depth+1, out)
	flattenCubic(mid, m123, m23, p3, flatness, depth+1, out)
}

func distToChord(p, a, b geom.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
