package track

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"f1dashboard/pkg/geom"
)

// ErrInvalidPath is returned when a path can't be used as a circuit outline.
var ErrInvalidPath = errors.New("invalid track path")

// InvalidPathError describes why a path was rejected. It matches ErrInvalidPath
// with errors.Is.
type InvalidPathError struct {
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidPath, e.Reason)
}

func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidPath
}

// Mapper maps a fraction of a lap to a point on the active circuit outline.
// The outline is flattened once when set; lookups never allocate.
type Mapper struct {
	flatness float64
	path     *Path
	points   []geom.Point
	// cum[i] is the arc length from points[0] to points[i]
	cum    []float64
	bounds geom.Rect
}

func NewMapper(p *Path) (*Mapper, error) {
	return NewMapperWithFlatness(p, DefaultFlatness)
}

func NewMapperWithFlatness(p *Path, flatness float64) (*Mapper, error) {
	m := &Mapper{flatness: flatness}
	if err := m.SetPath(p); err != nil {
		return nil, err
	}
	return m, nil
}

// SetPath replaces the active outline. On error the previous outline stays
// active so callers can keep drawing while falling back to a default path.
func (m *Mapper) SetPath(p *Path) error {
	if p == nil {
		return &InvalidPathError{Reason: "path is nil"}
	}
	pts := p.Flatten(m.flatness)
	if len(pts) < 2 {
		return &InvalidPathError{Reason: "path has no segments"}
	}
	cum := make([]float64, len(pts))
	for i := range pts {
		if !pts[i].Finite() {
			return &InvalidPathError{Reason: fmt.Sprintf("vertex %d is not finite", i)}
		}
		if i > 0 {
			cum[i] = cum[i-1] + pts[i-1].Dist(pts[i])
		}
	}
	total := cum[len(cum)-1]
	if !(total > 0) || math.IsInf(total, 0) {
		return &InvalidPathError{Reason: "path has zero length"}
	}

	m.path = p.Clone()
	m.points = pts
	m.cum = cum
	m.bounds = geom.Bounds(pts)
	return nil
}

// Path returns a copy of the active outline; changing it does not affect
// the mapper.
func (m *Mapper) Path() *Path {
	return m.path.Clone()
}

// Length is the total arc length of the flattened outline.
func (m *Mapper) Length() float64 {
	return m.cum[len(m.cum)-1]
}

func (m *Mapper) Bounds() geom.Rect {
	return m.bounds
}

// Polyline returns a copy of the flattened outline.
func (m *Mapper) Polyline() []geom.Point {
	out := make([]geom.Point, len(m.points))
	copy(out, m.points)
	return out
}

// PointAtFraction returns the point reached after travelling f of the total
// arc length from the start. f wraps, so 1.25 and -0.75 both mean 0.25.
func (m *Mapper) PointAtFraction(f float64) geom.Point {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return m.points[0]
	}
	f = math.Mod(f, 1.0)
	if f < 0 {
		f += 1.0
	}
	total := m.Length()
	target := f * total

	// first vertex whose cumulative distance reaches the target; since
	// cum[i-1] < target <= cum[i], zero length segments are never selected
	i := sort.SearchFloat64s(m.cum, target)
	if i >= len(m.cum) {
		return m.points[len(m.points)-1]
	}
	if i == 0 {
		return m.points[0]
	}
	segLen := m.cum[i] - m.cum[i-1]
	if segLen == 0 {
		return m.points[i]
	}
	t := (target - m.cum[i-1]) / segLen
	return geom.Lerp(m.points[i-1], m.points[i], t)
}

// TransformToViewport fits the outline's bounding box into a width x height
// area minus padding on every side, keeping the aspect ratio and centring
// the result. Degenerate inputs give the identity transform.
func (m *Mapper) TransformToViewport(width, height, padding float64) geom.Affine {
	return FitViewport(m.bounds, width, height, padding)
}

// FitViewport is the transform used by TransformToViewport, exposed for
// callers that only have a bounding box.
func FitViewport(b geom.Rect, width, height, padding float64) geom.Affine {
	bw, bh := b.Width(), b.Height()
	if bw <= 0 || bh <= 0 {
		return geom.Identity()
	}
	availW := width - 2*padding
	availH := height - 2*padding
	if availW <= 0 || availH <= 0 {
		return geom.Identity()
	}
	scale := math.Min(availW/bw, availH/bh)
	tx := padding + (availW-bw*scale)/2 - b.Min.X*scale
	ty := padding + (availH-bh*scale)/2 - b.Min.Y*scale
	return geom.UniformScale(scale, tx, ty)
}
