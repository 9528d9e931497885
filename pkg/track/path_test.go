package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1dashboard/pkg/geom"
)

func TestFlattenClosesOutline(t *testing.T) {
	pts := square(10).Flatten(DefaultFlatness)
	require.Len(t, pts, 5)
	assert.Equal(t, pts[0], pts[len(pts)-1])
}

func TestFlattenCurveStaysInHull(t *testing.T) {
	p := defaultOval()
	pts := p.Flatten(DefaultFlatness)
	require.Greater(t, len(pts), 4)
	assert.Equal(t, p.Start(), pts[0])
	assert.Equal(t, p.Start(), pts[len(pts)-1])

	// bounding box of the control points contains every flattened vertex
	hull := geom.Rect{Min: geom.Pt(50, 0), Max: geom.Pt(500, 300)}
	for _, pt := range pts {
		assert.GreaterOrEqual(t, pt.X, hull.Min.X)
		assert.LessOrEqual(t, pt.X, hull.Max.X)
		assert.GreaterOrEqual(t, pt.Y, hull.Min.Y)
		assert.LessOrEqual(t, pt.Y, hull.Max.Y)
	}
}

func TestFlattenTolerance(t *testing.T) {
	coarse := albertPark().Flatten(4)
	fine := albertPark().Flatten(0.1)
	assert.Greater(t, len(fine), len(coarse))

	// non-positive tolerance falls back to the default
	assert.Equal(t, albertPark().Flatten(DefaultFlatness), albertPark().Flatten(0))
}

func TestFlattenQuad(t *testing.T) {
	p := NewPath().MoveTo(0, 0).QuadTo(50, 100, 100, 0).Close()
	pts := p.Flatten(0.5)
	require.Greater(t, len(pts), 3)
	// apex of the quadratic is at t=0.5: (50, 50)
	top := 0.0
	for _, pt := range pts {
		if pt.Y > top {
			top = pt.Y
		}
	}
	assert.InDelta(t, 50.0, top, 1.0)
}

func TestCircuitCatalog(t *testing.T) {
	cs := Circuits()
	require.Len(t, cs, 6)
	for i, c := range cs {
		assert.Equal(t, i, c.ID)
		_, err := NewMapper(c.Path())
		assert.NoError(t, err, c.Name)
	}

	assert.Equal(t, DefaultCircuitName, CircuitByID(42).Name)
	assert.Equal(t, "Circuit de Monaco", CircuitByID(5).Name)
}

func TestCircuitByName(t *testing.T) {
	tests := []struct {
		name   string
		wantID int
		found  bool
	}{
		{name: "Circuit de Monaco", wantID: 5, found: true},
		{name: "2023 Monaco Grand Prix", wantID: 5, found: true},
		{name: "Saudi Arabian Grand Prix", wantID: 2, found: true},
		{name: "australian grand prix", wantID: 3, found: true},
		{name: "Miami Grand Prix", wantID: 4, found: true},
		{name: "Bahrain Grand Prix", wantID: 1, found: true},
		{name: "Silverstone", wantID: DefaultCircuitID, found: false},
		{name: "", wantID: DefaultCircuitID, found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, found := CircuitByName(tt.name)
			assert.Equal(t, tt.wantID, c.ID)
			assert.Equal(t, tt.found, found)
		})
	}
}

func TestCircuitPathIsFresh(t *testing.T) {
	c := CircuitByID(1)
	a := c.Path()
	a.LineTo(1000, 1000)
	assert.NotEqual(t, len(a.Flatten(DefaultFlatness)), len(c.Path().Flatten(DefaultFlatness)))
}
