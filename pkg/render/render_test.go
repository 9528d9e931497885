package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1dashboard/pkg/geom"
	"f1dashboard/pkg/track"
)

func mapper(t *testing.T, id int) *track.Mapper {
	t.Helper()
	m, err := track.NewMapper(track.CircuitByID(id).Path())
	require.NoError(t, err)
	return m
}

func sampleState(t *testing.T) State {
	return State{
		Mapper:  mapper(t, 1),
		Width:   800,
		Height:  600,
		Padding: DefaultPadding,
		Title:   "Bahrain International Circuit",
		Drivers: []Driver{
			{Number: 44, Code: "HAM", Team: "Mercedes", Fraction: 0.1},
			{Number: 1, Code: "VER", Team: "Red Bull", Fraction: 0.25},
			{Number: 16, Code: "LEC", Team: "Ferrari", Fraction: 0.5},
			{Number: 63, Code: "RUS", Team: "Mercedes", Fraction: 0.75},
		},
	}
}

func TestModelLayers(t *testing.T) {
	prims := Model(sampleState(t))

	assert.Len(t, Filter(prims, LayerOutline), 1)
	assert.Len(t, Filter(prims, LayerSurface), 1)
	assert.Len(t, Filter(prims, LayerCentre), 1)
	assert.Len(t, Filter(prims, LayerStart), 1)
	assert.Len(t, Filter(prims, LayerSector), len(SectorFractions))
	assert.Len(t, Filter(prims, LayerPit), 1)
	assert.Len(t, Filter(prims, LayerDriver), 4)
	assert.Len(t, Filter(prims, LayerLabel), 8)
	assert.Len(t, Filter(prims, LayerTitle), 1)
	// three teams: a swatch and a name each
	assert.Len(t, Filter(prims, LayerLegend), 6)

	centre := Filter(prims, LayerCentre)[0]
	assert.Equal(t, []float64{10, 10}, centre.Dash)
	assert.True(t, centre.Closed)
	assert.Equal(t, 20.0, Filter(prims, LayerOutline)[0].Width)
	assert.Equal(t, 18.0, Filter(prims, LayerSurface)[0].Width)
}

func TestModelIsPure(t *testing.T) {
	s := sampleState(t)
	if diff := cmp.Diff(Model(s), Model(s)); diff != "" {
		t.Errorf("Model() not deterministic (-first +second):\n%s", diff)
	}
}

func TestModelDriversFollowMapper(t *testing.T) {
	s := sampleState(t)
	a := Viewport(s)
	drivers := Filter(Model(s), LayerDriver)
	require.Len(t, drivers, len(s.Drivers))
	for i, d := range s.Drivers {
		want := a.Apply(s.Mapper.PointAtFraction(d.Fraction))
		assert.InDelta(t, want.X, drivers[i].Center.X, 1e-9)
		assert.InDelta(t, want.Y, drivers[i].Center.Y, 1e-9)
		assert.Equal(t, TeamColor(d.Team), drivers[i].Fill)
	}
}

func TestModelFitsBetweenTitleAndLegend(t *testing.T) {
	s := sampleState(t)
	outline := Filter(Model(s), LayerOutline)[0]
	b := geom.Bounds(outline.Points)
	legendTop := s.Height - legendBand(3)

	assert.GreaterOrEqual(t, b.Min.X, s.Padding-1e-6)
	assert.LessOrEqual(t, b.Max.X, s.Width-s.Padding+1e-6)
	assert.GreaterOrEqual(t, b.Min.Y, titleBand+s.Padding-1e-6)
	assert.LessOrEqual(t, b.Max.Y, legendTop-s.Padding+1e-6)

	scaleX, scaleY := Viewport(s).Scale()
	assert.Equal(t, scaleX, scaleY)
}

func TestModelStartLineAtStart(t *testing.T) {
	s := sampleState(t)
	start := Viewport(s).Apply(s.Mapper.PointAtFraction(0))
	l := Filter(Model(s), LayerStart)[0]
	require.Len(t, l.Points, 2)
	mid := geom.Lerp(l.Points[0], l.Points[1], 0.5)
	assert.InDelta(t, start.X, mid.X, 1e-9)
	assert.InDelta(t, start.Y, mid.Y, 1e-9)

	pit := Filter(Model(s), LayerPit)[0]
	assert.InDelta(t, start.Y-pitOffset, pit.Points[0].Y, 1e-9)
	assert.InDelta(t, 2*pitHalfLength, pit.Points[1].X-pit.Points[0].X, 1e-9)
}

func TestModelLegendWraps(t *testing.T) {
	s := sampleState(t)
	s.Drivers = nil
	for i, team := range []string{"Mercedes", "Red Bull", "Ferrari", "McLaren", "Alpine"} {
		s.Drivers = append(s.Drivers, Driver{Number: i + 1, Code: "D", Team: team})
	}
	swatches := ofKind(Filter(Model(s), LayerLegend), KindRect)
	require.Len(t, swatches, 5)
	// sorted: Alpine Ferrari McLaren | Mercedes Red Bull
	assert.Equal(t, TeamColor("Alpine"), swatches[0].Fill)
	assert.Equal(t, swatches[0].Rect.Min.X, swatches[3].Rect.Min.X)
	assert.InDelta(t, legendRowHeight, swatches[3].Rect.Min.Y-swatches[0].Rect.Min.Y, 1e-9)
	assert.InDelta(t, legendColumnWidth, swatches[1].Rect.Min.X-swatches[0].Rect.Min.X, 1e-9)
}

func ofKind(prims []Primitive, k Kind) []Primitive {
	var out []Primitive
	for _, p := range prims {
		if p.Kind == k {
			out = append(out, p)
		}
	}
	return out
}

func TestModelEmpty(t *testing.T) {
	assert.Nil(t, Model(State{}))
	assert.Nil(t, Model(State{Mapper: mapper(t, 0)}))

	s := State{Mapper: mapper(t, 0), Width: 400, Height: 300}
	prims := Model(s)
	assert.Empty(t, Filter(prims, LayerTitle))
	assert.Empty(t, Filter(prims, LayerLegend))
	assert.NotEmpty(t, Filter(prims, LayerOutline))
}

func TestTeamColor(t *testing.T) {
	assert.Equal(t, TeamColor("Ferrari"), TeamColor(" ferrari "))
	assert.Equal(t, grey, TeamColor("Other"))
	assert.Equal(t, black, textOn(TeamColor("Haas")))
	assert.Equal(t, white, textOn(TeamColor("Red Bull")))
	assert.Equal(t, "#dc0000", Hex(TeamColor("Ferrari")))
}

func TestChartModel(t *testing.T) {
	s := ChartState{
		Width:  800,
		Height: 400,
		Series: []Series{
			{Name: "HAM", Values: []float64{90, 91, 0, 92, 90.5}},
			{Name: "VER", Values: []float64{89.5, 90, 90.2}},
		},
	}
	prims := ChartModel(s)

	series := Filter(prims, LayerSeries)
	lines := ofKind(series, KindPolyline)
	// HAM breaks at the unknown third lap, VER is one run
	require.Len(t, lines, 3)
	assert.Len(t, lines[0].Points, 2)
	assert.Len(t, lines[1].Points, 2)
	assert.Len(t, lines[2].Points, 3)
	assert.Equal(t, red, lines[0].Stroke)
	assert.Equal(t, blue, lines[2].Stroke)
	assert.Len(t, ofKind(series, KindCircle), 7)

	// all points inside the plot area
	for _, l := range lines {
		for _, p := range l.Points {
			assert.GreaterOrEqual(t, p.X, float64(chartPadding))
			assert.LessOrEqual(t, p.X, s.Width-chartPadding)
			assert.GreaterOrEqual(t, p.Y, float64(chartPadding))
			assert.LessOrEqual(t, p.Y, s.Height-chartPadding)
		}
	}

	// the fastest lap sits lowest on the time axis
	hamLast := lines[1].Points[1]
	fastest := lines[2].Points[0]
	assert.Greater(t, fastest.Y, hamLast.Y)

	assert.Len(t, ofKind(Filter(prims, LayerLegend), KindRect), 2)
	assert.Equal(t, "Lap Time Comparison", Filter(prims, LayerTitle)[0].Text)
}

func TestChartModelNoData(t *testing.T) {
	prims := ChartModel(ChartState{Width: 400, Height: 300, Series: []Series{{Name: "HAM", Values: []float64{0, 0}}}})
	labels := Filter(prims, LayerLabel)
	require.Len(t, labels, 1)
	assert.Equal(t, "No lap data available", labels[0].Text)
	assert.Empty(t, Filter(prims, LayerSeries))
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, 800, 600, Model(sampleState(t))))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="800" height="600"`))
	assert.Contains(t, out, "<path")
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, 320, 240, Model(State{Mapper: mapper(t, 5), Width: 320, Height: 240, Padding: 10})))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}
