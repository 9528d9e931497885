package render

import (
	"math"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"f1dashboard/pkg/geom"
	"f1dashboard/pkg/track"
)

const (
	DefaultPadding = 30

	titleBand         = 50
	legendColumns     = 3
	legendColumnWidth = 120
	legendRowHeight   = 20
	legendSwatch      = 12

	markerRadius   = 10
	startHalfWidth = 14
	pitOffset      = 30
	pitHalfLength  = 100
)

// SectorFractions are the lap fractions where sector markers are drawn.
var SectorFractions = []float64{0.33, 0.66}

// Driver is a car to place on the map.
type Driver struct {
	Number   int     `json:"number"`
	Code     string  `json:"code"`
	Team     string  `json:"team"`
	Fraction float64 `json:"fraction"`
}

// State is everything needed to draw a track map.
type State struct {
	Mapper  *track.Mapper
	Width   float64
	Height  float64
	Padding float64
	Title   string
	Drivers []Driver
}

// Viewport returns the transform Model applies to the outline: the track
// is fitted below the title and above the team legend.
func Viewport(s State) geom.Affine {
	if s.Mapper == nil {
		return geom.Identity()
	}
	band := legendBand(len(legendTeams(s.Drivers)))
	fit := s.Mapper.TransformToViewport(s.Width, s.Height-titleBand-band, s.Padding)
	if fit.IsIdentity() {
		return fit
	}
	scale, _ := fit.Scale()
	tx, ty := fit.Translation()
	return geom.UniformScale(scale, tx, ty+titleBand)
}

// Model turns a track map state into drawing primitives. It has no side
// effects; the same state always produces the same primitives.
func Model(s State) []Primitive {
	if s.Mapper == nil || s.Width <= 0 || s.Height <= 0 {
		return nil
	}
	a := Viewport(s)
	at := func(f float64) geom.Point {
		return a.Apply(s.Mapper.PointAtFraction(f))
	}

	outline := a.ApplyAll(s.Mapper.Polyline())
	prims := []Primitive{
		polyline(LayerOutline, outline, true, darkGrey, 20, nil),
		polyline(LayerSurface, outline, true, white, 18, nil),
		polyline(LayerCentre, outline, true, black, 1, []float64{10, 10}),
	}

	start := at(0)
	n := normal(start, at(0.002))
	prims = append(prims, line(LayerStart,
		geom.Pt(start.X-n.X*startHalfWidth, start.Y-n.Y*startHalfWidth),
		geom.Pt(start.X+n.X*startHalfWidth, start.Y+n.Y*startHalfWidth),
		red, 4))

	for _, f := range SectorFractions {
		prims = append(prims, circle(LayerSector, at(f), 5, yellow, black, 1))
	}

	prims = append(prims, line(LayerPit,
		geom.Pt(start.X-pitHalfLength, start.Y-pitOffset),
		geom.Pt(start.X+pitHalfLength, start.Y-pitOffset),
		lightGrey, 6))

	for _, d := range s.Drivers {
		p := at(d.Fraction)
		c := TeamColor(d.Team)
		prims = append(prims,
			circle(LayerDriver, p, markerRadius, c, black, 1),
			text(LayerLabel, strconv.Itoa(d.Number), geom.Pt(p.X, p.Y+4), 10, AnchorMiddle, textOn(c)),
			text(LayerLabel, d.Code, geom.Pt(p.X+markerRadius+4, p.Y+4), 11, AnchorStart, black),
		)
	}

	if s.Title != "" {
		prims = append(prims, text(LayerTitle, s.Title, geom.Pt(s.Width/2, 30), 18, AnchorMiddle, black))
	}
	return append(prims, legend(s)...)
}

// normal is the unit vector perpendicular to the direction a->b.
func normal(a, b geom.Point) geom.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return geom.Pt(0, 1)
	}
	return geom.Pt(-dy/l, dx/l)
}

func legendTeams(drivers []Driver) []string {
	teams := lo.Uniq(lo.FilterMap(drivers, func(d Driver, _ int) (string, bool) {
		return d.Team, d.Team != ""
	}))
	sort.Strings(teams)
	return teams
}

func legendBand(teams int) float64 {
	if teams == 0 {
		return 0
	}
	rows := (teams + legendColumns - 1) / legendColumns
	return float64(rows)*legendRowHeight + 10
}

func legend(s State) []Primitive {
	teams := legendTeams(s.Drivers)
	top := s.Height - legendBand(len(teams))
	var prims []Primitive
	for i, team := range teams {
		x := s.Padding + float64(i%legendColumns)*legendColumnWidth
		y := top + float64(i/legendColumns)*legendRowHeight
		prims = append(prims,
			rect(LayerLegend, geom.Rect{Min: geom.Pt(x, y), Max: geom.Pt(x+legendSwatch, y+legendSwatch)}, TeamColor(team), black, 1),
			text(LayerLegend, team, geom.Pt(x+legendSwatch+6, y+legendSwatch-1), 11, AnchorStart, black),
		)
	}
	return prims
}
