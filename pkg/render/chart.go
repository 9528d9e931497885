package render

import (
	"fmt"
	"image/color"
	"math"

	"f1dashboard/pkg/geom"
	"f1dashboard/pkg/helper"
)

const (
	chartPadding = 50
	chartYTicks  = 5
	chartXEvery  = 5
	chartDot     = 4
)

// Series is one driver's lap times in seconds, index i holding lap i+1.
// Non-positive values are unknown laps and leave a gap in the line.
type Series struct {
	Name   string
	Color  color.RGBA
	Values []float64
}

// ChartState describes a lap time comparison chart.
type ChartState struct {
	Width  float64
	Height float64
	Title  string
	Series []Series
}

// DefaultSeriesColors are used for series without a colour, in order.
var DefaultSeriesColors = []color.RGBA{red, blue, {0x00, 0x99, 0x33, 0xff}, {0xff, 0x87, 0x00, 0xff}}

// ChartModel lays out a lap time chart: axes with lap time ticks, one line
// per series and a legend. Like Model it is a pure function of its input.
func ChartModel(s ChartState) []Primitive {
	if s.Width <= 0 || s.Height <= 0 {
		return nil
	}
	w, h := s.Width, s.Height
	plotW, plotH := w-2*chartPadding, h-2*chartPadding
	origin := geom.Pt(chartPadding, h-chartPadding)

	prims := []Primitive{
		line(LayerAxis, origin, geom.Pt(w-chartPadding, h-chartPadding), black, 1),
		line(LayerAxis, origin, geom.Pt(chartPadding, chartPadding), black, 1),
	}
	title := s.Title
	if title == "" {
		title = "Lap Time Comparison"
	}
	prims = append(prims, text(LayerTitle, title, geom.Pt(w/2, 25), 16, AnchorMiddle, black))

	lo, hi, laps := chartRange(s.Series)
	if laps == 0 || plotW <= 0 || plotH <= 0 {
		return append(prims, text(LayerLabel, "No lap data available", geom.Pt(w/2, h/2), 14, AnchorMiddle, black))
	}

	for i := 0; i <= chartYTicks; i++ {
		y := origin.Y - float64(i)*plotH/chartYTicks
		v := lo + float64(i)*(hi-lo)/chartYTicks
		prims = append(prims,
			line(LayerAxis, geom.Pt(chartPadding-5, y), geom.Pt(chartPadding, y), black, 1),
			text(LayerAxis, helper.SecondsToAxisLabel(v), geom.Pt(chartPadding-45, y+5), 10, AnchorStart, black),
		)
	}

	xStep := plotW / math.Max(float64(laps-1), 1)
	x := func(i int) float64 { return origin.X + float64(i)*xStep }
	for i := 0; i < laps; i++ {
		if i%chartXEvery != 0 && i != laps-1 {
			continue
		}
		prims = append(prims,
			line(LayerAxis, geom.Pt(x(i), origin.Y), geom.Pt(x(i), origin.Y+5), black, 1),
			text(LayerAxis, fmt.Sprintf("Lap %d", i+1), geom.Pt(x(i), origin.Y+18), 10, AnchorMiddle, black),
		)
	}

	y := func(v float64) float64 {
		return origin.Y - (v-lo)/(hi-lo)*plotH
	}
	for si, series := range s.Series {
		c := seriesColor(series, si)
		var run []geom.Point
		flush := func() {
			if len(run) > 1 {
				prims = append(prims, polyline(LayerSeries, run, false, c, 2, nil))
			}
			run = nil
		}
		for i, v := range series.Values {
			if v <= 0 {
				flush()
				continue
			}
			p := geom.Pt(x(i), y(v))
			run = append(run, p)
			prims = append(prims, circle(LayerSeries, p, chartDot, c, color.RGBA{}, 0))
		}
		flush()

		lx, ly := w-200, float64(chartPadding+si*25)
		prims = append(prims,
			rect(LayerLegend, geom.Rect{Min: geom.Pt(lx, ly), Max: geom.Pt(lx+15, ly+15)}, c, black, 1),
			text(LayerLegend, series.Name, geom.Pt(lx+20, ly+12), 12, AnchorStart, black),
		)
	}
	return prims
}

func seriesColor(s Series, i int) color.RGBA {
	if s.Color.A != 0 {
		return s.Color
	}
	return DefaultSeriesColors[i%len(DefaultSeriesColors)]
}

// chartRange returns the y range over all known values padded by 5%, and
// the longest series length.
func chartRange(series []Series) (float64, float64, int) {
	lo, hi := math.Inf(1), math.Inf(-1)
	laps := 0
	for _, s := range series {
		for _, v := range s.Values {
			if v <= 0 {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if len(s.Values) > laps {
			laps = len(s.Values)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0, 0
	}
	span := hi - lo
	if span == 0 {
		return lo - 1, hi + 1, laps
	}
	return lo - span*0.05, hi + span*0.05, laps
}
