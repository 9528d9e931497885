package render

import (
	"image/color"

	"f1dashboard/pkg/geom"
)

type Kind int

const (
	KindPolyline Kind = iota
	KindCircle
	KindRect
	KindText
)

type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
)

// Layers group primitives by what they show. Backends draw primitives in
// slice order; the layer only labels them.
const (
	LayerOutline = "outline"
	LayerSurface = "surface"
	LayerCentre  = "centre"
	LayerStart   = "start"
	LayerSector  = "sector"
	LayerPit     = "pit"
	LayerDriver  = "driver"
	LayerLabel   = "label"
	LayerTitle   = "title"
	LayerLegend  = "legend"
	LayerAxis    = "axis"
	LayerSeries  = "series"
)

// Primitive is one drawing instruction in viewport coordinates. A zero
// alpha Stroke or Fill means that part is not painted.
type Primitive struct {
	Kind  Kind
	Layer string

	// KindPolyline
	Points []geom.Point
	Closed bool

	// KindCircle
	Center geom.Point
	Radius float64

	// KindRect
	Rect geom.Rect

	// KindText, anchored at Center on the baseline
	Text     string
	FontSize float64
	Anchor   Anchor

	Stroke color.RGBA
	Fill   color.RGBA
	Width  float64
	Dash   []float64
}

func polyline(layer string, pts []geom.Point, closed bool, stroke color.RGBA, width float64, dash []float64) Primitive {
	return Primitive{Kind: KindPolyline, Layer: layer, Points: pts, Closed: closed, Stroke: stroke, Width: width, Dash: dash}
}

func line(layer string, a, b geom.Point, stroke color.RGBA, width float64) Primitive {
	return polyline(layer, []geom.Point{a, b}, false, stroke, width, nil)
}

func circle(layer string, c geom.Point, r float64, fill, stroke color.RGBA, width float64) Primitive {
	return Primitive{Kind: KindCircle, Layer: layer, Center: c, Radius: r, Fill: fill, Stroke: stroke, Width: width}
}

func rect(layer string, r geom.Rect, fill, stroke color.RGBA, width float64) Primitive {
	return Primitive{Kind: KindRect, Layer: layer, Rect: r, Fill: fill, Stroke: stroke, Width: width}
}

func text(layer, s string, at geom.Point, size float64, anchor Anchor, fill color.RGBA) Primitive {
	return Primitive{Kind: KindText, Layer: layer, Text: s, Center: at, FontSize: size, Anchor: anchor, Fill: fill}
}

// Filter returns the primitives of one layer.
func Filter(prims []Primitive, layer string) []Primitive {
	var out []Primitive
	for _, p := range prims {
		if p.Layer == layer {
			out = append(out, p)
		}
	}
	return out
}
