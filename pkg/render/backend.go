package render

import (
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/llgcode/draw2d/draw2dsvg"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	mu       = sync.Mutex{}
	fontOnce sync.Once
	fontData = draw2d.FontData{Name: "goregular", Family: draw2d.FontFamilySans, Style: draw2d.FontStyleNormal}
)

// goFontCache serves the embedded Go font for every request so text can be
// drawn without a font folder on disk.
type goFontCache struct {
	font *truetype.Font
}

func (c *goFontCache) Load(draw2d.FontData) (*truetype.Font, error) {
	return c.font, nil
}

func (c *goFontCache) Store(draw2d.FontData, *truetype.Font) {}

func useGoFont() {
	fontOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		draw2d.SetFontCache(&goFontCache{font: f})
	})
}

// Draw executes primitives on any draw2d graphic context.
func Draw(gc draw2d.GraphicContext, prims []Primitive) {
	for _, p := range prims {
		gc.Save()
		switch p.Kind {
		case KindPolyline:
			if len(p.Points) < 2 {
				break
			}
			gc.MoveTo(p.Points[0].X, p.Points[0].Y)
			for _, pt := range p.Points[1:] {
				gc.LineTo(pt.X, pt.Y)
			}
			if p.Closed {
				gc.Close()
			}
			paint(gc, p)
		case KindCircle:
			draw2dkit.Circle(gc, p.Center.X, p.Center.Y, p.Radius)
			paint(gc, p)
		case KindRect:
			draw2dkit.Rectangle(gc, p.Rect.Min.X, p.Rect.Min.Y, p.Rect.Max.X, p.Rect.Max.Y)
			paint(gc, p)
		case KindText:
			drawText(gc, p)
		}
		gc.Restore()
	}
}

func paint(gc draw2d.GraphicContext, p Primitive) {
	fill := p.Fill.A > 0
	stroke := p.Stroke.A > 0 && p.Width > 0
	if stroke {
		gc.SetStrokeColor(p.Stroke)
		gc.SetLineWidth(p.Width)
		if len(p.Dash) > 0 {
			gc.SetLineDash(p.Dash, 0)
		}
	}
	if fill {
		gc.SetFillColor(p.Fill)
	}
	switch {
	case fill && stroke:
		gc.FillStroke()
	case fill:
		gc.Fill()
	case stroke:
		gc.Stroke()
	}
}

func drawText(gc draw2d.GraphicContext, p Primitive) {
	if p.Text == "" || p.Fill.A == 0 {
		return
	}
	gc.SetFontData(fontData)
	gc.SetFontSize(p.FontSize)
	gc.SetFillColor(p.Fill)
	x := p.Center.X
	if p.Anchor == AnchorMiddle {
		left, _, right, _ := gc.GetStringBounds(p.Text)
		x -= (right - left) / 2
	}
	gc.FillStringAt(p.Text, x, p.Center.Y)
}

// WriteSVG renders primitives as an SVG document of the given size.
func WriteSVG(w io.Writer, width, height int, prims []Primitive) error {
	mu.Lock()
	defer mu.Unlock()
	useGoFont()

	dest := draw2dsvg.NewSvg()
	gc := draw2dsvg.NewGraphicContext(dest)
	Draw(gc, prims)

	// draw2d's document carries no size, so it is nested in a sized root
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	if err != nil {
		return errors.Wrap(err, "writing svg header")
	}
	if err := xml.NewEncoder(w).Encode(dest); err != nil {
		return errors.Wrap(err, "encoding svg")
	}
	_, err = io.WriteString(w, "</svg>\n")
	return err
}

// SaveSVG writes the SVG rendering to a file.
func SaveSVG(path string, width, height int, prims []Primitive) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	return WriteSVG(f, width, height, prims)
}

// Raster renders primitives onto a white RGBA image.
func Raster(width, height int, prims []Primitive) *image.RGBA {
	mu.Lock()
	defer mu.Unlock()
	useGoFont()

	dest := image.NewRGBA(image.Rect(0, 0, width, height))
	gc := draw2dimg.NewGraphicContext(dest)
	gc.SetFillColor(white)
	draw2dkit.Rectangle(gc, 0, 0, float64(width), float64(height))
	gc.Fill()
	Draw(gc, prims)
	return dest
}

// WritePNG encodes the raster rendering as PNG.
func WritePNG(w io.Writer, width, height int, prims []Primitive) error {
	return errors.Wrap(png.Encode(w, Raster(width, height, prims)), "encoding png")
}

// SavePNG writes the raster rendering to a PNG file.
func SavePNG(path string, width, height int, prims []Primitive) error {
	return errors.Wrapf(draw2dimg.SaveToPngFile(path, Raster(width, height, prims)), "saving %s", path)
}
