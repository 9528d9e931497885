package render

import (
	"fmt"
	"image/color"
	"strings"
)

var (
	black     = color.RGBA{0x00, 0x00, 0x00, 0xff}
	white     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	darkGrey  = color.RGBA{0x40, 0x40, 0x40, 0xff}
	grey      = color.RGBA{0x80, 0x80, 0x80, 0xff}
	lightGrey = color.RGBA{0xb4, 0xb4, 0xb4, 0xff}
	red       = color.RGBA{0xdc, 0x00, 0x00, 0xff}
	blue      = color.RGBA{0x00, 0x00, 0xff, 0xff}
	yellow    = color.RGBA{0xff, 0xd7, 0x00, 0xff}
)

var teamColors = map[string]color.RGBA{
	"red bull":     {6, 0, 239, 0xff},
	"mercedes":     {0, 210, 190, 0xff},
	"ferrari":      {220, 0, 0, 0xff},
	"mclaren":      {255, 135, 0, 0xff},
	"aston martin": {0, 111, 98, 0xff},
	"alpine":       {0, 144, 255, 0xff},
	"williams":     {0, 90, 255, 0xff},
	"alphatauri":   {43, 69, 98, 0xff},
	"alfa romeo":   {157, 24, 45, 0xff},
	"haas":         {255, 255, 255, 0xff},
}

// TeamColor returns the livery colour of a team, grey when unknown.
func TeamColor(team string) color.RGBA {
	if c, ok := teamColors[strings.ToLower(strings.TrimSpace(team))]; ok {
		return c
	}
	return grey
}

// textOn picks black or white text for legibility on bg.
func textOn(bg color.RGBA) color.RGBA {
	// ITU-R BT.601 luma
	luma := 299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)
	if luma > 128*1000 {
		return black
	}
	return white
}

// Hex formats a colour as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
