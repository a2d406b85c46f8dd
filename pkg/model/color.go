package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/chazu/gany/pkg/errors"
)

// Color is a CSS color string as understood by the renderer: either a
// hex triplet or one of the CSS named colors.
type Color string

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"gray":    "#808080",
	"grey":    "#808080",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"brown":   "#a52a2a",
	"pink":    "#ffc0cb",
	"navy":    "#000080",
	"teal":    "#008080",
	"olive":   "#808000",
	"maroon":  "#800000",
	"silver":  "#c0c0c0",
	"lime":    "#00ff00",
	"aqua":    "#00ffff",
	"fuchsia": "#ff00ff",
	"skyblue": "#87ceeb",
	"gold":    "#ffd700",
}

// ParseColor validates s. Named colors are kept as given (lower-cased);
// hex colors are normalized to the #rrggbb form.
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if _, ok := namedColors[v]; ok {
		return Color(v), nil
	}
	c, err := colorful.Hex(expandShortHex(v))
	if err != nil {
		return "", errors.InvalidInput("model.color", s, "not a valid color")
	}
	return Color(c.Hex()), nil
}

// MustColor is ParseColor for constants; it panics on invalid input.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// RGB returns the color components in [0, 1].
func (c Color) RGB() (r, g, b float64) {
	hex := string(c)
	if named, ok := namedColors[hex]; ok {
		hex = named
	}
	col, err := colorful.Hex(expandShortHex(hex))
	if err != nil {
		return 0, 0, 0
	}
	return col.R, col.G, col.B
}

func expandShortHex(s string) string {
	if len(s) == 4 && s[0] == '#' {
		return fmt.Sprintf("#%c%c%c%c%c%c", s[1], s[1], s[2], s[2], s[3], s[3])
	}
	return s
}

// Colormap names a color scale available in the renderer.
type Colormap string

const (
	BrBG             Colormap = "BrBG"
	PRGn             Colormap = "PRGn"
	PiYG             Colormap = "PiYG"
	PuOr             Colormap = "PuOr"
	RdBu             Colormap = "RdBu"
	RdGy             Colormap = "RdGy"
	RdYlBu           Colormap = "RdYlBu"
	RdYlGn           Colormap = "RdYlGn"
	Spectral         Colormap = "Spectral"
	Blues            Colormap = "Blues"
	Greens           Colormap = "Greens"
	Greys            Colormap = "Greys"
	Oranges          Colormap = "Oranges"
	Purples          Colormap = "Purples"
	Reds             Colormap = "Reds"
	BuGn             Colormap = "BuGn"
	BuPu             Colormap = "BuPu"
	GnBu             Colormap = "GnBu"
	OrRd             Colormap = "OrRd"
	PuBuGn           Colormap = "PuBuGn"
	PuBu             Colormap = "PuBu"
	PuRd             Colormap = "PuRd"
	RdPu             Colormap = "RdPu"
	YlGnBu           Colormap = "YlGnBu"
	YlGn             Colormap = "YlGn"
	YlOrBr           Colormap = "YlOrBr"
	YlOrRd           Colormap = "YlOrRd"
	Cividis          Colormap = "Cividis"
	Viridis          Colormap = "Viridis"
	Inferno          Colormap = "Inferno"
	Magma            Colormap = "Magma"
	Plasma           Colormap = "Plasma"
	Warm             Colormap = "Warm"
	Cool             Colormap = "Cool"
	CubehelixDefault Colormap = "CubehelixDefault"
	Turbo            Colormap = "Turbo"
	Rainbow          Colormap = "Rainbow"
	Sinebow          Colormap = "Sinebow"
)

var colormaps = map[Colormap]bool{
	BrBG: true, PRGn: true, PiYG: true, PuOr: true, RdBu: true, RdGy: true,
	RdYlBu: true, RdYlGn: true, Spectral: true, Blues: true, Greens: true,
	Greys: true, Oranges: true, Purples: true, Reds: true, BuGn: true,
	BuPu: true, GnBu: true, OrRd: true, PuBuGn: true, PuBu: true, PuRd: true,
	RdPu: true, YlGnBu: true, YlGn: true, YlOrBr: true, YlOrRd: true,
	Cividis: true, Viridis: true, Inferno: true, Magma: true, Plasma: true,
	Warm: true, Cool: true, CubehelixDefault: true, Turbo: true,
	Rainbow: true, Sinebow: true,
}

// ParseColormap returns the colormap named s.
func ParseColormap(s string) (Colormap, error) {
	if colormaps[Colormap(s)] {
		return Colormap(s), nil
	}
	return "", errors.InvalidInput("model.colormap", s, "unknown colormap")
}

// Colormaps lists every known colormap, sorted.
func Colormaps() []Colormap {
	out := make([]Colormap, 0, len(colormaps))
	for c := range colormaps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ScaleType selects how IsoColor maps values to the colormap.
type ScaleType string

const (
	Linear ScaleType = "linear"
	Log    ScaleType = "log"
)

// ParseScaleType returns the scale type named s.
func ParseScaleType(s string) (ScaleType, error) {
	switch ScaleType(s) {
	case Linear, Log:
		return ScaleType(s), nil
	}
	return "", errors.InvalidInput("model.scale_type", s, "scale type must be linear or log")
}
