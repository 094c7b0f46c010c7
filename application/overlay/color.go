package overlay

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"vips_analyzer/domain/entities"
)

const (
	goldenAngle = 137.508
	saturation  = 0.70
	lightness   = 0.50
	fillAlpha   = 0x20
)

// Hue returns the golden-angle hue for a flattened index.
func Hue(index int) float64 {
	return math.Mod(float64(index)*goldenAngle, 360)
}

// Color is the CSS border color for a flattened index.
func Color(index int) string {
	return fmt.Sprintf("hsl(%g, 70%%, 50%%)", Hue(index))
}

// Fill is the translucent CSS background for a flattened index.
func Fill(index int) string {
	return fmt.Sprintf("hsla(%g, 70%%, 50%%, %.3f)", Hue(index), float64(fillAlpha)/255)
}

// RGBA converts the index color to an opaque RGBA value.
func RGBA(index int) color.RGBA {
	return hslToRGB(Hue(index), saturation, lightness)
}

func hslToRGB(h, s, l float64) color.RGBA {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 0xff,
	}
}

// Label renders tag[#id][.firstClass].
func Label(n *entities.VisualNode) string {
	label := n.Tag
	if n.ID != "" {
		label += "#" + n.ID
	}
	if classes := strings.Fields(n.ClassName); len(classes) > 0 {
		label += "." + classes[0]
	}
	return label
}
