package overlay

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"vips_analyzer/domain/entities"
)

func TestHue_GoldenAngle(t *testing.T) {
	assert.Equal(t, 0.0, Hue(0))
	assert.InDelta(t, 137.508, Hue(1), 1e-9)
	assert.InDelta(t, math.Mod(2*137.508, 360), Hue(2), 1e-9)
	assert.InDelta(t, math.Mod(1000*137.508, 360), Hue(1000), 1e-6)

	for i := 0; i < 500; i++ {
		h := Hue(i)
		assert.GreaterOrEqual(t, h, 0.0)
		assert.Less(t, h, 360.0)
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, "hsl(0, 70%, 50%)", Color(0))
	assert.Equal(t, "hsl(137.508, 70%, 50%)", Color(1))
	assert.Equal(t, "hsla(0, 70%, 50%, 0.125)", Fill(0))
}

func TestRGBA(t *testing.T) {
	// hsl(0, 70%, 50%) is rgb(217, 38, 38).
	assert.Equal(t, color.RGBA{R: 217, G: 38, B: 38, A: 255}, RGBA(0))
}

func TestLabel(t *testing.T) {
	cases := []struct {
		node entities.VisualNode
		want string
	}{
		{entities.VisualNode{Tag: "div"}, "div"},
		{entities.VisualNode{Tag: "div", ID: "app"}, "div#app"},
		{entities.VisualNode{Tag: "a", ClassName: "btn btn-primary"}, "a.btn"},
		{entities.VisualNode{Tag: "nav", ID: "top", ClassName: " \tmenu  dark"}, "nav#top.menu"},
		{entities.VisualNode{Tag: "span", ClassName: "   "}, "span"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Label(&tc.node))
	}
}
