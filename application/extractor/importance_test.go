package extractor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"vips_analyzer/domain/entities"
)

var desktop = entities.PageMetrics{
	ViewportWidth:  1920,
	ViewportHeight: 1080,
	PageWidth:      1000,
	PageHeight:     1000,
}

func TestHeadingBonus(t *testing.T) {
	cases := map[string]float64{
		"h1": 3.0, "h2": 2.5, "h3": 2.0, "h4": 1.5, "h5": 1.0, "h6": 0.5,
		"h7": 0, "h": 0, "hr": 0, "div": 0, "header": 0,
	}
	for tag, want := range cases {
		assert.InDelta(t, want, HeadingBonus(tag), 1e-9, tag)
	}
}

func TestLandmarkBonus(t *testing.T) {
	for _, tag := range []string{"header", "nav", "main", "article", "footer", "aside", "section"} {
		assert.Equal(t, 2.0, LandmarkBonus(tag), tag)
	}
	assert.Zero(t, LandmarkBonus("div"))
}

func TestImportance_HeadingScenario(t *testing.T) {
	g := entities.Geometry{X: 0, Y: 0, Width: 200, Height: 50}

	got := Importance("h1", g, 0, desktop)

	assert.InDelta(t, 4.1, got, 1e-9)
}

func TestImportance_H1OutranksH6(t *testing.T) {
	g := entities.Geometry{X: 10, Y: 10, Width: 300, Height: 40}

	h1 := Importance("h1", g, 0, desktop)
	h6 := Importance("h6", g, 0, desktop)

	assert.Greater(t, h1, h6)
	assert.InDelta(t, 2.5, h1-h6, 1e-9)
}

func TestImportance_OffscreenIsHalved(t *testing.T) {
	onscreen := entities.Geometry{X: 0, Y: 0, Width: 200, Height: 100}
	offscreen := entities.Geometry{X: 0, Y: 5000, Width: 200, Height: 100}
	m := desktop
	m.PageHeight = 6000

	assert.InDelta(t, 0.5, VisibilityFactor(offscreen, m), 1e-9)
	assert.InDelta(t, 1.0, VisibilityFactor(onscreen, m), 1e-9)
	assert.InDelta(t,
		Importance("section", onscreen, 3, m)/2,
		Importance("section", offscreen, 3, m),
		1e-9)
}

func TestImportance_PartiallyVisible(t *testing.T) {
	// Half of the element hangs below the viewport.
	g := entities.Geometry{X: 0, Y: 980, Width: 100, Height: 200}
	m := desktop

	assert.InDelta(t, 100*100, VisibleArea(g, m), 1e-9)
	assert.InDelta(t, 0.75, VisibilityFactor(g, m), 1e-9)
}

func TestImportance_AreaBonusCapped(t *testing.T) {
	g := entities.Geometry{Width: 1000, Height: 1000}

	assert.InDelta(t, 5.0, AreaBonus(g, desktop), 1e-9)
	assert.Zero(t, AreaBonus(g, entities.PageMetrics{}))
}

func TestImportance_AlwaysClamped(t *testing.T) {
	geometries := []entities.Geometry{
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: -500, Y: -500, Width: 100000, Height: 100000},
		{X: 1e6, Y: 1e6, Width: 3, Height: 7},
		{X: 0, Y: 0, Width: 0, Height: 0},
	}
	tags := []string{"h1", "main", "div", "a"}
	for _, g := range geometries {
		for _, tag := range tags {
			for _, interactive := range []int{0, 1, 50, 10000} {
				got := Importance(tag, g, interactive, desktop)
				assert.False(t, math.IsNaN(got))
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 10.0)
			}
		}
	}
}
