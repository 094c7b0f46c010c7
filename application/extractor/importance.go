package extractor

import (
	"math"

	"vips_analyzer/domain/entities"
)

const (
	baseImportance      = 1.0
	headingStep         = 0.5
	landmarkBonus       = 2.0
	areaWeight          = 10.0
	maxAreaBonus        = 5.0
	interactiveWeight   = 0.2
	minVisibilityFactor = 0.5
	minImportance       = 0.0
	maxImportance       = 10.0
)

var landmarkTags = map[string]bool{
	"header":  true,
	"nav":     true,
	"main":    true,
	"article": true,
	"footer":  true,
	"aside":   true,
	"section": true,
}

// headingLevel returns 1..6 for h1..h6 and 0 for anything else.
func headingLevel(tag string) int {
	if len(tag) != 2 || (tag[0] != 'h' && tag[0] != 'H') {
		return 0
	}
	if tag[1] < '1' || tag[1] > '6' {
		return 0
	}
	return int(tag[1] - '0')
}

// HeadingBonus is (7 - level) * 0.5 for h1..h6: 3.0 for h1 down to 0.5 for h6.
func HeadingBonus(tag string) float64 {
	level := headingLevel(tag)
	if level == 0 {
		return 0
	}
	return float64(7-level) * headingStep
}

// LandmarkBonus rewards sectioning elements.
func LandmarkBonus(tag string) float64 {
	if landmarkTags[tag] {
		return landmarkBonus
	}
	return 0
}

// AreaBonus is the element's share of the scrollable page, times ten,
// capped at five.
func AreaBonus(g entities.Geometry, m entities.PageMetrics) float64 {
	pageArea := m.PageWidth * m.PageHeight
	if pageArea <= 0 {
		return 0
	}
	return math.Min(float64(g.Area())/pageArea*areaWeight, maxAreaBonus)
}

// InteractiveBonus is 0.2 per interactive descendant.
func InteractiveBonus(count int) float64 {
	return float64(count) * interactiveWeight
}

// VisibleArea is the part of g inside the viewport, never more than g's area.
func VisibleArea(g entities.Geometry, m entities.PageMetrics) float64 {
	x, y := float64(g.X), float64(g.Y)
	w, h := float64(g.Width), float64(g.Height)

	visibleW := math.Max(0, math.Min(x+w, m.ViewportWidth)-math.Max(x, 0))
	visibleH := math.Max(0, math.Min(y+h, m.ViewportHeight)-math.Max(y, 0))
	return math.Min(visibleW*visibleH, w*h)
}

// VisibilityFactor maps the on-screen fraction [0,1] to [0.5,1].
func VisibilityFactor(g entities.Geometry, m entities.PageMetrics) float64 {
	area := float64(g.Area())
	if area <= 0 {
		return minVisibilityFactor
	}
	return VisibleArea(g, m)/area*(1-minVisibilityFactor) + minVisibilityFactor
}

// Importance scores an element in [0, 10].
func Importance(tag string, g entities.Geometry, interactive int, m entities.PageMetrics) float64 {
	score := baseImportance +
		HeadingBonus(tag) +
		LandmarkBonus(tag) +
		AreaBonus(g, m) +
		InteractiveBonus(interactive)

	score *= VisibilityFactor(g, m)
	return clamp(score, minImportance, maxImportance)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
