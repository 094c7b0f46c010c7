package entities

// RawRect is a viewport-relative bounding rectangle as reported by the page.
type RawRect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// RawElement is one element as reported by the in-page walk, before
// visibility gating, numbering and scoring.
type RawElement struct {
	Tag         string
	ID          string
	ClassName   string
	Role        string
	Text        string
	Rect        RawRect
	Display     string
	Visibility  string
	Opacity     string
	Interactive int  // descendants matching a, button, input, select, textarea
	Hidden      bool // the walk did not descend into this element
	Children    []*RawElement
}

// PageMetrics holds the page-wide values the scorer needs.
type PageMetrics struct {
	ScrollX        float64
	ScrollY        float64
	ViewportWidth  float64
	ViewportHeight float64
	PageWidth      float64
	PageHeight     float64
}

// RawPage is the complete result of one in-page walk.
type RawPage struct {
	Metrics PageMetrics
	Root    *RawElement
}
