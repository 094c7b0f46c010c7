// Package overlay maps an extracted VisualNode tree onto a scaled
// screenshot: it flattens the tree, tracks the display scale and hover
// state, and produces positioned annotation boxes.
package overlay

import (
	"errors"

	"vips_analyzer/domain/entities"
)

// Box is one annotation rectangle in display pixels.
type Box struct {
	Index  int
	Left   float64
	Top    float64
	Width  float64
	Height float64
	Color  string
	Fill   string
	Label  string
	Node   *entities.VisualNode

	// PointerEvents is always "none" so boxes never steal hover or clicks
	// from the image beneath them.
	PointerEvents string
}

// Flatten lists root and all descendants in pre-order. The returned index
// is the box key and color seed; it is unrelated to DocOrder.
func Flatten(root *entities.VisualNode) []*entities.VisualNode {
	var nodes []*entities.VisualNode
	root.Walk(func(n *entities.VisualNode) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// PlaceBox scales a document rectangle into display coordinates.
func PlaceBox(g entities.Geometry, scale float64) (left, top, width, height float64) {
	return float64(g.X) * scale, float64(g.Y) * scale, float64(g.Width) * scale, float64(g.Height) * scale
}

// Options tune a Display.
type Options struct {
	// RecomputeOnResize recomputes the scale on every resize instead of
	// keeping the one measured at first image layout.
	RecomputeOnResize bool
}

// Display holds the overlay state for one screen. It is not safe for
// concurrent use.
type Display struct {
	opts Options

	result *entities.AnalysisResult
	nodes  []*entities.VisualNode

	naturalWidth  int
	naturalHeight int
	scale         float64
	scaleFrozen   bool

	showAll bool
	hovered int
	hasHov  bool
}

// NewDisplay returns an empty display with "show all" enabled.
func NewDisplay(opts Options) *Display {
	return &Display{opts: opts, showAll: true, scale: 1}
}

// SetResult installs a new analysis and resets scale and hover.
func (d *Display) SetResult(result *entities.AnalysisResult) {
	d.result = result
	d.nodes = nil
	if result != nil {
		d.nodes = Flatten(result.Root)
	}
	d.naturalWidth, d.naturalHeight = 0, 0
	d.scale = 1
	d.scaleFrozen = false
	d.hasHov = false
}

// ImageLoaded records the screenshot's natural size and, on the first
// layout after SetResult, fixes the scale to renderedWidth / naturalWidth.
func (d *Display) ImageLoaded(renderedWidth float64, naturalWidth, naturalHeight int) {
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return
	}
	d.naturalWidth, d.naturalHeight = naturalWidth, naturalHeight
	if d.scaleFrozen {
		return
	}
	d.scale = renderedWidth / float64(naturalWidth)
	d.scaleFrozen = true
}

// Resized is called when the container changes size. The scale stays
// frozen unless RecomputeOnResize is set.
func (d *Display) Resized(renderedWidth float64) {
	if !d.opts.RecomputeOnResize || d.naturalWidth == 0 {
		return
	}
	d.scale = renderedWidth / float64(d.naturalWidth)
}

// Layout lays result out as if its screenshot were first rendered
// widths[0] pixels wide and then resized to each following width.
func Layout(result *entities.AnalysisResult, opts Options, widths ...int) (*Display, error) {
	if len(widths) == 0 {
		return nil, errors.New("no display width")
	}
	naturalWidth, naturalHeight, err := ImageSize(result.Screenshot)
	if err != nil {
		return nil, err
	}
	d := NewDisplay(opts)
	d.SetResult(result)
	d.ImageLoaded(float64(widths[0]), naturalWidth, naturalHeight)
	for _, w := range widths[1:] {
		d.Resized(float64(w))
	}
	return d, nil
}

// Scale returns the current display scale.
func (d *Display) Scale() float64 {
	return d.scale
}

// Ready reports whether boxes can be drawn.
func (d *Display) Ready() bool {
	return d.result != nil && d.result.Root != nil && d.naturalWidth > 0 && d.naturalHeight > 0
}

// SetShowAll toggles between every box and only the hovered one.
func (d *Display) SetShowAll(showAll bool) {
	d.showAll = showAll
}

// Hover marks a flattened index as hovered.
func (d *Display) Hover(index int) {
	d.hovered = index
	d.hasHov = true
}

// Unhover clears the hovered index.
func (d *Display) Unhover() {
	d.hasHov = false
}

// Hovered returns the hovered index, if any.
func (d *Display) Hovered() (int, bool) {
	return d.hovered, d.hasHov
}

// Nodes returns the flattened node list.
func (d *Display) Nodes() []*entities.VisualNode {
	return d.nodes
}

// Boxes returns the boxes to draw in the current mode.
func (d *Display) Boxes() []Box {
	if !d.Ready() {
		return nil
	}
	var boxes []Box
	for i, n := range d.nodes {
		if !d.showAll && !(d.hasHov && d.hovered == i) {
			continue
		}
		boxes = append(boxes, d.box(i, n))
	}
	return boxes
}

func (d *Display) box(index int, n *entities.VisualNode) Box {
	left, top, width, height := PlaceBox(n.Geometry, d.scale)
	return Box{
		Index:         index,
		Left:          left,
		Top:           top,
		Width:         width,
		Height:        height,
		Color:         Color(index),
		Fill:          Fill(index),
		Label:         Label(n),
		Node:          n,
		PointerEvents: "none",
	}
}
