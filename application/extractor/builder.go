// Package extractor turns a raw in-page DOM walk into a VisualNode tree:
// it applies the visibility gate, numbers nodes in pre-order and scores
// their visual importance.
package extractor

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"vips_analyzer/domain/entities"
)

// MaxTextLength is the number of characters of text kept per node.
const MaxTextLength = 100

// ErrNoVisibleContent is returned when the document element itself fails
// the visibility gate.
var ErrNoVisibleContent = errors.New("document has no visible content")

// builder owns the docOrder counter for a single traversal.
type builder struct {
	metrics entities.PageMetrics
	order   int
}

// Build converts a raw walk into a VisualNode tree rooted at the document
// element. Numbering starts at 1.
func Build(page *entities.RawPage) (*entities.VisualNode, error) {
	if page == nil || page.Root == nil {
		return nil, ErrNoVisibleContent
	}
	b := &builder{metrics: page.Metrics}
	root := b.build(page.Root)
	if root == nil {
		return nil, ErrNoVisibleContent
	}
	return root, nil
}

func (b *builder) build(el *entities.RawElement) *entities.VisualNode {
	// Every element reached consumes one number, kept or not.
	b.order++
	order := b.order

	geom := AbsoluteGeometry(el.Rect, b.metrics)
	if !Visible(el, geom) {
		return nil
	}

	tag := strings.ToLower(el.Tag)
	node := &entities.VisualNode{
		Tag:       tag,
		ID:        el.ID,
		ClassName: el.ClassName,
		Role:      el.Role,
		Text:      TruncateText(el.Text),
		Geometry:  geom,
		DocOrder:  order,
		Children:  make([]*entities.VisualNode, 0, len(el.Children)),
	}

	for _, child := range el.Children {
		if c := b.build(child); c != nil {
			node.Children = append(node.Children, c)
		}
	}

	node.Importance = Importance(tag, geom, el.Interactive, b.metrics)
	return node
}

// Visible reports whether el passes the visibility gate. A failing element
// is dropped together with its subtree.
func Visible(el *entities.RawElement, geom entities.Geometry) bool {
	if el.Hidden {
		return false
	}
	if el.Display == "none" || el.Visibility == "hidden" {
		return false
	}
	if opacity, err := strconv.ParseFloat(strings.TrimSpace(el.Opacity), 64); err == nil && opacity == 0 {
		return false
	}
	if el.Rect.Width == 0 || el.Rect.Height == 0 {
		return false
	}
	return geom.Width != 0 && geom.Height != 0
}

// AbsoluteGeometry adds the scroll offset to a viewport-relative rect and
// rounds every component half-up.
func AbsoluteGeometry(r entities.RawRect, m entities.PageMetrics) entities.Geometry {
	return entities.Geometry{
		X:      round(r.Left + m.ScrollX),
		Y:      round(r.Top + m.ScrollY),
		Width:  round(r.Width),
		Height: round(r.Height),
	}
}

// TruncateText trims s and keeps at most MaxTextLength characters.
func TruncateText(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxTextLength])
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
