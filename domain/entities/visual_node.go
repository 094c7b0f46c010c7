package entities

import "encoding/json"

// Geometry is an absolute, document-relative rectangle in CSS pixels.
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns width * height.
func (g Geometry) Area() int {
	return g.Width * g.Height
}

// VisualNode is one rendered element captured at analysis time.
// Each node owns its children; the tree is rooted at the document element.
type VisualNode struct {
	Tag        string
	ID         string
	ClassName  string
	Role       string
	Text       string
	Geometry   Geometry
	DocOrder   int
	Importance float64
	Children   []*VisualNode
}

// nodeProperties mirrors the "properties" object of the wire format.
type nodeProperties struct {
	X                int     `json:"x"`
	Y                int     `json:"y"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	DocOrder         int     `json:"docOrder"`
	VisualImportance float64 `json:"visualImportance"`
}

type nodeWire struct {
	Tag        string         `json:"tag"`
	ID         string         `json:"id"`
	ClassName  string         `json:"className"`
	Role       string         `json:"role"`
	InnerText  string         `json:"innerText"`
	Properties nodeProperties `json:"properties"`
	Children   []*VisualNode  `json:"children"`
}

// MarshalJSON encodes the node in the vipsModel wire format.
func (n *VisualNode) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []*VisualNode{}
	}
	return json.Marshal(nodeWire{
		Tag:       n.Tag,
		ID:        n.ID,
		ClassName: n.ClassName,
		Role:      n.Role,
		InnerText: n.Text,
		Properties: nodeProperties{
			X:                n.Geometry.X,
			Y:                n.Geometry.Y,
			Width:            n.Geometry.Width,
			Height:           n.Geometry.Height,
			DocOrder:         n.DocOrder,
			VisualImportance: n.Importance,
		},
		Children: children,
	})
}

// UnmarshalJSON decodes the vipsModel wire format.
func (n *VisualNode) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = VisualNode{
		Tag:       w.Tag,
		ID:        w.ID,
		ClassName: w.ClassName,
		Role:      w.Role,
		Text:      w.InnerText,
		Geometry: Geometry{
			X:      w.Properties.X,
			Y:      w.Properties.Y,
			Width:  w.Properties.Width,
			Height: w.Properties.Height,
		},
		DocOrder:   w.Properties.DocOrder,
		Importance: w.Properties.VisualImportance,
		Children:   w.Children,
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *VisualNode) Walk(fn func(*VisualNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *VisualNode) Count() int {
	total := 0
	n.Walk(func(*VisualNode) bool {
		total++
		return true
	})
	return total
}
