package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vips_analyzer/domain/entities"
)

func sampleResult() *entities.AnalysisResult {
	return &entities.AnalysisResult{
		Root: &entities.VisualNode{
			Tag:      "html",
			Geometry: entities.Geometry{Width: 1920, Height: 3000},
			DocOrder: 1,
			Children: []*entities.VisualNode{
				{
					Tag:       "div",
					ID:        "main",
					ClassName: "  card  shadow ",
					Geometry:  entities.Geometry{X: 100, Y: 200, Width: 50, Height: 60},
					DocOrder:  2,
					Children: []*entities.VisualNode{
						{Tag: "p", Geometry: entities.Geometry{X: 110, Y: 210, Width: 10, Height: 10}, DocOrder: 4},
					},
				},
				{Tag: "footer", Geometry: entities.Geometry{X: 0, Y: 2900, Width: 1920, Height: 100}, DocOrder: 5},
			},
		},
	}
}

func TestFlatten_PreOrder(t *testing.T) {
	nodes := Flatten(sampleResult().Root)

	var tags []string
	for _, n := range nodes {
		tags = append(tags, n.Tag)
	}
	assert.Equal(t, []string{"html", "div", "p", "footer"}, tags)
	assert.Empty(t, Flatten(nil))
}

func TestPlaceBox(t *testing.T) {
	left, top, width, height := PlaceBox(entities.Geometry{X: 100, Y: 200, Width: 50, Height: 60}, 0.5)

	assert.Equal(t, 50.0, left)
	assert.Equal(t, 100.0, top)
	assert.Equal(t, 25.0, width)
	assert.Equal(t, 30.0, height)
}

func TestDisplay_NothingBeforeReady(t *testing.T) {
	d := NewDisplay(Options{})
	assert.Empty(t, d.Boxes())

	d.SetResult(sampleResult())
	assert.False(t, d.Ready())
	assert.Empty(t, d.Boxes())

	d.ImageLoaded(960, 0, 0)
	assert.Empty(t, d.Boxes())
}

func TestDisplay_ShowAllScalesEveryNode(t *testing.T) {
	d := NewDisplay(Options{})
	d.SetResult(sampleResult())
	d.ImageLoaded(960, 1920, 3000)

	boxes := d.Boxes()
	require.Len(t, boxes, 4)

	div := boxes[1]
	assert.Equal(t, 1, div.Index)
	assert.Equal(t, 50.0, div.Left)
	assert.Equal(t, 100.0, div.Top)
	assert.Equal(t, 25.0, div.Width)
	assert.Equal(t, 30.0, div.Height)
	assert.Equal(t, "div#main.card", div.Label)
	assert.Equal(t, Color(1), div.Color)
	assert.Equal(t, "none", div.PointerEvents)
}

func TestDisplay_HoverMode(t *testing.T) {
	d := NewDisplay(Options{})
	d.SetResult(sampleResult())
	d.ImageLoaded(1920, 1920, 3000)
	d.SetShowAll(false)

	assert.Empty(t, d.Boxes())

	d.Hover(3)
	boxes := d.Boxes()
	require.Len(t, boxes, 1)
	assert.Equal(t, "footer", boxes[0].Label)
	assert.Equal(t, 3, boxes[0].Index)

	d.Unhover()
	assert.Empty(t, d.Boxes())

	d.Hover(99)
	assert.Empty(t, d.Boxes())
}

func TestDisplay_ScaleFrozenAtFirstLayout(t *testing.T) {
	d := NewDisplay(Options{})
	d.SetResult(sampleResult())

	d.ImageLoaded(960, 1920, 3000)
	d.ImageLoaded(480, 1920, 3000)
	d.Resized(1920)

	assert.Equal(t, 0.5, d.Scale())

	d.SetResult(sampleResult())
	d.ImageLoaded(480, 1920, 3000)
	assert.Equal(t, 0.25, d.Scale())
}

func TestDisplay_RecomputeOnResize(t *testing.T) {
	d := NewDisplay(Options{RecomputeOnResize: true})
	d.SetResult(sampleResult())
	d.ImageLoaded(960, 1920, 3000)

	d.Resized(1440)

	assert.Equal(t, 0.75, d.Scale())
}

func TestDisplay_SetResultClearsHover(t *testing.T) {
	d := NewDisplay(Options{})
	d.SetResult(sampleResult())
	d.Hover(1)

	d.SetResult(sampleResult())

	_, ok := d.Hovered()
	assert.False(t, ok)
}
