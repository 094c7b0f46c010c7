package browser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vips_analyzer/application/extractor"
)

func TestWalkScriptEmbedded(t *testing.T) {
	assert.True(t, strings.HasPrefix(strings.TrimSpace(walkScript), "() =>"))
	assert.Contains(t, walkScript, "document.documentElement")
	assert.Contains(t, walkScript, "a, button, input, select, textarea")
}

func TestWalkScriptSlicesTextByCodePoint(t *testing.T) {
	assert.Contains(t, walkScript, `Array.from((element.textContent || "").trim()).slice(0, MAX_TEXT)`)
	assert.NotContains(t, walkScript, "substring(0, MAX_TEXT)")

	// 100 astral runes are 200 UTF-16 units; the walk keeps all of them
	// and the Go truncation must not drop any.
	text := strings.Repeat("\U0001F600", extractor.MaxTextLength)
	page, err := DecodePage(map[string]interface{}{
		"root": map[string]interface{}{
			"tag":  "p",
			"text": text,
			"rect": map[string]interface{}{"left": 0, "top": 0, "width": 10, "height": 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, text, extractor.TruncateText(page.Root.Text))
}

func TestDecodePage(t *testing.T) {
	raw := map[string]interface{}{
		"scrollX":        0,
		"scrollY":        120.5,
		"viewportWidth":  1920,
		"viewportHeight": float64(1080),
		"pageWidth":      int64(1920),
		"pageHeight":     5000,
		"root": map[string]interface{}{
			"tag":         "html",
			"id":          "",
			"className":   "dark",
			"role":        "",
			"text":        "Hello",
			"rect":        map[string]interface{}{"left": 0, "top": -120.5, "width": 1920, "height": 5000},
			"display":     "block",
			"visibility":  "visible",
			"opacity":     "1",
			"interactive": 3,
			"hidden":      false,
			"children": []interface{}{
				map[string]interface{}{
					"tag":        "div",
					"display":    "none",
					"hidden":     true,
					"rect":       map[string]interface{}{"left": 0, "top": 0, "width": 0, "height": 0},
					"children":   []interface{}{},
					"visibility": "visible",
				},
				"garbage",
			},
		},
	}

	page, err := DecodePage(raw)
	require.NoError(t, err)

	assert.Equal(t, 120.5, page.Metrics.ScrollY)
	assert.Equal(t, 1920.0, page.Metrics.ViewportWidth)
	assert.Equal(t, 1080.0, page.Metrics.ViewportHeight)
	assert.Equal(t, 1920.0, page.Metrics.PageWidth)
	assert.Equal(t, 5000.0, page.Metrics.PageHeight)

	root := page.Root
	assert.Equal(t, "html", root.Tag)
	assert.Equal(t, "dark", root.ClassName)
	assert.Equal(t, "Hello", root.Text)
	assert.Equal(t, -120.5, root.Rect.Top)
	assert.Equal(t, 3, root.Interactive)
	require.Len(t, root.Children, 1)
	assert.True(t, root.Children[0].Hidden)
	assert.Equal(t, "none", root.Children[0].Display)
}

func TestDecodePage_Invalid(t *testing.T) {
	_, err := DecodePage(nil)
	assert.Error(t, err)

	_, err = DecodePage(map[string]interface{}{"root": nil})
	assert.Error(t, err)
}

func TestSettle(t *testing.T) {
	assert.NoError(t, settle(context.Background(), 0))
	assert.NoError(t, settle(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, settle(ctx, time.Hour), context.Canceled)
}

func TestTimeoutMillis(t *testing.T) {
	assert.Equal(t, 30000.0, timeoutMillis(context.Background(), 30*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got := timeoutMillis(ctx, 30*time.Second)
	assert.LessOrEqual(t, got, 2000.0)
	assert.Greater(t, got, 0.0)
}

func TestJoinCloseErr(t *testing.T) {
	assert.NoError(t, joinCloseErr(nil, "page", nil))
	assert.NoError(t, joinCloseErr(nil, "page", errString("page has been closed")))
	err := joinCloseErr(nil, "browser", errString("boom"))
	assert.EqualError(t, err, "failed to close browser: boom")
	err = joinCloseErr(err, "context", errString("Target closed"))
	assert.EqualError(t, err, "failed to close browser: boom")
}

type errString string

func (e errString) Error() string { return string(e) }
