package terminal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vips_analyzer/domain/entities"
	"vips_analyzer/infrastructure/config"
)

type stubAnalyzer struct {
	result *entities.AnalysisResult
	err    error
}

func (s stubAnalyzer) Analyze(context.Context, string) (*entities.AnalysisResult, error) {
	return s.result, s.err
}

func newTerminal(t *testing.T, a stubAnalyzer, input string) (*TerminalInterface, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	out := &bytes.Buffer{}
	oc := config.OverlayConfig{DisplayWidth: 50, OutputDir: dir}
	return NewTerminalInterface(a, oc, logger, strings.NewReader(input), out), out, dir
}

func result(t *testing.T) *entities.AnalysisResult {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 80))))
	return &entities.AnalysisResult{
		URL: "https://example.com/docs/",
		Root: &entities.VisualNode{
			Tag: "html", Geometry: entities.Geometry{Width: 100, Height: 80}, Importance: 2, DocOrder: 1,
			Children: []*entities.VisualNode{
				{Tag: "h1", ID: "t", Geometry: entities.Geometry{Width: 50, Height: 10}, Importance: 4.1, DocOrder: 2},
			},
		},
		Screenshot: buf.Bytes(),
	}
}

func TestRun_AnalyzesAndQuits(t *testing.T) {
	term, out, dir := newTerminal(t, stubAnalyzer{result: result(t)}, "\nhttps://example.com/docs/\nquit\n")

	require.NoError(t, term.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Extracted 2 visible elements")
	assert.Contains(t, text, "h1#t")
	assert.Less(t, strings.Index(text, "h1#t"), strings.Index(text, "html"))
	assert.Contains(t, text, "Bye!")

	data, err := os.ReadFile(filepath.Join(dir, "overlay-example.com_docs.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 50, 40), img.Bounds())
}

func TestRun_ReportsFailureAndContinues(t *testing.T) {
	term, out, _ := newTerminal(t, stubAnalyzer{err: errors.New("boom")}, "https://example.com\nhttps://example.org")

	require.NoError(t, term.Run(context.Background()))

	assert.Equal(t, 2, strings.Count(out.String(), "Analysis failed: boom"))
}

func TestOverlayFileName(t *testing.T) {
	assert.Equal(t, "overlay-example.com.png", OverlayFileName("https://example.com/"))
	assert.Equal(t, "overlay-example.com_a_b.png", OverlayFileName("https://example.com/a/b?x=1"))
	assert.Equal(t, "overlay-page.png", OverlayFileName("::"))
}

func TestRenderOverlay_Resize(t *testing.T) {
	res := result(t)
	oc := config.OverlayConfig{DisplayWidth: 50}

	bounds := func(oc config.OverlayConfig, resizes ...int) image.Rectangle {
		out, err := RenderOverlay(res, oc, resizes...)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		return img.Bounds()
	}

	assert.Equal(t, image.Rect(0, 0, 50, 40), bounds(oc))
	assert.Equal(t, image.Rect(0, 0, 50, 40), bounds(oc, 100))

	oc.RecomputeOnResize = true
	assert.Equal(t, image.Rect(0, 0, 100, 80), bounds(oc, 100))
}
