package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"vips_analyzer/application/overlay"
	"vips_analyzer/domain/entities"
	"vips_analyzer/domain/interfaces"
	"vips_analyzer/infrastructure/config"
)

// defaultTopNodes is how many nodes the summary lists.
const defaultTopNodes = 10

type TerminalInterface struct {
	analyzer interfaces.Analyzer
	overlay  config.OverlayConfig
	logger   *logrus.Logger
	reader   *bufio.Reader
	out      io.Writer
	topNodes int
}

func NewTerminalInterface(a interfaces.Analyzer, oc config.OverlayConfig, logger *logrus.Logger, in io.Reader, out io.Writer) *TerminalInterface {
	return &TerminalInterface{
		analyzer: a,
		overlay:  oc,
		logger:   logger,
		reader:   bufio.NewReader(in),
		out:      out,
		topNodes: defaultTopNodes,
	}
}

func (t *TerminalInterface) Run(ctx context.Context) error {
	fmt.Fprintln(t.out, "VIPS Analyzer")
	fmt.Fprintln(t.out, "=============")
	fmt.Fprintln(t.out, "Enter a URL to analyze, or 'quit' to exit")
	fmt.Fprintln(t.out)

	for {
		fmt.Fprint(t.out, "> ")
		input, err := t.reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(input) == "") {
			if err == io.EOF {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "quit" || input == "exit" || input == "q" {
			fmt.Fprintln(t.out, "Bye!")
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintf(t.out, "\nAnalyzing %s\n\n", input)
		if _, err := t.Analyze(ctx, input); err != nil {
			fmt.Fprintf(t.out, "\nAnalysis failed: %v\n\n", err)
		}
	}
}

// Analyze runs one analysis, prints a summary and writes the annotated
// overlay PNG. It returns the overlay path.
func (t *TerminalInterface) Analyze(ctx context.Context, rawURL string) (string, error) {
	result, err := t.analyzer.Analyze(ctx, rawURL)
	if err != nil {
		return "", err
	}

	t.printSummary(result)

	path, err := t.writeOverlay(result)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(t.out, "Overlay written to %s\n\n", path)
	return path, nil
}

func (t *TerminalInterface) printSummary(result *entities.AnalysisResult) {
	nodes := overlay.Flatten(result.Root)
	fmt.Fprintf(t.out, "Extracted %d visible elements\n", len(nodes))

	ranked := make([]*entities.VisualNode, len(nodes))
	copy(ranked, nodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	if len(ranked) > t.topNodes {
		ranked = ranked[:t.topNodes]
	}

	fmt.Fprintln(t.out, "Most important:")
	for _, n := range ranked {
		g := n.Geometry
		fmt.Fprintf(t.out, "  %5.2f  #%-5d %-30s %dx%d at (%d,%d)\n",
			n.Importance, n.DocOrder, overlay.Label(n), g.Width, g.Height, g.X, g.Y)
	}
}

// RenderOverlay draws every box of result over its screenshot laid out at
// oc.DisplayWidth. Each entry of resizes is then applied as a container
// resize, which only moves the boxes when oc.RecomputeOnResize is set.
func RenderOverlay(result *entities.AnalysisResult, oc config.OverlayConfig, resizes ...int) ([]byte, error) {
	widths := append([]int{oc.DisplayWidth}, resizes...)
	display, err := overlay.Layout(result, overlay.Options{RecomputeOnResize: oc.RecomputeOnResize}, widths...)
	if err != nil {
		return nil, err
	}
	return overlay.Compose(result.Screenshot, display.Boxes(), display.Scale())
}

func (t *TerminalInterface) writeOverlay(result *entities.AnalysisResult) (string, error) {
	img, err := RenderOverlay(result, t.overlay)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(t.overlay.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(t.overlay.OutputDir, OverlayFileName(result.URL))
	if err := os.WriteFile(path, img, 0644); err != nil {
		return "", fmt.Errorf("failed to write overlay: %w", err)
	}
	t.logger.WithField("path", path).Debug("Overlay written")
	return path, nil
}

// OverlayFileName derives a filesystem-safe name from the analyzed URL.
func OverlayFileName(rawURL string) string {
	name := "page"
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSuffix(name, "/"))
	return "overlay-" + name + ".png"
}
