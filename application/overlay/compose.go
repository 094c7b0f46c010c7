package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	borderWidth  = 2
	labelHeight  = 16
	labelOffset  = 20
	labelPadding = 4
	labelAscent  = 12
)

// MaxComposePixels bounds the size of a composed overlay image.
const MaxComposePixels = 100_000_000

// ErrOverlayTooLarge is returned when the scaled screenshot would exceed
// MaxComposePixels.
var ErrOverlayTooLarge = errors.New("overlay image too large")

// ImageSize returns the natural pixel size of a PNG screenshot.
func ImageSize(screenshot []byte) (width, height int, err error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(screenshot))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read screenshot header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Compose draws boxes over the screenshot scaled by scale and returns the
// result as PNG. Boxes must already be in display coordinates.
func Compose(screenshot []byte, boxes []Box, scale float64) ([]byte, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}
	naturalWidth, naturalHeight, err := ImageSize(screenshot)
	if err != nil {
		return nil, err
	}
	fw := math.Round(float64(naturalWidth) * scale)
	fh := math.Round(float64(naturalHeight) * scale)
	if fw*fh > MaxComposePixels {
		return nil, fmt.Errorf("%w: %.0fx%.0f", ErrOverlayTooLarge, fw, fh)
	}
	w, h := int(fw), int(fh)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("scaled image is empty (%dx%d)", w, h)
	}

	src, err := png.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	sb := src.Bounds()

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)

	for _, b := range boxes {
		drawBox(dst, b)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBox(dst *image.RGBA, b Box) {
	c := RGBA(b.Index)
	r := image.Rect(
		int(math.Round(b.Left)),
		int(math.Round(b.Top)),
		int(math.Round(b.Left+b.Width)),
		int(math.Round(b.Top+b.Height)),
	).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	fill := color.NRGBA{R: c.R, G: c.G, B: c.B, A: fillAlpha}
	draw.Draw(dst, r, image.NewUniform(fill), image.Point{}, draw.Over)

	border := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+borderWidth),
		image.Rect(r.Min.X, r.Max.Y-borderWidth, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+borderWidth, r.Max.Y),
		image.Rect(r.Max.X-borderWidth, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), border, image.Point{}, draw.Src)
	}

	drawLabel(dst, r.Min, b.Label, c)
}

func drawLabel(dst *image.RGBA, at image.Point, label string, bg color.RGBA) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Ceil()

	top := at.Y - labelOffset
	if top < 0 {
		top = 0
	}
	box := image.Rect(at.X, top, at.X+textWidth+2*labelPadding, top+labelHeight)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(at.X+labelPadding, top+labelAscent),
	}
	d.DrawString(label)
}
