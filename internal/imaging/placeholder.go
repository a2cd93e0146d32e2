package imaging

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/feedarr/feedarr/internal/models"
)

// placeholderPalette is the fixed set of background colors for generated
// artwork. The channel ID hash picks one, so the same channel always gets
// the same color.
var placeholderPalette = []color.RGBA{
	{R: 0x1f, G: 0x2d, B: 0x3d, A: 0xff}, // slate
	{R: 0x31, G: 0x3b, B: 0x72, A: 0xff}, // indigo
	{R: 0x14, G: 0x55, B: 0x52, A: 0xff}, // teal
	{R: 0x4a, G: 0x23, B: 0x55, A: 0xff}, // plum
	{R: 0x5c, G: 0x2e, B: 0x2e, A: 0xff}, // brick
	{R: 0x2e, G: 0x4a, B: 0x2e, A: 0xff}, // forest
	{R: 0x5a, G: 0x46, B: 0x1e, A: 0xff}, // ochre
	{R: 0x2b, G: 0x3a, B: 0x55, A: 0xff}, // steel
	{R: 0x47, G: 0x2b, B: 0x47, A: 0xff}, // mauve
	{R: 0x20, G: 0x45, B: 0x5c, A: 0xff}, // petrol
}

// Placeholder deterministically renders artwork for a channel: a palette
// color picked by hashing the channel ID, with the channel's initials
// centered on it. The same inputs always produce byte-identical output.
func Placeholder(channelID, name string, kind models.ImageKind) ([]byte, string, error) {
	width, height := kind.Canvas()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	background := placeholderColor(channelID)
	if kind.Monochrome() {
		background = color.RGBA{A: 0xff}
	}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	text := initials(name)
	if text == "" {
		text = initials(channelID)
	}
	if text != "" {
		drawCenteredText(canvas, text)
	}

	var out image.Image = canvas
	if kind.Monochrome() {
		out = grayscale(canvas)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, "", fmt.Errorf("encoding placeholder: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

// placeholderColor picks a stable palette color for a channel ID.
func placeholderColor(channelID string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(channelID))
	return placeholderPalette[h.Sum32()%uint32(len(placeholderPalette))]
}

// initials extracts up to three initial letters from a display name.
func initials(name string) string {
	var b strings.Builder
	for i, word := range strings.Fields(name) {
		if i == 3 {
			break
		}
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
			}
			break
		}
	}
	return b.String()
}

// drawCenteredText renders text centered on the canvas with the fixed
// bitmap face. A bitmap face keeps rendering deterministic across
// platforms, no system font lookup involved.
func drawCenteredText(dst *image.RGBA, text string) {
	face := basicfont.Face7x13
	bounds := dst.Bounds()

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}

	textWidth := drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := (bounds.Dx() - textWidth) / 2
	y := (bounds.Dy()-textHeight)/2 + metrics.Ascent.Ceil()
	drawer.Dot = fixed.P(bounds.Min.X+x, bounds.Min.Y+y)
	drawer.DrawString(text)
}

// grayscale converts an image to 8-bit grayscale.
func grayscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray
}
