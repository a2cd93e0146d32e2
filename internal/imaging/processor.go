package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	// Register decoders for the artwork formats seen in the wild.
	_ "image/gif"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/feedarr/feedarr/internal/models"
)

// jpegQuality matches the quality the processed artwork is encoded at.
const jpegQuality = 85

// Process normalises fetched artwork for a presentation kind: decode,
// scale preserving aspect ratio, center on a black canvas of the kind's
// dimensions, and re-encode. Icons come out grayscale PNG, everything else
// JPEG.
func Process(data []byte, kind models.ImageKind) ([]byte, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image (format=%s): %w", format, err)
	}

	width, height := kind.Canvas()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)

	srcBounds := src.Bounds()
	if srcBounds.Dx() > 0 && srcBounds.Dy() > 0 {
		ratio := min(float64(width)/float64(srcBounds.Dx()), float64(height)/float64(srcBounds.Dy()))
		scaledW := max(int(float64(srcBounds.Dx())*ratio), 1)
		scaledH := max(int(float64(srcBounds.Dy())*ratio), 1)

		x := (width - scaledW) / 2
		y := (height - scaledH) / 2
		target := image.Rect(x, y, x+scaledW, y+scaledH)
		xdraw.CatmullRom.Scale(canvas, target, src, srcBounds, xdraw.Over, nil)
	}

	var buf bytes.Buffer
	if kind.Monochrome() {
		if err := png.Encode(&buf, grayscale(canvas)); err != nil {
			return nil, "", fmt.Errorf("encoding processed image: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}

	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding processed image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
