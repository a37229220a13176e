package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the quality every stored image is encoded at.
const JPEGQuality = 90

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// ProcessingError means the bytes from the image service could not be
// turned into a JPEG.
type ProcessingError struct {
	Prompt string
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("failed to process image: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Normalize decodes data, flattens transparency onto white, shrinks the
// image to fit inside box keeping its aspect ratio and re-encodes it as
// JPEG. Images already inside the box keep their size.
func Normalize(data []byte, box Size) ([]byte, Size, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Size{}, &ProcessingError{Err: fmt.Errorf("failed to decode image: %w", err)}
	}

	bounds := src.Bounds()
	target := fit(Size{Width: bounds.Dx(), Height: bounds.Dy()}, box)

	flat := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, bounds.Min, draw.Over)

	var out image.Image = flat
	if target.Width != bounds.Dx() || target.Height != bounds.Dy() {
		scaled := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), flat, flat.Bounds(), draw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, Size{}, &ProcessingError{Err: fmt.Errorf("failed to encode JPEG: %w", err)}
	}
	return buf.Bytes(), target, nil
}

// fit returns the largest size inside box with src's aspect ratio, never
// larger than src.
func fit(src, box Size) Size {
	if src.Width <= 0 || src.Height <= 0 {
		return src
	}
	if src.Width <= box.Width && src.Height <= box.Height {
		return src
	}

	w, h := box.Width, src.Height*box.Width/src.Width
	if h > box.Height {
		w, h = src.Width*box.Height/src.Height, box.Height
	}
	return Size{Width: max(w, 1), Height: max(h, 1)}
}
