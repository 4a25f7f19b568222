package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Metadata describes a decoded image.
type Metadata struct {
	Width  int
	Height int
	Format string
}

// Quality settings for the generated variants.
const (
	ThumbnailQuality  = 85
	CompressedQuality = 80
)

// ThumbnailSizes are the long-edge bounds of the generated thumbnail set.
var ThumbnailSizes = []int{200, 400, 800}

// Transcoder decodes raw image bytes and produces resized, re-encoded
// variants. Supported input formats: jpeg, png, gif (first frame), webp.
// Output is always jpeg.
type Transcoder struct{}

// NewTranscoder creates a new Transcoder.
func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// Metadata decodes the image header and reports pixel dimensions and format.
func (t *Transcoder) Metadata(data []byte) (*Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	return &Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Resize scales the image so its longer edge is at most maxDim, preserving
// aspect ratio and never upscaling, then re-encodes it as jpeg at the given
// quality.
func (t *Transcoder) Resize(data []byte, maxDim, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	tw, th := boundedSize(w, h, maxDim)
	if tw == w && th == h {
		return encodeJPEG(src, quality)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	return encodeJPEG(dst, quality)
}

// Reencode re-encodes the image at its original size as jpeg at the given
// quality.
func (t *Transcoder) Reencode(data []byte, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return encodeJPEG(src, quality)
}

// boundedSize computes the target dimensions for a fit-inside resize without
// upscaling.
func boundedSize(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
