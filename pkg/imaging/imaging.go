// Package imaging turns uploaded pictures into small JPEG data URLs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	// decoders for accepted upload formats
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const DataURLPrefix = "data:image/jpeg;base64,"

// DefaultMaxPixels bounds the decoded size of an upload when the caller
// passes no limit.
const DefaultMaxPixels = 40_000_000

var ErrInvalidImage = errors.New("invalid image")

// FitBox returns the target size for a w×h image. The longer side (width on
// ties) is set to its box dimension and the other side scales proportionally.
// Smaller images are scaled up.
func FitBox(w, h, maxW, maxH int) (int, int) {
	if w >= h {
		nh := int(math.Round(float64(h) * float64(maxW) / float64(w)))
		return maxW, max(nh, 1)
	}
	nw := int(math.Round(float64(w) * float64(maxH) / float64(h)))
	return max(nw, 1), maxH
}

// EncodeAndResize decodes raw, scales it with FitBox and re-encodes it as
// JPEG at quality in [0,1]. The result is a data URL. Images whose header
// declares more than maxPixels pixels are rejected before decoding;
// maxPixels <= 0 means DefaultMaxPixels.
func EncodeAndResize(raw []byte, maxW, maxH, maxPixels int, quality float64) (string, error) {
	if maxW <= 0 || maxH <= 0 {
		return "", fmt.Errorf("%w: bounding box %dx%d", ErrInvalidImage, maxW, maxH)
	}
	if quality < 0 || quality > 1 {
		return "", fmt.Errorf("%w: quality %.2f out of range", ErrInvalidImage, quality)
	}

	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	tw, th := FitBox(b.Dx(), b.Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: q}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
