// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compress re-encodes page images through JPEG to trade fidelity for
// size before they are embedded in a document.
package compress

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

const (
	// DefaultQuality is used when the caller passes 0.
	DefaultQuality = 10

	minQuality = 1
	maxQuality = 100
)

// Page is the outcome of compressing one image.
type Page struct {
	// Image is the re-decoded image; its pixels carry the JPEG artifacts.
	Image image.Image

	// Encoded holds the JPEG bytes Image was decoded from.
	Encoded []byte
}

// Compressor encodes images at a fixed JPEG quality.
type Compressor struct {
	quality int
}

// New returns a Compressor for quality, clamped to 1..100. Zero selects
// DefaultQuality.
func New(quality int) *Compressor {
	return &Compressor{quality: Clamp(quality)}
}

// Quality returns the effective JPEG quality.
func (c *Compressor) Quality() int { return c.quality }

// Compress encodes img as JPEG and decodes it again. Codec errors are
// returned to the caller unchanged apart from wrapping.
func (c *Compressor) Compress(img image.Image) (*Page, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg at quality %d: %w", c.quality, err)
	}

	encoded := buf.Bytes()
	decoded, err := jpeg.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding compressed page: %w", err)
	}

	return &Page{Image: decoded, Encoded: encoded}, nil
}

// Clamp maps quality onto the JPEG range.
func Clamp(quality int) int {
	switch {
	case quality == 0:
		return DefaultQuality
	case quality < minQuality:
		return minQuality
	case quality > maxQuality:
		return maxQuality
	}
	return quality
}
