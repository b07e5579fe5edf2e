// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble builds one PDF document from a folder of page images.
//
// Pages are taken in natural file name order, decoded, normalized so that
// palette images become full color, optionally compressed, and written as a
// single multi-page PDF with pdfcpu.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/comicpdf/internal/compress"
	"github.com/pdiddy/comicpdf/internal/logging"
	"github.com/pdiddy/comicpdf/internal/natsort"
)

// ErrUnreadablePage marks a page that could not be read or decoded.
var ErrUnreadablePage = errors.New("unreadable page")

// passthrough lists decoded formats whose original bytes pdfcpu embeds as-is.
var passthrough = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// Options controls how pages are prepared.
type Options struct {
	// Quality is the JPEG quality used when Compress is set.
	Quality int

	// Compress re-encodes every page through the compressor.
	Compress bool

	// Strict fails the document on the first unreadable page. Otherwise the
	// page is logged and left out.
	Strict bool
}

// PageResult is the outcome for one folder entry.
type PageResult struct {
	Name string
	Err  error
}

// Result describes one Assemble call.
type Result struct {
	// Pages lists every file entry in the order it was visited.
	Pages []PageResult

	// Embedded is the number of pages written to the document.
	Embedded int

	// Written reports whether a document was created.
	Written bool
}

// Rejected returns the pages that were left out.
func (r *Result) Rejected() []PageResult {
	var out []PageResult
	for _, p := range r.Pages {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Assembler turns page folders into PDF documents.
type Assembler struct {
	logger     *logrus.Logger
	opts       Options
	compressor *compress.Compressor
}

// New returns an Assembler. The compressor is only built when
// opts.Compress is set.
func New(logger *logrus.Logger, opts Options) *Assembler {
	a := &Assembler{logger: logger, opts: opts}
	if opts.Compress {
		a.compressor = compress.New(opts.Quality)
	}
	return a
}

// Assemble writes the pages found in folder to outputPath as one PDF, first
// page first. When folder holds no usable page nothing is written and the
// call succeeds. Page data is held only for the duration of the call.
func (a *Assembler) Assemble(outputPath, folder string) (*Result, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("listing pages in %s: %w", folder, err)
	}
	natsort.Entries(entries)

	result := &Result{}
	pages := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			a.logger.WithField("dir", entry.Name()).Trace("Ignoring nested directory")
			continue
		}

		path := filepath.Join(folder, entry.Name())
		data, err := a.preparePage(path)
		result.Pages = append(result.Pages, PageResult{Name: entry.Name(), Err: err})
		if err != nil {
			if !errors.Is(err, ErrUnreadablePage) || a.opts.Strict {
				return result, err
			}
			logging.Event(a.logger, logging.EventPageRejected).
				WithError(err).
				WithField("page", path).
				Warn("Skipping unreadable page")
			continue
		}
		pages = append(pages, data)
	}

	if len(pages) == 0 {
		return result, nil
	}

	if err := writeDocument(outputPath, pages); err != nil {
		return result, err
	}
	result.Embedded = len(pages)
	result.Written = true
	return result, nil
}

// preparePage returns the bytes to embed for the image at path.
func (a *Assembler) preparePage(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrUnreadablePage, path, err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrUnreadablePage, path, err)
	}

	img, converted := normalize(img)
	a.logger.WithFields(logrus.Fields{
		"page":      filepath.Base(path),
		"format":    format,
		"bounds":    img.Bounds().Size().String(),
		"converted": converted,
	}).Trace("Decoded page")

	if a.compressor != nil {
		page, err := a.compressor.Compress(img)
		if err != nil {
			return nil, fmt.Errorf("compressing %s: %w", path, err)
		}
		return page.Encoded, nil
	}

	if !converted && passthrough[format] {
		return raw, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("re-encoding %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// normalize converts palette images to opaque RGBA; PDF images cannot use a
// palette with per-entry alpha. Palette colors keep their RGB values even
// when the entry was transparent. Other images are returned unchanged.
func normalize(img image.Image) (image.Image, bool) {
	p, ok := img.(*image.Paletted)
	if !ok {
		return img, false
	}

	opaque := make(color.Palette, len(p.Palette))
	for i, c := range p.Palette {
		n, ok := c.(color.NRGBA)
		if !ok {
			n = color.NRGBAModel.Convert(c).(color.NRGBA)
		}
		n.A = 0xff
		opaque[i] = n
	}

	src := &image.Paletted{Pix: p.Pix, Stride: p.Stride, Rect: p.Rect, Palette: opaque}
	rgba := image.NewRGBA(p.Rect)
	draw.Draw(rgba, rgba.Rect, src, p.Rect.Min, draw.Src)
	return rgba, true
}

// writeDocument writes pages to a temp file next to outputPath and renames
// it into place, so an interrupted run never leaves a partial document that
// a later run would skip.
func writeDocument(outputPath string, pages [][]byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(outputPath), ".comicpdf-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	readers := make([]io.Reader, len(pages))
	for i, p := range pages {
		readers[i] = bytes.NewReader(p)
	}

	importErr := api.ImportImages(nil, tmpFile, readers, nil, model.NewDefaultConfiguration())
	closeErr := tmpFile.Close()
	if importErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(outputPath), importErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
