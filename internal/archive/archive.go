// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive recognizes comic archives, derives series and chapter names
// from their file names, and extracts them into scratch directories.
//
// Archives follow the naming convention
//
//	<series-tokens>_<startChapterTag>_<endChapterTag>.<ext>
//
// e.g. "foo-bar_c001_c010.zip" holds chapters of series "foo-bar".
package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/anchore/archiver/v3"
)

// Format identifies the container format of an archive.
type Format string

const (
	FormatZip Format = "zip"
	FormatRar Format = "rar"
	FormatTar Format = "tar"
)

// extensions maps lower-case file extensions to formats. The comic book
// variants (.cbz, .cbr, .cbt) are plain zip, rar, and tar files.
var extensions = map[string]Format{
	".zip": FormatZip,
	".cbz": FormatZip,
	".rar": FormatRar,
	".cbr": FormatRar,
	".tar": FormatTar,
	".cbt": FormatTar,
}

// DocumentExt is the extension of generated documents.
const DocumentExt = ".pdf"

// ErrEmptySeries is returned when an archive name has too few underscore
// separated tokens to leave a series name.
var ErrEmptySeries = errors.New("archive name yields an empty series name")

// FormatOf returns the format for name by extension, case-insensitively.
func FormatOf(name string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// IsArchive reports whether name has a recognized archive extension.
func IsArchive(name string) bool {
	_, ok := FormatOf(name)
	return ok
}

// ChapterName returns the archive file name without directory and extension.
func ChapterName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SeriesName drops the last two underscore separated tokens of chapterName
// (the chapter range) and joins the rest with hyphens. Names with fewer
// than three tokens yield "".
func SeriesName(chapterName string) string {
	tokens := strings.Split(chapterName, "_")
	if len(tokens) <= 2 {
		return ""
	}
	return strings.Join(tokens[:len(tokens)-2], "-")
}

// Names derives the chapter name and series name of an archive file.
func Names(file string) (chapterName, series string, err error) {
	chapterName = ChapterName(file)
	series = SeriesName(chapterName)
	if series == "" {
		return chapterName, "", fmt.Errorf("%s: %w", filepath.Base(file), ErrEmptySeries)
	}
	return chapterName, series, nil
}

// DocumentName returns the file name of the document for a chapter folder.
func DocumentName(series, chapter string) string {
	return series + "_" + chapter + DocumentExt
}

// Extract unpacks the archive at path into dest, which must exist or be
// creatable. Entries that would escape dest are not written.
func Extract(path, dest string) error {
	format, ok := FormatOf(path)
	if !ok {
		return fmt.Errorf("unsupported archive extension %q", filepath.Ext(path))
	}

	if err := unarchiver(format).Unarchive(path, dest); err != nil {
		return fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	return nil
}

func unarchiver(f Format) archiver.Unarchiver {
	switch f {
	case FormatRar:
		r := archiver.NewRar()
		r.OverwriteExisting = true
		return r
	case FormatTar:
		t := archiver.NewTar()
		t.OverwriteExisting = true
		return t
	default:
		z := archiver.NewZip()
		z.OverwriteExisting = true
		return z
	}
}
