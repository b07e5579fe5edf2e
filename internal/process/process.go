// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process drives a conversion run: it walks the input directory,
// extracts each archive into a scratch directory, and assembles one document
// per chapter folder, skipping documents that already exist.
//
// Archives are handled one at a time. Each archive moves through
// discovered -> extracted -> per chapter (skipped | generated) -> cleaned,
// and its scratch directory is removed before the next archive starts.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/comicpdf/internal/archive"
	"github.com/pdiddy/comicpdf/internal/assemble"
	"github.com/pdiddy/comicpdf/internal/logging"
	"github.com/pdiddy/comicpdf/internal/natsort"
	"github.com/pdiddy/comicpdf/pkg/types"
)

// scratchPattern names the per-archive extraction directories.
const scratchPattern = "comicpdf-*"

// Assembler builds one document from a folder of pages. assemble.Assembler
// is the production implementation.
type Assembler interface {
	Assemble(outputPath, folder string) (*assemble.Result, error)
}

// Progress receives one tick per finished chapter of an archive.
type Progress interface {
	Add(n int) error
	Finish() error
}

// ProgressFunc starts progress reporting for an archive with total chapters.
type ProgressFunc func(description string, total int) Progress

// Option configures a Processor.
type Option func(*Processor)

// WithAssembler replaces the document assembler.
func WithAssembler(a Assembler) Option {
	return func(p *Processor) { p.assembler = a }
}

// WithProgress enables per-archive progress reporting.
func WithProgress(f ProgressFunc) Option {
	return func(p *Processor) { p.progress = f }
}

// Processor converts every archive in an input directory.
type Processor struct {
	cfg       types.ConversionConfig
	logger    *logrus.Logger
	assembler Assembler
	progress  ProgressFunc
}

// New returns a Processor for cfg. Without WithAssembler it assembles
// documents with pdfcpu using cfg's compression settings.
func New(cfg types.ConversionConfig, logger *logrus.Logger, opts ...Option) *Processor {
	p := &Processor{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.assembler == nil {
		p.assembler = assemble.New(logger, assemble.Options{
			Quality:  cfg.EffectiveQuality(),
			Compress: cfg.Compress,
			Strict:   cfg.StrictPages,
		})
	}
	return p
}

// Run processes all archives in the input directory in natural name order.
// Finding no archives is not an error; the summary reports NothingFound.
//
// Without KeepGoing the first archive or chapter error stops the run and is
// returned. With KeepGoing failures are recorded in the summary and the run
// continues. Cancellation of ctx is checked between archives and chapters.
func (p *Processor) Run(ctx context.Context) (types.RunSummary, error) {
	summary := types.RunSummary{StartedAt: time.Now().UTC()}
	finish := func(err error) (types.RunSummary, error) {
		summary.FinishedAt = time.Now().UTC()
		return summary, err
	}

	archives, err := p.discover()
	if err != nil {
		return finish(err)
	}

	if len(archives) == 0 {
		p.event(logging.EventNothingFound, logrus.Fields{"manga_dir": p.cfg.MangaDir}).
			Info("No archives found in the input directory")
		summary.NothingFound = true
		return finish(nil)
	}

	if !p.cfg.DryRun {
		if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
			return finish(fmt.Errorf("creating output directory %s: %w", p.cfg.OutputDir, err))
		}
	}

	for _, name := range archives {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		result, err := p.ProcessArchive(ctx, filepath.Join(p.cfg.MangaDir, name))
		cancelled := isCancel(err)
		if err != nil && !cancelled && result.Error == "" && !isChapterError(result) {
			result.Error = err.Error()
		}

		summary.Processed++
		summary.Generated += result.Generated
		summary.Skipped += result.Skipped
		if result.Failed() {
			summary.Failed++
		}
		summary.Archives = append(summary.Archives, result)

		if err != nil {
			if cancelled || !p.cfg.KeepGoing {
				return finish(err)
			}
			p.event(logging.EventArchiveFailed, logrus.Fields{"archive": name}).
				WithError(err).
				Error("Archive failed, continuing with the next one")
		}
	}

	p.event(logging.EventRunSummary, logrus.Fields{
		"archives":  summary.Processed,
		"generated": summary.Generated,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("Run completed")

	return finish(nil)
}

// ProcessArchive converts the chapters of one archive. The scratch directory
// is removed on every return path; a removal failure is reported only when
// nothing else failed.
func (p *Processor) ProcessArchive(ctx context.Context, path string) (result types.ArchiveResult, err error) {
	file := filepath.Base(path)
	chapterName, series, nameErr := archive.Names(file)
	result = types.ArchiveResult{File: file, ChapterName: chapterName, Series: series}

	p.event(logging.EventArchiveDiscovered, logrus.Fields{"archive": file, "series": series}).
		Info("Processing archive")
	if nameErr != nil {
		return result, nameErr
	}

	seriesDir := filepath.Join(p.cfg.OutputDir, series)
	if !p.cfg.DryRun {
		if err := os.MkdirAll(seriesDir, 0o755); err != nil {
			return result, fmt.Errorf("creating series directory %s: %w", seriesDir, err)
		}
	}

	scratch, err := os.MkdirTemp("", scratchPattern)
	if err != nil {
		return result, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			p.logger.WithError(rmErr).WithField("scratch", scratch).Warn("Failed to remove scratch directory")
			if err == nil {
				err = fmt.Errorf("removing scratch directory %s: %w", scratch, rmErr)
			}
		}
	}()

	if err := archive.Extract(path, scratch); err != nil {
		return result, err
	}
	p.logger.WithFields(logrus.Fields{"archive": file, "scratch": scratch}).Debug("Archive extracted")

	chapters, err := chapterDirs(scratch)
	if err != nil {
		return result, err
	}

	var bar Progress
	if p.progress != nil && len(chapters) > 0 {
		bar = p.progress(file, len(chapters))
		defer bar.Finish()
	}

	for _, chapter := range chapters {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cr, chErr := p.processChapter(file, series, seriesDir, chapter, filepath.Join(scratch, chapter))
		result.Chapters = append(result.Chapters, cr)
		switch cr.Status {
		case types.ChapterGenerated:
			result.Generated++
		case types.ChapterSkipped:
			result.Skipped++
		}
		if bar != nil {
			bar.Add(1)
		}

		if chErr != nil && !p.cfg.KeepGoing {
			return result, chErr
		}
	}

	p.event(logging.EventArchiveSummary, logrus.Fields{
		"archive":   file,
		"generated": result.Generated,
		"skipped":   result.Skipped,
		"total":     countDocuments(seriesDir),
	}).Infof("Archive completed: %d document(s) generated", result.Generated)

	if result.Failed() {
		return result, fmt.Errorf("%s: %w", file, errChapterFailed)
	}
	return result, nil
}

// processChapter applies the skip-if-exists policy and assembles the
// chapter's document.
func (p *Processor) processChapter(file, series, seriesDir, chapter, folder string) (types.ChapterResult, error) {
	docName := archive.DocumentName(series, chapter)
	out := filepath.Join(seriesDir, docName)
	cr := types.ChapterResult{Name: chapter, OutputPath: out}
	fields := logrus.Fields{"archive": file, "chapter": chapter, "document": docName}

	if !p.cfg.Force {
		if _, err := os.Stat(out); err == nil {
			p.event(logging.EventChapterSkipped, fields).Info("Document already exists, skipping chapter")
			cr.Status = types.ChapterSkipped
			return cr, nil
		}
	}

	if p.cfg.DryRun {
		p.event(logging.EventChapterProcessing, fields).Info("Dry run: document would be generated")
		cr.Status = types.ChapterPlanned
		return cr, nil
	}

	p.event(logging.EventChapterProcessing, fields).Info("Processing chapter")
	res, err := p.assembler.Assemble(out, folder)
	if res != nil {
		cr.Pages = res.Embedded
		cr.RejectedPages = len(res.Rejected())
	}
	if err != nil {
		cr.Status = types.ChapterFailed
		cr.Error = err.Error()
		p.logger.WithFields(fields).WithError(err).Error("Chapter failed")
		return cr, fmt.Errorf("chapter %s of %s: %w", chapter, file, err)
	}

	if !res.Written {
		p.event(logging.EventChapterEmpty, fields).Warn("Chapter has no readable pages, no document written")
		cr.Status = types.ChapterEmpty
		return cr, nil
	}

	fields["pages"] = cr.Pages
	if cr.RejectedPages > 0 {
		fields["rejected_pages"] = cr.RejectedPages
	}
	p.event(logging.EventChapterGenerated, fields).Info("Document generated")
	cr.Status = types.ChapterGenerated
	return cr, nil
}

// discover lists the archives in the input directory in natural order.
func (p *Processor) discover() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.MangaDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", p.cfg.MangaDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !archive.IsArchive(e.Name()) {
			p.logger.WithField("entry", e.Name()).Trace("Ignoring non-archive entry")
			continue
		}
		names = append(names, e.Name())
	}
	natsort.Strings(names)
	return names, nil
}

func (p *Processor) event(name string, fields logrus.Fields) *logrus.Entry {
	return logging.Event(p.logger, name).WithFields(fields)
}

// chapterDirs returns the immediate subdirectories of dir in natural order.
func chapterDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	natsort.Entries(entries)

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// countDocuments returns the number of documents in dir, or 0 if it cannot
// be read.
func countDocuments(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), archive.DocumentExt) {
			n++
		}
	}
	return n
}

// errChapterFailed marks an archive whose chapters failed under KeepGoing.
var errChapterFailed = errors.New("one or more chapters failed")

func isChapterError(r types.ArchiveResult) bool {
	for _, c := range r.Chapters {
		if c.Status == types.ChapterFailed {
			return true
		}
	}
	return false
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
