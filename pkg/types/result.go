// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ChapterStatus records what happened to one chapter during a run.
type ChapterStatus string

const (
	ChapterGenerated ChapterStatus = "generated"
	ChapterSkipped   ChapterStatus = "skipped"
	ChapterEmpty     ChapterStatus = "empty"
	ChapterPlanned   ChapterStatus = "planned"
	ChapterFailed    ChapterStatus = "failed"
)

// ChapterResult is the outcome for one chapter folder.
type ChapterResult struct {
	// Name is the chapter folder name (e.g. "c003").
	Name string `json:"name" yaml:"name"`

	// OutputPath is the document path, written or not.
	OutputPath string `json:"output_path" yaml:"output_path"`

	Status ChapterStatus `json:"status" yaml:"status"`

	// Pages is the number of pages embedded in the document.
	Pages int `json:"pages" yaml:"pages"`

	// RejectedPages counts entries that could not be decoded and were left out.
	RejectedPages int `json:"rejected_pages,omitempty" yaml:"rejected_pages,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ArchiveResult is the outcome for one archive.
type ArchiveResult struct {
	// File is the archive file name including extension.
	File string `json:"file" yaml:"file"`

	// ChapterName is File without its extension.
	ChapterName string `json:"chapter_name" yaml:"chapter_name"`

	// Series is the derived series name.
	Series string `json:"series" yaml:"series"`

	Chapters []ChapterResult `json:"chapters" yaml:"chapters"`

	// Generated counts documents written for this archive.
	Generated int `json:"generated" yaml:"generated"`

	// Skipped counts chapters whose document already existed.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Error is set when the archive itself could not be processed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the archive or any of its chapters failed.
func (r ArchiveResult) Failed() bool {
	if r.Error != "" {
		return true
	}
	for _, c := range r.Chapters {
		if c.Status == ChapterFailed {
			return true
		}
	}
	return false
}

// RunSummary holds the outcome of a whole run.
type RunSummary struct {
	Archives []ArchiveResult `json:"archives" yaml:"archives"`

	// Processed counts archives visited, failed or not.
	Processed int `json:"processed" yaml:"processed"`

	Generated int `json:"generated" yaml:"generated"`
	Skipped   int `json:"skipped" yaml:"skipped"`

	// Failed counts archives with an archive or chapter failure.
	Failed int `json:"failed" yaml:"failed"`

	// NothingFound is set when the input root held no archives.
	NothingFound bool `json:"nothing_found" yaml:"nothing_found"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// HasFailures reports whether any archive failed.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}
