// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultQuality is the JPEG quality used when compression is enabled and no
// quality is configured.
const DefaultQuality = 10

// ConversionConfig holds settings for a conversion run. It is populated by
// the CLI from flags, environment, and config file.
type ConversionConfig struct {
	// MangaDir is the input root holding the archives.
	MangaDir string `json:"manga_dir" yaml:"manga_dir" mapstructure:"manga_dir"`

	// OutputDir is the output root; each series gets a subfolder.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Force regenerates documents that already exist.
	Force bool `json:"force" yaml:"force" mapstructure:"force"`

	// Compress re-encodes every page as JPEG at Quality before embedding.
	Compress bool `json:"compress" yaml:"compress" mapstructure:"compress"`

	// Quality is the JPEG quality (1-100, default 10).
	Quality int `json:"quality" yaml:"quality" mapstructure:"quality"`

	// StrictPages fails a chapter on its first unreadable page instead of
	// leaving the page out.
	StrictPages bool `json:"strict_pages" yaml:"strict_pages" mapstructure:"strict_pages"`

	// KeepGoing records a failed archive or chapter and continues with the
	// next one instead of aborting the run.
	KeepGoing bool `json:"keep_going" yaml:"keep_going" mapstructure:"keep_going"`

	// DryRun reports what would be generated without writing documents.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`
}

// EffectiveQuality returns Quality, or DefaultQuality when unset.
func (c ConversionConfig) EffectiveQuality() int {
	if c.Quality == 0 {
		return DefaultQuality
	}
	return c.Quality
}

// LogConfig holds settings for the logging sink.
type LogConfig struct {
	// Level is a logrus level name, or "tmi"/"verbose" for trace.
	Level string `json:"level" yaml:"level" mapstructure:"log_level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"log_format"`
}
