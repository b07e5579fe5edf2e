// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the logrus logger the pipeline reports progress to.
// The logger is constructed once per process and passed explicitly; nothing
// here touches the logrus package-level logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

// Event names attached to log entries under FieldEvent. Message text is free
// to change; these categories are stable.
const (
	FieldEvent = "event"

	EventArchiveDiscovered = "archive_discovered"
	EventArchiveSummary    = "archive_summary"
	EventArchiveFailed     = "archive_failed"
	EventChapterSkipped    = "chapter_skipped"
	EventChapterProcessing = "chapter_processing"
	EventChapterGenerated  = "chapter_generated"
	EventChapterEmpty      = "chapter_empty"
	EventPageRejected      = "page_rejected"
	EventRunSummary        = "run_summary"
	EventNothingFound      = "nothing_found"
)

// FieldSource marks entries that did not originate in this module's code.
const (
	FieldSource  = "source"
	SourceStdlib = "stdlib_log"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps a level name onto a logrus level. Besides the logrus names
// it accepts "tmi" and "verbose" for TraceLevel, the level below debug. An
// empty string means info.
func ParseLevel(s string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return logrus.InfoLevel, nil
	case "tmi", "verbose":
		return logrus.TraceLevel, nil
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// New returns a logger writing to w at the given level and format.
func New(w io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unsupported log format %q: use text or json", format)
	}

	return logger, nil
}

// Event starts an entry tagged with the given event name.
func Event(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField(FieldEvent, name)
}

// stdlibWriter turns each line written through the standard log package into
// a warn entry, so third-party packages that use it follow the logger's
// level and format.
type stdlibWriter struct {
	entry *logrus.Entry
}

func (w stdlibWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.entry.Warn(line)
		}
	}
	return len(p), nil
}

// RedirectStdlib sends the standard log package's output to logger and
// returns a function restoring the previous output and flags.
func RedirectStdlib(logger *logrus.Logger) (restore func()) {
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetFlags(0)
	log.SetOutput(stdlibWriter{entry: logger.WithField(FieldSource, SourceStdlib)})
	return func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}
}
