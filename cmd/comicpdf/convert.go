// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/comicpdf/internal/logging"
	"github.com/pdiddy/comicpdf/internal/process"
	"github.com/pdiddy/comicpdf/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every archive in the input directory to per-chapter PDFs",
	Long: `Convert extracts each archive found in --manga-dir and writes one PDF per
chapter folder to <output-dir>/<series>/<series>_<chapter>.pdf. Pages are
ordered naturally (2.png before 10.png). Documents that already exist are
skipped unless --force is given.

By default the first failing archive or chapter stops the run. With
--keep-going failures are recorded and the run continues; the command still
exits non-zero if anything failed.`,
	SilenceUsage: true,
	RunE:         runConvert,
}

// convertFlags maps config keys to the flags that set them.
var convertFlags = map[string]string{
	"manga_dir":    "manga-dir",
	"output_dir":   "output-dir",
	"force":        "force",
	"compress":     "compress",
	"quality":      "quality",
	"strict_pages": "strict-pages",
	"keep_going":   "keep-going",
	"dry_run":      "dry-run",
	"log_level":    "log-level",
	"log_format":   "log-format",
	"report":       "report",
	"progress":     "progress",
}

// plainEnv lists keys that also read an unprefixed environment variable.
var plainEnv = map[string]string{
	"manga_dir":  "MANGA_DIR",
	"output_dir": "OUTPUT_DIR",
	"log_level":  "LOG_LEVEL",
}

func init() {
	addConvertFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}

func addConvertFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("manga-dir", "", "directory holding the archives (default: working directory)")
	f.String("output-dir", "", "output root, one folder per series (default: <working dir>/pdfs)")
	f.Bool("force", false, "regenerate documents that already exist")
	f.Bool("compress", false, "re-encode every page as JPEG before embedding")
	f.Int("quality", types.DefaultQuality, "JPEG quality used with --compress (1-100)")
	f.Bool("strict-pages", false, "fail a chapter on its first unreadable page")
	f.Bool("keep-going", false, "record failures and continue with the next archive")
	f.Bool("dry-run", false, "report what would be generated without writing anything")
	f.String("log-level", "info", "log level: error, warn, info, debug, or trace (alias tmi, verbose)")
	f.String("log-format", logging.FormatText, "log format: text or json")
	f.String("report", "", "write a run report to this path (.yaml, .yml, or .json)")
	f.Bool("progress", false, "show a progress bar for each archive")
}

// bindConvertConfig binds the convert flags and the unprefixed environment
// names into v.
func bindConvertConfig(v *viper.Viper, cmd *cobra.Command) error {
	for key, name := range convertFlags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	for key, env := range plainEnv {
		if err := v.BindEnv(key, envName(key), env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}
	return nil
}

// loadConvertConfig resolves the conversion and logging settings from v and
// fills in the directory defaults relative to the working directory.
func loadConvertConfig(v *viper.Viper) (types.ConversionConfig, types.LogConfig, error) {
	var cfg types.ConversionConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, types.LogConfig{}, fmt.Errorf("reading conversion config: %w", err)
	}
	var logCfg types.LogConfig
	if err := v.Unmarshal(&logCfg); err != nil {
		return cfg, logCfg, fmt.Errorf("reading log config: %w", err)
	}

	if cfg.MangaDir == "" || cfg.OutputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, logCfg, fmt.Errorf("resolving working directory: %w", err)
		}
		if cfg.MangaDir == "" {
			cfg.MangaDir = wd
		}
		if cfg.OutputDir == "" {
			cfg.OutputDir = filepath.Join(wd, "pdfs")
		}
	}
	return cfg, logCfg, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindConvertConfig(v, cmd); err != nil {
		return err
	}
	return convert(cmd.Context(), v, os.Stderr)
}

// convert runs one conversion with the settings in v, logging to logOut. It
// returns an error when the run fails or when KeepGoing recorded failures.
func convert(ctx context.Context, v *viper.Viper, logOut io.Writer) error {
	cfg, logCfg, err := loadConvertConfig(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(logOut, logCfg.Level, logCfg.Format)
	if err != nil {
		return err
	}
	defer logging.RedirectStdlib(logger)()

	logger.WithFields(logrus.Fields{
		"manga_dir":  cfg.MangaDir,
		"output_dir": cfg.OutputDir,
		"force":      cfg.Force,
		"compress":   cfg.Compress,
		"dry_run":    cfg.DryRun,
	}).Debug("Starting conversion")

	var opts []process.Option
	if v.GetBool("progress") {
		opts = append(opts, process.WithProgress(newProgressBar))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := process.New(cfg, logger, opts...).Run(ctx)

	if path := v.GetString("report"); path != "" {
		if err := process.WriteReport(path, summary); err != nil {
			logger.WithError(err).Error("Failed to write report")
			if runErr == nil {
				runErr = err
			}
		} else {
			logger.WithField("report", path).Info("Report written")
		}
	}

	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d archive(s) failed", summary.Failed)
	}
	return nil
}

// newProgressBar renders chapter progress for one archive on stderr.
func newProgressBar(description string, total int) process.Progress {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
