// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"archive/zip"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/comicpdf/internal/process"
)

// testViper returns a viper bound to a fresh convert flag set parsed from args.
func testViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	for _, env := range []string{"MANGA_DIR", "OUTPUT_DIR", "LOG_LEVEL"} {
		t.Setenv(env, "")
	}
	for key := range convertFlags {
		t.Setenv(envName(key), "")
	}

	cmd := &cobra.Command{Use: "convert"}
	addConvertFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))

	v := viper.New()
	configureEnv(v)
	require.NoError(t, bindConvertConfig(v, cmd))
	return v
}

func TestLoadConvertConfig_Defaults(t *testing.T) {
	v := testViper(t)

	cfg, logCfg, err := loadConvertConfig(v)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.MangaDir)
	assert.Equal(t, filepath.Join(wd, "pdfs"), cfg.OutputDir)
	assert.Equal(t, 10, cfg.Quality)
	assert.False(t, cfg.Force)
	assert.False(t, cfg.Compress)
	assert.False(t, cfg.KeepGoing)
	assert.Equal(t, "info", logCfg.Level)
	assert.Equal(t, "text", logCfg.Format)
	assert.False(t, v.GetBool("progress"))
	assert.Empty(t, v.GetString("report"))
}

func TestLoadConvertConfig_Flags(t *testing.T) {
	v := testViper(t,
		"--manga-dir", "/in", "--output-dir", "/out",
		"--force", "--compress", "--quality", "35",
		"--strict-pages", "--keep-going", "--dry-run",
		"--log-level", "tmi", "--log-format", "json",
		"--report", "run.yaml", "--progress",
	)

	cfg, logCfg, err := loadConvertConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "/in", cfg.MangaDir)
	assert.Equal(t, "/out", cfg.OutputDir)
	assert.True(t, cfg.Force)
	assert.True(t, cfg.Compress)
	assert.Equal(t, 35, cfg.Quality)
	assert.True(t, cfg.StrictPages)
	assert.True(t, cfg.KeepGoing)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "tmi", logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
	assert.Equal(t, "run.yaml", v.GetString("report"))
	assert.True(t, v.GetBool("progress"))
}

func TestLoadConvertConfig_PrefixedEnv(t *testing.T) {
	v := testViper(t)
	t.Setenv("COMICPDF_OUTPUT_DIR", "/env-out")
	t.Setenv("COMICPDF_FORCE", "true")
	t.Setenv("COMICPDF_QUALITY", "40")

	cfg, _, err := loadConvertConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/env-out", cfg.OutputDir)
	assert.True(t, cfg.Force)
	assert.Equal(t, 40, cfg.Quality)
}

func TestLoadConvertConfig_PlainEnv(t *testing.T) {
	v := testViper(t)
	t.Setenv("MANGA_DIR", "/manga")
	t.Setenv("OUTPUT_DIR", "/pdfs")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, logCfg, err := loadConvertConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/manga", cfg.MangaDir)
	assert.Equal(t, "/pdfs", cfg.OutputDir)
	assert.Equal(t, "debug", logCfg.Level)
}

func TestLoadConvertConfig_Precedence(t *testing.T) {
	v := testViper(t, "--manga-dir", "/flag")
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
manga_dir: /config
output_dir: /config-out
compress: true
quality: 50
`)))
	t.Setenv("COMICPDF_MANGA_DIR", "/env")
	t.Setenv("COMICPDF_QUALITY", "60")

	cfg, _, err := loadConvertConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/flag", cfg.MangaDir, "flag beats env and config")
	assert.Equal(t, 60, cfg.Quality, "env beats config")
	assert.Equal(t, "/config-out", cfg.OutputDir, "config beats default")
	assert.True(t, cfg.Compress)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "COMICPDF_KEEP_GOING", envName("keep_going"))
}

// writeComicZip writes a zip holding one opaque PNG page per chapter.
func writeComicZip(t *testing.T, path string, chapters ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.RGBA{R: 0x20, A: 0xff})

	zw := zip.NewWriter(f)
	for _, chapter := range chapters {
		w, err := zw.Create(chapter + "/1.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(w, img))
	}
	require.NoError(t, zw.Close())
}

func TestConvert_GeneratesDocuments(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "pdfs")
	writeComicZip(t, filepath.Join(in, "foo-bar_c001_c002.zip"), "c001", "c002")
	report := filepath.Join(t.TempDir(), "run.json")

	v := testViper(t, "--manga-dir", in, "--output-dir", out, "--report", report)
	require.NoError(t, convert(context.Background(), v, io.Discard))

	assert.FileExists(t, filepath.Join(out, "foo-bar", "foo-bar_c001.pdf"))
	assert.FileExists(t, filepath.Join(out, "foo-bar", "foo-bar_c002.pdf"))

	summary, err := process.ReadReport(report)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Generated)
	assert.False(t, summary.HasFailures())
}

func TestConvert_NothingToDo(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "pdfs")
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("hi"), 0o644))

	v := testViper(t, "--manga-dir", in, "--output-dir", out)
	require.NoError(t, convert(context.Background(), v, io.Discard))
	assert.NoDirExists(t, out)
}

func TestConvert_KeepGoingFailuresExitNonZero(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "pdfs")
	require.NoError(t, os.WriteFile(filepath.Join(in, "a_c001_c001.zip"), []byte("garbage"), 0o644))
	writeComicZip(t, filepath.Join(in, "b_c001_c001.zip"), "c001")
	report := filepath.Join(t.TempDir(), "run.yaml")

	v := testViper(t, "--manga-dir", in, "--output-dir", out, "--keep-going", "--report", report)
	err := convert(context.Background(), v, io.Discard)
	require.Error(t, err)
	assert.Equal(t, "1 archive(s) failed", err.Error())

	assert.FileExists(t, filepath.Join(out, "b", "b_c001.pdf"))
	summary, err := process.ReadReport(report)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Generated)
}

func TestConvert_FirstFailureAborts(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "pdfs")
	require.NoError(t, os.WriteFile(filepath.Join(in, "a_c001_c001.zip"), []byte("garbage"), 0o644))
	writeComicZip(t, filepath.Join(in, "b_c001_c001.zip"), "c001")

	v := testViper(t, "--manga-dir", in, "--output-dir", out)
	err := convert(context.Background(), v, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a_c001_c001.zip")
	assert.NoFileExists(t, filepath.Join(out, "b", "b_c001.pdf"))
}

func TestConvert_InvalidLogLevel(t *testing.T) {
	v := testViper(t, "--manga-dir", t.TempDir(), "--log-level", "loud")
	err := convert(context.Background(), v, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
