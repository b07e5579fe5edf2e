// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the comicpdf CLI. It converts comic
// archives into one PDF per chapter, organized per series.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// envPrefix prefixes every environment variable the CLI reads.
const envPrefix = "COMICPDF"

// rootCmd is the base command for the comicpdf CLI.
var rootCmd = &cobra.Command{
	Use:   "comicpdf",
	Short: "Convert comic archives into per-chapter PDF documents",
	Long: `comicpdf walks a directory of comic archives (.zip, .cbz, .rar, .cbr,
.tar, .cbt), extracts each one, and assembles every chapter folder into a
single PDF with pages in natural order. Documents are written to
<output-dir>/<series>/<series>_<chapter>.pdf and existing documents are
skipped unless --force is given.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./comicpdf.yaml or ~/.config/comicpdf/comicpdf.yaml)")
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("comicpdf")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "comicpdf"))
		}
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configureEnv makes every key readable from COMICPDF_<KEY>.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
}

// envName returns the prefixed environment variable for a config key.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
