package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts every archive in manga/ into pdfs/.
// Existing documents are skipped, so the target is safe to rerun.
func Convert() error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "convert",
		"--manga-dir", mangaDir,
		"--output-dir", outputDir,
		"--report", filepath.Join(outputDir, "report.yaml"),
	)
}

// Report prints the report left by the last Convert run.
func Report() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "report", filepath.Join(outputDir, "report.yaml"))
}
