// Package main contains Mage build targets for comicpdf developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	mangaDir  = "manga"
	outputDir = "pdfs"
)

// projectDirs lists the working directories a local run expects.
var projectDirs = []string{mangaDir, outputDir}

// Init creates the input and output directories for a local run.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "comicpdf"
	cmdPkg  = "./cmd/comicpdf"
)

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + buildVersion()
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Check vets the code and runs the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// buildVersion describes HEAD, or "dev" outside a git checkout.
func buildVersion() string {
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(v) == "" {
		return "dev"
	}
	return strings.TrimSpace(v)
}

// skipDirs are never counted by Stats.
var skipDirs = map[string]bool{
	"_examples": true,
	".git":      true,
	binDir:      true,
	mangaDir:    true,
	outputDir:   true,
}

// Stats prints non-blank Go lines per package (production and tests) and the
// word count of the Markdown documentation.
func Stats() error {
	prod := map[string]int{}
	tests := map[string]int{}
	docWords := 0

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		switch {
		case strings.HasSuffix(path, "_test.go"):
			n, err := countLines(path)
			tests[filepath.Dir(path)] += n
			return err
		case strings.HasSuffix(path, ".go"):
			n, err := countLines(path)
			prod[filepath.Dir(path)] += n
			return err
		case strings.HasSuffix(path, ".md"):
			data, err := os.ReadFile(path)
			docWords += len(strings.Fields(string(data)))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	pkgs := make([]string, 0, len(prod))
	for pkg := range prod {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	var prodTotal, testTotal int
	for _, pkg := range pkgs {
		fmt.Printf("  %-24s %6d %6d\n", pkg, prod[pkg], tests[pkg])
		prodTotal += prod[pkg]
		testTotal += tests[pkg]
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodTotal)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testTotal)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// countLines returns the number of non-blank lines in the file at path.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}
