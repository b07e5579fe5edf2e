// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/comicpdf/pkg/types"
)

// WriteReport writes the run summary to path. The format follows the
// extension: .yaml/.yml for YAML, .json for JSON.
func WriteReport(path string, summary types.RunSummary) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(summary)
	case ".json":
		data, err = json.MarshalIndent(summary, "", "  ")
	default:
		return fmt.Errorf("unsupported report format %q: use .yaml, .yml, or .json", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (types.RunSummary, error) {
	var summary types.RunSummary
	data, err := os.ReadFile(path)
	if err != nil {
		return summary, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &summary)
	default:
		err = yaml.Unmarshal(data, &summary)
	}
	if err != nil {
		return summary, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return summary, nil
}
