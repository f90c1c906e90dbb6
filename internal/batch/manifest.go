package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteSummary writes the summary as indented JSON, creating the parent
// directory if needed.
func WriteSummary(path string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: encode summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("batch: write summary %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write summary %s: %w", path, err)
	}
	return nil
}
