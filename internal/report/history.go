package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoryLog is the on-disk form of the enhancement history
type HistoryLog struct {
	Timestamp    string   `json:"timestamp" yaml:"timestamp"`
	Enhancements []string `json:"enhancements" yaml:"enhancements"`
}

// SaveHistory writes descriptions to path as JSON, or YAML when path ends
// in .yaml or .yml. Missing parent directories are created.
func SaveHistory(path string, descriptions []string, now time.Time) error {
	entry := HistoryLog{
		Timestamp:    now.Format("2006-01-02 15:04:05"),
		Enhancements: descriptions,
	}
	if entry.Enhancements == nil {
		entry.Enhancements = []string{}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = WriteYAML(f, entry)
	default:
		err = WriteJSON(f, entry)
	}
	if err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return f.Close()
}
