package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format
var ErrUnknownFormat = errors.New("unknown output format")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Formats lists the accepted output formats
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML}
}

// Write renders r to w in the given format
func Write(w io.Writer, r Report, format string) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return writeTables(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// WriteJSON encodes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteYAML encodes v as YAML
func WriteYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

func writeTables(w io.Writer, r Report) error {
	fmt.Fprintf(w, "Performance (errors: %d)\n", r.ErrorCount)
	perf := tablewriter.NewWriter(w)
	perf.Header("Operation", "Last Duration", "Recorded At")
	for _, s := range r.Samples {
		if err := perf.Append(s.Operation, formatDuration(s.Duration), s.Timestamp.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if err := perf.Render(); err != nil {
		return err
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(w, "\nRecent failures")
		failures := tablewriter.NewWriter(w)
		failures.Header("Operation", "Error", "Type", "Duration", "At")
		for _, f := range r.Failures {
			if err := failures.Append(f.Operation, f.Error, f.ErrorType, formatDuration(f.Duration), f.Timestamp.Format(time.RFC3339)); err != nil {
				return err
			}
		}
		if err := failures.Render(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nEnhancement history")
	history := tablewriter.NewWriter(w)
	history.Header("#", "Operation", "Behavior", "Description")
	for i, rec := range r.History {
		if err := history.Append(fmt.Sprintf("%d", i+1), rec.Operation, rec.Behavior, rec.Description); err != nil {
			return err
		}
	}
	return history.Render()
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
}
