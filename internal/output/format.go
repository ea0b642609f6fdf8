// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"widgetsync/internal/service"
	"widgetsync/internal/timeline"
)

const (
	// Separator is the separator line around a snapshot header.
	Separator = "------------"
)

// Task state markers.
const (
	markOpen      = "[ ]"
	markDone      = "[x]"
	markConfirmed = "[*]"
)

// FormatEntry formats a widget snapshot.
// Format: header between separators, then "{N:>4}  {MARK} {TITLE}\n" per task.
func FormatEntry(w io.Writer, e timeline.Entry) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, e.Header)
	fmt.Fprintln(w, Separator)
	if len(e.Tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	for i, item := range e.Tasks {
		fmt.Fprintf(w, "%4d  %s %s\n", i+1, mark(item), normalizeTitle(item.Title))
	}
}

// WriteYAML encodes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// FormatResult formats one engine result as "{SCOPE}: {SUMMARY}\n".
func FormatResult(w io.Writer, r service.Result) {
	fmt.Fprintf(w, "%s: %s\n", r.Scope, Summary(r))
}

// Summary describes a result in a few words.
func Summary(r service.Result) string {
	switch r.Outcome {
	case service.OutcomeSynced:
		if r.Task != nil {
			return fmt.Sprintf("%s %s", r.Task.ID, r.Task.State())
		}
		return fmt.Sprintf("%d %s", r.Count, plural(r.Count, "task", "tasks"))
	case service.OutcomeSkipped:
		return "not linked"
	case service.OutcomeNoOp:
		return "nothing to change"
	default:
		if r.Err != nil {
			return fmt.Sprintf("%s: %v", r.Outcome, r.Err)
		}
		return r.Outcome.String()
	}
}

// IsWarning reports whether a result should be surfaced as a warning.
func IsWarning(r service.Result) bool {
	switch r.Outcome {
	case service.OutcomeNotFound, service.OutcomeSyncFailed,
		service.OutcomeRestored, service.OutcomeLocalFailed:
		return true
	}
	return false
}

func mark(item timeline.Item) string {
	switch {
	case item.Confirmed:
		return markConfirmed
	case item.Done:
		return markDone
	default:
		return markOpen
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
