// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todo/internal/service"
)

const (
	// DescriptionIndent lines up descriptions under the task title.
	DescriptionIndent = "          "
)

// FormatTask formats a task line.
// Format: "{N:>4}  [ ] {TITLE}\n", with "[x]" for completed tasks.
// A non-empty description follows on its own indented line.
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, checkbox(task.Completed), normalizeTitle(task.Title))
	if desc := normalizeText(task.Description); desc != "" {
		fmt.Fprintf(w, "%s%s\n", DescriptionIndent, desc)
	}
}

// FormatSummary prints the task counts line.
// Format: "{N} tasks ({X} open, {Y} done)\n"
func FormatSummary(w io.Writer, tasks []service.Task) {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	noun := "tasks"
	if len(tasks) == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "%d %s (%d open, %d done)\n", len(tasks), noun, len(tasks)-done, done)
}

func checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

// normalizeText flattens newlines and trims surrounding space.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
