package core

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/flywheel/pkg/models"
)

// ExportFormat names a supported export encoding.
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatYAML     ExportFormat = "yaml"
	FormatCSV      ExportFormat = "csv"
	FormatMarkdown ExportFormat = "markdown"
)

// ValidExportFormats is the set of allowed ExportFormat values.
var ValidExportFormats = map[ExportFormat]bool{
	FormatJSON:     true,
	FormatYAML:     true,
	FormatCSV:      true,
	FormatMarkdown: true,
}

// Export renders the todos in the requested format.
func Export(todos []models.Todo, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		return exportJSON(todos)
	case FormatYAML:
		return exportYAML(todos)
	case FormatCSV:
		return exportCSV(todos)
	case FormatMarkdown:
		return exportMarkdown(todos), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q: must be one of json, yaml, csv, markdown", format)
	}
}

func exportJSON(todos []models.Todo) ([]byte, error) {
	if len(todos) == 0 {
		return []byte("[]\n"), nil
	}
	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding todos as JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func exportYAML(todos []models.Todo) ([]byte, error) {
	data, err := yaml.Marshal(todos)
	if err != nil {
		return nil, fmt.Errorf("encoding todos as YAML: %w", err)
	}
	return data, nil
}

func exportCSV(todos []models.Todo) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := []string{"id", "text", "done", "priority", "tags", "due_date", "created_at", "updated_at"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	for _, t := range todos {
		record := []string{
			strconv.Itoa(t.ID),
			t.Text,
			strconv.FormatBool(t.Done),
			string(t.Priority),
			strings.Join(t.Tags, ";"),
			t.DueDate,
			t.CreatedAt,
			t.UpdatedAt,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing CSV record %d: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return []byte(sb.String()), nil
}

func exportMarkdown(todos []models.Todo) []byte {
	var sb strings.Builder
	sb.WriteString("| ID | Text | Done | Priority | Tags | Due |\n")
	sb.WriteString("|---:|------|:----:|----------|------|-----|\n")
	for _, t := range todos {
		done := " "
		if t.Done {
			done = "x"
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s |\n",
			t.ID,
			escapeMarkdownCell(t.Text),
			done,
			t.Priority,
			strings.Join(t.Tags, ", "),
			t.DueDate,
		)
	}
	return []byte(sb.String())
}

// escapeMarkdownCell keeps user text from breaking the table layout.
func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
