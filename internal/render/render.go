// Package render draws per-file validation outcomes for the terminal and
// exports them as JSON files.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

var (
	fileStyle  = lipgloss.NewStyle().Bold(true)
	badgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)

	badgeColors = map[string]lipgloss.Color{
		string(models.StatusPass):    lipgloss.Color("28"),  // green
		string(models.StatusWarning): lipgloss.Color("172"), // orange
		string(models.StatusFail):    lipgloss.Color("160"), // red
		"COMPLETED":                  lipgloss.Color("26"),  // blue
		"ERROR":                      lipgloss.Color("240"), // gray
	}

	issueErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	issueWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("172"))
	fieldKeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	rawStyle          = lipgloss.NewStyle().Faint(true)
)

// Outcome renders one file's outcome as a multi-line block.
func Outcome(outcome models.FileOutcome) string {
	var b strings.Builder
	b.WriteString(fileStyle.Render(outcome.FileName))
	b.WriteString("\n")

	if outcome.Status == models.OutcomeError {
		b.WriteString(badge("ERROR"))
		b.WriteString("\n")
		b.WriteString(outcome.ErrorMessage)
		b.WriteString("\n")
		return b.String()
	}

	result := outcome.Payload
	if result == nil {
		result = &models.ValidationResult{}
	}

	if result.RawFallback() {
		b.WriteString(badge("COMPLETED"))
		b.WriteString("\n")
		if result.ParseError != "" {
			b.WriteString(rawStyle.Render("model reply was not valid JSON: " + result.ParseError))
			b.WriteString("\n")
		}
		b.WriteString(result.RawResponse)
		b.WriteString("\n")
		return b.String()
	}

	status := string(result.ValidationStatus)
	if status == "" {
		status = "COMPLETED"
	}
	b.WriteString(badge(status))
	if result.Confidence != nil {
		b.WriteString(fmt.Sprintf("  confidence %.0f%%", *result.Confidence*100))
	}
	b.WriteString("\n")

	for _, issue := range result.Issues {
		style := issueWarningStyle
		if issue.Severity == models.SeverityError {
			style = issueErrorStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("  [%s] %s: %s", issue.Severity, issue.Field, issue.Message)))
		b.WriteString("\n")
	}

	b.WriteString(renderFields(result.ExtractedFields, "  "))
	return b.String()
}

func badge(status string) string {
	color, ok := badgeColors[status]
	if !ok {
		color = badgeColors["COMPLETED"]
	}
	return badgeStyle.Background(color).Render(status)
}

// renderFields writes key/value lines in stable key order. Nested objects
// are shown as indented JSON, absent values as "N/A".
func renderFields(fields map[string]any, indent string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(indent)
		b.WriteString(fieldKeyStyle.Render(key + ":"))
		b.WriteString(" ")
		b.WriteString(fieldValue(fields[key], indent))
		b.WriteString("\n")
	}
	return b.String()
}

func fieldValue(value any, indent string) string {
	switch v := value.(type) {
	case nil:
		return "N/A"
	case string:
		if v == "" {
			return "N/A"
		}
		return v
	case map[string]any, []any:
		data, err := json.MarshalIndent(v, indent, "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ExportJSON writes the full outcome to a timestamped JSON file in dir and
// returns the written path.
func ExportJSON(outcome models.FileOutcome, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode outcome: %w", err)
	}
	name := fmt.Sprintf("validation-result-%s.json", time.Now().UTC().Format("20060102-150405.000"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}
