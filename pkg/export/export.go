package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/killallgit/compass/pkg/chat"
	"gopkg.in/yaml.v3"
)

// Snapshot is a transcript frozen for export.
type Snapshot struct {
	SessionID  string       `json:"session_id" yaml:"session_id"`
	Agent      string       `json:"agent" yaml:"agent"`
	ExportedAt time.Time    `json:"exported_at" yaml:"exported_at"`
	Entries    []chat.Entry `json:"entries" yaml:"entries"`
}

// Exporter writes a snapshot in one format.
type Exporter interface {
	Export(s *Snapshot, w io.Writer) error
	Extension() string
}

// Formats lists the names NewExporter accepts.
var Formats = []string{"md", "json", "jsonl", "yaml"}

func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// JSONExporter writes the snapshot as indented JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func (e *JSONExporter) Extension() string {
	return "json"
}

// JSONLExporter writes one entry per line.
type JSONLExporter struct{}

func (e *JSONLExporter) Export(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, entry := range s.Entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", entry.ID, err)
		}
	}
	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}

type YAMLExporter struct{}

func (e *YAMLExporter) Export(s *Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	return enc.Encode(s)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}

// MarkdownExporter writes a readable transcript.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(s *Snapshot, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Conversation %s\n\n", s.SessionID)
	fmt.Fprintf(&b, "**Agent:** %s  \n", s.Agent)
	fmt.Fprintf(&b, "**Exported:** %s  \n", s.ExportedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Entries:** %d\n\n", len(s.Entries))
	b.WriteString("---\n\n")

	for i, entry := range s.Entries {
		actor := "You"
		if entry.IsAssistant() {
			actor = "Assistant"
			if entry.AgentKind != "" {
				actor += " (" + entry.AgentKind + ")"
			}
		}
		fmt.Fprintf(&b, "**%s:** (%s)\n\n", actor, entry.CreatedAt.Format("2006-01-02 15:04:05"))

		if entry.IsError {
			b.WriteString("> ⚠ ")
		}
		b.WriteString(escapeMarkdown(entry.Text))
		b.WriteString("\n\n")

		for _, tc := range entry.ToolCalls {
			fmt.Fprintf(&b, "- tool `%s` %s", tc.ToolName, tc.Status)
			if tc.Result != "" {
				fmt.Fprintf(&b, ": %s", tc.Result)
			}
			b.WriteString("\n")
		}
		if len(entry.Sources) > 0 {
			labels := make([]string, 0, len(entry.Sources))
			for _, src := range entry.Sources {
				labels = append(labels, src.Label)
			}
			fmt.Fprintf(&b, "Sources: %s\n", strings.Join(labels, ", "))
		}
		if len(entry.ToolCalls) > 0 || len(entry.Sources) > 0 {
			b.WriteString("\n")
		}

		if i < len(s.Entries)-1 {
			b.WriteString("---\n\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCode := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		lines[i] = strings.ReplaceAll(line, "__", "\\_\\_")
	}
	return strings.Join(lines, "\n")
}
