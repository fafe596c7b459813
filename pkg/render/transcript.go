package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/tui/theme"
)

// LineKind tells the interactive screen how to colour a line.
type LineKind int

const (
	LineUser LineKind = iota
	LineAssistant
	LineError
	LineCode
	LineToolRunning
	LineToolDone
	LineSource
	LineStreaming
	LineBlank
)

// Line is one unwrapped line of a rendered entry.
type Line struct {
	Kind LineKind
	Text string
}

// Lines lays out an entry as plain lines: a header, the body, tool
// progress and sources.
func Lines(e chat.Entry, agentName string) []Line {
	var lines []Line

	if e.IsUser() {
		lines = append(lines, Line{Kind: LineUser, Text: "You:"})
		for _, l := range strings.Split(e.Text, "\n") {
			lines = append(lines, Line{Kind: LineUser, Text: "  " + l})
		}
		return append(lines, Line{Kind: LineBlank})
	}

	header := agentName + ":"
	if e.IsStreaming() {
		header += " …"
	}
	lines = append(lines, Line{Kind: LineAssistant, Text: header})

	bodyKind := LineAssistant
	if e.IsError {
		bodyKind = LineError
	}
	for _, seg := range SplitSegments(e.Text) {
		kind := bodyKind
		if seg.Kind == SegmentCode {
			kind = LineCode
		}
		for _, l := range strings.Split(seg.Content, "\n") {
			lines = append(lines, Line{Kind: kind, Text: "  " + l})
		}
	}

	for _, tc := range e.ToolCalls {
		lines = append(lines, toolLine(tc))
	}
	for _, s := range e.Sources {
		lines = append(lines, Line{Kind: LineSource, Text: "  📄 " + s.Label})
	}
	if e.IsStreaming() && e.Text == "" && len(e.ToolCalls) == 0 {
		lines = append(lines, Line{Kind: LineStreaming, Text: "  thinking…"})
	}
	return append(lines, Line{Kind: LineBlank})
}

func toolLine(tc chat.ToolCallStatus) Line {
	if tc.Status == chat.ToolRunning {
		return Line{Kind: LineToolRunning, Text: fmt.Sprintf("  ⚙ %s running…", tc.ToolName)}
	}
	text := fmt.Sprintf("  ✓ %s", tc.ToolName)
	if tc.Result != "" {
		text += ": " + tc.Result
	}
	return Line{Kind: LineToolDone, Text: text}
}

// Renderer prints entries with lipgloss styles and highlighted code, for
// headless runs and terminal scrollback.
type Renderer struct {
	styles      *theme.Styles
	highlighter *Highlighter
	agentName   func(kind string) string
}

func NewRenderer(styles *theme.Styles, highlighter *Highlighter, agentName func(string) string) *Renderer {
	if styles == nil {
		styles = theme.DefaultStyles()
	}
	if highlighter == nil {
		highlighter = DefaultHighlighter()
	}
	if agentName == nil {
		agentName = func(kind string) string { return kind }
	}
	return &Renderer{styles: styles, highlighter: highlighter, agentName: agentName}
}

// RenderEntry returns the styled text of one entry.
func (r *Renderer) RenderEntry(e chat.Entry) string {
	var b strings.Builder

	if e.IsUser() {
		b.WriteString(r.styles.UserLabel.Render("You"))
	} else {
		b.WriteString(r.styles.AssistantLabel.Render(r.agentName(e.AgentKind)))
	}
	b.WriteString(" ")
	b.WriteString(r.styles.Timestamp.Render(e.CreatedAt.Format("15:04")))
	b.WriteString("\n")

	for _, seg := range SplitSegments(e.Text) {
		switch {
		case seg.Kind == SegmentCode:
			b.WriteString(r.highlighter.Highlight(seg.Content, seg.Language))
		case e.IsError:
			b.WriteString(r.styles.ErrorBody.Render(seg.Content))
		default:
			b.WriteString(r.styles.Body.Render(seg.Content))
		}
		b.WriteString("\n")
	}

	for _, tc := range e.ToolCalls {
		b.WriteString(r.RenderTool(tc))
		b.WriteString("\n")
	}
	if len(e.Sources) > 0 {
		labels := make([]string, 0, len(e.Sources))
		for _, s := range e.Sources {
			labels = append(labels, r.styles.Source.Render(s.Label))
		}
		b.WriteString("Sources: " + strings.Join(labels, ", ") + "\n")
	}
	return b.String()
}

// RenderTool returns the badge for one tool call.
func (r *Renderer) RenderTool(tc chat.ToolCallStatus) string {
	if tc.Status == chat.ToolRunning {
		return r.styles.ToolRunning.Render("⚙ " + tc.ToolName)
	}
	badge := r.styles.ToolDone.Render("✓ " + tc.ToolName)
	if tc.Result == "" {
		return badge
	}
	return badge + " " + r.styles.ToolResult.Render(tc.Result)
}

// WriteTranscript renders every entry to w separated by blank lines.
func (r *Renderer) WriteTranscript(w io.Writer, entries []chat.Entry) error {
	for i, e := range entries {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, r.RenderEntry(e)); err != nil {
			return err
		}
	}
	return nil
}
