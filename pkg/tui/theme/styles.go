package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Base16 palette shared by the headless renderer and the notification printer.
var (
	ColorBase00 = lipgloss.Color("#1a1816") // Dark background
	ColorBase01 = lipgloss.Color("#282420")
	ColorBase02 = lipgloss.Color("#36302a")
	ColorBase03 = lipgloss.Color("#5c5044") // Comments, invisibles
	ColorBase05 = lipgloss.Color("#ab937b") // Default foreground
	ColorBase07 = lipgloss.Color("#f5d7b9")

	ColorRed    = lipgloss.Color("#d95f5f")
	ColorOrange = lipgloss.Color("#eb8755")
	ColorYellow = lipgloss.Color("#f5b761")
	ColorGreen  = lipgloss.Color("#93b56b")
	ColorCyan   = lipgloss.Color("#61afaf")
	ColorBlue   = lipgloss.Color("#6b93b5")
	ColorPurple = lipgloss.Color("#976bb5")

	ColorSuccess = ColorGreen
	ColorWarning = ColorYellow
	ColorError   = ColorRed
	ColorInfo    = ColorCyan
	ColorMuted   = ColorBase03
	ColorFocus   = ColorOrange
)

// Styles holds the lipgloss styles used to print a transcript outside the
// full-screen interface.
type Styles struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	AgentLabel     lipgloss.Style
	Body           lipgloss.Style
	ErrorBody      lipgloss.Style
	Timestamp      lipgloss.Style

	ToolRunning lipgloss.Style
	ToolDone    lipgloss.Style
	ToolResult  lipgloss.Style
	Source      lipgloss.Style
	Streaming   lipgloss.Style

	SuccessToast lipgloss.Style
	ErrorToast   lipgloss.Style
	InfoToast    lipgloss.Style
}

// DefaultStyles returns the default palette applied to every element.
func DefaultStyles() *Styles {
	return &Styles{
		UserLabel: lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true),

		AssistantLabel: lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true),

		AgentLabel: lipgloss.NewStyle().
			Foreground(ColorPurple).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(ColorBase07),

		ErrorBody: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Timestamp: lipgloss.NewStyle().
			Foreground(ColorMuted),

		ToolRunning: lipgloss.NewStyle().
			Foreground(ColorBase00).
			Background(ColorYellow).
			Padding(0, 1),

		ToolDone: lipgloss.NewStyle().
			Foreground(ColorBase00).
			Background(ColorGreen).
			Padding(0, 1),

		ToolResult: lipgloss.NewStyle().
			Foreground(ColorBase05).
			Italic(true),

		Source: lipgloss.NewStyle().
			Foreground(ColorCyan).
			Underline(true),

		Streaming: lipgloss.NewStyle().
			Foreground(ColorOrange).
			Blink(true),

		SuccessToast: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Foreground(ColorSuccess).
			Padding(0, 1),

		ErrorToast: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Foreground(ColorError).
			Padding(0, 1),

		InfoToast: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorInfo).
			Foreground(ColorInfo).
			Padding(0, 1),
	}
}

// Plain returns styles that render text unchanged. Tests and non-terminal
// writers use it.
func Plain() *Styles {
	p := lipgloss.NewStyle()
	return &Styles{
		UserLabel: p, AssistantLabel: p, AgentLabel: p, Body: p, ErrorBody: p,
		Timestamp: p, ToolRunning: p, ToolDone: p, ToolResult: p, Source: p,
		Streaming: p, SuccessToast: p, ErrorToast: p, InfoToast: p,
	}
}
