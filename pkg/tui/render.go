package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/render"
	"github.com/mattn/go-runewidth"
)

// ScreenLine is one wrapped, styled row of the transcript.
type ScreenLine struct {
	Text  string
	Style tcell.Style
}

// BuildLines lays out entries for a transcript area width cells wide.
func BuildLines(entries []chat.Entry, width int, agentName func(string) string) []ScreenLine {
	var out []ScreenLine
	for _, e := range entries {
		for _, l := range render.Lines(e, agentName(e.AgentKind)) {
			style := LineStyle(l.Kind)
			if l.Kind == render.LineUser && l.Text == "You:" {
				style = StyleUserLabel
			}
			for _, wrapped := range WrapText(l.Text, width) {
				out = append(out, ScreenLine{Text: wrapped, Style: style})
			}
		}
	}
	if n := len(out); n > 0 && out[n-1].Text == "" {
		out = out[:n-1]
	}
	return out
}

func RenderMessages(screen tcell.Screen, lines []ScreenLine, area Rect, scroll int) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}
	clearArea(screen, area)

	visible, _ := CalculateVisibleLines(lines, area.Height, scroll)
	for i, line := range visible {
		renderText(screen, area.X, area.Y+i, area.Width, line.Text, line.Style)
	}
}

func RenderAlert(screen tcell.Screen, n notify.Notification, ok bool, area Rect) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}
	clearArea(screen, area)
	if !ok {
		return
	}

	icon := "ℹ"
	switch n.Level {
	case notify.LevelSuccess:
		icon = "✔"
	case notify.LevelError:
		icon = "✖"
	}
	text := fmt.Sprintf(" %s %s ", icon, n.Message)
	x := area.X + 2
	renderText(screen, x, area.Y, area.Width-2, text, ToastStyle(n.Level))
}

func RenderInput(screen tcell.Screen, input InputField, area Rect, busy bool) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}
	clearArea(screen, area)

	borderStyle := StyleBorder
	if busy {
		borderStyle = StyleBorderBusy
	}

	if area.Height >= 3 {
		for x := area.X; x < area.X+area.Width; x++ {
			screen.SetContent(x, area.Y, '─', nil, borderStyle)
			screen.SetContent(x, area.Y+2, '─', nil, borderStyle)
		}
		screen.SetContent(area.X, area.Y, '┌', nil, borderStyle)
		screen.SetContent(area.X+area.Width-1, area.Y, '┐', nil, borderStyle)
		screen.SetContent(area.X, area.Y+2, '└', nil, borderStyle)
		screen.SetContent(area.X+area.Width-1, area.Y+2, '┘', nil, borderStyle)

		screen.SetContent(area.X, area.Y+1, '│', nil, borderStyle)
		screen.SetContent(area.X+area.Width-1, area.Y+1, '│', nil, borderStyle)
	}

	if area.Height < 2 || area.Width < 5 {
		return
	}
	inputY := area.Y + 1
	renderText(screen, area.X+1, inputY, 2, "> ", borderStyle)

	inputX := area.X + 3
	inputWidth := area.Width - 4

	if busy {
		renderText(screen, inputX, inputY, inputWidth, "waiting for the answer…", StyleDimText)
		return
	}

	visible, cursor := input.Window(inputWidth)
	renderText(screen, inputX, inputY, inputWidth, visible, tcell.StyleDefault)

	runes := []rune(visible)
	cursorX := inputX + runewidth.StringWidth(string(runes[:cursor]))
	cursorStyle := tcell.StyleDefault.Reverse(true)
	if cursor < len(runes) {
		screen.SetContent(cursorX, inputY, runes[cursor], nil, cursorStyle)
	} else if cursorX < inputX+inputWidth {
		screen.SetContent(cursorX, inputY, ' ', nil, cursorStyle)
	}
}

// StatusBar is what the bottom row shows.
type StatusBar struct {
	Agent   string
	Model   string
	Busy    bool
	Spinner Spinner
}

func RenderStatus(screen tcell.Screen, status StatusBar, area Rect) {
	if area.Width <= 0 || area.Height <= 0 {
		return
	}

	style := StyleStatusReady
	state := "ready"
	if status.Busy {
		style = StyleStatusBusy
		state = "waiting " + status.Spinner.String()
	}

	for x := area.X; x < area.X+area.Width; x++ {
		screen.SetContent(x, area.Y, ' ', nil, style)
	}

	text := fmt.Sprintf(" %s (%s) | %s | tab agent  ^L clear  esc quit ", status.Agent, status.Model, state)
	renderText(screen, area.X, area.Y, area.Width, text, style)
}

func clearArea(screen tcell.Screen, area Rect) {
	for y := area.Y; y < area.Y+area.Height; y++ {
		for x := area.X; x < area.X+area.Width; x++ {
			screen.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

// renderText draws text from x, truncating at maxWidth cells.
func renderText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		if col+w > maxWidth {
			return
		}
		screen.SetContent(x+col, y, r, nil, style)
		col += w
	}
}
