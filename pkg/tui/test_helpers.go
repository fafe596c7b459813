package tui

import (
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
)

// TestScreen wraps SimulationScreen with helpers for reading back what was
// drawn and typing into the app.
type TestScreen struct {
	tcell.SimulationScreen
}

func NewTestScreen() *TestScreen {
	return &TestScreen{SimulationScreen: tcell.NewSimulationScreen("UTF-8")}
}

// CaptureContent returns the drawn cells row by row.
func (ts *TestScreen) CaptureContent() string {
	width, height := ts.Size()
	return ts.GetRegion(0, 0, width, height)
}

func (ts *TestScreen) FindInContent(text string) bool {
	return strings.Contains(ts.CaptureContent(), text)
}

// GetRegion extracts the text of a rectangle of cells.
func (ts *TestScreen) GetRegion(x, y, width, height int) string {
	var content strings.Builder

	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			ch, _, _, _ := ts.GetContent(col, row)
			if ch != 0 {
				content.WriteRune(ch)
			} else {
				content.WriteRune(' ')
			}
		}
		if row < y+height-1 {
			content.WriteRune('\n')
		}
	}

	return content.String()
}

// Row returns one screen row with trailing blanks removed.
func (ts *TestScreen) Row(y int) string {
	width, _ := ts.Size()
	return strings.TrimRight(ts.GetRegion(0, y, width, 1), " ")
}

// keyDelay paces injected keys so the bounded event queue never drops one.
const keyDelay = 10 * time.Millisecond

// Type injects text as individual rune key presses.
func (ts *TestScreen) Type(text string) {
	for _, r := range text {
		ts.InjectKey(tcell.KeyRune, r, tcell.ModNone)
		time.Sleep(keyDelay)
	}
}

func (ts *TestScreen) Press(key tcell.Key) {
	ts.InjectKey(key, 0, tcell.ModNone)
	time.Sleep(keyDelay)
}
