package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func NewRect(x, y, width, height int) Rect {
	return Rect{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

func (r Rect) Right() int {
	return r.X + r.Width
}

func (r Rect) Bottom() int {
	return r.Y + r.Height
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

type Layout struct {
	ScreenWidth  int
	ScreenHeight int
}

func NewLayout(width, height int) Layout {
	return Layout{
		ScreenWidth:  width,
		ScreenHeight: height,
	}
}

// CalculateAreas splits the screen top to bottom into the transcript, a
// one-line toast row, the bordered input box and the status bar.
func (l Layout) CalculateAreas() (messageArea, alertArea, inputArea, statusArea Rect) {
	statusHeight := 1
	inputHeight := 3
	alertHeight := 1
	alertBottomPadding := 1
	messageHeight := l.ScreenHeight - statusHeight - inputHeight - alertHeight - alertBottomPadding

	if messageHeight < 1 {
		messageHeight = 1
	}

	padding := 2
	availableWidth := l.ScreenWidth - (2 * padding)
	if availableWidth < 1 {
		availableWidth = l.ScreenWidth
		padding = 0
	}

	messageArea = NewRect(padding, 0, availableWidth, messageHeight)
	alertArea = NewRect(0, messageHeight, l.ScreenWidth, alertHeight)
	inputArea = NewRect(0, messageHeight+alertHeight+alertBottomPadding, l.ScreenWidth, inputHeight)
	statusArea = NewRect(0, messageHeight+alertHeight+alertBottomPadding+inputHeight, l.ScreenWidth, statusHeight)

	return messageArea, alertArea, inputArea, statusArea
}

// WrapText breaks text into lines no wider than width display cells,
// preferring to break at spaces. Leading indentation is kept on every
// continuation line.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return []string{}
	}
	if text == "" {
		return []string{""}
	}
	if runewidth.StringWidth(text) <= width {
		return []string{text}
	}

	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]
	if runewidth.StringWidth(indent) >= width/2 {
		indent = ""
	}

	var lines []string
	runes := []rune(text)
	prefix := ""

	for len(runes) > 0 {
		avail := width - runewidth.StringWidth(prefix)

		end, cells := 0, 0
		for end < len(runes) {
			w := runewidth.RuneWidth(runes[end])
			if cells+w > avail {
				break
			}
			cells += w
			end++
		}
		if end == 0 {
			end = 1
		}

		if end == len(runes) {
			lines = append(lines, prefix+string(runes))
			break
		}

		lead := 0
		for lead < len(runes) && runes[lead] == ' ' {
			lead++
		}
		breakPos := end
		for i := end - 1; i > lead; i-- {
			if runes[i] == ' ' {
				breakPos = i
				break
			}
		}

		line := strings.TrimRight(string(runes[:breakPos]), " ")
		lines = append(lines, prefix+line)

		runes = runes[breakPos:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
		prefix = indent
	}

	return lines
}

// CalculateVisibleLines returns the window of lines starting at scroll,
// clamped to the available lines.
func CalculateVisibleLines[T any](lines []T, height, scroll int) (visibleLines []T, startLine int) {
	if height <= 0 || len(lines) == 0 {
		return nil, 0
	}

	totalLines := len(lines)

	if scroll >= totalLines {
		scroll = totalLines - 1
	}
	if scroll < 0 {
		scroll = 0
	}

	startLine = scroll
	endLine := startLine + height
	if endLine > totalLines {
		endLine = totalLines
	}

	return lines[startLine:endLine], startLine
}

// MaxScroll is the scroll offset that shows the last page of total lines.
func MaxScroll(total, height int) int {
	if total <= height {
		return 0
	}
	return total - height
}
