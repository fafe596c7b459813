package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/render"
)

var (
	ColorUserText      = tcell.NewRGBColor(255, 176, 0)   // amber
	ColorAssistantText = tcell.NewRGBColor(0, 255, 135)   // mint
	ColorToolText      = tcell.NewRGBColor(255, 128, 255) // magenta
	ColorErrorText     = tcell.NewRGBColor(255, 99, 71)
	ColorCodeText      = tcell.NewRGBColor(176, 224, 230)
	ColorDimText       = tcell.NewRGBColor(169, 169, 169)

	ColorBorder      = tcell.NewRGBColor(255, 215, 0)
	ColorBorderBusy  = tcell.NewRGBColor(105, 105, 105)
	ColorStatusReady = tcell.NewRGBColor(144, 238, 144)
	ColorStatusBusy  = tcell.NewRGBColor(255, 218, 185)
	ColorStatusBar   = tcell.NewRGBColor(48, 48, 48)

	ColorToastSuccess = tcell.NewRGBColor(50, 205, 50)
	ColorToastError   = tcell.NewRGBColor(255, 99, 71)
	ColorToastInfo    = tcell.NewRGBColor(0, 191, 255)
)

var (
	StyleUserText      = tcell.StyleDefault.Foreground(ColorUserText)
	StyleUserLabel     = tcell.StyleDefault.Foreground(ColorUserText).Bold(true)
	StyleAssistantText = tcell.StyleDefault.Foreground(ColorAssistantText)
	StyleErrorText     = tcell.StyleDefault.Foreground(ColorErrorText)
	StyleCodeText      = tcell.StyleDefault.Foreground(ColorCodeText)
	StyleToolRunning   = tcell.StyleDefault.Foreground(ColorToolText).Italic(true)
	StyleToolDone      = tcell.StyleDefault.Foreground(ColorToolText)
	StyleDimText       = tcell.StyleDefault.Foreground(ColorDimText).Dim(true)

	StyleBorder     = tcell.StyleDefault.Foreground(ColorBorder)
	StyleBorderBusy = tcell.StyleDefault.Foreground(ColorBorderBusy)

	StyleStatusReady = tcell.StyleDefault.Foreground(ColorStatusReady).Background(ColorStatusBar)
	StyleStatusBusy  = tcell.StyleDefault.Foreground(ColorStatusBusy).Background(ColorStatusBar)
)

// LineStyle maps a transcript line kind to its screen style.
func LineStyle(kind render.LineKind) tcell.Style {
	switch kind {
	case render.LineUser:
		return StyleUserText
	case render.LineError:
		return StyleErrorText
	case render.LineCode:
		return StyleCodeText
	case render.LineToolRunning:
		return StyleToolRunning
	case render.LineToolDone:
		return StyleToolDone
	case render.LineSource, render.LineStreaming:
		return StyleDimText
	default:
		return StyleAssistantText
	}
}

func ToastStyle(level notify.Level) tcell.Style {
	switch level {
	case notify.LevelSuccess:
		return tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(ColorToastSuccess)
	case notify.LevelError:
		return tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(ColorToastError)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(ColorToastInfo)
	}
}
