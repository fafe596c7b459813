package tui

var spinnerFrames = []string{"░", "▒", "▓", "█"}

// Spinner animates the status bar while an answer is pending.
type Spinner struct {
	Visible bool
	Frame   int
}

func (s Spinner) WithVisibility(visible bool) Spinner {
	if visible && !s.Visible {
		return Spinner{Visible: true}
	}
	return Spinner{Visible: visible, Frame: s.Frame}
}

func (s Spinner) NextFrame() Spinner {
	if !s.Visible {
		return s
	}
	return Spinner{Visible: true, Frame: (s.Frame + 1) % len(spinnerFrames)}
}

func (s Spinner) String() string {
	if !s.Visible {
		return ""
	}
	return spinnerFrames[s.Frame]
}
