package tui

import "strings"

// InputField is the immutable state of the prompt line. Cursor counts runes.
type InputField struct {
	content []rune
	Cursor  int
}

func NewInputField() InputField {
	return InputField{}
}

func (inf InputField) Content() string {
	return string(inf.content)
}

func (inf InputField) Len() int {
	return len(inf.content)
}

// Blank reports whether the field holds only whitespace.
func (inf InputField) Blank() bool {
	return strings.TrimSpace(string(inf.content)) == ""
}

func (inf InputField) WithContent(content string) InputField {
	runes := []rune(content)
	return InputField{content: runes, Cursor: len(runes)}
}

func (inf InputField) WithCursor(cursor int) InputField {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(inf.content) {
		cursor = len(inf.content)
	}
	return InputField{content: inf.content, Cursor: cursor}
}

func (inf InputField) InsertRune(r rune) InputField {
	next := make([]rune, 0, len(inf.content)+1)
	next = append(next, inf.content[:inf.Cursor]...)
	next = append(next, r)
	next = append(next, inf.content[inf.Cursor:]...)
	return InputField{content: next, Cursor: inf.Cursor + 1}
}

func (inf InputField) DeleteBackward() InputField {
	if inf.Cursor == 0 {
		return inf
	}
	next := make([]rune, 0, len(inf.content)-1)
	next = append(next, inf.content[:inf.Cursor-1]...)
	next = append(next, inf.content[inf.Cursor:]...)
	return InputField{content: next, Cursor: inf.Cursor - 1}
}

func (inf InputField) DeleteForward() InputField {
	if inf.Cursor >= len(inf.content) {
		return inf
	}
	next := make([]rune, 0, len(inf.content)-1)
	next = append(next, inf.content[:inf.Cursor]...)
	next = append(next, inf.content[inf.Cursor+1:]...)
	return InputField{content: next, Cursor: inf.Cursor}
}

func (inf InputField) Left() InputField {
	return inf.WithCursor(inf.Cursor - 1)
}

func (inf InputField) Right() InputField {
	return inf.WithCursor(inf.Cursor + 1)
}

func (inf InputField) Home() InputField {
	return inf.WithCursor(0)
}

func (inf InputField) End() InputField {
	return inf.WithCursor(len(inf.content))
}

func (inf InputField) Clear() InputField {
	return InputField{}
}

// Window returns the part of the content that fits in width cells and the
// cursor position inside it.
func (inf InputField) Window(width int) (string, int) {
	if width <= 0 {
		return "", 0
	}
	start := 0
	if inf.Cursor >= width {
		start = inf.Cursor - width + 1
	}
	end := start + width
	if end > len(inf.content) {
		end = len(inf.content)
	}
	return string(inf.content[start:end]), inf.Cursor - start
}
