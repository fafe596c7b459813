package render

import "strings"

type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentCode
)

// Segment is a run of answer text, either prose or a fenced code block.
type Segment struct {
	Kind     SegmentKind
	Language string
	Content  string
}

// SplitSegments cuts text at ``` fences. A fence that is still open, as
// happens while an answer is streaming, extends to the end of the text.
func SplitSegments(text string) []Segment {
	var segments []Segment
	var buf []string
	inCode := false
	language := ""

	flush := func(kind SegmentKind) {
		if len(buf) == 0 {
			return
		}
		content := strings.Join(buf, "\n")
		buf = buf[:0]
		if kind == SegmentText && strings.TrimSpace(content) == "" {
			return
		}
		segments = append(segments, Segment{Kind: kind, Language: language, Content: content})
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flush(SegmentCode)
				inCode = false
				language = ""
			} else {
				flush(SegmentText)
				inCode = true
				language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		buf = append(buf, line)
	}

	if inCode {
		flush(SegmentCode)
	} else {
		flush(SegmentText)
	}
	return segments
}
