package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/killallgit/compass/pkg/logger"
)

// Highlighter colours code blocks for terminal output.
type Highlighter struct {
	formatter chroma.Formatter
	style     *chroma.Style
}

// NewHighlighter returns a highlighter using the named chroma formatter,
// e.g. "terminal16m" or "noop". Unknown names fall back to plain text.
func NewHighlighter(formatterName, styleName string) *Highlighter {
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{formatter: formatter, style: style}
}

func DefaultHighlighter() *Highlighter {
	return NewHighlighter("terminal16m", "monokai")
}

// Highlight returns code with escape sequences for language. The lexer is
// guessed from the content when language is empty or unknown.
func (h *Highlighter) Highlight(code, language string) string {
	if code == "" {
		return ""
	}

	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		logger.WithComponent("render").Debug("failed to tokenise code", "language", language, "error", err)
		return code
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		logger.WithComponent("render").Debug("failed to format code", "language", language, "error", err)
		return code
	}
	return buf.String()
}
