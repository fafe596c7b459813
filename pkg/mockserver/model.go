package mockserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// EchoModel is a deterministic llms.Model that answers by restating the
// latest human message. It streams word by word when a streaming function
// is supplied.
type EchoModel struct{}

var _ llms.Model = (*EchoModel)(nil)

func NewEchoModel() *EchoModel {
	return &EchoModel{}
}

func (m *EchoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *EchoModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	query := ""
	turns := 0
	persona := ""
	for _, msg := range messages {
		text := messageText(msg)
		switch msg.Role {
		case schema.ChatMessageTypeHuman:
			query = text
			turns++
		case schema.ChatMessageTypeSystem:
			persona = text
		}
	}
	if query == "" {
		return nil, fmt.Errorf("no human message to answer")
	}

	answer := Answer(persona, query, turns)
	if opts.StreamingFunc != nil {
		for _, word := range strings.SplitAfter(answer, " ") {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := opts.StreamingFunc(ctx, []byte(word)); err != nil {
				return nil, err
			}
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:    answer,
			StopReason: "stop",
		}},
	}, nil
}

// Answer is the text EchoModel produces for a query, exposed so tests can
// predict it.
func Answer(persona, query string, turn int) string {
	if persona == "" {
		persona = "assistant"
	}
	return fmt.Sprintf("As your %s, I understand: %s (message %d)", persona, query, turn)
}

func messageText(msg llms.MessageContent) string {
	var parts []string
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
