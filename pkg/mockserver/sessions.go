package mockserver

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/schema"
)

const anonymousSession = "anonymous"

// sessionStore keeps one langchaingo conversation buffer per session id plus
// the memories the memory manager saved in it.
type sessionStore struct {
	mu       sync.Mutex
	buffers  map[string]*memory.ConversationBuffer
	memories map[string][]string
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		buffers:  make(map[string]*memory.ConversationBuffer),
		memories: make(map[string][]string),
	}
}

func (s *sessionStore) buffer(id string) *memory.ConversationBuffer {
	if id == "" {
		id = anonymousSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[id]
	if !ok {
		buf = memory.NewConversationBuffer()
		s.buffers[id] = buf
	}
	return buf
}

// prompt builds the model input: persona, prior turns, then the new query.
func (s *sessionStore) prompt(ctx context.Context, id, persona, query string) ([]llms.MessageContent, error) {
	history, err := s.buffer(id).ChatHistory.Messages(ctx)
	if err != nil {
		return nil, err
	}

	msgs := make([]llms.MessageContent, 0, len(history)+2)
	msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeSystem, persona))
	for _, m := range history {
		msgs = append(msgs, llms.TextParts(m.GetType(), m.GetContent()))
	}
	msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeHuman, query))
	return msgs, nil
}

func (s *sessionStore) record(ctx context.Context, id, query, answer string) error {
	history := s.buffer(id).ChatHistory
	if err := history.AddUserMessage(ctx, query); err != nil {
		return err
	}
	return history.AddAIMessage(ctx, answer)
}

func (s *sessionStore) remember(id, fact string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories[id] = append(s.memories[id], fact)
	return len(s.memories[id])
}

func (s *sessionStore) recall(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.memories[id]...)
}

// drop forgets a session and reports whether it existed.
func (s *sessionStore) drop(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buffers[id]
	delete(s.buffers, id)
	delete(s.memories, id)
	return ok
}

func (s *sessionStore) stats(ctx context.Context) (sessions, messages int) {
	s.mu.Lock()
	buffers := make([]*memory.ConversationBuffer, 0, len(s.buffers))
	for _, b := range s.buffers {
		buffers = append(buffers, b)
	}
	s.mu.Unlock()

	for _, b := range buffers {
		msgs, err := b.ChatHistory.Messages(ctx)
		if err != nil {
			continue
		}
		messages += len(msgs)
	}
	return len(buffers), messages
}
