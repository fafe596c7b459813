package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Lifecycle tracks whether an entry can still change. Streaming is the only
// non-terminal state.
type Lifecycle string

const (
	LifecycleStreaming Lifecycle = "streaming"
	LifecycleComplete  Lifecycle = "complete"
	LifecycleErrored   Lifecycle = "errored"
)

type ToolStatus string

const (
	ToolRunning   ToolStatus = "running"
	ToolCompleted ToolStatus = "completed"
)

// ToolCallStatus is the progress indicator for one tool invocation made by the
// model while an answer streams in.
type ToolCallStatus struct {
	ToolName string     `json:"tool_name" yaml:"tool_name"`
	Status   ToolStatus `json:"status" yaml:"status"`
	Result   string     `json:"result,omitempty" yaml:"result,omitempty"`
}

// Source is a citation attached to a non-streaming answer.
type Source struct {
	Label string `json:"label" yaml:"label"`
}

// Entry is a single transcript item.
type Entry struct {
	ID        string           `json:"id" yaml:"id"`
	Role      Role             `json:"role" yaml:"role"`
	Text      string           `json:"text" yaml:"text"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
	AgentKind string           `json:"agent_kind,omitempty" yaml:"agent_kind,omitempty"`
	Sources   []Source         `json:"sources,omitempty" yaml:"sources,omitempty"`
	ToolCalls []ToolCallStatus `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	Lifecycle Lifecycle        `json:"lifecycle" yaml:"lifecycle"`
	// IsError marks a complete assistant entry that carries a failure message.
	IsError bool `json:"is_error,omitempty" yaml:"is_error,omitempty"`
}

func NewEntryID() string {
	return uuid.NewString()
}

func NewUserEntry(text string) (Entry, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Entry{}, ErrInvalidInput
	}
	return Entry{
		ID:        NewEntryID(),
		Role:      RoleUser,
		Text:      trimmed,
		CreatedAt: time.Now(),
		Lifecycle: LifecycleComplete,
	}, nil
}

func NewStreamingEntry(agentKind string) Entry {
	return Entry{
		ID:        NewEntryID(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
		AgentKind: agentKind,
		ToolCalls: []ToolCallStatus{},
		Lifecycle: LifecycleStreaming,
	}
}

func NewAssistantEntry(agentKind, text string, sources []Source) Entry {
	return Entry{
		ID:        NewEntryID(),
		Role:      RoleAssistant,
		Text:      text,
		CreatedAt: time.Now(),
		AgentKind: agentKind,
		Sources:   append([]Source(nil), sources...),
		Lifecycle: LifecycleComplete,
	}
}

func NewErrorEntry(agentKind, text string) Entry {
	e := NewAssistantEntry(agentKind, text, nil)
	e.IsError = true
	return e
}

func (e Entry) IsUser() bool {
	return e.Role == RoleUser
}

func (e Entry) IsAssistant() bool {
	return e.Role == RoleAssistant
}

func (e Entry) IsStreaming() bool {
	return e.Lifecycle == LifecycleStreaming
}

func (e Entry) IsTerminal() bool {
	return e.Lifecycle == LifecycleComplete || e.Lifecycle == LifecycleErrored
}

// RunningTools returns the tool calls still in progress.
func (e Entry) RunningTools() []ToolCallStatus {
	var running []ToolCallStatus
	for _, tc := range e.ToolCalls {
		if tc.Status == ToolRunning {
			running = append(running, tc)
		}
	}
	return running
}

// Clone returns a copy that shares no slices with e.
func (e Entry) Clone() Entry {
	c := e
	if e.Sources != nil {
		c.Sources = append([]Source(nil), e.Sources...)
	}
	if e.ToolCalls != nil {
		c.ToolCalls = append([]ToolCallStatus{}, e.ToolCalls...)
	}
	return c
}
