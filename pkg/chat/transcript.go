package chat

// Transcript is the ordered list of entries shown for one session, oldest
// first. It is treated as an immutable value: every operation below returns a
// new Transcript and leaves its argument untouched.
type Transcript struct {
	Entries []Entry
}

func NewTranscript() Transcript {
	return Transcript{Entries: make([]Entry, 0)}
}

// ResetForAgent returns a transcript seeded with a single welcome entry.
func ResetForAgent(agentKind, welcome string) Transcript {
	return AppendEntry(NewTranscript(), NewAssistantEntry(agentKind, welcome, nil))
}

func AppendEntry(t Transcript, e Entry) Transcript {
	entries := make([]Entry, len(t.Entries)+1)
	copy(entries, t.Entries)
	entries[len(t.Entries)] = e.Clone()
	return Transcript{Entries: entries}
}

// BeginStream appends an in-flight assistant entry. Only one entry may be
// streaming at a time.
func BeginStream(t Transcript, e Entry) (Transcript, error) {
	if current, ok := StreamingEntry(t); ok {
		return t, entryError("begin stream", current.ID, ErrConcurrentStream)
	}
	e.Lifecycle = LifecycleStreaming
	return AppendEntry(t, e), nil
}

func AppendToken(t Transcript, id, fragment string) (Transcript, error) {
	return amendStreaming(t, "append token", id, func(e *Entry) {
		e.Text += fragment
	})
}

func StartToolCall(t Transcript, id, toolName string) (Transcript, error) {
	return amendStreaming(t, "start tool call", id, func(e *Entry) {
		e.ToolCalls = append(e.ToolCalls, ToolCallStatus{
			ToolName: toolName,
			Status:   ToolRunning,
		})
	})
}

// CompleteToolCall marks the most recent running call of toolName as
// completed. An end event without a matching start is recorded as an already
// completed call so its result is not lost.
func CompleteToolCall(t Transcript, id, toolName, result string) (Transcript, error) {
	return amendStreaming(t, "complete tool call", id, func(e *Entry) {
		for i := len(e.ToolCalls) - 1; i >= 0; i-- {
			tc := &e.ToolCalls[i]
			if tc.ToolName == toolName && tc.Status == ToolRunning {
				tc.Status = ToolCompleted
				tc.Result = result
				return
			}
		}
		e.ToolCalls = append(e.ToolCalls, ToolCallStatus{
			ToolName: toolName,
			Status:   ToolCompleted,
			Result:   result,
		})
	})
}

func FinalizeStream(t Transcript, id string) (Transcript, error) {
	return amendStreaming(t, "finalize stream", id, func(e *Entry) {
		e.Lifecycle = LifecycleComplete
	})
}

// FailStream moves a streaming entry to the errored state and replaces its
// partial text with errorText.
func FailStream(t Transcript, id, errorText string) (Transcript, error) {
	return amendStreaming(t, "fail stream", id, func(e *Entry) {
		e.Lifecycle = LifecycleErrored
		e.Text = errorText
		e.IsError = true
	})
}

func FindEntry(t Transcript, id string) (Entry, int, bool) {
	for i, e := range t.Entries {
		if e.ID == id {
			return e, i, true
		}
	}
	return Entry{}, -1, false
}

func StreamingEntry(t Transcript) (Entry, bool) {
	for i := len(t.Entries) - 1; i >= 0; i-- {
		if t.Entries[i].IsStreaming() {
			return t.Entries[i], true
		}
	}
	return Entry{}, false
}

// GetEntries returns a deep copy of the entries.
func GetEntries(t Transcript) []Entry {
	result := make([]Entry, len(t.Entries))
	for i, e := range t.Entries {
		result[i] = e.Clone()
	}
	return result
}

func GetEntryCount(t Transcript) int {
	return len(t.Entries)
}

func GetLastEntry(t Transcript) (Entry, bool) {
	if len(t.Entries) == 0 {
		return Entry{}, false
	}
	return t.Entries[len(t.Entries)-1], true
}

func amendStreaming(t Transcript, op, id string, fn func(e *Entry)) (Transcript, error) {
	current, idx, ok := FindEntry(t, id)
	if !ok {
		return t, entryError(op, id, ErrUnknownEntry)
	}
	if !current.IsStreaming() {
		return t, entryError(op, id, ErrEntryFinalized)
	}

	amended := current.Clone()
	fn(&amended)

	entries := make([]Entry, len(t.Entries))
	copy(entries, t.Entries)
	entries[idx] = amended
	return Transcript{Entries: entries}, nil
}
