package chat

import "sync"

// ChangeListener is called after every successful mutation of a Store.
type ChangeListener func()

// Store holds the transcript of the active chat session and is the only
// sanctioned way to mutate it. Mutations are applied one at a time, in call
// order; listeners run outside the lock.
type Store struct {
	mu         sync.RWMutex
	transcript Transcript
	listeners  []ChangeListener
}

func NewStore() *Store {
	return &Store{transcript: NewTranscript()}
}

// OnChange registers a listener for transcript mutations.
func (s *Store) OnChange(fn ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update applies fn to the current transcript atomically. When fn returns an
// error the transcript is left unchanged.
func (s *Store) Update(fn func(Transcript) (Transcript, error)) error {
	s.mu.Lock()
	next, err := fn(s.transcript)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.commitLocked(next)
	return nil
}

// apply installs the result of a fold that cannot fail.
func (s *Store) apply(fn func(Transcript) Transcript) {
	s.mu.Lock()
	s.commitLocked(fn(s.transcript))
}

// commitLocked stores next, releases the lock and runs the listeners.
func (s *Store) commitLocked(next Transcript) {
	s.transcript = next
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

func (s *Store) AppendUserEntry(text string) (Entry, error) {
	entry, err := NewUserEntry(text)
	if err != nil {
		return Entry{}, err
	}
	s.apply(func(t Transcript) Transcript {
		return AppendEntry(t, entry)
	})
	return entry, nil
}

// BeginAssistantStream appends an empty streaming assistant entry and returns
// its id.
func (s *Store) BeginAssistantStream(agentKind string) (string, error) {
	entry := NewStreamingEntry(agentKind)
	err := s.Update(func(t Transcript) (Transcript, error) {
		return BeginStream(t, entry)
	})
	if err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *Store) AppendToken(id, fragment string) error {
	return s.Update(func(t Transcript) (Transcript, error) {
		return AppendToken(t, id, fragment)
	})
}

func (s *Store) StartToolCall(id, toolName string) error {
	return s.Update(func(t Transcript) (Transcript, error) {
		return StartToolCall(t, id, toolName)
	})
}

func (s *Store) CompleteToolCall(id, toolName, result string) error {
	return s.Update(func(t Transcript) (Transcript, error) {
		return CompleteToolCall(t, id, toolName, result)
	})
}

func (s *Store) FinalizeStream(id string) error {
	return s.Update(func(t Transcript) (Transcript, error) {
		return FinalizeStream(t, id)
	})
}

func (s *Store) FailStream(id, errorText string) error {
	return s.Update(func(t Transcript) (Transcript, error) {
		return FailStream(t, id, errorText)
	})
}

// AppendAssistantComplete appends a finished answer from the non-streaming
// path.
func (s *Store) AppendAssistantComplete(agentKind, text string, sources []Source) Entry {
	entry := NewAssistantEntry(agentKind, text, sources)
	s.apply(func(t Transcript) Transcript {
		return AppendEntry(t, entry)
	})
	return entry
}

// AppendAssistantError appends a complete assistant entry flagged as an error.
func (s *Store) AppendAssistantError(agentKind, text string) Entry {
	entry := NewErrorEntry(agentKind, text)
	s.apply(func(t Transcript) Transcript {
		return AppendEntry(t, entry)
	})
	return entry
}

func (s *Store) ResetForAgent(agentKind, welcome string) {
	s.apply(func(Transcript) Transcript {
		return ResetForAgent(agentKind, welcome)
	})
}

func (s *Store) Clear() {
	s.apply(func(Transcript) Transcript {
		return NewTranscript()
	})
}

func (s *Store) Snapshot() Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Transcript{Entries: GetEntries(s.transcript)}
}

func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GetEntries(s.transcript)
}

func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, _, ok := FindEntry(s.transcript, id)
	return e.Clone(), ok
}

func (s *Store) Streaming() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := StreamingEntry(s.transcript)
	return e.Clone(), ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GetEntryCount(s.transcript)
}
