package stream

import "github.com/killallgit/compass/pkg/chat"

// Reduce folds one event into the transcript for the streaming entry id.
// Unknown event types leave the transcript untouched.
func Reduce(t chat.Transcript, id string, ev Event) (chat.Transcript, error) {
	switch ev.Type {
	case EventToken:
		return chat.AppendToken(t, id, ev.Content)
	case EventToolCallStart:
		return chat.StartToolCall(t, id, ev.Tool)
	case EventToolCallEnd:
		return chat.CompleteToolCall(t, id, ev.Tool, ev.Result)
	case EventDone:
		return chat.FinalizeStream(t, id)
	default:
		return t, nil
	}
}

// ReduceAll folds events in order and stops at the first error.
func ReduceAll(t chat.Transcript, id string, events []Event) (chat.Transcript, error) {
	var err error
	for _, ev := range events {
		t, err = Reduce(t, id, ev)
		if err != nil {
			return t, err
		}
		if ev.Type == EventDone {
			break
		}
	}
	return t, nil
}
