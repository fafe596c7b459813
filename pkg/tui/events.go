package tui

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

// Events posted from background goroutines to the screen's event loop.

// TranscriptChangedEvent is posted after every store mutation.
type TranscriptChangedEvent struct {
	tcell.EventTime
}

// NotificationEvent is posted when a toast is pushed.
type NotificationEvent struct {
	tcell.EventTime
}

// SendDoneEvent is posted when a submission has been fully applied.
type SendDoneEvent struct {
	tcell.EventTime
	Err error
}

// ClearDoneEvent is posted when a conversation clear finished.
type ClearDoneEvent struct {
	tcell.EventTime
	Err error
}

type tickEvent struct {
	tcell.EventTime
}

type quitEvent struct {
	tcell.EventTime
}

func stamp() tcell.EventTime {
	var et tcell.EventTime
	et.SetEventTime(time.Now())
	return et
}

func NewTranscriptChangedEvent() *TranscriptChangedEvent {
	return &TranscriptChangedEvent{EventTime: stamp()}
}

func NewNotificationEvent() *NotificationEvent {
	return &NotificationEvent{EventTime: stamp()}
}

func NewSendDoneEvent(err error) *SendDoneEvent {
	return &SendDoneEvent{EventTime: stamp(), Err: err}
}

func NewClearDoneEvent(err error) *ClearDoneEvent {
	return &ClearDoneEvent{EventTime: stamp(), Err: err}
}
