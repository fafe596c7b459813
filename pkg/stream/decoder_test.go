package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderCompleteLines(t *testing.T) {
	d := NewDecoder()

	events, errs := d.Feed([]byte("data: {\"type\":\"token\",\"content\":\"Hel\"}\n\ndata: {\"type\":\"done\"}\n\n"))
	require.Empty(t, errs)
	require.Len(t, events, 2)
	assert.Equal(t, Event{Type: EventToken, Content: "Hel"}, events[0])
	assert.Equal(t, EventDone, events[1].Type)
	assert.Zero(t, d.Buffered())
}

func TestDecoderChunkBoundaries(t *testing.T) {
	raw := "data: {\"type\":\"token\",\"content\":\"héllo wörld\"}\n" +
		"data: {\"type\":\"tool_call_start\",\"tool\":\"save_memory\"}\n" +
		"data: {\"type\":\"tool_call_end\",\"tool\":\"save_memory\",\"result\":\"✅ saved\"}\n"

	whole, errs := NewDecoder().Feed([]byte(raw))
	require.Empty(t, errs)
	require.Len(t, whole, 3)

	for size := 1; size <= len(raw); size++ {
		d := NewDecoder()
		var got []Event
		for i := 0; i < len(raw); i += size {
			end := i + size
			if end > len(raw) {
				end = len(raw)
			}
			events, errs := d.Feed([]byte(raw[i:end]))
			require.Empty(t, errs, "chunk size %d", size)
			got = append(got, events...)
		}
		assert.Equal(t, whole, got, "chunk size %d", size)
	}
}

func TestDecoderMalformedLine(t *testing.T) {
	d := NewDecoder()

	events, errs := d.Feed([]byte("data: {\"type\":\"token\",\"content\":\"A\"}\ndata: {not json}\ndata: {\"type\":\"token\",\"content\":\"B\"}\n"))
	require.Len(t, errs, 1)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].Content)
	assert.Equal(t, "B", events[1].Content)

	var decodeErr *DecodeError
	require.True(t, errors.As(errs[0], &decodeErr))
	assert.Equal(t, "data: {not json}", decodeErr.Line)
}

func TestDecoderIgnoresOtherLines(t *testing.T) {
	d := NewDecoder()

	events, errs := d.Feed([]byte(": keepalive\nevent: message\nid: 7\n\ndata: {\"type\":\"done\"}\r\n"))
	assert.Empty(t, errs)
	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Type)
}

func TestDecoderFlush(t *testing.T) {
	d := NewDecoder()

	events, errs := d.Feed([]byte("data: {\"type\":\"token\",\"content\":\"tail\"}"))
	assert.Empty(t, events)
	assert.Empty(t, errs)
	assert.Positive(t, d.Buffered())

	events, errs = d.Flush()
	assert.Empty(t, errs)
	require.Len(t, events, 1)
	assert.Equal(t, "tail", events[0].Content)

	events, errs = d.Flush()
	assert.Nil(t, events)
	assert.Nil(t, errs)
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		marker  string
		known   bool
		success bool
	}{
		{"token", Event{Type: EventToken, Content: "✅"}, "✅", true, false},
		{"tool end with marker", Event{Type: EventToolCallEnd, Result: "✅ Memory saved"}, "✅", true, true},
		{"tool end without marker", Event{Type: EventToolCallEnd, Result: "nothing to save"}, "✅", true, false},
		{"custom marker", Event{Type: EventToolCallEnd, Result: "[ok] stored"}, "[ok]", true, true},
		{"empty marker", Event{Type: EventToolCallEnd, Result: "✅"}, "", true, false},
		{"unknown type", Event{Type: "heartbeat"}, "✅", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.known, tt.event.Known())
			assert.Equal(t, tt.success, tt.event.IsSuccessResult(tt.marker))
		})
	}
}
