package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/killallgit/compass/pkg/tui/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueExpiry(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	q := NewQueue(2 * time.Second)
	q.now = func() time.Time { return base }

	q.Success("Conversation cleared")
	q.now = func() time.Time { return base.Add(time.Second) }
	q.Error("Error clearing the conversation")

	active := q.Active(base.Add(1500 * time.Millisecond))
	require.Len(t, active, 2)
	assert.Equal(t, LevelSuccess, active[0].Level)
	assert.Equal(t, LevelError, active[1].Level)

	active = q.Active(base.Add(2500 * time.Millisecond))
	require.Len(t, active, 1)
	assert.Equal(t, "Error clearing the conversation", active[0].Message)

	_, ok := q.Latest(base.Add(10 * time.Second))
	assert.False(t, ok)
}

func TestQueueOnPush(t *testing.T) {
	q := NewQueue(0)
	calls := 0
	q.OnPush(func() { calls++ })

	q.Info("hello")
	q.Success("saved")

	assert.Equal(t, 2, calls)
	latest, ok := q.Latest(time.Now())
	require.True(t, ok)
	assert.Equal(t, "saved", latest.Message)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, theme.Plain())

	p.Success("Memory updated: save_memory")
	p.Error("Error communicating with the agent")

	out := buf.String()
	assert.Contains(t, out, "✔ Memory updated: save_memory")
	assert.Contains(t, out, "✖ Error communicating with the agent")
}

func TestMultiAndFunc(t *testing.T) {
	var got []string
	rec := Func{
		SuccessFunc: func(m string) { got = append(got, "ok:"+m) },
		ErrorFunc:   func(m string) { got = append(got, "err:"+m) },
	}

	m := Multi{rec, Nop, rec}
	m.Success("a")
	m.Error("b")

	assert.Equal(t, []string{"ok:a", "ok:a", "err:b", "err:b"}, got)
	assert.Equal(t, "error", LevelError.String())
}
