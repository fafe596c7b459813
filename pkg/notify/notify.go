package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/killallgit/compass/pkg/tui/theme"
)

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 4 * time.Second

// Notification is a transient, user-visible message.
type Notification struct {
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Func adapts plain functions to Notifier. Nil fields are ignored.
type Func struct {
	SuccessFunc func(message string)
	ErrorFunc   func(message string)
}

func (f Func) Success(message string) {
	if f.SuccessFunc != nil {
		f.SuccessFunc(message)
	}
}

func (f Func) Error(message string) {
	if f.ErrorFunc != nil {
		f.ErrorFunc(message)
	}
}

// Nop discards every notification.
var Nop Notifier = Func{}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(message string) {
	for _, n := range m {
		n.Success(message)
	}
}

func (m Multi) Error(message string) {
	for _, n := range m {
		n.Error(message)
	}
}

// Queue keeps recent notifications until they expire. The interactive screen
// polls Active on every redraw.
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  []Notification
	now    func() time.Time
	onPush func()
}

func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{ttl: ttl, now: time.Now}
}

// OnPush registers a callback invoked after every push, outside the lock.
func (q *Queue) OnPush(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onPush = fn
}

func (q *Queue) Push(level Level, message string) Notification {
	q.mu.Lock()
	created := q.now()
	n := Notification{
		Level:     level,
		Message:   message,
		CreatedAt: created,
		ExpiresAt: created.Add(q.ttl),
	}
	q.items = append(q.items, n)
	cb := q.onPush
	q.mu.Unlock()

	if cb != nil {
		cb()
	}
	return n
}

func (q *Queue) Success(message string) {
	q.Push(LevelSuccess, message)
}

func (q *Queue) Error(message string) {
	q.Push(LevelError, message)
}

func (q *Queue) Info(message string) {
	q.Push(LevelInfo, message)
}

// Active drops expired notifications and returns the remaining ones, oldest
// first.
func (q *Queue) Active(now time.Time) []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	for _, n := range q.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	q.items = kept
	return append([]Notification(nil), kept...)
}

// Latest returns the newest unexpired notification.
func (q *Queue) Latest(now time.Time) (Notification, bool) {
	active := q.Active(now)
	if len(active) == 0 {
		return Notification{}, false
	}
	return active[len(active)-1], true
}

// Printer writes notifications to a terminal stream, one styled box each.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	styles *theme.Styles
}

func NewPrinter(w io.Writer, styles *theme.Styles) *Printer {
	if styles == nil {
		styles = theme.DefaultStyles()
	}
	return &Printer{w: w, styles: styles}
}

func (p *Printer) Success(message string) {
	p.print(p.styles.SuccessToast.Render("✔ " + message))
}

func (p *Printer) Error(message string) {
	p.print(p.styles.ErrorToast.Render("✖ " + message))
}

func (p *Printer) print(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}
