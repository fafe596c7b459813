package testutil

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// SSELine encodes one event as a `data:` line terminated by a blank line, the
// way the backend writes it.
func SSELine(fields map[string]string) string {
	payload, _ := json.Marshal(fields)
	return "data: " + string(payload) + "\n\n"
}

// Token, ToolStart, ToolEnd and Done build the common event lines.
func Token(content string) string {
	return SSELine(map[string]string{"type": "token", "content": content})
}

func ToolStart(tool string) string {
	return SSELine(map[string]string{"type": "tool_call_start", "tool": tool})
}

func ToolEnd(tool, result string) string {
	return SSELine(map[string]string{"type": "tool_call_end", "tool": tool, "result": result})
}

func Done() string {
	return SSELine(map[string]string{"type": "done"})
}

// ChunkedBody is a fake response body that hands out fixed chunks, one per
// Read call.
type ChunkedBody struct {
	mu         sync.Mutex
	chunks     [][]byte
	chunkDelay time.Duration
	failAfter  int
	failErr    error
	reads      int
	closed     bool
	closeCh    chan struct{}
}

// NewChunkedBody returns a body yielding each chunk as a separate read.
func NewChunkedBody(chunks ...string) *ChunkedBody {
	b := &ChunkedBody{closeCh: make(chan struct{})}
	for _, c := range chunks {
		b.chunks = append(b.chunks, []byte(c))
	}
	return b
}

// SplitEvery cuts the concatenation of lines into chunks of size bytes,
// ignoring line and rune boundaries.
func SplitEvery(size int, lines ...string) *ChunkedBody {
	raw := []byte(strings.Join(lines, ""))
	b := &ChunkedBody{closeCh: make(chan struct{})}
	for i := 0; i < len(raw); i += size {
		end := i + size
		if end > len(raw) {
			end = len(raw)
		}
		b.chunks = append(b.chunks, append([]byte(nil), raw[i:end]...))
	}
	return b
}

// SetChunkDelay sets the delay before each chunk is returned
func (b *ChunkedBody) SetChunkDelay(delay time.Duration) {
	b.chunkDelay = delay
}

// SetFailAfter makes the read after n chunks return err
func (b *ChunkedBody) SetFailAfter(n int, err error) {
	b.failAfter = n
	b.failErr = err
}

func (b *ChunkedBody) Read(p []byte) (int, error) {
	if b.chunkDelay > 0 {
		select {
		case <-time.After(b.chunkDelay):
		case <-b.closeCh:
			return 0, io.ErrClosedPipe
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if b.failErr != nil && b.reads >= b.failAfter {
		return 0, b.failErr
	}
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}

	b.reads++
	chunk := b.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		b.chunks[0] = chunk[n:]
	} else {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *ChunkedBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.closeCh)
	}
	return nil
}

// Closed reports whether Close was called.
func (b *ChunkedBody) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// HangingBody delivers its prefix and then blocks until closed, like a
// backend that stops sending without closing the connection.
type HangingBody struct {
	prefix  []byte
	once    sync.Once
	closeCh chan struct{}
}

func NewHangingBody(prefix string) *HangingBody {
	return &HangingBody{prefix: []byte(prefix), closeCh: make(chan struct{})}
}

func (h *HangingBody) Read(p []byte) (int, error) {
	if len(h.prefix) > 0 {
		n := copy(p, h.prefix)
		h.prefix = h.prefix[n:]
		return n, nil
	}
	<-h.closeCh
	return 0, errors.New("body closed")
}

func (h *HangingBody) Close() error {
	h.once.Do(func() { close(h.closeCh) })
	return nil
}
