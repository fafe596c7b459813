package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/killallgit/compass/pkg/api"
)

// FakeBackend records calls and answers them from configurable functions.
// The zero value answers every chat with a fixed output and every stream
// with a bare done event.
type FakeBackend struct {
	mu sync.Mutex

	ChatFunc   func(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	StreamFunc func(ctx context.Context, req api.StreamRequest) (io.ReadCloser, error)
	ClearErr   error

	chatRequests   []api.ChatRequest
	streamRequests []api.StreamRequest
	cleared        []string
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

// RespondWith makes every chat call succeed with output and sources.
func (f *FakeBackend) RespondWith(output string, sources ...string) *FakeBackend {
	resp := &api.ChatResponse{Success: true, Output: output}
	for _, s := range sources {
		resp.Sources = append(resp.Sources, api.ChatSource{Filename: s})
	}
	f.ChatFunc = func(context.Context, api.ChatRequest) (*api.ChatResponse, error) {
		return resp, nil
	}
	return f
}

// StreamLines makes every stream call return lines, one chunk each.
func (f *FakeBackend) StreamLines(lines ...string) *FakeBackend {
	f.StreamFunc = func(context.Context, api.StreamRequest) (io.ReadCloser, error) {
		return NewChunkedBody(lines...), nil
	}
	return f
}

func (f *FakeBackend) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.mu.Lock()
	f.chatRequests = append(f.chatRequests, req)
	fn := f.ChatFunc
	f.mu.Unlock()

	if fn == nil {
		return &api.ChatResponse{Success: true, Output: "fake response"}, nil
	}
	return fn(ctx, req)
}

func (f *FakeBackend) OpenStream(ctx context.Context, req api.StreamRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.streamRequests = append(f.streamRequests, req)
	fn := f.StreamFunc
	f.mu.Unlock()

	if fn == nil {
		return NewChunkedBody(Done()), nil
	}
	return fn(ctx, req)
}

func (f *FakeBackend) ClearSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, sessionID)
	return f.ClearErr
}

func (f *FakeBackend) ChatRequests() []api.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ChatRequest(nil), f.chatRequests...)
}

func (f *FakeBackend) StreamRequests() []api.StreamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.StreamRequest(nil), f.streamRequests...)
}

func (f *FakeBackend) Cleared() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleared...)
}
