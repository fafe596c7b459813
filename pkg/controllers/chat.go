package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/killallgit/compass/pkg/agents"
	"github.com/killallgit/compass/pkg/api"
	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/logger"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/stream"
)

// ErrBusy is returned by Send while a previous request is still in flight.
var ErrBusy = errors.New("a request is already in flight")

const (
	emptyAnswerText     = "Sorry, I could not generate a response."
	defaultFailureCause = "error while generating the response"

	agentErrorNotice = "Error communicating with the agent"
	clearedNotice    = "Conversation cleared"
	clearErrorNotice = "Error clearing the conversation"
)

// Backend is the part of the dashboard API the chat view depends on.
type Backend interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	OpenStream(ctx context.Context, req api.StreamRequest) (io.ReadCloser, error)
	ClearSession(ctx context.Context, sessionID string) error
}

type Options struct {
	Agent              string
	MaxResults         int
	CustomInstructions string
	Stream             stream.Options
}

// ChatController owns the transcript and session of one chat view and routes
// each submission to the streaming or request/response path of the selected
// agent.
type ChatController struct {
	backend  Backend
	agents   *agents.Registry
	notifier notify.Notifier
	store    *chat.Store
	session  *chat.Session
	driver   *stream.Driver

	mu           sync.RWMutex
	agent        string
	maxResults   int
	instructions string

	busy atomic.Bool
	log  *logger.ComponentLogger
}

func NewChatController(backend Backend, registry *agents.Registry, notifier notify.Notifier, opts Options) (*ChatController, error) {
	if registry == nil {
		registry = agents.NewRegistry()
	}
	if notifier == nil {
		notifier = notify.Nop
	}
	if opts.Agent == "" {
		opts.Agent = agents.KnowledgeAssistant
	}
	if _, err := registry.Get(opts.Agent); err != nil {
		return nil, err
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if opts.Stream.AgentName == nil {
		opts.Stream.AgentName = registry.Name
	}

	store := chat.NewStore()
	cc := &ChatController{
		backend:      backend,
		agents:       registry,
		notifier:     notifier,
		store:        store,
		session:      chat.NewSession(),
		driver:       stream.NewDriver(store, notifier, opts.Stream),
		agent:        opts.Agent,
		maxResults:   opts.MaxResults,
		instructions: opts.CustomInstructions,
		log:          logger.WithComponent("chat_controller"),
	}
	store.ResetForAgent(opts.Agent, registry.MountWelcome(opts.Agent))
	return cc, nil
}

// Send appends the user's text and waits for the agent's answer to be
// applied to the transcript. Backend failures end up in the transcript and
// the notifier; the returned error covers only rejected submissions.
func (cc *ChatController) Send(ctx context.Context, text string) error {
	if _, err := chat.NewUserEntry(text); err != nil {
		return err
	}
	if !cc.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer cc.busy.Store(false)

	user, err := cc.store.AppendUserEntry(text)
	if err != nil {
		return err
	}

	agent := cc.Agent()
	sessionID := cc.session.ID()
	cc.log.Debug("sending message", "agent", agent, "session", sessionID)

	if cc.agents.IsStreamingAgent(agent) {
		_, err := cc.driver.Stream(ctx, agent, func(ctx context.Context) (io.ReadCloser, error) {
			return cc.backend.OpenStream(ctx, api.StreamRequest{Query: user.Text, SessionID: sessionID})
		})
		return err
	}

	cc.request(ctx, agent, sessionID, user.Text)
	return nil
}

func (cc *ChatController) request(ctx context.Context, agent, sessionID, query string) {
	cc.mu.RLock()
	req := api.ChatRequest{
		Query:              query,
		AgentType:          agent,
		SessionID:          sessionID,
		CustomInstructions: cc.instructions,
		MaxResults:         cc.maxResults,
	}
	cc.mu.RUnlock()

	resp, err := cc.backend.Chat(ctx, req)
	if err == nil && !resp.Success {
		cause := resp.Error
		if cause == "" {
			cause = defaultFailureCause
		}
		err = errors.New(cause)
	}
	if err != nil {
		cc.log.Error("agent request failed", "agent", agent, "error", err)
		cc.store.AppendAssistantError(agent, fmt.Sprintf("Sorry, something went wrong: %v. Please try again.", err))
		cc.notifier.Error(agentErrorNotice)
		return
	}

	output := resp.Output
	if output == "" {
		output = emptyAnswerText
	}
	sources := make([]chat.Source, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		sources = append(sources, chat.Source{Label: s.Filename})
	}
	cc.store.AppendAssistantComplete(agent, output, sources)
}

// SelectAgent switches the active agent and resets the transcript with its
// welcome. The session is kept.
func (cc *ChatController) SelectAgent(kind string) error {
	if _, err := cc.agents.Get(kind); err != nil {
		return err
	}
	cc.mu.Lock()
	cc.agent = kind
	cc.mu.Unlock()

	cc.store.ResetForAgent(kind, cc.agents.SwitchWelcome(kind))
	cc.log.Info("agent selected", "agent", kind)
	return nil
}

// Clear asks the backend to forget the session, then always starts a new
// session with a fresh transcript. A backend failure is notified and
// returned.
func (cc *ChatController) Clear(ctx context.Context) error {
	previous := cc.session.ID()
	cc.store.Clear()

	err := cc.backend.ClearSession(ctx, previous)

	cc.session.Renew()
	agent := cc.Agent()
	cc.store.ResetForAgent(agent, cc.agents.ClearWelcome(agent))

	if err != nil {
		cc.log.Error("failed to clear session", "session", previous, "error", err)
		cc.notifier.Error(clearErrorNotice)
		return fmt.Errorf("failed to clear session: %w", err)
	}
	cc.notifier.Success(clearedNotice)
	return nil
}

func (cc *ChatController) Agent() string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.agent
}

func (cc *ChatController) Agents() *agents.Registry {
	return cc.agents
}

func (cc *ChatController) Session() string {
	return cc.session.ID()
}

// Busy reports whether a Send is in flight.
func (cc *ChatController) Busy() bool {
	return cc.busy.Load()
}

func (cc *ChatController) Entries() []chat.Entry {
	return cc.store.Entries()
}

func (cc *ChatController) Store() *chat.Store {
	return cc.store
}

func (cc *ChatController) GetLastEntry() (chat.Entry, bool) {
	return chat.GetLastEntry(cc.store.Snapshot())
}
