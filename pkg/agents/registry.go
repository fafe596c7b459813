package agents

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/killallgit/compass/pkg/logger"
)

// Agent kinds served by the backend.
const (
	KnowledgeAssistant = "knowledge_assistant"
	ResearchSpecialist = "research_specialist"
	MultiAgent         = "multi_agent"
	MemoryManager      = "memory_manager"
)

// Agent describes one selectable backend agent.
type Agent struct {
	Kind        string `json:"kind" yaml:"kind"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Model       string `json:"model" yaml:"model"`

	// Streaming agents answer over the event stream endpoint instead of a
	// single request/response call.
	Streaming bool `json:"streaming" yaml:"streaming"`

	// Greeting replaces the generated switch welcome when set.
	Greeting string `json:"-" yaml:"-"`
}

const genericWelcome = "Hello! I am your personal AI assistant. I can search your documents, " +
	"answer your questions and much more.\n\nWhat would you like to know?"

const memoryManagerGreeting = "Hi! 👋 I am your Memory Manager. I can help you:\n" +
	"• Clarify your career aspirations\n" +
	"• Define your work preferences\n" +
	"• Save and manage your career goals\n" +
	"• Review the memories already recorded\n\n" +
	"Tell me, what brings you here today?"

// ClearedWelcome seeds the transcript after the conversation is cleared.
const ClearedWelcome = "Conversation cleared. How can I help you?"

// Registry is the catalogue of agents a user can chat with.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	log    *logger.ComponentLogger
}

// NewRegistry returns a registry holding the default agents.
func NewRegistry() *Registry {
	r := &Registry{
		agents: make(map[string]Agent),
		log:    logger.WithComponent("agents"),
	}
	r.RegisterDefaults()
	return r
}

func (r *Registry) RegisterDefaults() {
	for _, a := range Defaults() {
		r.Register(a)
	}
	r.log.Debug("registered default agents", "count", len(r.agents))
}

// Defaults lists the agents every backend offers, in display order.
func Defaults() []Agent {
	return []Agent{
		{
			Kind:        KnowledgeAssistant,
			Name:        "Knowledge Assistant",
			Description: "Quick questions about your documents",
			Model:       "GPT-4o-mini",
		},
		{
			Kind:        ResearchSpecialist,
			Name:        "Research Specialist",
			Description: "In-depth analyses and syntheses",
			Model:       "GPT-4o",
		},
		{
			Kind:        MultiAgent,
			Name:        "Multi-Agent System",
			Description: "Smart triage and delegation",
			Model:       "Multi-agents",
		},
		{
			Kind:        MemoryManager,
			Name:        "Memory Manager",
			Description: "Management of your career aspirations and preferences",
			Model:       "GPT-4o-mini",
			Streaming:   true,
			Greeting:    memoryManagerGreeting,
		},
	}
}

func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Kind == "" {
		return fmt.Errorf("agent kind must not be empty")
	}
	if _, exists := r.agents[a.Kind]; exists {
		return fmt.Errorf("agent kind %s is already registered", a.Kind)
	}
	r.agents[a.Kind] = a
	return nil
}

func (r *Registry) Get(kind string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[kind]
	if !ok {
		return Agent{}, fmt.Errorf("unknown agent kind: %s", kind)
	}
	return a, nil
}

// List returns the registered agents, defaults first in display order and
// any extra agents sorted by kind.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order := map[string]int{}
	for i, a := range Defaults() {
		order[a.Kind] = i
	}

	list := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		oi, iok := order[list[i].Kind]
		oj, jok := order[list[j].Kind]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return list[i].Kind < list[j].Kind
		}
	})
	return list
}

// Next returns the agent after kind in display order, wrapping around.
func (r *Registry) Next(kind string) Agent {
	list := r.List()
	for i, a := range list {
		if a.Kind == kind {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// IsStreamingAgent reports whether kind answers over the event stream.
func (r *Registry) IsStreamingAgent(kind string) bool {
	a, err := r.Get(kind)
	return err == nil && a.Streaming
}

// Name returns the display name of kind, or kind itself when unknown.
func (r *Registry) Name(kind string) string {
	if a, err := r.Get(kind); err == nil {
		return a.Name
	}
	return kind
}

// MountWelcome is the first entry shown when the chat opens with kind
// selected.
func (r *Registry) MountWelcome(kind string) string {
	if a, err := r.Get(kind); err == nil && a.Greeting != "" {
		return a.Greeting
	}
	return genericWelcome
}

// SwitchWelcome is the first entry shown after switching to kind.
func (r *Registry) SwitchWelcome(kind string) string {
	a, err := r.Get(kind)
	if err != nil {
		return genericWelcome
	}
	if a.Greeting != "" {
		return a.Greeting
	}
	return fmt.Sprintf("Agent %s activated! I specialise in: %s. How can I help you?",
		a.Name, strings.ToLower(a.Description))
}

// ClearWelcome is the first entry shown after the conversation is cleared.
func (r *Registry) ClearWelcome(string) string {
	return ClearedWelcome
}
