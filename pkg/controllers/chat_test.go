package controllers_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/killallgit/compass/pkg/agents"
	"github.com/killallgit/compass/pkg/api"
	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/controllers"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/testutil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*api.ChatResponse)
	return resp, args.Error(1)
}

func (m *MockBackend) OpenStream(ctx context.Context, req api.StreamRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.Error(1)
}

func (m *MockBackend) ClearSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type notices struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *notices) Success(m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, m)
}

func (n *notices) Error(m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, m)
}

func (n *notices) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

func (n *notices) Successes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.successes...)
}

var _ notify.Notifier = (*notices)(nil)

var _ = Describe("ChatController", func() {
	var (
		backend    *testutil.FakeBackend
		notes      *notices
		controller *controllers.ChatController
		ctx        context.Context
	)

	newController := func(agent string) *controllers.ChatController {
		c, err := controllers.NewChatController(backend, agents.NewRegistry(), notes, controllers.Options{Agent: agent})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	BeforeEach(func() {
		backend = testutil.NewFakeBackend()
		notes = &notices{}
		ctx = context.Background()
		controller = newController(agents.KnowledgeAssistant)
	})

	Describe("NewChatController", func() {
		It("starts with one welcome entry and a session id", func() {
			entries := controller.Entries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].IsAssistant()).To(BeTrue())
			Expect(entries[0].Lifecycle).To(Equal(chat.LifecycleComplete))
			Expect(controller.Session()).To(HavePrefix("session_"))
			Expect(controller.Agent()).To(Equal(agents.KnowledgeAssistant))
		})

		It("greets with the Memory Manager text when that agent is selected", func() {
			c := newController(agents.MemoryManager)
			Expect(c.Entries()[0].Text).To(Equal(agents.NewRegistry().MountWelcome(agents.MemoryManager)))
		})

		It("rejects an unknown agent", func() {
			_, err := controllers.NewChatController(backend, nil, nil, controllers.Options{Agent: "nope"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Send on a request/response agent", func() {
		It("appends the user entry and the answer with its sources", func() {
			backend.RespondWith("Voici votre réponse", "cv.pdf")

			Expect(controller.Send(ctx, "Bonjour")).To(Succeed())

			entries := controller.Entries()
			Expect(entries).To(HaveLen(3))
			Expect(entries[1].Role).To(Equal(chat.RoleUser))
			Expect(entries[1].Text).To(Equal("Bonjour"))
			Expect(entries[2].Role).To(Equal(chat.RoleAssistant))
			Expect(entries[2].Text).To(Equal("Voici votre réponse"))
			Expect(entries[2].Sources).To(Equal([]chat.Source{{Label: "cv.pdf"}}))
			Expect(entries[2].Lifecycle).To(Equal(chat.LifecycleComplete))
			Expect(entries[2].AgentKind).To(Equal(agents.KnowledgeAssistant))

			reqs := backend.ChatRequests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0]).To(Equal(api.ChatRequest{
				Query:      "Bonjour",
				AgentType:  agents.KnowledgeAssistant,
				SessionID:  controller.Session(),
				MaxResults: 5,
			}))
			Expect(controller.Busy()).To(BeFalse())
		})

		It("uses the fallback text for an empty answer", func() {
			backend.RespondWith("")

			Expect(controller.Send(ctx, "hi")).To(Succeed())
			last, _ := controller.GetLastEntry()
			Expect(last.Text).To(Equal("Sorry, I could not generate a response."))
		})

		It("records transport failures as an error entry and notifies", func() {
			backend.ChatFunc = func(context.Context, api.ChatRequest) (*api.ChatResponse, error) {
				return nil, &api.TransportError{Op: "chat", Status: 503}
			}

			Expect(controller.Send(ctx, "hi")).To(Succeed())

			last, _ := controller.GetLastEntry()
			Expect(last.IsError).To(BeTrue())
			Expect(last.Lifecycle).To(Equal(chat.LifecycleComplete))
			Expect(last.Text).To(ContainSubstring("HTTP error! status: 503"))
			Expect(notes.Errors()).To(ConsistOf("Error communicating with the agent"))
		})

		It("treats success=false as a failure", func() {
			backend.ChatFunc = func(context.Context, api.ChatRequest) (*api.ChatResponse, error) {
				return &api.ChatResponse{Success: false, Error: "quota exceeded"}, nil
			}

			Expect(controller.Send(ctx, "hi")).To(Succeed())

			last, _ := controller.GetLastEntry()
			Expect(last.IsError).To(BeTrue())
			Expect(last.Text).To(ContainSubstring("quota exceeded"))
		})
	})

	Describe("Send on a streaming agent", func() {
		BeforeEach(func() {
			controller = newController(agents.MemoryManager)
		})

		It("streams the answer into a single entry", func() {
			backend.StreamLines(testutil.Token("I "), testutil.Token("understand."), testutil.Done())

			Expect(controller.Send(ctx, "Remember that I like Go")).To(Succeed())

			entries := controller.Entries()
			Expect(entries).To(HaveLen(3))
			Expect(entries[2].Text).To(Equal("I understand."))
			Expect(entries[2].Lifecycle).To(Equal(chat.LifecycleComplete))

			reqs := backend.StreamRequests()
			Expect(reqs).To(ConsistOf(api.StreamRequest{Query: "Remember that I like Go", SessionID: controller.Session()}))
			Expect(backend.ChatRequests()).To(BeEmpty())
		})

		It("fails the entry and names the agent when the stream cannot open", func() {
			backend.StreamFunc = func(context.Context, api.StreamRequest) (io.ReadCloser, error) {
				return nil, &api.TransportError{Op: "open stream", Status: 500}
			}

			Expect(controller.Send(ctx, "hi")).To(Succeed())

			last, _ := controller.GetLastEntry()
			Expect(last.Lifecycle).To(Equal(chat.LifecycleErrored))
			Expect(last.IsError).To(BeTrue())
			Expect(notes.Errors()).To(ConsistOf("Error communicating with Memory Manager"))
		})

		It("notifies when a tool reports success", func() {
			backend.StreamLines(
				testutil.ToolStart("save_memory"),
				testutil.ToolEnd("save_memory", "✅ Memory saved"),
				testutil.Token("Saved."),
				testutil.Done(),
			)

			Expect(controller.Send(ctx, "save it")).To(Succeed())
			Expect(notes.Successes()).To(ConsistOf("Memory updated: save_memory"))
		})
	})

	Describe("single flight", func() {
		It("rejects blank input without touching the transcript", func() {
			err := controller.Send(ctx, "   ")
			Expect(errors.Is(err, chat.ErrInvalidInput)).To(BeTrue())
			Expect(controller.Entries()).To(HaveLen(1))
		})

		It("rejects a second send while the first is in flight", func() {
			controller = newController(agents.MemoryManager)
			body := testutil.NewHangingBody(testutil.Token("thinking"))
			backend.StreamFunc = func(context.Context, api.StreamRequest) (io.ReadCloser, error) {
				return body, nil
			}

			done := make(chan error, 1)
			go func() {
				done <- controller.Send(ctx, "first")
			}()

			Eventually(controller.Busy).Should(BeTrue())
			Expect(controller.Send(ctx, "second")).To(MatchError(controllers.ErrBusy))

			body.Close()
			Eventually(done, time.Second).Should(Receive(BeNil()))
			Expect(controller.Busy()).To(BeFalse())

			users := 0
			for _, e := range controller.Entries() {
				if e.IsUser() {
					users++
				}
			}
			Expect(users).To(Equal(1))
		})
	})

	Describe("SelectAgent", func() {
		It("resets the transcript with the switch welcome and keeps the session", func() {
			backend.RespondWith("answer")
			Expect(controller.Send(ctx, "hi")).To(Succeed())
			session := controller.Session()

			Expect(controller.SelectAgent(agents.ResearchSpecialist)).To(Succeed())

			entries := controller.Entries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Text).To(HavePrefix("Agent Research Specialist activated!"))
			Expect(entries[0].AgentKind).To(Equal(agents.ResearchSpecialist))
			Expect(controller.Session()).To(Equal(session))
		})

		It("refuses unknown agents", func() {
			Expect(controller.SelectAgent("ghost")).To(HaveOccurred())
			Expect(controller.Agent()).To(Equal(agents.KnowledgeAssistant))
		})
	})

	Describe("Clear", func() {
		It("resets to one welcome entry and renews the session even when the delete fails", func() {
			mb := &MockBackend{}
			c, err := controllers.NewChatController(mb, agents.NewRegistry(), notes, controllers.Options{})
			Expect(err).NotTo(HaveOccurred())

			mb.On("Chat", mock.Anything, mock.Anything).Return(&api.ChatResponse{Success: true, Output: "ok"}, nil).Once()
			Expect(c.Send(ctx, "hello")).To(Succeed())
			Expect(c.Entries()).To(HaveLen(3))

			previous := c.Session()
			mb.On("ClearSession", mock.Anything, previous).Return(errors.New("boom")).Once()

			Expect(c.Clear(ctx)).To(HaveOccurred())

			entries := c.Entries()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Text).To(Equal(agents.ClearedWelcome))
			Expect(c.Session()).NotTo(Equal(previous))
			Expect(notes.Errors()).To(ConsistOf("Error clearing the conversation"))
			mb.AssertExpectations(GinkgoT())
		})

		It("notifies success when the backend forgets the session", func() {
			previous := controller.Session()

			Expect(controller.Clear(ctx)).To(Succeed())

			Expect(backend.Cleared()).To(ConsistOf(previous))
			Expect(controller.Entries()).To(HaveLen(1))
			Expect(notes.Successes()).To(ConsistOf("Conversation cleared"))
		})
	})
})
