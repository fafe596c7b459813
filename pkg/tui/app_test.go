package tui_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/compass/pkg/agents"
	"github.com/killallgit/compass/pkg/api"
	"github.com/killallgit/compass/pkg/controllers"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/testutil"
	"github.com/killallgit/compass/pkg/tui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// heldController accepts a send but never reports busy, so only the screen's
// own bookkeeping stops a second submission.
type heldController struct {
	*controllers.ChatController
	release chan struct{}

	mu   sync.Mutex
	sent []string
}

func (h *heldController) Send(ctx context.Context, text string) error {
	h.mu.Lock()
	h.sent = append(h.sent, text)
	h.mu.Unlock()

	select {
	case <-h.release:
	case <-ctx.Done():
	}
	return nil
}

func (h *heldController) Busy() bool { return false }

func (h *heldController) Sent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sent...)
}

var _ = Describe("App", func() {
	var (
		screen  *tui.TestScreen
		backend *testutil.FakeBackend
		cc      *controllers.ChatController
		toasts  *notify.Queue
		done    chan error
		cancel  context.CancelFunc
	)

	content := func() string {
		return screen.CaptureContent()
	}

	startWith := func(controller tui.Controller) {
		app := tui.NewApp(screen, controller, toasts)
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- app.Run(ctx) }()
		Eventually(app.Ready()).Should(BeClosed())
		Eventually(content).Should(ContainSubstring("tab agent"))
	}

	start := func() { startWith(cc) }

	BeforeEach(func() {
		screen = tui.NewTestScreen()
		backend = testutil.NewFakeBackend()
		toasts = notify.NewQueue(time.Minute)

		var err error
		cc, err = controllers.NewChatController(backend, nil, toasts, controllers.Options{})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive())
	})

	It("shows the welcome and the selected agent", func() {
		start()

		Expect(content()).To(ContainSubstring("Hello! I am your personal AI assistant."))
		Expect(content()).To(ContainSubstring("Knowledge Assistant (GPT-4o-mini)"))
		Expect(content()).To(ContainSubstring("| ready |"))
	})

	It("sends typed text and shows the answer with its sources", func() {
		backend.RespondWith("Voici votre réponse", "cv.pdf")
		start()

		screen.Type("Bonjour")
		Eventually(content).Should(ContainSubstring("> Bonjour"))
		screen.Press(tcell.KeyEnter)

		Eventually(content).Should(ContainSubstring("Voici votre réponse"))
		Expect(content()).To(ContainSubstring("You:"))
		Expect(content()).To(ContainSubstring("cv.pdf"))
		Expect(content()).NotTo(ContainSubstring("> Bonjour"))
		Expect(backend.ChatRequests()).To(HaveLen(1))
		Expect(backend.ChatRequests()[0].Query).To(Equal("Bonjour"))
	})

	It("ignores blank submissions", func() {
		start()

		screen.Type("   ")
		screen.Press(tcell.KeyEnter)

		Consistently(backend.ChatRequests, 200*time.Millisecond).Should(BeEmpty())
	})

	It("switches agents with tab", func() {
		start()

		screen.Press(tcell.KeyTab)

		Eventually(content).Should(ContainSubstring("Agent Research Specialist activated!"))
		Expect(content()).To(ContainSubstring("Research Specialist (GPT-4o)"))
		Expect(cc.Agent()).To(Equal(agents.ResearchSpecialist))
	})

	It("streams memory manager answers and shows tool toasts", func() {
		Expect(cc.SelectAgent(agents.MemoryManager)).To(Succeed())
		backend.StreamLines(
			testutil.ToolStart("save_memory"),
			testutil.ToolEnd("save_memory", "✅ saved"),
			testutil.Token("Noted, "),
			testutil.Token("thanks."),
			testutil.Done(),
		)
		start()

		screen.Type("I prefer remote work")
		screen.Press(tcell.KeyEnter)

		Eventually(content).Should(ContainSubstring("Noted, thanks."))
		Eventually(content).Should(ContainSubstring("Memory updated: save_memory"))
		Expect(content()).To(ContainSubstring("✓ save_memory:"))
	})

	It("locks the input while an answer is pending", func() {
		Expect(cc.SelectAgent(agents.MemoryManager)).To(Succeed())
		body := testutil.NewHangingBody(testutil.Token("partial"))
		backend.StreamFunc = func(context.Context, api.StreamRequest) (io.ReadCloser, error) {
			return body, nil
		}
		start()

		screen.Type("hello")
		screen.Press(tcell.KeyEnter)

		Eventually(content).Should(ContainSubstring("waiting for the answer"))
		Eventually(content).Should(ContainSubstring("partial"))

		screen.Type("again")
		screen.Press(tcell.KeyEnter)
		Eventually(content).Should(ContainSubstring("Please wait for the current answer"))
		Expect(backend.StreamRequests()).To(HaveLen(1))

		body.Close()
		Eventually(content).Should(ContainSubstring("Sorry, something went wrong"))
		Eventually(content).Should(ContainSubstring("Error communicating with Memory Manager"))
		Eventually(content).Should(ContainSubstring("| ready |"))
	})

	It("switches agent and clears while an answer is still streaming", func() {
		Expect(cc.SelectAgent(agents.MemoryManager)).To(Succeed())
		body := testutil.NewHangingBody(testutil.Token("partial"))
		backend.StreamFunc = func(context.Context, api.StreamRequest) (io.ReadCloser, error) {
			return body, nil
		}
		start()
		session := cc.Session()

		screen.Type("hi")
		screen.Press(tcell.KeyEnter)
		Eventually(content).Should(ContainSubstring("partial"))

		screen.Press(tcell.KeyTab)
		Eventually(content).Should(ContainSubstring("Agent Knowledge Assistant activated!"))
		Expect(cc.Agent()).To(Equal(agents.KnowledgeAssistant))
		Expect(content()).NotTo(ContainSubstring("partial"))

		screen.Press(tcell.KeyCtrlL)
		Eventually(backend.Cleared).Should(Equal([]string{session}))
		Eventually(content).Should(ContainSubstring(agents.ClearedWelcome))

		body.Close()
		Eventually(content).Should(ContainSubstring("| ready |"))
		Expect(content()).NotTo(ContainSubstring("Sorry, something went wrong"))
		Expect(cc.Entries()).To(HaveLen(1))
	})

	It("keeps the second message when enter is pressed before the first send starts", func() {
		held := &heldController{ChatController: cc, release: make(chan struct{})}
		startWith(held)

		screen.Type("first")
		screen.Press(tcell.KeyEnter)
		screen.Type("second")
		screen.Press(tcell.KeyEnter)

		Eventually(content).Should(ContainSubstring("Please wait for the current answer"))
		Eventually(held.Sent).Should(Equal([]string{"first"}))

		close(held.release)
		Eventually(content).Should(ContainSubstring("> second"))
		Expect(held.Sent()).To(Equal([]string{"first"}))
	})

	It("clears the conversation with ctrl+l", func() {
		backend.RespondWith("first answer")
		start()
		session := cc.Session()

		screen.Type("hi")
		screen.Press(tcell.KeyEnter)
		Eventually(content).Should(ContainSubstring("first answer"))

		screen.Press(tcell.KeyCtrlL)

		Eventually(content).Should(ContainSubstring(agents.ClearedWelcome))
		Eventually(content).Should(ContainSubstring("Conversation cleared"))
		Expect(content()).NotTo(ContainSubstring("first answer"))
		Expect(backend.Cleared()).To(Equal([]string{session}))
		Expect(cc.Session()).NotTo(Equal(session))
	})

	It("quits on escape", func() {
		start()

		screen.Press(tcell.KeyEscape)

		var err error
		Eventually(done).Should(Receive(&err))
		Expect(err).NotTo(HaveOccurred())
		done <- nil
	})
})
