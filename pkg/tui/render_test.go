package tui_test

import (
	"strings"

	"github.com/killallgit/compass/pkg/chat"
	"github.com/killallgit/compass/pkg/notify"
	"github.com/killallgit/compass/pkg/tui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Rendering", func() {
	var screen *tui.TestScreen

	BeforeEach(func() {
		screen = tui.NewTestScreen()
		Expect(screen.Init()).To(Succeed())
		screen.SetSize(40, 10)
	})

	AfterEach(func() {
		screen.Fini()
	})

	texts := func(lines []tui.ScreenLine) []string {
		out := make([]string, 0, len(lines))
		for _, l := range lines {
			out = append(out, l.Text)
		}
		return out
	}

	It("lays out entries with wrapped bodies and no trailing blank", func() {
		user, err := chat.NewUserEntry("hello there")
		Expect(err).NotTo(HaveOccurred())
		answer := chat.NewAssistantEntry("knowledge_assistant", "one two three four five", nil)

		lines := tui.BuildLines([]chat.Entry{user, answer}, 24, strings.ToUpper)

		Expect(texts(lines)).To(Equal([]string{
			"You:",
			"  hello there",
			"",
			"KNOWLEDGE_ASSISTANT:",
			"  one two three four",
			"  five",
		}))
	})

	It("draws the visible window of messages", func() {
		lines := []tui.ScreenLine{{Text: "first"}, {Text: "second"}, {Text: "third"}}

		tui.RenderMessages(screen, lines, tui.NewRect(0, 0, 40, 2), 1)
		screen.Show()

		Expect(screen.Row(0)).To(Equal("second"))
		Expect(screen.Row(1)).To(Equal("third"))
	})

	It("draws the latest toast", func() {
		tui.RenderAlert(screen, notify.Notification{Level: notify.LevelSuccess, Message: "Conversation cleared"}, true, tui.NewRect(0, 3, 40, 1))
		screen.Show()

		Expect(screen.Row(3)).To(Equal("   ✔ Conversation cleared"))
	})

	It("replaces the prompt while busy", func() {
		in := tui.NewInputField().WithContent("draft")

		tui.RenderInput(screen, in, tui.NewRect(0, 4, 40, 3), false)
		screen.Show()
		Expect(screen.Row(5)).To(HavePrefix("│> draft"))

		tui.RenderInput(screen, in, tui.NewRect(0, 4, 40, 3), true)
		screen.Show()
		Expect(screen.Row(5)).To(ContainSubstring("waiting for the answer"))
		Expect(screen.Row(5)).NotTo(ContainSubstring("draft"))
	})

	It("truncates the status bar to the screen width", func() {
		tui.RenderStatus(screen, tui.StatusBar{Agent: "Knowledge Assistant", Model: "GPT-4o-mini"}, tui.NewRect(0, 9, 40, 1))
		screen.Show()

		row := screen.Row(9)
		Expect(row).To(HavePrefix(" Knowledge Assistant (GPT-4o-mini) |"))
		Expect(len([]rune(row))).To(BeNumerically("<=", 40))
	})
})
