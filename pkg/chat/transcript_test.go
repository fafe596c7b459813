package chat_test

import (
	"errors"

	"github.com/killallgit/compass/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transcript", func() {
	var (
		transcript chat.Transcript
		streamID   string
	)

	BeforeEach(func() {
		transcript = chat.ResetForAgent("memory_manager", "Hi! I'm your Memory Manager.")
		entry := chat.NewStreamingEntry("memory_manager")
		streamID = entry.ID

		var err error
		transcript, err = chat.BeginStream(transcript, entry)
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("ResetForAgent", func() {
		It("should seed exactly one complete welcome entry", func() {
			t := chat.ResetForAgent("knowledge_assistant", "Welcome")

			Expect(t.Entries).To(HaveLen(1))
			Expect(t.Entries[0].Role).To(Equal(chat.RoleAssistant))
			Expect(t.Entries[0].Text).To(Equal("Welcome"))
			Expect(t.Entries[0].Lifecycle).To(Equal(chat.LifecycleComplete))
		})
	})

	Describe("AppendEntry", func() {
		It("should not modify the original transcript", func() {
			original := chat.NewTranscript()
			user, _ := chat.NewUserEntry("Hello")

			updated := chat.AppendEntry(original, user)

			Expect(chat.GetEntryCount(original)).To(Equal(0))
			Expect(chat.GetEntryCount(updated)).To(Equal(1))
		})
	})

	Describe("BeginStream", func() {
		It("should refuse a second streaming entry", func() {
			_, err := chat.BeginStream(transcript, chat.NewStreamingEntry("memory_manager"))
			Expect(errors.Is(err, chat.ErrConcurrentStream)).To(BeTrue())
		})
	})

	Describe("AppendToken", func() {
		It("should concatenate fragments in call order", func() {
			fragments := []string{"I ", "under", "stand", "."}
			for _, f := range fragments {
				var err error
				transcript, err = chat.AppendToken(transcript, streamID, f)
				Expect(err).ToNot(HaveOccurred())
			}

			entry, _, ok := chat.FindEntry(transcript, streamID)
			Expect(ok).To(BeTrue())
			Expect(entry.Text).To(Equal("I understand."))
		})

		It("should leave earlier snapshots untouched", func() {
			before := transcript
			after, err := chat.AppendToken(transcript, streamID, "hi")
			Expect(err).ToNot(HaveOccurred())

			old, _, _ := chat.FindEntry(before, streamID)
			updated, _, _ := chat.FindEntry(after, streamID)
			Expect(old.Text).To(BeEmpty())
			Expect(updated.Text).To(Equal("hi"))
		})

		It("should report unknown entries", func() {
			_, err := chat.AppendToken(transcript, "missing", "x")
			Expect(errors.Is(err, chat.ErrUnknownEntry)).To(BeTrue())

			var entryErr *chat.EntryError
			Expect(errors.As(err, &entryErr)).To(BeTrue())
			Expect(entryErr.ID).To(Equal("missing"))
		})

		It("should refuse to amend a finalized entry", func() {
			finalized, err := chat.FinalizeStream(transcript, streamID)
			Expect(err).ToNot(HaveOccurred())

			_, err = chat.AppendToken(finalized, streamID, "late")
			Expect(errors.Is(err, chat.ErrEntryFinalized)).To(BeTrue())
		})
	})

	Describe("tool calls", func() {
		It("should complete the most recent running call of a tool", func() {
			var err error
			transcript, err = chat.StartToolCall(transcript, streamID, "save_memory")
			Expect(err).ToNot(HaveOccurred())
			transcript, err = chat.CompleteToolCall(transcript, streamID, "save_memory", "✅ first")
			Expect(err).ToNot(HaveOccurred())
			transcript, err = chat.StartToolCall(transcript, streamID, "save_memory")
			Expect(err).ToNot(HaveOccurred())
			transcript, err = chat.StartToolCall(transcript, streamID, "list_memories")
			Expect(err).ToNot(HaveOccurred())
			transcript, err = chat.CompleteToolCall(transcript, streamID, "save_memory", "✅ second")
			Expect(err).ToNot(HaveOccurred())

			entry, _, _ := chat.FindEntry(transcript, streamID)
			Expect(entry.ToolCalls).To(Equal([]chat.ToolCallStatus{
				{ToolName: "save_memory", Status: chat.ToolCompleted, Result: "✅ first"},
				{ToolName: "save_memory", Status: chat.ToolCompleted, Result: "✅ second"},
				{ToolName: "list_memories", Status: chat.ToolRunning},
			}))
		})

		It("should record an end event without a start as completed", func() {
			var err error
			transcript, err = chat.CompleteToolCall(transcript, streamID, "search", "nothing found")
			Expect(err).ToNot(HaveOccurred())

			entry, _, _ := chat.FindEntry(transcript, streamID)
			Expect(entry.ToolCalls).To(ConsistOf(chat.ToolCallStatus{
				ToolName: "search", Status: chat.ToolCompleted, Result: "nothing found",
			}))
		})
	})

	Describe("FinalizeStream", func() {
		It("should complete an empty stream with empty text", func() {
			finalized, err := chat.FinalizeStream(transcript, streamID)
			Expect(err).ToNot(HaveOccurred())

			entry, _, _ := chat.FindEntry(finalized, streamID)
			Expect(entry.Text).To(BeEmpty())
			Expect(entry.Lifecycle).To(Equal(chat.LifecycleComplete))

			_, streaming := chat.StreamingEntry(finalized)
			Expect(streaming).To(BeFalse())
		})
	})

	Describe("FailStream", func() {
		It("should replace partial text with the error message", func() {
			var err error
			transcript, err = chat.AppendToken(transcript, streamID, "partial")
			Expect(err).ToNot(HaveOccurred())

			failed, err := chat.FailStream(transcript, streamID, "Sorry, an error occurred: boom")
			Expect(err).ToNot(HaveOccurred())

			entry, _, _ := chat.FindEntry(failed, streamID)
			Expect(entry.Text).To(Equal("Sorry, an error occurred: boom"))
			Expect(entry.Lifecycle).To(Equal(chat.LifecycleErrored))
			Expect(entry.IsError).To(BeTrue())
		})
	})
})
