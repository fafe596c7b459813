package tui_test

import (
	"github.com/killallgit/compass/pkg/tui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("InputField", func() {
	It("inserts at the cursor", func() {
		in := tui.NewInputField().WithContent("hllo").WithCursor(1).InsertRune('e')

		Expect(in.Content()).To(Equal("hello"))
		Expect(in.Cursor).To(Equal(2))
	})

	It("edits multi-byte text by rune", func() {
		in := tui.NewInputField().WithContent("réponse")
		in = in.Home().Right().Right().DeleteBackward()

		Expect(in.Content()).To(Equal("rponse"))
		Expect(in.Cursor).To(Equal(1))

		in = in.DeleteForward()
		Expect(in.Content()).To(Equal("ronse"))
	})

	It("ignores deletes at the edges", func() {
		in := tui.NewInputField().WithContent("ab")

		Expect(in.DeleteForward().Content()).To(Equal("ab"))
		Expect(in.Home().DeleteBackward().Content()).To(Equal("ab"))
	})

	It("clamps the cursor", func() {
		in := tui.NewInputField().WithContent("ab")

		Expect(in.WithCursor(-3).Cursor).To(Equal(0))
		Expect(in.WithCursor(9).Cursor).To(Equal(2))
		Expect(in.Left().Left().Left().Cursor).To(Equal(0))
	})

	It("treats whitespace as blank", func() {
		Expect(tui.NewInputField().Blank()).To(BeTrue())
		Expect(tui.NewInputField().WithContent("  \t").Blank()).To(BeTrue())
		Expect(tui.NewInputField().WithContent(" x ").Blank()).To(BeFalse())
	})

	It("scrolls the visible window with the cursor", func() {
		in := tui.NewInputField().WithContent("abcdefgh")

		text, cursor := in.Window(4)
		Expect(text).To(Equal("fgh"))
		Expect(cursor).To(Equal(3))

		text, cursor = in.Home().Window(4)
		Expect(text).To(Equal("abcd"))
		Expect(cursor).To(Equal(0))
	})
})

var _ = Describe("Spinner", func() {
	It("cycles frames only while visible", func() {
		s := tui.Spinner{}
		Expect(s.NextFrame().String()).To(BeEmpty())

		s = s.WithVisibility(true)
		first := s.String()
		Expect(first).NotTo(BeEmpty())
		Expect(s.NextFrame().String()).NotTo(Equal(first))
	})
})
