package tui_test

import (
	"strings"

	"github.com/killallgit/compass/pkg/tui"
	"github.com/mattn/go-runewidth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Rect", func() {
	It("reports its edges", func() {
		rect := tui.NewRect(10, 20, 30, 40)

		Expect(rect.Right()).To(Equal(40))
		Expect(rect.Bottom()).To(Equal(60))
	})

	It("contains points inside only", func() {
		rect := tui.NewRect(10, 20, 30, 40)

		Expect(rect.Contains(10, 20)).To(BeTrue())
		Expect(rect.Contains(39, 59)).To(BeTrue())
		Expect(rect.Contains(9, 20)).To(BeFalse())
		Expect(rect.Contains(40, 30)).To(BeFalse())
	})
})

var _ = Describe("Layout", func() {
	It("stacks messages, alert, input and status", func() {
		messages, alert, input, status := tui.NewLayout(80, 24).CalculateAreas()

		Expect(messages).To(Equal(tui.NewRect(2, 0, 76, 18)))
		Expect(alert).To(Equal(tui.NewRect(0, 18, 80, 1)))
		Expect(input).To(Equal(tui.NewRect(0, 20, 80, 3)))
		Expect(status).To(Equal(tui.NewRect(0, 23, 80, 1)))
	})

	It("keeps at least one message row on tiny screens", func() {
		messages, _, _, _ := tui.NewLayout(3, 2).CalculateAreas()

		Expect(messages.Height).To(Equal(1))
		Expect(messages.X).To(Equal(0))
		Expect(messages.Width).To(Equal(3))
	})
})

var _ = Describe("WrapText", func() {
	It("returns short text unchanged", func() {
		Expect(tui.WrapText("hello", 10)).To(Equal([]string{"hello"}))
	})

	It("keeps empty lines", func() {
		Expect(tui.WrapText("", 10)).To(Equal([]string{""}))
	})

	It("returns nothing for a zero width", func() {
		Expect(tui.WrapText("hello", 0)).To(BeEmpty())
	})

	It("breaks at spaces", func() {
		Expect(tui.WrapText("the quick brown fox", 10)).To(Equal([]string{"the quick", "brown fox"}))
	})

	It("splits words longer than the width", func() {
		Expect(tui.WrapText("abcdefghij", 4)).To(Equal([]string{"abcd", "efgh", "ij"}))
	})

	It("repeats the indentation on continuation lines", func() {
		lines := tui.WrapText("  one two three four", 10)

		Expect(lines).To(Equal([]string{"  one two", "  three", "  four"}))
	})

	It("measures wide runes in cells", func() {
		lines := tui.WrapText(strings.Repeat("日", 6), 4)

		Expect(lines).To(HaveLen(3))
		for _, l := range lines {
			Expect(runewidth.StringWidth(l)).To(BeNumerically("<=", 4))
		}
	})
})

var _ = Describe("CalculateVisibleLines", func() {
	lines := []string{"a", "b", "c", "d", "e"}

	It("windows from the scroll offset", func() {
		visible, start := tui.CalculateVisibleLines(lines, 2, 1)

		Expect(visible).To(Equal([]string{"b", "c"}))
		Expect(start).To(Equal(1))
	})

	It("clamps the offset", func() {
		visible, start := tui.CalculateVisibleLines(lines, 3, 10)

		Expect(visible).To(Equal([]string{"e"}))
		Expect(start).To(Equal(4))

		visible, start = tui.CalculateVisibleLines(lines, 3, -2)
		Expect(visible).To(Equal([]string{"a", "b", "c"}))
		Expect(start).To(Equal(0))
	})

	It("computes the bottom scroll offset", func() {
		Expect(tui.MaxScroll(10, 4)).To(Equal(6))
		Expect(tui.MaxScroll(3, 4)).To(Equal(0))
	})
})
