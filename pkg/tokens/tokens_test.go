package tokens

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTokens(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tokens Suite")
}

var _ = Describe("heuristicCounter", func() {
	var c Counter

	BeforeEach(func() {
		c = NewHeuristicCounter()
	})

	It("returns zero for empty text", func() {
		Expect(c.Count("")).To(Equal(0))
	})

	It("returns at least one for non-empty text", func() {
		Expect(c.Count("hi")).To(Equal(1))
	})

	It("approximates a token as four runes", func() {
		Expect(c.Count(strings.Repeat("a", 40))).To(Equal(10))
	})

	It("counts runes, not bytes", func() {
		// 8 multibyte runes -> 2 tokens regardless of byte length.
		Expect(c.Count(strings.Repeat("世", 8))).To(Equal(2))
	})
})

var _ = Describe("NewCounter", func() {
	It("always returns a usable counter", func() {
		c := NewCounter()
		Expect(c).NotTo(BeNil())
		Expect(c.Count("module coin::basic_coin {}")).To(BeNumerically(">", 0))
	})
})

var _ = Describe("CountPair", func() {
	It("sums prompt and completion counts", func() {
		c := NewHeuristicCounter()
		usage := CountPair(c, strings.Repeat("p", 8), strings.Repeat("c", 16))

		Expect(usage.PromptTokens).To(Equal(2))
		Expect(usage.CompletionTokens).To(Equal(4))
		Expect(usage.TotalTokens).To(Equal(6))
	})

	It("handles empty sides", func() {
		c := NewHeuristicCounter()
		usage := CountPair(c, "", "")

		Expect(usage.PromptTokens).To(Equal(0))
		Expect(usage.CompletionTokens).To(Equal(0))
		Expect(usage.TotalTokens).To(Equal(0))
	})
})
