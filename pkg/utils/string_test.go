package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		Expect(Truncate("this is a long string", 10)).To(Equal("this is a ..."))
	})

	It("never splits a multi-byte rune", func() {
		Expect(Truncate("héllo wörld", 5)).To(Equal("héllo..."))
	})
})

var _ = Describe("Preview", func() {
	It("collapses newlines and runs of spaces", func() {
		Expect(Preview("line one\n\n  line   two", 40)).To(Equal("line one line two"))
	})

	It("truncates the collapsed text", func() {
		Expect(Preview("a\nb c d e f", 5)).To(Equal("a b c..."))
	})
})
