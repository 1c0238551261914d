package prompt

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPrompt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Prompt Suite")
}

var _ = Describe("Extract", func() {
	It("extracts an annotated prompt", func() {
		code := "/// @prompt Implements a counter module\nmodule example::counter {}\n"

		text, ok := Extract(code)
		Expect(ok).To(BeTrue())
		Expect(text).To(Equal("Implements a counter module"))
	})

	It("returns false when no annotation is present", func() {
		code := "module example::counter {}\n"

		text, ok := Extract(code)
		Expect(ok).To(BeFalse())
		Expect(text).To(BeEmpty())
	})

	It("finds annotations below the top of the file", func() {
		code := "// Copyright Example Authors\n// SPDX-License-Identifier: Apache-2.0\n\n/// @prompt Swap two vector elements\nmodule example::swap {}\n"

		text, ok := Extract(code)
		Expect(ok).To(BeTrue())
		Expect(text).To(Equal("Swap two vector elements"))
	})

	It("returns the first annotation when several are present", func() {
		code := "/// @prompt first prompt\nmodule a {}\n/// @prompt second prompt\nmodule b {}\n"

		text, ok := Extract(code)
		Expect(ok).To(BeTrue())
		Expect(text).To(Equal("first prompt"))
	})

	It("trims surrounding whitespace from the prompt text", func() {
		code := "///   @prompt    padded prompt text   \nmodule example::pad {}\n"

		text, ok := Extract(code)
		Expect(ok).To(BeTrue())
		Expect(text).To(Equal("padded prompt text"))
	})

	It("treats an annotation with empty text as absent", func() {
		code := "/// @prompt\nmodule example::empty {}\n"

		text, ok := Extract(code)
		Expect(ok).To(BeFalse())
		Expect(text).To(BeEmpty())
	})

	It("ignores ordinary doc comments", func() {
		code := "/// A counter module.\n/// Increments on call.\nmodule example::counter {}\n"

		_, ok := Extract(code)
		Expect(ok).To(BeFalse())
	})

	It("handles empty content", func() {
		_, ok := Extract("")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("TrimLicenseHeader", func() {
	It("drops license lines before the module declaration", func() {
		code := "// Copyright Example Authors\n// Licensed under the Apache License, Version 2.0\n\nmodule example::coin {\n    struct Coin {}\n}\n"

		trimmed := TrimLicenseHeader(code)
		Expect(trimmed).To(Equal("module example::coin {\n    struct Coin {}\n}"))
	})

	It("returns content without a module declaration unchanged", func() {
		code := "script {\n    fun main() {}\n}\n"

		Expect(TrimLicenseHeader(code)).To(Equal(code))
	})

	It("keeps content that already starts at the module declaration", func() {
		code := "module example::coin {}\n"

		Expect(TrimLicenseHeader(code)).To(Equal("module example::coin {}"))
	})

	It("matches indented module declarations", func() {
		code := "// header\n  module example::indent {}\n"

		Expect(TrimLicenseHeader(code)).To(Equal("module example::indent {}"))
	})

	It("keeps lines after the first module declaration", func() {
		code := "// license\nmodule a {}\nmodule b {}\n"

		Expect(TrimLicenseHeader(code)).To(Equal("module a {}\nmodule b {}"))
	})

	It("handles empty content", func() {
		Expect(TrimLicenseHeader("")).To(BeEmpty())
	})
})
