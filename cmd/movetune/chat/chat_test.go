package chatcmder_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/movetune/movetune/cmd/movetune/chat"
)

func TestChatCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chat Command Suite")
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("rejects positional arguments", func() {
		cmd := chatcmder.NewChatCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has --deployment flag with empty default", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("deployment")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal(""))
	})

	It("has --max-tokens flag defaulting to 100", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("max-tokens")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("100"))
	})

	It("has --temperature flag defaulting to 1", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("temperature")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("1"))
	})

	It("has --top-p flag defaulting to 0.5", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("top-p")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("0.5"))
	})

	It("has --api-version flag with the preview default", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("api-version")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("2023-09-15-preview"))
	})

	It("has --render flag defaulting to false", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("render")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("false"))
	})
})
