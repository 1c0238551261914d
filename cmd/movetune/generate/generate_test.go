package generatecmder_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	generatecmder "github.com/movetune/movetune/cmd/movetune/generate"
)

func TestGenerateCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Generate Command Suite")
}

var _ = Describe("NewGenerateCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := generatecmder.NewGenerateCmd()
		Expect(cmd.Use).To(Equal("generate"))
	})

	It("rejects positional arguments", func() {
		cmd := generatecmder.NewGenerateCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has --repo flag with r shorthand and empty default", func() {
		cmd := generatecmder.NewGenerateCmd()
		flag := cmd.Flags().Lookup("repo")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("r"))
		Expect(flag.DefValue).To(Equal(""))
	})

	It("has --ref flag defaulting to main", func() {
		cmd := generatecmder.NewGenerateCmd()
		flag := cmd.Flags().Lookup("ref")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("main"))
	})

	It("has --extension flag defaulting to .move", func() {
		cmd := generatecmder.NewGenerateCmd()
		flag := cmd.Flags().Lookup("extension")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal(".move"))
	})

	It("has --synthesis-model flag with the haiku default", func() {
		cmd := generatecmder.NewGenerateCmd()
		flag := cmd.Flags().Lookup("synthesis-model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("claude-3-haiku-20240307"))
	})

	It("has --synthesize flag defaulting to true", func() {
		cmd := generatecmder.NewGenerateCmd()
		flag := cmd.Flags().Lookup("synthesize")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("true"))
	})

	It("fails without a configured repository", func() {
		tmpDir := GinkgoT().TempDir()
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		defer func() { _ = os.Chdir(origDir) }()
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".movetune"), 0o755)).To(Succeed())

		cmd := generatecmder.NewGenerateCmd()
		cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.SetArgs([]string{})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		err = cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no repository configured"))
	})
})
