package initcmder_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/movetune/movetune/cmd/movetune/init"
)

func TestInitCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Init Command Suite")
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects positional arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has --preset flag defaulting to move", func() {
		cmd := initcmder.NewInitCmd()
		flag := cmd.Flags().Lookup("preset")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("move"))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs(args)
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)
		return cmd.Execute()
	}

	It("creates .movetune/config.toml with the move preset", func() {
		Expect(execute()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".movetune", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`extension = ".move"`))
	})

	It("applies the solidity preset", func() {
		Expect(execute("--preset", "solidity")).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".movetune", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`extension = ".sol"`))
		Expect(string(data)).To(ContainSubstring(`language = "Solidity"`))
	})

	It("rejects an unknown preset", func() {
		err := execute("--preset", "fortran")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown preset"))
	})

	It("is a no-op when already initialized", func() {
		Expect(execute()).To(Succeed())

		before, err := os.ReadFile(filepath.Join(tmpDir, ".movetune", "config.toml"))
		Expect(err).NotTo(HaveOccurred())

		Expect(execute("--preset", "solidity")).To(Succeed())

		after, err := os.ReadFile(filepath.Join(tmpDir, ".movetune", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})
})
