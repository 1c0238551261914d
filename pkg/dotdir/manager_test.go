package dotdir_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/movetune/movetune/pkg/dotdir"
)

func TestDotdir(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dotdir Suite")
}

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewManager", func() {
		It("creates a new manager", func() {
			Expect(m).ToNot(BeNil())
		})
	})

	Describe("Target", func() {
		It("creates the directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns existing directory without error", func() {
			result, err := m.Target(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(tmpDir))
		})

		It("returns the override dir even when a local .movetune dir exists", func() {
			localDir := filepath.Join(tmpDir, ".movetune")
			Expect(os.Mkdir(localDir, 0o755)).To(Succeed())

			// Change to tmpDir so the local dir is discoverable
			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .movetune dir when it exists and no override is provided", func() {
			localDir := filepath.Join(tmpDir, ".movetune")
			Expect(os.Mkdir(localDir, 0o755)).To(Succeed())

			// Change to tmpDir so the local dir is discoverable
			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmpDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(localDir))
		})

		It("falls back to creating a home .movetune dir when nothing else exists", func() {
			emptyDir := filepath.Join(tmpDir, "empty")
			Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())

			origDir, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(emptyDir)).To(Succeed())
			DeferCleanup(func() { os.Chdir(origDir) })

			origHome := os.Getenv("HOME")
			Expect(os.Setenv("HOME", emptyDir)).To(Succeed())
			DeferCleanup(func() { os.Setenv("HOME", origHome) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(emptyDir, ".movetune")))

			info, err := os.Stat(result)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})
	})

	Describe("run state", func() {
		It("returns nil when no state has been saved", func() {
			state, err := m.LoadRunState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips a saved state", func() {
			in := &dotdir.RunState{
				RunID:   "run-123",
				Repo:    "movefuns/move-examples",
				Dataset: "movefuns-move-examples_dataset.jsonl",
				Records: 42,
			}
			Expect(m.SaveRunState(in, tmpDir)).To(Succeed())

			out, err := m.LoadRunState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(BeNil())
			Expect(out.RunID).To(Equal("run-123"))
			Expect(out.Repo).To(Equal("movefuns/move-examples"))
			Expect(out.Dataset).To(Equal("movefuns-move-examples_dataset.jsonl"))
			Expect(out.Records).To(Equal(42))
			Expect(out.UpdatedAt).NotTo(BeZero())
		})

		It("overwrites previous state on save", func() {
			Expect(m.SaveRunState(&dotdir.RunState{RunID: "first"}, tmpDir)).To(Succeed())
			Expect(m.SaveRunState(&dotdir.RunState{RunID: "second", JobID: "ftjob-1"}, tmpDir)).To(Succeed())

			out, err := m.LoadRunState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.RunID).To(Equal("second"))
			Expect(out.JobID).To(Equal("ftjob-1"))
		})

		It("rejects a nil state", func() {
			Expect(m.SaveRunState(nil, tmpDir)).NotTo(Succeed())
		})

		It("clears saved state", func() {
			Expect(m.SaveRunState(&dotdir.RunState{RunID: "run-123"}, tmpDir)).To(Succeed())
			Expect(m.ClearRunState(tmpDir)).To(Succeed())

			state, err := m.LoadRunState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("clear is a no-op when no state exists", func() {
			Expect(m.ClearRunState(tmpDir)).To(Succeed())
		})
	})
})
