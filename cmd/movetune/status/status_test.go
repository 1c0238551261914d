package statuscmder_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	statuscmder "github.com/movetune/movetune/cmd/movetune/status"
	"github.com/movetune/movetune/pkg/dotdir"
)

func TestStatusCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Status Command Suite")
}

var _ = Describe("NewStatusCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := statuscmder.NewStatusCmd()
		Expect(cmd.Use).To(Equal("status"))
	})

	It("rejects positional arguments", func() {
		cmd := statuscmder.NewStatusCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has --job flag with j shorthand", func() {
		cmd := statuscmder.NewStatusCmd()
		flag := cmd.Flags().Lookup("job")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("j"))
	})
})

var _ = Describe("Status command execution", func() {
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
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".movetune"), 0o755)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("reports when no job has been submitted", func() {
		cmd := statuscmder.NewStatusCmd()
		cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.SetArgs([]string{})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		Expect(cmd.Execute()).To(Succeed())
	})

	It("fetches the job recorded by the last submission", func() {
		GinkgoT().Setenv("AZURE_OPENAI_API_KEY", "test-key")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/openai/fine_tuning/jobs/ftjob-789"))
			Expect(r.Header.Get("api-key")).To(Equal("test-key"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "ftjob-789", "status": "running", "model": "davinci-002", "training_file": "file-1",
			})
		}))
		defer server.Close()

		state := &dotdir.RunState{JobID: "ftjob-789", Dataset: "out.jsonl"}
		Expect(dotdir.NewManager().SaveRunState(state, "")).To(Succeed())

		cmd := statuscmder.NewStatusCmd()
		cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.SetArgs([]string{"--endpoint", server.URL})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		Expect(cmd.Execute()).To(Succeed())
	})

	It("surfaces a service error for an unknown job", func() {
		GinkgoT().Setenv("AZURE_OPENAI_API_KEY", "test-key")

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"job not found"}}`))
		}))
		defer server.Close()

		cmd := statuscmder.NewStatusCmd()
		cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.SetArgs([]string{"--endpoint", server.URL, "--job", "ftjob-missing"})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
	})
})
