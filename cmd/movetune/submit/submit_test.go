package submitcmder_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	submitcmder "github.com/movetune/movetune/cmd/movetune/submit"
)

func TestSubmitCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Submit Command Suite")
}

var _ = Describe("NewSubmitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := submitcmder.NewSubmitCmd()
		Expect(cmd.Use).To(Equal("submit"))
	})

	It("has --file flag with f shorthand", func() {
		cmd := submitcmder.NewSubmitCmd()
		flag := cmd.Flags().Lookup("file")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("f"))
	})

	It("has --base-model flag defaulting to davinci-002", func() {
		cmd := submitcmder.NewSubmitCmd()
		flag := cmd.Flags().Lookup("base-model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("davinci-002"))
	})

	It("has --yes flag defaulting to false", func() {
		cmd := submitcmder.NewSubmitCmd()
		flag := cmd.Flags().Lookup("yes")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("false"))
	})
})

var _ = Describe("Submit command execution", func() {
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

	writeDataset := func(records int) string {
		var b strings.Builder
		for i := 0; i < records; i++ {
			b.WriteString(`{"prompt":"Implements module `)
			b.WriteRune(rune('a' + i))
			b.WriteString(`","completion":"module `)
			b.WriteRune(rune('a' + i))
			b.WriteString(` {}"}` + "\n")
		}
		path := filepath.Join(tmpDir, "dataset.jsonl")
		Expect(os.WriteFile(path, []byte(b.String()), 0o644)).To(Succeed())
		return path
	}

	It("refuses to upload a dataset below the minimum record count", func() {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		path := writeDataset(3)

		cmd := submitcmder.NewSubmitCmd()
		cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.SetArgs([]string{"--file", path, "--endpoint", server.URL, "--yes"})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("not submittable"))

		// Nothing was uploaded and the dataset is untouched.
		Expect(requests.Load()).To(BeZero())
		_, statErr := os.Stat(path)
		Expect(statErr).NotTo(HaveOccurred())
	})

	It("uploads and creates a fine-tune job for a valid dataset", func() {
		GinkgoT().Setenv("AZURE_OPENAI_API_KEY", "test-key")

		var uploads, creates atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasPrefix(r.URL.Path, "/openai/files"):
				uploads.Add(1)
				Expect(r.Header.Get("api-key")).To(Equal("test-key"))
				_ = json.NewEncoder(w).Encode(map[string]any{
					"id": "file-123", "filename": "dataset.jsonl", "status": "uploaded", "bytes": 42,
				})
			case strings.HasPrefix(r.URL.Path, "/openai/fine_tuning/jobs"):
				creates.Add(1)
				var body map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["training_file"]).To(Equal("file-123"))
				_ = json.NewEncoder(w).Encode(map[string]any{
					"id": "ftjob-456", "status": "pending", "model": body["model"], "training_file": "file-123",
				})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		path := writeDataset(10)

		cmd := submitcmder.NewSubmitCmd()
		cmd.Flags().BoolP("debug", "d", false, "Enable debug logging")
		cmd.SetArgs([]string{"--file", path, "--endpoint", server.URL, "--yes"})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		Expect(cmd.Execute()).To(Succeed())
		Expect(uploads.Load()).To(Equal(int32(1)))
		Expect(creates.Load()).To(Equal(int32(1)))

		// The job handle is recorded for 'movetune status'.
		data, err := os.ReadFile(filepath.Join(tmpDir, ".movetune", "lastrun.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("ftjob-456"))
		Expect(string(data)).To(ContainSubstring("file-123"))
	})
})
