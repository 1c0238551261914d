package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/movetune/movetune/pkg/credentials"
)

var _ = Describe("ReadGhHostsFile", func() {
	It("reads hosts.yml from GH_CONFIG_DIR when set", func() {
		tmpDir, err := os.MkdirTemp("", "gh-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tmpDir)

		hostsPath := filepath.Join(tmpDir, "hosts.yml")
		Expect(os.WriteFile(hostsPath, []byte("github.com:\n    oauth_token: gho_abc\n"), 0o600)).To(Succeed())

		orig := os.Getenv("GH_CONFIG_DIR")
		Expect(os.Setenv("GH_CONFIG_DIR", tmpDir)).To(Succeed())
		DeferCleanup(func() { os.Setenv("GH_CONFIG_DIR", orig) })

		data, path := credentials.ReadGhHostsFile()
		Expect(data).NotTo(BeNil())
		Expect(path).To(Equal(hostsPath))
	})

	It("returns nil when hosts.yml does not exist", func() {
		tmpDir, err := os.MkdirTemp("", "gh-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tmpDir)

		orig := os.Getenv("GH_CONFIG_DIR")
		Expect(os.Setenv("GH_CONFIG_DIR", tmpDir)).To(Succeed())
		DeferCleanup(func() { os.Setenv("GH_CONFIG_DIR", orig) })

		data, path := credentials.ReadGhHostsFile()
		Expect(data).To(BeNil())
		Expect(path).To(BeEmpty())
	})
})

var _ = Describe("TokenFromGhHosts", func() {
	It("extracts the github.com oauth token", func() {
		doc := []byte(`github.com:
    user: movedev
    oauth_token: gho_abcdef123456
    git_protocol: https
`)
		token, ok := credentials.TokenFromGhHosts(doc)
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("gho_abcdef123456"))
	})

	It("ignores other hosts", func() {
		doc := []byte(`ghe.example.com:
    oauth_token: gho_enterprise
`)
		token, ok := credentials.TokenFromGhHosts(doc)
		Expect(ok).To(BeFalse())
		Expect(token).To(BeEmpty())
	})

	It("returns false when the token field is empty", func() {
		doc := []byte(`github.com:
    user: movedev
`)
		token, ok := credentials.TokenFromGhHosts(doc)
		Expect(ok).To(BeFalse())
		Expect(token).To(BeEmpty())
	})

	It("returns false for invalid YAML", func() {
		token, ok := credentials.TokenFromGhHosts([]byte("\tnot: [valid"))
		Expect(ok).To(BeFalse())
		Expect(token).To(BeEmpty())
	})
})
