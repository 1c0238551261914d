package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAnthropic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Anthropic Suite")
}

func newTestClient(server *httptest.Server, cfg Config, slept *[]time.Duration) *Client {
	cfg.Target = server.URL
	cfg.HTTPClient = server.Client()

	c := NewClient(cfg)
	c.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return c
}

func messagesOK(text string) string {
	resp := map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

var _ = Describe("Client", func() {
	var slept []time.Duration

	BeforeEach(func() {
		slept = nil
	})

	Describe("Synthesize", func() {
		It("sends a Messages API request with the expected shape", func() {
			var gotReq messagesRequest
			var gotHeaders http.Header
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/v1/messages"))
				gotHeaders = r.Header.Clone()
				Expect(json.NewDecoder(r.Body).Decode(&gotReq)).To(Succeed())
				fmt.Fprint(w, messagesOK("<prompt>Implements a coin module</prompt>"))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "sk-ant-test"}, &slept)

			text, err := c.Synthesize(context.Background(), "sources/coin.move", "module example::coin {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Implements a coin module"))

			Expect(gotHeaders.Get("x-api-key")).To(Equal("sk-ant-test"))
			Expect(gotHeaders.Get("anthropic-version")).To(Equal("2023-06-01"))
			Expect(gotHeaders.Get("content-type")).To(Equal("application/json"))

			Expect(gotReq.Model).To(Equal("claude-3-haiku-20240307"))
			Expect(gotReq.MaxTokens).To(Equal(uint(1000)))
			Expect(gotReq.Temperature).To(BeZero())
			Expect(gotReq.Messages).To(HaveLen(1))
			Expect(gotReq.Messages[0].Role).To(Equal("user"))
			Expect(gotReq.Messages[0].Content).To(HaveLen(1))

			instruction := gotReq.Messages[0].Content[0].Text
			Expect(instruction).To(ContainSubstring("Please summarize the following Move code"))
			Expect(instruction).To(ContainSubstring("<code>\nmodule example::coin {}\n</code>"))
			Expect(instruction).To(ContainSubstring("enclose the prompt inside <prompt> tags"))
		})

		It("names the configured source language in the instruction", func() {
			var instruction string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req messagesRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				instruction = req.Messages[0].Content[0].Text
				fmt.Fprint(w, messagesOK("<prompt>ok</prompt>"))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k", Language: "Solidity"}, &slept)

			_, err := c.Synthesize(context.Background(), "contracts/Token.sol", "contract Token {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(instruction).To(ContainSubstring("Please summarize the following Solidity code"))
		})

		It("extracts multi-line prompts from the tags", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, messagesOK("Summary first.\n\n<prompt>Write a module\nthat swaps two values</prompt>\n"))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			text, err := c.Synthesize(context.Background(), "swap.move", "module swap {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Write a module\nthat swaps two values"))
		})

		It("falls back to the whole trimmed response without tags", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, messagesOK("  A module that mints coins.  "))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			text, err := c.Synthesize(context.Background(), "coin.move", "module coin {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("A module that mints coins."))
		})

		It("concatenates multiple content blocks before extraction", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				resp := map[string]any{
					"content": []map[string]string{
						{"type": "text", "text": "<prompt>first half "},
						{"type": "text", "text": "second half</prompt>"},
					},
				}
				data, _ := json.Marshal(resp)
				w.Write(data)
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			text, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("first half second half"))
		})

		It("fails on an empty response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"content": []}`)
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			_, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("empty synthesis response"))
		})

		It("paces each request through the sleeper", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, messagesOK("<prompt>ok</prompt>"))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			_, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(slept).To(Equal([]time.Duration{time.Second}))

			_, err = c.Synthesize(context.Background(), "b.move", "module b {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(slept).To(Equal([]time.Duration{time.Second, time.Second}))
		})

		It("honors a custom request interval", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, messagesOK("<prompt>ok</prompt>"))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k", RequestInterval: 250 * time.Millisecond}, &slept)

			_, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(slept).To(Equal([]time.Duration{250 * time.Millisecond}))
		})
	})

	Describe("retry behavior", func() {
		It("retries rate limits and recovers", func() {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				if calls == 1 {
					http.Error(w, `{"error": {"type": "rate_limit_error", "message": "rate limited"}}`, http.StatusTooManyRequests)
					return
				}
				fmt.Fprint(w, messagesOK("<prompt>recovered</prompt>"))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			text, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("recovered"))
			Expect(calls).To(Equal(2))
			// 1s pacing then the first 2s backoff.
			Expect(slept).To(Equal([]time.Duration{time.Second, 2 * time.Second}))
		})

		It("classifies exhausted rate limit retries", func() {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			_, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).To(HaveOccurred())
			Expect(calls).To(Equal(4))

			synthErr := err.(*SynthesisError)
			Expect(synthErr.IsRateLimit()).To(BeTrue())
			Expect(synthErr.Path).To(Equal("a.move"))
			Expect(err.Error()).To(ContainSubstring("max retries exceeded"))
			Expect(slept).To(Equal([]time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}))
		})

		It("retries server errors", func() {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				if calls <= 2 {
					http.Error(w, "overloaded", http.StatusServiceUnavailable)
					return
				}
				fmt.Fprint(w, messagesOK("<prompt>ok</prompt>"))
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "k"}, &slept)

			_, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(3))
		})

		It("does not retry auth failures", func() {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				http.Error(w, `{"error": {"type": "authentication_error", "message": "invalid x-api-key"}}`, http.StatusUnauthorized)
			}))
			defer server.Close()

			c := newTestClient(server, Config{APIKey: "bad"}, &slept)

			_, err := c.Synthesize(context.Background(), "a.move", "module a {}")
			Expect(err).To(HaveOccurred())
			Expect(calls).To(Equal(1))

			synthErr := err.(*SynthesisError)
			Expect(synthErr.IsAuth()).To(BeTrue())
			Expect(synthErr.IsRateLimit()).To(BeFalse())
		})

		It("stops when the context is cancelled during pacing", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, messagesOK("<prompt>ok</prompt>"))
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())

			c := newTestClient(server, Config{APIKey: "k"}, &slept)
			c.sleep = func(ctx context.Context, _ time.Duration) error {
				cancel()
				return ctx.Err()
			}

			_, err := c.Synthesize(ctx, "a.move", "module a {}")
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(ContainSubstring("context canceled")))
		})
	})
})

var _ = Describe("SynthesisError", func() {
	It("classifies timeouts", func() {
		err := &SynthesisError{Path: "a.move", Err: context.DeadlineExceeded}
		Expect(err.IsTimeout()).To(BeTrue())
		Expect(err.IsAuth()).To(BeFalse())
	})

	It("unwraps the underlying error", func() {
		inner := fmt.Errorf("boom")
		err := &SynthesisError{Path: "a.move", Err: inner}
		Expect(err.Unwrap()).To(Equal(inner))
	})

	It("names the file in its message", func() {
		err := &SynthesisError{Path: "sources/coin.move", Err: fmt.Errorf("boom")}
		Expect(err.Error()).To(ContainSubstring("sources/coin.move"))
	})
})
