// Package anthropic synthesizes prompts for unannotated source files via
// the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTarget          = "https://api.anthropic.com"
	DefaultModel           = "claude-3-haiku-20240307"
	DefaultMaxTokens       = 1000
	DefaultRequestInterval = time.Second
	DefaultTimeout         = 2 * time.Minute

	apiVersion      = "2023-06-01"
	defaultLanguage = "Move"

	maxRetries  = 3
	baseBackoff = 2 * time.Second
	maxBackoff  = 32 * time.Second
)

// instructionTemplate is filled with the source language and the code to
// summarize.
const instructionTemplate = `Please summarize the following %s code and generate a concise prompt in English that describes what the code does:

<code>
%s
</code>

Provide your summary and prompt in English, and enclose the prompt inside <prompt> tags.`

// promptPattern pulls the answer out of the model's <prompt> tags.
var promptPattern = regexp.MustCompile(`(?s)<prompt>(.*?)</prompt>`)

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   uint      `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Config configures a Client. Zero values fall back to the public Anthropic
// endpoint, claude-3-haiku, 1000 max tokens, 1s pacing, and Move as the
// source language named in the instruction.
type Config struct {
	Target          string
	APIKey          string
	Model           string
	MaxTokens       uint
	Language        string
	RequestInterval time.Duration
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// Client synthesizes prompts one file at a time, paced to stay under the
// API rate limit.
type Client struct {
	target          string
	apiKey          string
	model           string
	maxTokens       uint
	language        string
	requestInterval time.Duration
	httpClient      *http.Client
	logger          *zap.Logger

	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config) *Client {
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.RequestInterval == 0 {
		cfg.RequestInterval = DefaultRequestInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Client{
		target:          strings.TrimSuffix(cfg.Target, "/"),
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		maxTokens:       cfg.MaxTokens,
		language:        cfg.Language,
		requestInterval: cfg.RequestInterval,
		httpClient:      cfg.HTTPClient,
		logger:          cfg.Logger,
		maxRetries:      maxRetries,
		baseBackoff:     baseBackoff,
		maxBackoff:      maxBackoff,
		sleep:           sleepContext,
	}
}

// Synthesize asks the model to describe code and returns the generated
// prompt text. path only labels logs and errors. Each call pauses for the
// configured request interval before sending.
func (c *Client) Synthesize(ctx context.Context, path, code string) (string, error) {
	if err := c.sleep(ctx, c.requestInterval); err != nil {
		return "", &SynthesisError{Path: path, Err: err}
	}

	reqBody := messagesRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{Type: "text", Text: fmt.Sprintf(instructionTemplate, c.language, code)},
				},
			},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", &SynthesisError{Path: path, Err: fmt.Errorf("marshal request: %w", err)}
	}

	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				return "", &SynthesisError{Path: path, Status: lastStatus, Err: err}
			}
			c.logger.Debug("retrying prompt synthesis",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
			)
		}

		text, status, err := c.post(ctx, data)
		if err == nil {
			return text, nil
		}

		lastErr = err
		lastStatus = status

		if ctx.Err() != nil {
			return "", &SynthesisError{Path: path, Status: lastStatus, Err: ctx.Err()}
		}
		if !transient(status, err) {
			return "", &SynthesisError{Path: path, Status: status, Err: err}
		}
	}

	return "", &SynthesisError{
		Path:   path,
		Status: lastStatus,
		Err:    fmt.Errorf("max retries exceeded: %w", lastErr),
	}
}

// post performs one Messages API call and extracts the prompt text from the
// response. The returned status is 0 for transport errors.
func (c *Client) post(ctx context.Context, body []byte) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.target+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result messagesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
	}

	if result.Error != nil {
		return "", resp.StatusCode, fmt.Errorf("anthropic error: %s", result.Error.Message)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		sb.WriteString(block.Text)
	}

	text := extractPrompt(sb.String())
	if text == "" {
		return "", resp.StatusCode, fmt.Errorf("empty synthesis response")
	}

	return text, resp.StatusCode, nil
}

// extractPrompt returns the text inside <prompt> tags, or the whole trimmed
// response when the tags are absent.
func extractPrompt(text string) string {
	if match := promptPattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(text)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseBackoff
	if d > c.maxBackoff {
		d = c.maxBackoff
	}
	return d
}

// transient reports whether a failed attempt is worth retrying: rate limits,
// server errors, and transport errors. Auth and other 4xx are permanent.
func transient(status int, err error) bool {
	if status == 0 {
		return err != nil
	}
	return status == http.StatusTooManyRequests || status >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
