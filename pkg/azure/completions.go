package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/movetune/movetune/pkg/sse"
)

// CompletionRequest is one completions call against a deployed model.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   uint
	Temperature float64
	TopP        float64
}

// CompletionChunk is one streamed fragment of a completion. FinishReason
// is empty until the final chunk of a choice.
type CompletionChunk struct {
	Text         string
	FinishReason string
}

type completionsRequest struct {
	Prompt           string   `json:"prompt"`
	MaxTokens        uint     `json:"max_tokens"`
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	BestOf           int      `json:"best_of"`
	Stop             []string `json:"stop"`
	Stream           bool     `json:"stream"`
}

type completionsChunk struct {
	Choices []struct {
		Text         string  `json:"text"`
		Index        int     `json:"index"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// StreamCompletion streams a completion from the deployment, invoking fn
// for each chunk as it arrives. The stream ends on `data: [DONE]`. An error
// returned by fn aborts the stream and is returned as-is.
func (c *Client) StreamCompletion(ctx context.Context, deployment string, req CompletionRequest, fn func(CompletionChunk) error) error {
	body, err := json.Marshal(completionsRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		BestOf:      1,
		Stream:      true,
	})
	if err != nil {
		return &ChatError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/completions?api-version=%s", c.endpoint, deployment, c.apiVersion)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &ChatError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &ChatError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &ChatError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("azure API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			return &ChatError{Err: fmt.Errorf("reading stream: %w", err)}
		}
		if ev == nil {
			return nil
		}
		if ev.Data == "[DONE]" {
			return nil
		}

		var chunk completionsChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			return &ChatError{Err: fmt.Errorf("decoding stream chunk: %w", err)}
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		out := CompletionChunk{Text: chunk.Choices[0].Text}
		if chunk.Choices[0].FinishReason != nil {
			out.FinishReason = *chunk.Choices[0].FinishReason
		}

		if err := fn(out); err != nil {
			return err
		}
	}
}
