// Package tokens counts tokens for dataset records and chat prompts.
//
// Counts use the cl100k_base tiktoken encoding when it is available and fall
// back to a rune-length heuristic when it is not (the encoding tables are
// fetched lazily by the tiktoken library and can be unavailable offline).
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// Usage is the token footprint of a single prompt/completion pair.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// encodingCounter counts with a real tiktoken encoding.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
}

func (c *encodingCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// heuristicCounter approximates a token as four runes. Close enough for
// dataset size reporting when the encoding tables cannot be loaded.
type heuristicCounter struct{}

func (heuristicCounter) Count(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	count := n / 4
	if count == 0 {
		return 1
	}
	return count
}

// NewEncodingCounter returns a Counter backed by the cl100k_base encoding.
func NewEncodingCounter() (Counter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding: %w", err)
	}

	return &encodingCounter{encoding: encoding}, nil
}

// NewHeuristicCounter returns the rune-length fallback Counter.
func NewHeuristicCounter() Counter {
	return heuristicCounter{}
}

// NewCounter returns the best available Counter: cl100k_base when the
// encoding loads, the heuristic otherwise.
func NewCounter() Counter {
	c, err := NewEncodingCounter()
	if err != nil {
		return NewHeuristicCounter()
	}
	return c
}

// CountPair returns the Usage for one prompt/completion pair.
func CountPair(c Counter, prompt, completion string) Usage {
	promptTokens := c.Count(prompt)
	completionTokens := c.Count(completion)

	return Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}
