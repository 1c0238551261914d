package testutils

import (
	"context"
	"fmt"
)

// MockSynthesizer is a test synthesizer that returns predictable prompts.
type MockSynthesizer struct {
	// Prompts maps a file path to the prompt to return for it.
	Prompts map[string]string

	// Errs causes Synthesize to fail for the given paths.
	Errs map[string]error

	// Calls accumulates every path passed to Synthesize.
	Calls []string

	// Codes accumulates every code body passed to Synthesize.
	Codes []string
}

// NewMockSynthesizer creates a new mock synthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{
		Prompts: make(map[string]string),
		Errs:    make(map[string]error),
	}
}

func (m *MockSynthesizer) Synthesize(_ context.Context, path, code string) (string, error) {
	m.Calls = append(m.Calls, path)
	m.Codes = append(m.Codes, code)

	if err, ok := m.Errs[path]; ok {
		return "", err
	}
	if prompt, ok := m.Prompts[path]; ok {
		return prompt, nil
	}

	// Return a default prompt for any path
	return fmt.Sprintf("Describes %s", path), nil
}
