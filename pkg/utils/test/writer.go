package testutils

import "github.com/movetune/movetune/pkg/dataset"

// MockPairWriter records written pairs in memory.
type MockPairWriter struct {
	// Pairs accumulates all pairs passed to Write.
	Pairs []dataset.Pair

	// FailErr causes every Write to return this error.
	FailErr error
}

// NewMockPairWriter creates a new mock pair writer.
func NewMockPairWriter() *MockPairWriter {
	return &MockPairWriter{
		Pairs: make([]dataset.Pair, 0),
	}
}

func (m *MockPairWriter) Write(pair dataset.Pair) error {
	if m.FailErr != nil {
		return m.FailErr
	}
	m.Pairs = append(m.Pairs, pair)
	return nil
}
