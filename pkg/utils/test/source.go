package testutils

import (
	"context"
	"errors"
	"strings"

	"github.com/movetune/movetune/pkg/github"
)

// MockSource is a test source that serves a fixed set of files in order.
type MockSource struct {
	// Files are served by ListMatching and FetchFile, in slice order.
	Files []github.SourceFile

	// ListErr causes ListMatching to fail.
	ListErr error

	// FetchErrs causes FetchFile to fail for the given paths.
	FetchErrs map[string]error

	// Fetched accumulates every path passed to FetchFile.
	Fetched []string
}

// NewMockSource creates a mock source serving the given files.
func NewMockSource(files ...github.SourceFile) *MockSource {
	return &MockSource{
		Files:     files,
		FetchErrs: make(map[string]error),
	}
}

func (m *MockSource) ListMatching(_ context.Context, _, _, extension string) ([]github.TreeEntry, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	entries := make([]github.TreeEntry, 0, len(m.Files))
	for _, file := range m.Files {
		if extension == "" || strings.HasSuffix(file.Path, extension) {
			entries = append(entries, github.TreeEntry{Path: file.Path, Type: "blob"})
		}
	}
	return entries, nil
}

func (m *MockSource) FetchFile(_ context.Context, _, _, path string) (github.SourceFile, error) {
	m.Fetched = append(m.Fetched, path)

	if err, ok := m.FetchErrs[path]; ok {
		return github.SourceFile{}, err
	}
	for _, file := range m.Files {
		if file.Path == path {
			return file, nil
		}
	}
	return github.SourceFile{}, &github.FetchError{Path: path, Status: 404, Err: errors.New("no such file")}
}
