// Package dataset persists prompt/completion pairs as JSONL and reads
// them back for validation and submission.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Pair is one fine-tuning record: a natural-language prompt and the
// code it should produce.
type Pair struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// DefaultName derives the output filename from an owner/name repo slug.
func DefaultName(repo string) string {
	return strings.ReplaceAll(repo, "/", "-") + "_dataset.jsonl"
}

// Writer appends pairs to a JSONL file, one object per line.
type Writer struct {
	path    string
	file    *os.File
	buf     *bufio.Writer
	enc     *json.Encoder
	records int
	closed  bool
}

// NewWriter creates or truncates the file at path. The parent directory
// must already exist.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, &WriteError{Path: path, Op: "create", Err: err}
	}

	buf := bufio.NewWriter(file)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	return &Writer{path: path, file: file, buf: buf, enc: enc}, nil
}

// Write appends one pair as a compact JSON object followed by a newline.
// Each record is flushed so a crash mid-run loses at most the record
// being written.
func (w *Writer) Write(pair Pair) error {
	if w.closed {
		return &WriteError{Path: w.path, Op: "write", Err: errors.New("writer is closed")}
	}
	if err := w.enc.Encode(pair); err != nil {
		return &WriteError{Path: w.path, Op: "write", Err: err}
	}
	if err := w.buf.Flush(); err != nil {
		return &WriteError{Path: w.path, Op: "flush", Err: err}
	}
	w.records++
	return nil
}

// Records reports how many pairs have been written so far.
func (w *Writer) Records() int {
	return w.records
}

// Path returns the file path the writer was opened with.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes buffered output and closes the file. Calling Close more
// than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return &WriteError{Path: w.path, Op: "flush", Err: err}
	}
	if err := w.file.Close(); err != nil {
		return &WriteError{Path: w.path, Op: "close", Err: err}
	}
	return nil
}

// Read parses a JSONL dataset file back into pairs. Blank lines are
// skipped; a malformed line is an error naming the line number.
func Read(path string) ([]Pair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	var pairs []Pair

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB max line

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var pair Pair
		if err := json.Unmarshal([]byte(text), &pair); err != nil {
			return nil, fmt.Errorf("parsing dataset line %d: %w", line, err)
		}
		pairs = append(pairs, pair)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	return pairs, nil
}
