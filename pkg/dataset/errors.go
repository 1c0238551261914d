package dataset

import "fmt"

// WriteError describes a failed dataset file operation.
type WriteError struct {
	Path string
	Op   string // create, write, flush, close
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("dataset %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
