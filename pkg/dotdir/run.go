package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	runFile = "lastrun.json"
)

// RunState records the artifacts of the most recent pipeline run so that
// follow-up commands can pick up where the previous one left off: validate
// and submit default to the last written dataset, status defaults to the
// last submitted job.
type RunState struct {
	// RunID is the unique id of the generation run.
	RunID string `json:"run_id"`

	// Repo is the owner/name slug the dataset was generated from.
	Repo string `json:"repo"`

	// Dataset is the path of the JSONL file the run wrote.
	Dataset string `json:"dataset"`

	// Records is the number of records written.
	Records int `json:"records"`

	// FileID is the Azure file id from the most recent upload, if any.
	FileID string `json:"file_id,omitempty"`

	// JobID is the fine-tune job id from the most recent submission, if any.
	JobID string `json:"job_id,omitempty"`

	// UpdatedAt is when this state was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadRunState loads the run state from a target .movetune/lastrun.json.
// Returns nil, nil if no run state exists (no previous run).
// If overrideDir is non-empty, it is used instead of the default ~/.movetune/ location.
func (m *Manager) LoadRunState(overrideDir string) (*RunState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, runFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run state: %w", err)
	}

	state := &RunState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing run state: %w", err)
	}

	return state, nil
}

// SaveRunState persists the run state to a target .movetune/lastrun.json.
func (m *Manager) SaveRunState(state *RunState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil run state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	state.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run state: %w", err)
	}

	path := filepath.Join(dir, runFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run state: %w", err)
	}

	return nil
}

// ClearRunState removes the run state file.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearRunState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, runFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing run state: %w", err)
	}

	return nil
}
