// Package pipeline drives the dataset build: list matching files, fetch
// each one, derive a prompt by annotation or synthesis, and append the
// pair to the dataset writer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/movetune/movetune/pkg/anthropic"
	"github.com/movetune/movetune/pkg/dataset"
	"github.com/movetune/movetune/pkg/github"
	"github.com/movetune/movetune/pkg/prompt"
	"github.com/movetune/movetune/pkg/tokens"
)

// ErrNoAnnotation marks a file that carries no prompt annotation while
// synthesis is disabled.
var ErrNoAnnotation = errors.New("no prompt annotation")

// Source lists and fetches repository files.
type Source interface {
	ListMatching(ctx context.Context, repo, ref, extension string) ([]github.TreeEntry, error)
	FetchFile(ctx context.Context, repo, ref, path string) (github.SourceFile, error)
}

// Synthesizer produces a prompt describing the given code.
type Synthesizer interface {
	Synthesize(ctx context.Context, path, code string) (string, error)
}

// PairWriter appends one pair to the dataset.
type PairWriter interface {
	Write(dataset.Pair) error
}

// Config carries the collaborators for a Builder.
type Config struct {
	Repo        string
	Ref         string
	Extension   string
	Source      Source
	Synthesizer Synthesizer
	Writer      PairWriter
	Counter     tokens.Counter
	Logger      *zap.Logger
}

// Builder walks a repository and turns each matching file into one
// prompt/completion pair.
type Builder struct {
	repo      string
	ref       string
	extension string
	source    Source
	synth     Synthesizer
	writer    PairWriter
	counter   tokens.Counter
	logger    *zap.Logger
}

// NewBuilder constructs a Builder from cfg.
func NewBuilder(cfg Config) *Builder {
	counter := cfg.Counter
	if counter == nil {
		counter = tokens.NewHeuristicCounter()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		repo:      cfg.Repo,
		ref:       cfg.Ref,
		extension: cfg.Extension,
		source:    cfg.Source,
		synth:     cfg.Synthesizer,
		writer:    cfg.Writer,
		counter:   counter,
		logger:    logger,
	}
}

// Run processes every matching file in tree order. One file's failure
// skips that file and continues; authentication failures and dataset
// write failures abort the run. The returned error is nil when the loop
// completed, even if every file was skipped.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	defer func() { result.Elapsed = time.Since(start) }()

	entries, err := b.source.ListMatching(ctx, b.repo, b.ref, b.extension)
	if err != nil {
		return nil, fmt.Errorf("listing %s files in %s@%s: %w", b.extension, b.repo, b.ref, err)
	}
	result.Files = len(entries)

	b.logger.Info("run started",
		zap.String("run_id", result.RunID),
		zap.String("repo", b.repo),
		zap.String("ref", b.ref),
		zap.Int("files", len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		file, err := b.source.FetchFile(ctx, b.repo, b.ref, entry.Path)
		if err != nil {
			var fetchErr *github.FetchError
			if errors.As(err, &fetchErr) && fetchErr.IsAuth() {
				b.logger.Error("authentication failed", zap.String("path", entry.Path), zap.Error(err))
				return result, fmt.Errorf("run aborted: %w", err)
			}
			b.skip(result, entry.Path, "fetch failed", err)
			continue
		}

		pair, outcome, err := b.buildPair(ctx, file)
		if err != nil {
			var synthErr *anthropic.SynthesisError
			if errors.As(err, &synthErr) && synthErr.IsAuth() {
				b.logger.Error("authentication failed", zap.String("path", entry.Path), zap.Error(err))
				return result, fmt.Errorf("run aborted: %w", err)
			}
			reason := "synthesis failed"
			if errors.Is(err, ErrNoAnnotation) {
				reason = "no annotation"
			}
			b.skip(result, entry.Path, reason, err)
			continue
		}

		if err := b.writer.Write(pair); err != nil {
			b.logger.Error("dataset write failed", zap.String("path", entry.Path), zap.Error(err))
			return result, err
		}
		result.Written++
		switch outcome {
		case OutcomeExtracted:
			result.Extracted++
		case OutcomeSynthesized:
			result.Synthesized++
		}

		usage := tokens.CountPair(b.counter, pair.Prompt, pair.Completion)
		result.TokensPrompt += usage.PromptTokens
		result.TokensCompletion += usage.CompletionTokens

		b.logger.Info("pair written",
			zap.String("path", entry.Path),
			zap.String("outcome", string(outcome)),
			zap.Int("tokens", usage.TotalTokens))
	}

	b.logger.Info("run complete",
		zap.String("run_id", result.RunID),
		zap.Int("written", result.Written),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

// buildPair prefers the file's own annotation; files without one go to
// the synthesizer. The completion always has the license header trimmed.
func (b *Builder) buildPair(ctx context.Context, file github.SourceFile) (dataset.Pair, Outcome, error) {
	completion := prompt.TrimLicenseHeader(file.Content)

	if annotation, ok := prompt.Extract(file.Content); ok {
		return dataset.Pair{Prompt: annotation, Completion: completion}, OutcomeExtracted, nil
	}

	if b.synth == nil {
		return dataset.Pair{}, OutcomeSkipped, ErrNoAnnotation
	}

	synthesized, err := b.synth.Synthesize(ctx, file.Path, completion)
	if err != nil {
		return dataset.Pair{}, OutcomeSkipped, err
	}
	return dataset.Pair{Prompt: synthesized, Completion: completion}, OutcomeSynthesized, nil
}

func (b *Builder) skip(result *Result, path, reason string, err error) {
	result.Skipped++
	result.Skips = append(result.Skips, Skip{Path: path, Reason: reason, Err: err})
	b.logger.Warn("file skipped",
		zap.String("path", path),
		zap.String("reason", reason),
		zap.Error(err))
}
