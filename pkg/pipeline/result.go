package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/movetune/movetune/pkg/utils"
)

// Outcome tags how a file was turned into a pair, or why it was not.
type Outcome string

const (
	OutcomeExtracted   Outcome = "extracted"
	OutcomeSynthesized Outcome = "synthesized"
	OutcomeSkipped     Outcome = "skipped"
)

// Skip records one file the run left out of the dataset.
type Skip struct {
	Path   string
	Reason string
	Err    error
}

// Result summarizes a completed run.
type Result struct {
	RunID            string
	Files            int
	Extracted        int
	Synthesized      int
	Skipped          int
	Written          int
	TokensPrompt     int
	TokensCompletion int
	Elapsed          time.Duration
	Skips            []Skip
}

// Summary renders the end-of-run report.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files: %d pairs written (%d annotated, %d synthesized), %d skipped in %s",
		r.Files, r.Written, r.Extracted, r.Synthesized, r.Skipped, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "\ntokens: %d prompt, %d completion", r.TokensPrompt, r.TokensCompletion)
	for _, skip := range r.Skips {
		detail := skip.Reason
		if skip.Err != nil {
			detail = fmt.Sprintf("%s: %s", skip.Reason, utils.Truncate(skip.Err.Error(), 120))
		}
		fmt.Fprintf(&b, "\n  skipped %s: %s", skip.Path, detail)
	}
	return b.String()
}
