package dataset

import (
	"fmt"
	"strings"

	"github.com/movetune/movetune/pkg/tokens"
	"github.com/movetune/movetune/pkg/utils"
)

// MinRecords is the smallest dataset Azure OpenAI accepts for
// fine-tuning; uploads below it are rejected server-side.
const MinRecords = 10

// Report is the result of validating a dataset. Errors make the
// dataset unsubmittable; warnings are advisory.
type Report struct {
	Records  int
	Errors   []string
	Warnings []string
	Usage    []tokens.Usage // per record, in dataset order
	Total    tokens.Usage
}

// Valid reports whether the dataset can be submitted for fine-tuning.
func (r Report) Valid() bool {
	return len(r.Errors) == 0
}

// Summary renders the report as a single line for CLI output.
func (r Report) Summary() string {
	return fmt.Sprintf("%d records, %d tokens (%d prompt, %d completion), %d errors, %d warnings",
		r.Records, r.Total.TotalTokens, r.Total.PromptTokens, r.Total.CompletionTokens,
		len(r.Errors), len(r.Warnings))
}

// Validate checks pairs against the fine-tuning requirements and
// computes token statistics with the given counter.
func Validate(pairs []Pair, counter tokens.Counter) Report {
	report := Report{Records: len(pairs)}

	if len(pairs) < MinRecords {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%d records; fine-tuning requires at least %d", len(pairs), MinRecords))
	}

	seen := make(map[string]int, len(pairs))
	for i, pair := range pairs {
		record := i + 1

		if strings.TrimSpace(pair.Prompt) == "" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("record %d: empty prompt", record))
		}
		if strings.TrimSpace(pair.Completion) == "" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("record %d: empty completion", record))
		}

		if first, ok := seen[pair.Prompt]; ok {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("record %d: duplicate prompt (first at record %d): %s",
					record, first, utils.Truncate(pair.Prompt, 60)))
		} else {
			seen[pair.Prompt] = record
		}

		if pair.Prompt != "" && strings.Contains(pair.Completion, pair.Prompt) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("record %d: completion contains its own prompt", record))
		}

		usage := tokens.CountPair(counter, pair.Prompt, pair.Completion)
		report.Usage = append(report.Usage, usage)
		report.Total.PromptTokens += usage.PromptTokens
		report.Total.CompletionTokens += usage.CompletionTokens
		report.Total.TotalTokens += usage.TotalTokens
	}

	return report
}
