// Package validatecmder provides the validate command for checking a
// dataset before submission.
package validatecmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/movetune/movetune/pkg/cliui"
	"github.com/movetune/movetune/pkg/dataset"
	"github.com/movetune/movetune/pkg/dotdir"
	"github.com/movetune/movetune/pkg/tokens"
)

const validateLongDesc string = `Check a JSONL dataset against the fine-tuning requirements.

Reads every record, verifies the file parses, and reports errors that
would make Azure reject the upload (too few records) along with
advisory warnings (duplicate prompts, completions that contain their
own prompt, empty fields) and token statistics.

With no --file argument the dataset from the most recent
'movetune generate' run is used.

Examples:
  movetune validate
  movetune validate --file movefuns-move-examples_dataset.jsonl`

const validateShortDesc string = "Validate a dataset before submission"

func NewValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: validateShortDesc,
		Long:  validateLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runValidate(file, configDir)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Dataset path (default: last generated dataset)")

	return cmd
}

func runValidate(file, configDir string) error {
	if file == "" {
		state, err := dotdir.NewManager().LoadRunState(configDir)
		if err != nil {
			return err
		}
		if state == nil || state.Dataset == "" {
			return errors.New("no dataset to validate: pass --file or run 'movetune generate' first")
		}
		file = state.Dataset
	}

	pairs, err := dataset.Read(file)
	if err != nil {
		return err
	}

	report := dataset.Validate(pairs, tokens.NewCounter())

	fmt.Printf("\n  %s %s\n\n",
		cliui.KeyStyle.Render("Dataset:"),
		cliui.NameStyle.Render(file),
	)

	for _, warning := range report.Warnings {
		fmt.Printf("  %s %s\n", cliui.WarnStyle.Render("!"), warning)
	}
	for _, errMsg := range report.Errors {
		fmt.Printf("  %s %s\n", cliui.FailMark, errMsg)
	}
	if len(report.Warnings) > 0 || len(report.Errors) > 0 {
		fmt.Println()
	}

	fmt.Printf("  %s\n\n", report.Summary())

	if !report.Valid() {
		return fmt.Errorf("dataset %s is not submittable", file)
	}

	fmt.Printf("  %s Dataset is ready to submit.\n\n", cliui.SuccessMark)
	return nil
}
