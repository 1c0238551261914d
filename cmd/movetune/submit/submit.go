// Package submitcmder provides the submit command for uploading a dataset
// and starting an Azure OpenAI fine-tuning job.
package submitcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/movetune/movetune/pkg/azure"
	"github.com/movetune/movetune/pkg/cliui"
	"github.com/movetune/movetune/pkg/config"
	"github.com/movetune/movetune/pkg/credentials"
	"github.com/movetune/movetune/pkg/dataset"
	"github.com/movetune/movetune/pkg/dotdir"
	"github.com/movetune/movetune/pkg/logger"
	"github.com/movetune/movetune/pkg/tokens"
)

type submitCommander struct {
	file        string
	endpoint    string
	apiVersion  string
	baseModel   string
	httpTimeout string
	yes         bool
	debug       bool
	configDir   string

	logger *zap.Logger
}

const submitLongDesc string = `Upload a dataset and start an Azure OpenAI fine-tuning job.

The dataset is validated locally first; a dataset Azure would reject
(fewer than 10 records, unparseable lines) is never uploaded. On
success the file id and job id are recorded in .movetune/ so
'movetune status' can show the job without flags.

The fine-tuning job itself runs on the service; submit returns as soon
as the job is created.

Examples:
  movetune submit
  movetune submit --file movefuns-move-examples_dataset.jsonl
  movetune submit --base-model davinci-002 --yes`

const submitShortDesc string = "Upload a dataset and start a fine-tune job"

func NewSubmitCmd() *cobra.Command {
	cmder := &submitCommander{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: submitShortDesc,
		Long:  submitLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagEndpoint,
				config.FlagAPIVersion,
				config.FlagBaseModel,
				config.FlagHTTPTimeout,
			})

			cmder.endpoint = v.GetString("azure.endpoint")
			cmder.apiVersion = v.GetString("azure.api_version")
			cmder.baseModel = v.GetString("finetune.base_model")
			cmder.httpTimeout = v.GetString("http.timeout")
			cmder.configDir = configDir

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIVersion, &cmder.apiVersion)
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseModel, &cmder.baseModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagHTTPTimeout, &cmder.httpTimeout)
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Dataset path (default: last generated dataset)")
	cmd.Flags().BoolVarP(&cmder.yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func (c *submitCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.endpoint == "" {
		return errors.New("no Azure endpoint configured: pass --endpoint or set azure.endpoint")
	}

	timeout, err := time.ParseDuration(c.httpTimeout)
	if err != nil {
		return fmt.Errorf("invalid http.timeout: %w", err)
	}

	dotdirManager := dotdir.NewManager()

	state, err := dotdirManager.LoadRunState(c.configDir)
	if err != nil {
		return err
	}

	file := c.file
	if file == "" {
		if state == nil || state.Dataset == "" {
			return errors.New("no dataset to submit: pass --file or run 'movetune generate' first")
		}
		file = state.Dataset
	}

	// Validate locally before any upload. An unsubmittable dataset never
	// leaves the machine, and the file on disk is never touched.
	pairs, err := dataset.Read(file)
	if err != nil {
		return err
	}
	report := dataset.Validate(pairs, tokens.NewCounter())
	if !report.Valid() {
		for _, errMsg := range report.Errors {
			fmt.Fprintf(os.Stderr, "  %s %s\n", cliui.FailMark, errMsg)
		}
		return fmt.Errorf("dataset %s is not submittable", file)
	}

	credMgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	apiKey, keySource, err := credMgr.ResolveKey("azure", "")
	if err != nil {
		return err
	}
	if apiKey == "" {
		return errors.New("no Azure API key: run 'movetune auth azure' or set AZURE_OPENAI_API_KEY")
	}
	c.logger.Debug("azure key resolved", zap.String("source", keySource))

	fmt.Printf("\n  %s %s %s\n",
		cliui.KeyStyle.Render("Submitting:"),
		cliui.NameStyle.Render(file),
		cliui.DimStyle.Render(fmt.Sprintf("(%d records, %d tokens)", report.Records, report.Total.TotalTokens)),
	)
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Base model:"),
		cliui.NameStyle.Render(c.baseModel),
	)

	if !c.yes {
		if !confirm() {
			fmt.Printf("  %s Aborted.\n\n", cliui.DimStyle.Render("●"))
			return nil
		}
		fmt.Println()
	}

	client := azure.NewClient(azure.Config{
		Endpoint:   c.endpoint,
		APIKey:     apiKey,
		APIVersion: c.apiVersion,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     c.logger,
	})

	ctx := context.Background()

	var uploaded azure.UploadedFile
	err = cliui.Step(os.Stdout, "Uploading dataset", func() error {
		var stepErr error
		uploaded, stepErr = client.UploadFile(ctx, file)
		return stepErr
	})
	if err != nil {
		return err
	}

	var job azure.FineTuneJob
	err = cliui.Step(os.Stdout, "Creating fine-tune job", func() error {
		var stepErr error
		job, stepErr = client.CreateFineTune(ctx, uploaded.ID, c.baseModel)
		return stepErr
	})
	if err != nil {
		return err
	}

	if state == nil {
		state = &dotdir.RunState{Dataset: file}
	}
	state.FileID = uploaded.ID
	state.JobID = job.ID
	if err := dotdirManager.SaveRunState(state, c.configDir); err != nil {
		c.logger.Warn("saving run state", zap.Error(err))
	}

	fmt.Printf("\n  %s Fine-tune job %s %s\n\n",
		cliui.SuccessMark,
		cliui.HashStyle.Render(job.ID),
		cliui.DimStyle.Render("("+job.Status+")"),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Check progress with 'movetune status'."))

	return nil
}

// confirm reads a y/N answer from stdin.
func confirm() bool {
	fmt.Print("  Continue? [y/N] ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
