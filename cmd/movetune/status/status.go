// Package statuscmder provides the status command for displaying the
// fine-tune job from the most recent submission.
package statuscmder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/movetune/movetune/pkg/azure"
	"github.com/movetune/movetune/pkg/cliui"
	"github.com/movetune/movetune/pkg/config"
	"github.com/movetune/movetune/pkg/credentials"
	"github.com/movetune/movetune/pkg/dotdir"
	"github.com/movetune/movetune/pkg/logger"
)

type statusCommander struct {
	job         string
	endpoint    string
	apiVersion  string
	httpTimeout string
	debug       bool
	configDir   string

	logger *zap.Logger
}

const statusLongDesc string = `Show the state of a fine-tune job.

Without --job, shows the job from the most recent 'movetune submit'
recorded in .movetune/. The service owns the job lifecycle; this is a
one-shot read, not a polling loop.

Examples:
  movetune status
  movetune status --job ftjob-abc123`

const statusShortDesc string = "Show a fine-tune job's state"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
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
				config.FlagHTTPTimeout,
			})

			cmder.endpoint = v.GetString("azure.endpoint")
			cmder.apiVersion = v.GetString("azure.api_version")
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
	config.AddStringFlag(cmd, config.Flags, config.FlagHTTPTimeout, &cmder.httpTimeout)
	cmd.Flags().StringVarP(&cmder.job, "job", "j", "", "Fine-tune job id (default: last submitted job)")

	return cmd
}

func (c *statusCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	state, err := dotdir.NewManager().LoadRunState(c.configDir)
	if err != nil {
		return err
	}

	jobID := c.job
	if jobID == "" {
		if state == nil || state.JobID == "" {
			fmt.Printf("\n  %s No fine-tune job submitted yet. Run 'movetune submit' first.\n\n",
				cliui.DimStyle.Render("●"))
			return nil
		}
		jobID = state.JobID
	}

	if c.endpoint == "" {
		return errors.New("no Azure endpoint configured: pass --endpoint or set azure.endpoint")
	}

	timeout, err := time.ParseDuration(c.httpTimeout)
	if err != nil {
		return fmt.Errorf("invalid http.timeout: %w", err)
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

	client := azure.NewClient(azure.Config{
		Endpoint:   c.endpoint,
		APIKey:     apiKey,
		APIVersion: c.apiVersion,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     c.logger,
	})

	job, err := client.GetFineTune(context.Background(), jobID)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Job:    "), cliui.HashStyle.Render(job.ID))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Status: "), cliui.ValueStyle.Render(job.Status))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Model:  "), cliui.NameStyle.Render(job.Model))
	if job.TrainingFile != "" {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("File:   "), cliui.DimStyle.Render(job.TrainingFile))
	}
	if job.CreatedAt > 0 {
		created := time.Unix(job.CreatedAt, 0).UTC()
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Created:"), cliui.DimStyle.Render(created.Format(time.RFC3339)))
	}
	if state != nil && state.Dataset != "" && c.job == "" {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Dataset:"), cliui.DimStyle.Render(state.Dataset))
	}
	fmt.Println()

	return nil
}
