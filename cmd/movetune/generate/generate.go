// Package generatecmder provides the generate command for building a
// prompt/completion dataset from a GitHub repository.
package generatecmder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	enry "github.com/go-enry/go-enry/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/movetune/movetune/pkg/anthropic"
	"github.com/movetune/movetune/pkg/cliui"
	"github.com/movetune/movetune/pkg/config"
	"github.com/movetune/movetune/pkg/credentials"
	"github.com/movetune/movetune/pkg/dataset"
	"github.com/movetune/movetune/pkg/dotdir"
	"github.com/movetune/movetune/pkg/git"
	"github.com/movetune/movetune/pkg/github"
	"github.com/movetune/movetune/pkg/logger"
	"github.com/movetune/movetune/pkg/pipeline"
	"github.com/movetune/movetune/pkg/tokens"
)

type generateCommander struct {
	repo            string
	ref             string
	apiBase         string
	rawBase         string
	extension       string
	language        string
	output          string
	synthTarget     string
	synthModel      string
	synthMaxTokens  uint
	requestInterval string
	httpTimeout     string
	synthesize      bool
	debug           bool
	configDir       string

	logger *zap.Logger
}

const generateLongDesc string = `Build a prompt/completion fine-tuning dataset from a GitHub repository.

Walks the repository tree at the configured ref, fetches every file with
the configured extension, and writes one JSONL record per file. Files
that carry a "/// @prompt" annotation use it verbatim; all other files
get a prompt synthesized by an Anthropic model. Files whose synthesis
fails after retries are skipped and the run continues.

With no --repo, the origin remote of the current git repository is used
when it points at GitHub.

The output path defaults to <owner>-<name>_dataset.jsonl in the current
directory. The run is recorded in .movetune/ so validate and submit can
pick up the dataset without repeating flags.

Examples:
  movetune generate --repo movefuns/move-examples
  movetune generate --repo movefuns/move-examples --ref develop -o move.jsonl
  movetune generate --repo myorg/contracts --synthesize=false`

const generateShortDesc string = "Build a fine-tuning dataset from a GitHub repo"

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagRepo,
				config.FlagRef,
				config.FlagExtension,
				config.FlagOutput,
				config.FlagSynthTarget,
				config.FlagSynthModel,
				config.FlagSynthMaxTokens,
				config.FlagRequestInterval,
				config.FlagHTTPTimeout,
			})

			cmder.repo = v.GetString("github.repo")
			cmder.ref = v.GetString("github.ref")
			cmder.apiBase = v.GetString("github.api_base")
			cmder.rawBase = v.GetString("github.raw_base")
			cmder.extension = v.GetString("source.extension")
			cmder.language = v.GetString("source.language")
			cmder.output = v.GetString("dataset.output")
			cmder.synthTarget = v.GetString("synthesis.target")
			cmder.synthModel = v.GetString("synthesis.model")
			cmder.synthMaxTokens = v.GetUint("synthesis.max_tokens")
			cmder.requestInterval = v.GetString("synthesis.request_interval")
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

	config.AddStringFlag(cmd, config.Flags, config.FlagRepo, &cmder.repo)
	config.AddStringFlag(cmd, config.Flags, config.FlagRef, &cmder.ref)
	config.AddStringFlag(cmd, config.Flags, config.FlagExtension, &cmder.extension)
	config.AddStringFlag(cmd, config.Flags, config.FlagOutput, &cmder.output)
	config.AddStringFlag(cmd, config.Flags, config.FlagSynthTarget, &cmder.synthTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagSynthModel, &cmder.synthModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagSynthMaxTokens, &cmder.synthMaxTokens)
	config.AddStringFlag(cmd, config.Flags, config.FlagRequestInterval, &cmder.requestInterval)
	config.AddStringFlag(cmd, config.Flags, config.FlagHTTPTimeout, &cmder.httpTimeout)
	cmd.Flags().BoolVar(&cmder.synthesize, "synthesize", true, "Synthesize prompts for files without annotations")

	return cmd
}

func (c *generateCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.repo == "" {
		if slug := git.RepoSlug(); slug != "" {
			c.logger.Debug("using origin remote as repo", zap.String("repo", slug))
			c.repo = slug
		}
	}
	if c.repo == "" {
		return errors.New("no repository configured: pass --repo or set github.repo")
	}

	interval, err := time.ParseDuration(c.requestInterval)
	if err != nil {
		return fmt.Errorf("invalid synthesis.request_interval: %w", err)
	}
	timeout, err := time.ParseDuration(c.httpTimeout)
	if err != nil {
		return fmt.Errorf("invalid http.timeout: %w", err)
	}

	credMgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	githubToken, tokenSource, err := credMgr.ResolveKey("github", "")
	if err != nil {
		return err
	}
	if githubToken != "" {
		c.logger.Debug("github token resolved", zap.String("source", tokenSource))
	}

	var synth pipeline.Synthesizer
	if c.synthesize {
		anthropicKey, keySource, err := credMgr.ResolveKey("anthropic", "")
		if err != nil {
			return err
		}
		if anthropicKey == "" {
			return errors.New("no Anthropic API key: run 'movetune auth anthropic' or set ANTHROPIC_API_KEY")
		}
		c.logger.Debug("anthropic key resolved", zap.String("source", keySource))

		synth = anthropic.NewClient(anthropic.Config{
			Target:          c.synthTarget,
			APIKey:          anthropicKey,
			Model:           c.synthModel,
			MaxTokens:       c.synthMaxTokens,
			Language:        c.language,
			RequestInterval: interval,
			HTTPClient:      &http.Client{Timeout: timeout},
			Logger:          c.logger,
		})
	}

	source := github.NewClient(github.Config{
		APIBase:    c.apiBase,
		RawBase:    c.rawBase,
		Token:      githubToken,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     c.logger,
	})

	output := c.output
	if output == "" {
		output = dataset.DefaultName(c.repo)
	}

	writer, err := dataset.NewWriter(output)
	if err != nil {
		return err
	}

	builder := pipeline.NewBuilder(pipeline.Config{
		Repo:      c.repo,
		Ref:       c.ref,
		Extension: c.extension,
		Source: &detectingSource{
			inner:    source,
			language: c.language,
			logger:   c.logger,
		},
		Synthesizer: synth,
		Writer:      writer,
		Counter:     tokens.NewCounter(),
		Logger:      c.logger,
	})

	fmt.Printf("\n  %s %s %s\n\n",
		cliui.KeyStyle.Render("Generating from:"),
		cliui.NameStyle.Render(c.repo),
		cliui.DimStyle.Render("("+c.ref+")"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := builder.Run(ctx)
	closeErr := writer.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return closeErr
	}

	state := &dotdir.RunState{
		RunID:   result.RunID,
		Repo:    c.repo,
		Dataset: output,
		Records: result.Written,
	}
	if err := dotdir.NewManager().SaveRunState(state, c.configDir); err != nil {
		c.logger.Warn("saving run state", zap.Error(err))
	}

	fmt.Printf("  %s Wrote %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(output),
		cliui.DimStyle.Render(fmt.Sprintf("(%d records)", result.Written)),
	)
	fmt.Printf("  %s\n\n", result.Summary())

	return nil
}

// detectingSource filters vendored paths out of tree listings and flags
// files whose detected language differs from the configured one. The
// extension stays authoritative; detection is advisory.
type detectingSource struct {
	inner    pipeline.Source
	language string
	logger   *zap.Logger
}

func (s *detectingSource) ListMatching(ctx context.Context, repo, ref, extension string) ([]github.TreeEntry, error) {
	entries, err := s.inner.ListMatching(ctx, repo, ref, extension)
	if err != nil {
		return nil, err
	}

	kept := make([]github.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		if enry.IsVendor(entry.Path) {
			s.logger.Debug("skipping vendored path", zap.String("path", entry.Path))
			continue
		}
		kept = append(kept, entry)
	}
	return kept, nil
}

func (s *detectingSource) FetchFile(ctx context.Context, repo, ref, path string) (github.SourceFile, error) {
	file, err := s.inner.FetchFile(ctx, repo, ref, path)
	if err != nil {
		return file, err
	}

	detected := enry.GetLanguage(filepath.Base(path), []byte(file.Content))
	if detected != "" && detected != s.language {
		s.logger.Debug("detected language differs",
			zap.String("path", path),
			zap.String("detected", detected),
			zap.String("configured", s.language))
	}

	return file, nil
}
