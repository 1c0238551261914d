// Package chatcmder provides the chat command for talking to a
// fine-tuned Azure OpenAI deployment.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/movetune/movetune/pkg/azure"
	"github.com/movetune/movetune/pkg/cliui"
	"github.com/movetune/movetune/pkg/config"
	"github.com/movetune/movetune/pkg/credentials"
	"github.com/movetune/movetune/pkg/logger"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("model> ")
)

type chatCommander struct {
	endpoint    string
	deployment  string
	apiVersion  string
	maxTokens   uint
	temperature float64
	topP        float64
	httpTimeout string
	render      bool
	debug       bool
	configDir   string

	client *azure.Client
	logger *zap.Logger
}

const chatLongDesc string = `Start an interactive completion session against a fine-tuned deployment.

Each turn sends the session transcript plus your new input to the Azure
OpenAI completions endpoint and streams the reply as it arrives. A failed
turn is printed and can be retried without losing the transcript.

Commands inside the session:
  /exit     quit (Ctrl+D also works)
  /reset    clear the session transcript

Examples:
  movetune chat --deployment move-ft-1
  movetune chat --deployment move-ft-1 --max-tokens 200 --temperature 0.7
  movetune chat --deployment move-ft-1 --render`

const chatShortDesc string = "Chat with a fine-tuned deployment"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagEndpoint,
				config.FlagDeployment,
				config.FlagAPIVersion,
				config.FlagChatMaxTokens,
				config.FlagTemperature,
				config.FlagTopP,
				config.FlagHTTPTimeout,
			})

			cmder.endpoint = v.GetString("azure.endpoint")
			cmder.deployment = v.GetString("azure.deployment")
			cmder.apiVersion = v.GetString("azure.api_version")
			cmder.maxTokens = v.GetUint("chat.max_tokens")
			cmder.temperature = v.GetFloat64("chat.temperature")
			cmder.topP = v.GetFloat64("chat.top_p")
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
	config.AddStringFlag(cmd, config.Flags, config.FlagDeployment, &cmder.deployment)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIVersion, &cmder.apiVersion)
	config.AddUintFlag(cmd, config.Flags, config.FlagChatMaxTokens, &cmder.maxTokens)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagTopP, &cmder.topP)
	config.AddStringFlag(cmd, config.Flags, config.FlagHTTPTimeout, &cmder.httpTimeout)
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Re-render each reply as markdown after streaming")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.endpoint == "" {
		return errors.New("no Azure endpoint configured: pass --endpoint or set azure.endpoint")
	}
	if c.deployment == "" {
		return errors.New("no deployment configured: pass --deployment or set azure.deployment")
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

	c.client = azure.NewClient(azure.Config{
		Endpoint:   c.endpoint,
		APIKey:     apiKey,
		APIVersion: c.apiVersion,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     c.logger,
	})

	fmt.Println()
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Deployment:"),
		cliui.NameStyle.Render(c.deployment),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit, /reset to clear."))

	// The session transcript: prior user inputs and model replies in
	// order. Each turn's prompt is the transcript plus the new input so
	// the completions endpoint sees the conversation so far.
	var transcript []string

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}
		if input == "/reset" {
			transcript = nil
			fmt.Printf("  %s Transcript cleared.\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		reply, err := c.sendAndStream(transcript, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n  %s %v\n", cliui.FailMark, err)
			// Transcript is untouched; the user can retry the turn.
			continue
		}

		transcript = append(transcript, input, reply)

		if c.render && reply != "" {
			rendered, rerr := cliui.RenderMarkdown(reply)
			if rerr == nil {
				fmt.Println()
				fmt.Print(rendered)
			}
		}

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// sendAndStream sends one completion request built from the transcript and
// the new input, printing chunks as they arrive. Returns the full reply.
func (c *chatCommander) sendAndStream(transcript []string, input string) (string, error) {
	prompt := strings.Join(append(append([]string{}, transcript...), input), "\n")

	c.logger.Debug("sending completion request",
		zap.String("deployment", c.deployment),
		zap.Int("transcript_turns", len(transcript)),
	)

	fmt.Print(assistantPrompt)

	var reply strings.Builder
	err := c.client.StreamCompletion(context.Background(), c.deployment,
		azure.CompletionRequest{
			Prompt:      prompt,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			TopP:        c.topP,
		},
		func(chunk azure.CompletionChunk) error {
			if chunk.Text != "" {
				fmt.Print(chunk.Text)
				reply.WriteString(chunk.Text)
			}
			return nil
		},
	)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(reply.String()), nil
}
