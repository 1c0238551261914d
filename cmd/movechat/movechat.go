// Package movechatcmder provides the root command for the standalone
// movechat binary, wiring only the chat and version subcommands.
package movechatcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/movetune/movetune/cmd/movetune/chat"
	versioncmder "github.com/movetune/movetune/cmd/version"
)

const movechatLongDesc string = `Movechat talks to a fine-tuned Azure OpenAI deployment.

This is the standalone conversation entry point; the same loop is
available as 'movetune chat'.

Examples:
  movechat chat --deployment move-ft-1`

const movechatShortDesc string = "Movechat - chat with fine-tuned Move models"

func NewMovechatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "movechat",
		Short:        movechatShortDesc,
		Long:         movechatLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .movetune/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
