// Package movetunecmder
package movetunecmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/movetune/movetune/cmd/movetune/auth"
	chatcmder "github.com/movetune/movetune/cmd/movetune/chat"
	configcmder "github.com/movetune/movetune/cmd/movetune/config"
	generatecmder "github.com/movetune/movetune/cmd/movetune/generate"
	initcmder "github.com/movetune/movetune/cmd/movetune/init"
	statuscmder "github.com/movetune/movetune/cmd/movetune/status"
	submitcmder "github.com/movetune/movetune/cmd/movetune/submit"
	validatecmder "github.com/movetune/movetune/cmd/movetune/validate"
	versioncmder "github.com/movetune/movetune/cmd/version"
)

const movetuneLongDesc string = `Movetune turns Move source repositories into fine-tuning datasets.

Build and submit a dataset using:
  movetune generate    Build a prompt/completion dataset from a GitHub repo
  movetune validate    Check a dataset before submission
  movetune submit      Upload the dataset and start an Azure fine-tune job
  movetune status      Show the fine-tune job state
  movetune chat        Talk to the fine-tuned deployment`

const movetuneShortDesc string = "Movetune - Move code fine-tuning datasets"

func NewMovetuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "movetune",
		Short:        movetuneShortDesc,
		Long:         movetuneLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .movetune/ config directory")

	// Add subcommands
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(validatecmder.NewValidateCmd())
	cmd.AddCommand(submitcmder.NewSubmitCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
