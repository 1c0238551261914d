// Package configcmder provides the config command for managing persistent
// movetune configuration stored in the .movetune/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent movetune configuration.

Configuration is stored as config.toml in the .movetune/ directory and
provides default values for command flags. CLI flags and MOVETUNE_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  github.repo, github.ref, github.api_base, github.raw_base,
  source.extension, source.language,
  synthesis.target, synthesis.model, synthesis.max_tokens,
  synthesis.request_interval,
  azure.endpoint, azure.deployment, azure.api_version,
  finetune.base_model,
  chat.max_tokens, chat.temperature, chat.top_p,
  dataset.output, http.timeout

Use subcommands to get, set, or list configuration values:
  movetune config set <key> <value>    Set a configuration value
  movetune config get <key>            Get a configuration value
  movetune config list                 List all configuration values

Examples:
  movetune config set github.repo movefuns/move-examples
  movetune config set azure.endpoint https://myresource.openai.azure.com
  movetune config get synthesis.model
  movetune config list`

const configShortDesc string = "Manage persistent movetune configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
