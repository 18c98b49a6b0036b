// Package configcmder provides the config command for managing persistent
// deepstream configuration stored in the .deepstream/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent deepstream configuration.

Configuration is stored as config.toml in the .deepstream/ directory and
provides default values for command flags. CLI flags and DEEPSTREAM_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  provider.name, provider.base_url, provider.model,
  chat.use_case, chat.temperature,
  server.listen,
  storage.sqlite_path, storage.postgres_dsn,
  event_stream.provider, event_stream.brokers, event_stream.topic,
  system_message.file

Use subcommands to get, set, or list configuration values:
  deepstream config set <key> <value>    Set a configuration value
  deepstream config get <key>            Get a configuration value
  deepstream config list                 List all configuration values

Examples:
  deepstream config set provider.name openai
  deepstream config set chat.use_case coding
  deepstream config get provider.base_url
  deepstream config list`

const configShortDesc string = "Manage persistent deepstream configuration"

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
