// Package configcmder provides the config command for managing persistent
// chatline configuration stored in the .chatline/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent chatline configuration.

Configuration is stored as config.toml in the .chatline/ directory and provides
default values for command flags. CLI flags and CHATLINE_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.api_target, client.timeout, client.markdown,
  server.listen, server.responder, server.upstream, server.model, server.token_ttl,
  storage.backend, storage.dsn, storage.upload_dir,
  events.backend, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  chatline config set <key> <value>    Set a configuration value
  chatline config get <key>            Get a configuration value
  chatline config list                 List all configuration values
  chatline config preset <name>        Write a preset configuration

Examples:
  chatline config set client.api_target http://localhost:8000
  chatline config set client.markdown true
  chatline config get server.responder
  chatline config preset sqlite`

const configShortDesc string = "Manage persistent chatline configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}
