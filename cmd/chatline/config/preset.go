package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/pkg/cliui"
	"github.com/papercomputeco/chatline/pkg/config"
)

const presetLongDesc string = `Write a preset configuration.

Replaces config.toml in the .chatline/ directory with one of the built-in
presets. The client.api_target of an existing config is preserved.

Presets:
  local     in-memory storage with the echo responder
  sqlite    SQLite storage in chatline.db
  openai    SQLite storage with the OpenAI responder

Examples:
  chatline config preset sqlite`

const presetShortDesc string = "Write a preset configuration"

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "preset <name>",
		Short:     presetShortDesc,
		Long:      presetLongDesc,
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.ValidPresetNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runPreset(cmd.OutOrStdout(), args[0], configDir)
		},
	}

	return cmd
}

func runPreset(w io.Writer, name, configDir string) error {
	preset, err := config.PresetConfig(name)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	current, err := cfger.LoadConfig()
	if err != nil {
		return err
	}
	preset.Client.APITarget = current.Client.APITarget

	if err := cfger.SaveConfig(preset); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s Wrote preset %s to %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(strings.ToLower(name)),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
