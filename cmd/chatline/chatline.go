// Package chatlinecmder
package chatlinecmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/chatline/cmd/chatline/auth"
	chatcmder "github.com/papercomputeco/chatline/cmd/chatline/chat"
	chatscmder "github.com/papercomputeco/chatline/cmd/chatline/chats"
	configcmder "github.com/papercomputeco/chatline/cmd/chatline/config"
	filescmder "github.com/papercomputeco/chatline/cmd/chatline/files"
	servecmder "github.com/papercomputeco/chatline/cmd/chatline/serve"
	tuicmder "github.com/papercomputeco/chatline/cmd/chatline/tui"
	versioncmder "github.com/papercomputeco/chatline/cmd/version"
)

const chatlineLongDesc string = `Chatline is a terminal client for a chat API.

Get started against a local server:
  chatline serve               Run the reference server (echo replies)
  chatline register            Create an account
  chatline login               Sign in and store the session
  chatline chat                Talk to the assistant line by line
  chatline tui                 Full-screen chat

Manage conversations:
  chatline chats               List, create, rename, delete and select chats
  chatline messages            Show a chat's history
  chatline files               Upload files the assistant can read

Settings live in config.toml inside the .chatline/ directory. See
"chatline config --help".`

const chatlineShortDesc string = "Chatline - terminal chat client"

func NewChatlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chatline",
		Short:        chatlineShortDesc,
		Long:         chatlineLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .chatline/ config directory")

	// Add subcommands
	cmd.AddCommand(authcmder.NewRegisterCmd())
	cmd.AddCommand(authcmder.NewLoginCmd())
	cmd.AddCommand(authcmder.NewLogoutCmd())
	cmd.AddCommand(authcmder.NewWhoamiCmd())
	cmd.AddCommand(chatscmder.NewChatsCmd())
	cmd.AddCommand(chatscmder.NewMessagesCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(tuicmder.NewTUICmd())
	cmd.AddCommand(filescmder.NewFilesCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
