package chatscmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/cliui"
	"github.com/papercomputeco/chatline/pkg/transcript"
	"github.com/papercomputeco/chatline/pkg/utils"
)

const messagesLongDesc string = `Print the messages of a chat.

Uses the selected chat unless a chat id is given. With --markdown, assistant
replies are rendered for the terminal. --oneline prints a single shortened
line per message.

Examples:
  chatline messages
  chatline messages 3 --markdown
  chatline messages --oneline`

// onelineWidth is the preview length of --oneline.
const onelineWidth = 72

func NewMessagesCmd() *cobra.Command {
	opts := &apiclient.Options{}
	var oneline bool

	cmd := &cobra.Command{
		Use:     "messages [chat-id]",
		Short:   "Print the messages of a chat",
		Long:    messagesLongDesc,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return opts.Resolve(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit int64
			if len(args) == 1 {
				var err error
				if explicit, err = ParseChatID(args[0]); err != nil {
					return err
				}
			}

			chatID, err := opts.ChatID(explicit)
			if err != nil {
				return err
			}

			client, _, err := opts.NewClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			msgs, err := client.ListMessages(cmd.Context(), chatID)
			if err != nil {
				return err
			}

			if oneline {
				printOneline(cmd.OutOrStdout(), msgs)
				return nil
			}
			PrintMessages(cmd.OutOrStdout(), msgs, opts.Markdown)
			return nil
		},
	}

	opts.AddFlags(cmd)
	cmd.Flags().BoolVar(&oneline, "oneline", false, "Print one shortened line per message")
	return cmd
}

// PrintMessages writes a chat history, one labelled block per message.
func PrintMessages(w io.Writer, msgs []chatapi.Message, markdown bool) {
	if len(msgs) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No messages yet."))
		return
	}

	fmt.Fprintln(w)
	for _, msg := range msgs {
		content := msg.Content
		if markdown && msg.Role == transcript.RoleAssistant {
			if rendered, err := cliui.RenderMarkdown(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		fmt.Fprintf(w, "%s> %s\n\n", cliui.RoleLabel(msg.Role), content)
	}
}

func printOneline(w io.Writer, msgs []chatapi.Message) {
	for _, msg := range msgs {
		fmt.Fprintf(w, "%s %s %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%4d", msg.ID)),
			cliui.RoleLabel(msg.Role),
			utils.Preview(msg.Content, onelineWidth),
		)
	}
}
