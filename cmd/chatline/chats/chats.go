// Package chatscmder provides the chats command and its subcommands for
// listing, creating, renaming, deleting and selecting chats, and the messages
// command for printing a chat's history.
package chatscmder

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/cliui"
	"github.com/papercomputeco/chatline/pkg/dotdir"
	"github.com/papercomputeco/chatline/pkg/utils"
)

const chatsLongDesc string = `Manage chats.

Without a subcommand, lists your chats. The selected chat, marked with a check,
is used by "chatline chat", "chatline messages" and "chatline files" when
no chat id is given.

Examples:
  chatline chats
  chatline chats new "Trip planning"
  chatline chats use 3
  chatline chats rename 3 "Trip to Lisbon"
  chatline chats delete 3`

const chatsShortDesc string = "List and manage chats"

type chatsCommander struct {
	opts apiclient.Options
}

func NewChatsCmd() *cobra.Command {
	cmder := &chatsCommander{}
	resolve := func(cmd *cobra.Command, _ []string) error { return cmder.opts.Resolve(cmd) }

	cmd := &cobra.Command{
		Use:               "chats",
		Short:             chatsShortDesc,
		Long:              chatsLongDesc,
		Args:              cobra.NoArgs,
		PersistentPreRunE: resolve,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runList(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runList(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "new [title]",
		Short: "Create a chat and select it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runNew(cmd, strings.Join(args, " "))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseChatID(args[0])
			if err != nil {
				return err
			}
			return cmder.runRename(cmd, id, strings.Join(args[1:], " "))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseChatID(args[0])
			if err != nil {
				return err
			}
			return cmder.runDelete(cmd, id)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "use <id>",
		Short: "Select the chat used by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ParseChatID(args[0])
			if err != nil {
				return err
			}
			return cmder.runUse(cmd, id)
		},
	})

	cmder.opts.AddFlags(cmd)
	for _, sub := range cmd.Commands() {
		cmder.opts.AddFlags(sub)
	}

	return cmd
}

// ParseChatID parses a positive chat id argument.
func ParseChatID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid chat id %q", arg)
	}
	return id, nil
}

func (c *chatsCommander) client(cmd *cobra.Command) (*chatapi.Client, error) {
	client, _, err := c.opts.NewClient(cmd.ErrOrStderr())
	return client, err
}

func (c *chatsCommander) runList(cmd *cobra.Command) error {
	client, err := c.client(cmd)
	if err != nil {
		return err
	}

	chats, err := client.ListChats(cmd.Context())
	if err != nil {
		return err
	}

	sel, err := dotdir.NewManager().LoadSelection(c.opts.ConfigDir)
	if err != nil {
		return err
	}
	var selected int64
	if sel != nil {
		selected = sel.ChatID
	}

	printChats(cmd.OutOrStdout(), chats, selected)
	return nil
}

// titleWidth bounds titles in the chat list.
const titleWidth = 48

func printChats(w io.Writer, chats []chatapi.Chat, selected int64) {
	if len(chats) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No chats yet. Create one with 'chatline chats new'."))
		return
	}

	fmt.Fprintln(w)
	for _, chat := range chats {
		mark := " "
		if chat.ID == selected {
			mark = cliui.SuccessMark
		}
		fmt.Fprintf(w, "  %s %s  %s  %s\n",
			mark,
			cliui.KeyStyle.Render(fmt.Sprintf("%4d", chat.ID)),
			cliui.ValueStyle.Render(utils.Truncate(chat.Title, titleWidth)),
			cliui.DimStyle.Render(chat.CreatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprintln(w)
}

func (c *chatsCommander) runNew(cmd *cobra.Command, title string) error {
	client, err := c.client(cmd)
	if err != nil {
		return err
	}

	chat, err := client.CreateChat(cmd.Context(), title)
	if err != nil {
		return err
	}
	if err := c.opts.Select(chat); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Created chat %s %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(strconv.FormatInt(chat.ID, 10)),
		cliui.ValueStyle.Render(chat.Title),
	)
	return nil
}

func (c *chatsCommander) runRename(cmd *cobra.Command, id int64, title string) error {
	client, err := c.client(cmd)
	if err != nil {
		return err
	}

	chat, err := client.RenameChat(cmd.Context(), id, title)
	if err != nil {
		return err
	}

	sel, err := dotdir.NewManager().LoadSelection(c.opts.ConfigDir)
	if err != nil {
		return err
	}
	if sel != nil && sel.ChatID == chat.ID {
		if err := c.opts.Select(chat); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Renamed chat %s to %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(strconv.FormatInt(chat.ID, 10)),
		cliui.ValueStyle.Render(chat.Title),
	)
	return nil
}

func (c *chatsCommander) runDelete(cmd *cobra.Command, id int64) error {
	client, err := c.client(cmd)
	if err != nil {
		return err
	}

	if err := client.DeleteChat(cmd.Context(), id); err != nil {
		return err
	}
	if err := c.opts.Unselect(id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Deleted chat %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(strconv.FormatInt(id, 10)),
	)
	return nil
}

func (c *chatsCommander) runUse(cmd *cobra.Command, id int64) error {
	client, err := c.client(cmd)
	if err != nil {
		return err
	}

	chat, err := client.GetChat(cmd.Context(), id)
	if err != nil {
		return err
	}
	if err := c.opts.Select(chat); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Using chat %s %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(strconv.FormatInt(chat.ID, 10)),
		cliui.ValueStyle.Render(chat.Title),
	)
	return nil
}
