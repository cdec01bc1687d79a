// Package filescmder provides the files command for attaching files to a
// chat and listing them.
package filescmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	"github.com/papercomputeco/chatline/pkg/cliui"
)

const filesLongDesc string = `Attach files to a chat.

The opening of every attached file is passed to the assistant as context
for later messages in that chat. Uses the selected chat unless --chat is
given.

Examples:
  chatline files upload notes.txt
  chatline files upload report.md --chat 3
  chatline files list`

type filesCommander struct {
	opts   apiclient.Options
	chatID int64
}

func NewFilesCmd() *cobra.Command {
	cmder := &filesCommander{}

	cmd := &cobra.Command{
		Use:   "files",
		Short: "Attach files to a chat",
		Long:  filesLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.opts.Resolve(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file to a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.runUpload(cmd, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the files of a chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.runList(cmd)
		},
	})

	cmd.PersistentFlags().Int64VarP(&cmder.chatID, "chat", "c", 0, "Chat id (defaults to the selected chat)")
	for _, sub := range cmd.Commands() {
		cmder.opts.AddFlags(sub)
	}

	return cmd
}

func (c *filesCommander) runUpload(cmd *cobra.Command, path string) error {
	chatID, err := c.opts.ChatID(c.chatID)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	client, _, err := c.opts.NewClient(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	file, err := client.UploadFile(cmd.Context(), chatID, filepath.Base(path), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Uploaded %s to chat %s\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(file.Filename),
		cliui.KeyStyle.Render(fmt.Sprint(chatID)),
	)
	return nil
}

func (c *filesCommander) runList(cmd *cobra.Command) error {
	chatID, err := c.opts.ChatID(c.chatID)
	if err != nil {
		return err
	}

	client, _, err := c.opts.NewClient(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	files, err := client.ListFiles(cmd.Context(), chatID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No files attached to this chat."))
		return nil
	}

	fmt.Fprintln(w)
	for _, f := range files {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("%4d", f.ID)),
			cliui.ValueStyle.Render(f.Filename),
			cliui.DimStyle.Render(f.CreatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	fmt.Fprintln(w)
	return nil
}
