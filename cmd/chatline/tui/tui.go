// Package tuicmder provides the full-screen chat command.
package tuicmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	authcmder "github.com/papercomputeco/chatline/cmd/chatline/auth"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/session"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

const tuiLongDesc string = `Open a full-screen chat.

Replies stream into the conversation as they arrive. Esc stops the current
reply and Ctrl+C quits. When the session expires, or you log out from another
terminal, the chat closes and asks you to log in again.

Examples:
  chatline tui
  chatline tui --chat 3 --markdown`

const tuiShortDesc string = "Open a full-screen chat"

type tuiCommander struct {
	opts   apiclient.Options
	chatID int64
}

func NewTUICmd() *cobra.Command {
	cmder := &tuiCommander{}

	cmd := &cobra.Command{
		Use:     "tui",
		Short:   tuiShortDesc,
		Long:    tuiLongDesc,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return cmder.opts.Resolve(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmder.opts.AddFlags(cmd)
	cmd.Flags().Int64VarP(&cmder.chatID, "chat", "c", 0, "Chat id (defaults to the selected chat)")

	return cmd
}

// run shows the chat until the user quits. An expired session ends the
// screen, prompts for a new login and reopens the same chat.
func (c *tuiCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	prompter := authcmder.NewPrompter(in, out)

	for {
		// The login hint is printed after the screen closed, not over it.
		client, store, err := c.opts.NewClient(io.Discard)
		if err != nil {
			return err
		}

		expired, err := c.session(ctx, client, store)
		if err != nil && !errors.Is(err, chatapi.ErrSessionExpired) {
			return err
		}
		if !expired && err == nil {
			return nil
		}

		apiclient.PrintLoginHint(out)
		if err := authcmder.PromptLogin(ctx, client, prompter, ""); err != nil {
			return err
		}
	}
}

// session runs one screen. It reports whether the session expired while the
// screen was open.
func (c *tuiCommander) session(ctx context.Context, client *chatapi.Client, store *session.Store) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chat, err := c.opts.OpenChat(ctx, client, c.chatID)
	if err != nil {
		return false, err
	}
	c.chatID = chat.ID

	t, err := client.LoadTranscript(ctx, chat.ID)
	if err != nil {
		return false, err
	}

	model := newChatModel(ctx, client, *chat, t, c.opts.Markdown)
	program := bubbletea.NewProgram(model, bubbletea.WithContext(ctx), bubbletea.WithAltScreen())

	go func() {
		_ = store.Watch(ctx, func(s *session.Session) {
			program.Send(sessionChangedMsg{loggedIn: s.LoggedIn()})
		})
	}()

	final, err := program.Run()
	if err != nil && !errors.Is(err, bubbletea.ErrProgramKilled) {
		return false, fmt.Errorf("running chat screen: %w", err)
	}

	fm, ok := final.(chatModel)
	return ok && fm.expired, nil
}
