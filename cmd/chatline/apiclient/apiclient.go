// Package apiclient wires the chat API client for commands: flag and config
// resolution, the session store and the chat selection.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/cliui"
	"github.com/papercomputeco/chatline/pkg/config"
	"github.com/papercomputeco/chatline/pkg/dotdir"
	"github.com/papercomputeco/chatline/pkg/logger"
	"github.com/papercomputeco/chatline/pkg/session"
)

// ErrNoChat is returned when a command needs a chat and none was given or
// selected.
var ErrNoChat = errors.New("no chat selected; pass a chat id or run 'chatline chats use <id>'")

var clientFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagTimeout,
	config.FlagMarkdown,
}

// Options holds the resolved client settings of one command invocation.
type Options struct {
	APITarget string
	Timeout   string
	Markdown  bool

	ConfigDir string
	Debug     bool
}

// AddFlags registers the client flags on cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &o.APITarget)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &o.Timeout)
	config.AddBoolFlag(cmd, config.ClientFlags, config.FlagMarkdown, &o.Markdown)
}

// Resolve fills o following flag > env > config file > default. Call it from
// PreRunE.
func (o *Options) Resolve(cmd *cobra.Command) error {
	o.ConfigDir, _ = cmd.Flags().GetString("config-dir")
	o.Debug, _ = cmd.Flags().GetBool("debug")

	v, err := config.InitViper(o.ConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.ClientFlags, clientFlagKeys)

	o.APITarget = v.GetString("client.api_target")
	o.Timeout = v.GetString("client.timeout")
	o.Markdown = v.GetBool("client.markdown")
	return nil
}

// Logger returns the pretty stderr logger used by client commands.
func (o *Options) Logger() *slog.Logger {
	return logger.New(
		logger.WithDebug(o.Debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
}

// NewClient builds a chat API client over the session store in the config
// dir. A 401 prints a login hint to w; extra options are applied last.
func (o *Options) NewClient(w io.Writer, extra ...chatapi.Option) (*chatapi.Client, *session.Store, error) {
	store, err := session.NewStore(o.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session: %w", err)
	}

	timeout, err := time.ParseDuration(o.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timeout %q: %w", o.Timeout, err)
	}

	opts := []chatapi.Option{
		chatapi.WithHTTPClient(chatapi.NewHTTPClient(timeout)),
		chatapi.WithLogger(o.Logger()),
		chatapi.WithSessionExpiredFunc(func() { PrintLoginHint(w) }),
	}

	return chatapi.New(o.APITarget, store, append(opts, extra...)...), store, nil
}

// PrintLoginHint tells the user to sign in again.
func PrintLoginHint(w io.Writer) {
	fmt.Fprintf(w, "\n  %s Your session has expired. Run %s to sign in again.\n\n",
		cliui.WarnStyle.Render("!"),
		cliui.KeyStyle.Render("chatline login"),
	)
}

// ChatID returns explicit when set, otherwise the selected chat.
func (o *Options) ChatID(explicit int64) (int64, error) {
	if explicit > 0 {
		return explicit, nil
	}

	sel, err := dotdir.NewManager().LoadSelection(o.ConfigDir)
	if err != nil {
		return 0, err
	}
	if sel == nil || sel.ChatID == 0 {
		return 0, ErrNoChat
	}
	return sel.ChatID, nil
}

// Select remembers chat as the current chat.
func (o *Options) Select(chat *chatapi.Chat) error {
	return dotdir.NewManager().SaveSelection(&dotdir.Selection{
		ChatID: chat.ID,
		Title:  chat.Title,
	}, o.ConfigDir)
}

// Unselect forgets the current chat when it is chatID.
func (o *Options) Unselect(chatID int64) error {
	mgr := dotdir.NewManager()
	sel, err := mgr.LoadSelection(o.ConfigDir)
	if err != nil {
		return err
	}
	if sel == nil || sel.ChatID != chatID {
		return nil
	}
	return mgr.ClearSelection(o.ConfigDir)
}

// OpenChat returns the explicit or selected chat. With neither, it creates a
// chat and selects it.
func (o *Options) OpenChat(ctx context.Context, client *chatapi.Client, explicit int64) (*chatapi.Chat, error) {
	id, err := o.ChatID(explicit)
	if errors.Is(err, ErrNoChat) {
		chat, err := client.CreateChat(ctx, "")
		if err != nil {
			return nil, err
		}
		return chat, o.Select(chat)
	}
	if err != nil {
		return nil, err
	}
	return client.GetChat(ctx, id)
}
