// Package chatcmder provides the line-mode chat command.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	"github.com/papercomputeco/chatline/pkg/assembler"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/cliui"
	"github.com/papercomputeco/chatline/pkg/transcript"
)

var (
	userPrompt      = cliui.UserStyle.Render("you> ")
	assistantPrompt = cliui.AssistantStyle.Render("assistant> ")
)

const chatLongDesc string = `Chat with the assistant, one line at a time.

Replies are streamed as they arrive. Ctrl+C stops the current reply without
leaving the chat; /exit or Ctrl+D quits. Without --chat, the selected chat is
used, and a new one is created when none is selected.

Commands inside the chat:
  /exit       quit
  /history    print the conversation so far

Examples:
  chatline chat
  chatline chat --chat 3 --markdown
  chatline chat -m "Summarize the uploaded file"`

const chatShortDesc string = "Chat with the assistant in the terminal"

type chatCommander struct {
	opts apiclient.Options

	chatID   int64
	message  string
	noStream bool

	client *chatapi.Client
	out    io.Writer
	errOut io.Writer
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:     "chat",
		Short:   chatShortDesc,
		Long:    chatLongDesc,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return cmder.opts.Resolve(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			return cmder.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmder.opts.AddFlags(cmd)
	cmd.Flags().Int64VarP(&cmder.chatID, "chat", "c", 0, "Chat id (defaults to the selected chat)")
	cmd.Flags().StringVarP(&cmder.message, "message", "m", "", "Send one message, print the reply and exit")
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the complete reply instead of streaming it")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader) error {
	var err error
	c.client, _, err = c.opts.NewClient(c.errOut)
	if err != nil {
		return err
	}

	chat, err := c.opts.OpenChat(ctx, c.client, c.chatID)
	if err != nil {
		return err
	}

	t, err := c.client.LoadTranscript(ctx, chat.ID)
	if err != nil {
		return err
	}

	if c.message != "" {
		return c.send(ctx, t, chat.ID, c.message)
	}

	fmt.Fprintf(c.out, "\n  %s %s %s\n",
		cliui.KeyStyle.Render("Chat "+strconv.FormatInt(chat.ID, 10)+":"),
		cliui.ValueStyle.Render(chat.Title),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", t.Len())),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/history":
			printTranscript(c.out, t)
			continue
		}

		err := c.send(ctx, t, chat.ID, input)
		switch {
		case err == nil:
		case errors.Is(err, chatapi.ErrSessionExpired):
			return err
		case errors.Is(err, context.Canceled) && ctx.Err() == nil:
			fmt.Fprintf(c.errOut, "\n  %s\n", cliui.DimStyle.Render("reply stopped"))
		default:
			fmt.Fprintf(c.errOut, "  %s %v\n", cliui.FailMark, err)
		}
		fmt.Fprintln(c.out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) send(ctx context.Context, t *transcript.Transcript, chatID int64, input string) error {
	if c.noStream {
		reply, err := c.client.PostMessage(ctx, chatID, input)
		if err != nil {
			return err
		}
		t.Append(transcript.RoleUser, input)
		t.Append(transcript.RoleAssistant, reply)
		c.printReply(reply)
		return nil
	}

	// Ctrl+C stops this reply only.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var (
		res assembler.Result
		err error
	)
	if c.opts.Markdown {
		err = cliui.Step(c.errOut, "Waiting for reply", func() error {
			res, err = c.client.StreamReply(ctx, t, chatID, input, nil)
			return err
		})
		if res.Content != "" {
			c.printReply(res.Content)
		}
	} else {
		fmt.Fprint(c.out, assistantPrompt)
		w := &suffixWriter{w: c.out}
		res, err = c.client.StreamReply(ctx, t, chatID, input, func(s assembler.Snapshot) {
			w.show(s.Content)
		})
		fmt.Fprintln(c.out)
	}

	for _, msg := range res.ServerErrors {
		fmt.Fprintf(c.errOut, "  %s %s\n", cliui.WarnStyle.Render("!"), msg)
	}
	if res.Truncated > 0 {
		fmt.Fprintf(c.errOut, "  %s %s\n", cliui.WarnStyle.Render("!"),
			cliui.DimStyle.Render("the reply ended early and may be incomplete"))
	}
	return err
}

func (c *chatCommander) printReply(content string) {
	if c.opts.Markdown {
		if rendered, err := cliui.RenderMarkdown(content); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintf(c.out, "%s%s\n", assistantPrompt, content)
}

// suffixWriter prints full-message snapshots as a growing line: only the
// part not yet on screen is written.
type suffixWriter struct {
	w       io.Writer
	printed string
}

func (s *suffixWriter) show(content string) {
	if strings.HasPrefix(content, s.printed) {
		fmt.Fprint(s.w, content[len(s.printed):])
	} else {
		fmt.Fprintf(s.w, "\n%s%s", assistantPrompt, content)
	}
	s.printed = content
}

func printTranscript(w io.Writer, t *transcript.Transcript) {
	fmt.Fprintln(w)
	for _, msg := range t.Messages() {
		fmt.Fprintf(w, "%s> %s\n\n", cliui.RoleLabel(msg.Role), msg.Content)
	}
}
