package tuicmder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/chatline/pkg/assembler"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/cliui"
	"github.com/papercomputeco/chatline/pkg/transcript"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	bodyPadding = lipgloss.NewStyle().PaddingLeft(2)
)

// chromeHeight is the number of lines around the viewport: title, rule,
// rule, input, status and help.
const chromeHeight = 6

// Replier streams an assistant reply into a transcript.
type Replier interface {
	StreamReply(ctx context.Context, t *transcript.Transcript, chatID int64, content string, notify func(assembler.Snapshot)) (assembler.Result, error)
}

type snapshotMsg struct {
	snapshot assembler.Snapshot
}

type replyDoneMsg struct {
	result assembler.Result
	err    error
}

type sessionChangedMsg struct {
	loggedIn bool
}

type chatModel struct {
	ctx        context.Context
	replier    Replier
	chat       chatapi.Chat
	transcript *transcript.Transcript
	markdown   bool

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     chatKeyMap

	events    chan bubbletea.Msg
	streaming bool
	cancel    context.CancelFunc
	rendered  map[transcript.Handle]string

	status  string
	expired bool
	width   int
	height  int
}

func newChatModel(ctx context.Context, replier Replier, chat chatapi.Chat, t *transcript.Transcript, markdown bool) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message"
	input.Prompt = cliui.UserStyle.Render("you> ")
	input.CharLimit = 0
	input.Focus()

	return chatModel{
		ctx:        ctx,
		replier:    replier,
		chat:       chat,
		transcript: t,
		markdown:   markdown,
		viewport:   viewport.New(80, 20),
		input:      input,
		spinner:    spinner.New(spinner.WithSpinner(cliui.WaitSpinner)),
		help:       help.New(),
		keys:       defaultKeyMap(),
		events:     make(chan bubbletea.Msg, 16),
		rendered:   map[transcript.Handle]string{},
	}
}

func (m chatModel) Init() bubbletea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.Width = max(msg.Width-8, 10)
		m.rendered = map[transcript.Handle]string{}
		m.refresh()
		return m, nil

	case snapshotMsg:
		m.refresh()
		return m, waitForEvent(m.events)

	case replyDoneMsg:
		m.streaming = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.status = replyStatus(msg.result, msg.err)
		m.refresh()
		if errors.Is(msg.err, chatapi.ErrSessionExpired) {
			m.expired = true
			return m, bubbletea.Quit
		}
		return m, nil

	case sessionChangedMsg:
		if !msg.loggedIn {
			m.expired = true
			m.stop()
			return m, bubbletea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m chatModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stop()
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Stop):
		if m.streaming {
			m.stop()
			m.status = "stopping reply"
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Send):
		return m.send()
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts streaming a reply to the typed message. Only one reply streams
// at a time.
func (m chatModel) send() (bubbletea.Model, bubbletea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.streaming {
		return m, nil
	}
	m.input.Reset()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.streaming = true
	m.status = ""

	replier, t, chatID, events := m.replier, m.transcript, m.chat.ID, m.events
	stream := func() bubbletea.Msg {
		res, err := replier.StreamReply(ctx, t, chatID, content, func(s assembler.Snapshot) {
			select {
			case events <- snapshotMsg{snapshot: s}:
			case <-ctx.Done():
			}
		})
		select {
		case events <- replyDoneMsg{result: res, err: err}:
		case <-m.ctx.Done():
		}
		return nil
	}

	m.viewport.GotoBottom()
	return m, bubbletea.Batch(stream, waitForEvent(events), m.spinner.Tick)
}

func (m *chatModel) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// waitForEvent delivers the next stream event. A snapshot re-arms it; the
// final replyDoneMsg does not.
func waitForEvent(events <-chan bubbletea.Msg) bubbletea.Cmd {
	return func() bubbletea.Msg {
		return <-events
	}
}

func replyStatus(res assembler.Result, err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "reply stopped"
	case err != nil:
		return err.Error()
	case len(res.ServerErrors) > 0:
		return "server error: " + strings.Join(res.ServerErrors, "; ")
	case res.Truncated > 0:
		return "the reply ended early and may be incomplete"
	}
	return ""
}

// refresh re-renders the transcript into the viewport, keeping it pinned to
// the bottom when it already was.
func (m *chatModel) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *chatModel) renderTranscript() string {
	msgs := m.transcript.Messages()
	if len(msgs) == 0 {
		return mutedStyle.Render("  No messages yet. Say hello.")
	}

	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(cliui.RoleLabel(msg.Role))
		if msg.Streaming {
			b.WriteString(" " + m.spinner.View())
		}
		b.WriteString("\n")
		b.WriteString(m.renderBody(msg))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m *chatModel) renderBody(msg transcript.Message) string {
	if !m.markdown || msg.Streaming || msg.Role != transcript.RoleAssistant {
		return bodyPadding.Width(max(m.width-2, 10)).Render(msg.Content)
	}

	if out, ok := m.rendered[msg.Handle]; ok {
		return out
	}
	out, err := cliui.RenderMarkdownWidth(msg.Content, max(m.width-4, 20))
	if err != nil {
		return bodyPadding.Render(msg.Content)
	}
	out = strings.TrimRight(out, "\n")
	m.rendered[msg.Handle] = out
	return out
}

func (m chatModel) View() string {
	rule := ruleStyle.Render(strings.Repeat("─", max(m.width, 1)))

	title := titleStyle.Render(m.chat.Title) + mutedStyle.Render(fmt.Sprintf("  chat %d", m.chat.ID))

	status := ""
	switch {
	case m.streaming:
		status = m.spinner.View() + mutedStyle.Render(" streaming, esc to stop")
	case m.status != "":
		status = errorStyle.Render(m.status)
	}

	return strings.Join([]string{
		title,
		rule,
		m.viewport.View(),
		rule,
		m.input.View(),
		status,
		m.help.View(m.keys),
	}, "\n")
}
