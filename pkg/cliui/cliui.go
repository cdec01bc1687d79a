// Package cliui holds the styles and small terminal helpers shared by chatline
// commands: role labels, a wait indicator for replies and markdown rendering.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/papercomputeco/chatline/pkg/transcript"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	HeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	KeyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	DimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ValueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	WarnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	UserStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	AssistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))

	waitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
)

// WaitSpinner is the animation shown while a reply is on its way. The TUI
// uses the same one.
var WaitSpinner = spinner.Dot

// Step runs fn under msg and finishes the line with a mark and the elapsed
// time. The spinner only animates when w is a terminal; redirected output
// gets the final line alone.
func Step(w io.Writer, msg string, fn func() error) error {
	stop := func() {}
	if isTerminal(w) {
		stop = animate(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	stop()

	fmt.Fprintf(w, "\r  %s %s %s\n", Mark(err), msg, DimStyle.Render("("+FormatDuration(elapsed)+")"))
	return err
}

// animate redraws msg behind a spinner frame until the returned func is
// called. The func waits for the last frame to be written.
func animate(w io.Writer, msg string) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(WaitSpinner.FPS)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(w, "\r  %s %s", waitStyle.Render(WaitSpinner.Frames[frame%len(WaitSpinner.Frames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RoleLabel renders the speaker label shown before a message.
func RoleLabel(role string) string {
	switch role {
	case transcript.RoleUser:
		return UserStyle.Render("you")
	case transcript.RoleAssistant:
		return AssistantStyle.Render("assistant")
	default:
		return DimStyle.Render(role)
	}
}

const defaultMarkdownWidth = 80

var (
	renderersMu sync.Mutex
	renderers   = map[int]*glamour.TermRenderer{}
)

// RenderMarkdown renders an assistant reply for the terminal at the default
// width.
func RenderMarkdown(content string) (string, error) {
	return RenderMarkdownWidth(content, defaultMarkdownWidth)
}

// RenderMarkdownWidth renders content wrapped at width columns. The TUI calls
// it on every streamed snapshot, so one renderer is kept per width. On
// failure the raw content is returned with the error.
func RenderMarkdownWidth(content string, width int) (string, error) {
	renderersMu.Lock()
	defer renderersMu.Unlock()

	r, ok := renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content, fmt.Errorf("creating markdown renderer: %w", err)
		}
		renderers[width] = r
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, fmt.Errorf("rendering markdown: %w", err)
	}
	return rendered, nil
}
