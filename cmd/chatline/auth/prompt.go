package authcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/cliui"
)

// ErrNoInput is returned when input ends before a prompt was answered.
var ErrNoInput = errors.New("no input received")

// Prompter reads credentials. A terminal gets a hidden password prompt; any
// other input is read a line at a time.
type Prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, reader: bufio.NewReader(in), out: out}
}

// Line prompts for a visible value.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.reader.ReadString('\n')
	switch {
	case err == nil, errors.Is(err, io.EOF) && line != "":
		return strings.TrimSpace(line), nil
	case errors.Is(err, io.EOF):
		return "", ErrNoInput
	default:
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
}

// Password prompts for a hidden value.
func (p *Prompter) Password(label string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Line(label)
	}

	fmt.Fprintf(p.out, "%s: ", label)
	pw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// PromptLogin asks for credentials until a login succeeds or the input runs
// out. email may be empty, in which case it is prompted for too.
func PromptLogin(ctx context.Context, client *chatapi.Client, p *Prompter, email string) error {
	if email == "" {
		var err error
		if email, err = p.Line("Email"); err != nil {
			return err
		}
	}
	if email == "" {
		return errors.New("email cannot be empty")
	}

	password, err := p.Password("Password")
	if err != nil {
		return err
	}

	if err := client.Login(ctx, email, password); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "\n  %s Logged in as %s %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(email),
		cliui.DimStyle.Render("("+client.BaseURL()+")"),
	)
	return nil
}
