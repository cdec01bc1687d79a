// Package authcmder provides the account commands: register, login, logout
// and whoami.
package authcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatline/cmd/chatline/apiclient"
	"github.com/papercomputeco/chatline/pkg/cliui"
)

// ErrNotLoggedIn is returned by commands that need a session when none is
// stored.
var ErrNotLoggedIn = errors.New("not logged in; run 'chatline login'")

const registerLongDesc string = `Create an account on the chat API.

The password is read with a hidden prompt, or as one line from stdin when
input is piped. Registering does not log you in.

Examples:
  chatline register --email ada@example.com --name Ada
  echo "$PASSWORD" | chatline register -e ada@example.com`

const loginLongDesc string = `Log in to the chat API.

The bearer token is stored in session.toml in the .chatline/ directory and
sent with every later request. It is cleared automatically when the server
rejects it.

Examples:
  chatline login --email ada@example.com
  chatline login -a https://chat.example.com`

func NewRegisterCmd() *cobra.Command {
	opts := &apiclient.Options{}
	var email, name string

	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Create an account",
		Long:    registerLongDesc,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return opts.Resolve(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.NewClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			p := NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			if email == "" {
				if email, err = p.Line("Email"); err != nil {
					return err
				}
			}
			password, err := p.Password("Password")
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password cannot be empty")
			}

			user, err := client.Register(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Registered %s %s\n  %s\n\n",
				cliui.SuccessMark,
				cliui.KeyStyle.Render(user.Email),
				cliui.DimStyle.Render(fmt.Sprintf("(id %d)", user.ID)),
				cliui.DimStyle.Render("Run 'chatline login' to sign in."),
			)
			return nil
		},
	}

	opts.AddFlags(cmd)
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")

	return cmd
}

func NewLoginCmd() *cobra.Command {
	opts := &apiclient.Options{}
	var email string

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Log in and store a session token",
		Long:    loginLongDesc,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return opts.Resolve(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.NewClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return PromptLogin(cmd.Context(), client, NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), email)
		},
	}

	opts.AddFlags(cmd)
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")

	return cmd
}

func NewLogoutCmd() *cobra.Command {
	opts := &apiclient.Options{}

	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Forget the stored session token",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return opts.Resolve(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.NewClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := client.Logout(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Logged out\n\n", cliui.SuccessMark)
			return nil
		},
	}

	opts.AddFlags(cmd)
	return cmd
}

func NewWhoamiCmd() *cobra.Command {
	opts := &apiclient.Options{}

	cmd := &cobra.Command{
		Use:     "whoami",
		Short:   "Show the logged in account",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return opts.Resolve(cmd) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, store, err := opts.NewClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			sess, err := store.Load()
			if err != nil {
				return err
			}
			if !sess.LoggedIn() {
				return ErrNotLoggedIn
			}

			user, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Email:"), cliui.ValueStyle.Render(user.Email))
			if user.Name != "" {
				fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Name: "), cliui.ValueStyle.Render(user.Name))
			}
			fmt.Fprintf(w, "  %s %s\n\n", cliui.KeyStyle.Render("API:  "), cliui.DimStyle.Render(client.BaseURL()))
			return nil
		},
	}

	opts.AddFlags(cmd)
	return cmd
}
