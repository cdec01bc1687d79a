// Package cmdtest runs chatline commands against an in-process reference
// server.
package cmdtest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/papercomputeco/chatline/api"
	"github.com/papercomputeco/chatline/pkg/chatapi"
	"github.com/papercomputeco/chatline/pkg/config"
	"github.com/papercomputeco/chatline/pkg/llm/provider"
	"github.com/papercomputeco/chatline/pkg/llm/provider/echo"
	"github.com/papercomputeco/chatline/pkg/session"
	"github.com/papercomputeco/chatline/pkg/storage/inmemory"
)

// Env is a running server plus a private config dir.
type Env struct {
	URL       string
	ConfigDir string
	Store     *inmemory.Driver

	srv *httptest.Server
}

// Start serves the API with an in-memory store. dir holds uploads and the
// config dir, whose config.toml points the client at the server. A nil
// responder echoes.
func Start(dir string, responder provider.Provider) (*Env, error) {
	if responder == nil {
		responder = echo.New()
	}

	store := inmemory.NewDriver()
	server, err := api.NewServer(api.Config{
		Name:       "cmdtest",
		Model:      "test",
		UploadDir:  filepath.Join(dir, "uploads"),
		BcryptCost: bcrypt.MinCost,
	}, store, responder, nil)
	if err != nil {
		return nil, err
	}

	srv := httptest.NewServer(server.Handler())
	env := &Env{
		URL:       srv.URL,
		ConfigDir: filepath.Join(dir, "config"),
		Store:     store,
		srv:       srv,
	}

	cfger, err := config.NewConfiger(env.ConfigDir)
	if err == nil {
		err = cfger.SetConfigValue("client.api_target", env.URL)
	}
	if err != nil {
		srv.Close()
		return nil, err
	}
	return env, nil
}

func (e *Env) Close() {
	e.srv.Close()
}

// Client returns an API client sharing the env's session.
func (e *Env) Client() (*chatapi.Client, error) {
	store, err := session.NewStore(e.ConfigDir)
	if err != nil {
		return nil, err
	}
	return chatapi.New(e.URL, store), nil
}

// SignIn registers an account and stores its session.
func (e *Env) SignIn(ctx context.Context, email, password string) (*chatapi.Client, error) {
	client, err := e.Client()
	if err != nil {
		return nil, err
	}
	if _, err := client.Register(ctx, email, password, ""); err != nil {
		return nil, err
	}
	if err := client.Login(ctx, email, password); err != nil {
		return nil, err
	}
	return client, nil
}

// Run executes cmd with stdin and args, pointing it at the env. It returns
// what the command wrote to stdout.
func (e *Env) Run(cmd *cobra.Command, stdin string, args ...string) (string, error) {
	if cmd.PersistentFlags().Lookup("config-dir") == nil {
		cmd.PersistentFlags().String("config-dir", "", "")
	}
	if cmd.PersistentFlags().Lookup("debug") == nil {
		cmd.PersistentFlags().BoolP("debug", "d", false, "")
	}

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))

	args = append(args, "--config-dir", e.ConfigDir)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
