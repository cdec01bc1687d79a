package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --api-target
// on "chatline chat", "chatline chats" and "chatline tui").
type Flag struct {
	// Name is the long flag name (e.g. "api-target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.api_target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPITarget      = "api-target"
	FlagTimeout        = "timeout"
	FlagMarkdown       = "markdown"
	FlagListen         = "listen"
	FlagResponder      = "responder"
	FlagUpstream       = "upstream"
	FlagModel          = "model"
	FlagTokenTTL       = "token-ttl"
	FlagStorageBackend = "storage"
	FlagStorageDSN     = "dsn"
	FlagUploadDir      = "upload-dir"
	FlagEventsBackend  = "events"
	FlagEventsBrokers  = "brokers"
	FlagEventsTopic    = "topic"
)

// ClientFlags are the flags shared by every command that talks to a chat API.
var ClientFlags = FlagSet{
	FlagAPITarget: {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "Chat API base URL"},
	FlagTimeout:   {Name: "timeout", ViperKey: "client.timeout", Description: "How long to wait for the server to start answering (e.g. 30s, 5m)"},
	FlagMarkdown:  {Name: "markdown", ViperKey: "client.markdown", Description: "Render finished replies as markdown"},
}

// ServerFlags are the flags of "chatline serve".
var ServerFlags = FlagSet{
	FlagListen:         {Name: "listen", Shorthand: "l", ViperKey: "server.listen", Description: "Address for the reference server to listen on"},
	FlagResponder:      {Name: "responder", Shorthand: "r", ViperKey: "server.responder", Description: "Reply generator: echo, openai, ollama or anthropic"},
	FlagUpstream:       {Name: "upstream", Shorthand: "u", ViperKey: "server.upstream", Description: "OpenAI-compatible upstream base URL"},
	FlagModel:          {Name: "model", Shorthand: "m", ViperKey: "server.model", Description: "Upstream model name"},
	FlagTokenTTL:       {Name: "token-ttl", ViperKey: "server.token_ttl", Description: "Lifetime of issued bearer tokens"},
	FlagStorageBackend: {Name: "storage", ViperKey: "storage.backend", Description: "Storage backend: memory, sqlite, libsql, postgres or mysql"},
	FlagStorageDSN:     {Name: "dsn", ViperKey: "storage.dsn", Description: "Storage data source name"},
	FlagUploadDir:      {Name: "upload-dir", ViperKey: "storage.upload_dir", Description: "Directory for uploaded files"},
	FlagEventsBackend:  {Name: "events", ViperKey: "events.backend", Description: "Event publisher: nop or kafka"},
	FlagEventsBrokers:  {Name: "brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
	FlagEventsTopic:    {Name: "topic", ViperKey: "events.topic", Description: "Kafka topic for message events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
