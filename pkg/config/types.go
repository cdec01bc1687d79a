package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent chatline configuration stored as
// config.toml in the .chatline/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Client  ClientConfig  `toml:"client"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Events  EventsConfig  `toml:"events"`
}

// ClientConfig holds settings for CLI commands that talk to a chat API
// (e.g. chatline chat, chatline chats list, chatline tui).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
	Timeout   string `toml:"timeout,omitempty"`
	Markdown  bool   `toml:"markdown,omitempty"`
}

// ServerConfig holds settings for the reference server started by
// "chatline serve".
type ServerConfig struct {
	Listen    string `toml:"listen,omitempty"`
	Responder string `toml:"responder,omitempty"`
	Upstream  string `toml:"upstream,omitempty"`
	Model     string `toml:"model,omitempty"`
	TokenTTL  string `toml:"token_ttl,omitempty"`
}

// StorageConfig selects the reference server's storage driver.
type StorageConfig struct {
	Backend   string `toml:"backend,omitempty"`
	DSN       string `toml:"dsn,omitempty"`
	UploadDir string `toml:"upload_dir,omitempty"`
}

// EventsConfig selects where persisted-message events are published.
type EventsConfig struct {
	Backend string `toml:"backend,omitempty"`
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func setDuration(key string, target *string) func(c *Config, v string) error {
	return func(_ *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*target = v
		return nil
	}
}

func setOneOf(key string, target *string, allowed ...string) error {
	for _, a := range allowed {
		if *target == a {
			return nil
		}
	}
	return fmt.Errorf("invalid value for %s: %q (allowed: %v)", key, *target, allowed)
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: func(c *Config, v string) error { return setDuration("client.timeout", &c.Client.Timeout)(c, v) },
	},
	"client.markdown": {
		get: func(c *Config) string { return strconv.FormatBool(c.Client.Markdown) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for client.markdown: %w", err)
			}
			c.Client.Markdown = b
			return nil
		},
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.responder": {
		get: func(c *Config) string { return c.Server.Responder },
		set: func(c *Config, v string) error {
			c.Server.Responder = v
			return setOneOf("server.responder", &c.Server.Responder, "echo", "openai", "ollama", "anthropic")
		},
	},
	"server.upstream": {
		get: func(c *Config) string { return c.Server.Upstream },
		set: func(c *Config, v string) error { c.Server.Upstream = v; return nil },
	},
	"server.model": {
		get: func(c *Config) string { return c.Server.Model },
		set: func(c *Config, v string) error { c.Server.Model = v; return nil },
	},
	"server.token_ttl": {
		get: func(c *Config) string { return c.Server.TokenTTL },
		set: func(c *Config, v string) error { return setDuration("server.token_ttl", &c.Server.TokenTTL)(c, v) },
	},
	"storage.backend": {
		get: func(c *Config) string { return c.Storage.Backend },
		set: func(c *Config, v string) error {
			c.Storage.Backend = v
			return setOneOf("storage.backend", &c.Storage.Backend, "memory", "sqlite", "libsql", "postgres", "mysql")
		},
	},
	"storage.dsn": {
		get: func(c *Config) string { return c.Storage.DSN },
		set: func(c *Config, v string) error { c.Storage.DSN = v; return nil },
	},
	"storage.upload_dir": {
		get: func(c *Config) string { return c.Storage.UploadDir },
		set: func(c *Config, v string) error { c.Storage.UploadDir = v; return nil },
	},
	"events.backend": {
		get: func(c *Config) string { return c.Events.Backend },
		set: func(c *Config, v string) error {
			c.Events.Backend = v
			return setOneOf("events.backend", &c.Events.Backend, "nop", "kafka")
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
