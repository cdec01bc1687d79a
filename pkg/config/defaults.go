package config

const (
	defaultAPITarget = "http://localhost:8000"
	defaultTimeout   = "5m"

	defaultListen    = ":8000"
	defaultResponder = "echo"
	defaultUpstream  = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultModel     = "gemini-2.5-flash"
	defaultTokenTTL  = "24h"

	defaultStorageBackend = "memory"
	defaultUploadDir      = "uploads"

	defaultEventsBackend = "nop"
	defaultEventsTopic   = "chatline.messages"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultAPITarget,
			Timeout:   defaultTimeout,
		},
		Server: ServerConfig{
			Listen:    defaultListen,
			Responder: defaultResponder,
			Upstream:  defaultUpstream,
			Model:     defaultModel,
			TokenTTL:  defaultTokenTTL,
		},
		Storage: StorageConfig{
			Backend:   defaultStorageBackend,
			UploadDir: defaultUploadDir,
		},
		Events: EventsConfig{
			Backend: defaultEventsBackend,
			Topic:   defaultEventsTopic,
		},
	}
}
