package session

import "time"

// Session is the signed-in state persisted in session.toml.
type Session struct {
	Version   int       `toml:"version"`
	APITarget string    `toml:"api_target,omitempty"`
	Token     string    `toml:"token,omitempty"`
	Email     string    `toml:"email,omitempty"`
	SavedAt   time.Time `toml:"saved_at"`
}

// LoggedIn reports whether the session carries a bearer token.
func (s *Session) LoggedIn() bool {
	return s != nil && s.Token != ""
}
