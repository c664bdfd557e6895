package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultServer is used when ~/.huddle/config.toml does not name one.
const DefaultServer = "localhost:8000"

// Config represents the global ~/.huddle/config.toml.
type Config struct {
	// Server is the host:port of the chat backend. It is used for the
	// sign-in endpoint, the websocket endpoint and thumbnail URLs.
	Server string `toml:"server"`

	DefaultSession string `toml:"default_session"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// SignInURL returns the HTTP sign-in endpoint for the configured server.
func (c *Config) SignInURL() string {
	return "http://" + c.Server + "/chat/signin/"
}

// SocketURL returns the websocket endpoint with the access token attached.
func (c *Config) SocketURL(accessToken string) string {
	return "ws://" + c.Server + "/chat/?token=" + accessToken
}
