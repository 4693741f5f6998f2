// Package config handles the XDG configuration directory, file paths and environment settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// EnvFile is the optional dotenv file read from the config dir and the working directory.
	EnvFile = ".env"
)

// AuthMode selects how the credential is sent to the backend.
type AuthMode string

const (
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer AuthMode = "bearer"

	// AuthCookie sends the token as a cookie.
	AuthCookie AuthMode = "cookie"
)

// Validate returns an error for unknown modes.
func (m AuthMode) Validate() error {
	switch m {
	case AuthBearer, AuthCookie:
		return nil
	}
	return fmt.Errorf("invalid auth mode: %q (want bearer or cookie)", string(m))
}

// APIConfig holds the backend connection settings.
type APIConfig struct {
	BaseURL    string        `env:"TODO_API_URL" envDefault:"http://localhost:8000/api"`
	AuthMode   AuthMode      `env:"TODO_AUTH_MODE" envDefault:"bearer"`
	CookieName string        `env:"TODO_COOKIE_NAME" envDefault:"access_token"`
	Timeout    time.Duration `env:"TODO_TIMEOUT" envDefault:"10s"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// API holds backend settings from the environment.
	API APIConfig
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
// A .env file in the config directory or the working directory is loaded;
// variables already set in the environment win. API settings are read by LoadAPI.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	for _, path := range []string{filepath.Join(dir, EnvFile), EnvFile} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return &Config{Dir: dir}, nil
}

// LoadAPI parses the TODO_* backend settings into c.API.
// Only commands that talk to the backend need them.
func (c *Config) LoadAPI() error {
	var api APIConfig
	if err := env.Parse(&api); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	api.AuthMode = AuthMode(strings.ToLower(strings.TrimSpace(string(api.AuthMode))))
	if err := api.AuthMode.Validate(); err != nil {
		return err
	}
	api.BaseURL = strings.TrimRight(api.BaseURL, "/")

	c.API = api
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}
