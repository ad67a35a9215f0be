package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

const prefix = "SHELLSESSION"

// Config holds the server configuration, read from SHELLSESSION_* variables.
// envconfig also accepts the unprefixed names, so they avoid common ones
// like SHELL and PORT.
type Config struct {
	Port uint `envconfig:"LISTEN_PORT" default:"1234"`

	// Shell interprets command lines started by local sessions.
	Shell string `envconfig:"SHELL_PATH" default:"/bin/sh"`
	// Cwd is the working directory of local sessions. Empty or invalid
	// values fall back to the user's home directory.
	Cwd string `envconfig:"PTY_CWD"`
	// Command is what a local session runs when the client does not name one.
	Command string `envconfig:"DEFAULT_COMMAND" default:"sh"`

	ConnectionTimeout time.Duration `envconfig:"CONNECTION_TIMEOUT" default:"1m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to load config: LOG_LEVEL: %w", err)
	}
	cfg.Cwd = resolveCwd(cfg.Cwd)
	return &cfg, nil
}

func resolveCwd(cwd string) string {
	if cwd != "" {
		if _, err := os.Stat(cwd); err == nil {
			return cwd
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return homeDir
}
