// Copyright 2024-2026 Aiku AI

// Package config loads the bridge configuration from a YAML file with
// environment variable overrides on top, so tokens can stay out of the file.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

type Config struct {
	Discord DiscordConfig `yaml:"discord"`
	Revolt  RevoltConfig  `yaml:"revolt"`

	// Database is the sqlite path holding channel mappings.
	Database string `yaml:"database" env:"DATABASE_PATH"`
	// MappingsFile, when the file exists, takes precedence over the database
	// and puts the bridge in read-only mapping mode.
	MappingsFile string `yaml:"mappings_file" env:"MAPPINGS_FILE"`

	// AdminAddr is the listen address of the admin HTTP API. Empty disables
	// the server.
	AdminAddr string `yaml:"admin_addr" env:"ADMIN_ADDR"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

type DiscordConfig struct {
	Token string `yaml:"token" env:"DISCORD_TOKEN"`
}

type RevoltConfig struct {
	Token string `yaml:"token" env:"REVOLT_TOKEN"`
	// CommandPrefix introduces text commands on Revolt, which has no native
	// command registration.
	CommandPrefix string `yaml:"command_prefix" env:"REVOLT_COMMAND_PREFIX"`

	// Endpoint overrides for self-hosted Revolt instances.
	APIURL    string `yaml:"api_url" env:"REVOLT_API_URL"`
	WSURL     string `yaml:"ws_url" env:"REVOLT_WS_URL"`
	AutumnURL string `yaml:"autumn_url" env:"REVOLT_AUTUMN_URL"`
}

func defaults() *Config {
	return &Config{
		Revolt: RevoltConfig{
			CommandPrefix: "rc!",
			APIURL:        "https://api.revolt.chat",
			WSURL:         "wss://ws.revolt.chat",
			AutumnURL:     "https://autumn.revolt.chat",
		},
		Database:     "discord-revolt.db",
		MappingsFile: "mappings.json",
		LogLevel:     "debug",
	}
}

// Load reads the config file at path, if it exists, then applies environment
// overrides. A missing file is fine as long as the environment provides the
// tokens.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("missing Discord token (set discord.token or DISCORD_TOKEN)")
	}
	if cfg.Revolt.Token == "" {
		return nil, fmt.Errorf("missing Revolt token (set revolt.token or REVOLT_TOKEN)")
	}
	return cfg, nil
}
