// Copyright 2024-2026 Aiku AI

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
discord:
    token: d-token
revolt:
    token: r-token
    command_prefix: "!!"
database: /data/bridge.db
admin_addr: ":8080"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "d-token", cfg.Discord.Token)
	assert.Equal(t, "r-token", cfg.Revolt.Token)
	assert.Equal(t, "!!", cfg.Revolt.CommandPrefix)
	assert.Equal(t, "/data/bridge.db", cfg.Database)
	assert.Equal(t, ":8080", cfg.AdminAddr)
	// Defaults survive a partial file.
	assert.Equal(t, "https://api.revolt.chat", cfg.Revolt.APIURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-d-token")
	t.Setenv("REVOLT_API_URL", "https://revolt.example.com/api")
	path := writeConfig(t, `
discord:
    token: file-d-token
revolt:
    token: r-token
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-d-token", cfg.Discord.Token)
	assert.Equal(t, "https://revolt.example.com/api", cfg.Revolt.APIURL)
}

func TestLoadMissingFileWithEnvTokens(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "d")
	t.Setenv("REVOLT_TOKEN", "r")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "d", cfg.Discord.Token)
	assert.Equal(t, "rc!", cfg.Revolt.CommandPrefix)
}

func TestLoadMissingTokens(t *testing.T) {
	path := writeConfig(t, `
revolt:
    token: r-token
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "discord: [not a mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestExampleConfigParses(t *testing.T) {
	path := writeConfig(t, ExampleConfig)
	t.Setenv("DISCORD_TOKEN", "d")
	t.Setenv("REVOLT_TOKEN", "r")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rc!", cfg.Revolt.CommandPrefix)
	assert.Equal(t, "mappings.json", cfg.MappingsFile)
}
