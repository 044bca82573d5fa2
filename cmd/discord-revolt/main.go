// Copyright 2024-2026 Aiku AI

// Command discord-revolt is a bidirectional Discord-Revolt channel bridge.
// Messages, edits and deletions posted in a mapped channel on one platform
// are mirrored to its partner channel on the other, preserving the author's
// name and avatar through webhooks (Discord) and masquerade (Revolt).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aiku/discord-revolt/pkg/bridge"
	"github.com/aiku/discord-revolt/pkg/config"
	"github.com/aiku/discord-revolt/pkg/discord"
	"github.com/aiku/discord-revolt/pkg/revolt"
	"github.com/aiku/discord-revolt/pkg/store"
	"github.com/aiku/discord-revolt/pkg/web"
)

// Filled at build time with -ldflags.
var (
	Tag    = "unknown"
	Commit = "unknown"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "discord-revolt",
		Short:        "A bidirectional Discord-Revolt channel bridge",
		Version:      fmt.Sprintf("%s (%s)", Tag, Commit),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the config file")
	cmd.AddCommand(newExampleConfigCommand())
	return cmd
}

func newExampleConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "example-config",
		Short: "Print an example config file",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Print(config.ExampleConfig)
		},
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := setupLogging(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	discordClient, err := discord.NewClient(cfg.Discord.Token, log)
	if err != nil {
		return err
	}
	revoltClient := revolt.NewClient(revolt.Config{
		Token:         cfg.Revolt.Token,
		APIURL:        cfg.Revolt.APIURL,
		WSURL:         cfg.Revolt.WSURL,
		AutumnURL:     cfg.Revolt.AutumnURL,
		CommandPrefix: cfg.Revolt.CommandPrefix,
	}, log)

	exec := bridge.NewExecutor(log, st, discordClient, revoltClient)
	discordClient.SetExecutor(exec)
	revoltClient.SetExecutor(exec)

	if err := exec.LoadMappings(ctx); err != nil {
		return err
	}

	if err := discordClient.Start(ctx); err != nil {
		return err
	}
	defer discordClient.Stop()

	// Webhooks must exist before the first Revolt message arrives.
	exec.PrepareChannels(ctx)

	if err := revoltClient.Start(ctx); err != nil {
		return err
	}
	defer revoltClient.Stop()

	var adminServer *web.Server
	if cfg.AdminAddr != "" {
		adminServer = web.NewServer(cfg.AdminAddr, exec, log)
		adminServer.Start()
	}

	log.Info().Str("version", Tag).Msg("Bridge is running")
	<-ctx.Done()
	log.Info().Msg("Shutting down")

	if adminServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		adminServer.Stop(shutdownCtx)
	}
	return nil
}

func setupLogging(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}

// openStore picks the mapping backend: the legacy flat file when it exists,
// the sqlite database otherwise.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	if cfg.MappingsFile != "" {
		if _, err := os.Stat(cfg.MappingsFile); err == nil {
			return store.OpenLegacy(cfg.MappingsFile, log)
		}
	}
	return store.OpenSQLite(ctx, cfg.Database, log)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
