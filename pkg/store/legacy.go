// Copyright 2024-2026 Aiku AI

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// legacyEntry is one element of the flat mappings file: a plain channel-ID
// pair, optionally with an allowBots flag.
type legacyEntry struct {
	Discord   string `json:"discord"`
	Revolt    string `json:"revolt"`
	AllowBots *bool  `json:"allowBots,omitempty"`
}

// LegacyStore serves mappings from a flat mappings.json file. It exists as a
// compatibility fallback for deployments predating the database; when the
// file is present it takes precedence and the bridge runs read-only.
type LegacyStore struct {
	mappings []*Mapping
}

var _ Store = (*LegacyStore)(nil)

// OpenLegacy reads the mappings file. The file stores only channel IDs, so
// display names are left empty and listings fall back to the IDs.
func OpenLegacy(path string, log zerolog.Logger) (*LegacyStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file: %w", err)
	}

	var entries []legacyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse mappings file: %w", err)
	}

	log.Warn().Str("path", path).
		Msg("Using a mappings file; connect/disconnect commands are disabled")

	mappings := lo.Map(entries, func(e legacyEntry, i int) *Mapping {
		allowBots := true
		if e.AllowBots != nil {
			allowBots = *e.AllowBots
		}
		return &Mapping{
			ID:               int64(i + 1),
			DiscordChannelID: e.Discord,
			RevoltChannelID:  e.Revolt,
			AllowBots:        allowBots,
		}
	})

	return &LegacyStore{mappings: mappings}, nil
}

func (s *LegacyStore) Load(_ context.Context) ([]*Mapping, error) {
	return s.mappings, nil
}

func (s *LegacyStore) Insert(context.Context, *Mapping) error {
	return ErrReadOnly
}

func (s *LegacyStore) DeleteByDiscordChannel(context.Context, string) error {
	return ErrReadOnly
}

func (s *LegacyStore) DeleteByRevoltChannel(context.Context, string) error {
	return ErrReadOnly
}

func (s *LegacyStore) SetAllowBots(context.Context, int64, bool) error {
	return ErrReadOnly
}

func (s *LegacyStore) ReadOnly() bool {
	return true
}

func (s *LegacyStore) Close() error {
	return nil
}
