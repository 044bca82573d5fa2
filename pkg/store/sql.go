// Copyright 2024-2026 Aiku AI

package store

import (
	"context"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.mau.fi/util/dbutil"
)

var upgradeTable dbutil.UpgradeTable

func init() {
	upgradeTable.Register(-1, 1, 0, "Latest revision", dbutil.TxnModeOn, func(ctx context.Context, db *dbutil.Database) error {
		_, err := db.Exec(ctx, `CREATE TABLE mapping (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			discord_channel_id   TEXT    NOT NULL UNIQUE,
			revolt_channel_id    TEXT    NOT NULL UNIQUE,
			discord_channel_name TEXT    NOT NULL,
			revolt_channel_name  TEXT    NOT NULL,
			allow_bots           BOOLEAN NOT NULL DEFAULT true
		)`)
		return err
	})
}

// SQLStore persists mappings in a dbutil-managed database (sqlite by
// default). One record per mapping, see the table definition above.
type SQLStore struct {
	db  *dbutil.Database
	log zerolog.Logger
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore runs schema upgrades and wraps the database handle.
func NewSQLStore(ctx context.Context, db *dbutil.Database, log zerolog.Logger) (*SQLStore, error) {
	db.UpgradeTable = upgradeTable
	db.VersionTable = "bridge_version"
	if err := db.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("failed to upgrade mapping schema: %w", err)
	}
	return &SQLStore{db: db, log: log.With().Str("component", "store").Logger()}, nil
}

// OpenSQLite opens (creating if needed) a sqlite-backed store at path.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*SQLStore, error) {
	db, err := dbutil.NewFromConfig("discord-revolt", dbutil.Config{
		PoolConfig: dbutil.PoolConfig{
			Type:         "sqlite3",
			URI:          path,
			MaxOpenConns: 5,
			MaxIdleConns: 2,
		},
	}, dbutil.ZeroLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewSQLStore(ctx, db, log)
}

func (s *SQLStore) Load(ctx context.Context) ([]*Mapping, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, discord_channel_id, revolt_channel_id,
		       discord_channel_name, revolt_channel_name, allow_bots
		FROM mapping ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*Mapping
	for rows.Next() {
		m := &Mapping{}
		err = rows.Scan(&m.ID, &m.DiscordChannelID, &m.RevoltChannelID,
			&m.DiscordChannelName, &m.RevoltChannelName, &m.AllowBots)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (s *SQLStore) Insert(ctx context.Context, m *Mapping) error {
	res, err := s.db.Exec(ctx, `
		INSERT INTO mapping (discord_channel_id, revolt_channel_id,
		                     discord_channel_name, revolt_channel_name, allow_bots)
		VALUES ($1, $2, $3, $4, $5)
	`, m.DiscordChannelID, m.RevoltChannelID, m.DiscordChannelName, m.RevoltChannelName, m.AllowBots)
	if err != nil {
		return fmt.Errorf("failed to insert mapping: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read mapping id: %w", err)
	}
	s.log.Debug().
		Int64("id", m.ID).
		Str("discord_channel_id", m.DiscordChannelID).
		Str("revolt_channel_id", m.RevoltChannelID).
		Msg("Inserted mapping")
	return nil
}

func (s *SQLStore) DeleteByDiscordChannel(ctx context.Context, channelID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM mapping WHERE discord_channel_id=$1`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteByRevoltChannel(ctx context.Context, channelID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM mapping WHERE revolt_channel_id=$1`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	return nil
}

func (s *SQLStore) SetAllowBots(ctx context.Context, id int64, allow bool) error {
	_, err := s.db.Exec(ctx, `UPDATE mapping SET allow_bots=$1 WHERE id=$2`, allow, id)
	if err != nil {
		return fmt.Errorf("failed to update allow_bots: %w", err)
	}
	return nil
}

func (s *SQLStore) ReadOnly() bool {
	return false
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
