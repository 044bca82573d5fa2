// Copyright 2024-2026 Aiku AI

// Package store persists channel mappings. The SQL store is the normal
// backend; a legacy flat mappings.json file can take its place, in which
// case the store is read-only and mutation commands are disabled.
package store

import (
	"context"
	"errors"
)

// ErrReadOnly is returned by mutation methods of a read-only store. The
// executor checks ReadOnly() up front, so hitting this means a caller
// skipped that check.
var ErrReadOnly = errors.New("mapping store is read-only")

// Mapping binds one Discord channel to one Revolt channel. The channel names
// are denormalized display names captured at creation time, used only for
// listings.
type Mapping struct {
	ID                 int64
	DiscordChannelID   string
	RevoltChannelID    string
	DiscordChannelName string
	RevoltChannelName  string
	AllowBots          bool
}

// Store is the durable registry of channel mappings. Uniqueness of channel
// IDs is enforced by the executor's in-memory mirror before any call here;
// the SQL backend additionally carries UNIQUE constraints as a backstop.
type Store interface {
	// Load returns all mappings. Called once at startup to populate the
	// in-memory mirror.
	Load(ctx context.Context) ([]*Mapping, error)

	// Insert persists a new mapping and fills its surrogate ID.
	Insert(ctx context.Context, m *Mapping) error

	// DeleteByDiscordChannel and DeleteByRevoltChannel remove the mapping
	// referencing the given channel.
	DeleteByDiscordChannel(ctx context.Context, channelID string) error
	DeleteByRevoltChannel(ctx context.Context, channelID string) error

	// SetAllowBots updates the bot-relay flag of a mapping.
	SetAllowBots(ctx context.Context, id int64, allow bool) error

	// ReadOnly reports whether mutation commands are disabled.
	ReadOnly() bool

	Close() error
}
