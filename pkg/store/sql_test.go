// Copyright 2024-2026 Aiku AI

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.db")
	st, err := OpenSQLite(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	m := &Mapping{
		DiscordChannelID:   "123",
		RevoltChannelID:    "01ABC",
		DiscordChannelName: "general",
		RevoltChannelName:  "lobby",
		AllowBots:          true,
	}
	require.NoError(t, st.Insert(ctx, m))
	assert.NotZero(t, m.ID, "insert must fill the surrogate ID")

	mappings, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, m.ID, mappings[0].ID)
	assert.Equal(t, "general", mappings[0].DiscordChannelName)
	assert.True(t, mappings[0].AllowBots)
}

func TestSQLStoreUniqueChannels(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, &Mapping{DiscordChannelID: "123", RevoltChannelID: "01ABC"}))
	// Reusing either channel violates the UNIQUE backstop.
	assert.Error(t, st.Insert(ctx, &Mapping{DiscordChannelID: "123", RevoltChannelID: "01XYZ"}))
	assert.Error(t, st.Insert(ctx, &Mapping{DiscordChannelID: "456", RevoltChannelID: "01ABC"}))
}

func TestSQLStoreDelete(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, &Mapping{DiscordChannelID: "1", RevoltChannelID: "A"}))
	require.NoError(t, st.Insert(ctx, &Mapping{DiscordChannelID: "2", RevoltChannelID: "B"}))

	require.NoError(t, st.DeleteByDiscordChannel(ctx, "1"))
	require.NoError(t, st.DeleteByRevoltChannel(ctx, "B"))

	mappings, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, mappings)

	// Deleting a missing mapping is not an error.
	assert.NoError(t, st.DeleteByDiscordChannel(ctx, "1"))
}

func TestSQLStoreSetAllowBots(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	m := &Mapping{DiscordChannelID: "1", RevoltChannelID: "A", AllowBots: true}
	require.NoError(t, st.Insert(ctx, m))
	require.NoError(t, st.SetAllowBots(ctx, m.ID, false))

	mappings, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.False(t, mappings[0].AllowBots)
	assert.False(t, st.ReadOnly())
}
