// Copyright 2024-2026 Aiku AI

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMappingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOpenLegacy(t *testing.T) {
	t.Parallel()
	path := writeMappingsFile(t, `[
		{"discord": "123", "revolt": "01ABC"},
		{"discord": "456", "revolt": "01DEF", "allowBots": false}
	]`)

	st, err := OpenLegacy(path, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, st.ReadOnly())

	mappings, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, mappings, 2)

	assert.Equal(t, "123", mappings[0].DiscordChannelID)
	assert.Equal(t, "01ABC", mappings[0].RevoltChannelID)
	assert.True(t, mappings[0].AllowBots, "allowBots defaults to true when absent")
	assert.False(t, mappings[1].AllowBots)
	// The file has no surrogate IDs; synthetic ones must still be distinct.
	assert.NotEqual(t, mappings[0].ID, mappings[1].ID)
}

func TestOpenLegacyMissingFile(t *testing.T) {
	t.Parallel()
	_, err := OpenLegacy(filepath.Join(t.TempDir(), "nope.json"), zerolog.Nop())
	require.Error(t, err)
}

func TestOpenLegacyMalformed(t *testing.T) {
	t.Parallel()
	path := writeMappingsFile(t, `{"not": "an array"}`)
	_, err := OpenLegacy(path, zerolog.Nop())
	require.Error(t, err)
}

func TestLegacyMutationsAreRejected(t *testing.T) {
	t.Parallel()
	path := writeMappingsFile(t, `[{"discord": "123", "revolt": "01ABC"}]`)
	st, err := OpenLegacy(path, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, st.Insert(ctx, &Mapping{}), ErrReadOnly)
	assert.ErrorIs(t, st.DeleteByDiscordChannel(ctx, "123"), ErrReadOnly)
	assert.ErrorIs(t, st.DeleteByRevoltChannel(ctx, "01ABC"), ErrReadOnly)
	assert.ErrorIs(t, st.SetAllowBots(ctx, 1, false), ErrReadOnly)
	assert.NoError(t, st.Close())
}
