// Copyright 2024-2026 Aiku AI

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiku/discord-revolt/pkg/bridge"
	"github.com/aiku/discord-revolt/pkg/store"
)

func newTestServer(t *testing.T, mappingsJSON string) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.json")
	require.NoError(t, os.WriteFile(path, []byte(mappingsJSON), 0o600))
	st, err := store.OpenLegacy(path, zerolog.Nop())
	require.NoError(t, err)

	exec := bridge.NewExecutor(zerolog.Nop(), st, nil, nil)
	require.NoError(t, exec.LoadMappings(context.Background()))
	return NewServer(":0", exec, zerolog.Nop())
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, `[]`)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleConnections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, `[{"discord": "123", "revolt": "01ABC", "allowBots": false}]`)

	rec := httptest.NewRecorder()
	s.handleConnections(rec, httptest.NewRequest(http.MethodGet, "/api/connections", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var pairs []bridge.ConnectionPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
	require.Len(t, pairs, 1)
	// The legacy file has no display names, so the IDs stand in.
	assert.Equal(t, "123", pairs[0].Discord)
	assert.Equal(t, "01ABC", pairs[0].Revolt)
	assert.False(t, pairs[0].AllowBots)
}

func TestHandleConnectionsEmptyIsArray(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, `[]`)

	rec := httptest.NewRecorder()
	s.handleConnections(rec, httptest.NewRequest(http.MethodGet, "/api/connections", nil))

	assert.Equal(t, "[]\n", rec.Body.String())
}
