// Copyright 2024-2026 Aiku AI

package bridge

import (
	"errors"
	"fmt"
)

// Errors raised by mapping-mutation operations. These propagate to the
// command layer, which renders them for the user verbatim. Relay failures
// are never surfaced this way; they are logged and swallowed at the
// executor boundary.
var (
	// ErrDuplicateMapping means either channel of a connect request already
	// appears in an existing mapping.
	ErrDuplicateMapping = errors.New("either the Revolt or Discord channel is already bridged; use the disconnect command and try again")

	// ErrChannelNotFound means neither ID nor name resolution succeeded.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrNotConnected means disconnect/toggle targeted a channel with no
	// mapping.
	ErrNotConnected = errors.New("this channel isn't connected to anything")

	// ErrReadOnly means mappings were bootstrapped from a legacy flat file
	// and mutation commands are disabled.
	ErrReadOnly = errors.New("mappings are managed by a mappings file; commands can't modify them")

	// ErrNotTextChannel means the resolved channel can't carry messages.
	ErrNotTextChannel = errors.New("channel is not a text channel")
)

// InsufficientPermissionsError is returned when the platform denies a
// capability required for mapping setup. Missing names the capability so the
// user knows exactly what to grant.
type InsufficientPermissionsError struct {
	Platform Platform
	Missing  string
}

func (e *InsufficientPermissionsError) Error() string {
	return fmt.Sprintf("bot doesn't have the %q permission on %s", e.Missing, e.Platform)
}

// SetupError is returned when platform-side send setup failed after
// validation passed. The mapping is rolled back before this surfaces: a
// mapping without working send infrastructure is worse than no mapping.
type SetupError struct {
	Platform Platform
	Err      error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to set up the bridge on %s: %v", e.Platform, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
