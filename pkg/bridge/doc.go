// Copyright 2024-2026 Aiku AI

// Package bridge contains the platform-independent relay core: the channel
// mapping registry, the message correspondence cache, and the executor that
// turns inbound events from one platform into sends on the other.
//
// The platform adapters in pkg/discord and pkg/revolt plug in through the
// PlatformClient interface; nothing in this package imports an SDK.
package bridge
