// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"

	"github.com/aiku/discord-revolt/pkg/bridge/embedfmt"
	"github.com/aiku/discord-revolt/pkg/store"
)

// Platform names one of the two bridged services.
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformRevolt  Platform = "revolt"
)

// Direction identifies which platform a message originated on. It selects
// the correspondence index and the send abstraction used for its mirror.
type Direction int

const (
	DiscordToRevolt Direction = iota
	RevoltToDiscord
)

func (d Direction) String() string {
	if d == DiscordToRevolt {
		return "discord->revolt"
	}
	return "revolt->discord"
}

// Reverse returns the opposite relay direction.
func (d Direction) Reverse() Direction {
	if d == DiscordToRevolt {
		return RevoltToDiscord
	}
	return DiscordToRevolt
}

// Source returns the platform messages of this direction originate on.
func (d Direction) Source() Platform {
	if d == DiscordToRevolt {
		return PlatformDiscord
	}
	return PlatformRevolt
}

// ChannelKind classifies a channel's capability once at the adapter
// boundary, instead of duck-typing platform objects inside the core.
type ChannelKind int

const (
	ChannelText ChannelKind = iota
	ChannelVoice
	ChannelOther
)

// Channel is the platform-neutral channel view used for target resolution.
type Channel struct {
	ID   string
	Name string
	Kind ChannelKind
}

// UserRef is a resolved mention target. Discriminator is empty for Revolt
// users, which have none.
type UserRef struct {
	Username      string
	Discriminator string
}

// MentionTable carries the mention resolution data extracted from an inbound
// message. The formatters resolve tokens against it without any I/O.
type MentionTable struct {
	Users    map[string]UserRef
	Channels map[string]string
}

// Message is the platform-neutral inbound message handed to the executor by
// an adapter. Update events may be partial: only ID, ChannelID, Content,
// Attachments and Mentions are guaranteed.
type Message struct {
	ID        string
	ChannelID string

	AuthorID            string
	AuthorName          string
	AuthorDiscriminator string
	AuthorAvatarURL     string

	Content     string
	Attachments []string
	StickerURL  string
	Mentions    MentionTable

	// ReplyToID is the platform-local ID of the message being replied to.
	ReplyToID string

	// Link is a permalink to the message, when the platform has one.
	Link string

	FromBot bool

	// Embed is set only for bot-authored messages carrying a rich embed;
	// embeds from regular users are never relayed.
	Embed *embedfmt.Embed
}

// DisplayName renders the author the way the other platform shows them.
func (m *Message) DisplayName() string {
	if m.AuthorDiscriminator == "" {
		return m.AuthorName
	}
	return m.AuthorName + "#" + m.AuthorDiscriminator
}

// Outbound is the translated payload handed to a platform sender. Consumed
// immediately; never persisted.
type Outbound struct {
	Content     string
	DisplayName string
	AvatarURL   string

	// ReplyToID requests a native reply on platforms that support it
	// (Revolt). The Discord sender ignores it since webhooks can't reply.
	ReplyToID string

	Embeds []*embedfmt.TextEmbed
}

// ConnectionPair is one row of the human-readable connection listing.
type ConnectionPair struct {
	Discord   string `json:"discord"`
	Revolt    string `json:"revolt"`
	AllowBots bool   `json:"allowBots"`
}

// PlatformClient is the boundary to one platform: channel/message lookups
// plus the send abstraction. Implemented by pkg/discord and pkg/revolt; the
// executor never touches SDK types directly.
type PlatformClient interface {
	Platform() Platform

	// FetchChannel resolves a channel by its platform-assigned ID.
	FetchChannel(ctx context.Context, id string) (*Channel, error)
	// Channels returns the currently known channels on the platform.
	Channels() []*Channel
	// FetchMessage fetches a single message, used for best-effort reply
	// previews when the correspondence cache has no record.
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)

	// EnsureChannelReady performs idempotent per-mapping send setup (the
	// Discord side creates or reuses the dedicated webhook identity). It
	// must verify the required capabilities first and return an
	// *InsufficientPermissionsError when one is missing.
	EnsureChannelReady(ctx context.Context, m *store.Mapping) error
	// TeardownChannel removes the per-mapping send identity. A missing
	// identity is not an error.
	TeardownChannel(ctx context.Context, m *store.Mapping) error

	SendMessage(ctx context.Context, channelID string, out *Outbound) (string, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}
