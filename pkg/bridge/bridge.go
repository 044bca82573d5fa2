// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/aiku/discord-revolt/pkg/bridge/discordfmt"
	"github.com/aiku/discord-revolt/pkg/bridge/embedfmt"
	"github.com/aiku/discord-revolt/pkg/bridge/revoltfmt"
	"github.com/aiku/discord-revolt/pkg/store"
)

// Executor is the single entry point used by both command handlers and
// event handlers. It owns the in-memory mapping mirror and the
// correspondence cache; there are no ambient singletons.
type Executor struct {
	log   zerolog.Logger
	store store.Store
	cache *Cache

	discord PlatformClient
	revolt  PlatformClient

	mapMu    sync.RWMutex
	mappings []*store.Mapping

	// mutMu serializes mapping mutations so the duplicate check and the
	// store write form a single critical section.
	mutMu sync.Mutex
}

func NewExecutor(log zerolog.Logger, st store.Store, discord, revolt PlatformClient) *Executor {
	return &Executor{
		log:     log.With().Str("component", "bridge").Logger(),
		store:   st,
		cache:   NewCache(),
		discord: discord,
		revolt:  revolt,
	}
}

// LoadMappings populates the in-memory mirror from the durable store.
// Called once at startup, before any events are dispatched.
func (e *Executor) LoadMappings(ctx context.Context) error {
	mappings, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mappings: %w", err)
	}
	e.mapMu.Lock()
	e.mappings = mappings
	e.mapMu.Unlock()
	e.log.Info().Int("count", len(mappings)).Bool("read_only", e.store.ReadOnly()).
		Msg("Loaded channel mappings")
	return nil
}

// PrepareChannels re-establishes the per-mapping send identities after a
// restart. Failures are logged and don't prevent startup; the affected
// mapping just won't relay until the webhook can be created.
func (e *Executor) PrepareChannels(ctx context.Context) {
	e.mapMu.RLock()
	mappings := make([]*store.Mapping, len(e.mappings))
	copy(mappings, e.mappings)
	e.mapMu.RUnlock()

	for _, m := range mappings {
		if err := e.discord.EnsureChannelReady(ctx, m); err != nil {
			e.log.Warn().Err(err).
				Str("discord_channel_id", m.DiscordChannelID).
				Msg("Failed to prepare channel for sending")
		}
	}
}

// Connect creates a new bridge between a Discord and a Revolt channel. Each
// target may be a channel ID or a display name; IDs are tried first, then a
// case-insensitive name search among known text channels.
func (e *Executor) Connect(ctx context.Context, discordTarget, revoltTarget string) error {
	e.mutMu.Lock()
	defer e.mutMu.Unlock()

	if e.store.ReadOnly() {
		return ErrReadOnly
	}

	discordChannel, err := e.resolveChannel(ctx, e.discord, discordTarget)
	if err != nil {
		return err
	}
	revoltChannel, err := e.resolveChannel(ctx, e.revolt, revoltTarget)
	if err != nil {
		return err
	}

	e.mapMu.RLock()
	_, dup := lo.Find(e.mappings, func(m *store.Mapping) bool {
		return m.DiscordChannelID == discordChannel.ID || m.RevoltChannelID == revoltChannel.ID
	})
	e.mapMu.RUnlock()
	if dup {
		return ErrDuplicateMapping
	}

	m := &store.Mapping{
		DiscordChannelID:   discordChannel.ID,
		RevoltChannelID:    revoltChannel.ID,
		DiscordChannelName: discordChannel.Name,
		RevoltChannelName:  revoltChannel.Name,
		AllowBots:          true,
	}

	// Persist before exposing in memory so a failed write can't leave a
	// phantom mapping that only this process knows about.
	if err := e.store.Insert(ctx, m); err != nil {
		return fmt.Errorf("failed to persist mapping: %w", err)
	}
	e.mapMu.Lock()
	e.mappings = append(e.mappings, m)
	e.mapMu.Unlock()

	if err := e.discord.EnsureChannelReady(ctx, m); err != nil {
		// A mapping without working send infrastructure is worse than no
		// mapping; undo both store and mirror.
		e.rollbackMapping(ctx, m)
		var perm *InsufficientPermissionsError
		if errors.As(err, &perm) {
			return perm
		}
		return &SetupError{Platform: PlatformDiscord, Err: err}
	}

	e.log.Info().
		Str("discord_channel", discordChannel.Name).
		Str("revolt_channel", revoltChannel.Name).
		Msg("Connected channels")
	return nil
}

func (e *Executor) rollbackMapping(ctx context.Context, m *store.Mapping) {
	if err := e.store.DeleteByDiscordChannel(ctx, m.DiscordChannelID); err != nil {
		e.log.Error().Err(err).
			Str("discord_channel_id", m.DiscordChannelID).
			Msg("Failed to roll back mapping from store")
	}
	e.removeFromMirror(m.ID)
}

// Disconnect removes the mapping referencing the given channel and tears
// down its send identity. Teardown is idempotent; a missing webhook only
// logs.
func (e *Executor) Disconnect(ctx context.Context, platform Platform, channelID string) error {
	e.mutMu.Lock()
	defer e.mutMu.Unlock()

	if e.store.ReadOnly() {
		return ErrReadOnly
	}

	m, ok := e.mappingByChannel(platform, channelID)
	if !ok {
		return ErrNotConnected
	}

	var err error
	if platform == PlatformDiscord {
		err = e.store.DeleteByDiscordChannel(ctx, channelID)
	} else {
		err = e.store.DeleteByRevoltChannel(ctx, channelID)
	}
	if err != nil {
		return fmt.Errorf("failed to remove mapping: %w", err)
	}
	e.removeFromMirror(m.ID)

	if err := e.discord.TeardownChannel(ctx, &m); err != nil {
		e.log.Warn().Err(err).
			Str("discord_channel_id", m.DiscordChannelID).
			Msg("Failed to remove webhook during disconnect")
	}

	e.log.Info().
		Str("discord_channel_id", m.DiscordChannelID).
		Str("revolt_channel_id", m.RevoltChannelID).
		Msg("Disconnected channels")
	return nil
}

// ToggleAllowBots flips whether bot-authored messages are relayed for the
// mapping containing the given channel, and returns the new value.
func (e *Executor) ToggleAllowBots(ctx context.Context, platform Platform, channelID string) (bool, error) {
	e.mutMu.Lock()
	defer e.mutMu.Unlock()

	if e.store.ReadOnly() {
		return false, ErrReadOnly
	}

	m, ok := e.mappingByChannel(platform, channelID)
	if !ok {
		return false, ErrNotConnected
	}

	next := !m.AllowBots
	if err := e.store.SetAllowBots(ctx, m.ID, next); err != nil {
		return false, fmt.Errorf("failed to persist allow-bots flag: %w", err)
	}
	e.mapMu.Lock()
	for _, existing := range e.mappings {
		if existing.ID == m.ID {
			existing.AllowBots = next
		}
	}
	e.mapMu.Unlock()
	return next, nil
}

// ListConnections returns the human-readable connection listing. Display
// names fall back to channel IDs for mappings bootstrapped from the legacy
// file, which stores no names.
func (e *Executor) ListConnections() []ConnectionPair {
	e.mapMu.RLock()
	defer e.mapMu.RUnlock()
	return lo.Map(e.mappings, func(m *store.Mapping, _ int) ConnectionPair {
		return ConnectionPair{
			Discord:   fallback(m.DiscordChannelName, m.DiscordChannelID),
			Revolt:    fallback(m.RevoltChannelName, m.RevoltChannelID),
			AllowBots: m.AllowBots,
		}
	})
}

// RelayInbound mirrors a newly created message to the mapped channel on the
// other platform. The hot path: any failure downgrades to a logged warning
// and never reaches the event source.
func (e *Executor) RelayInbound(ctx context.Context, dir Direction, msg *Message) {
	log := e.relayLogger(dir, msg.ChannelID, msg.ID)

	m, ok := e.mappingByChannel(dir.Source(), msg.ChannelID)
	if !ok {
		// Most channels are unbridged; not an error.
		return
	}
	if msg.FromBot && !m.AllowBots {
		log.Debug().Msg("Dropping bot message, bot relay disabled for this mapping")
		return
	}

	reply := e.resolveReply(ctx, log, dir, &m, msg.ReplyToID)

	out := &Outbound{
		DisplayName: msg.DisplayName(),
		AvatarURL:   msg.AuthorAvatarURL,
		ReplyToID:   reply.nativeID,
	}
	if reply.preview != nil {
		out.Embeds = append(out.Embeds, reply.preview)
	}

	var target PlatformClient
	var targetChannel string
	switch dir {
	case DiscordToRevolt:
		out.Content = discordfmt.Format(msg.Content, msg.Attachments, discordMentions(msg.Mentions), msg.StickerURL)
		if msg.FromBot && msg.Embed != nil {
			embed, err := embedfmt.Translate(msg.Embed)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to translate embed, relaying without it")
			} else {
				out.Embeds = append(out.Embeds, embed)
			}
		}
		target, targetChannel = e.revolt, m.RevoltChannelID
	case RevoltToDiscord:
		out.Content = revoltfmt.Format(msg.Content, msg.Attachments, revoltMentions(msg.Mentions))
		target, targetChannel = e.discord, m.DiscordChannelID
	}

	mirrorID, err := target.SendMessage(ctx, targetChannel, out)
	if err != nil {
		log.Warn().Err(err).
			Str("target_channel_id", targetChannel).
			Msg("Couldn't relay message")
		return
	}

	e.cache.Insert(dir, Record{
		OriginID:        msg.ID,
		OriginAuthorID:  msg.AuthorID,
		OriginChannelID: msg.ChannelID,
		MirrorID:        mirrorID,
	})
}

// RelayUpdate re-formats an edited message and edits its mirror. A message
// with no correspondence record (sent before startup, or filtered by the
// bot policy) is a no-op.
func (e *Executor) RelayUpdate(ctx context.Context, dir Direction, msg *Message) {
	log := e.relayLogger(dir, msg.ChannelID, msg.ID)

	rec, ok := e.cache.ByOrigin(dir, msg.ID)
	if !ok || rec.Deleted {
		return
	}
	m, ok := e.mappingByChannel(dir.Source(), msg.ChannelID)
	if !ok {
		return
	}

	var target PlatformClient
	var targetChannel, content string
	switch dir {
	case DiscordToRevolt:
		content = discordfmt.Format(msg.Content, msg.Attachments, discordMentions(msg.Mentions), msg.StickerURL)
		target, targetChannel = e.revolt, m.RevoltChannelID
	case RevoltToDiscord:
		content = revoltfmt.Format(msg.Content, msg.Attachments, revoltMentions(msg.Mentions))
		target, targetChannel = e.discord, m.DiscordChannelID
	}

	if err := target.EditMessage(ctx, targetChannel, rec.MirrorID, content); err != nil {
		log.Warn().Err(err).
			Str("mirror_id", rec.MirrorID).
			Msg("Couldn't edit mirrored message")
	}
}

// RelayDelete deletes the mirror of a deleted message. Unknown origin IDs
// and already-deleted mirrors are no-ops.
func (e *Executor) RelayDelete(ctx context.Context, dir Direction, originID string) {
	rec, ok := e.cache.ByOrigin(dir, originID)
	if !ok || rec.Deleted {
		return
	}
	log := e.relayLogger(dir, rec.OriginChannelID, originID)

	m, ok := e.mappingByChannel(dir.Source(), rec.OriginChannelID)
	if !ok {
		return
	}

	var target PlatformClient
	var targetChannel string
	if dir == DiscordToRevolt {
		target, targetChannel = e.revolt, m.RevoltChannelID
	} else {
		target, targetChannel = e.discord, m.DiscordChannelID
	}

	if err := target.DeleteMessage(ctx, targetChannel, rec.MirrorID); err != nil {
		log.Warn().Err(err).
			Str("mirror_id", rec.MirrorID).
			Msg("Couldn't delete mirrored message")
		return
	}
	e.cache.MarkDeleted(dir, originID)
}

func (e *Executor) relayLogger(dir Direction, channelID, messageID string) zerolog.Logger {
	return e.log.With().
		Stringer("direction", dir).
		Str("channel_id", channelID).
		Str("message_id", messageID).
		Logger()
}

// resolveChannel resolves a channel reference that may be an ID or a
// display name. IDs win; names are matched case-insensitively among text
// channels.
func (e *Executor) resolveChannel(ctx context.Context, client PlatformClient, target string) (*Channel, error) {
	if ch, err := client.FetchChannel(ctx, target); err == nil && ch != nil {
		if ch.Kind != ChannelText {
			return nil, fmt.Errorf("%w: %s %q", ErrNotTextChannel, client.Platform(), target)
		}
		return ch, nil
	}

	lower := strings.ToLower(target)
	ch, ok := lo.Find(client.Channels(), func(c *Channel) bool {
		return c.Kind == ChannelText && strings.ToLower(c.Name) == lower
	})
	if !ok {
		return nil, fmt.Errorf("%w: no %s channel matching %q", ErrChannelNotFound, client.Platform(), target)
	}
	return ch, nil
}

// mappingByChannel returns a snapshot of the matching mapping. Returning a
// copy keeps readers off the shared struct once the lock is released;
// ToggleAllowBots mutates the mirror concurrently with the relay hot path.
func (e *Executor) mappingByChannel(platform Platform, channelID string) (store.Mapping, bool) {
	e.mapMu.RLock()
	defer e.mapMu.RUnlock()
	for _, m := range e.mappings {
		if platform == PlatformDiscord && m.DiscordChannelID == channelID {
			return *m, true
		}
		if platform == PlatformRevolt && m.RevoltChannelID == channelID {
			return *m, true
		}
	}
	return store.Mapping{}, false
}

func (e *Executor) removeFromMirror(id int64) {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()
	e.mappings = lo.Reject(e.mappings, func(existing *store.Mapping, _ int) bool {
		return existing.ID == id
	})
}

func fallback(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func discordMentions(t MentionTable) discordfmt.Mentions {
	users := make(map[string]discordfmt.User, len(t.Users))
	for id, u := range t.Users {
		users[id] = discordfmt.User{Username: u.Username, Discriminator: u.Discriminator}
	}
	return discordfmt.Mentions{Users: users, Channels: t.Channels}
}

func revoltMentions(t MentionTable) revoltfmt.Mentions {
	users := make(map[string]string, len(t.Users))
	for id, u := range t.Users {
		users[id] = u.Username
	}
	return revoltfmt.Mentions{Users: users, Channels: t.Channels}
}
