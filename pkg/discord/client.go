// Copyright 2024-2026 Aiku AI

// Package discord adapts the Discord gateway and REST API to the bridge
// core. Outbound messages are sent through a per-mapping webhook so they
// carry the original author's name and avatar.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/aiku/discord-revolt/pkg/bridge"
	"github.com/aiku/discord-revolt/pkg/bridge/embedfmt"
	"github.com/aiku/discord-revolt/pkg/store"
)

// webhookPrefix names bridge-owned webhooks. The Revolt channel ID suffix
// ties the webhook to its mapping so it survives restarts and renames.
const webhookPrefix = "bridge-"

type webhookRef struct {
	ID    string
	Token string
}

// Client wraps a discordgo session and implements bridge.PlatformClient.
type Client struct {
	log     zerolog.Logger
	session *discordgo.Session

	// exec is attached after construction; the executor needs both platform
	// clients before it exists.
	exec *bridge.Executor

	// webhooks maps Discord channel ID to the bridge webhook identity for
	// that channel. Populated by EnsureChannelReady.
	whMu     sync.RWMutex
	webhooks map[string]webhookRef

	ctx    context.Context
	cancel context.CancelFunc
}

var _ bridge.PlatformClient = (*Client)(nil)

func NewClient(token string, log zerolog.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildWebhooks |
		discordgo.IntentMessageContent

	c := &Client{
		log:      log.With().Str("component", "discord").Logger(),
		session:  session,
		webhooks: make(map[string]webhookRef),
	}
	session.AddHandler(c.handleReady)
	session.AddHandler(c.handleMessageCreate)
	session.AddHandler(c.handleMessageUpdate)
	session.AddHandler(c.handleMessageDelete)
	session.AddHandler(c.handleInteraction)
	return c, nil
}

// SetExecutor attaches the relay core. Must be called before Start.
func (c *Client) SetExecutor(exec *bridge.Executor) {
	c.exec = exec
}

func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to connect to Discord: %w", err)
	}
	return nil
}

func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.session.Close(); err != nil {
		c.log.Warn().Err(err).Msg("Error closing Discord session")
	}
}

func (c *Client) Platform() bridge.Platform {
	return bridge.PlatformDiscord
}

func (c *Client) FetchChannel(ctx context.Context, id string) (*bridge.Channel, error) {
	if ch, err := c.session.State.Channel(id); err == nil {
		return convertChannel(ch), nil
	}
	ch, err := c.session.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel: %w", err)
	}
	return convertChannel(ch), nil
}

func (c *Client) Channels() []*bridge.Channel {
	var out []*bridge.Channel
	for _, guild := range c.session.State.Guilds {
		for _, ch := range guild.Channels {
			out = append(out, convertChannel(ch))
		}
	}
	return out
}

func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*bridge.Message, error) {
	msg, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return c.toBridgeMessage(msg), nil
}

// EnsureChannelReady finds or creates the mapping's webhook in the Discord
// channel. Idempotent: an existing webhook with the expected name is reused,
// so restarts and reconnects don't pile up duplicates.
func (c *Client) EnsureChannelReady(ctx context.Context, m *store.Mapping) error {
	c.whMu.RLock()
	_, ok := c.webhooks[m.DiscordChannelID]
	c.whMu.RUnlock()
	if ok {
		return nil
	}

	if err := c.checkWebhookPermission(m.DiscordChannelID); err != nil {
		return err
	}

	name := webhookPrefix + m.RevoltChannelID
	hooks, err := c.session.ChannelWebhooks(m.DiscordChannelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}
	var hook *discordgo.Webhook
	for _, h := range hooks {
		if h.Name == name {
			hook = h
			break
		}
	}
	if hook == nil {
		hook, err = c.session.WebhookCreate(m.DiscordChannelID, name, "", discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to create webhook: %w", err)
		}
		c.log.Debug().
			Str("channel_id", m.DiscordChannelID).
			Str("webhook_id", hook.ID).
			Msg("Created bridge webhook")
	}

	c.whMu.Lock()
	c.webhooks[m.DiscordChannelID] = webhookRef{ID: hook.ID, Token: hook.Token}
	c.whMu.Unlock()
	return nil
}

func (c *Client) checkWebhookPermission(channelID string) error {
	if c.session.State.User == nil {
		return nil
	}
	perms, err := c.session.State.UserChannelPermissions(c.session.State.User.ID, channelID)
	if err != nil {
		// State may not cover the channel yet; let the API call decide.
		return nil
	}
	if missing := missingPermission(perms); missing != "" {
		return &bridge.InsufficientPermissionsError{
			Platform: bridge.PlatformDiscord,
			Missing:  missing,
		}
	}
	return nil
}

// missingPermission names the first capability the bot lacks for relaying
// through a channel, or returns "" when all are present.
func missingPermission(perms int64) string {
	checks := []struct {
		bit  int64
		name string
	}{
		{discordgo.PermissionViewChannel, "View Channel"},
		{discordgo.PermissionSendMessages, "Send Messages"},
		{discordgo.PermissionManageWebhooks, "Manage Webhooks"},
	}
	for _, check := range checks {
		if perms&check.bit == 0 {
			return check.name
		}
	}
	return ""
}

// TeardownChannel deletes the mapping's webhook. Missing webhooks are fine:
// teardown may run twice, or after someone deleted the webhook by hand.
func (c *Client) TeardownChannel(ctx context.Context, m *store.Mapping) error {
	c.whMu.Lock()
	ref, ok := c.webhooks[m.DiscordChannelID]
	delete(c.webhooks, m.DiscordChannelID)
	c.whMu.Unlock()
	if !ok {
		return nil
	}
	if err := c.session.WebhookDelete(ref.ID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

func (c *Client) webhookFor(channelID string) (webhookRef, error) {
	c.whMu.RLock()
	defer c.whMu.RUnlock()
	ref, ok := c.webhooks[channelID]
	if !ok {
		return webhookRef{}, fmt.Errorf("no webhook registered for channel %s", channelID)
	}
	return ref, nil
}

// isOwnWebhook reports whether the given webhook ID belongs to this bridge.
// Used for echo prevention: our webhook's messages must never relay back.
func (c *Client) isOwnWebhook(webhookID string) bool {
	c.whMu.RLock()
	defer c.whMu.RUnlock()
	for _, ref := range c.webhooks {
		if ref.ID == webhookID {
			return true
		}
	}
	return false
}

func (c *Client) SendMessage(ctx context.Context, channelID string, out *bridge.Outbound) (string, error) {
	ref, err := c.webhookFor(channelID)
	if err != nil {
		return "", err
	}
	params := &discordgo.WebhookParams{
		Content:   out.Content,
		Username:  out.DisplayName,
		AvatarURL: out.AvatarURL,
		Embeds:    convertTextEmbeds(out.Embeds),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}
	msg, err := c.session.WebhookExecute(ref.ID, ref.Token, true, params, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to execute webhook: %w", err)
	}
	return msg.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	ref, err := c.webhookFor(channelID)
	if err != nil {
		return err
	}
	_, err = c.session.WebhookMessageEdit(ref.ID, ref.Token, messageID, &discordgo.WebhookEdit{
		Content: &content,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit webhook message: %w", err)
	}
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	ref, err := c.webhookFor(channelID)
	if err != nil {
		return err
	}
	err = c.session.WebhookMessageDelete(ref.ID, ref.Token, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete webhook message: %w", err)
	}
	return nil
}

func convertChannel(ch *discordgo.Channel) *bridge.Channel {
	kind := bridge.ChannelOther
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		kind = bridge.ChannelText
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		kind = bridge.ChannelVoice
	}
	return &bridge.Channel{ID: ch.ID, Name: ch.Name, Kind: kind}
}

// convertTextEmbeds maps Revolt-shaped text embeds back onto Discord's
// richer model; this direction is lossless.
func convertTextEmbeds(embeds []*embedfmt.TextEmbed) []*discordgo.MessageEmbed {
	if len(embeds) == 0 {
		return nil
	}
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		converted := &discordgo.MessageEmbed{
			URL:         e.URL,
			Description: e.Description,
			Color:       parseHexColour(e.Colour),
		}
		if e.Title != "" || e.IconURL != "" {
			converted.Author = &discordgo.MessageEmbedAuthor{
				Name:    e.Title,
				IconURL: e.IconURL,
			}
		}
		out = append(out, converted)
	}
	return out
}

func parseHexColour(colour string) int {
	colour = strings.TrimPrefix(colour, "#")
	var v int
	_, err := fmt.Sscanf(colour, "%06x", &v)
	if err != nil {
		return 0
	}
	return v
}
