// Copyright 2024-2026 Aiku AI

// Package revolt adapts the Revolt bot API (Bonfire websocket gateway plus
// REST) to the bridge core. Outbound messages use masquerade, so they carry
// the Discord author's name and avatar without any per-channel setup.
package revolt

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aiku/discord-revolt/pkg/bridge"
	"github.com/aiku/discord-revolt/pkg/bridge/embedfmt"
	"github.com/aiku/discord-revolt/pkg/store"
)

var (
	userTokenPattern    = regexp.MustCompile(`<@([0-9A-Z]{1,26})>`)
	channelTokenPattern = regexp.MustCompile(`<#([0-9A-Z]{1,26})>`)
)

type Config struct {
	Token         string
	APIURL        string
	WSURL         string
	AutumnURL     string
	CommandPrefix string
}

// Client implements bridge.PlatformClient for Revolt.
type Client struct {
	log  zerolog.Logger
	rest *restClient
	exec *bridge.Executor

	wsURL         string
	token         string
	commandPrefix string

	// selfID is the bot's own user ID, fetched at startup. Messages authored
	// by it (including all masquerade mirrors) are never relayed.
	selfID string

	// Gateway state caches, populated by the Ready event and lazily through
	// REST lookups.
	mu       sync.RWMutex
	users    map[string]*apiUser
	channels map[string]*apiChannel
	servers  map[string]*apiServer

	ctx    context.Context
	cancel context.CancelFunc
}

var _ bridge.PlatformClient = (*Client)(nil)

func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		log:           log.With().Str("component", "revolt").Logger(),
		rest:          newRESTClient(cfg.APIURL, cfg.AutumnURL, cfg.Token),
		wsURL:         cfg.WSURL,
		token:         cfg.Token,
		commandPrefix: cfg.CommandPrefix,
		users:         make(map[string]*apiUser),
		channels:      make(map[string]*apiChannel),
		servers:       make(map[string]*apiServer),
	}
}

// SetExecutor attaches the relay core. Must be called before Start.
func (c *Client) SetExecutor(exec *bridge.Executor) {
	c.exec = exec
}

// Start validates the token, connects the gateway and launches the event
// loop. The loop reconnects on its own until Stop.
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	self, err := c.rest.fetchUser(c.ctx, "@me")
	if err != nil {
		return fmt.Errorf("failed to identify Revolt bot user: %w", err)
	}
	c.selfID = self.ID
	c.log.Info().Str("username", self.Username).Msg("Authenticated with Revolt")

	conn, err := c.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to Revolt gateway: %w", err)
	}
	go c.run(conn)
	return nil
}

func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Client) Platform() bridge.Platform {
	return bridge.PlatformRevolt
}

func (c *Client) FetchChannel(ctx context.Context, id string) (*bridge.Channel, error) {
	if ch := c.cachedChannel(id); ch != nil {
		return convertChannel(ch), nil
	}
	ch, err := c.rest.fetchChannel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel: %w", err)
	}
	c.rememberChannel(ch)
	return convertChannel(ch), nil
}

func (c *Client) Channels() []*bridge.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*bridge.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		out = append(out, convertChannel(ch))
	}
	return out
}

func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*bridge.Message, error) {
	msg, err := c.rest.fetchMessage(ctx, channelID, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return c.toBridgeMessage(ctx, msg), nil
}

// EnsureChannelReady is a no-op: masquerade needs no per-channel identity.
func (c *Client) EnsureChannelReady(context.Context, *store.Mapping) error {
	return nil
}

func (c *Client) TeardownChannel(context.Context, *store.Mapping) error {
	return nil
}

func (c *Client) SendMessage(ctx context.Context, channelID string, out *bridge.Outbound) (string, error) {
	req := &sendMessageRequest{
		Content: out.Content,
		Embeds:  convertTextEmbeds(out.Embeds),
	}
	if out.DisplayName != "" {
		req.Masquerade = &apiMasquerade{Name: out.DisplayName, Avatar: out.AvatarURL}
	}
	if out.ReplyToID != "" {
		req.Replies = []apiReply{{ID: out.ReplyToID, Mention: false}}
	}
	msg, err := c.rest.sendMessage(ctx, channelID, req)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	return c.rest.editMessage(ctx, channelID, messageID, content)
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return c.rest.deleteMessage(ctx, channelID, messageID)
}

// toBridgeMessage converts a Revolt message to the platform-neutral form.
// Author and mention lookups hit the gateway caches first and fall back to
// REST; an unresolvable author degrades to the raw ID instead of failing.
func (c *Client) toBridgeMessage(ctx context.Context, msg *apiMessage) *bridge.Message {
	out := &bridge.Message{
		ID:        msg.ID,
		ChannelID: msg.Channel,
		AuthorID:  msg.Author,
		Content:   msg.Content,
		Mentions:  c.buildMentionTable(ctx, msg.Content),
	}

	if author := c.user(ctx, msg.Author); author != nil {
		out.AuthorName = author.Username
		out.AuthorAvatarURL = c.rest.fileURL(author.Avatar)
		out.FromBot = author.Bot != nil
	} else {
		out.AuthorName = msg.Author
	}
	// A masquerade overrides how the author displays.
	if msg.Masquerade != nil && msg.Masquerade.Name != "" {
		out.AuthorName = msg.Masquerade.Name
		if msg.Masquerade.Avatar != "" {
			out.AuthorAvatarURL = msg.Masquerade.Avatar
		}
	}

	for i := range msg.Attachments {
		out.Attachments = append(out.Attachments, c.rest.fileURL(&msg.Attachments[i]))
	}
	if len(msg.Replies) > 0 {
		out.ReplyToID = msg.Replies[0]
	}
	return out
}

func (c *Client) buildMentionTable(ctx context.Context, content string) bridge.MentionTable {
	table := bridge.MentionTable{
		Users:    make(map[string]bridge.UserRef),
		Channels: make(map[string]string),
	}
	for _, match := range userTokenPattern.FindAllStringSubmatch(content, -1) {
		id := match[1]
		if _, ok := table.Users[id]; ok {
			continue
		}
		if user := c.user(ctx, id); user != nil {
			table.Users[id] = bridge.UserRef{Username: user.Username}
		}
	}
	for _, match := range channelTokenPattern.FindAllStringSubmatch(content, -1) {
		id := match[1]
		if _, ok := table.Channels[id]; ok {
			continue
		}
		if ch := c.cachedChannel(id); ch != nil {
			table.Channels[id] = ch.Name
		}
	}
	return table
}

// user returns a user from the gateway cache, falling back to REST. Returns
// nil when both fail.
func (c *Client) user(ctx context.Context, id string) *apiUser {
	c.mu.RLock()
	user, ok := c.users[id]
	c.mu.RUnlock()
	if ok {
		return user
	}
	user, err := c.rest.fetchUser(ctx, id)
	if err != nil {
		c.log.Debug().Err(err).Str("user_id", id).Msg("Failed to fetch user")
		return nil
	}
	c.mu.Lock()
	c.users[id] = user
	c.mu.Unlock()
	return user
}

func (c *Client) cachedChannel(id string) *apiChannel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[id]
}

func (c *Client) rememberChannel(ch *apiChannel) {
	c.mu.Lock()
	c.channels[ch.ID] = ch
	c.mu.Unlock()
}

// serverOwner returns the owner user ID of the server containing the given
// channel, or empty when unknown (group and direct channels).
func (c *Client) serverOwner(channelID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[channelID]
	if !ok || ch.Server == "" {
		return ""
	}
	server, ok := c.servers[ch.Server]
	if !ok {
		return ""
	}
	return server.Owner
}

func convertChannel(ch *apiChannel) *bridge.Channel {
	kind := bridge.ChannelOther
	switch ch.ChannelType {
	case "TextChannel", "Group":
		kind = bridge.ChannelText
	case "VoiceChannel":
		kind = bridge.ChannelVoice
	}
	return &bridge.Channel{ID: ch.ID, Name: ch.Name, Kind: kind}
}

func convertTextEmbeds(embeds []*embedfmt.TextEmbed) []apiSendableEmbed {
	if len(embeds) == 0 {
		return nil
	}
	out := make([]apiSendableEmbed, 0, len(embeds))
	for _, e := range embeds {
		out = append(out, apiSendableEmbed{
			IconURL:     e.IconURL,
			URL:         e.URL,
			Title:       e.Title,
			Description: e.Description,
			Colour:      e.Colour,
		})
	}
	return out
}
