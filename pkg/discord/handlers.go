// Copyright 2024-2026 Aiku AI

package discord

import (
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/aiku/discord-revolt/pkg/bridge"
	"github.com/aiku/discord-revolt/pkg/bridge/embedfmt"
)

var channelTokenPattern = regexp.MustCompile(`<#([0-9]{1,22})>`)

func (c *Client) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.log.Info().
		Str("username", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("Connected to Discord")
	go c.registerCommands()
}

func (c *Client) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	// Echo prevention: messages sent through our own webhooks are mirrors of
	// Revolt messages and must not bounce back.
	if m.WebhookID != "" && c.isOwnWebhook(m.WebhookID) {
		return
	}
	c.exec.RelayInbound(c.ctx, bridge.DiscordToRevolt, c.toBridgeMessage(m.Message))
}

func (c *Client) handleMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	// Embed-unfurl updates arrive without an author or content; nothing to
	// re-relay for those.
	if m.Author == nil || m.Content == "" {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if m.WebhookID != "" && c.isOwnWebhook(m.WebhookID) {
		return
	}
	c.exec.RelayUpdate(c.ctx, bridge.DiscordToRevolt, c.toBridgeMessage(m.Message))
}

func (c *Client) handleMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	c.exec.RelayDelete(c.ctx, bridge.DiscordToRevolt, m.ID)
}

// toBridgeMessage converts a Discord message into the platform-neutral form,
// resolving mention tokens against the payload and gateway state so the
// formatter never has to do I/O.
func (c *Client) toBridgeMessage(msg *discordgo.Message) *bridge.Message {
	out := &bridge.Message{
		ID:         msg.ID,
		ChannelID:  msg.ChannelID,
		Content:    msg.Content,
		Mentions:   c.buildMentionTable(msg),
		StickerURL: stickerURL(msg),
		Link:       c.permalink(msg),
	}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
		out.AuthorName = msg.Author.Username
		out.AuthorAvatarURL = msg.Author.AvatarURL("")
		out.FromBot = msg.Author.Bot || msg.WebhookID != ""
		// Migrated accounts report discriminator "0" and render without one.
		if d := msg.Author.Discriminator; d != "" && d != "0" {
			out.AuthorDiscriminator = d
		}
	}
	for _, att := range msg.Attachments {
		out.Attachments = append(out.Attachments, att.URL)
	}
	if msg.MessageReference != nil {
		out.ReplyToID = msg.MessageReference.MessageID
	}
	if out.FromBot && len(msg.Embeds) > 0 {
		out.Embed = convertEmbed(msg.Embeds[0])
	}
	return out
}

func (c *Client) buildMentionTable(msg *discordgo.Message) bridge.MentionTable {
	table := bridge.MentionTable{
		Users:    make(map[string]bridge.UserRef, len(msg.Mentions)),
		Channels: make(map[string]string),
	}
	for _, user := range msg.Mentions {
		ref := bridge.UserRef{Username: user.Username}
		if d := user.Discriminator; d != "" && d != "0" {
			ref.Discriminator = d
		}
		table.Users[user.ID] = ref
	}
	for _, match := range channelTokenPattern.FindAllStringSubmatch(msg.Content, -1) {
		id := match[1]
		if _, ok := table.Channels[id]; ok {
			continue
		}
		if ch, err := c.session.State.Channel(id); err == nil {
			table.Channels[id] = ch.Name
		}
	}
	return table
}

func (c *Client) permalink(msg *discordgo.Message) string {
	guildID := msg.GuildID
	if guildID == "" {
		// REST fetches omit the guild ID; recover it from state.
		ch, err := c.session.State.Channel(msg.ChannelID)
		if err != nil {
			return ""
		}
		guildID = ch.GuildID
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, msg.ChannelID, msg.ID)
}

// stickerURL returns the CDN URL of the first sticker, when it has a
// renderable image format. Lottie stickers are JSON animations with no image
// URL, so they're skipped.
func stickerURL(msg *discordgo.Message) string {
	for _, sticker := range msg.StickerItems {
		switch sticker.FormatType {
		case discordgo.StickerFormatTypePNG, discordgo.StickerFormatTypeAPNG:
			return "https://media.discordapp.net/stickers/" + sticker.ID + ".png"
		case discordgo.StickerFormatTypeGIF:
			return "https://media.discordapp.net/stickers/" + sticker.ID + ".gif"
		}
	}
	return ""
}

func convertEmbed(e *discordgo.MessageEmbed) *embedfmt.Embed {
	out := &embedfmt.Embed{
		Title:       e.Title,
		URL:         e.URL,
		Description: e.Description,
	}
	if e.Author != nil {
		out.AuthorName = e.Author.Name
		out.AuthorIconURL = e.Author.IconURL
	}
	if e.Color != 0 {
		out.Color = fmt.Sprintf("#%06x", e.Color)
	}
	if e.Footer != nil {
		out.FooterText = e.Footer.Text
	}
	for _, field := range e.Fields {
		out.Fields = append(out.Fields, embedfmt.Field{Name: field.Name, Value: field.Value})
	}
	return out
}
