// Copyright 2024-2026 Aiku AI

// Package discordfmt converts Discord message bodies to Revolt markdown.
package discordfmt

import (
	"regexp"
	"strings"
)

var (
	emojiPattern   = regexp.MustCompile(`<(a?):([A-Za-z0-9_~]+?):([0-9]{1,22})>`)
	pingPattern    = regexp.MustCompile(`<@!?([0-9]{1,22})>`)
	channelPattern = regexp.MustCompile(`<#([0-9]{1,22})>`)
)

// maxEnrichedEmoji caps how many distinct custom emoji get an inline image
// link per message. Later emoji degrade to bare :name: text so a message
// stuffed with emoji doesn't turn into a wall of images on the Revolt side.
const maxEnrichedEmoji = 5

const emojiCDN = "https://cdn.discordapp.com/emojis/"

// User identifies a mentioned Discord user for token resolution.
type User struct {
	Username      string
	Discriminator string
}

// Mentions is the resolution table extracted from a Discord message at the
// adapter boundary. Formatting never performs lookups of its own; tokens
// missing from the table are left as literal Discord markup.
type Mentions struct {
	Users    map[string]User
	Channels map[string]string
}

// Format converts a Discord message body to Revolt-friendly markdown and
// appends attachment and sticker URLs, each on its own line. It is a pure
// function: inputs are never mutated and no I/O happens.
//
// Output order is fixed: body with inline substitutions, attachment URLs in
// original order, then the sticker URL. Every segment ends with a newline.
func Format(content string, attachments []string, mentions Mentions, stickerURL string) string {
	content = replaceEmoji(content)
	content = replacePings(content, mentions)
	content = replaceChannels(content, mentions)

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")

	for _, url := range attachments {
		b.WriteString(url)
		b.WriteString("\n")
	}

	if stickerURL != "" {
		b.WriteString(stickerURL)
		b.WriteString("\n")
	}

	return b.String()
}

// replaceEmoji rewrites custom emoji tokens (<:name:id> or <a:name:id>) as
// muted links. The first maxEnrichedEmoji distinct emoji carry an image URL
// pointing at Discord's CDN; the rest render as plain :name: text.
func replaceEmoji(content string) string {
	enriched := make(map[string]struct{})

	return emojiPattern.ReplaceAllStringFunc(content, func(token string) string {
		parts := emojiPattern.FindStringSubmatch(token)
		if parts == nil {
			return token
		}
		animated, name, id := parts[1] != "", parts[2], parts[3]

		if _, ok := enriched[token]; !ok {
			if len(enriched) >= maxEnrichedEmoji {
				return ":" + name + ":"
			}
			enriched[token] = struct{}{}
		}

		ext := ".png"
		if animated {
			ext = ".gif"
		}
		return "[:" + name + ":](" + emojiCDN + id + ext + ")"
	})
}

// replacePings rewrites user mention tokens (<@id> or <@!id>) as muted
// @username#discriminator links. Unresolved tokens stay literal.
func replacePings(content string, mentions Mentions) string {
	return pingPattern.ReplaceAllStringFunc(content, func(token string) string {
		parts := pingPattern.FindStringSubmatch(token)
		if parts == nil {
			return token
		}
		user, ok := mentions.Users[parts[1]]
		if !ok {
			return token
		}
		if user.Discriminator == "" {
			return "[@" + user.Username + "]()"
		}
		return "[@" + user.Username + "#" + user.Discriminator + "]()"
	})
}

// replaceChannels rewrites channel mention tokens (<#id>) as #channel-name.
func replaceChannels(content string, mentions Mentions) string {
	return channelPattern.ReplaceAllStringFunc(content, func(token string) string {
		parts := channelPattern.FindStringSubmatch(token)
		if parts == nil {
			return token
		}
		name, ok := mentions.Channels[parts[1]]
		if !ok {
			return token
		}
		return "#" + name
	})
}
