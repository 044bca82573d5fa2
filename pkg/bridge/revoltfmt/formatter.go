// Copyright 2024-2026 Aiku AI

// Package revoltfmt converts Revolt message bodies to Discord-friendly text.
package revoltfmt

import (
	"regexp"
	"strings"
)

// Revolt IDs are ULIDs: 26 characters from the Crockford base32 alphabet.
var (
	pingPattern    = regexp.MustCompile(`<@([0-9A-Z]{1,26})>`)
	channelPattern = regexp.MustCompile(`<#([0-9A-Z]{1,26})>`)
)

// Mentions maps Revolt user and channel IDs to display names. Built by the
// adapter from the message's mention list and the channel cache; tokens
// missing from the table are left as literal Revolt markup.
type Mentions struct {
	Users    map[string]string
	Channels map[string]string
}

// Format converts a Revolt message body to Discord-friendly text and appends
// attachment URLs, each on its own line. Pure function, same ordering
// contract as discordfmt.Format: body first, then attachments in order.
func Format(content string, attachments []string, mentions Mentions) string {
	content = replacePings(content, mentions)
	content = replaceChannels(content, mentions)

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")

	for _, url := range attachments {
		b.WriteString(url)
		b.WriteString("\n")
	}

	return b.String()
}

// replacePings rewrites user mention tokens (<@ULID>) as @username. Revolt
// has no discriminator concept, so the bare username is used.
func replacePings(content string, mentions Mentions) string {
	return pingPattern.ReplaceAllStringFunc(content, func(token string) string {
		parts := pingPattern.FindStringSubmatch(token)
		if parts == nil {
			return token
		}
		username, ok := mentions.Users[parts[1]]
		if !ok {
			return token
		}
		return "@" + username
	})
}

// replaceChannels rewrites channel mention tokens (<#ULID>) as #channel-name.
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
