// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aiku/discord-revolt/pkg/bridge/embedfmt"
	"github.com/aiku/discord-revolt/pkg/store"
)

const (
	// replyColour matches Discord's reply accent so previews read as replies
	// on the Revolt side too.
	replyColour = "#5875e8"

	replyPreviewLimit = 64
)

// replyTarget is the resolved form of an inbound message's reply reference.
// At most one field is set: a native reply ID on platforms that support
// replies from the bridge identity, or a quote-style preview embed.
type replyTarget struct {
	nativeID string
	preview  *embedfmt.TextEmbed
}

// resolveReply maps a reply on the source platform to something expressible
// on the target platform. Precedence:
//
//  1. the replied-to message is itself a mirror, so the true origin lives on
//     the target platform,
//  2. the replied-to message originated here and has a mirror on the target,
//  3. the cache knows nothing (pre-bridge message or restart), fall back to
//     a live fetch from the source platform.
//
// Resolution is best-effort throughout. A reply we can't resolve degrades to
// a plain message, never to a relay failure.
func (e *Executor) resolveReply(ctx context.Context, log zerolog.Logger, dir Direction, m *store.Mapping, replyToID string) replyTarget {
	if replyToID == "" {
		return replyTarget{}
	}

	if rec, ok := e.cache.ByMirror(dir.Reverse(), replyToID); ok {
		if dir == DiscordToRevolt {
			return replyTarget{nativeID: rec.OriginID}
		}
		// Webhooks can't reply natively; quote the Discord origin instead.
		return replyTarget{preview: e.fetchPreview(ctx, log, e.discord, rec.OriginChannelID, rec.OriginID)}
	}

	if rec, ok := e.cache.ByOrigin(dir, replyToID); ok {
		if dir == DiscordToRevolt {
			return replyTarget{nativeID: rec.MirrorID}
		}
		return replyTarget{preview: e.fetchPreview(ctx, log, e.discord, m.DiscordChannelID, rec.MirrorID)}
	}

	src, channelID := e.discord, m.DiscordChannelID
	if dir == RevoltToDiscord {
		src, channelID = e.revolt, m.RevoltChannelID
	}
	return replyTarget{preview: e.fetchPreview(ctx, log, src, channelID, replyToID)}
}

func (e *Executor) fetchPreview(ctx context.Context, log zerolog.Logger, client PlatformClient, channelID, messageID string) *embedfmt.TextEmbed {
	msg, err := client.FetchMessage(ctx, channelID, messageID)
	if err != nil {
		log.Debug().Err(err).
			Str("platform", string(client.Platform())).
			Str("reply_to_id", messageID).
			Msg("Couldn't fetch reply target for preview")
		return nil
	}
	return buildReplyPreview(msg)
}

// buildReplyPreview renders a quoted message as a small accent-coloured
// embed: linked "Reply to" header when a permalink exists, truncated
// content, and an indicator when the quoted message carried files or embeds.
func buildReplyPreview(msg *Message) *embedfmt.TextEmbed {
	content := truncate(strings.TrimSpace(msg.Content), replyPreviewLimit)

	var desc strings.Builder
	switch {
	case msg.Link != "" && content != "":
		desc.WriteString("[**Reply to:**](" + msg.Link + ") " + content)
	case msg.Link != "":
		desc.WriteString("[**Reply to**](" + msg.Link + ")")
	default:
		desc.WriteString("**Reply to**: " + content)
	}

	var contains []string
	if len(msg.Attachments) > 0 {
		contains = append(contains, "file")
	}
	if msg.Embed != nil {
		contains = append(contains, "embed")
	}
	if len(contains) > 0 {
		desc.WriteString("\n*contains " + strings.Join(contains, ", ") + "*")
	}

	return &embedfmt.TextEmbed{
		Title:       msg.DisplayName(),
		IconURL:     msg.AuthorAvatarURL,
		Colour:      replyColour,
		Description: desc.String(),
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
