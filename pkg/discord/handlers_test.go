// Copyright 2024-2026 Aiku AI

package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/aiku/discord-revolt/pkg/bridge"
)

func TestConvertChannelKinds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		chType discordgo.ChannelType
		want   bridge.ChannelKind
	}{
		{discordgo.ChannelTypeGuildText, bridge.ChannelText},
		{discordgo.ChannelTypeGuildNews, bridge.ChannelText},
		{discordgo.ChannelTypeGuildVoice, bridge.ChannelVoice},
		{discordgo.ChannelTypeGuildStageVoice, bridge.ChannelVoice},
		{discordgo.ChannelTypeGuildCategory, bridge.ChannelOther},
	}
	for _, tc := range cases {
		got := convertChannel(&discordgo.Channel{ID: "1", Type: tc.chType})
		if got.Kind != tc.want {
			t.Errorf("channel type %d: got kind %d, want %d", tc.chType, got.Kind, tc.want)
		}
	}
}

func TestStickerURL(t *testing.T) {
	t.Parallel()
	msg := &discordgo.Message{StickerItems: []*discordgo.StickerItem{
		{ID: "77", FormatType: discordgo.StickerFormatTypePNG},
	}}
	want := "https://media.discordapp.net/stickers/77.png"
	if got := stickerURL(msg); got != want {
		t.Errorf("png sticker: got %q, want %q", got, want)
	}

	msg.StickerItems[0].FormatType = discordgo.StickerFormatTypeGIF
	want = "https://media.discordapp.net/stickers/77.gif"
	if got := stickerURL(msg); got != want {
		t.Errorf("gif sticker: got %q, want %q", got, want)
	}
}

func TestStickerURLSkipsLottie(t *testing.T) {
	t.Parallel()
	msg := &discordgo.Message{StickerItems: []*discordgo.StickerItem{
		{ID: "77", FormatType: discordgo.StickerFormatTypeLottie},
	}}
	if got := stickerURL(msg); got != "" {
		t.Errorf("lottie sticker has no image URL, got %q", got)
	}
}

func TestConvertEmbed(t *testing.T) {
	t.Parallel()
	in := &discordgo.MessageEmbed{
		Title:       "News",
		Description: "body",
		Color:       0x5875e8,
		Author:      &discordgo.MessageEmbedAuthor{Name: "Feed", IconURL: "https://x/i.png"},
		Footer:      &discordgo.MessageEmbedFooter{Text: "footer"},
		Fields:      []*discordgo.MessageEmbedField{{Name: "k", Value: "v"}},
	}
	out := convertEmbed(in)
	if out.Title != "News" || out.Description != "body" {
		t.Errorf("basic fields: got %+v", out)
	}
	if out.Color != "#5875e8" {
		t.Errorf("colour: got %q, want #5875e8", out.Color)
	}
	if out.AuthorName != "Feed" || out.AuthorIconURL != "https://x/i.png" {
		t.Errorf("author: got %+v", out)
	}
	if out.FooterText != "footer" || len(out.Fields) != 1 {
		t.Errorf("footer/fields: got %+v", out)
	}
}

func TestMissingPermission(t *testing.T) {
	t.Parallel()
	all := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageWebhooks)
	if got := missingPermission(all); got != "" {
		t.Errorf("full permissions: got %q, want none missing", got)
	}
	if got := missingPermission(all &^ discordgo.PermissionManageWebhooks); got != "Manage Webhooks" {
		t.Errorf("without webhook bit: got %q", got)
	}
	if got := missingPermission(all &^ discordgo.PermissionSendMessages); got != "Send Messages" {
		t.Errorf("without send bit: got %q", got)
	}
	if got := missingPermission(0); got != "View Channel" {
		t.Errorf("no permissions: got %q", got)
	}
}

func TestParseHexColour(t *testing.T) {
	t.Parallel()
	if got := parseHexColour("#5875e8"); got != 0x5875e8 {
		t.Errorf("valid colour: got %#x", got)
	}
	if got := parseHexColour("nonsense"); got != 0 {
		t.Errorf("invalid colour: got %#x, want 0", got)
	}
}
