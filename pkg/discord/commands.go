// Copyright 2024-2026 Aiku AI

package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/aiku/discord-revolt/pkg/bridge"
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "connect",
		Description: "Bridge this channel with a Revolt channel",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "channel",
			Description: "Revolt channel name or ID",
			Required:    true,
		}},
	},
	{
		Name:        "disconnect",
		Description: "Remove the bridge from this channel",
	},
	{
		Name:        "connections",
		Description: "List all bridged channel pairs",
	},
	{
		Name:        "bots",
		Description: "Toggle whether bot messages are relayed for this channel",
	},
}

func (c *Client) registerCommands() {
	if c.session.State.User == nil {
		return
	}
	for _, cmd := range commands {
		_, err := c.session.ApplicationCommandCreate(c.session.State.User.ID, "", cmd)
		if err != nil {
			c.log.Warn().Err(err).Str("command", cmd.Name).Msg("Failed to register slash command")
		}
	}
}

func (c *Client) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()

	if !canManageBridge(i) {
		c.respond(i, "You need the Manage Channels or Administrator permission to do that.")
		return
	}

	switch data.Name {
	case "connect":
		target := data.Options[0].StringValue()
		if err := c.exec.Connect(c.ctx, i.ChannelID, target); err != nil {
			c.respond(i, renderError(err))
			return
		}
		c.respond(i, fmt.Sprintf("Bridged this channel with Revolt channel **%s**.", target))
	case "disconnect":
		if err := c.exec.Disconnect(c.ctx, bridge.PlatformDiscord, i.ChannelID); err != nil {
			c.respond(i, renderError(err))
			return
		}
		c.respond(i, "Channels disconnected.")
	case "connections":
		c.respond(i, renderConnections(c.exec.ListConnections()))
	case "bots":
		allow, err := c.exec.ToggleAllowBots(c.ctx, bridge.PlatformDiscord, i.ChannelID)
		if err != nil {
			c.respond(i, renderError(err))
			return
		}
		if allow {
			c.respond(i, "Bot messages are now relayed in this channel.")
		} else {
			c.respond(i, "Bot messages are no longer relayed in this channel.")
		}
	}
}

func (c *Client) respond(i *discordgo.InteractionCreate, content string) {
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to respond to interaction")
	}
}

func canManageBridge(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	perms := i.Member.Permissions
	return perms&discordgo.PermissionAdministrator != 0 ||
		perms&discordgo.PermissionManageChannels != 0
}

// renderError turns executor errors into user-facing text. The sentinel and
// typed errors carry messages written for exactly this purpose.
func renderError(err error) string {
	return "Error: " + err.Error()
}

func renderConnections(pairs []bridge.ConnectionPair) string {
	if len(pairs) == 0 {
		return "No channels are bridged yet."
	}
	var b strings.Builder
	b.WriteString("Bridged channels:\n")
	for _, pair := range pairs {
		bots := "on"
		if !pair.AllowBots {
			bots = "off"
		}
		fmt.Fprintf(&b, "- **%s** ⇔ **%s** (bots %s)\n", pair.Discord, pair.Revolt, bots)
	}
	return b.String()
}
