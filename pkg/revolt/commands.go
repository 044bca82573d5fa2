// Copyright 2024-2026 Aiku AI

package revolt

import (
	"fmt"
	"strings"

	"github.com/aiku/discord-revolt/pkg/bridge"
)

// handleCommand dispatches prefix text commands. Revolt has no native
// command registration, so commands ride on regular messages.
func (c *Client) handleCommand(msg *apiMessage) {
	rest := strings.TrimPrefix(msg.Content, c.commandPrefix)
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	name, args := fields[0], fields[1:]

	// Mapping commands are restricted to the server owner; Revolt has no
	// granular permission model the bot can rely on here.
	if owner := c.serverOwner(msg.Channel); owner != "" && owner != msg.Author {
		c.reply(msg.Channel, "Only the server owner can manage bridges.")
		return
	}

	switch name {
	case "connect":
		if len(args) != 1 {
			c.reply(msg.Channel, fmt.Sprintf("Usage: %sconnect <discord channel name or ID>", c.commandPrefix))
			return
		}
		if err := c.exec.Connect(c.ctx, args[0], msg.Channel); err != nil {
			c.reply(msg.Channel, "Error: "+err.Error())
			return
		}
		c.reply(msg.Channel, fmt.Sprintf("Bridged this channel with Discord channel **%s**.", args[0]))
	case "disconnect":
		if err := c.exec.Disconnect(c.ctx, bridge.PlatformRevolt, msg.Channel); err != nil {
			c.reply(msg.Channel, "Error: "+err.Error())
			return
		}
		c.reply(msg.Channel, "Channels disconnected.")
	case "connections":
		c.reply(msg.Channel, renderConnections(c.exec.ListConnections()))
	case "bots":
		allow, err := c.exec.ToggleAllowBots(c.ctx, bridge.PlatformRevolt, msg.Channel)
		if err != nil {
			c.reply(msg.Channel, "Error: "+err.Error())
			return
		}
		if allow {
			c.reply(msg.Channel, "Bot messages are now relayed in this channel.")
		} else {
			c.reply(msg.Channel, "Bot messages are no longer relayed in this channel.")
		}
	case "ping":
		c.reply(msg.Channel, "Pong!")
	case "help":
		c.reply(msg.Channel, c.helpText())
	}
}

func (c *Client) reply(channelID, content string) {
	_, err := c.rest.sendMessage(c.ctx, channelID, &sendMessageRequest{Content: content})
	if err != nil {
		c.log.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to send command reply")
	}
}

func (c *Client) helpText() string {
	p := c.commandPrefix
	return strings.Join([]string{
		"Available commands:",
		fmt.Sprintf("- `%sconnect <discord channel>` bridge this channel", p),
		fmt.Sprintf("- `%sdisconnect` remove the bridge from this channel", p),
		fmt.Sprintf("- `%sconnections` list bridged channel pairs", p),
		fmt.Sprintf("- `%sbots` toggle relaying of bot messages", p),
	}, "\n")
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
