// Copyright 2024-2026 Aiku AI

package discordfmt_test

import (
	"fmt"

	"github.com/aiku/discord-revolt/pkg/bridge/discordfmt"
)

func ExampleFormat() {
	mentions := discordfmt.Mentions{
		Users:    map[string]discordfmt.User{"81384788765712384": {Username: "danny", Discriminator: "0007"}},
		Channels: map[string]string{"103735883630395392": "lounge"},
	}
	fmt.Print(discordfmt.Format(
		"<@81384788765712384> meet me in <#103735883630395392> <:salute:1034>",
		[]string{"https://cdn.discordapp.com/attachments/1/2/photo.png"},
		mentions,
		"",
	))
	// Output:
	// [@danny#0007]() meet me in #lounge [:salute:](https://cdn.discordapp.com/emojis/1034.png)
	// https://cdn.discordapp.com/attachments/1/2/photo.png
}
