// Copyright 2024-2026 Aiku AI

package revolt

// Wire types for the subset of the Revolt API the bridge touches. Field sets
// are intentionally partial; unknown fields are ignored on decode.

type apiFile struct {
	ID       string `json:"_id"`
	Tag      string `json:"tag"`
	Filename string `json:"filename"`
}

type apiUser struct {
	ID       string   `json:"_id"`
	Username string   `json:"username"`
	Avatar   *apiFile `json:"avatar"`
	Bot      *struct {
		Owner string `json:"owner"`
	} `json:"bot"`
}

type apiChannel struct {
	ID          string `json:"_id"`
	ChannelType string `json:"channel_type"`
	Name        string `json:"name"`
	Server      string `json:"server"`
}

type apiServer struct {
	ID    string `json:"_id"`
	Owner string `json:"owner"`
}

type apiReply struct {
	ID      string `json:"id"`
	Mention bool   `json:"mention"`
}

type apiMasquerade struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// apiSendableEmbed is Revolt's only sendable embed shape ("text embed").
type apiSendableEmbed struct {
	IconURL     string `json:"icon_url,omitempty"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Colour      string `json:"colour,omitempty"`
}

type apiMessage struct {
	ID          string         `json:"_id"`
	Channel     string         `json:"channel"`
	Author      string         `json:"author"`
	Content     string         `json:"content"`
	Attachments []apiFile      `json:"attachments"`
	Replies     []string       `json:"replies"`
	Masquerade  *apiMasquerade `json:"masquerade"`
}

type sendMessageRequest struct {
	Content    string             `json:"content,omitempty"`
	Replies    []apiReply         `json:"replies,omitempty"`
	Masquerade *apiMasquerade     `json:"masquerade,omitempty"`
	Embeds     []apiSendableEmbed `json:"embeds,omitempty"`
}

type editMessageRequest struct {
	Content string `json:"content"`
}

// gatewayEvent is the envelope of every Bonfire websocket frame. Only the
// type field is decoded up front; the payload is re-decoded per type.
type gatewayEvent struct {
	Type string `json:"type"`
}

type authenticatePacket struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type pingPacket struct {
	Type string `json:"type"`
	Data int64  `json:"data"`
}

type readyEvent struct {
	Users    []apiUser    `json:"users"`
	Servers  []apiServer  `json:"servers"`
	Channels []apiChannel `json:"channels"`
}

type messageUpdateEvent struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Data    struct {
		Content string `json:"content"`
	} `json:"data"`
}

type messageDeleteEvent struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
}
