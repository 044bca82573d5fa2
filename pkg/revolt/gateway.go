// Copyright 2024-2026 Aiku AI

package revolt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aiku/discord-revolt/pkg/bridge"
)

const (
	pingInterval   = 20 * time.Second
	maxBackoff     = 30 * time.Second
	initialBackoff = time.Second
)

func (c *Client) dial() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.wsURL, nil)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(authenticatePacket{Type: "Authenticate", Token: c.token}); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// run owns the gateway connection for the client's lifetime, reconnecting
// with capped exponential backoff. The first connection is handed in by
// Start so startup failures surface synchronously.
func (c *Client) run(conn *websocket.Conn) {
	backoff := initialBackoff
	for {
		if conn != nil {
			err := c.readLoop(conn)
			conn.Close()
			if c.ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("Revolt gateway disconnected, reconnecting")
		}

		select {
		case <-time.After(backoff):
		case <-c.ctx.Done():
			return
		}
		if backoff < maxBackoff {
			backoff *= 2
		}

		var err error
		conn, err = c.dial()
		if err != nil {
			c.log.Error().Err(err).Dur("retry_in", backoff).Msg("Failed to reconnect to Revolt gateway")
			conn = nil
			continue
		}
		backoff = initialBackoff
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go c.pingLoop(conn, stop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleFrame(data)
	}
}

// pingLoop keeps the connection alive. Bonfire drops clients that don't ping
// regularly. A failed write just exits; the read loop will notice the dead
// connection on its own.
func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteJSON(pingPacket{Type: "Ping", Data: time.Now().Unix()}); err != nil {
				return
			}
		case <-stop:
			return
		case <-c.ctx.Done():
			conn.Close()
			return
		}
	}
}

func (c *Client) handleFrame(data []byte) {
	var envelope gatewayEvent
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.log.Debug().Err(err).Msg("Failed to decode gateway frame")
		return
	}

	switch envelope.Type {
	case "Authenticated":
		c.log.Debug().Msg("Gateway authenticated")
	case "Ready":
		var ev readyEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn().Err(err).Msg("Failed to decode Ready event")
			return
		}
		c.applyReady(&ev)
	case "Message":
		var msg apiMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Msg("Failed to decode Message event")
			return
		}
		c.handleMessage(&msg)
	case "MessageUpdate":
		var ev messageUpdateEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn().Err(err).Msg("Failed to decode MessageUpdate event")
			return
		}
		c.handleMessageUpdate(&ev)
	case "MessageDelete":
		var ev messageDeleteEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn().Err(err).Msg("Failed to decode MessageDelete event")
			return
		}
		c.exec.RelayDelete(c.ctx, bridge.RevoltToDiscord, ev.ID)
	case "Pong", "NotFound", "ChannelStartTyping", "ChannelStopTyping":
		// Not interesting.
	}
}

func (c *Client) applyReady(ev *readyEvent) {
	c.mu.Lock()
	for i := range ev.Users {
		c.users[ev.Users[i].ID] = &ev.Users[i]
	}
	for i := range ev.Channels {
		c.channels[ev.Channels[i].ID] = &ev.Channels[i]
	}
	for i := range ev.Servers {
		c.servers[ev.Servers[i].ID] = &ev.Servers[i]
	}
	c.mu.Unlock()
	c.log.Info().
		Int("servers", len(ev.Servers)).
		Int("channels", len(ev.Channels)).
		Msg("Connected to Revolt")
}

func (c *Client) handleMessage(msg *apiMessage) {
	// Echo prevention: masquerade mirrors are authored by the bot itself.
	if msg.Author == c.selfID {
		return
	}
	if strings.HasPrefix(msg.Content, c.commandPrefix) {
		c.handleCommand(msg)
		return
	}
	c.exec.RelayInbound(c.ctx, bridge.RevoltToDiscord, c.toBridgeMessage(c.ctx, msg))
}

func (c *Client) handleMessageUpdate(ev *messageUpdateEvent) {
	if ev.Data.Content == "" {
		return
	}
	// Update events carry no author; edits of our own masquerade messages
	// fall out naturally because they have no origin-side cache record.
	c.exec.RelayUpdate(c.ctx, bridge.RevoltToDiscord, &bridge.Message{
		ID:        ev.ID,
		ChannelID: ev.Channel,
		Content:   ev.Data.Content,
		Mentions:  c.buildMentionTable(c.ctx, ev.Data.Content),
	})
}
