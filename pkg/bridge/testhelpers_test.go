// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiku/discord-revolt/pkg/store"
)

// fakeStore is an in-memory store.Store for executor tests.
type fakeStore struct {
	mappings  []*store.Mapping
	nextID    int64
	readOnly  bool
	insertErr error
}

var _ store.Store = (*fakeStore)(nil)

func (s *fakeStore) Load(context.Context) ([]*store.Mapping, error) {
	out := make([]*store.Mapping, len(s.mappings))
	copy(out, s.mappings)
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, m *store.Mapping) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	m.ID = s.nextID
	// Keep our own copy so store-side updates never write through the
	// caller's struct.
	clone := *m
	s.mappings = append(s.mappings, &clone)
	return nil
}

func (s *fakeStore) DeleteByDiscordChannel(_ context.Context, channelID string) error {
	s.mappings = deleteWhere(s.mappings, func(m *store.Mapping) bool {
		return m.DiscordChannelID == channelID
	})
	return nil
}

func (s *fakeStore) DeleteByRevoltChannel(_ context.Context, channelID string) error {
	s.mappings = deleteWhere(s.mappings, func(m *store.Mapping) bool {
		return m.RevoltChannelID == channelID
	})
	return nil
}

func (s *fakeStore) SetAllowBots(_ context.Context, id int64, allow bool) error {
	for _, m := range s.mappings {
		if m.ID == id {
			m.AllowBots = allow
		}
	}
	return nil
}

func (s *fakeStore) ReadOnly() bool { return s.readOnly }
func (s *fakeStore) Close() error   { return nil }

func deleteWhere(mappings []*store.Mapping, match func(*store.Mapping) bool) []*store.Mapping {
	out := mappings[:0]
	for _, m := range mappings {
		if !match(m) {
			out = append(out, m)
		}
	}
	return out
}

type sentMessage struct {
	ChannelID string
	Out       *Outbound
}

type editedMessage struct {
	ChannelID string
	MessageID string
	Content   string
}

type deletedMessage struct {
	ChannelID string
	MessageID string
}

// fakeClient records every PlatformClient call and serves canned channels
// and messages.
type fakeClient struct {
	platform Platform

	channels []*Channel
	// messages is keyed channelID+"/"+messageID, served by FetchMessage.
	messages map[string]*Message

	ensureErr error
	sendErr   error

	nextMirror int
	sent       []sentMessage
	edited     []editedMessage
	deleted    []deletedMessage
	ensured    []string
	tornDown   []string
}

var _ PlatformClient = (*fakeClient)(nil)

func newFakeClient(platform Platform, channels ...*Channel) *fakeClient {
	return &fakeClient{
		platform: platform,
		channels: channels,
		messages: make(map[string]*Message),
	}
}

func (c *fakeClient) addMessage(msg *Message) {
	c.messages[msg.ChannelID+"/"+msg.ID] = msg
}

func (c *fakeClient) Platform() Platform { return c.platform }

func (c *fakeClient) FetchChannel(_ context.Context, id string) (*Channel, error) {
	for _, ch := range c.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, errors.New("unknown channel")
}

func (c *fakeClient) Channels() []*Channel { return c.channels }

func (c *fakeClient) FetchMessage(_ context.Context, channelID, messageID string) (*Message, error) {
	msg, ok := c.messages[channelID+"/"+messageID]
	if !ok {
		return nil, errors.New("unknown message")
	}
	return msg, nil
}

func (c *fakeClient) EnsureChannelReady(_ context.Context, m *store.Mapping) error {
	if c.ensureErr != nil {
		return c.ensureErr
	}
	c.ensured = append(c.ensured, m.DiscordChannelID)
	return nil
}

func (c *fakeClient) TeardownChannel(_ context.Context, m *store.Mapping) error {
	c.tornDown = append(c.tornDown, m.DiscordChannelID)
	return nil
}

func (c *fakeClient) SendMessage(_ context.Context, channelID string, out *Outbound) (string, error) {
	if c.sendErr != nil {
		return "", c.sendErr
	}
	c.sent = append(c.sent, sentMessage{ChannelID: channelID, Out: out})
	c.nextMirror++
	return fmt.Sprintf("%s-mirror-%d", c.platform, c.nextMirror), nil
}

func (c *fakeClient) EditMessage(_ context.Context, channelID, messageID, content string) error {
	c.edited = append(c.edited, editedMessage{ChannelID: channelID, MessageID: messageID, Content: content})
	return nil
}

func (c *fakeClient) DeleteMessage(_ context.Context, channelID, messageID string) error {
	c.deleted = append(c.deleted, deletedMessage{ChannelID: channelID, MessageID: messageID})
	return nil
}

// newTestExecutor builds an executor with one text channel per platform
// (Discord "D1"/"general", Revolt "R1"/"lobby") and empty mappings.
func newTestExecutor(t *testing.T) (*Executor, *fakeStore, *fakeClient, *fakeClient) {
	t.Helper()
	st := &fakeStore{}
	discord := newFakeClient(PlatformDiscord,
		&Channel{ID: "D1", Name: "general", Kind: ChannelText},
		&Channel{ID: "DV", Name: "voice-chat", Kind: ChannelVoice},
	)
	revolt := newFakeClient(PlatformRevolt,
		&Channel{ID: "R1", Name: "lobby", Kind: ChannelText},
	)
	exec := NewExecutor(zerolog.Nop(), st, discord, revolt)
	return exec, st, discord, revolt
}

// connectDefault creates the D1-R1 mapping and fails the test on error.
func connectDefault(t *testing.T, exec *Executor) {
	t.Helper()
	if err := exec.Connect(context.Background(), "D1", "R1"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
}
