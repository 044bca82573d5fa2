// Copyright 2024-2026 Aiku AI

package revoltfmt

import "testing"

func TestFormatPlainText(t *testing.T) {
	t.Parallel()
	result := Format("hello", nil, Mentions{})
	if result != "hello\n" {
		t.Errorf("plain text: got %q, want %q", result, "hello\n")
	}
}

func TestFormatUserMention(t *testing.T) {
	t.Parallel()
	mentions := Mentions{Users: map[string]string{
		"01FEG4BSFHZ2Q9SNJBBCDEFGHJ": "alice",
	}}
	result := Format("hi <@01FEG4BSFHZ2Q9SNJBBCDEFGHJ>", nil, mentions)
	if result != "hi @alice\n" {
		t.Errorf("user mention: got %q, want %q", result, "hi @alice\n")
	}
}

func TestFormatUnresolvedMentionStaysLiteral(t *testing.T) {
	t.Parallel()
	result := Format("hi <@01FEG4BSFHZ2Q9SNJBBCDEFGHJ>", nil, Mentions{})
	want := "hi <@01FEG4BSFHZ2Q9SNJBBCDEFGHJ>\n"
	if result != want {
		t.Errorf("unresolved mention: got %q, want %q", result, want)
	}
}

func TestFormatChannelMention(t *testing.T) {
	t.Parallel()
	mentions := Mentions{Channels: map[string]string{
		"01FEG4BSFHZ2Q9SNJBBCDEFGHJ": "general",
	}}
	result := Format("see <#01FEG4BSFHZ2Q9SNJBBCDEFGHJ>", nil, mentions)
	if result != "see #general\n" {
		t.Errorf("channel mention: got %q, want %q", result, "see #general\n")
	}
}

func TestFormatLowercaseIDNotMatched(t *testing.T) {
	t.Parallel()
	// ULIDs are upper case; a lowercase token isn't a mention.
	result := Format("<@abc>", nil, Mentions{Users: map[string]string{"abc": "x"}})
	if result != "<@abc>\n" {
		t.Errorf("lowercase token: got %q, want literal", result)
	}
}

func TestFormatOrdering(t *testing.T) {
	t.Parallel()
	result := Format("body", []string{"https://autumn.revolt.chat/attachments/x/f.png"}, Mentions{})
	want := "body\nhttps://autumn.revolt.chat/attachments/x/f.png\n"
	if result != want {
		t.Errorf("ordering: got %q, want %q", result, want)
	}
}
