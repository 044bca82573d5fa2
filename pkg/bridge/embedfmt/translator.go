// Copyright 2024-2026 Aiku AI

// Package embedfmt translates Discord rich embeds into Revolt text embeds.
//
// The two embed models don't line up: Revolt's sendable embed has a single
// title slot, no author row, no footer and no structured fields. Translation
// is field-by-field and lossy. The author takes the title slot, the Discord
// title becomes a heading inside the description, and footer and fields are
// folded into the description as labeled text.
package embedfmt

import (
	"errors"
	"strings"
)

// Embed is a platform-neutral view of a Discord rich embed. Every field is
// independently optional.
type Embed struct {
	Title       string
	URL         string
	Description string

	AuthorName    string
	AuthorIconURL string

	// Color is a hex string like "#5875e8".
	Color string

	FooterText string
	Fields     []Field
}

// Field is one structured name/value block of a Discord embed.
type Field struct {
	Name  string
	Value string
}

// TextEmbed is the Revolt-compatible sendable embed.
type TextEmbed struct {
	IconURL     string
	URL         string
	Title       string
	Description string
	Colour      string
}

// Translate converts a Discord embed to a Revolt text embed. It never fails
// on missing optional fields; the only error is a nil source. Callers treat a
// failure as non-fatal and relay the message without the embed.
func Translate(e *Embed) (*TextEmbed, error) {
	if e == nil {
		return nil, errors.New("no embed to translate")
	}

	var content strings.Builder

	// Revolt has no separate title slot left once the author claims it, so
	// the Discord title becomes a heading at the top of the body.
	if e.Title != "" {
		content.WriteString("### " + e.Title + "\n\n")
	}

	if e.Description != "" {
		content.WriteString(e.Description + "\n\n")
	}

	if e.FooterText != "" {
		content.WriteString("\n> " + e.FooterText + "\n")
	}

	for _, field := range e.Fields {
		content.WriteString(breakFences(field.Name) + "\n")
		content.WriteString(breakFences(field.Value) + "\n")
	}

	out := &TextEmbed{
		URL:         e.URL,
		Title:       e.AuthorName,
		IconURL:     e.AuthorIconURL,
		Colour:      e.Color,
		Description: content.String(),
	}

	return out, nil
}

// breakFences splits code-fence markers onto their own lines so a stray
// triple backtick inside a field value can't swallow the rest of the
// description when Revolt renders it.
func breakFences(s string) string {
	return strings.ReplaceAll(s, "```", "\n```\n")
}
