// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sitedata defines the site content document: its schema, defaults,
// normalization, and asset reference resolution. The document is a single
// JSON object holding everything the public site renders (news, live shows,
// discography, profile, youtube, site chrome, ticket form, contact form).
package sitedata


// Document is the site content document. It stays a generic JSON object so
// that unknown fields written by newer admin builds survive a round-trip
// through an older server (forward compatibility).
type Document map[string]any

// LiveEvent is the typed view of one show entry inside live.upcoming or
// live.past. Title is optional; Description may contain literal newlines or
// <br> markers, both meaning paragraph breaks.
type LiveEvent struct {
	ID          string
	Date        string
	Title       string
	Venue       string
	Description string
	Image       string
	Link        string
}

// Defaults returns a fresh fully-populated document with every field at its
// schema default.
func Defaults() Document {
	return Normalize(nil)
}

// FindLive looks up a show by id across live.upcoming and live.past.
// The second return value reports whether the show was found in upcoming.
func FindLive(doc Document, id string) (*LiveEvent, bool) {
	live, _ := doc["live"].(map[string]any)
	if live == nil {
		return nil, false
	}
	for _, key := range []string{"upcoming", "past"} {
		items, _ := live[key].([]any)
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if str(item["id"]) != id {
				continue
			}
			return &LiveEvent{
				ID:          id,
				Date:        str(item["date"]),
				Title:       str(item["title"]),
				Venue:       str(item["venue"]),
				Description: str(item["description"]),
				Image:       str(item["image"]),
				Link:        str(item["link"]),
			}, key == "upcoming"
		}
	}
	return nil, false
}

// TicketLink returns the legacy default reservation URL from the document.
func TicketLink(doc Document) string {
	live, _ := doc["live"].(map[string]any)
	if live == nil {
		return ""
	}
	return str(live["ticketLink"])
}

// HeroImage returns the site hero image reference.
func HeroImage(doc Document) string {
	site, _ := doc["site"].(map[string]any)
	if site == nil {
		return ""
	}
	return str(site["heroImage"])
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// deepClone copies a JSON-shaped value (maps, slices, scalars) so that
// normalization never aliases the defaults or the caller's input.
func deepClone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepClone(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepClone(item)
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(deepClone(map[string]any(d)).(map[string]any))
}
