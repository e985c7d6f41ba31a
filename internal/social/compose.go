// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package social implements the X (Twitter) announcement pipeline: tweet
// text composition, OAuth 1.0a request signing, media upload, and posting.
package social

import (
	"regexp"
	"strings"

	"bandsite/internal/sitedata"
)

// MaxTweetLen is the platform's character limit for a single post.
const MaxTweetLen = 280

// compactDescriptionLimit bounds the single-line description used by the
// third degradation pass.
const compactDescriptionLimit = 120

var brTag = regexp.MustCompile(`(?i)<br\s*/?>`)

// ComposeAnnouncement builds the announcement text for a show, guaranteed to
// fit MaxTweetLen. It degrades through four passes, stopping at the first
// whose output fits: full text with a blank line before the description,
// the same without the blank line, a compacted one-line description, and
// finally just the header block hard-truncated.
func ComposeAnnouncement(show *sitedata.LiveEvent) string {
	heading := strings.TrimSpace(show.Date + " " + show.Venue)
	descLines := descriptionLines(show.Description)

	head := []string{"【LIVE】"}
	if title := strings.TrimSpace(show.Title); title != "" {
		head = append(head, title)
	}
	if heading != "" {
		head = append(head, heading)
	}

	// Pass 1: blank line between heading and description.
	if len(descLines) > 0 {
		full := strings.Join(head, "\n") + "\n\n" + strings.Join(descLines, "\n")
		if runeLen(full) <= MaxTweetLen {
			return full
		}

		// Pass 2: drop the blank-line separator.
		tight := strings.Join(append(append([]string{}, head...), descLines...), "\n")
		if runeLen(tight) <= MaxTweetLen {
			return tight
		}

		// Pass 3: compact the description onto one truncated line.
		compact := truncateRunes(strings.Join(descLines, " / "), compactDescriptionLimit)
		short := strings.Join(append(append([]string{}, head...), compact), "\n")
		if runeLen(short) <= MaxTweetLen {
			return short
		}
	}

	// Pass 4: header block only, hard-truncated as a last resort.
	text := strings.Join(head, "\n")
	if runeLen(text) > MaxTweetLen {
		text = string([]rune(text)[:MaxTweetLen])
	}
	return text
}

// DescriptionSummary flattens a show description to a single truncated
// line, for places like share-card metadata.
func DescriptionSummary(raw string) string {
	return truncateRunes(strings.Join(descriptionLines(raw), " / "), compactDescriptionLimit)
}

// descriptionLines normalizes <br> markers to newlines and returns the
// trimmed non-empty lines.
func descriptionLines(raw string) []string {
	normalized := brTag.ReplaceAllString(raw, "\n")
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// truncateRunes caps s at max runes, replacing the tail with an ellipsis.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func runeLen(s string) int {
	return len([]rune(s))
}
