// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package adminsync

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bandsite/internal/sitedata"
)

// Kind identifies the editable item families of the site document.
type Kind string

const (
	KindNews  Kind = "news"
	KindLive  Kind = "live"
	KindDisc  Kind = "disc"
	KindVideo Kind = "video"
)

// kindSpec describes one item family: where its category lists live in
// the document, which categories exist (the first is the default), the
// fields copied onto the item, and which of them are required.
type kindSpec struct {
	idPrefix   string
	section    string   // top-level document key; "" means the list is the section itself
	categories []string // list keys; for news the single list is doc["news"]
	fields     []string
	required   []string
}

var kindSpecs = map[Kind]kindSpec{
	KindNews: {
		idPrefix: "news-",
		fields:   []string{"date", "title", "description", "image", "link", "linkText"},
		required: []string{"date", "title"},
	},
	KindLive: {
		idPrefix:   "live-",
		section:    "live",
		categories: []string{"upcoming", "past"},
		fields:     []string{"date", "venue", "description", "image", "link"},
		required:   []string{"date", "venue"},
	},
	KindDisc: {
		idPrefix:   "disc-",
		section:    "discography",
		categories: []string{"digital", "demo"},
		fields:     []string{"title", "releaseDate", "description", "image", "link"},
		required:   []string{"title"},
	},
	KindVideo: {
		idPrefix:   "video-",
		section:    "youtube",
		categories: []string{"musicVideos", "liveMovies", "demos"},
		fields:     []string{"title", "videoId"},
		required:   []string{"videoId"},
	},
}

// NewItemID generates an immutable item id: the kind prefix plus the
// creation timestamp in milliseconds.
func NewItemID(kind Kind, now time.Time) string {
	return kindSpecs[kind].idPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// buildItem validates fields for a kind and returns the item map and the
// target category. Unknown fields are dropped; a missing or invalid
// category falls back to the kind's default.
func buildItem(kind Kind, id string, fields map[string]any) (map[string]any, string, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return nil, "", fmt.Errorf("unknown item kind %q", kind)
	}

	item := map[string]any{"id": id}
	for _, key := range spec.fields {
		value := strings.TrimSpace(fieldString(fields, key))
		if key == "videoId" {
			value = ExtractYouTubeID(value)
			if value == "" {
				return nil, "", fmt.Errorf("videoId does not resolve to a valid video id")
			}
		}
		item[key] = value
	}
	for _, key := range spec.required {
		if item[key] == "" {
			return nil, "", fmt.Errorf("%s is required", key)
		}
	}

	category := fieldString(fields, "category")
	if len(spec.categories) > 0 {
		if !contains(spec.categories, category) {
			category = spec.categories[0]
		}
	} else {
		category = ""
	}
	return item, category, nil
}

// removeItem deletes the item with the given id from every category list
// of its kind. Reports whether anything was removed.
func removeItem(doc sitedata.Document, kind Kind, id string) bool {
	spec := kindSpecs[kind]
	removed := false
	for _, category := range categoriesOf(spec) {
		list, ok := getList(doc, spec, category)
		if !ok {
			continue
		}
		kept := make([]any, 0, len(list))
		for _, raw := range list {
			if item, isMap := raw.(map[string]any); isMap {
				if s, _ := item["id"].(string); s == id {
					removed = true
					continue
				}
			}
			kept = append(kept, raw)
		}
		setList(doc, spec, category, kept)
	}
	return removed
}

// insertItem prepends the item to the category list, newest first.
func insertItem(doc sitedata.Document, kind Kind, category string, item map[string]any) {
	spec := kindSpecs[kind]
	list, ok := getList(doc, spec, category)
	if !ok {
		return
	}
	setList(doc, spec, category, append([]any{item}, list...))
}

func categoriesOf(spec kindSpec) []string {
	if len(spec.categories) == 0 {
		return []string{""}
	}
	return spec.categories
}

// getList and setList locate a kind's category list inside the
// (normalized) document. For news the list is the section itself.
func getList(doc sitedata.Document, spec kindSpec, category string) ([]any, bool) {
	if spec.section == "" {
		list, ok := doc["news"].([]any)
		return list, ok
	}
	section, ok := doc[spec.section].(map[string]any)
	if !ok {
		return nil, false
	}
	list, ok := section[category].([]any)
	return list, ok
}

func setList(doc sitedata.Document, spec kindSpec, category string, list []any) {
	if spec.section == "" {
		doc["news"] = list
		return
	}
	if section, ok := doc[spec.section].(map[string]any); ok {
		section[category] = list
	}
}

func fieldString(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// youTubeID matches the canonical 11-character video id.
var youTubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractYouTubeID resolves a raw id or any common YouTube URL form
// (watch?v=, youtu.be/, /embed/, /shorts/, /live/) to the 11-character
// video id, or "" when nothing valid can be extracted.
func ExtractYouTubeID(raw string) string {
	raw = strings.TrimSpace(raw)
	if youTubeID.MatchString(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	var candidate string
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch {
	case host == "youtu.be":
		candidate = strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			candidate = v
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "embed" || parts[0] == "shorts" || parts[0] == "live") {
			candidate = parts[1]
		}
	}

	if youTubeID.MatchString(candidate) {
		return candidate
	}
	return ""
}

// stagedFilename builds the local-mode filename: the sanitized base name
// plus the staging date, keeping the original extension.
func stagedFilename(original string, now time.Time) string {
	base := original
	ext := ""
	if i := strings.LastIndex(original, "."); i > 0 {
		base = original[:i]
		ext = strings.ToLower(original[i:])
	}
	base = sanitizeName.ReplaceAllString(base, "_")
	if base == "" {
		base = "image"
	}
	return base + "_" + now.Format("20060102") + ext
}

var sanitizeName = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
