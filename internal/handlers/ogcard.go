// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bandsite/internal/sitedata"
	"bandsite/internal/social"
)

// ogCardTemplate renders the share-card page crawlers see when a show link
// is posted. Human visitors are redirected to the live page itself.
var ogCardTemplate = template.Must(template.New("ogcard").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta property="og:type" content="website">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
{{- if .Image}}
<meta property="og:image" content="{{.Image}}">
<meta name="twitter:card" content="summary_large_image">
{{- else}}
<meta name="twitter:card" content="summary">
{{- end}}
{{- if .PageURL}}
<meta property="og:url" content="{{.PageURL}}">
<meta http-equiv="refresh" content="0;url={{.PageURL}}">
{{- end}}
</head>
<body>
<p><a href="{{.PageURL}}">{{.Title}}</a></p>
</body>
</html>
`))

type ogCardData struct {
	Title       string
	Description string
	Image       string
	PageURL     string
}

// OGCards serves per-show share cards.
type OGCards struct {
	documents    DocumentStore
	publicOrigin string
}

// NewOGCards creates the share-card handler.
func NewOGCards(documents DocumentStore, publicOrigin string) *OGCards {
	return &OGCards{documents: documents, publicOrigin: publicOrigin}
}

// Live renders the share card for one show.
func (h *OGCards) Live(w http.ResponseWriter, r *http.Request) {
	liveID := chi.URLParam(r, "id")

	doc, _, err := h.documents.Get()
	if err != nil {
		respondError(w, err)
		return
	}
	show, _ := sitedata.FindLive(doc, liveID)
	if show == nil {
		respondError(w, errNotFound("live %q not found", liveID))
		return
	}

	var parts []string
	for _, s := range []string{show.Title, show.Date, show.Venue} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	title := strings.Join(parts, " ")
	if title == "" {
		title = "LIVE"
	}

	// A show without its own flyer falls back to the site hero image so the
	// shared link still renders a picture.
	imageRef := show.Image
	if strings.TrimSpace(imageRef) == "" {
		imageRef = sitedata.HeroImage(doc)
	}

	data := ogCardData{
		Title:       title,
		Description: social.DescriptionSummary(show.Description),
		Image:       sitedata.ResolvePublicImageURL(imageRef, h.publicOrigin, h.publicOrigin),
	}
	if h.publicOrigin != "" {
		data.PageURL = h.publicOrigin + "/live.html"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := ogCardTemplate.Execute(w, data); err != nil {
		respondError(w, err)
	}
}
