// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"bandsite/internal/models"
	"bandsite/internal/notify"
	"bandsite/internal/sitedata"
)

// DocumentStore is the site-document persistence surface the handlers need.
// *store.DocumentStore satisfies it.
type DocumentStore interface {
	Get() (sitedata.Document, time.Time, error)
	Save(sitedata.Document) (time.Time, error)
}

// ReservationStore is the reservation persistence surface.
// *store.ReservationStore satisfies it.
type ReservationStore interface {
	Create(*models.Reservation) (*models.Reservation, bool, error)
	List(liveID string, status models.ReservationStatus, limit int) ([]models.Reservation, error)
	UpdateStatus(uuid.UUID, models.ReservationStatus) (*models.Reservation, error)
}

// PayloadCache caches the serialized public site-data response.
// *cache.DocumentCache satisfies it; nil disables caching.
type PayloadCache interface {
	Get(ctx context.Context) ([]byte, bool)
	Set(ctx context.Context, payload []byte)
	Invalidate(ctx context.Context)
}

// Public groups the unauthenticated API handlers.
type Public struct {
	documents    DocumentStore
	reservations ReservationStore
	cache        PayloadCache
	notifier     *notify.Notifier
	quantityCap  int
}

// NewPublic creates the public handler group. cache and notifier may be nil.
func NewPublic(documents DocumentStore, reservations ReservationStore, cache PayloadCache, notifier *notify.Notifier, quantityCap int) *Public {
	return &Public{
		documents:    documents,
		reservations: reservations,
		cache:        cache,
		notifier:     notifier,
		quantityCap:  quantityCap,
	}
}

// sitePayload is the response shape of the site-data endpoints.
type sitePayload struct {
	Data sitedata.Document `json:"data"`
	Meta sitePayloadMeta   `json:"meta"`
}

type sitePayloadMeta struct {
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func newSitePayload(doc sitedata.Document, updatedAt time.Time) sitePayload {
	p := sitePayload{Data: doc}
	if !updatedAt.IsZero() {
		p.Meta.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

// SiteData serves the normalized site document to the public site. The
// serialized payload is cached in Valkey; every page load of the public
// site hits this endpoint.
func (p *Public) SiteData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Freshness is handled server-side in Valkey; browsers must not hold
	// a stale document across an admin save.
	w.Header().Set("Cache-Control", "no-store")

	if p.cache != nil {
		if payload, ok := p.cache.Get(ctx); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(payload)
			return
		}
	}

	doc, updatedAt, err := p.documents.Get()
	if err != nil {
		respondError(w, err)
		return
	}

	payload, err := json.Marshal(newSitePayload(doc, updatedAt))
	if err != nil {
		respondError(w, err)
		return
	}
	if p.cache != nil {
		p.cache.Set(ctx, payload)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// reservationRequest is the public reservation body. Company is a
// honeypot field: the form hides it, so only bots fill it.
type reservationRequest struct {
	LiveID   string `json:"liveId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
	Company  string `json:"company"`
}

// CreateReservation accepts a ticket reservation from the public site.
func (p *Public) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	// Bots that fill the honeypot get a success response and no row.
	if strings.TrimSpace(req.Company) != "" {
		slog.Info("reservation honeypot tripped", "liveId", req.LiveID)
		respondJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.LiveID == "" {
		respondError(w, errValidation("liveId is required"))
		return
	}
	if req.Name == "" {
		respondError(w, errValidation("name is required"))
		return
	}
	if req.Email == "" {
		respondError(w, errValidation("email is required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(w, errValidation("email address is invalid"))
		return
	}

	// Quantity is clamped, not rejected; the form already constrains it and
	// an off-by-one from an old cached page should not lose the reservation.
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.Quantity > p.quantityCap {
		req.Quantity = p.quantityCap
	}

	doc, _, err := p.documents.Get()
	if err != nil {
		respondError(w, err)
		return
	}
	show, upcoming := sitedata.FindLive(doc, req.LiveID)
	if show == nil {
		respondError(w, errNotFound("live %q not found", req.LiveID))
		return
	}
	if !upcoming {
		respondError(w, errValidation("live %q is already over", req.LiveID))
		return
	}

	created, duplicate, err := p.reservations.Create(&models.Reservation{
		LiveID:    req.LiveID,
		LiveDate:  show.Date,
		LiveVenue: show.Venue,
		Name:      req.Name,
		Email:     req.Email,
		Quantity:  req.Quantity,
		Message:   strings.TrimSpace(req.Message),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if duplicate {
		// The original submit already holds the tickets; a double-tapped
		// button must not create a second row.
		respondError(w, errConflict("reservation already received, check your email"))
		return
	}

	p.notifier.ReservationCreated(r.Context(), created)
	respondJSON(w, http.StatusCreated, map[string]any{
		"ok":          true,
		"reservation": created,
	})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
