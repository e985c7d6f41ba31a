// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bandsite/internal/models"
	"bandsite/internal/scheduler"
	"bandsite/internal/sitedata"
	"bandsite/internal/social"
	"bandsite/internal/storage"
	"bandsite/internal/store"
)

// XPostLog is the announcement-log surface. *store.XPostStore satisfies it.
type XPostLog interface {
	Record(*models.XPost) (*models.XPost, error)
	List(liveID string, limit int) ([]models.XPost, error)
	FindByID(id uuid.UUID) (*models.XPost, error)
}

// Announcer posts show announcements. *social.Publisher satisfies it;
// nil means X credentials are not configured.
type Announcer interface {
	Verify(ctx context.Context) (*social.Account, error)
	PublishText(ctx context.Context, text string, opts social.Options) (*social.Result, error)
}

// Schedules validates and manages delayed posts. *scheduler.Scheduler
// satisfies it.
type Schedules interface {
	Schedule(liveID, text, flyerURL string, at time.Time) (*models.XPost, error)
	Cancel(id uuid.UUID) (*models.XPost, error)
}

// Admin groups the token-guarded admin API handlers.
type Admin struct {
	documents    DocumentStore
	reservations ReservationStore
	xposts       XPostLog
	announcer    Announcer
	schedules    Schedules
	cache        PayloadCache
	storage      *storage.Client
	publicOrigin string
}

// NewAdmin creates the admin handler group. announcer, schedules, cache and
// storage may be nil when the corresponding backend is not configured.
func NewAdmin(documents DocumentStore, reservations ReservationStore, xposts XPostLog,
	announcer Announcer, schedules Schedules, cache PayloadCache,
	storageClient *storage.Client, publicOrigin string) *Admin {
	return &Admin{
		documents:    documents,
		reservations: reservations,
		xposts:       xposts,
		announcer:    announcer,
		schedules:    schedules,
		cache:        cache,
		storage:      storageClient,
		publicOrigin: publicOrigin,
	}
}

// GetSiteData serves the current document to the admin panel, bypassing the
// public cache so the editor always sees the saved state.
func (a *Admin) GetSiteData(w http.ResponseWriter, r *http.Request) {
	doc, updatedAt, err := a.documents.Get()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSitePayload(doc, updatedAt))
}

// PutSiteData replaces the whole site document. The body is either the
// document itself or wrapped as {"data": {...}}.
func (a *Admin) PutSiteData(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	doc := body
	if wrapped, ok := body["data"].(map[string]any); ok {
		doc = wrapped
	}

	updatedAt, err := a.documents.Save(sitedata.Normalize(doc))
	if err != nil {
		respondError(w, err)
		return
	}
	if a.cache != nil {
		a.cache.Invalidate(r.Context())
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"updatedAt": updatedAt.UTC().Format(time.RFC3339),
	})
}

// reservationQuery parses the shared ?liveId&status&limit listing filters.
func (a *Admin) reservationQuery(r *http.Request) ([]models.Reservation, error) {
	q := r.URL.Query()
	status := models.ReservationStatus(q.Get("status"))
	if status != "" && !models.ValidReservationStatus(status) {
		return nil, errValidation("unknown status %q", status)
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return a.reservations.List(q.Get("liveId"), status, limit)
}

// ListReservations returns reservations, filterable by ?liveId, ?status and
// ?limit.
func (a *Admin) ListReservations(w http.ResponseWriter, r *http.Request) {
	items, err := a.reservationQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if items == nil {
		items = []models.Reservation{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"reservations": items})
}

// ExportReservationsCSV renders the same listing as a CSV download.
func (a *Admin) ExportReservationsCSV(w http.ResponseWriter, r *http.Request) {
	items, err := a.reservationQuery(r)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.csv"`)
	if err := store.WriteReservationsCSV(w, items); err != nil {
		respondError(w, err)
	}
}

// UpdateReservationStatus moves a reservation between lifecycle states.
func (a *Admin) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errValidation("invalid reservation id"))
		return
	}

	var req struct {
		Status models.ReservationStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if !models.ValidReservationStatus(req.Status) {
		respondError(w, errValidation("unknown status %q", req.Status))
		return
	}

	updated, err := a.reservations.UpdateStatus(id, req.Status)
	if err != nil {
		respondError(w, err)
		return
	}
	if updated == nil {
		respondError(w, errNotFound("reservation %s not found", id))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "reservation": updated})
}

// ListXPosts returns the announcement log, newest first, filterable by
// ?liveId and ?limit.
func (a *Admin) ListXPosts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	items, err := a.xposts.List(r.URL.Query().Get("liveId"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if items == nil {
		items = []models.XPost{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": items})
}

// liveForAnnouncement looks up an upcoming show by id.
func (a *Admin) liveForAnnouncement(liveID string) (*sitedata.LiveEvent, error) {
	if liveID == "" {
		return nil, errValidation("liveId is required")
	}
	doc, _, err := a.documents.Get()
	if err != nil {
		return nil, err
	}
	show, upcoming := sitedata.FindLive(doc, liveID)
	if show == nil {
		return nil, errNotFound("live %q not found", liveID)
	}
	if !upcoming {
		return nil, errValidation("live %q is already over", liveID)
	}
	return show, nil
}

// flyerURL resolves a show's flyer reference to an absolute URL the
// platform can fetch, or "" for text-only.
func (a *Admin) flyerURL(show *sitedata.LiveEvent) string {
	return sitedata.ResolvePublicImageURL(show.Image, a.publicOrigin, a.publicOrigin)
}

// announcementText picks the caller override or the composed default and
// validates it once, server-side, regardless of where the text came from.
func announcementText(show *sitedata.LiveEvent, override string) (string, error) {
	text := strings.TrimSpace(override)
	if text == "" {
		text = social.ComposeAnnouncement(show)
	}
	if text == "" {
		return "", errValidation("announcement text is empty")
	}
	if n := len([]rune(text)); n > social.MaxTweetLen {
		return "", errValidation("announcement text is %d characters, limit is %d", n, social.MaxTweetLen)
	}
	return text, nil
}

// tweetTextBody is the optional request body of the posting endpoints.
type tweetTextBody struct {
	TweetText string `json:"tweetText"`
}

// PostX posts an announcement for a show immediately. With ?dryRun=1 the
// credentials are verified and the text composed but nothing reaches the
// platform and no log row is written.
func (a *Admin) PostX(w http.ResponseWriter, r *http.Request) {
	if a.announcer == nil {
		respondError(w, errUnavailable("x posting is not configured"))
		return
	}

	liveID := chi.URLParam(r, "id")
	var req tweetTextBody
	if err := decodeJSONOptional(r, &req); err != nil {
		respondError(w, err)
		return
	}

	show, err := a.liveForAnnouncement(liveID)
	if err != nil {
		respondError(w, err)
		return
	}
	text, err := announcementText(show, req.TweetText)
	if err != nil {
		respondError(w, err)
		return
	}

	dryRun := queryFlag(r, "dryRun")
	opts := social.Options{DryRun: dryRun, FlyerURL: a.flyerURL(show)}
	res, err := a.announcer.PublishText(r.Context(), text, opts)
	if err != nil {
		if dryRun {
			respondError(w, errUpstream("verify failed: %v", err))
			return
		}
		// The platform said no. Log the attempt so the admin panel shows it.
		if _, recErr := a.xposts.Record(&models.XPost{
			LiveID:   liveID,
			Text:     text,
			FlyerURL: opts.FlyerURL,
			Status:   models.XPostFailed,
			Error:    err.Error(),
		}); recErr != nil {
			respondError(w, recErr)
			return
		}
		respondError(w, errUpstream("post failed: %v", err))
		return
	}

	if dryRun {
		respondJSON(w, http.StatusOK, res)
		return
	}

	logged, err := a.xposts.Record(&models.XPost{
		LiveID:        liveID,
		Text:          res.Text,
		FlyerURL:      opts.FlyerURL,
		Status:        models.XPostSuccess,
		TweetID:       res.Tweet.ID,
		TweetURL:      res.Tweet.URL,
		MediaAttached: res.MediaAttached,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"ok": true, "result": res, "post": logged})
}

// PreviewX composes the announcement text for a show without credentials,
// posting, or logging. The admin panel renders it next to the live form.
func (a *Admin) PreviewX(w http.ResponseWriter, r *http.Request) {
	var req tweetTextBody
	if err := decodeJSONOptional(r, &req); err != nil {
		respondError(w, err)
		return
	}
	show, err := a.liveForAnnouncement(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	text, err := announcementText(show, req.TweetText)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"text":     text,
		"length":   len([]rune(text)),
		"flyerUrl": a.flyerURL(show),
	})
}

// ScheduleX enqueues an announcement for later. Text and flyer URL are
// resolved now and frozen.
func (a *Admin) ScheduleX(w http.ResponseWriter, r *http.Request) {
	if a.schedules == nil {
		respondError(w, errUnavailable("x posting is not configured"))
		return
	}

	var req struct {
		ScheduledAt string `json:"scheduledAt"`
		TweetText   string `json:"tweetText"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		respondError(w, errValidation("scheduledAt must be RFC 3339: %v", err))
		return
	}

	liveID := chi.URLParam(r, "id")
	show, err := a.liveForAnnouncement(liveID)
	if err != nil {
		respondError(w, err)
		return
	}
	text, err := announcementText(show, req.TweetText)
	if err != nil {
		respondError(w, err)
		return
	}

	post, err := a.schedules.Schedule(liveID, text, a.flyerURL(show), at)
	if err != nil {
		if errors.Is(err, scheduler.ErrTooSoon) {
			respondError(w, errValidation("%v", err))
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"ok": true, "post": post})
}

// CancelXPost withdraws a scheduled announcement.
func (a *Admin) CancelXPost(w http.ResponseWriter, r *http.Request) {
	if a.schedules == nil {
		respondError(w, errUnavailable("x posting is not configured"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, errValidation("invalid post id"))
		return
	}

	cancelled, err := a.schedules.Cancel(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if cancelled == nil {
		existing, err := a.xposts.FindByID(id)
		if err != nil {
			respondError(w, err)
			return
		}
		if existing == nil {
			respondError(w, errNotFound("post %s not found", id))
			return
		}
		respondError(w, errConflict("post %s is %s, not scheduled", id, existing.Status))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "post": cancelled})
}

// VerifyX checks the configured X credentials against the platform.
func (a *Admin) VerifyX(w http.ResponseWriter, r *http.Request) {
	if a.announcer == nil {
		respondError(w, errUnavailable("x posting is not configured"))
		return
	}

	account, err := a.announcer.Verify(r.Context())
	if err != nil {
		respondError(w, errUpstream("verify failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "account": account})
}

