// handler_test.go provides shared in-memory fakes for the handler tests.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bandsite/internal/models"
	"bandsite/internal/scheduler"
	"bandsite/internal/sitedata"
	"bandsite/internal/social"
)

func testDocument() sitedata.Document {
	return sitedata.Normalize(map[string]any{
		"live": map[string]any{
			"ticketLink": "https://tickets.example.com",
			"upcoming": []any{
				map[string]any{
					"id":          "live-1",
					"date":        "2025.03.01",
					"venue":       "Shimokitazawa XXX",
					"description": "open 18:00<br>start 19:00",
					"image":       "assets/images/flyer1.jpg",
				},
			},
			"past": []any{
				map[string]any{"id": "live-0", "date": "2024.12.24", "venue": "新代田FEVER"},
			},
		},
	})
}

type fakeDocs struct {
	doc       sitedata.Document
	updatedAt time.Time
	getErr    error
	saved     sitedata.Document
	saves     int
}

func (f *fakeDocs) Get() (sitedata.Document, time.Time, error) {
	if f.getErr != nil {
		return nil, time.Time{}, f.getErr
	}
	return f.doc, f.updatedAt, nil
}

func (f *fakeDocs) Save(doc sitedata.Document) (time.Time, error) {
	f.saved = doc
	f.doc = doc
	f.saves++
	f.updatedAt = f.updatedAt.Add(time.Second)
	return f.updatedAt, nil
}

type fakeReservations struct {
	items     map[uuid.UUID]*models.Reservation
	duplicate bool
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{items: make(map[uuid.UUID]*models.Reservation)}
}

func (f *fakeReservations) Create(r *models.Reservation) (*models.Reservation, bool, error) {
	if f.duplicate {
		for _, existing := range f.items {
			return existing, true, nil
		}
	}
	created := *r
	created.ID = uuid.New()
	created.Status = models.ReservationPending
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	f.items[created.ID] = &created
	return &created, false, nil
}

func (f *fakeReservations) List(liveID string, status models.ReservationStatus, limit int) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range f.items {
		if liveID != "" && r.LiveID != liveID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReservations) UpdateStatus(id uuid.UUID, status models.ReservationStatus) (*models.Reservation, error) {
	r, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	return r, nil
}

type fakeXPosts struct {
	items []*models.XPost
}

func (f *fakeXPosts) Record(p *models.XPost) (*models.XPost, error) {
	rec := *p
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	f.items = append(f.items, &rec)
	return &rec, nil
}

func (f *fakeXPosts) List(liveID string, limit int) ([]models.XPost, error) {
	var out []models.XPost
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		if liveID != "" && f.items[i].LiveID != liveID {
			continue
		}
		out = append(out, *f.items[i])
	}
	return out, nil
}

func (f *fakeXPosts) FindByID(id uuid.UUID) (*models.XPost, error) {
	for _, p := range f.items {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

type fakeAnnouncer struct {
	account    *social.Account
	verifyErr  error
	publishErr error
	lastText   string
	lastOpts   social.Options
	published  int
}

func (f *fakeAnnouncer) Verify(ctx context.Context) (*social.Account, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.account == nil {
		f.account = &social.Account{ID: "12345", ScreenName: "band"}
	}
	return f.account, nil
}

func (f *fakeAnnouncer) PublishText(ctx context.Context, text string, opts social.Options) (*social.Result, error) {
	f.lastText = text
	f.lastOpts = opts
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	res := &social.Result{
		Text:          text,
		MediaAttached: opts.FlyerURL != "",
		DryRun:        opts.DryRun,
	}
	if opts.DryRun {
		account, err := f.Verify(ctx)
		if err != nil {
			return nil, err
		}
		res.Account = account
		return res, nil
	}
	f.published++
	res.Tweet = &social.Tweet{ID: "777", URL: "https://x.com/i/web/status/777"}
	return res, nil
}

type fakeSchedules struct {
	now       time.Time
	minLead   time.Duration
	scheduled []*models.XPost
}

func (f *fakeSchedules) Schedule(liveID, text, flyerURL string, at time.Time) (*models.XPost, error) {
	if at.Before(f.now.Add(f.minLead)) {
		return nil, fmt.Errorf("%w: need at least %s of lead time", scheduler.ErrTooSoon, f.minLead)
	}
	p := &models.XPost{
		ID: uuid.New(), LiveID: liveID, Text: text, FlyerURL: flyerURL,
		Status: models.XPostScheduled, ScheduledAt: &at,
	}
	f.scheduled = append(f.scheduled, p)
	return p, nil
}

func (f *fakeSchedules) Cancel(id uuid.UUID) (*models.XPost, error) {
	for _, p := range f.scheduled {
		if p.ID == id && p.Status == models.XPostScheduled {
			p.Status = models.XPostCancelled
			return p, nil
		}
	}
	return nil, nil
}

type fakeCache struct {
	payload []byte
	gets    int
	hits    int
	sets    int
}

func (f *fakeCache) Get(ctx context.Context) ([]byte, bool) {
	f.gets++
	if f.payload == nil {
		return nil, false
	}
	f.hits++
	return f.payload, true
}

func (f *fakeCache) Set(ctx context.Context, payload []byte) {
	f.sets++
	f.payload = payload
}

func (f *fakeCache) Invalidate(ctx context.Context) {
	f.payload = nil
}

var errBoom = errors.New("boom")
