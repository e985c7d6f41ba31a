package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bandsite/internal/models"
)

func newTestPublic(docs *fakeDocs, res *fakeReservations, cache *fakeCache) *Public {
	var pc PayloadCache
	if cache != nil {
		pc = cache
	}
	return NewPublic(docs, res, pc, nil, 10)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestSiteData(t *testing.T) {
	docs := &fakeDocs{doc: testDocument(), updatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := newTestPublic(docs, newFakeReservations(), nil)

	rec := httptest.NewRecorder()
	p.SiteData(rec, httptest.NewRequest(http.MethodGet, "/api/public/site-data", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("cache control = %q", cc)
	}
	body := decodeBody(t, rec)
	meta, ok := body["meta"].(map[string]any)
	if !ok || meta["updatedAt"] != "2025-03-01T12:00:00Z" {
		t.Errorf("meta = %v", body["meta"])
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data object: %v", body)
	}
	live := data["live"].(map[string]any)
	if upcoming := live["upcoming"].([]any); len(upcoming) != 1 {
		t.Errorf("upcoming = %v", upcoming)
	}
	// The document is fully normalized on the way out.
	if _, ok := data["ticket"].(map[string]any); !ok {
		t.Error("ticket section missing from payload")
	}
}

func TestSiteDataUsesCache(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}
	cache := &fakeCache{}
	p := newTestPublic(docs, newFakeReservations(), cache)

	rec := httptest.NewRecorder()
	p.SiteData(rec, httptest.NewRequest(http.MethodGet, "/api/public/site-data", nil))
	if cache.sets != 1 {
		t.Fatalf("first request did not populate the cache: sets = %d", cache.sets)
	}
	first := rec.Body.String()

	docs.getErr = errBoom // second request must not touch the store
	rec = httptest.NewRecorder()
	p.SiteData(rec, httptest.NewRequest(http.MethodGet, "/api/public/site-data", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cached status = %d", rec.Code)
	}
	if rec.Body.String() != first {
		t.Error("cached payload differs from the original")
	}
	if cache.hits != 1 {
		t.Errorf("hits = %d, want 1", cache.hits)
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateReservation(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}
	reservations := newFakeReservations()
	p := newTestPublic(docs, reservations, nil)

	rec := postJSON(t, p.CreateReservation, "/api/public/ticket-reservations",
		`{"liveId":"live-1","name":"テスト太郎","email":"taro@example.com","quantity":2,"message":"よろしく"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["ok"] != true {
		t.Errorf("body = %v", body)
	}
	created := body["reservation"].(map[string]any)
	// Show metadata is denormalized onto the row.
	if created["liveDate"] != "2025.03.01" || created["liveVenue"] != "Shimokitazawa XXX" {
		t.Errorf("denormalized fields = %v/%v", created["liveDate"], created["liveVenue"])
	}
	if len(reservations.items) != 1 {
		t.Errorf("stored = %d rows", len(reservations.items))
	}
}

func TestCreateReservationValidation(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}
	p := newTestPublic(docs, newFakeReservations(), nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing liveId", `{"name":"A","email":"a@example.com"}`, http.StatusBadRequest},
		{"missing name", `{"liveId":"live-1","email":"a@example.com"}`, http.StatusBadRequest},
		{"missing email", `{"liveId":"live-1","name":"A"}`, http.StatusBadRequest},
		{"bad email", `{"liveId":"live-1","name":"A","email":"not-an-email"}`, http.StatusBadRequest},
		{"unknown live", `{"liveId":"live-404","name":"A","email":"a@example.com"}`, http.StatusNotFound},
		{"past live", `{"liveId":"live-0","name":"A","email":"a@example.com"}`, http.StatusBadRequest},
		{"not json", `hello`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, p.CreateReservation, "/api/public/ticket-reservations", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestCreateReservationHoneypot(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}
	reservations := newFakeReservations()
	p := newTestPublic(docs, reservations, nil)

	rec := postJSON(t, p.CreateReservation, "/api/public/ticket-reservations",
		`{"liveId":"live-1","name":"Bot","email":"bot@example.com","company":"Bot Inc"}`)

	// Bots get a success response and nothing is stored.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if len(reservations.items) != 0 {
		t.Errorf("honeypot submission was stored")
	}
}

func TestCreateReservationQuantityClamp(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}

	tests := []struct {
		quantity string
		want     float64
	}{
		{"0", 1},
		{"-3", 1},
		{"99", 10},
		{"5", 5},
	}
	for _, tt := range tests {
		reservations := newFakeReservations()
		p := newTestPublic(docs, reservations, nil)
		rec := postJSON(t, p.CreateReservation, "/api/public/ticket-reservations",
			`{"liveId":"live-1","name":"A","email":"a@example.com","quantity":`+tt.quantity+`}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("quantity %s: status = %d", tt.quantity, rec.Code)
		}
		body := decodeBody(t, rec)
		got := body["reservation"].(map[string]any)["quantity"].(float64)
		if got != tt.want {
			t.Errorf("quantity %s clamped to %v, want %v", tt.quantity, got, tt.want)
		}
	}
}

func TestCreateReservationDuplicate(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}
	reservations := newFakeReservations()
	p := newTestPublic(docs, reservations, nil)

	first := postJSON(t, p.CreateReservation, "/api/public/ticket-reservations",
		`{"liveId":"live-1","name":"A","email":"a@example.com"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d", first.Code)
	}

	reservations.duplicate = true
	second := postJSON(t, p.CreateReservation, "/api/public/ticket-reservations",
		`{"liveId":"live-1","name":"A","email":"a@example.com"}`)
	if second.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", second.Code)
	}
	if len(reservations.items) != 1 {
		t.Errorf("stored = %d rows, want 1", len(reservations.items))
	}
}

func TestReservationStatusRoundTrip(t *testing.T) {
	if !models.ValidReservationStatus(models.ReservationHandled) {
		t.Error("handled rejected")
	}
	if models.ValidReservationStatus("shipped") {
		t.Error("unknown status accepted")
	}
}
