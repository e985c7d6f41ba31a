package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func serveOGCard(t *testing.T, docs *fakeDocs, origin, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/og/live/{id}", NewOGCards(docs, origin).Live)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOGCardLive(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}
	rec := serveOGCard(t, docs, "https://band.example.com", "/og/live/live-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("cache control = %q", cc)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`<meta property="og:title" content="2025.03.01 Shimokitazawa XXX">`,
		`<meta property="og:description" content="open 18:00 / start 19:00">`,
		`<meta property="og:image" content="https://band.example.com/assets/images/flyer1.jpg">`,
		`<meta name="twitter:card" content="summary_large_image">`,
		`url=https://band.example.com/live.html`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("card missing %q:\n%s", want, body)
		}
	}
}

func TestOGCardHeroFallback(t *testing.T) {
	// live-0 has no flyer of its own; the card falls back to the site hero.
	docs := &fakeDocs{doc: testDocument()}
	rec := serveOGCard(t, docs, "https://band.example.com", "/og/live/live-0")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<meta property="og:image" content="https://band.example.com/assets/images/hero.jpg">`) {
		t.Errorf("hero fallback missing:\n%s", body)
	}
}

func TestOGCardWithoutAnyImage(t *testing.T) {
	doc := testDocument()
	doc["site"].(map[string]any)["heroImage"] = ""
	docs := &fakeDocs{doc: doc}
	rec := serveOGCard(t, docs, "https://band.example.com", "/og/live/live-0")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "og:image") {
		t.Errorf("image tag rendered with no image available:\n%s", body)
	}
	if !strings.Contains(body, `<meta name="twitter:card" content="summary">`) {
		t.Errorf("expected plain summary card:\n%s", body)
	}
}

func TestOGCardUnknownLive(t *testing.T) {
	docs := &fakeDocs{doc: testDocument()}
	rec := serveOGCard(t, docs, "https://band.example.com", "/og/live/nope")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
