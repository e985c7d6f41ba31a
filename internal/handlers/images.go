package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bandsite/internal/storage"
)

// Images serves uploaded objects through the API origin so the public site
// and the X media fetcher can load flyers without direct bucket access.
type Images struct {
	storage *storage.Client
}

// NewImages creates the image serving handler. storageClient may be nil.
func NewImages(storageClient *storage.Client) *Images {
	return &Images{storage: storageClient}
}

// Serve streams an uploaded object. Only keys under uploads/ are reachable.
func (h *Images) Serve(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		respondError(w, errNotFound("not found"))
		return
	}

	key := chi.URLParam(r, "*")
	if !strings.HasPrefix(key, "uploads/") || strings.Contains(key, "..") {
		respondError(w, errNotFound("not found"))
		return
	}

	data, contentType, err := h.storage.Download(r.Context(), key)
	if err != nil {
		slog.Warn("image fetch failed", "key", key, "error", err)
		respondError(w, errNotFound("not found"))
		return
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	// Keys embed a UUID so the content behind one never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}
