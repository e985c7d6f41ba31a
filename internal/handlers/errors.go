// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the bandsite API.
// Handlers are grouped by concern (public, admin) and receive their
// dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// APIError is an error with an HTTP status. Handlers return these from
// their internals; respondError maps anything else to a 500 without leaking
// the underlying message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func errValidation(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func errConflict(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// errUpstream marks failures of the X platform or other remote services.
func errUpstream(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusBadGateway, Message: fmt.Sprintf(format, args...)}
}

func errUnavailable(format string, args ...any) *APIError {
	return &APIError{Status: http.StatusServiceUnavailable, Message: fmt.Sprintf(format, args...)}
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// respondError writes err as a JSON error response. Unknown error types
// become opaque 500s; the detail goes to the log, not the client.
func respondError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		respondJSON(w, apiErr.Status, map[string]string{"error": apiErr.Message})
		return
	}
	slog.Error("internal error", "error", err)
	respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// maxJSONBody caps request bodies on the JSON endpoints. The site document
// with every flyer reference inlined stays well under this.
const maxJSONBody = 2 << 20

// decodeJSON decodes the request body into dst with a size cap.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return errValidation("unreadable request body")
	}
	if len(body) > maxJSONBody {
		return errValidation("request body too large")
	}
	if len(body) == 0 {
		return errValidation("empty request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errValidation("invalid JSON: %v", err)
	}
	return nil
}

// decodeJSONOptional is decodeJSON for endpoints whose body is optional:
// an empty body leaves dst at its zero value.
func decodeJSONOptional(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return errValidation("unreadable request body")
	}
	if len(body) > maxJSONBody {
		return errValidation("request body too large")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errValidation("invalid JSON: %v", err)
	}
	return nil
}

// queryFlag reads a boolean query parameter ("1" or "true").
func queryFlag(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}
