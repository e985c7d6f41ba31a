// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminAuth guards the admin API with a shared token. The token is accepted
// either as `Authorization: Bearer <token>` or in the X-Admin-Token header.
// An empty configured token locks the admin API entirely rather than leaving
// it open.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || !tokenMatches(r, token) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// tokenMatches compares the presented credential in constant time.
func tokenMatches(r *http.Request, token string) bool {
	presented := r.Header.Get("X-Admin-Token")
	if auth := r.Header.Get("Authorization"); presented == "" && strings.HasPrefix(auth, "Bearer ") {
		presented = strings.TrimPrefix(auth, "Bearer ")
	}
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}
