// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the database access layer. Each store wraps a
// *sql.DB and owns the SQL for one table.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bandsite/internal/sitedata"
)

// DocumentStore manages the site_data singleton row. The whole site document
// lives in one jsonb column; reads normalize on the way out so callers always
// see a complete document.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore returns a new DocumentStore backed by the given database.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Get loads the site document. A missing row yields the defaults with a zero
// timestamp; a corrupt payload is normalized rather than surfaced as an
// error, so the public site never goes dark over bad data.
func (s *DocumentStore) Get() (sitedata.Document, time.Time, error) {
	var raw []byte
	var updatedAt time.Time
	err := s.db.QueryRow(`SELECT data, updated_at FROM site_data WHERE id = 1`).Scan(&raw, &updatedAt)
	if err == sql.ErrNoRows {
		return sitedata.Defaults(), time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get site document: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return sitedata.Defaults(), updatedAt, nil
	}
	return sitedata.Normalize(decoded), updatedAt, nil
}

// Save normalizes and stores the document, replacing whatever was there.
// It returns the new updated_at stamp, which doubles as the asset cache-bust
// version.
func (s *DocumentStore) Save(doc sitedata.Document) (time.Time, error) {
	normalized := sitedata.Normalize(map[string]any(doc))
	raw, err := json.Marshal(normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("marshal site document: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO site_data (id, data, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		raw, now,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("save site document: %w", err)
	}
	return now, nil
}
