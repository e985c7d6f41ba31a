// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bandsite/internal/models"
)

// ReservationStore handles ticket reservation rows.
type ReservationStore struct {
	db *sql.DB

	// dedupeWindow is how far back Create looks for a matching reservation
	// before treating the new one as a double submit.
	dedupeWindow time.Duration
}

// NewReservationStore creates a ReservationStore. dedupeWindow bounds the
// duplicate-submit detection in Create.
func NewReservationStore(db *sql.DB, dedupeWindow time.Duration) *ReservationStore {
	return &ReservationStore{db: db, dedupeWindow: dedupeWindow}
}

const reservationColumns = `id, live_id, live_date, live_venue, name, email,
       quantity, message, status, created_at, updated_at`

// Create inserts a reservation. If the same visitor (live_id + email)
// submitted within the dedupe window, the existing row is returned with
// duplicate = true and nothing is inserted, so a double-tapped submit button
// does not hold two sets of tickets.
func (s *ReservationStore) Create(r *models.Reservation) (*models.Reservation, bool, error) {
	if s.dedupeWindow > 0 {
		since := time.Now().Add(-s.dedupeWindow)
		existing, err := s.findRecent(r.LiveID, r.Email, since)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	created := &models.Reservation{}
	err := s.db.QueryRow(`
		INSERT INTO ticket_reservations (id, live_id, live_date, live_venue,
		                                 name, email, quantity, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+reservationColumns,
		uuid.New(), r.LiveID, r.LiveDate, r.LiveVenue,
		r.Name, r.Email, r.Quantity, r.Message, models.ReservationPending,
	).Scan(
		&created.ID, &created.LiveID, &created.LiveDate, &created.LiveVenue,
		&created.Name, &created.Email, &created.Quantity, &created.Message,
		&created.Status, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("create reservation: %w", err)
	}
	return created, false, nil
}

// findRecent returns the newest reservation matching live_id + email created
// after since, or nil.
func (s *ReservationStore) findRecent(liveID, email string, since time.Time) (*models.Reservation, error) {
	r := &models.Reservation{}
	err := s.db.QueryRow(`
		SELECT `+reservationColumns+`
		FROM ticket_reservations
		WHERE live_id = $1 AND email = $2 AND created_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`, liveID, email, since).Scan(
		&r.ID, &r.LiveID, &r.LiveDate, &r.LiveVenue,
		&r.Name, &r.Email, &r.Quantity, &r.Message,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recent reservation: %w", err)
	}
	return r, nil
}

// List returns reservations newest first, optionally filtered to one show
// and one lifecycle state. limit <= 0 returns everything.
func (s *ReservationStore) List(liveID string, status models.ReservationStatus, limit int) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM ticket_reservations`
	args := []any{}
	var where []string
	if liveID != "" {
		args = append(args, liveID)
		where = append(where, fmt.Sprintf("live_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var items []models.Reservation
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(
			&r.ID, &r.LiveID, &r.LiveDate, &r.LiveVenue,
			&r.Name, &r.Email, &r.Quantity, &r.Message,
			&r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// FindByID retrieves a reservation by id. Returns nil if not found.
func (s *ReservationStore) FindByID(id uuid.UUID) (*models.Reservation, error) {
	r := &models.Reservation{}
	err := s.db.QueryRow(`
		SELECT `+reservationColumns+` FROM ticket_reservations WHERE id = $1
	`, id).Scan(
		&r.ID, &r.LiveID, &r.LiveDate, &r.LiveVenue,
		&r.Name, &r.Email, &r.Quantity, &r.Message,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reservation by id: %w", err)
	}
	return r, nil
}

// UpdateStatus moves a reservation to a new lifecycle state. Returns the
// updated row, or nil if the id does not exist.
func (s *ReservationStore) UpdateStatus(id uuid.UUID, status models.ReservationStatus) (*models.Reservation, error) {
	r := &models.Reservation{}
	err := s.db.QueryRow(`
		UPDATE ticket_reservations
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+reservationColumns,
		id, status, time.Now().UTC(),
	).Scan(
		&r.ID, &r.LiveID, &r.LiveDate, &r.LiveVenue,
		&r.Name, &r.Email, &r.Quantity, &r.Message,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update reservation status: %w", err)
	}
	return r, nil
}
