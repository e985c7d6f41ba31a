// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the persistence types shared by the stores and
// HTTP handlers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle state of a ticket reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationHandled   ReservationStatus = "handled"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ValidReservationStatus reports whether s is a known lifecycle state.
func ValidReservationStatus(s ReservationStatus) bool {
	switch s {
	case ReservationPending, ReservationHandled, ReservationCancelled:
		return true
	}
	return false
}

// Reservation is one ticket reservation for a show. LiveDate and LiveVenue
// are denormalized at creation time so the row stays meaningful after the
// show is edited or removed from the site document.
type Reservation struct {
	ID        uuid.UUID         `json:"id"`
	LiveID    string            `json:"liveId"`
	LiveDate  string            `json:"liveDate"`
	LiveVenue string            `json:"liveVenue"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Quantity  int               `json:"quantity"`
	Message   string            `json:"message"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
