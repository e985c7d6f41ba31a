// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"bandsite/internal/models"
)

// reservationCSVHeader matches the column order the admin spreadsheet
// workflow expects; do not reorder.
var reservationCSVHeader = []string{
	"id", "status", "createdAt", "updatedAt",
	"liveId", "liveDate", "liveVenue",
	"name", "email", "quantity", "message",
}

// WriteReservationsCSV renders reservations as CSV, header row included.
func WriteReservationsCSV(w io.Writer, reservations []models.Reservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reservationCSVHeader); err != nil {
		return err
	}
	for _, r := range reservations {
		record := []string{
			r.ID.String(),
			string(r.Status),
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
			r.LiveID,
			r.LiveDate,
			r.LiveVenue,
			r.Name,
			r.Email,
			strconv.Itoa(r.Quantity),
			r.Message,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
