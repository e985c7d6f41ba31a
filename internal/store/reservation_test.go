package store

import (
	"testing"
	"time"

	"bandsite/internal/models"
)

func TestReservationCreateAndList(t *testing.T) {
	db := testDB(t)
	s := NewReservationStore(db, 5*time.Minute)
	t.Cleanup(func() { cleanReservations(t, db, "create-test@example.com") })

	created, dup, err := s.Create(&models.Reservation{
		LiveID:    "live-create-test",
		LiveDate:  "2025.03.01",
		LiveVenue: "下北沢XXX",
		Name:      "テスト太郎",
		Email:     "create-test@example.com",
		Quantity:  2,
		Message:   "よろしくお願いします",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dup {
		t.Error("fresh reservation flagged as duplicate")
	}
	if created.Status != models.ReservationPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if created.ID.String() == "" || created.CreatedAt.IsZero() {
		t.Errorf("row not fully populated: %+v", created)
	}

	found, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Email != created.Email || found.Quantity != 2 {
		t.Errorf("FindByID = %+v", found)
	}

	all, err := s.List("", "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var seen bool
	for _, r := range all {
		if r.ID == created.ID {
			seen = true
		}
	}
	if !seen {
		t.Error("created reservation missing from List")
	}
}

func TestReservationDuplicateWindow(t *testing.T) {
	db := testDB(t)
	s := NewReservationStore(db, 5*time.Minute)
	t.Cleanup(func() { cleanReservations(t, db, "dup-test@example.com") })

	base := &models.Reservation{
		LiveID:   "live-dup-test",
		Name:     "A",
		Email:    "dup-test@example.com",
		Quantity: 1,
	}

	first, dup, err := s.Create(base)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if dup {
		t.Fatal("first submit flagged as duplicate")
	}

	second, dup, err := s.Create(base)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if !dup {
		t.Error("resubmit within the window was not flagged")
	}
	if second.ID != first.ID {
		t.Errorf("duplicate returned a different row: %s != %s", second.ID, first.ID)
	}

	// A different show is not a duplicate.
	other := *base
	other.LiveID = "live-dup-test-other"
	t.Cleanup(func() {
		db.Exec("DELETE FROM ticket_reservations WHERE live_id = $1", other.LiveID)
	})
	_, dup, err = s.Create(&other)
	if err != nil {
		t.Fatalf("other-show Create: %v", err)
	}
	if dup {
		t.Error("reservation for a different show flagged as duplicate")
	}
}

func TestReservationUpdateStatus(t *testing.T) {
	db := testDB(t)
	s := NewReservationStore(db, 0)
	t.Cleanup(func() { cleanReservations(t, db, "status-test@example.com") })

	created, _, err := s.Create(&models.Reservation{
		LiveID: "live-status-test", Name: "B", Email: "status-test@example.com", Quantity: 1,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.UpdateStatus(created.ID, models.ReservationHandled)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated == nil || updated.Status != models.ReservationHandled {
		t.Errorf("updated = %+v, want handled", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Error("updated_at did not advance")
	}

	filtered, err := s.List("", models.ReservationHandled, 0)
	if err != nil {
		t.Fatalf("List(handled): %v", err)
	}
	var seen bool
	for _, r := range filtered {
		if r.ID == created.ID {
			seen = true
		}
		if r.Status != models.ReservationHandled {
			t.Errorf("filtered list contains %q row", r.Status)
		}
	}
	if !seen {
		t.Error("handled reservation missing from filtered list")
	}
}
