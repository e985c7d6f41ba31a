package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"bandsite/internal/sitedata"
)

// Seed inserts the default site document if the singleton row is missing.
// The public site always has something to render, even on a fresh database.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM site_data").Scan(&count); err != nil {
		return fmt.Errorf("seed check site_data: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	raw, err := json.Marshal(sitedata.Defaults())
	if err != nil {
		return fmt.Errorf("seed marshal defaults: %w", err)
	}

	if _, err := db.Exec(`INSERT INTO site_data (id, data) VALUES (1, $1)`, raw); err != nil {
		return fmt.Errorf("seed insert site_data: %w", err)
	}

	slog.Info("database seeded with default site document")
	return nil
}
