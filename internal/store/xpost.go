// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bandsite/internal/models"
)

// XPostStore handles announcement post rows, both the log of immediate posts
// and the queue of scheduled ones.
type XPostStore struct {
	db *sql.DB
}

// NewXPostStore creates a new XPostStore with the given database connection.
func NewXPostStore(db *sql.DB) *XPostStore {
	return &XPostStore{db: db}
}

const xPostColumns = `id, live_id, text, flyer_url, status, tweet_id, tweet_url,
       error, media_attached, scheduled_at, created_at, updated_at`

func scanXPost(row interface{ Scan(...any) error }) (*models.XPost, error) {
	p := &models.XPost{}
	var scheduledAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.LiveID, &p.Text, &p.FlyerURL, &p.Status,
		&p.TweetID, &p.TweetURL, &p.Error, &p.MediaAttached,
		&scheduledAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		p.ScheduledAt = &t
	}
	return p, nil
}

// Record logs a completed immediate post attempt, success or failure.
func (s *XPostStore) Record(p *models.XPost) (*models.XPost, error) {
	row := s.db.QueryRow(`
		INSERT INTO x_posts (id, live_id, text, flyer_url, status,
		                     tweet_id, tweet_url, error, media_attached)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+xPostColumns,
		uuid.New(), p.LiveID, p.Text, p.FlyerURL, p.Status,
		p.TweetID, p.TweetURL, p.Error, p.MediaAttached,
	)
	created, err := scanXPost(row)
	if err != nil {
		return nil, fmt.Errorf("record x post: %w", err)
	}
	return created, nil
}

// Schedule enqueues a post for the given time. The text and flyer URL are
// frozen here.
func (s *XPostStore) Schedule(liveID, text, flyerURL string, at time.Time) (*models.XPost, error) {
	row := s.db.QueryRow(`
		INSERT INTO x_posts (id, live_id, text, flyer_url, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+xPostColumns,
		uuid.New(), liveID, text, flyerURL, models.XPostScheduled, at.UTC(),
	)
	created, err := scanXPost(row)
	if err != nil {
		return nil, fmt.Errorf("schedule x post: %w", err)
	}
	return created, nil
}

// List returns the newest posts up to limit, across all states. A non-empty
// liveID restricts the log to one show.
func (s *XPostStore) List(liveID string, limit int) ([]models.XPost, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + xPostColumns + ` FROM x_posts`
	args := []any{}
	if liveID != "" {
		query += ` WHERE live_id = $1`
		args = append(args, liveID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list x posts: %w", err)
	}
	defer rows.Close()

	var items []models.XPost
	for rows.Next() {
		p, err := scanXPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan x post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// FindByID retrieves a post by id. Returns nil if not found.
func (s *XPostStore) FindByID(id uuid.UUID) (*models.XPost, error) {
	p, err := scanXPost(s.db.QueryRow(`
		SELECT `+xPostColumns+` FROM x_posts WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find x post by id: %w", err)
	}
	return p, nil
}

// Cancel withdraws a scheduled post. Only rows still waiting can be
// cancelled; returns nil if the id does not exist or was already claimed.
func (s *XPostStore) Cancel(id uuid.UUID) (*models.XPost, error) {
	p, err := scanXPost(s.db.QueryRow(`
		UPDATE x_posts
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING `+xPostColumns,
		id, models.XPostCancelled, time.Now().UTC(), models.XPostScheduled,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cancel x post: %w", err)
	}
	return p, nil
}

// ClaimDue atomically moves up to limit due scheduled posts into the posting
// state and returns them. Claiming before calling the platform means a second
// worker, or the same worker racing its previous tick, can never send the
// same announcement twice.
func (s *XPostStore) ClaimDue(now time.Time, limit int) ([]models.XPost, error) {
	rows, err := s.db.Query(`
		UPDATE x_posts
		SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM x_posts
			WHERE status = $3 AND scheduled_at <= $2
			ORDER BY scheduled_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+xPostColumns,
		models.XPostClaimed, now.UTC(), models.XPostScheduled, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim due x posts: %w", err)
	}
	defer rows.Close()

	var items []models.XPost
	for rows.Next() {
		p, err := scanXPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claimed x post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// MarkSuccess finalizes a claimed post after a successful send.
func (s *XPostStore) MarkSuccess(id uuid.UUID, tweetID, tweetURL string, mediaAttached bool) error {
	_, err := s.db.Exec(`
		UPDATE x_posts
		SET status = $2, tweet_id = $3, tweet_url = $4, media_attached = $5, updated_at = $6
		WHERE id = $1`,
		id, models.XPostSuccess, tweetID, tweetURL, mediaAttached, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark x post success: %w", err)
	}
	return nil
}

// MarkFailed finalizes a claimed post after the platform rejected it.
func (s *XPostStore) MarkFailed(id uuid.UUID, reason string) error {
	_, err := s.db.Exec(`
		UPDATE x_posts
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1`,
		id, models.XPostFailed, reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark x post failed: %w", err)
	}
	return nil
}

// MarkUnknown records an indeterminate outcome: the platform call succeeded
// but the success could not be written in its place, or the row was found
// stuck mid-send. The note says what is known.
func (s *XPostStore) MarkUnknown(id uuid.UUID, note string) error {
	_, err := s.db.Exec(`
		UPDATE x_posts
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1`,
		id, models.XPostUnknown, note, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark x post unknown: %w", err)
	}
	return nil
}
