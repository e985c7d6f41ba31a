// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package scheduler manages delayed announcement posts: it validates
// schedule requests and runs the background loop that sends due posts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bandsite/internal/models"
	"bandsite/internal/social"
)

// ErrTooSoon is returned when the requested time does not leave enough lead
// for the scheduler loop to be meaningful.
var ErrTooSoon = errors.New("scheduled time is too soon")

// Queue is the persistence surface the scheduler drives. *store.XPostStore
// satisfies it; tests use an in-memory fake.
type Queue interface {
	Schedule(liveID, text, flyerURL string, at time.Time) (*models.XPost, error)
	Cancel(id uuid.UUID) (*models.XPost, error)
	ClaimDue(now time.Time, limit int) ([]models.XPost, error)
	MarkSuccess(id uuid.UUID, tweetID, tweetURL string, mediaAttached bool) error
	MarkFailed(id uuid.UUID, reason string) error
	MarkUnknown(id uuid.UUID, note string) error
}

// Poster sends one announcement. *social.Publisher satisfies it.
type Poster interface {
	PublishText(ctx context.Context, text string, opts social.Options) (*social.Result, error)
}

// Scheduler validates schedule requests and drains due posts on a timer.
type Scheduler struct {
	queue     Queue
	poster    Poster
	minLead   time.Duration
	batchSize int
	interval  time.Duration
	logger    *slog.Logger

	// now is overridable for tests.
	now func() time.Time
}

// New creates a Scheduler.
func New(queue Queue, poster Poster, minLead time.Duration, batchSize int, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		queue:     queue,
		poster:    poster,
		minLead:   minLead,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Schedule enqueues an announcement for the given time. The text and flyer
// URL are frozen now; editing the show afterwards does not change what goes
// out.
func (s *Scheduler) Schedule(liveID, text, flyerURL string, at time.Time) (*models.XPost, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("schedule: empty text")
	}
	if n := len([]rune(text)); n > social.MaxTweetLen {
		return nil, fmt.Errorf("schedule: text is %d characters, limit is %d", n, social.MaxTweetLen)
	}
	if at.Before(s.now().Add(s.minLead)) {
		return nil, fmt.Errorf("%w: need at least %s of lead time", ErrTooSoon, s.minLead)
	}
	return s.queue.Schedule(liveID, text, flyerURL, at)
}

// Cancel withdraws a scheduled post. Returns nil if the post does not exist
// or is no longer waiting.
func (s *Scheduler) Cancel(id uuid.UUID) (*models.XPost, error) {
	return s.queue.Cancel(id)
}

// RunDue claims and sends one batch of due posts, returning how many were
// attempted. Each post is finalized individually; one platform rejection
// does not block the rest of the batch.
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	due, err := s.queue.ClaimDue(s.now(), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim due posts: %w", err)
	}

	for _, post := range due {
		if strings.TrimSpace(post.Text) == "" {
			if markErr := s.queue.MarkFailed(post.ID, "empty text"); markErr != nil {
				s.logger.Error("mark failed", "id", post.ID, "error", markErr)
			}
			continue
		}
		res, err := s.poster.PublishText(ctx, post.Text, social.Options{FlyerURL: post.FlyerURL})
		if err != nil {
			s.logger.Error("scheduled post failed", "id", post.ID, "error", err)
			if markErr := s.queue.MarkFailed(post.ID, err.Error()); markErr != nil {
				s.logger.Error("mark failed", "id", post.ID, "error", markErr)
			}
			continue
		}
		if err := s.queue.MarkSuccess(post.ID, res.Tweet.ID, res.Tweet.URL, res.MediaAttached); err != nil {
			// The tweet is out but the row is stuck in claimed. An operator
			// has to resolve which state is real.
			s.logger.Error("sent but not recorded", "id", post.ID, "tweet", res.Tweet.ID, "error", err)
			if markErr := s.queue.MarkUnknown(post.ID, fmt.Sprintf("sent as tweet %s but not recorded", res.Tweet.ID)); markErr != nil {
				s.logger.Error("mark unknown", "id", post.ID, "error", markErr)
			}
			continue
		}
		s.logger.Info("scheduled post sent", "id", post.ID, "tweet", res.Tweet.ID)
	}
	return len(due), nil
}

// Run drains due posts every interval until the context is cancelled.
// Intended to run in its own goroutine next to the HTTP server.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval, "batch", s.batchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunDue(ctx); err != nil {
				s.logger.Error("scheduler pass failed", "error", err)
			}
		}
	}
}
