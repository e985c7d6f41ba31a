package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"bandsite/internal/models"
	"bandsite/internal/social"
)

// fakeQueue is an in-memory Queue.
type fakeQueue struct {
	posts          map[uuid.UUID]*models.XPost
	markSuccessErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{posts: make(map[uuid.UUID]*models.XPost)}
}

func (q *fakeQueue) Schedule(liveID, text, flyerURL string, at time.Time) (*models.XPost, error) {
	p := &models.XPost{
		ID: uuid.New(), LiveID: liveID, Text: text, FlyerURL: flyerURL,
		Status: models.XPostScheduled, ScheduledAt: &at,
	}
	q.posts[p.ID] = p
	return p, nil
}

func (q *fakeQueue) Cancel(id uuid.UUID) (*models.XPost, error) {
	p, ok := q.posts[id]
	if !ok || p.Status != models.XPostScheduled {
		return nil, nil
	}
	p.Status = models.XPostCancelled
	return p, nil
}

func (q *fakeQueue) ClaimDue(now time.Time, limit int) ([]models.XPost, error) {
	var due []models.XPost
	for _, p := range q.posts {
		if len(due) >= limit {
			break
		}
		if p.Status == models.XPostScheduled && !p.ScheduledAt.After(now) {
			p.Status = models.XPostClaimed
			due = append(due, *p)
		}
	}
	return due, nil
}

func (q *fakeQueue) MarkSuccess(id uuid.UUID, tweetID, tweetURL string, mediaAttached bool) error {
	if q.markSuccessErr != nil {
		return q.markSuccessErr
	}
	p := q.posts[id]
	p.Status = models.XPostSuccess
	p.TweetID = tweetID
	p.TweetURL = tweetURL
	p.MediaAttached = mediaAttached
	return nil
}

func (q *fakeQueue) MarkFailed(id uuid.UUID, reason string) error {
	p := q.posts[id]
	p.Status = models.XPostFailed
	p.Error = reason
	return nil
}

func (q *fakeQueue) MarkUnknown(id uuid.UUID, note string) error {
	p := q.posts[id]
	p.Status = models.XPostUnknown
	p.Error = note
	return nil
}

// fakePoster records publishes and can be told to fail.
type fakePoster struct {
	published []string
	fail      error
}

func (f *fakePoster) PublishText(_ context.Context, text string, opts social.Options) (*social.Result, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.published = append(f.published, text)
	return &social.Result{
		Text:          text,
		Tweet:         &social.Tweet{ID: "t-1", URL: "https://x.com/i/web/status/t-1"},
		MediaAttached: opts.FlyerURL != "",
	}, nil
}

func testScheduler(q Queue, p Poster) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(q, p, 30*time.Second, 10, time.Minute, logger)
}

func TestScheduleLeadTime(t *testing.T) {
	q := newFakeQueue()
	s := testScheduler(q, &fakePoster{})
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if _, err := s.Schedule("live-1", "text", "", base.Add(10*time.Second)); !errors.Is(err, ErrTooSoon) {
		t.Errorf("10s lead: err = %v, want ErrTooSoon", err)
	}
	if _, err := s.Schedule("live-1", "text", "", base.Add(-time.Minute)); !errors.Is(err, ErrTooSoon) {
		t.Errorf("past time: err = %v, want ErrTooSoon", err)
	}
	if _, err := s.Schedule("live-1", "", "", base.Add(time.Hour)); err == nil {
		t.Error("empty text accepted")
	}

	long := make([]rune, 281)
	for i := range long {
		long[i] = 'あ'
	}
	if _, err := s.Schedule("live-1", string(long), "", base.Add(time.Hour)); err == nil {
		t.Error("281-rune text accepted")
	}

	p, err := s.Schedule("live-1", "text", "", base.Add(time.Minute))
	if err != nil {
		t.Fatalf("valid schedule: %v", err)
	}
	if p.Status != models.XPostScheduled {
		t.Errorf("status = %q", p.Status)
	}
}

func TestRunDueEmptyTextFailsWithoutSending(t *testing.T) {
	q := newFakeQueue()
	poster := &fakePoster{}
	s := testScheduler(q, poster)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(time.Minute) }

	// A row whose text was emptied after scheduling (bad migration, manual
	// edit) must fail in place, not reach the platform.
	at := base
	p := &models.XPost{ID: uuid.New(), LiveID: "live-1", Text: "   ",
		Status: models.XPostScheduled, ScheduledAt: &at}
	q.posts[p.ID] = p

	if _, err := s.RunDue(context.Background()); err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if len(poster.published) != 0 {
		t.Errorf("published = %v, want none", poster.published)
	}
	if q.posts[p.ID].Status != models.XPostFailed {
		t.Errorf("status = %q, want failed", q.posts[p.ID].Status)
	}
}

func TestRunDueUnrecordedSendMarksUnknown(t *testing.T) {
	q := newFakeQueue()
	q.markSuccessErr = errors.New("connection reset")
	s := testScheduler(q, &fakePoster{})
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	p, _ := s.Schedule("live-1", "text", "", base.Add(time.Minute))
	s.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, err := s.RunDue(context.Background()); err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	row := q.posts[p.ID]
	if row.Status != models.XPostUnknown {
		t.Errorf("status = %q, want unknown", row.Status)
	}
}

func TestRunDueSendsAndFinalizes(t *testing.T) {
	q := newFakeQueue()
	poster := &fakePoster{}
	s := testScheduler(q, poster)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	due, _ := s.Schedule("live-1", "due announcement", "https://cdn.example.com/flyer.jpg", base.Add(time.Minute))
	future, _ := s.Schedule("live-2", "future announcement", "", base.Add(time.Hour))

	// Advance past the first post only.
	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	n, err := s.RunDue(context.Background())
	if err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	if n != 1 {
		t.Errorf("attempted = %d, want 1", n)
	}
	if len(poster.published) != 1 || poster.published[0] != "due announcement" {
		t.Errorf("published = %v", poster.published)
	}

	sent := q.posts[due.ID]
	if sent.Status != models.XPostSuccess || sent.TweetID != "t-1" || !sent.MediaAttached {
		t.Errorf("sent = %+v", sent)
	}
	if q.posts[future.ID].Status != models.XPostScheduled {
		t.Errorf("future post touched: %+v", q.posts[future.ID])
	}

	// A second pass finds nothing; the sent post is not re-claimed.
	if n, _ := s.RunDue(context.Background()); n != 0 {
		t.Errorf("second pass attempted = %d, want 0", n)
	}
}

func TestRunDueMarksFailures(t *testing.T) {
	q := newFakeQueue()
	poster := &fakePoster{fail: errors.New("duplicate content")}
	s := testScheduler(q, poster)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	p, _ := s.Schedule("live-1", "text", "", base.Add(time.Minute))
	s.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, err := s.RunDue(context.Background()); err != nil {
		t.Fatalf("RunDue: %v", err)
	}
	failed := q.posts[p.ID]
	if failed.Status != models.XPostFailed {
		t.Errorf("status = %q, want failed", failed.Status)
	}
	if failed.Error != "duplicate content" {
		t.Errorf("error = %q", failed.Error)
	}

	// Failed posts are not retried on the next pass.
	if n, _ := s.RunDue(context.Background()); n != 0 {
		t.Errorf("retry pass attempted = %d, want 0", n)
	}
}

func TestCancelOnlyScheduled(t *testing.T) {
	q := newFakeQueue()
	s := testScheduler(q, &fakePoster{})
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	p, _ := s.Schedule("live-1", "text", "", base.Add(time.Hour))
	cancelled, err := s.Cancel(p.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled == nil || cancelled.Status != models.XPostCancelled {
		t.Errorf("cancelled = %+v", cancelled)
	}

	if again, _ := s.Cancel(p.ID); again != nil {
		t.Errorf("second cancel = %+v, want nil", again)
	}
	if missing, _ := s.Cancel(uuid.New()); missing != nil {
		t.Errorf("cancel of unknown id = %+v, want nil", missing)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := newFakeQueue()
	s := testScheduler(q, &fakePoster{})
	s.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
