// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package social

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bandsite/internal/sitedata"
)

// maxFlyerBytes caps the flyer image size accepted for media upload.
const maxFlyerBytes = 5 << 20

// API is the subset of the X client the publisher needs. Tests substitute
// an in-memory fake.
type API interface {
	VerifyAccount(ctx context.Context) (*Account, error)
	UploadMedia(ctx context.Context, data []byte, contentType string) (string, error)
	PostTweet(ctx context.Context, text string, mediaIDs []string) (*Tweet, error)
}

// Result describes one announcement attempt. Tweet is nil for dry runs;
// Account is set only for dry runs, which verify credentials instead of
// posting.
type Result struct {
	Text          string   `json:"text"`
	Tweet         *Tweet   `json:"tweet,omitempty"`
	Account       *Account `json:"account,omitempty"`
	MediaAttached bool     `json:"mediaAttached"`
	FlyerWarning  string   `json:"flyerWarning,omitempty"`
	DryRun        bool     `json:"dryRun,omitempty"`
}

// Options controls a single publish call.
type Options struct {
	// DryRun composes the text and checks the flyer without touching the
	// platform.
	DryRun bool
	// FlyerURL is the absolute URL of the show's flyer image. Empty means
	// text-only.
	FlyerURL string
}

// Publisher posts show announcements. A flyer failure never fails the post;
// the announcement degrades to text-only with a warning attached.
type Publisher struct {
	api    API
	fetch  *http.Client
	logger *slog.Logger
}

// NewPublisher wires a publisher around an X API implementation.
func NewPublisher(api API, logger *slog.Logger) *Publisher {
	return &Publisher{
		api:    api,
		fetch:  &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

// Verify confirms the configured credentials against the platform.
func (p *Publisher) Verify(ctx context.Context) (*Account, error) {
	return p.api.VerifyAccount(ctx)
}

// Publish composes and posts the announcement for a show.
func (p *Publisher) Publish(ctx context.Context, show *sitedata.LiveEvent, opts Options) (*Result, error) {
	return p.PublishText(ctx, ComposeAnnouncement(show), opts)
}

// PublishText posts a pre-composed announcement. The scheduler uses this so
// the text a show was scheduled with is the text that goes out, even if the
// show was edited in between.
func (p *Publisher) PublishText(ctx context.Context, text string, opts Options) (*Result, error) {
	res := &Result{Text: text, DryRun: opts.DryRun}

	var flyer []byte
	var flyerType string
	if opts.FlyerURL != "" {
		var err error
		flyer, flyerType, err = p.fetchFlyer(ctx, opts.FlyerURL)
		if err != nil {
			res.FlyerWarning = err.Error()
			p.logger.Warn("flyer unavailable, posting text-only",
				"url", opts.FlyerURL, "error", err)
		}
	}

	if opts.DryRun {
		// A dry run proves the credentials work and shows which account
		// would post, without uploading media or tweeting.
		account, err := p.api.VerifyAccount(ctx)
		if err != nil {
			return nil, err
		}
		res.Account = account
		res.MediaAttached = len(flyer) > 0
		return res, nil
	}

	var mediaIDs []string
	if len(flyer) > 0 {
		mediaID, err := p.api.UploadMedia(ctx, flyer, flyerType)
		if err != nil {
			res.FlyerWarning = err.Error()
			p.logger.Warn("media upload failed, posting text-only", "error", err)
		} else {
			mediaIDs = append(mediaIDs, mediaID)
			res.MediaAttached = true
		}
	}

	tweet, err := p.api.PostTweet(ctx, text, mediaIDs)
	if err != nil {
		return nil, err
	}
	res.Tweet = tweet
	return res, nil
}

// fetchFlyer downloads the flyer and enforces the attachment constraints:
// an image content type, a non-empty body, and at most maxFlyerBytes.
func (p *Publisher) fetchFlyer(ctx context.Context, rawURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("flyer request: %w", err)
	}
	res, err := p.fetch.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("flyer fetch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("flyer fetch: http status %d", res.StatusCode)
	}
	contentType := res.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("flyer is not an image: %q", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxFlyerBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("flyer read: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("flyer is empty")
	}
	if len(data) > maxFlyerBytes {
		return nil, "", fmt.Errorf("flyer exceeds %d bytes", maxFlyerBytes)
	}
	return data, contentType, nil
}
