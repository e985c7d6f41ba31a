// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL    = "https://api.x.com"
	defaultUploadBaseURL = "https://upload.twitter.com"

	// requestTimeout bounds every outbound call so a hung remote cannot
	// stall the scheduler batch.
	requestTimeout = 15 * time.Second
)

// ErrNoCredentials is returned when the X credential set is incomplete.
var ErrNoCredentials = errors.New("x api credentials are not configured")

// Account identifies the X account the credentials belong to.
type Account struct {
	ID         string `json:"id"`
	ScreenName string `json:"screenName"`
	Name       string `json:"name"`
}

// Tweet is the result of a successful post.
type Tweet struct {
	ID  string `json:"tweetId"`
	URL string `json:"url"`
}

// Client talks to the X API with OAuth 1.0a signed requests. Base URLs are
// configurable so tests can point it at a local server.
type Client struct {
	signer        *Signer
	httpClient    *http.Client
	apiBaseURL    string
	uploadBaseURL string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURLs overrides the API and media-upload endpoints.
func WithBaseURLs(api, upload string) ClientOption {
	return func(c *Client) {
		c.apiBaseURL = strings.TrimRight(api, "/")
		c.uploadBaseURL = strings.TrimRight(upload, "/")
	}
}

// WithHTTPClient overrides the HTTP client used for outbound calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an X API client for the given credential set.
func NewClient(creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		signer:        &Signer{Creds: creds},
		httpClient:    &http.Client{Timeout: requestTimeout},
		apiBaseURL:    defaultAPIBaseURL,
		uploadBaseURL: defaultUploadBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyAccount checks that the credentials are accepted and returns the
// posting account's identity. It has no side effects on the platform.
func (c *Client) VerifyAccount(ctx context.Context) (*Account, error) {
	if !c.signer.Creds.Valid() {
		return nil, ErrNoCredentials
	}

	endpoint := c.apiBaseURL + "/1.1/account/verify_credentials.json"
	extra := map[string]string{"include_entities": "false", "skip_status": "true"}

	query := url.Values{}
	for k, v := range extra {
		query.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}
	req.Header.Set("Authorization", c.signer.Authorization(http.MethodGet, endpoint, extra))

	payload, err := c.do(req, "verify credentials")
	if err != nil {
		return nil, err
	}

	acc := &Account{
		ID:         stringField(payload, "id_str"),
		ScreenName: stringField(payload, "screen_name"),
		Name:       stringField(payload, "name"),
	}
	if acc.ID == "" {
		if id, ok := payload["id"].(float64); ok {
			acc.ID = fmt.Sprintf("%.0f", id)
		}
	}
	return acc, nil
}

// UploadMedia uploads image bytes and returns the media id to attach to a
// tweet.
func (c *Client) UploadMedia(ctx context.Context, data []byte, contentType string) (string, error) {
	if !c.signer.Creds.Valid() {
		return "", ErrNoCredentials
	}

	endpoint := c.uploadBaseURL + "/1.1/media/upload.json"

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="media"; filename="flyer"`)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("media form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("media form write: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("media form close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("media request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	// Multipart body parameters are excluded from the signature base string.
	req.Header.Set("Authorization", c.signer.Authorization(http.MethodPost, endpoint, nil))

	payload, err := c.do(req, "media upload")
	if err != nil {
		return "", err
	}

	mediaID := stringField(payload, "media_id_string")
	if mediaID == "" {
		if id, ok := payload["media_id"].(float64); ok {
			mediaID = fmt.Sprintf("%.0f", id)
		}
	}
	if mediaID == "" {
		return "", fmt.Errorf("media upload failed: no media id in response")
	}
	return mediaID, nil
}

// PostTweet posts text with optional attached media and returns the created
// tweet's id and URL.
func (c *Client) PostTweet(ctx context.Context, text string, mediaIDs []string) (*Tweet, error) {
	if !c.signer.Creds.Valid() {
		return nil, ErrNoCredentials
	}

	endpoint := c.apiBaseURL + "/2/tweets"

	reqBody := map[string]any{"text": text}
	if len(mediaIDs) > 0 {
		reqBody["media"] = map[string]any{"media_ids": mediaIDs}
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("tweet body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.signer.Authorization(http.MethodPost, endpoint, nil))

	payload, err := c.do(req, "post tweet")
	if err != nil {
		return nil, err
	}

	var tweetID string
	if data, ok := payload["data"].(map[string]any); ok {
		tweetID = stringField(data, "id")
	}
	tweet := &Tweet{ID: tweetID}
	if tweetID != "" {
		tweet.URL = "https://x.com/i/web/status/" + tweetID
	}
	return tweet, nil
}

// do executes a signed request and decodes the JSON body. Non-2xx responses
// become errors carrying the remote-provided reason.
func (c *Client) do(req *http.Request, op string) (map[string]any, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	payload := map[string]any{}
	_ = json.Unmarshal(body, &payload)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%s failed: %s", op, remoteReason(payload, res.StatusCode))
	}
	return payload, nil
}

// remoteReason digs the human-readable failure reason out of the various
// error shapes the v1.1 and v2 endpoints use.
func remoteReason(payload map[string]any, status int) string {
	if errs, ok := payload["errors"].([]any); ok && len(errs) > 0 {
		if first, ok := errs[0].(map[string]any); ok {
			if msg := stringField(first, "message"); msg != "" {
				return msg
			}
		}
	}
	for _, key := range []string{"detail", "title", "error"} {
		if msg := stringField(payload, key); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("http status %d", status)
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
