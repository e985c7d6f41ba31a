// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package adminsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bandsite/internal/sitedata"
)

// requestTimeout bounds every admin API call so a hung server cannot
// stall the editing session.
const requestTimeout = 30 * time.Second

// Client talks to the bandsite admin API with the shared admin token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an admin API client for the given origin and token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// FetchDocument retrieves the persisted site document.
func (c *Client) FetchDocument(ctx context.Context) (sitedata.Document, error) {
	payload, err := c.do(ctx, http.MethodGet, "/api/admin/site-data", nil, "fetch document")
	if err != nil {
		return nil, err
	}
	data, ok := payload["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fetch document: no data object in response")
	}
	return data, nil
}

// StoreDocument overwrites the persisted site document with doc.
func (c *Client) StoreDocument(ctx context.Context, doc sitedata.Document) error {
	raw, err := json.Marshal(map[string]any{"data": doc})
	if err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, "/api/admin/site-data", jsonBody(raw), "store document")
	return err
}

// UploadImage uploads an image and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("upload form write: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("upload form close: %w", err)
	}

	payload, err := c.do(ctx, http.MethodPost, "/api/admin/upload-image", &requestBody{
		reader:      &body,
		contentType: form.FormDataContentType(),
	}, "upload image")
	if err != nil {
		return "", err
	}
	u, _ := payload["url"].(string)
	if u == "" {
		return "", fmt.Errorf("upload image: no url in response")
	}
	return u, nil
}

// PostLive posts the X announcement for a show. tweetText overrides the
// composed text when non-empty.
func (c *Client) PostLive(ctx context.Context, liveID, tweetText string) error {
	path := "/api/admin/live/" + url.PathEscape(liveID) + "/post-x"
	var body *requestBody
	if strings.TrimSpace(tweetText) != "" {
		raw, err := json.Marshal(map[string]string{"tweetText": tweetText})
		if err != nil {
			return fmt.Errorf("post live: %w", err)
		}
		body = jsonBody(raw)
	}
	_, err := c.do(ctx, http.MethodPost, path, body, "post live")
	return err
}

type requestBody struct {
	reader      io.Reader
	contentType string
}

func jsonBody(raw []byte) *requestBody {
	return &requestBody{reader: bytes.NewReader(raw), contentType: "application/json"}
}

// do executes an authenticated request and decodes the JSON body.
// Non-2xx responses become errors carrying the server-provided reason.
func (c *Client) do(ctx context.Context, method, path string, body *requestBody, op string) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		reader = body.reader
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	payload := map[string]any{}
	_ = json.Unmarshal(raw, &payload)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if msg, _ := payload["error"].(string); msg != "" {
			return nil, fmt.Errorf("%s failed: %s", op, msg)
		}
		return nil, fmt.Errorf("%s failed: http status %d", op, res.StatusCode)
	}
	return payload, nil
}
