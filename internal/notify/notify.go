// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package notify fans new reservations out to the configured channels:
// a LINE push message, a generic JSON webhook, and an AMQP event. All
// channels are optional and all failures are logged, never surfaced to
// the visitor who just reserved a ticket.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bandsite/internal/models"
)

const lineAPIURL = "https://api.line.me/v2/bot/message/push"

// Notifier delivers reservation notifications to the configured channels.
type Notifier struct {
	lineToken  string
	lineTo     string
	webhookURL string
	amqp       *EventPublisher
	httpClient *http.Client
	logger     *slog.Logger

	// lineURL is overridable for tests.
	lineURL string
}

// New creates a Notifier. Channels with empty configuration are skipped.
// amqp may be nil.
func New(lineToken, lineTo, webhookURL string, amqp *EventPublisher, logger *slog.Logger) *Notifier {
	return &Notifier{
		lineToken:  lineToken,
		lineTo:     lineTo,
		webhookURL: webhookURL,
		amqp:       amqp,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		lineURL:    lineAPIURL,
	}
}

// ReservationCreated delivers a new reservation to every configured channel.
// Runs in the request path after the row is committed, so every failure is
// log-and-continue.
func (n *Notifier) ReservationCreated(ctx context.Context, r *models.Reservation) {
	if n == nil {
		return
	}
	if n.lineToken != "" && n.lineTo != "" {
		if err := n.pushLine(ctx, r); err != nil {
			n.logger.Warn("line push failed", "reservation", r.ID, "error", err)
		}
	}
	if n.webhookURL != "" {
		if err := n.postWebhook(ctx, r); err != nil {
			n.logger.Warn("webhook notify failed", "reservation", r.ID, "error", err)
		}
	}
	if n.amqp != nil {
		if err := n.amqp.PublishReservationCreated(ctx, r); err != nil {
			n.logger.Warn("amqp publish failed", "reservation", r.ID, "error", err)
		}
	}
}

// pushLine sends a LINE push message summarizing the reservation.
func (n *Notifier) pushLine(ctx context.Context, r *models.Reservation) error {
	text := fmt.Sprintf("チケット予約\n%s %s\n%s様 %d枚\n%s",
		r.LiveDate, r.LiveVenue, r.Name, r.Quantity, r.Email)
	if r.Message != "" {
		text += "\n" + r.Message
	}

	body, err := json.Marshal(map[string]any{
		"to": n.lineTo,
		"messages": []map[string]string{
			{"type": "text", "text": text},
		},
	})
	if err != nil {
		return fmt.Errorf("line marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.lineURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.lineToken)

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("line push: http status %d", res.StatusCode)
	}
	return nil
}

// postWebhook POSTs the reservation as JSON to the configured endpoint.
func (n *Notifier) postWebhook(ctx context.Context, r *models.Reservation) error {
	body, err := json.Marshal(map[string]any{
		"event":       "reservation.created",
		"reservation": r,
	})
	if err != nil {
		return fmt.Errorf("webhook marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook post: http status %d", res.StatusCode)
	}
	return nil
}
