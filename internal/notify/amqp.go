// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"bandsite/internal/models"
)

// reservationQueue is the durable queue new-reservation events land on.
// Downstream consumers (mailers, spreadsheets) drain it independently.
const reservationQueue = "reservation.created"

// EventPublisher publishes domain events to RabbitMQ. Connections are
// per-publish; reservation volume is far too low to justify keeping a
// channel open.
type EventPublisher struct {
	url string
}

// NewEventPublisher returns a publisher for the given AMQP URL, or nil if
// the URL is empty.
func NewEventPublisher(url string) *EventPublisher {
	if url == "" {
		return nil
	}
	return &EventPublisher{url: url}
}

// PublishReservationCreated publishes the reservation to the durable
// reservation.created queue. Messages are marked persistent so they
// survive broker restarts.
func (p *EventPublisher) PublishReservationCreated(ctx context.Context, r *models.Reservation) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so the publisher never depends on consumer startup order.
	if _, err := ch.QueueDeclare(
		reservationQueue, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("amqp marshal: %w", err)
	}

	return ch.PublishWithContext(ctx,
		"",               // default exchange
		reservationQueue, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
