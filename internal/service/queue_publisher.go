// Package queue_publisher publishes domain events to RabbitMQ.  Publishing
// is strictly best-effort: errors are logged and returned so callers can
// ignore failures without interrupting the request that triggered them.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/openshelf/openshelf/internal/queue"
)

// Queue names, also used as routing keys on the default exchange.
const (
	BorrowQueueName    = "book.borrowed"
	PublishedQueueName = "book.published"
)

// PublishBookBorrowed publishes a BookBorrowedEvent to the book.borrowed queue.
func PublishBookBorrowed(ctx context.Context, event q.BookBorrowedEvent) error {
	return publish(ctx, BorrowQueueName, event)
}

// PublishBookPublished publishes a BookPublishedEvent to the book.published queue.
func PublishBookPublished(ctx context.Context, event q.BookPublishedEvent) error {
	return publish(ctx, PublishedQueueName, event)
}

// publish opens a short-lived connection, declares the durable queue and
// sends one persistent JSON message.  When no broker is configured the call
// is a silent no-op so the catalog runs fine without RabbitMQ.
func publish(ctx context.Context, queueName string, payload any) error {
	url := BrokerURL()
	if url == "" {
		return nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// BrokerURL returns the configured AMQP URL, or "" when events are disabled.
func BrokerURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return os.Getenv("AMQP_URL")
}
