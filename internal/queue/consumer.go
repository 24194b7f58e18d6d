package queue

// consumer.go contains the background consumer for the book.borrowed queue.
// Each event is appended to logs/borrow.log so librarians have a flat audit
// trail of circulation without touching the primary database.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const borrowQueueName = "book.borrowed"

// StartBorrowConsumer connects to the broker at url, declares the durable
// book.borrowed queue and consumes it forever, reconnecting with backoff
// when the connection drops.  Processing failures reject the offending
// message without requeueing so a poison message cannot wedge the loop.
func StartBorrowConsumer(url string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("borrow-consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Printf("borrow-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("borrow-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(borrowQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(borrowQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleBorrowMessage(d.Body); err != nil {
			log.Printf("borrow-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleBorrowMessage(body []byte) error {
	var ev BookBorrowedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join("logs", "borrow.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("%s event=%s user=%d(%s) book=%d %q due=%s\n",
		ev.BorrowedAt, ev.EventID, ev.UserID, ev.Username, ev.BookID, ev.Title, ev.DueAt)
	_, err = f.WriteString(line)
	return err
}
