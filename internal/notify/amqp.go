package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names consumed by the (external) mailer service.
const (
	QueueBorrowed = "loan.borrowed"
	QueueReturned = "loan.returned"
)

// loanEvent is the message body published for both queues.
type loanEvent struct {
	UserID    int64     `json:"user_id"`
	BookTitle string    `json:"book_title"`
	At        time.Time `json:"at"`
}

// AMQPNotifier publishes loan events to RabbitMQ queues.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPNotifier connects to the broker and declares the loan event queues.
func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	for _, q := range []string{QueueBorrowed, QueueReturned} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declaring queue %s: %w", q, err)
		}
	}

	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

// Close shuts down the channel and connection.
func (n *AMQPNotifier) Close() {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}

func (n *AMQPNotifier) OnBorrowed(ctx context.Context, userID int64, bookTitle string) error {
	return n.publish(ctx, QueueBorrowed, userID, bookTitle)
}

func (n *AMQPNotifier) OnReturned(ctx context.Context, userID int64, bookTitle string) error {
	return n.publish(ctx, QueueReturned, userID, bookTitle)
}

func (n *AMQPNotifier) publish(ctx context.Context, queue string, userID int64, bookTitle string) error {
	body, err := json.Marshal(loanEvent{UserID: userID, BookTitle: bookTitle, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	err = n.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", queue, err)
	}
	return nil
}
