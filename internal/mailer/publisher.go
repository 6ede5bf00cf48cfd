// Package mailer moves outbound mail through RabbitMQ: the API publishes
// messages to the mail queue and the mail worker composes and sends them.
package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareQueue declares the durable mail queue.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // keep the queue when no consumer is connected
		false,
		false,
		nil,
	)
}

type Publisher struct {
	ch      Channel
	queue   string
	timeout time.Duration
}

func NewPublisher(ch Channel, queue string, timeout time.Duration) *Publisher {
	return &Publisher{ch: ch, queue: queue, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode mail message")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Type:         msg.Type,
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "publish %s mail", msg.Type)
	}
	return nil
}
