// Package events streams per-attempt delivery outcomes to RabbitMQ so that
// external consumers (see cmd/worker) can audit dispatch activity without
// polling the database.
package events

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"
)

type DeliveryEvent struct {
	MessageID    int       `json:"message_id"`
	MailingID    int       `json:"mailing_id"`
	SubscriberID int       `json:"subscriber_id"`
	Status       string    `json:"status"`
	SentAt       time.Time `json:"sent_at"`
}

type Publisher interface {
	PublishDelivery(e DeliveryEvent) error
	Close() error
}

type AMQPPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) PublishDelivery(e DeliveryEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NopPublisher is used when no AMQP broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishDelivery(DeliveryEvent) error { return nil }
func (NopPublisher) Close() error                        { return nil }

var (
	_ Publisher = (*AMQPPublisher)(nil)
	_ Publisher = NopPublisher{}
)
