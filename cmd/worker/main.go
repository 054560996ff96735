// Consumes the delivery event stream published by the dispatcher and logs it
// as a structured audit trail. Runs independently of the server binary.
package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/descensiontohell/mailing-service/internal/config"
	"github.com/descensiontohell/mailing-service/internal/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	if cfg.AMQP.URL == "" {
		log.Fatal().Msg("AMQP_URL is required for the worker")
	}

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to AMQP broker")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open a channel")
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.AMQP.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare queue")
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	go func() {
		for d := range msgs {
			var evt events.DeliveryEvent
			if err := json.Unmarshal(d.Body, &evt); err != nil {
				log.Warn().Err(err).Msg("invalid event payload")
				d.Ack(false)
				continue
			}

			log.Info().
				Int("message_id", evt.MessageID).
				Int("mailing_id", evt.MailingID).
				Int("subscriber_id", evt.SubscriberID).
				Str("status", evt.Status).
				Time("sent_at", evt.SentAt).
				Msg("delivery event")

			d.Ack(false)
		}
	}()

	log.Info().Str("queue", q.Name).Msg("worker running, waiting for events")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("worker stopped")
}
