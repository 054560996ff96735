package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/descensiontohell/mailing-service/internal/events"
	"github.com/descensiontohell/mailing-service/internal/model"
)

// dispatcher drains one mailing's subscriber queue with best-effort delivery.
// Retries are unbounded but the whole loop stops unconditionally at end_time.
// Attempts are strictly sequential: one mailing sends at most one message per
// throttle interval, which is the backpressure mechanism, not an oversight.
type dispatcher struct {
	mailing  model.Mailing
	queue    *subscriberDeque
	messages MessageStore
	sender   Sender
	events   events.Publisher
	limiter  *rate.Limiter
	log      zerolog.Logger
}

func newDispatcher(
	m model.Mailing,
	subs []model.Subscriber,
	messages MessageStore,
	sender Sender,
	publisher events.Publisher,
	throttle time.Duration,
	log zerolog.Logger,
) *dispatcher {
	return &dispatcher{
		mailing:  m,
		queue:    newSubscriberDeque(subs),
		messages: messages,
		sender:   sender,
		events:   publisher,
		limiter:  rate.NewLimiter(rate.Every(throttle), 1),
		log:      log,
	}
}

// Run drains the queue until it is empty or end_time passes, whichever comes
// first. Subscribers still failing at the deadline keep their last-written
// status; subscribers never attempted keep no message row at all.
func (d *dispatcher) Run(ctx context.Context) {
	ctx, cancel := context.WithDeadline(ctx, d.mailing.EndTime)
	defer cancel()

	for d.queue.Len() > 0 {
		// Paces attempts and doubles as the deadline/cancellation wait. The
		// first call returns immediately, every later one spaces attempts at
		// least one throttle interval apart.
		if err := d.limiter.Wait(ctx); err != nil {
			d.log.Info().Int("left", d.queue.Len()).Msg("dispatch stopped")
			return
		}
		if !time.Now().Before(d.mailing.EndTime) {
			d.log.Info().Int("left", d.queue.Len()).Msg("deadline reached, stopping dispatch")
			return
		}
		sub := d.queue.PopBack()
		d.attempt(ctx, sub)
	}
	d.log.Info().Msg("queue drained")
}

func (d *dispatcher) attempt(ctx context.Context, sub model.Subscriber) {
	msg, err := d.messages.GetOrCreatePending(d.mailing.ID, sub.ID)
	if err != nil {
		d.log.Error().Err(err).Int("subscriber_id", sub.ID).Msg("get-or-create failed, requeueing")
		d.queue.PushFront(sub)
		return
	}

	if msg.Status == model.StatusDelivered {
		// Already delivered in an earlier run of this mailing. Skip without
		// re-sending or re-enqueueing.
		d.log.Debug().Int("subscriber_id", sub.ID).Msg("already delivered, skipping")
		return
	}

	sendErr := d.sender.Send(ctx, msg.ID, sub.Phone, d.mailing.MailText)
	now := time.Now()

	status := model.StatusDelivered
	if sendErr != nil {
		status = model.StatusFailed
		// Retry after the rest of the current batch, not immediately.
		d.queue.PushFront(sub)
		d.log.Warn().Err(sendErr).Int("subscriber_id", sub.ID).Int("message_id", msg.ID).Msg("delivery failed")
	} else {
		d.log.Info().Int("subscriber_id", sub.ID).Int("message_id", msg.ID).Msg("delivered")
	}

	if err := d.messages.UpdateStatus(msg.ID, status, &now); err != nil {
		d.log.Error().Err(err).Int("message_id", msg.ID).Msg("status update failed")
	}

	if err := d.events.PublishDelivery(events.DeliveryEvent{
		MessageID:    msg.ID,
		MailingID:    d.mailing.ID,
		SubscriberID: sub.ID,
		Status:       string(status),
		SentAt:       now,
	}); err != nil {
		d.log.Warn().Err(err).Int("message_id", msg.ID).Msg("event publish failed")
	}
}
