// Package scheduler decides when a mailing starts, who it targets at that
// moment, and how failed deliveries are retried until the window closes.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/descensiontohell/mailing-service/internal/events"
	"github.com/descensiontohell/mailing-service/internal/model"
)

// MailingStore is the fire-time re-fetch: a nil mailing means it was deleted
// after scheduling, which cancels the dispatch silently.
type MailingStore interface {
	GetByID(id int) (*model.Mailing, error)
}

type SubscriberResolver interface {
	Resolve(filter string) ([]model.Subscriber, error)
}

type MessageStore interface {
	GetOrCreatePending(mailingID, subscriberID int) (*model.Message, error)
	UpdateStatus(id int, status model.MessageStatus, sentAt *time.Time) error
}

type Sender interface {
	Send(ctx context.Context, messageID int, phone, text string) error
}

type Config struct {
	PollInterval time.Duration
	Throttle     time.Duration
}

// Scheduler owns one polling unit per scheduled mailing. Units share nothing
// but the stores; each terminates on its own when the window expires, the
// mailing disappears, or its dispatcher drains. Unit lifetimes are bound to
// the scheduler itself, not to whoever called Schedule.
type Scheduler struct {
	mailings MailingStore
	subs     SubscriberResolver
	messages MessageStore
	sender   Sender
	events   events.Publisher
	cfg      Config
	log      zerolog.Logger

	baseCtx  context.Context
	shutdown context.CancelFunc

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
}

func New(
	mailings MailingStore,
	subs SubscriberResolver,
	messages MessageStore,
	sender Sender,
	publisher events.Publisher,
	cfg Config,
	log zerolog.Logger,
) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Throttle <= 0 {
		cfg.Throttle = 500 * time.Millisecond
	}
	baseCtx, shutdown := context.WithCancel(context.Background())
	return &Scheduler{
		mailings: mailings,
		subs:     subs,
		messages: messages,
		sender:   sender,
		events:   publisher,
		cfg:      cfg,
		log:      log,
		baseCtx:  baseCtx,
		shutdown: shutdown,
		cancels:  map[int]context.CancelFunc{},
	}
}

// Schedule registers exactly one background unit for the mailing and returns
// immediately. Scheduling itself cannot fail: no I/O happens until the poll
// loop wakes up. A second Schedule for the same id is a no-op while the
// first unit is alive.
func (s *Scheduler) Schedule(m model.Mailing) {
	s.mu.Lock()
	if _, exists := s.cancels[m.ID]; exists {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancels[m.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer s.release(m.ID)
		s.watch(ctx, m)
	}()
}

// Cancel stops the mailing's unit, whether it is still polling or already
// mid-dispatch. Deleting a mailing calls this so sending stops right away
// instead of at the next deadline check.
func (s *Scheduler) Cancel(mailingID int) {
	s.mu.Lock()
	cancel, ok := s.cancels[mailingID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// Shutdown stops every unit. Used on process shutdown; the startup re-scan
// brings unfinished mailings back on the next run.
func (s *Scheduler) Shutdown() {
	s.shutdown()
}

// Active reports whether a unit is currently registered for the mailing.
func (s *Scheduler) Active(mailingID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cancels[mailingID]
	return ok
}

func (s *Scheduler) release(mailingID int) {
	s.mu.Lock()
	if cancel, ok := s.cancels[mailingID]; ok {
		cancel()
		delete(s.cancels, mailingID)
	}
	s.mu.Unlock()
}

// watch polls until the window opens or expires. The transition to dispatch
// is terminal: the same goroutine continues as the mailing's dispatcher.
func (s *Scheduler) watch(ctx context.Context, m model.Mailing) {
	log := s.log.With().Int("mailing_id", m.ID).Logger()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("scheduler unit canceled")
			return
		case <-ticker.C:
		}

		now := time.Now()
		if m.Expired(now) {
			// Window fully elapsed without dispatch. Normal for mailings
			// scheduled in the past.
			log.Info().Time("end_time", m.EndTime).Msg("window missed, not dispatching")
			return
		}
		if !m.Started(now) {
			continue
		}

		fresh, err := s.mailings.GetByID(m.ID)
		if err != nil {
			log.Error().Err(err).Msg("fire-time fetch failed")
			return
		}
		if fresh == nil {
			log.Info().Msg("mailing deleted before start, not dispatching")
			return
		}

		subscribers, err := s.subs.Resolve(fresh.UserFilter)
		if err != nil {
			log.Error().Err(err).Str("filter", fresh.UserFilter).Msg("resolve failed")
			return
		}

		log.Info().Int("subscribers", len(subscribers)).Msg("window open, dispatching")
		d := newDispatcher(*fresh, subscribers, s.messages, s.sender, s.events, s.cfg.Throttle, log)
		d.Run(ctx)
		return
	}
}
