package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descensiontohell/mailing-service/internal/events"
	"github.com/descensiontohell/mailing-service/internal/model"
)

// fakeMailingStore holds mailings in memory; deleting one simulates the
// cancellation-by-deletion signal the scheduler observes at fire time.
type fakeMailingStore struct {
	mu       sync.Mutex
	mailings map[int]model.Mailing
}

func newFakeMailingStore(ms ...model.Mailing) *fakeMailingStore {
	store := &fakeMailingStore{mailings: map[int]model.Mailing{}}
	for _, m := range ms {
		store.mailings[m.ID] = m
	}
	return store
}

func (s *fakeMailingStore) GetByID(id int) (*model.Mailing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mailings[id]
	if !ok {
		return nil, nil
	}
	copied := m
	return &copied, nil
}

func (s *fakeMailingStore) delete(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mailings, id)
}

type fakeResolver struct {
	mu    sync.Mutex
	subs  []model.Subscriber
	calls int
}

func (r *fakeResolver) Resolve(string) ([]model.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.subs, nil
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestScheduler(store *fakeMailingStore, resolver *fakeResolver, msgs *memMessageStore, snd *fakeSender) *Scheduler {
	return New(store, resolver, msgs, snd, events.NopPublisher{}, Config{
		PollInterval: 10 * time.Millisecond,
		Throttle:     time.Millisecond,
	}, zerolog.Nop())
}

func TestSchedulerDispatchesWhenWindowOpens(t *testing.T) {
	now := time.Now()
	m := testMailing(now.Add(-time.Second), now.Add(10*time.Second))
	store := newFakeMailingStore(m)
	resolver := &fakeResolver{subs: []model.Subscriber{
		{ID: 1, Phone: "79990000001", Category: "vip"},
		{ID: 2, Phone: "79990000002", Category: "vip"},
	}}
	msgs := newMemMessageStore()
	snd := newFakeSender(nil)

	s := newTestScheduler(store, resolver, msgs, snd)
	s.Schedule(m)

	require.Eventually(t, func() bool { return snd.callCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !s.Active(m.ID) }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, resolver.callCount())
	assert.Equal(t, model.StatusDelivered, msgs.byPairStatus(m.ID, 1))
	assert.Equal(t, model.StatusDelivered, msgs.byPairStatus(m.ID, 2))
}

func TestSchedulerExpiredWindowNeverDispatches(t *testing.T) {
	now := time.Now()
	m := testMailing(now.Add(-time.Hour), now.Add(-time.Minute))
	store := newFakeMailingStore(m)
	resolver := &fakeResolver{subs: []model.Subscriber{{ID: 1, Phone: "79990000001"}}}
	msgs := newMemMessageStore()
	snd := newFakeSender(nil)

	s := newTestScheduler(store, resolver, msgs, snd)
	s.Schedule(m)

	require.Eventually(t, func() bool { return !s.Active(m.ID) }, 2*time.Second, 10*time.Millisecond)

	// The unit terminated silently without ever resolving or sending.
	assert.Equal(t, 0, resolver.callCount())
	assert.Equal(t, 0, snd.callCount())
	assert.Empty(t, msgs.records())
}

func TestSchedulerDeletedMailingDoesNotDispatch(t *testing.T) {
	now := time.Now()
	m := testMailing(now.Add(50*time.Millisecond), now.Add(10*time.Second))
	store := newFakeMailingStore(m)
	resolver := &fakeResolver{subs: []model.Subscriber{{ID: 1, Phone: "79990000001"}}}
	msgs := newMemMessageStore()
	snd := newFakeSender(nil)

	s := newTestScheduler(store, resolver, msgs, snd)
	s.Schedule(m)

	// Deleted after scheduling but before the window opens.
	store.delete(m.ID)

	require.Eventually(t, func() bool { return !s.Active(m.ID) }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, resolver.callCount())
	assert.Equal(t, 0, snd.callCount())
}

func TestSchedulerCancelStopsUnit(t *testing.T) {
	now := time.Now()
	m := testMailing(now.Add(time.Hour), now.Add(2*time.Hour))
	store := newFakeMailingStore(m)
	resolver := &fakeResolver{}
	msgs := newMemMessageStore()
	snd := newFakeSender(nil)

	s := newTestScheduler(store, resolver, msgs, snd)
	s.Schedule(m)
	require.True(t, s.Active(m.ID))

	s.Cancel(m.ID)

	require.Eventually(t, func() bool { return !s.Active(m.ID) }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, resolver.callCount())
}

func TestScheduleIsIdempotentPerMailing(t *testing.T) {
	now := time.Now()
	m := testMailing(now.Add(-time.Second), now.Add(10*time.Second))
	store := newFakeMailingStore(m)
	resolver := &fakeResolver{subs: []model.Subscriber{{ID: 1, Phone: "79990000001"}}}
	msgs := newMemMessageStore()
	snd := newFakeSender(nil)

	s := newTestScheduler(store, resolver, msgs, snd)
	s.Schedule(m)
	s.Schedule(m)

	require.Eventually(t, func() bool { return snd.callCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !s.Active(m.ID) }, 2*time.Second, 10*time.Millisecond)

	// A second registration must not have started a second unit.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, snd.callCount())
	assert.Equal(t, 1, resolver.callCount())
}
