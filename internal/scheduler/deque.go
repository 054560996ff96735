package scheduler

import "github.com/descensiontohell/mailing-service/internal/model"

// subscriberDeque is the dispatcher's work queue. Consumption pops from the
// back; failed subscribers are recycled to the front so they are retried
// after the rest of the current batch, not immediately.
type subscriberDeque struct {
	items []model.Subscriber
}

func newSubscriberDeque(subs []model.Subscriber) *subscriberDeque {
	items := make([]model.Subscriber, len(subs))
	copy(items, subs)
	return &subscriberDeque{items: items}
}

func (q *subscriberDeque) Len() int {
	return len(q.items)
}

func (q *subscriberDeque) PopBack() model.Subscriber {
	last := len(q.items) - 1
	s := q.items[last]
	q.items = q.items[:last]
	return s
}

func (q *subscriberDeque) PushFront(s model.Subscriber) {
	q.items = append([]model.Subscriber{s}, q.items...)
}
