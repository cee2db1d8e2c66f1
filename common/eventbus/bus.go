package eventbus

import (
	"sync"
	"time"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
)

// Event is any value published on the Bus. Concrete event types are
// defined by the producer.
type Event interface{}

// Filter decides whether a subscriber wants an event. A nil filter
// accepts everything.
type Filter func(Event) bool

// Handler is invoked for each event delivered to a subscription. Calls for
// a given subscription never overlap and observe events in arrival order.
// The handler receives its own subscription so it can cancel from within.
type Handler func(sub *Subscription, event Event)

// TimeoutEvent is the sentinel delivered to a subscription armed with a
// timeout once the deadline expires. It is the last event the subscription
// observes.
type TimeoutEvent struct {
	After time.Duration
}

// Bus is a hot multi-subscriber event stream. Every published event is
// offered to all live subscriptions whose filter accepts it; each
// subscription buffers events in its own unbounded FIFO queue and delivers
// them on a dedicated goroutine.
type Bus struct {
	sync.RWMutex
	// streamID identifies this bus lifecycle.
	streamID      string
	subscriptions map[string]*Subscription
	closed        bool

	metrics *Metrics
}

// NewBus creates a Bus rooted at the given metrics scope.
func NewBus(parentScope tally.Scope) *Bus {
	return &Bus{
		streamID:      uuid.NewUUID().String(),
		subscriptions: make(map[string]*Subscription),
		metrics:       NewMetrics(parentScope.SubScope("eventbus")),
	}
}

// StreamID returns the identifier of this bus lifecycle.
func (b *Bus) StreamID() string {
	return b.streamID
}

// Publish offers the event to every live subscription whose filter
// accepts it.
func (b *Bus) Publish(event Event) {
	b.RLock()
	defer b.RUnlock()

	if b.closed {
		b.metrics.PublishAfterClose.Inc(1)
		return
	}

	b.metrics.Published.Inc(1)
	for _, sub := range b.subscriptions {
		if sub.filter == nil || sub.filter(event) {
			sub.enqueue(event)
		}
	}
}

// Subscribe registers a named subscription with the given filter and
// handler. The subscription stays live until cancelled or the bus closes.
func (b *Bus) Subscribe(name string, filter Filter, handler Handler) *Subscription {
	return b.subscribe(name, filter, 0, handler)
}

// SubscribeWithTimeout registers a subscription that, unless cancelled
// first, observes a TimeoutEvent after the given duration and detaches.
// The timeout counts from subscription time.
func (b *Bus) SubscribeWithTimeout(
	name string,
	filter Filter,
	timeout time.Duration,
	handler Handler) *Subscription {
	return b.subscribe(name, filter, timeout, handler)
}

func (b *Bus) subscribe(
	name string,
	filter Filter,
	timeout time.Duration,
	handler Handler) *Subscription {

	sub := newSubscription(b, name, filter, handler)

	b.Lock()
	if b.closed {
		b.Unlock()
		// The bus is gone; hand back an already-cancelled subscription
		// so callers need no special casing.
		sub.cancel(false)
		return sub
	}
	b.subscriptions[sub.id] = sub
	b.metrics.Subscribers.Update(float64(len(b.subscriptions)))
	b.Unlock()

	log.WithFields(log.Fields{
		"stream_id":    b.streamID,
		"subscription": name,
		"timeout":      timeout,
	}).Debug("Subscription registered")

	if timeout > 0 {
		sub.armTimeout(timeout)
	}
	go sub.run()
	return sub
}

// Close cancels every subscription and rejects further publishes.
func (b *Bus) Close() {
	b.Lock()
	if b.closed {
		b.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	log.WithField("stream_id", b.streamID).Info("Event bus closed")
}

// remove detaches the subscription from the publish path.
func (b *Bus) remove(id string) {
	b.Lock()
	defer b.Unlock()

	if _, ok := b.subscriptions[id]; !ok {
		return
	}
	delete(b.subscriptions, id)
	b.metrics.Subscribers.Update(float64(len(b.subscriptions)))
}
