package eventbus

import (
	"container/list"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/uber-go/atomic"
)

// Subscription is one subscriber's filtered view of the bus. Events are
// buffered in an unbounded FIFO and handed to the handler one at a time on
// a dedicated goroutine.
type Subscription struct {
	id      string
	name    string
	bus     *Bus
	filter  Filter
	handler Handler

	mu    sync.Mutex
	items *list.List
	// signal has a buffer of one so a successful enqueue always wakes
	// the delivery goroutine.
	signal chan struct{}
	stopCh chan struct{}

	cancelled *atomic.Bool
	expired   *atomic.Bool
	timer     *time.Timer
}

func newSubscription(bus *Bus, name string, filter Filter, handler Handler) *Subscription {
	return &Subscription{
		id:        uuid.NewUUID().String(),
		name:      name,
		bus:       bus,
		filter:    filter,
		handler:   handler,
		items:     list.New(),
		signal:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		cancelled: atomic.NewBool(false),
		expired:   atomic.NewBool(false),
	}
}

// Name returns the subscriber name given at subscribe time.
func (s *Subscription) Name() string {
	return s.name
}

// Cancel detaches the subscription from the bus and stops delivery.
// Buffered events that have not been handed to the handler are dropped.
// Cancel is idempotent and safe to call from within the handler.
func (s *Subscription) Cancel() {
	s.cancel(true)
}

// IsCancelled returns whether the subscription was cancelled.
func (s *Subscription) IsCancelled() bool {
	return s.cancelled.Load()
}

func (s *Subscription) cancel(detach bool) {
	if !s.cancelled.CAS(false, true) {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.stopCh)
	if detach {
		s.bus.remove(s.id)
	}
}

// armTimeout schedules delivery of the TimeoutEvent sentinel.
func (s *Subscription) armTimeout(after time.Duration) {
	s.timer = time.AfterFunc(after, func() {
		s.expire(after)
	})
}

// expire detaches the subscription from the publish path and enqueues the
// sentinel behind any events that arrived before the deadline.
func (s *Subscription) expire(after time.Duration) {
	if s.cancelled.Load() || !s.expired.CAS(false, true) {
		return
	}
	s.bus.remove(s.id)
	s.bus.metrics.Timeouts.Inc(1)

	s.mu.Lock()
	s.items.PushBack(TimeoutEvent{After: after})
	s.mu.Unlock()
	s.wake()
}

// enqueue buffers an event for delivery. Events offered after cancellation
// or expiry are silently discarded.
func (s *Subscription) enqueue(event Event) {
	if s.cancelled.Load() || s.expired.Load() {
		s.bus.metrics.Dropped.Inc(1)
		return
	}

	s.mu.Lock()
	s.items.PushBack(event)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// run is the delivery loop. It exits on cancellation or after handing the
// TimeoutEvent sentinel to the handler.
func (s *Subscription) run() {
	for {
		event, ok := s.next()
		if !ok {
			return
		}

		s.handler(s, event)
		s.bus.metrics.Delivered.Inc(1)

		if _, isTimeout := event.(TimeoutEvent); isTimeout {
			s.Cancel()
			return
		}
	}
}

// next blocks until an event is available or the subscription stops.
func (s *Subscription) next() (Event, bool) {
	for {
		if s.cancelled.Load() {
			return nil, false
		}

		s.mu.Lock()
		front := s.items.Front()
		if front != nil {
			s.items.Remove(front)
			s.mu.Unlock()
			return front.Value.(Event), true
		}
		s.mu.Unlock()

		select {
		case <-s.stopCh:
			return nil, false
		case <-s.signal:
		}
	}
}
