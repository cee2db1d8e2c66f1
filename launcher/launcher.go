package launcher

import (
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/coxswain-io/coxswain/common/async"
	"github.com/coxswain-io/coxswain/common/eventbus"
	"github.com/coxswain-io/coxswain/common/lifecycle"
	"github.com/coxswain-io/coxswain/mesos"
)

// ErrStopped fails submissions issued or pending after the launcher is
// stopped.
var ErrStopped = errors.New("task launcher is stopped")

// SessionClient is the slice of the session manager the launcher drives:
// accepting offers in a launch and declining the rest.
type SessionClient interface {
	Launch(offerIDs []mesos.OfferID, tasks []mesos.TaskInfo) ([]*async.Future, error)
	Decline(offerID mesos.OfferID) error
}

// pendingLaunch is one outstanding submission: its descriptors, the
// acceptance filter, its offer subscription and its aggregate result.
type pendingLaunch struct {
	id          string
	descriptors []mesos.TaskDescriptor
	filter      Filter
	sub         *eventbus.Subscription
	result      *async.Future
}

// Launcher consumes the incoming offer stream on behalf of submissions,
// chooses offer subsets that satisfy all descriptors of a submission,
// accepts them through the session manager and declines everything else.
type Launcher struct {
	session SessionClient
	bus     *eventbus.Bus

	mu      sync.Mutex
	pending map[string]*pendingLaunch

	lc      *lifecycle.LifeCycle
	metrics *Metrics
}

// NewLauncher creates a task launcher over the given session and event
// stream.
func NewLauncher(
	session SessionClient,
	bus *eventbus.Bus,
	parentScope tally.Scope) *Launcher {

	l := &Launcher{
		session: session,
		bus:     bus,
		pending: make(map[string]*pendingLaunch),
		lc:      lifecycle.New(),
		metrics: NewMetrics(parentScope.SubScope("launcher")),
	}
	l.lc.Start()
	return l
}

// SubmitTasks requests the launch of one task per descriptor. The future
// resolves with the launched TaskInfos in descriptor order once every
// task is running; it fails if any task fails to launch. Offers keep
// being consumed, and declined when unusable, until a batch satisfies
// the whole descriptor set and passes the filter.
func (l *Launcher) SubmitTasks(
	descriptors []mesos.TaskDescriptor,
	filter Filter) *async.Future {

	result := async.NewFuture()
	if len(descriptors) == 0 {
		result.Complete([]mesos.TaskInfo{})
		return result
	}

	select {
	case <-l.lc.StopCh():
		result.Fail(ErrStopped)
		return result
	default:
	}

	p := &pendingLaunch{
		id:          uuid.NewUUID().String(),
		descriptors: descriptors,
		filter:      filter,
		result:      result,
	}
	p.sub = l.bus.Subscribe(
		"offer-watch",
		mesos.IsOffersEvent,
		func(sub *eventbus.Subscription, event eventbus.Event) {
			l.processOffers(p, event.(*mesos.OffersEvent).Offers)
		})

	l.mu.Lock()
	l.pending[p.id] = p
	l.mu.Unlock()

	log.WithFields(log.Fields{
		"submission": p.id,
		"num_tasks":  len(descriptors),
	}).Info("Submission accepted")
	return result
}

// Stop cancels all outstanding submissions and rejects new ones.
func (l *Launcher) Stop() {
	if !l.lc.Stop() {
		return
	}

	l.mu.Lock()
	pending := make([]*pendingLaunch, 0, len(l.pending))
	for _, p := range l.pending {
		pending = append(pending, p)
	}
	l.pending = make(map[string]*pendingLaunch)
	l.mu.Unlock()

	for _, p := range pending {
		p.sub.Cancel()
		p.result.Fail(ErrStopped)
	}
	l.lc.StopComplete()
	log.WithField("num_pending", len(pending)).Info("Task launcher stopped")
}

// processOffers handles one offer batch for one submission. Runs on the
// submission's delivery goroutine, so batches are handled one at a time
// in arrival order.
func (l *Launcher) processOffers(p *pendingLaunch, offers []*mesos.Offer) {
	if len(offers) == 0 {
		return
	}
	start := time.Now()

	m := newMatcher(p.descriptors)
	for _, offer := range offers {
		m.tryMatch(offer)
	}

	if !m.isComplete() {
		// Some descriptors are unmatched; nothing from this batch is
		// retained. Wait for later offer events.
		l.declineBatch(p, offers, nil)
		return
	}

	proposed := m.assignment()
	if !l.acceptable(p, proposed) {
		l.declineBatch(p, offers, nil)
		return
	}

	offerIDs := m.offerIDs()
	tasks := m.taskInfos()
	l.metrics.OffersAccepted.Inc(int64(len(offerIDs)))

	// Offers the assignment does not use go back to the master right
	// away.
	l.declineBatch(p, offers, m)

	futures, err := l.session.Launch(offerIDs, tasks)
	if err != nil {
		// The driver rejected the call. Return the attempted offers
		// and leave the submission pending; a future batch may
		// satisfy it.
		log.WithError(err).WithFields(log.Fields{
			"submission": p.id,
			"num_offers": len(offerIDs),
		}).Error("Launch rejected, returning offers")
		l.metrics.LaunchRejected.Inc(1)
		for _, id := range offerIDs {
			l.decline(id)
		}
		return
	}

	// The aggregate is now determined by the per-task results; no more
	// offers are needed.
	p.sub.Cancel()
	l.unregister(p)
	l.metrics.ProcessBatchDuration.Record(time.Since(start))
	go l.forward(p, futures)
}

// acceptable applies the submission's filter to a proposed assignment. A
// panicking filter counts as a rejection.
func (l *Launcher) acceptable(p *pendingLaunch, proposed Assignment) (ok bool) {
	if p.filter == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"submission": p.id,
				"panic":      r,
			}).Error("Filter panicked, treating as reject")
			l.metrics.FilterPanics.Inc(1)
			ok = false
		}
	}()
	ok = p.filter(proposed)
	if !ok {
		l.metrics.FilterRejects.Inc(1)
	}
	return ok
}

// declineBatch declines every offer of the batch not used by the given
// matcher. A nil matcher declines the whole batch.
func (l *Launcher) declineBatch(p *pendingLaunch, offers []*mesos.Offer, m *matcher) {
	for _, offer := range offers {
		if m != nil && m.isUsed(offer.ID) {
			continue
		}
		l.decline(offer.ID)
	}
}

func (l *Launcher) decline(id mesos.OfferID) {
	if err := l.session.Decline(id); err != nil {
		log.WithError(err).WithField("offer_id", id).Warn("Failed to decline offer")
		return
	}
	l.metrics.OffersDeclined.Inc(1)
}

// forward resolves the submission's aggregate result from the per-task
// futures, preserving descriptor order.
func (l *Launcher) forward(p *pendingLaunch, futures []*async.Future) {
	aggregate := async.Collect(futures)
	<-aggregate.Done()

	if err := aggregate.Err(); err != nil {
		l.metrics.SubmitFail.Inc(1)
		p.result.Fail(err)
		return
	}

	values := aggregate.Value().([]interface{})
	infos := make([]mesos.TaskInfo, 0, len(values))
	for _, v := range values {
		infos = append(infos, v.(mesos.TaskInfo))
	}
	l.metrics.SubmitSuccess.Inc(1)
	log.WithFields(log.Fields{
		"submission": p.id,
		"num_tasks":  len(infos),
	}).Info("Submission launched")
	p.result.Complete(infos)
}

func (l *Launcher) unregister(p *pendingLaunch) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, p.id)
}
