package session

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/atomic"
	"github.com/uber-go/tally"

	"github.com/coxswain-io/coxswain/common/async"
	"github.com/coxswain-io/coxswain/common/eventbus"
	"github.com/coxswain-io/coxswain/mesos"
)

// Registration is the connect result: the identity the master assigned
// to the framework and the master it registered with.
type Registration struct {
	FrameworkID mesos.FrameworkID
	Master      mesos.MasterInfo
}

type stopAction int

const (
	stopDisconnect stopAction = iota
	stopTerminate
	stopAbort
)

// Manager drives the lifecycle of one framework session against the
// master: connect, launch, kill, decline, and the stop family. Results
// of asynchronous operations are delivered on futures that resolve
// exactly once.
type Manager struct {
	driver mesos.Driver
	bus    *eventbus.Bus
	cfg    Config

	// state is the single source of truth for the session lifecycle;
	// all mutations go through CAS.
	state *atomic.Int32

	mu sync.Mutex
	// watches maps a task to its live terminal watch. Insertion replaces
	// and cancels any previous entry for the same task.
	watches map[mesos.TaskID]*eventbus.Subscription
	// pending holds the in-flight launch and kill watches together with
	// the futures they resolve, so a stop can unsubscribe them and fail
	// their results.
	pending map[*eventbus.Subscription]*async.Future

	metrics *Metrics
}

// NewManagerFromFiles creates a session manager configured from the
// given YAML config files.
func NewManagerFromFiles(
	driver mesos.Driver,
	parentScope tally.Scope,
	configFiles ...string) (*Manager, error) {

	cfg, err := LoadConfig(configFiles...)
	if err != nil {
		return nil, err
	}
	return NewManager(driver, cfg, parentScope), nil
}

// NewManager creates a session manager over the given driver.
func NewManager(driver mesos.Driver, cfg Config, parentScope tally.Scope) *Manager {
	cfg.normalize()
	return &Manager{
		driver:  driver,
		bus:     driver.Events(),
		cfg:     cfg,
		state:   atomic.NewInt32(int32(Disconnected)),
		watches: make(map[mesos.TaskID]*eventbus.Subscription),
		pending: make(map[*eventbus.Subscription]*async.Future),
		metrics: NewMetrics(parentScope.SubScope("session")),
	}
}

// State returns the current session state. The value is a hint; it can
// change immediately after the read.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Events returns the session's event stream for read-only consumption.
func (m *Manager) Events() *eventbus.Bus {
	return m.bus
}

func (m *Manager) casState(from, to State) bool {
	return m.state.CAS(int32(from), int32(to))
}

// Connect starts the driver and resolves once the master acknowledges
// the framework registration, the session disconnects, the master
// reports an error, or the connect timeout elapses, whichever comes
// first. The future resolves with a Registration.
func (m *Manager) Connect() (*async.Future, error) {
	if !m.casState(Disconnected, Connecting) {
		m.metrics.ConnectFail.Inc(1)
		return nil, ErrNotDisconnected
	}

	result := async.NewFuture()
	sub := m.bus.SubscribeWithTimeout(
		"connect",
		mesos.IsConnectionEvent,
		m.cfg.ConnectTimeout,
		func(sub *eventbus.Subscription, event eventbus.Event) {
			switch e := event.(type) {
			case *mesos.RegisteredEvent:
				sub.Cancel()
				m.casState(Connecting, Connected)
				log.WithFields(log.Fields{
					"framework_id": e.FrameworkID,
					"master":       e.Master.Host,
				}).Info("Session connected")
				m.metrics.Connect.Inc(1)
				result.Complete(Registration{
					FrameworkID: e.FrameworkID,
					Master:      e.Master,
				})
			case *mesos.DisconnectedEvent:
				sub.Cancel()
				m.casState(Connecting, Disconnected)
				m.metrics.ConnectFail.Inc(1)
				result.Fail(ErrConnectionLost)
			case *mesos.ErrorEvent:
				sub.Cancel()
				m.casState(Connecting, Disconnected)
				m.metrics.ConnectFail.Inc(1)
				result.Fail(&MasterError{Message: e.Message})
			case eventbus.TimeoutEvent:
				m.casState(Connecting, Disconnected)
				m.metrics.ConnectFail.Inc(1)
				result.Fail(ErrConnectTimeout)
			}
		})

	// Arm the subscription before the driver can produce events, then
	// start the driver.
	status := m.driver.Start()
	if !status.IsRunning() {
		log.WithField("status", status).Error("Driver failed to start")
		sub.Cancel()
		m.casState(Connecting, Disconnected)
		m.metrics.ConnectFail.Inc(1)
		// The cancelled subscription resolves nothing from here on. A
		// resolution it made before Start returned stands, since futures
		// resolve exactly once.
		result.Fail(ErrDriverNotRunning)
	}
	return result, nil
}

// Launch launches the given tasks against the given offers. It returns
// one future per task, in task order; each resolves with the TaskInfo
// once its task reaches running, or fails on a terminal state, the
// launch timeout, or session teardown. A synchronous driver rejection
// is returned as an error and leaves no watch armed.
func (m *Manager) Launch(
	offerIDs []mesos.OfferID,
	tasks []mesos.TaskInfo) ([]*async.Future, error) {

	if m.State() != Connected {
		m.metrics.TaskLaunchFail.Inc(int64(len(tasks)))
		return nil, ErrNotConnected
	}

	results := make([]*async.Future, 0, len(tasks))
	subs := make([]*eventbus.Subscription, 0, len(tasks))
	for _, task := range tasks {
		task := task
		result := async.NewFuture()
		sub := m.bus.SubscribeWithTimeout(
			"launch-watch",
			mesos.IsTaskUpdateFor(task.TaskID),
			m.cfg.LaunchTimeout,
			func(sub *eventbus.Subscription, event eventbus.Event) {
				switch e := event.(type) {
				case *mesos.TaskUpdateEvent:
					m.onLaunchUpdate(sub, task, e, result)
				case eventbus.TimeoutEvent:
					m.untrackPending(sub)
					m.metrics.TaskLaunchFail.Inc(1)
					result.Fail(ErrLaunchTimeout)
				}
			})
		m.trackPending(sub, result)
		results = append(results, result)
		subs = append(subs, sub)
	}

	if err := m.driver.LaunchTasks(offerIDs, tasks); err != nil {
		for _, sub := range subs {
			m.untrackPending(sub)
			sub.Cancel()
		}
		m.metrics.TaskLaunchFail.Inc(int64(len(tasks)))
		return nil, errors.Wrap(err, "driver rejected launch")
	}

	log.WithFields(log.Fields{
		"num_offers": len(offerIDs),
		"num_tasks":  len(tasks),
	}).Debug("Tasks launched")
	return results, nil
}

func (m *Manager) onLaunchUpdate(
	sub *eventbus.Subscription,
	task mesos.TaskInfo,
	update *mesos.TaskUpdateEvent,
	result *async.Future) {

	switch {
	case update.State == mesos.TaskRunning:
		sub.Cancel()
		m.untrackPending(sub)
		m.watchTerminal(task.TaskID)
		m.metrics.TaskLaunch.Inc(1)
		log.WithField("task_id", task.TaskID).Debug("Task running")
		result.Complete(task)
	case update.State == mesos.TaskStaging,
		update.State == mesos.TaskStarting:
		// Still in flight; keep the watch.
	default:
		sub.Cancel()
		m.untrackPending(sub)
		m.metrics.TaskLaunchFail.Inc(1)
		result.Fail(&TaskFailedError{
			TaskID:  task.TaskID,
			State:   update.State,
			Message: update.Message,
		})
	}
}

// watchTerminal installs the long-lived per-task watch that observes the
// task until a terminal state. It has no timeout; tasks may run
// arbitrarily long.
func (m *Manager) watchTerminal(id mesos.TaskID) {
	sub := m.bus.Subscribe(
		"terminal-watch",
		mesos.IsTaskUpdateFor(id),
		func(sub *eventbus.Subscription, event eventbus.Event) {
			update, ok := event.(*mesos.TaskUpdateEvent)
			if !ok || !update.State.IsTerminal() {
				return
			}
			log.WithFields(log.Fields{
				"task_id": id,
				"state":   update.State,
			}).Info("Task reached terminal state")
			sub.Cancel()
			m.removeWatch(id, sub)
		})

	m.mu.Lock()
	if old, ok := m.watches[id]; ok {
		old.Cancel()
	}
	m.watches[id] = sub
	m.metrics.TaskWatches.Update(float64(len(m.watches)))
	m.mu.Unlock()

	// The session may have stopped between the connected check and the
	// insert; re-validate and clean up.
	if m.State() != Connected {
		m.removeWatch(id, sub)
		sub.Cancel()
	}
}

func (m *Manager) removeWatch(id mesos.TaskID, sub *eventbus.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.watches[id]; ok && current == sub {
		delete(m.watches, id)
		m.metrics.TaskWatches.Update(float64(len(m.watches)))
	}
}

// Kill asks the master to kill a task. The future resolves with the task
// ID once the task is killed, or already terminated for another reason;
// it fails if the task was lost or the kill timeout elapses.
func (m *Manager) Kill(taskID mesos.TaskID) (*async.Future, error) {
	if m.State() != Connected {
		m.metrics.TaskKillFail.Inc(1)
		return nil, ErrNotConnected
	}

	result := async.NewFuture()
	sub := m.bus.SubscribeWithTimeout(
		"kill-watch",
		mesos.IsTaskUpdateFor(taskID),
		m.cfg.KillTimeout,
		func(sub *eventbus.Subscription, event eventbus.Event) {
			switch e := event.(type) {
			case *mesos.TaskUpdateEvent:
				switch {
				case e.State == mesos.TaskKilled:
					sub.Cancel()
					m.untrackPending(sub)
					m.metrics.TaskKill.Inc(1)
					result.Complete(taskID)
				case e.State == mesos.TaskLost:
					sub.Cancel()
					m.untrackPending(sub)
					m.metrics.TaskKillFail.Inc(1)
					result.Fail(&TaskFailedError{
						TaskID:  taskID,
						State:   e.State,
						Message: e.Message,
					})
				case e.State.IsTerminal():
					// Already terminated; the kill is moot.
					sub.Cancel()
					m.untrackPending(sub)
					m.metrics.TaskKill.Inc(1)
					result.Complete(taskID)
				default:
					// Not terminal yet; keep waiting.
				}
			case eventbus.TimeoutEvent:
				m.untrackPending(sub)
				m.metrics.TaskKillFail.Inc(1)
				result.Fail(ErrKillTimeout)
			}
		})
	m.trackPending(sub, result)

	if err := m.driver.KillTask(taskID); err != nil {
		m.untrackPending(sub)
		sub.Cancel()
		m.metrics.TaskKillFail.Inc(1)
		return nil, errors.Wrapf(err, "driver rejected kill of task %s", taskID)
	}
	return result, nil
}

// trackPending registers an in-flight launch or kill watch so a stop can
// unsubscribe it and fail its result.
func (m *Manager) trackPending(sub *eventbus.Subscription, result *async.Future) {
	m.mu.Lock()
	m.pending[sub] = result
	m.metrics.PendingWatches.Update(float64(len(m.pending)))
	m.mu.Unlock()

	// A stop may have swept the registry between the connected check
	// and the insert; re-validate and clean up.
	if m.State() != Connected {
		m.untrackPending(sub)
		sub.Cancel()
		result.Fail(ErrSessionStopped)
	}
}

func (m *Manager) untrackPending(sub *eventbus.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[sub]; ok {
		delete(m.pending, sub)
		m.metrics.PendingWatches.Update(float64(len(m.pending)))
	}
}

// Decline returns an unused offer to the master. Decline is permitted in
// any state except Disconnected so offers arriving during the connect
// race are not dropped on the floor.
func (m *Manager) Decline(offerID mesos.OfferID) error {
	if m.State() == Disconnected {
		m.metrics.OfferDeclineFail.Inc(1)
		return ErrDisconnected
	}

	if err := m.driver.DeclineOffer(offerID); err != nil {
		m.metrics.OfferDeclineFail.Inc(1)
		return errors.Wrapf(err, "failed to decline offer %s", offerID)
	}
	m.metrics.OfferDecline.Inc(1)
	log.WithField("offer_id", offerID).Debug("Offer declined")
	return nil
}

// Disconnect stops the session with failover enabled, leaving launched
// tasks running on their agents. The future resolves with the driver's
// final status.
func (m *Manager) Disconnect() (*async.Future, error) {
	return m.stop(stopDisconnect)
}

// Terminate stops the session without failover; the master kills the
// framework's tasks.
func (m *Manager) Terminate() (*async.Future, error) {
	return m.stop(stopTerminate)
}

// Abort aborts the driver without deactivating the framework.
func (m *Manager) Abort() (*async.Future, error) {
	return m.stop(stopAbort)
}

func (m *Manager) stop(action stopAction) (*async.Future, error) {
	if !m.casState(Connected, Disconnecting) {
		return nil, ErrNotConnected
	}

	m.drainWatches()
	switch action {
	case stopDisconnect:
		m.driver.Stop(true)
	case stopTerminate:
		m.driver.Stop(false)
	case stopAbort:
		m.driver.Abort()
	}
	m.metrics.SessionStop.Inc(1)

	// Join blocks until the driver loop exits; run it on the driver's
	// blocking-tolerant executor.
	result := async.NewFuture()
	m.driver.Executor().Enqueue(func() {
		status := m.driver.Join()
		if !m.casState(Disconnecting, Disconnected) {
			result.Fail(ErrStopStateChanged)
			return
		}
		log.WithField("status", status).Info("Session disconnected")
		result.Complete(status)
	})
	return result, nil
}

// drainWatches cancels every outstanding task watch: the long-lived
// terminal watches and the in-flight launch and kill watches alike.
// Futures of in-flight watches fail; their subscriptions are gone and
// their timeouts with them.
func (m *Manager) drainWatches() {
	m.mu.Lock()
	subs := make([]*eventbus.Subscription, 0, len(m.watches))
	for _, sub := range m.watches {
		subs = append(subs, sub)
	}
	m.watches = make(map[mesos.TaskID]*eventbus.Subscription)
	m.metrics.TaskWatches.Update(0)

	inflight := make(map[*eventbus.Subscription]*async.Future, len(m.pending))
	for sub, result := range m.pending {
		inflight[sub] = result
	}
	m.pending = make(map[*eventbus.Subscription]*async.Future)
	m.metrics.PendingWatches.Update(0)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	for sub, result := range inflight {
		sub.Cancel()
		result.Fail(ErrSessionStopped)
	}
	if len(subs)+len(inflight) > 0 {
		log.WithFields(log.Fields{
			"num_watches":  len(subs),
			"num_inflight": len(inflight),
		}).Info("Task watches drained")
	}
}
