package lifecycle

import (
	"sync"
)

type state int

const (
	idle state = iota
	running
	stopped
)

// LifeCycle is a one-shot start/stop guard. The launcher uses it to
// reject submissions issued after Stop and to sweep the ones still
// pending: goroutines guard on StopCh, the stopping side calls Stop and
// then StopComplete once the sweep is done.
//
// A LifeCycle runs at most once; after Stop it cannot be restarted.
type LifeCycle struct {
	mu    sync.Mutex
	state state

	// stopCh is allocated up front and closed exactly once by Stop, so
	// StopCh is safe to call at any point in the lifecycle.
	stopCh   chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a LifeCycle in the idle state.
func New() *LifeCycle {
	return &LifeCycle{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start marks the lifecycle running. Returns false if it already ran.
func (l *LifeCycle) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != idle {
		return false
	}
	l.state = running
	return true
}

// Stop broadcasts the stop to everyone guarding on StopCh. Returns false
// unless the lifecycle was running; only the caller that gets true may
// perform the teardown.
func (l *LifeCycle) Stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != running {
		return false
	}
	l.state = stopped
	close(l.stopCh)
	return true
}

// StopCh returns the channel closed when Stop is called.
func (l *LifeCycle) StopCh() <-chan struct{} {
	return l.stopCh
}

// StopComplete records that the teardown finished. It unblocks Wait and
// is safe to call more than once.
func (l *LifeCycle) StopComplete() {
	l.doneOnce.Do(func() {
		close(l.done)
	})
}

// Wait blocks until StopComplete is called.
func (l *LifeCycle) Wait() {
	<-l.done
}
