package async

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrFutureCancelled is returned by Get when the enclosing context is
// done before the future resolves.
var ErrFutureCancelled = errors.New("future cancelled before resolution")

// Future is a write-once asynchronous result. It resolves exactly once,
// either with a value via Complete or with an error via Fail; later
// resolution attempts are no-ops. Waiters block on Done or Get.
type Future struct {
	mu    sync.Mutex
	done  chan struct{}
	value interface{}
	err   error
}

// NewFuture returns an unresolved Future.
func NewFuture() *Future {
	return &Future{
		done: make(chan struct{}),
	}
}

// Complete resolves the future with a value. Returns false if the future
// was already resolved.
func (f *Future) Complete(value interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return false
	default:
	}

	f.value = value
	close(f.done)
	return true
}

// Fail resolves the future with an error. Returns false if the future was
// already resolved.
func (f *Future) Fail(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return false
	default:
	}

	f.err = err
	close(f.done)
	return true
}

// Done returns a channel closed once the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone returns whether the future has resolved.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the future resolves or ctx is done.
func (f *Future) Get(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		return nil, ErrFutureCancelled
	}
}

// Value returns the resolved value. Only meaningful after Done.
func (f *Future) Value() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Err returns the resolving error, if any. Only meaningful after Done.
func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Collect returns a future over the given futures which completes with
// their values in input order once every input succeeds, or fails with
// the error of the first failed future in input order. The aggregate
// resolves exactly once.
func Collect(futures []*Future) *Future {
	result := NewFuture()
	if len(futures) == 0 {
		result.Complete([]interface{}{})
		return result
	}

	go func() {
		values := make([]interface{}, 0, len(futures))
		for _, f := range futures {
			<-f.Done()
			if err := f.Err(); err != nil {
				result.Fail(err)
				return
			}
			values = append(values, f.Value())
		}
		result.Complete(values)
	}()
	return result
}
