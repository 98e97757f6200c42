package formdeps

import (
	"context"
	"sync"
)

// Runner schedules asynchronous work for a Controller. Go runs job off the
// event loop; the function job returns, if not nil, must then be run on the
// event loop.
type Runner interface {
	Go(job func() func())
}

// EventLoop is a single goroutine that runs posted functions one at a time.
// Controllers driven by an EventLoop must only be called from functions
// posted to it.
type EventLoop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEventLoop creates a loop whose queue holds up to size pending functions.
func NewEventLoop(size int) *EventLoop {
	if size < 1 {
		size = 64
	}
	return &EventLoop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post schedules fn on the loop. It reports false if the loop has stopped.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Go runs job on its own goroutine and posts its completion to the loop.
func (l *EventLoop) Go(job func() func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if apply := job(); apply != nil {
			l.Post(apply)
		}
	}()
}

// Run processes posted functions until ctx is done.
func (l *EventLoop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Wait blocks until every job started with Go has returned.
func (l *EventLoop) Wait() { l.wg.Wait() }

func (l *EventLoop) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}
