package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
)

// defaultLoopInterval is the fetch interval used when none is configured.
const defaultLoopInterval = 200 * time.Millisecond

// loopState holds the run/stop flag and worker channels for the background
// acquisition loop. At most one worker goroutine is active per source.
type loopState struct {
	mx       sync.Mutex
	interval time.Duration
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// LoopInterval returns the configured loop fetch interval.
func (s *Source) LoopInterval() time.Duration {
	s.loop.mx.Lock()
	defer s.loop.mx.Unlock()
	return s.loop.interval
}

// SetLoopInterval changes the loop fetch interval. A running loop picks the
// new interval up on its next iteration.
func (s *Source) SetLoopInterval(d time.Duration) {
	s.loop.mx.Lock()
	defer s.loop.mx.Unlock()
	if d > 0 {
		s.loop.interval = d
	}
}

// Looping reports whether the background loop is running.
func (s *Source) Looping() bool {
	s.loop.mx.Lock()
	defer s.loop.mx.Unlock()
	return s.loop.running
}

// StartLoop starts the background acquisition loop on a dedicated worker
// goroutine. The worker performs one default fetch per interval; the
// interval is a floor, not a hard schedule. Calling StartLoop while the
// loop is running is a no-op. Cancelling ctx also terminates the loop.
func (s *Source) StartLoop(ctx context.Context) {
	s.loop.mx.Lock()
	defer s.loop.mx.Unlock()
	if s.loop.running {
		return
	}
	s.loop.stop = make(chan struct{})
	s.loop.done = make(chan struct{})
	s.loop.running = true
	go s.runLoop(ctx, s.loop.stop, s.loop.done)
}

// StopLoop requests cooperative termination of the loop worker. The worker
// observes the request within one interval; an in-flight backend fetch is
// not interrupted. Calling StopLoop while stopped is a no-op.
func (s *Source) StopLoop() {
	s.loop.mx.Lock()
	defer s.loop.mx.Unlock()
	if !s.loop.running {
		return
	}
	close(s.loop.stop)
	s.loop.running = false
}

// loopDone returns the termination channel of the current worker, nil when
// no worker was ever started.
func (s *Source) loopDone() <-chan struct{} {
	s.loop.mx.Lock()
	defer s.loop.mx.Unlock()
	return s.loop.done
}

// runLoop executes on the worker goroutine. Each iteration records its
// start time, performs a default fetch, then waits out the remainder of the
// interval with an interruptible wait so a stop request wakes it
// immediately. A failed fetch is logged and the loop keeps running; a
// single dropped frame must not kill acquisition.
func (s *Source) runLoop(ctx context.Context, stop, done chan struct{}) {
	defer func() {
		s.loop.mx.Lock()
		if s.loop.done == done {
			s.loop.running = false
		}
		s.loop.mx.Unlock()
		close(done)
	}()

	logger := log.WithField("source", s.name()).WithField("kind", s.backend.Kind())
	logger.Debug("acquisition loop started")
	defer logger.Debug("acquisition loop stopped")

	drainer, canDrain := s.backend.(Drainer)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		if err := s.Fetch(ctx, Default()); err != nil {
			logger.WithError(err).Warn("loop fetch failed")
		}

		deadline := start.Add(s.LoopInterval())
		if canDrain {
			if stopped := s.drainUntil(ctx, drainer, deadline, stop, logger); stopped {
				return
			}
			continue
		}
		remain := time.Until(deadline)
		if remain <= 0 {
			// Late; proceed immediately, missed ticks are not caught up.
			continue
		}
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(remain):
		}
	}
}

// drainUntil reads and discards buffered backend items until the deadline,
// keeping the input buffer fresh instead of sleeping. It returns true when
// a stop was requested. On a drain error it falls back to a timed wait for
// the remainder of the interval.
func (s *Source) drainUntil(ctx context.Context, drainer Drainer, deadline time.Time, stop chan struct{}, logger *log.Entry) bool {
	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return true
		case <-ctx.Done():
			return true
		default:
		}
		if err := drainer.Drain(); err != nil {
			logger.WithError(err).Warn("buffer drain failed")
			select {
			case <-stop:
				return true
			case <-ctx.Done():
				return true
			case <-time.After(time.Until(deadline)):
			}
			return false
		}
	}
	return false
}
