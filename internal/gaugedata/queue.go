package gaugedata

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/types"
)

// message is one queue entry. A message with stop set is the shutdown
// sentinel.
type message struct {
	packet types.Packet
	stop   bool
}

// Queue hands packets from the host's delivery callbacks to the worker.
// Producers wait a bounded time when it is full rather than dropping
// packets silently.
type Queue struct {
	ch      chan message
	timeout time.Duration
	stopped atomic.Bool
	dropped atomic.Uint64
	logger  *zap.SugaredLogger
}

// NewQueue returns a queue holding up to size packets. Put waits up to
// timeout for room.
func NewQueue(size int, timeout time.Duration, logger *zap.SugaredLogger) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		ch:      make(chan message, size),
		timeout: timeout,
		logger:  logger,
	}
}

// Put queues a packet.
func (q *Queue) Put(p types.Packet) error {
	if q.stopped.Load() {
		return ErrStopped
	}

	select {
	case q.ch <- message{packet: p}:
		return nil
	default:
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()
	select {
	case q.ch <- message{packet: p}:
		return nil
	case <-timer.C:
		n := q.dropped.Add(1)
		q.logger.Warnf("gauge data queue full for %v, dropping %s packet %v (%d dropped)", q.timeout, p.Kind, p.Timestamp.Unix(), n)
		return ErrQueueFull
	}
}

// Stop queues the shutdown sentinel behind any packets already queued.
// Later Puts fail with ErrStopped. It waits at most wait for room.
func (q *Queue) Stop(wait time.Duration) error {
	if q.stopped.Swap(true) {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case q.ch <- message{stop: true}:
		return nil
	case <-timer.C:
		return ErrQueueFull
	}
}

// Stopped reports whether Stop has been called.
func (q *Queue) Stopped() bool {
	return q.stopped.Load()
}

// get waits up to timeout for the next message.
func (q *Queue) get(timeout time.Duration) (message, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m := <-q.ch:
		return m, true
	case <-timer.C:
		return message{}, false
	}
}

// Dropped returns how many packets Put gave up on.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.ch)
}
